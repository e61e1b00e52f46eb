package dto

import "github.com/noah-isme/homework-assistant-api/internal/models"

// AIHelpRequest asks the assistant a question in the context of one assignment.
type AIHelpRequest struct {
	Query             string `json:"query" validate:"required,max=4000"`
	StudentHomeworkID uint   `json:"studenthomeworkid" validate:"required,gt=0"`
}

// AIHelpResponse carries the assistant's answer.
type AIHelpResponse struct {
	Response      string `json:"response"`
	InteractionID uint   `json:"interaction_id"`
}

// AIInteractionResponse is a logged question and answer.
type AIInteractionResponse struct {
	Query     string `json:"query"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// NewAIInteractionResponseSlice converts interactions into DTOs, preserving order.
func NewAIInteractionResponseSlice(interactions []models.AIInteraction) []AIInteractionResponse {
	responses := make([]AIInteractionResponse, 0, len(interactions))
	for _, interaction := range interactions {
		timestamp := ""
		if formatted := FormatTimestamp(&interaction.CreatedAt); formatted != nil {
			timestamp = *formatted
		}
		responses = append(responses, AIInteractionResponse{
			Query:     interaction.Query,
			Response:  interaction.Response,
			Timestamp: timestamp,
		})
	}

	return responses
}
