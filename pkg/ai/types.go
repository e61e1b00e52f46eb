package ai

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model answers with no usable text.
var ErrEmptyResponse = errors.New("assistant returned an empty response")

// Answer is the text produced for one question plus usage details.
type Answer struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Metadata flattens the answer details for persistence next to the text.
func (a Answer) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"model":             a.Model,
		"prompt_tokens":     a.PromptTokens,
		"completion_tokens": a.CompletionTokens,
		"total_tokens":      a.TotalTokens,
	}
}

// Assistant answers homework questions. The session key scopes any remembered conversation.
type Assistant interface {
	Ask(ctx context.Context, sessionKey, query string) (Answer, error)
}

// Turn is one remembered question and answer.
type Turn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// History stores recent turns per session key.
type History interface {
	Load(ctx context.Context, sessionKey string) ([]Turn, error)
	Append(ctx context.Context, sessionKey string, turn Turn) error
}
