package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	askDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "homework",
		Subsystem: "assistant",
		Name:      "request_duration_seconds",
		Help:      "Duration of assistant requests",
	}, []string{"model"})

	askFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homework",
		Subsystem: "assistant",
		Name:      "request_failures_total",
		Help:      "Number of failed assistant requests",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the chat completion assistant.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
	History     History
	Logger      zerolog.Logger
}

// OpenAIAssistant implements Assistant against any OpenAI-compatible chat completion API.
type OpenAIAssistant struct {
	client  *openai.Client
	cfg     OpenAIConfig
	history History
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewOpenAIAssistant builds an assistant using the provided configuration.
func NewOpenAIAssistant(cfg OpenAIConfig) (*OpenAIAssistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("assistant api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	history := cfg.History
	if history == nil {
		history = NopHistory{}
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &OpenAIAssistant{
		client:  openai.NewClientWithConfig(config),
		cfg:     cfg,
		history: history,
		tracer:  otel.Tracer("github.com/noah-isme/homework-assistant-api/pkg/ai/openai"),
		logger:  cfg.Logger.With().Str("component", "assistant").Logger(),
	}, nil
}

// Ask sends the question, preceded by the session's remembered turns, and returns the answer.
func (a *OpenAIAssistant) Ask(parent context.Context, sessionKey, query string) (Answer, error) {
	ctx, cancel := context.WithTimeout(parent, a.cfg.Timeout)
	defer cancel()

	ctx, span := a.tracer.Start(ctx, "assistant.ask", trace.WithAttributes(
		attribute.String("model", a.cfg.Model),
		attribute.String("session", sessionKey),
	))
	defer span.End()

	turns, err := a.history.Load(ctx, sessionKey)
	if err != nil {
		a.logger.Warn().Err(err).Str("session", sessionKey).Msg("failed to load assistant history")
		turns = nil
	}

	request := openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages:    buildMessages(turns, query),
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, request)
	askDuration.WithLabelValues(a.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return Answer{}, a.fail(span, fmt.Errorf("assistant request: %w", err))
	}

	if len(resp.Choices) == 0 {
		return Answer{}, a.fail(span, fmt.Errorf("no choices returned from assistant"))
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return Answer{}, a.fail(span, ErrEmptyResponse)
	}

	if err := a.history.Append(ctx, sessionKey, Turn{Query: query, Response: text}); err != nil {
		a.logger.Warn().Err(err).Str("session", sessionKey).Msg("failed to store assistant history")
	}

	model := resp.Model
	if model == "" {
		model = a.cfg.Model
	}

	return Answer{
		Text:             text,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

func (a *OpenAIAssistant) fail(span trace.Span, err error) error {
	askFailures.WithLabelValues(a.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func buildMessages(turns []Turn, query string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)*2+1)
	for _, turn := range turns {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(turn.Query)},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: turn.Response},
		)
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: BuildPrompt(query),
	})
}
