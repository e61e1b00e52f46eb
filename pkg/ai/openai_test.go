package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type fakeCompletions struct {
	mu       sync.Mutex
	requests []chatRequest
	reply    string
	delay    time.Duration
}

func (f *fakeCompletions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  req.Model,
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": f.reply},
			},
		},
		"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15},
	})
}

func newTestAssistant(t *testing.T, fake *fakeCompletions, history History, timeout time.Duration) *OpenAIAssistant {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	assistant, err := NewOpenAIAssistant(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
		Model:   "test-model",
		Timeout: timeout,
		History: history,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return assistant
}

func TestBuildPromptUsesEducationalTemplate(t *testing.T) {
	prompt := BuildPrompt("  What is 2+2?  ")

	require.True(t, strings.HasPrefix(prompt, "As a helpful educational assistant, please help with this homework question:\nWhat is 2+2?\n\n"))
	require.True(t, strings.HasSuffix(prompt, "helps the student understand the concept."))
}

func TestNewOpenAIAssistantRequiresKey(t *testing.T) {
	_, err := NewOpenAIAssistant(OpenAIConfig{})
	require.Error(t, err)
}

func TestAskReturnsAnswerWithUsage(t *testing.T) {
	fake := &fakeCompletions{reply: "  Four.  "}
	assistant := newTestAssistant(t, fake, nil, time.Second)

	answer, err := assistant.Ask(context.Background(), "studenthomework:1", "What is 2+2?")
	require.NoError(t, err)
	require.Equal(t, "Four.", answer.Text)
	require.Equal(t, "test-model", answer.Model)
	require.Equal(t, 15, answer.TotalTokens)
	require.Equal(t, "test-model", answer.Metadata()["model"])

	require.Len(t, fake.requests, 1)
	require.Len(t, fake.requests[0].Messages, 1)
	require.Equal(t, BuildPrompt("What is 2+2?"), fake.requests[0].Messages[0].Content)
}

func TestAskRejectsBlankAnswer(t *testing.T) {
	fake := &fakeCompletions{reply: "   "}
	assistant := newTestAssistant(t, fake, nil, time.Second)

	_, err := assistant.Ask(context.Background(), "studenthomework:1", "hello")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAskHonoursTimeout(t *testing.T) {
	fake := &fakeCompletions{reply: "late", delay: 500 * time.Millisecond}
	assistant := newTestAssistant(t, fake, nil, 50*time.Millisecond)

	_, err := assistant.Ask(context.Background(), "studenthomework:1", "hello")
	require.Error(t, err)
}

func TestAskReplaysHistoryForSameSessionOnly(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	fake := &fakeCompletions{reply: "answer"}
	assistant := newTestAssistant(t, fake, NewRedisHistory(client, 10, time.Minute), time.Second)
	ctx := context.Background()

	_, err = assistant.Ask(ctx, "studenthomework:1", "first")
	require.NoError(t, err)
	_, err = assistant.Ask(ctx, "studenthomework:1", "second")
	require.NoError(t, err)
	_, err = assistant.Ask(ctx, "studenthomework:2", "other")
	require.NoError(t, err)

	require.Len(t, fake.requests, 3)
	require.Len(t, fake.requests[1].Messages, 3)
	require.Equal(t, "assistant", fake.requests[1].Messages[1].Role)
	require.Len(t, fake.requests[2].Messages, 1)
}

func TestRedisHistoryTrimsAndExpires(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	history := NewRedisHistory(client, 2, time.Minute)
	ctx := context.Background()

	for _, query := range []string{"a", "b", "c"} {
		require.NoError(t, history.Append(ctx, "studenthomework:7", Turn{Query: query, Response: query}))
	}

	turns, err := history.Load(ctx, "studenthomework:7")
	require.NoError(t, err)
	require.Equal(t, []Turn{{Query: "b", Response: "b"}, {Query: "c", Response: "c"}}, turns)

	mini.FastForward(2 * time.Minute)
	turns, err = history.Load(ctx, "studenthomework:7")
	require.NoError(t, err)
	require.Empty(t, turns)
}

func TestHistoryForZeroTurnsKeepsNothing(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	require.IsType(t, NopHistory{}, HistoryFor(nil, 10, time.Minute))
	require.IsType(t, NopHistory{}, HistoryFor(client, 0, time.Minute))
	require.IsType(t, &RedisHistory{}, HistoryFor(client, 3, time.Minute))

	fake := &fakeCompletions{reply: "answer"}
	assistant := newTestAssistant(t, fake, HistoryFor(client, 0, time.Minute), time.Second)
	ctx := context.Background()

	_, err = assistant.Ask(ctx, "studenthomework:1", "first")
	require.NoError(t, err)
	_, err = assistant.Ask(ctx, "studenthomework:1", "second")
	require.NoError(t, err)

	require.Len(t, fake.requests, 2)
	require.Len(t, fake.requests[1].Messages, 1)
	require.Empty(t, mini.Keys())
}
