package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultHistoryPrefix = "assistant:history"
	defaultHistoryTurns  = 10
	defaultHistoryTTL    = 30 * time.Minute
)

// RedisHistory keeps the last turns of each session in a capped Redis list.
type RedisHistory struct {
	client   *redis.Client
	prefix   string
	maxTurns int
	ttl      time.Duration
}

// NewRedisHistory builds a Redis-backed history. Non-positive limits fall back to 10 turns and 30 minutes.
func NewRedisHistory(client *redis.Client, maxTurns int, ttl time.Duration) *RedisHistory {
	if maxTurns <= 0 {
		maxTurns = defaultHistoryTurns
	}
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}

	return &RedisHistory{
		client:   client,
		prefix:   defaultHistoryPrefix,
		maxTurns: maxTurns,
		ttl:      ttl,
	}
}

// HistoryFor picks the session store for the configured turn count. Zero turns, or no
// Redis client, disables history.
func HistoryFor(client *redis.Client, maxTurns int, ttl time.Duration) History {
	if client == nil || maxTurns <= 0 {
		return NopHistory{}
	}
	return NewRedisHistory(client, maxTurns, ttl)
}

func (h *RedisHistory) key(sessionKey string) string {
	return fmt.Sprintf("%s:%s", h.prefix, sessionKey)
}

// Load returns the remembered turns, oldest first.
func (h *RedisHistory) Load(ctx context.Context, sessionKey string) ([]Turn, error) {
	values, err := h.client.LRange(ctx, h.key(sessionKey), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	turns := make([]Turn, 0, len(values))
	for _, value := range values {
		var turn Turn
		if err := json.Unmarshal([]byte(value), &turn); err != nil {
			continue
		}
		turns = append(turns, turn)
	}

	return turns, nil
}

// Append stores a turn, trims the list and refreshes its expiry.
func (h *RedisHistory) Append(ctx context.Context, sessionKey string, turn Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return err
	}

	key := h.key(sessionKey)
	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-h.maxTurns), -1)
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	return nil
}

// NopHistory remembers nothing, which makes every question stateless.
type NopHistory struct{}

// Load always returns no turns.
func (NopHistory) Load(context.Context, string) ([]Turn, error) {
	return nil, nil
}

// Append discards the turn.
func (NopHistory) Append(context.Context, string, Turn) error {
	return nil
}
