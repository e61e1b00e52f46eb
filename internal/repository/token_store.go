package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevocationStore remembers logged-out token ids until they would have expired anyway.
type TokenRevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenStore keeps revocations in Redis under prefix.
func NewRedisTokenStore(client *redis.Client, prefix string) TokenRevocationStore {
	if prefix == "" {
		prefix = "homework:revoked"
	}
	return &redisTokenStore{client: client, prefix: prefix}
}

func (s *redisTokenStore) key(tokenID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, tokenID)
}

func (s *redisTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.key(tokenID), "1", ttl).Err()
}

func (s *redisTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	err := s.client.Get(ctx, s.key(tokenID)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}

// memoryTokenStore backs single-process deployments without Redis.
type memoryTokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryTokenStore keeps revocations in process memory.
func NewMemoryTokenStore() TokenRevocationStore {
	return &memoryTokenStore{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *memoryTokenStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, expiry := range s.revoked {
		if !now.Before(expiry) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (s *memoryTokenStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	return s.now().Before(expiry), nil
}
