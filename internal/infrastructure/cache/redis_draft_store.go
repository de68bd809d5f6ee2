// Package cache holds the short-lived stores that sit beside the relational
// database: saved ficha drafts in Redis or in process memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agrocert/backend/internal/domain/inspection"
	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/agrocert/backend/internal/infrastructure/config"
)

const defaultDraftKeyPrefix = "agrocert:draft:"

// RedisDraftStore keeps drafts as JSON strings with a Redis expiry, so
// several server instances see the same drafts.
type RedisDraftStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisDraftStore wraps an existing client. An empty prefix uses the default.
func NewRedisDraftStore(client *redis.Client, keyPrefix string) *RedisDraftStore {
	if keyPrefix == "" {
		keyPrefix = defaultDraftKeyPrefix
	}
	return &RedisDraftStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisDraftStore) key(k inspection.DraftKey) string {
	return s.keyPrefix + k.String()
}

// Save overwrites any draft under the same key and resets its expiry.
func (s *RedisDraftStore) Save(ctx context.Context, draft inspection.Draft, ttl time.Duration) error {
	if err := draft.Key.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.client.Set(ctx, s.key(draft.Key), data, ttl).Err(); err != nil {
		return shared.WrapDomainError(shared.CodeInfrastructure, "Failed to save draft", err)
	}
	return nil
}

// Get loads a draft.
func (s *RedisDraftStore) Get(ctx context.Context, key inspection.DraftKey) (*inspection.Draft, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeInfrastructure, "Failed to load draft", err)
	}
	var draft inspection.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, shared.WrapDomainError(shared.CodeInfrastructure, "Stored draft is corrupt", err)
	}
	return &draft, nil
}

// Delete removes a draft.
func (s *RedisDraftStore) Delete(ctx context.Context, key inspection.DraftKey) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return shared.WrapDomainError(shared.CodeInfrastructure, "Failed to delete draft", err)
	}
	return nil
}

var _ inspection.DraftStore = (*RedisDraftStore)(nil)
