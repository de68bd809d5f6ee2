package cache

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/agrocert/backend/internal/domain/inspection"
	"github.com/agrocert/backend/internal/infrastructure/config"
)

// DraftStoreCloser is a draft store that owns resources.
type DraftStoreCloser interface {
	inspection.DraftStore
	io.Closer
}

type redisStoreCloser struct {
	*RedisDraftStore
}

func (r redisStoreCloser) Close() error { return r.client.Close() }

// NewDraftStore builds the backend selected by cfg.Backend. When Redis is
// selected but unreachable it falls back to memory and logs a warning.
func NewDraftStore(ctx context.Context, cfg config.DraftConfig, redisCfg config.RedisConfig, logger *zap.Logger) (DraftStoreCloser, error) {
	switch cfg.Backend {
	case "memory":
		logger.Info("Using in-memory draft store")
		return NewInMemoryDraftStore(cfg.CleanupInterval), nil
	case "redis", "":
		client, err := NewRedisClient(ctx, redisCfg)
		if err != nil {
			logger.Warn("Redis unavailable, falling back to in-memory draft store",
				zap.String("addr", redisCfg.Addr()),
				zap.Error(err),
			)
			return NewInMemoryDraftStore(cfg.CleanupInterval), nil
		}
		logger.Info("Using Redis draft store", zap.String("addr", redisCfg.Addr()))
		return redisStoreCloser{NewRedisDraftStore(client, "")}, nil
	default:
		return nil, fmt.Errorf("unknown draft backend %q", cfg.Backend)
	}
}
