package cache

import (
	"context"
	"fmt"

	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Backend names accepted by mlm.idempotency_backend
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// NewIdempotencyStore builds the processed-orders store selected by
// cfg.IdempotencyBackend. An unreachable Redis is an error, there is no
// in-memory fallback.
func NewIdempotencyStore(ctx context.Context, cfg config.MLMConfig, redisCfg config.RedisConfig, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.IdempotencyBackend {
	case "", BackendMemory:
		logger.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	case BackendRedis:
		client, err := NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		logger.Info("using redis idempotency store",
			zap.String("addr", fmt.Sprintf("%s:%d", redisCfg.Host, redisCfg.Port)),
		)
		return NewRedisIdempotencyStore(client, DefaultKeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.IdempotencyBackend)
	}
}
