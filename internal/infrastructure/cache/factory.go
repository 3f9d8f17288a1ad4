package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/logimaster/backend/internal/domain/shared"
	"github.com/logimaster/backend/internal/infrastructure/config"
)

type storeBuilder struct {
	logger   *zap.Logger
	fallback bool
}

// StoreOption configures NewIdempotencyStore.
type StoreOption func(*storeBuilder)

// WithLogger sets the logger used when reporting which backend was chosen.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(b *storeBuilder) {
		b.logger = logger
	}
}

// WithInMemoryFallback controls whether the store may degrade to an
// in-memory backend when Redis is unreachable. Enabled by default.
func WithInMemoryFallback(allow bool) StoreOption {
	return func(b *storeBuilder) {
		b.fallback = allow
	}
}

// NewIdempotencyStore builds the duplicate-submission guard. Redis is
// preferred so every instance shares the same duplicate window; the
// in-memory fallback only guards uploads hitting the same process.
func NewIdempotencyStore(cfg config.RedisConfig, opts ...StoreOption) (shared.IdempotencyStore, error) {
	b := &storeBuilder{
		logger:   zap.NewNop(),
		fallback: true,
	}
	for _, opt := range opts {
		opt(b)
	}

	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err == nil {
		b.logger.Info("Duplicate-upload guard backed by Redis")
		return store, nil
	}

	if !b.fallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}

	b.logger.Warn("Redis unavailable, duplicate-upload window is process local", zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}
