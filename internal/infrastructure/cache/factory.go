package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ordertrack/backend/internal/domain/integration"
)

// IdempotencyStoreFactory creates delivery stores based on configuration
type IdempotencyStoreFactory struct {
	redisConfig           RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory store when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a new factory
func NewIdempotencyStoreFactory(cfg RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// RedisConfigured reports whether any Redis address is configured
func (f *IdempotencyStoreFactory) RedisConfigured() bool {
	return f.redisConfig.URL != "" || f.redisConfig.Host != ""
}

// CreateStore returns a Redis store when Redis is configured and reachable.
// Without Redis configuration it returns an in-memory store. When Redis is
// configured but unreachable it falls back to memory unless fallback is off.
func (f *IdempotencyStoreFactory) CreateStore() (integration.DeliveryStore, error) {
	if !f.RedisConfigured() {
		f.logger.Info("Redis not configured, using in-memory delivery store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis delivery store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for webhook idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory delivery store. "+
		"Redelivered webhooks may be processed twice across instances.",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}
