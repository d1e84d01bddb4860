package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/gfconnector/billing-console/pkg/redis"
	"github.com/google/uuid"
)

// Locker serialises work on one key across API instances.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type RedisLocker struct {
	redis  redis.RedisAdapter
	prefix string
	ttl    time.Duration
}

func NewRedisLocker(adapter redis.RedisAdapter, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{redis: adapter, prefix: "confirm-lock:", ttl: ttl}
}

// Acquire returns ErrConfirmationInProgress when another holder owns the key.
// The lock expires on its own after the ttl if release is never called, and
// release leaves alone a lock that has since been taken by someone else.
func (l *RedisLocker) Acquire(_ context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := []byte(uuid.NewString())
	acquired, err := l.redis.SetNX(lockKey, token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire confirmation lock: %w", err)
	}
	if !acquired {
		return nil, ErrConfirmationInProgress
	}
	return func() {
		released, err := l.redis.DelIfEqual(lockKey, token)
		if err != nil {
			logger.Warn("failed to release confirmation lock", "key", key, "error", err)
			return
		}
		if !released {
			logger.Warn("confirmation lock expired before release", "key", key)
		}
	}, nil
}
