// Package lock provides the distributed lock that keeps scheduled
// reconciliation to one instance per tick.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/order-reconciler/internal/config"
	"go.uber.org/zap"
)

const reconcileKey = "orders:reconcile:tick"

// NewRedisClient connects to redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}
	return client, nil
}

// RedisTickLock holds a redislock lease for the length of a tick.
type RedisTickLock struct {
	locker *redislock.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTickLock creates a tick lock on the given client
func NewRedisTickLock(client redislock.RedisClient, ttl time.Duration, logger *zap.Logger) *RedisTickLock {
	return &RedisTickLock{
		locker: redislock.New(client),
		key:    reconcileKey,
		ttl:    ttl,
		logger: logger,
	}
}

// TryLock obtains the lease without retrying.
func (l *RedisTickLock) TryLock(ctx context.Context) (func(context.Context), bool, error) {
	lease, err := l.locker.Obtain(ctx, l.key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("obtain %s: %w", l.key, err)
	}

	release := func(ctx context.Context) {
		if err := lease.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release reconcile lock", zap.Error(err))
		}
	}
	return release, true, nil
}
