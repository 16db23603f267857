package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisLoginKeyPrefix = "login:failed:"
	redisLoginTimeout   = 500 * time.Millisecond
)

// redisCounter es el subconjunto de *redis.Client que usa el limiter.
type redisCounter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisFailedLogins struct {
	client redisCounter
	window time.Duration
	max    int
	logger *zap.Logger
}

// NewRedisLoginRateLimiter comparte los fallos de login entre procesos. La
// ventana empieza con el primer fallo. Si Redis no responde, el login sigue
// adelante y el fallo no se cuenta.
func NewRedisLoginRateLimiter(logger *zap.Logger, client *redis.Client, window time.Duration, max int) LoginRateLimiter {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if window < time.Second {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisFailedLogins{client: client, window: window, max: max, logger: logger}
}

func (r *redisFailedLogins) Allowed(username string) bool {
	key, ok := r.key(username)
	if !ok {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisLoginTimeout)
	defer cancel()

	failures, err := r.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return true
	}
	if err != nil {
		r.report("get", err)
		return true
	}
	return failures < r.max
}

func (r *redisFailedLogins) RecordFailure(username string) {
	key, ok := r.key(username)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisLoginTimeout)
	defer cancel()

	failures, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		r.report("incr", err)
		return
	}
	if failures == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			r.report("expire", err)
		}
	}
}

func (r *redisFailedLogins) Reset(username string) {
	key, ok := r.key(username)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisLoginTimeout)
	defer cancel()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.report("del", err)
	}
}

func (r *redisFailedLogins) key(username string) (string, bool) {
	if r == nil || r.client == nil {
		return "", false
	}
	normalized := loginKey(username)
	if normalized == "" {
		return "", false
	}
	return redisLoginKeyPrefix + normalized, true
}

func (r *redisFailedLogins) report(op string, err error) {
	if r.logger != nil {
		r.logger.Warn("login limiter redis error", zap.String("op", op), zap.Error(err))
	}
}
