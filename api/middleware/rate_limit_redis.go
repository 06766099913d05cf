package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisRateLimiter is a fixed-window counter shared by every instance that
// talks to the same Redis. It allows requests when Redis is unreachable.
type RedisRateLimiter struct {
	client redis.Cmdable
	log    logrus.FieldLogger
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRedisRateLimiter(client redis.Cmdable, log logrus.FieldLogger, limit int, window time.Duration) *RedisRateLimiter {
	if client == nil {
		panic("redis rate limiter: nil client")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisRateLimiter{
		client: client,
		log:    log,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	bucket := r.now().UnixNano() / int64(r.window)
	k := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	cmds, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, r.window)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return false
	}
	if err != nil {
		r.log.WithError(err).Warn("could not check rate limit, allowing request")
		return true
	}
	count, ok := cmds[0].(*redis.IntCmd)
	if !ok {
		return true
	}
	return count.Val() <= r.limit
}
