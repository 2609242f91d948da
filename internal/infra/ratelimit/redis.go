package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "aquamind:rate:"

// RedisGate shares windows across instances. The counter and its expiry
// are set in one MULTI so a window can never outlive its TTL.
type RedisGate struct {
	rdb    *redis.Client
	window time.Duration
	max    int64
}

func NewRedisGate(rdb *redis.Client, window time.Duration, max int) *RedisGate {
	return &RedisGate{
		rdb:    rdb,
		window: window,
		max:    int64(max),
	}
}

func (g *RedisGate) Admit(ctx context.Context, key string) (bool, error) {
	pipe := g.rdb.TxPipeline()
	incr := pipe.Incr(ctx, keyPrefix+key)
	pipe.ExpireNX(ctx, keyPrefix+key, g.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	if incr.Val() > g.max {
		rejected.WithLabelValues("redis").Inc()
		return false, nil
	}
	return true, nil
}
