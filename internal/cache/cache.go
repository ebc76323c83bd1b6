package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ProductCacheTTL  = 10 * time.Minute
	CategoryCacheTTL = 10 * time.Minute
)

// GetJSON decodes key into dst. It reports false on a miss, when Redis is
// disabled, or when the cached value no longer decodes.
func (r *Redis) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	if !r.Enabled() {
		return false
	}
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ Cache read %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("⚠️ Cache decode %s: %v", key, err)
		return false
	}
	return true
}

func (r *Redis) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if !r.Enabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("⚠️ Cache encode %s: %v", key, err)
		return
	}
	if err := r.Client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("⚠️ Cache write %s: %v", key, err)
	}
}

func (r *Redis) Delete(ctx context.Context, keys ...string) {
	if !r.Enabled() || len(keys) == 0 {
		return
	}
	if err := r.Client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("⚠️ Cache delete %v: %v", keys, err)
	}
}

// Remember is a read-through helper: it returns the cached value for key or
// calls load and caches its result.
func Remember[T any](ctx context.Context, r *Redis, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	if r.GetJSON(ctx, key, &cached) {
		return cached, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	r.SetJSON(ctx, key, v, ttl)
	return v, nil
}
