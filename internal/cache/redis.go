package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the shared client. A nil *Redis (or nil Client) is valid and
// turns every operation into a miss or no-op, so the service keeps working
// without Redis.
type Redis struct {
	Client *redis.Client
}

func New(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

// --- Blacklist JWT (revocation before expiry) ---

func blacklistKey(tokenID string) string { return "blacklist:" + tokenID }

// BlacklistToken revokes a session token id until it would have expired anyway.
func (r *Redis) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return r.Client.Set(ctx, blacklistKey(tokenID), "revoked", ttl).Err()
}

func (r *Redis) IsTokenBlacklisted(ctx context.Context, tokenID string) bool {
	if !r.Enabled() {
		return false
	}
	exists, err := r.Client.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		log.Printf("⚠️ Blacklist check failed: %v", err)
		return false
	}
	return exists > 0
}

// --- Login rate limiting ---

func loginAttemptsKey(email string) string { return "login_attempts:" + email }
func loginCooldownKey(email string) string { return "login_cooldown:" + email }

// LoginCooldown reports the remaining cooldown for email, if any.
func (r *Redis) LoginCooldown(ctx context.Context, email string) (time.Duration, bool) {
	if !r.Enabled() {
		return 0, false
	}
	ttl, err := r.Client.TTL(ctx, loginCooldownKey(email)).Result()
	if err != nil || ttl <= 0 {
		return 0, false
	}
	return ttl, true
}

func (r *Redis) LoginAttempts(ctx context.Context, email string) int {
	if !r.Enabled() {
		return 0
	}
	n, err := r.Client.Get(ctx, loginAttemptsKey(email)).Int()
	if err != nil {
		return 0
	}
	return n
}

// StartLoginCooldown blocks email for d and resets its attempt counter.
func (r *Redis) StartLoginCooldown(ctx context.Context, email string, d time.Duration) error {
	if !r.Enabled() {
		return nil
	}
	pipe := r.Client.TxPipeline()
	pipe.Set(ctx, loginCooldownKey(email), "1", d)
	pipe.Del(ctx, loginAttemptsKey(email))
	_, err := pipe.Exec(ctx)
	return err
}

// RecordLoginFailure increments the attempt counter; the window restarts on each failure.
func (r *Redis) RecordLoginFailure(ctx context.Context, email string, window time.Duration) (int64, error) {
	if !r.Enabled() {
		return 0, nil
	}
	pipe := r.Client.Pipeline()
	incr := pipe.Incr(ctx, loginAttemptsKey(email))
	pipe.Expire(ctx, loginAttemptsKey(email), window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *Redis) ResetLogin(ctx context.Context, email string) error {
	if !r.Enabled() {
		return nil
	}
	return r.Client.Del(ctx, loginAttemptsKey(email), loginCooldownKey(email)).Err()
}

// --- Request rate limiting ---

// Hit counts a request against key within window and returns the new count.
// The window starts with the first hit.
func (r *Redis) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if !r.Enabled() {
		return 0, nil
	}
	n, err := r.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.Client.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// --- Pub/Sub ---

var ErrDisabled = errors.New("cache: redis not configured")

func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	if !r.Enabled() {
		return nil
	}
	if err := r.Client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a subscription; the caller closes it.
func (r *Redis) Subscribe(ctx context.Context, channel string) (*redis.PubSub, error) {
	if !r.Enabled() {
		return nil, ErrDisabled
	}
	sub := r.Client.Subscribe(ctx, channel)
	// wait for the confirmation so no message published after this returns is lost
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	return sub, nil
}
