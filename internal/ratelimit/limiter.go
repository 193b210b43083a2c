package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Fixed window: at most maxRequests per IP per window.
	maxRequests = 10
	window      = 15 * time.Minute

	// Minimum gap between emails to the same address.
	emailCooldown = 2 * time.Minute
)

// Limiter enforces per-IP fixed-window limits and per-email cooldowns for
// the endpoints that send mail or create accounts. State lives in Redis so
// multiple instances share it.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// CheckIPRateLimit reports whether the IP has exhausted the shared window.
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.checkKey(ctx, ipKey(ip, ""))
}

// CheckIPRateLimitWithPurpose is CheckIPRateLimit with a separate window per
// purpose, so register attempts do not consume the login budget.
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	return l.checkKey(ctx, ipKey(ip, purpose))
}

// RecordIPRequest counts a request against the IP's shared window.
func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.recordKey(ctx, ipKey(ip, ""))
}

// RecordIPRequestWithPurpose counts a request against the purpose window.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	return l.recordKey(ctx, ipKey(ip, purpose))
}

// CheckEmailCooldown reports whether an email was sent to the address
// within the cooldown period.
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	n, err := l.client.Exists(ctx, emailKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("check email cooldown: %w", err)
	}
	return n > 0, nil
}

// SetEmailCooldown starts the cooldown period for the address.
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.Set(ctx, emailKey(email), 1, emailCooldown).Err(); err != nil {
		return fmt.Errorf("set email cooldown: %w", err)
	}
	return nil
}

func (l *Limiter) checkKey(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Get(ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("check rate limit: %w", err)
	}
	return count >= maxRequests, nil
}

func (l *Limiter) recordKey(ctx context.Context, key string) error {
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record request: %w", err)
	}
	return nil
}

func ipKey(ip, purpose string) string {
	if purpose == "" {
		return fmt.Sprintf("ratelimit:ip:%s", ip)
	}
	return fmt.Sprintf("ratelimit:ip:%s:%s", ip, purpose)
}

func emailKey(email string) string {
	return fmt.Sprintf("ratelimit:email:%s", email)
}
