package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter enforces per-tenant fixed-window rate limits backed by Redis.
// The window key embeds the current hour, so counters expire on their
// own and a Redis restart only forgives the current window.
type Limiter struct {
	client *redis.Client
	prefix string
}

func NewLimiter(client *redis.Client, prefix string) *Limiter {
	if prefix == "" {
		prefix = "chat"
	}
	return &Limiter{client: client, prefix: prefix}
}

// Allow increments the tenant's counter for the current hour window and
// reports whether the request is within limit. The remaining count is
// returned for response headers. On Redis failure the request is
// allowed; rate limiting degrades open rather than blocking all chat.
func (l *Limiter) Allow(ctx context.Context, tenantID string, limit int) (bool, int, error) {
	if limit <= 0 {
		return true, 0, nil
	}

	key := fmt.Sprintf("%s:%s:%s", l.prefix, tenantID, time.Now().UTC().Format("2006010215"))

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true, limit, err
	}

	if count == 1 {
		// First hit in this window sets the expiry.
		l.client.Expire(ctx, key, time.Hour)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return int(count) <= limit, remaining, nil
}
