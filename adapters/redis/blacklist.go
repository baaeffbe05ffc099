// Package redis stores revoked access tokens in Redis.
package redis

import (
	"context"
	"time"

	"github.com/coregx/livechat"
	goredis "github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces blacklist entries.
const KeyPrefix = "blacklist:"

// Blacklist implements livechat.TokenBlacklist on a Redis client.
// An entry exists for as long as the revoked token would have stayed valid.
type Blacklist struct {
	client goredis.UniversalClient
}

// NewBlacklist wraps an existing client.
func NewBlacklist(client goredis.UniversalClient) *Blacklist {
	return &Blacklist{client: client}
}

// Connect builds a client from a redis:// URL and pings it.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeConfiguration, "invalid redis url", err)
	}
	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeInternal, "redis ping failed", err)
	}
	return client, nil
}

// IsBlacklisted reports whether token has been revoked.
func (b *Blacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, KeyPrefix+token).Result()
	if err != nil {
		return false, livechat.NewErrorWithCause(livechat.ErrCodeInternal, "blacklist lookup failed", err)
	}
	return n > 0, nil
}

// Revoke blacklists token for ttl. A non-positive ttl is a no-op since the
// token has already expired.
func (b *Blacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, KeyPrefix+token, "logout", ttl).Err(); err != nil {
		return livechat.NewErrorWithCause(livechat.ErrCodeInternal, "failed to revoke token", err)
	}
	return nil
}
