package lock

import (
	"context"
	"fmt"
	"time"

	"shopsheet-sync/internal/domain"
	"shopsheet-sync/internal/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseScript deletes the lease only when the caller still owns it, so
// a run that outlives its TTL cannot release a lease reacquired by
// another run.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker implements the per-shop sync lease on Redis.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisLocker creates a new Redis-backed sync locker
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) ports.SyncLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire takes the shop's lease. The TTL bounds how long a crashed run
// can block the shop.
func (l *RedisLocker) Acquire(ctx context.Context, shopDomain string) (func(), error) {
	key := leaseKey(shopDomain)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lease: %w", err)
	}
	if !ok {
		return nil, domain.ErrSyncInProgress
	}

	release := func() {
		// Release with a fresh context so a cancelled run still frees
		// the lease.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Failed to release sync lease")
		}
	}

	return release, nil
}

func leaseKey(shopDomain string) string {
	return "sync:lease:" + shopDomain
}
