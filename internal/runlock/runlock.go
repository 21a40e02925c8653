// Package runlock serialises checks across daemon replicas with a Redis lease.
package runlock

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"autodraft.app/assistant/common/id"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lease taken over by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// Release gives the lease back. It is safe to call after the lease expired.
type Release func(ctx context.Context) error

func New(client *redis.Client, key string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Lock{client: client, key: key, ttl: ttl}
}

// Acquire tries once to take the lease. ok is false when another holder has it.
func (l *Lock) Acquire(ctx context.Context) (Release, bool, error) {
	token := strconv.FormatInt(id.New(), 10)
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquiring run lock %s: %w", l.key, err)
	}
	if !ok {
		slog.DebugContext(ctx, "run lock held elsewhere", "key", l.key)
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("releasing run lock %s: %w", l.key, err)
		}
		return nil
	}
	return release, true, nil
}
