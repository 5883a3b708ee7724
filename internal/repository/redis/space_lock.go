package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	spaceLockPrefix = "habitat:space-lock:"

	// DefaultLockTTL bounds how long a crashed holder can keep a space locked
	DefaultLockTTL = 15 * time.Second

	// DefaultRetryInterval is the pause between acquisition attempts
	DefaultRetryInterval = 25 * time.Millisecond
)

// releaseScript deletes the key only if it still holds our token
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SpaceLocker implements domain.SpaceLocker with SET NX PX so booking creation
// on one space is serialized across API instances
type SpaceLocker struct {
	client        goredis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
}

// NewSpaceLocker creates a new SpaceLocker
func NewSpaceLocker(client goredis.UniversalClient) *SpaceLocker {
	return &SpaceLocker{
		client:        client,
		ttl:           DefaultLockTTL,
		retryInterval: DefaultRetryInterval,
	}
}

// WithTTL overrides the lock expiry
func (l *SpaceLocker) WithTTL(ttl time.Duration) *SpaceLocker {
	l.ttl = ttl
	return l
}

// Lock blocks until the space lock is held or ctx is done
func (l *SpaceLocker) Lock(ctx context.Context, spaceID uuid.UUID) (func(), error) {
	key := spaceLockPrefix + spaceID.String()
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("failed to acquire space lock: %w", err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrSpaceLockTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *SpaceLocker) release(key, token string) {
	// The request context may already be cancelled; release must still run
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		log.Warn().Err(err).Str("key", key).Msg("Failed to release space lock")
	}
}
