// internal/common/database/locks.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrCandidateLocked = errors.New("CANDIDATE_LOCKED")

const lockKeyPrefix = "recruitment:lock:candidate:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serialises mutations of a single candidate across worker replicas.
type Locker struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewLocker(rdb redis.Cmdable, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{rdb: rdb, ttl: ttl}
}

// Lease is a held candidate lock.
type Lease struct {
	key   string
	token string
	rdb   redis.Cmdable
}

// Acquire takes the lock for candidateID or returns ErrCandidateLocked.
func (l *Locker) Acquire(ctx context.Context, candidateID string) (*Lease, error) {
	key := lockKeyPrefix + candidateID
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", candidateID, err)
	}
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", candidateID, ErrCandidateLocked)
	}
	return &Lease{key: key, token: token, rdb: l.rdb}, nil
}

// Release frees the lock. Releasing an expired or stolen lease is a no-op.
func (le *Lease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, le.rdb, []string{le.key}, le.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", le.key, err)
	}
	return nil
}

// WithLock runs fn while holding the candidate lock.
func (l *Locker) WithLock(ctx context.Context, candidateID string, fn func(ctx context.Context) error) error {
	lease, err := l.Acquire(ctx, candidateID)
	if err != nil {
		return err
	}
	defer func() {
		_ = lease.Release(context.WithoutCancel(ctx))
	}()
	return fn(ctx)
}
