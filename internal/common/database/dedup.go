// internal/common/database/dedup.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "recruitment:alert:"

// AlertDeduplicator remembers delivered alert keys so repeated evaluations
// of an unchanged candidate do not re-notify within the TTL.
type AlertDeduplicator struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewAlertDeduplicator(rdb redis.Cmdable, ttl time.Duration) *AlertDeduplicator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AlertDeduplicator{rdb: rdb, ttl: ttl}
}

// MarkIfNew records key and reports whether it was unseen.
func (d *AlertDeduplicator) MarkIfNew(ctx context.Context, key string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, dedupKeyPrefix+key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup %s: %w", key, err)
	}
	return ok, nil
}

// Forget clears key so the next occurrence is delivered again.
func (d *AlertDeduplicator) Forget(ctx context.Context, key string) error {
	if err := d.rdb.Del(ctx, dedupKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("dedup forget %s: %w", key, err)
	}
	return nil
}
