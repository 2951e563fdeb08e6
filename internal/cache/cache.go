package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"RiskSentinel/internal/model"
)

// Entry is a cached series together with the time it was stored.
type Entry struct {
	Series   model.PriceSeries
	StoredAt time.Time
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(e.StoredAt) < ttl
}

// Store is the optional cache the provider consults before the network.
// Expiry is decided by the caller from Entry.StoredAt.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, series model.PriceSeries) error
	Purge(ctx context.Context, olderThan time.Time) (int, error)
	Close() error
}

// Key builds the cache key for a symbol and horizon.
func Key(symbol string, horizonDays int) string {
	return fmt.Sprintf("%s|%d", strings.ToUpper(symbol), horizonDays)
}
