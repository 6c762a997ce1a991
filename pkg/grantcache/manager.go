package grantcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bcaldwell/grantpulse/pkg/reporter"
	"k8s.io/klog"
)

// Fetcher retrieves all grant records with a notice date inside the window.
type Fetcher interface {
	SearchAwards(ctx context.Context, from, to time.Time) ([]reporter.GrantRecord, error)
}

// Manager decides per period whether cached data can be served as is or
// has to be refreshed, and keeps the store up to date.
type Manager struct {
	store   Store
	fetcher Fetcher
	now     func() time.Time
}

func NewManager(store Store, fetcher Fetcher) *Manager {
	return &Manager{
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
	}
}

// EnsurePeriod returns the cache for one month, fetching or refreshing it
// when needed. A period marked complete is returned straight from the
// store with no network call. On a fetch failure the previous cache (if
// any) is returned alongside the error so the caller can keep going with
// stale data.
func (m *Manager) EnsurePeriod(ctx context.Context, year int, month time.Month) (*PeriodCache, error) {
	key := PeriodKey(year, month)

	cached, err := m.store.Get(key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("reading cache for period %s: %w", key, err)
	}

	if cached != nil && cached.Complete {
		return cached, nil
	}

	from, to := PeriodWindow(year, month)

	records, err := m.fetcher.SearchAwards(ctx, from, to)
	if err != nil {
		return cached, fmt.Errorf("period %s: %w", key, err)
	}

	if cached == nil {
		cached = &PeriodCache{PeriodKey: key}
	}

	today := m.now().UTC().Truncate(24 * time.Hour)

	added := cached.Merge(records)
	cached.FetchDate = today
	cached.Complete = to.Before(today)

	if err := m.store.Put(cached); err != nil {
		return cached, fmt.Errorf("persisting period %s: %w", key, err)
	}

	klog.Infof("cached period %s: %d records (%d new), complete=%t", key, len(cached.Records), added, cached.Complete)

	return cached, nil
}
