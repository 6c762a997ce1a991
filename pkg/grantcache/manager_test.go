package grantcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcaldwell/grantpulse/pkg/reporter"
)

type fakeFetcher struct {
	records []reporter.GrantRecord
	err     error
	calls   int
}

func (f *fakeFetcher) SearchAwards(ctx context.Context, from, to time.Time) ([]reporter.GrantRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newTestManager(t *testing.T, fetcher *fakeFetcher, today time.Time) (*Manager, Store) {
	t.Helper()

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	manager := NewManager(store, fetcher)
	manager.now = func() time.Time { return today }

	return manager, store
}

func TestEnsurePeriodFetchesAndMarksComplete(t *testing.T) {
	fetcher := &fakeFetcher{records: []reporter.GrantRecord{record("A", 2, 100)}}
	manager, _ := newTestManager(t, fetcher, time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC))

	cache, err := manager.EnsurePeriod(context.Background(), 2024, time.January)
	require.NoError(t, err)

	assert.True(t, cache.Complete)
	assert.Len(t, cache.Records, 1)
	assert.Equal(t, 1, fetcher.calls)
}

func TestEnsurePeriodCurrentMonthStaysIncomplete(t *testing.T) {
	fetcher := &fakeFetcher{records: []reporter.GrantRecord{}}
	manager, _ := newTestManager(t, fetcher, time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC))

	cache, err := manager.EnsurePeriod(context.Background(), 2024, time.June)
	require.NoError(t, err)

	assert.False(t, cache.Complete)
}

func TestEnsurePeriodSkipsNetworkForCompletePeriods(t *testing.T) {
	fetcher := &fakeFetcher{records: []reporter.GrantRecord{record("A", 2, 100)}}
	manager, _ := newTestManager(t, fetcher, time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC))

	first, err := manager.EnsurePeriod(context.Background(), 2024, time.January)
	require.NoError(t, err)

	second, err := manager.EnsurePeriod(context.Background(), 2024, time.January)
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, first, second)
}

func TestEnsurePeriodRefreshesIncompletePeriod(t *testing.T) {
	today := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

	fetcher := &fakeFetcher{records: []reporter.GrantRecord{record("A", 2, 100)}}
	manager, _ := newTestManager(t, fetcher, today)

	_, err := manager.EnsurePeriod(context.Background(), 2024, time.June)
	require.NoError(t, err)

	// next run, the api has a corrected amount and a new award
	fetcher.records = []reporter.GrantRecord{record("A", 2, 120), record("B", 5, 300)}

	cache, err := manager.EnsurePeriod(context.Background(), 2024, time.June)
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.calls)
	require.Len(t, cache.Records, 2)
	assert.Equal(t, 120.0, cache.Records[0].Amount)
}

func TestEnsurePeriodKeepsPriorCacheOnFetchFailure(t *testing.T) {
	today := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

	fetcher := &fakeFetcher{records: []reporter.GrantRecord{record("A", 2, 100)}}
	manager, store := newTestManager(t, fetcher, today)

	_, err := manager.EnsurePeriod(context.Background(), 2024, time.June)
	require.NoError(t, err)

	fetcher.err = errors.New("connection reset")

	cache, err := manager.EnsurePeriod(context.Background(), 2024, time.June)
	require.Error(t, err)
	require.NotNil(t, cache)
	assert.Len(t, cache.Records, 1)

	stored, err := store.Get(PeriodKey(2024, time.June))
	require.NoError(t, err)
	assert.Len(t, stored.Records, 1)
	assert.Equal(t, 100.0, stored.Records[0].Amount)
}

func TestEnsurePeriodFailureWithNoPriorCache(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("boom")}
	manager, store := newTestManager(t, fetcher, time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC))

	cache, err := manager.EnsurePeriod(context.Background(), 2024, time.January)
	require.Error(t, err)
	assert.Nil(t, cache)

	_, err = store.Get(PeriodKey(2024, time.January))
	assert.ErrorIs(t, err, ErrNotFound)
}
