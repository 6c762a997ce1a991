package awardseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcaldwell/grantpulse/pkg/grantcache"
	"github.com/bcaldwell/grantpulse/pkg/reporter"
)

func cacheFor(key string, records ...reporter.GrantRecord) *grantcache.PeriodCache {
	cache := &grantcache.PeriodCache{PeriodKey: key, Complete: true}
	cache.Merge(records)
	return cache
}

func onDay(id string, year, day int, amount float64) reporter.GrantRecord {
	return reporter.GrantRecord{
		AwardID:    id,
		NoticeDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1),
		Amount:     amount,
	}
}

func TestBuildSeriesStepFunction(t *testing.T) {
	caches := []*grantcache.PeriodCache{
		cacheFor("2024-01",
			onDay("A", 2024, 10, 50),
			onDay("B", 2024, 12, 75),
		),
	}

	series := BuildSeries(caches, []int{2024}, 15)

	s := series[2024]
	require.NotNil(t, s)
	require.Len(t, s.Counts, 15)

	// no record on day 11: cumulative value repeats, not interpolates
	assert.Equal(t, 1.0, s.Counts[9])
	assert.Equal(t, 1.0, s.Counts[10])
	assert.Equal(t, 2.0, s.Counts[11])

	assert.Equal(t, 50.0, s.Amounts[9])
	assert.Equal(t, 50.0, s.Amounts[10])
	assert.Equal(t, 125.0, s.Amounts[11])

	// nothing before the first record
	assert.Equal(t, 0.0, s.Counts[0])
	assert.Equal(t, 0.0, s.Amounts[8])
}

func TestBuildSeriesCumulativeIsNonDecreasing(t *testing.T) {
	caches := []*grantcache.PeriodCache{
		cacheFor("2023-01",
			onDay("A", 2023, 3, 10),
			onDay("B", 2023, 3, 20),
			onDay("C", 2023, 17, 5),
			onDay("D", 2023, 30, 90),
		),
	}

	series := BuildSeries(caches, []int{2023}, 40)

	s := series[2023]
	for i := 1; i < len(s.Counts); i++ {
		assert.GreaterOrEqual(t, s.Counts[i], s.Counts[i-1])
		assert.GreaterOrEqual(t, s.Amounts[i], s.Amounts[i-1])
	}

	assert.Equal(t, 4.0, s.Counts[39])
	assert.Equal(t, 125.0, s.Amounts[39])
}

func TestBuildSeriesIgnoresRecordsPastCutoff(t *testing.T) {
	caches := []*grantcache.PeriodCache{
		cacheFor("2024-01",
			onDay("A", 2024, 5, 100),
			onDay("B", 2024, 25, 200),
		),
	}

	series := BuildSeries(caches, []int{2024}, 10)

	s := series[2024]
	require.Len(t, s.Counts, 10)
	assert.Equal(t, 1.0, s.Counts[9])
	assert.Equal(t, 100.0, s.Amounts[9])
}

func TestBuildSeriesIgnoresYearsOutsideWindow(t *testing.T) {
	caches := []*grantcache.PeriodCache{
		cacheFor("2015-01", onDay("OLD", 2015, 2, 999)),
		cacheFor("2024-01", onDay("A", 2024, 2, 100)),
	}

	series := BuildSeries(caches, []int{2023, 2024}, 5)

	require.Len(t, series, 2)
	assert.Equal(t, 0.0, series[2023].Counts[4])
	assert.Equal(t, 1.0, series[2024].Counts[4])
	_, ok := series[2015]
	assert.False(t, ok)
}

func TestDayOfYearFoldsLeapDay(t *testing.T) {
	// Dec 31 in a leap year is day 366; it folds onto the shared axis end
	leapEnd := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 366, leapEnd.YearDay())
	assert.Equal(t, 365, DayOfYear(leapEnd))

	normalEnd := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 365, DayOfYear(normalEnd))
}

func TestBuildSeriesFoldedLeapDayAccumulates(t *testing.T) {
	caches := []*grantcache.PeriodCache{
		cacheFor("2024-12",
			onDay("A", 2024, 365, 10), // Dec 30
			onDay("B", 2024, 366, 20), // Dec 31, folded onto 365
		),
	}

	series := BuildSeries(caches, []int{2024}, 365)

	s := series[2024]
	assert.Equal(t, 2.0, s.Counts[364])
	assert.Equal(t, 30.0, s.Amounts[364])
}

func TestCutoff(t *testing.T) {
	assert.Equal(t, 46, Cutoff(time.Date(2023, time.February, 15, 0, 0, 0, 0, time.UTC)))
	// leap year Dec 31 clamps to the folded axis
	assert.Equal(t, 365, Cutoff(time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)))
}
