// Package awardseries folds cached grant records into cumulative per-year
// day-of-year series for year over year comparison.
package awardseries

import (
	"math"
	"time"

	"github.com/bcaldwell/grantpulse/pkg/grantcache"
)

// MaxDay is the length of the shared day-of-year axis. Day 366 of a leap
// year is folded onto day 365 so every year's series is comparable on the
// same axis.
const MaxDay = 365

// YearSeries holds one year's cumulative totals, indexed by day-of-year
// (index 0 is January 1st). Derived, never persisted.
type YearSeries struct {
	Year    int
	Counts  []float64
	Amounts []float64
}

// DayOfYear maps a date onto the shared axis, folding a leap year's day
// 366 onto day 365.
func DayOfYear(t time.Time) int {
	return min(t.YearDay(), MaxDay)
}

// Cutoff returns the last day-of-year to include for a year-to-date
// comparison anchored on today.
func Cutoff(today time.Time) int {
	return DayOfYear(today)
}

// BuildSeries buckets every cached record by day-of-year and computes
// running cumulative counts and dollar amounts per requested year, up to
// and including the cutoff day. Records outside the requested years or
// past the cutoff are ignored. Days with no records repeat the previous
// cumulative value.
func BuildSeries(caches []*grantcache.PeriodCache, years []int, cutoff int) map[int]*YearSeries {
	cutoff = min(max(cutoff, 1), MaxDay)

	seriesByYear := make(map[int]*YearSeries, len(years))
	for _, year := range years {
		seriesByYear[year] = &YearSeries{
			Year:    year,
			Counts:  make([]float64, cutoff),
			Amounts: make([]float64, cutoff),
		}
	}

	for _, cache := range caches {
		for _, record := range cache.Records {
			series, ok := seriesByYear[record.NoticeDate.Year()]
			if !ok {
				continue
			}

			day := DayOfYear(record.NoticeDate)
			if day > cutoff {
				continue
			}

			series.Counts[day-1]++
			series.Amounts[day-1] += record.Amount
		}
	}

	// daily buckets to running totals
	for _, series := range seriesByYear {
		for i := 1; i < cutoff; i++ {
			series.Counts[i] += series.Counts[i-1]
			series.Amounts[i] += series.Amounts[i-1]
		}
		for i := range series.Amounts {
			series.Amounts[i] = Round(series.Amounts[i], 0.01)
		}
	}

	return seriesByYear
}

func Round(x, unit float64) float64 {
	return math.Round(x/unit) * unit
}
