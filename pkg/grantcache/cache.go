package grantcache

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bcaldwell/grantpulse/pkg/reporter"
)

// PeriodCache is the persisted record set for one calendar month. Once
// Complete is set the period is fully elapsed and the records are treated
// as immutable; Complete never reverts.
type PeriodCache struct {
	PeriodKey string                 `json:"periodKey"`
	FetchDate time.Time              `json:"fetchDate"`
	Complete  bool                   `json:"complete"`
	Records   []reporter.GrantRecord `json:"records"`
}

func PeriodKey(year int, month time.Month) string {
	return fmt.Sprintf("%d-%02d", year, int(month))
}

// PeriodWindow returns the inclusive date window for a month. Windows of
// adjacent months are disjoint so a record can only ever land in one
// period cache.
func PeriodWindow(year int, month time.Month) (from, to time.Time) {
	from = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 1, -1)
	return from, to
}

// Merge folds freshly fetched records into the cache by award identifier.
// A record that already exists is replaced by the incoming one (latest
// fetch wins, to correct any prior partial data); new identifiers are
// added. Records stay sorted by identifier so serialization is
// deterministic. Returns the number of identifiers added.
func (c *PeriodCache) Merge(records []reporter.GrantRecord) int {
	byID := make(map[string]reporter.GrantRecord, len(c.Records)+len(records))
	for _, record := range c.Records {
		byID[record.AwardID] = record
	}

	added := 0
	for _, record := range records {
		if _, ok := byID[record.AwardID]; !ok {
			added++
		}
		byID[record.AwardID] = record
	}

	merged := make([]reporter.GrantRecord, 0, len(byID))
	for _, record := range byID {
		merged = append(merged, record)
	}
	slices.SortFunc(merged, func(a, b reporter.GrantRecord) int {
		return strings.Compare(a.AwardID, b.AwardID)
	})

	c.Records = merged
	return added
}
