package reporter

import (
	"encoding/json"
	"fmt"
	"time"
)

// GrantRecord is a normalized award from the RePORTER API. Only the fields
// the aggregation needs survive normalization; everything else the API
// returns is dropped. Immutable once cached.
type GrantRecord struct {
	AwardID    string    `json:"awardId"`
	NoticeDate time.Time `json:"noticeDate"`
	Amount     float64   `json:"amount"`
}

// apiProject mirrors the subset of the RePORTER project payload we request.
type apiProject struct {
	ApplID          json.Number `json:"appl_id"`
	ProjectNum      string      `json:"project_num"`
	AwardNoticeDate string      `json:"award_notice_date"`
	AwardAmount     *float64    `json:"award_amount"`
}

// notice dates come back as RFC3339 timestamps, but older records have been
// seen with a bare date
var noticeDateFormats = []string{"2006-01-02T15:04:05Z", "2006-01-02"}

func (p apiProject) normalize() (GrantRecord, error) {
	record := GrantRecord{}

	record.AwardID = p.ApplID.String()
	if record.AwardID == "" {
		record.AwardID = p.ProjectNum
	}
	if record.AwardID == "" {
		return record, fmt.Errorf("record has no appl_id or project_num")
	}

	if p.AwardNoticeDate == "" {
		return record, fmt.Errorf("record %s has no award_notice_date", record.AwardID)
	}

	var err error
	for _, format := range noticeDateFormats {
		var t time.Time
		t, err = time.Parse(format, p.AwardNoticeDate)
		if err == nil {
			record.NoticeDate = t.UTC().Truncate(24 * time.Hour)
			break
		}
	}
	if err != nil {
		return record, fmt.Errorf("unable to parse award_notice_date %q: %w", p.AwardNoticeDate, err)
	}

	if p.AwardAmount != nil {
		record.Amount = *p.AwardAmount
	}
	if record.Amount < 0 {
		return record, fmt.Errorf("record %s has negative award_amount %f", record.AwardID, record.Amount)
	}

	return record, nil
}
