package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"k8s.io/klog"
)

const DefaultBaseURL = "https://api.reporter.nih.gov/v2/projects/search"

// the API rejects offsets past 15000, so a single month window can never
// return more than that many usable records
const maxOffset = 15000

var searchFields = []string{"appl_id", "project_num", "award_notice_date", "award_amount"}

// Client is a minimal RePORTER v2 search client. It only knows how to page
// through award-notice-date windows; it is not a general API binding.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiToken     string
	pageLimit    int
	maxRetries   int
	pagePause    time.Duration
	retryBackoff time.Duration
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

func WithPageLimit(limit int) Option {
	return func(c *Client) { c.pageLimit = limit }
}

func WithMaxRetries(retries int) Option {
	return func(c *Client) { c.maxRetries = retries }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithAPIToken(token string) Option {
	return func(c *Client) { c.apiToken = token }
}

// WithPagePause overrides the delay between page requests.
func WithPagePause(pause time.Duration) Option {
	return func(c *Client) { c.pagePause = pause }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      DefaultBaseURL,
		pageLimit:    500,
		maxRetries:   3,
		pagePause:    100 * time.Millisecond,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type searchRequest struct {
	Criteria searchCriteria `json:"criteria"`
	Offset   int            `json:"offset"`
	Limit    int            `json:"limit"`
	Fields   []string       `json:"fields"`
}

type searchCriteria struct {
	AwardNoticeDate dateRange `json:"award_notice_date"`
}

type dateRange struct {
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

type searchResponse struct {
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
	Results []apiProject `json:"results"`
}

// SearchAwards pages through every award with a notice date in [from, to]
// and returns the normalized records. Records that fail normalization are
// dropped with a warning. A page that keeps failing after retries fails the
// whole window; the caller decides what to do with its previous cache.
func (c *Client) SearchAwards(ctx context.Context, from, to time.Time) ([]GrantRecord, error) {
	records := []GrantRecord{}
	offset := 0

	for {
		page, err := c.fetchPage(ctx, from, to, offset)
		if err != nil {
			return nil, fmt.Errorf("fetching awards %s to %s at offset %d: %w",
				from.Format("2006-01-02"), to.Format("2006-01-02"), offset, err)
		}

		if offset == 0 && page.Meta.Total > maxOffset {
			klog.Warningf("window %s to %s has %d awards, beyond the API offset ceiling of %d; tail will be missing",
				from.Format("2006-01-02"), to.Format("2006-01-02"), page.Meta.Total, maxOffset)
		}

		for _, project := range page.Results {
			record, err := project.normalize()
			if err != nil {
				slog.Warn("dropping malformed award record", "err", err)
				continue
			}
			records = append(records, record)
		}

		offset += c.pageLimit
		if offset >= min(page.Meta.Total, maxOffset) {
			break
		}

		// be polite between pages
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pagePause):
		}
	}

	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, from, to time.Time, offset int) (*searchResponse, error) {
	query := searchRequest{
		Criteria: searchCriteria{
			AwardNoticeDate: dateRange{
				FromDate: from.Format("2006-01-02"),
				ToDate:   to.Format("2006-01-02"),
			},
		},
		Offset: offset,
		Limit:  c.pageLimit,
		Fields: searchFields,
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			klog.Infof("retrying page at offset %d (attempt %d of %d): %v", offset, attempt, c.maxRetries, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * c.retryBackoff):
			}
		}

		page, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return page, nil
		}

		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, body []byte) (page *searchResponse, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// network level failures are worth retrying
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("unexpected status %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	page = &searchResponse{}
	if err := json.Unmarshal(raw, page); err != nil {
		return nil, false, fmt.Errorf("unable to parse search response: %w", err)
	}

	return page, false, nil
}
