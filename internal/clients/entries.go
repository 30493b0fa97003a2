package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const entriesPageSize = 100

// Entry is the subset of the Entries Service response the report pipeline
// needs.
type Entry struct {
	EntryID     string  `json:"entry_id"`
	GoalID      string  `json:"goal_id"`
	WorkDate    string  `json:"work_date"`
	Minutes     float64 `json:"minutes"`
	Description string  `json:"description"`
}

type entriesPage struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

type EntriesClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewEntriesClient(baseURL string) *EntriesClient {
	return &EntriesClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// EntriesForMonth fetches a page of entries for the goal and keeps only
// those whose work date falls in the requested month. The listing endpoint
// has no date-range filter, so the month cut happens client-side. A 404 from
// upstream means the goal has no entries and yields an empty slice.
func (c *EntriesClient) EntriesForMonth(ctx context.Context, goalID uuid.UUID, year int, month time.Month, token string) ([]Entry, error) {
	query := url.Values{}
	query.Set("goal_id", goalID.String())
	query.Set("page", "1")
	query.Set("page_size", fmt.Sprintf("%d", entriesPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/entries?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport("entries", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// handled below
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	default:
		return nil, &UpstreamError{Service: "entries", StatusCode: resp.StatusCode}
	}

	var page entriesPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode entries response: %v", err)
	}

	var filtered []Entry
	for _, entry := range page.Entries {
		workDate, ok := parseWorkDate(entry.WorkDate)
		if !ok {
			continue
		}
		if workDate.Year() == year && workDate.Month() == month {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

// parseWorkDate accepts both plain dates and RFC 3339 timestamps, keeping
// only the calendar day.
func parseWorkDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if i := strings.IndexByte(raw, 'T'); i >= 0 {
		raw = raw[:i]
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
