package twitter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"spoilerscraper/pkg/models"
	"spoilerscraper/pkg/ratelimit"
)

// TimeLayout is the created_at format used by the v1.1 API
const TimeLayout = time.RubyDate

// Time decodes the API's created_at strings
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("created_at is not a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(TimeLayout, s)
	if err != nil {
		return fmt.Errorf("invalid created_at %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

// Status is one post as returned by the search endpoint. Nested quoted or
// retweeted posts are kept raw: only their presence matters.
type Status struct {
	ID              int64           `json:"id"`
	IDStr           string          `json:"id_str"`
	CreatedAt       Time            `json:"created_at"`
	Text            string          `json:"text"`
	FullText        string          `json:"full_text"`
	Lang            string          `json:"lang"`
	QuotedStatus    json.RawMessage `json:"quoted_status"`
	RetweetedStatus json.RawMessage `json:"retweeted_status"`
}

// Content returns the untruncated text when the request asked for it
func (s Status) Content() string {
	if s.FullText != "" {
		return s.FullText
	}
	return s.Text
}

// HasQuotedStatus reports whether the payload carried a quoted_status key
func (s Status) HasQuotedStatus() bool {
	return len(s.QuotedStatus) > 0
}

// HasRetweetedStatus reports whether the payload carried a retweeted_status key
func (s Status) HasRetweetedStatus() bool {
	return len(s.RetweetedStatus) > 0
}

// Record projects the status onto the persisted record shape
func (s Status) Record() models.Record {
	return models.Record{
		ID:        s.ID,
		CreatedAt: s.CreatedAt.Time,
		Text:      s.Content(),
	}
}

// SearchParams describes one page request
type SearchParams struct {
	Query           string
	Lang            string
	Count           int
	MaxID           *int64
	ResultType      string
	IncludeEntities bool
}

type searchResponse struct {
	Statuses []Status `json:"statuses"`
}

type apiErrorBody struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (b apiErrorBody) message() string {
	parts := make([]string, 0, len(b.Errors))
	for _, e := range b.Errors {
		parts = append(parts, fmt.Sprintf("%s (%d)", e.Message, e.Code))
	}
	return strings.Join(parts, "; ")
}

func (b apiErrorBody) hasCode(code int) bool {
	for _, e := range b.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

type rateLimitEntry struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

type rateLimitResponse struct {
	Resources map[string]map[string]rateLimitEntry `json:"resources"`
}

// limits flattens the resource groups, sorted by operation path
func (r rateLimitResponse) limits() []ratelimit.Limit {
	var out []ratelimit.Limit
	for _, group := range r.Resources {
		for resource, e := range group {
			out = append(out, ratelimit.Limit{
				Resource:  resource,
				Limit:     e.Limit,
				Remaining: e.Remaining,
				Reset:     time.Unix(e.Reset, 0).UTC(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resource < out[j].Resource })
	return out
}
