// Package collector defines the core types shared across the archive
// pipeline and implements the fallback orchestrator that drives one
// collection run.
package collector

import (
	"context"
	"time"
)

// ForumID is a normalized, lowercase forum (subreddit) name with no
// whitespace and no protocol prefix.
type ForumID string

// PayloadFormat identifies the shape a strategy's raw response is
// expected to parse as.
type PayloadFormat string

// Raw payload formats produced by the transport strategies.
const (
	FormatJSON PayloadFormat = "json"
	FormatFeed PayloadFormat = "feed"
	FormatHTML PayloadFormat = "html"
)

// Ext returns the file extension used for the raw archive artifact.
func (f PayloadFormat) Ext() string {
	switch f {
	case FormatFeed:
		return "xml"
	case FormatHTML:
		return "html"
	default:
		return "json"
	}
}

// RawResponse is the unvalidated result of one strategy fetch, tagged
// with the strategy that produced it.
type RawResponse struct {
	Forum     ForumID
	Strategy  string
	Format    PayloadFormat
	Body      []byte
	FetchedAt time.Time
}

// Post is one listing entry, normalized across payload formats.
type Post struct {
	Rank        int     `json:"rank"`
	ID          string  `json:"id,omitempty"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc,omitempty"`
	PostedDate  string  `json:"posted_date,omitempty"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url,omitempty"`
	Content     string  `json:"content"`
	IsSelf      bool    `json:"is_self"`
}

// AcceptedPayload is a RawResponse that passed validation, together
// with the normalized listing extracted from it.
type AcceptedPayload struct {
	Raw   RawResponse
	Posts []Post
}

// Strategy is one transport method for retrieving a forum listing.
// Implementations are stateless per call aside from shared transport
// configuration and the cached OAuth token.
type Strategy interface {
	Name() string
	Format() PayloadFormat
	Fetch(ctx context.Context, forum ForumID) (RawResponse, error)
}

// Validator gates acceptance of raw responses.
type Validator interface {
	Validate(raw RawResponse) (AcceptedPayload, error)
}

// ArchiveWriter persists an accepted payload for the given run date
// and returns the path of the raw artifact.
type ArchiveWriter interface {
	Write(ctx context.Context, payload AcceptedPayload, date time.Time) (string, error)
}

// ForumStatus is the terminal state of one forum in a run.
type ForumStatus string

// Terminal per-forum states.
const (
	StatusSucceeded   ForumStatus = "succeeded"
	StatusExhausted   ForumStatus = "exhausted"
	StatusWriteFailed ForumStatus = "write_failed"
)

// Attempt records one strategy attempt for the outcome log.
type Attempt struct {
	Strategy string
	Number   int
	Err      error
}

// FetchOutcome is the per-forum result of a run.
type FetchOutcome struct {
	Forum        ForumID
	Status       ForumStatus
	SucceededVia string
	ArchivePath  string
	Attempts     []Attempt
	Err          error
}

// Summary aggregates the outcomes of one run.
type Summary struct {
	RunID    string
	Date     time.Time
	Outcomes []FetchOutcome
}

// Failed returns the number of forums that did not reach a written
// archive entry.
func (s Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status != StatusSucceeded {
			n++
		}
	}
	return n
}
