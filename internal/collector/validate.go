package collector

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// contentPreviewLimit caps the self-text carried into derived views.
const contentPreviewLimit = 500

// ListingValidator decides acceptance of raw responses and normalizes
// them into posts. Acceptance is binary: a payload that is empty, does
// not parse in its strategy's declared format, or lacks the expected
// listing structure is rejected with a FetchError.
type ListingValidator struct {
	feedParser *gofeed.Parser
}

// NewListingValidator builds a validator for all payload formats.
func NewListingValidator() *ListingValidator {
	return &ListingValidator{feedParser: gofeed.NewParser()}
}

// Validate promotes raw to an AcceptedPayload or rejects it.
func (v *ListingValidator) Validate(raw RawResponse) (AcceptedPayload, error) {
	if len(bytes.TrimSpace(raw.Body)) == 0 {
		return AcceptedPayload{}, &FetchError{Cause: CauseEmpty}
	}

	var (
		posts []Post
		err   error
	)
	switch raw.Format {
	case FormatFeed:
		posts, err = v.parseFeed(raw.Body)
	case FormatHTML:
		posts, err = v.parseHTML(raw.Body)
	default:
		posts, err = v.parseJSON(raw.Body)
	}
	if err != nil {
		return AcceptedPayload{}, err
	}
	if len(posts) == 0 {
		return AcceptedPayload{}, &FetchError{Cause: CauseEmpty}
	}
	return AcceptedPayload{Raw: raw, Posts: posts}, nil
}

// listingEnvelope mirrors the reddit listing JSON returned by both the
// OAuth API and the public .json endpoint.
type listingEnvelope struct {
	Data *struct {
		Children []struct {
			Data listingPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type listingPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	Selftext    string  `json:"selftext"`
	IsSelf      bool    `json:"is_self"`
}

func (v *ListingValidator) parseJSON(body []byte) ([]Post, error) {
	var env listingEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &FetchError{Cause: CauseMalformedResponse, Err: err}
	}
	if env.Data == nil {
		return nil, &FetchError{Cause: CauseMalformedResponse}
	}

	posts := make([]Post, 0, len(env.Data.Children))
	for i, child := range env.Data.Children {
		p := child.Data
		content := truncateContent(p.Selftext)
		if content == "" {
			content = "[Link Post - URL: " + orNA(p.URL) + "]"
		}
		posts = append(posts, Post{
			Rank:        i + 1,
			ID:          p.ID,
			Title:       p.Title,
			Author:      orUnknown(p.Author),
			Score:       p.Score,
			NumComments: p.NumComments,
			CreatedUTC:  p.CreatedUTC,
			PostedDate:  formatPostedDate(p.CreatedUTC),
			Permalink:   "https://reddit.com" + p.Permalink,
			URL:         p.URL,
			Content:     content,
			IsSelf:      p.IsSelf,
		})
	}
	return posts, nil
}

func (v *ListingValidator) parseFeed(body []byte) ([]Post, error) {
	feed, err := v.feedParser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Cause: CauseMalformedResponse, Err: err}
	}

	posts := make([]Post, 0, len(feed.Items))
	for i, item := range feed.Items {
		author := "unknown"
		if item.Author != nil && item.Author.Name != "" {
			author = item.Author.Name
		}
		posted := item.Published
		var created float64
		if item.PublishedParsed != nil {
			posted = item.PublishedParsed.UTC().Format("2006-01-02 15:04")
			created = float64(item.PublishedParsed.Unix())
		}
		content := truncateContent(item.Description)
		if content == "" {
			content = truncateContent(item.Content)
		}
		posts = append(posts, Post{
			Rank:       i + 1,
			Title:      item.Title,
			Author:     author,
			CreatedUTC: created,
			PostedDate: posted,
			Permalink:  item.Link,
			URL:        item.Link,
			Content:    content,
		})
	}
	return posts, nil
}

// parseHTML extracts listing rows from the old-reddit markup, where
// each post is a div.thing carrying its stats as data attributes.
func (v *ListingValidator) parseHTML(body []byte) ([]Post, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Cause: CauseMalformedResponse, Err: err}
	}

	var posts []Post
	doc.Find("div.thing").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("a.title").First().Text())
		if title == "" {
			return
		}
		score, _ := strconv.Atoi(s.AttrOr("data-score", "0"))
		comments, _ := strconv.Atoi(s.AttrOr("data-comments-count", "0"))
		permalink := s.AttrOr("data-permalink", "")
		if permalink != "" {
			permalink = "https://old.reddit.com" + permalink
		}
		posts = append(posts, Post{
			Rank:        len(posts) + 1,
			ID:          strings.TrimPrefix(s.AttrOr("data-fullname", ""), "t3_"),
			Title:       title,
			Author:      orUnknown(s.AttrOr("data-author", "")),
			Score:       score,
			NumComments: comments,
			Permalink:   permalink,
			URL:         s.Find("a.title").First().AttrOr("href", ""),
			Content:     "[Link Post - URL: " + orNA(s.Find("a.title").First().AttrOr("href", "")) + "]",
		})
	})
	return posts, nil
}

func truncateContent(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= contentPreviewLimit {
		return text
	}
	return string(runes[:contentPreviewLimit]) + "..."
}

func formatPostedDate(createdUTC float64) string {
	if createdUTC <= 0 {
		return ""
	}
	return time.Unix(int64(createdUTC), 0).UTC().Format("2006-01-02 15:04")
}

func orUnknown(author string) string {
	if author == "" {
		return "[deleted]"
	}
	return author
}

func orNA(url string) string {
	if url == "" {
		return "N/A"
	}
	return url
}
