package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dtnitsch/image-scraper/models"
	"github.com/dtnitsch/image-scraper/pkg/fetcher"
)

const (
	// DefaultSearchURL is formatted with the sanitized query and a zero-based page index.
	DefaultSearchURL = "https://www.google.com/search?q=%s&tbm=isch&async=_id:islrg_c,_fmt:json&asearch=ichunklite&ijn=%d"

	// DefaultErrorLimit is the number of failed pages tolerated; discovery
	// stops once the error count exceeds it.
	DefaultErrorLimit = 5

	// jsonPrefix guards the search response against being evaluated as script.
	jsonPrefix = ")]}'"
)

var (
	ErrBadStatus   = errors.New("unexpected status code")
	ErrBadEnvelope = errors.New("unexpected response envelope")
)

// SanitizeQuery replaces spaces with '+'. No other escaping is applied.
func SanitizeQuery(query string) string {
	return strings.ReplaceAll(query, " ", "+")
}

// PageResult is the outcome of requesting and parsing one results page.
type PageResult struct {
	Page    int
	Entries []models.ManifestEntry
	Reason  models.FailureReason
	Err     error
}

// Failed reports whether the page counts against the error budget.
func (p PageResult) Failed() bool {
	return p.Reason != models.ReasonNone
}

type envelope struct {
	IchunkLite *struct {
		Results *[]searchResult `json:"results"`
	} `json:"ichunklite"`
}

type searchResult struct {
	ImageDocID     string `json:"image_docid"`
	ViewerMetadata *struct {
		OriginalImage *struct {
			URL string `json:"url"`
		} `json:"original_image"`
	} `json:"viewer_metadata"`
}

// Builder discovers image sources page by page.
type Builder struct {
	fetcher    *fetcher.Fetcher
	logger     *slog.Logger
	searchURL  string
	errorLimit int
	debug      bool
}

type Option func(*Builder)

// WithSearchURL overrides DefaultSearchURL. The template takes %s (query) and %d (page).
func WithSearchURL(tmpl string) Option {
	return func(b *Builder) {
		if tmpl != "" {
			b.searchURL = tmpl
		}
	}
}

func WithErrorLimit(n int) Option {
	return func(b *Builder) {
		b.errorLimit = n
	}
}

// WithDebug logs every swallowed page failure.
func WithDebug(debug bool) Option {
	return func(b *Builder) {
		b.debug = debug
	}
}

func NewBuilder(f *fetcher.Fetcher, logger *slog.Logger, opts ...Option) *Builder {
	b := &Builder{
		fetcher:    f,
		logger:     logger.With(slog.String("component", "manifest")),
		searchURL:  DefaultSearchURL,
		errorLimit: DefaultErrorLimit,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build collects up to count unique entries for query in first-seen order.
// When more than errorLimit pages fail it returns what it has; that is a
// degraded result, not an error. The only error is ctx cancellation.
func (b *Builder) Build(ctx context.Context, query string, count int) ([]models.ManifestEntry, error) {
	m := models.NewManifest()
	q := SanitizeQuery(query)

	errCount := 0
	for page := 0; m.Len() < count; page++ {
		if err := ctx.Err(); err != nil {
			return m.Entries(count), err
		}

		res := b.FetchPage(ctx, q, page)
		if !res.Failed() {
			added := 0
			for _, e := range res.Entries {
				if m.Add(e) {
					added++
				}
			}
			if added == 0 {
				res.Reason = models.ReasonNoNewResults
			}
		}

		if res.Failed() {
			errCount++
			if b.debug {
				b.logger.Error("Discovery page failed",
					"page", page,
					"reason", res.Reason,
					"error", res.Err,
					"error_count", errCount)
			}
		}

		if errCount > b.errorLimit {
			b.logger.Warn("Couldn't request all images", "found", m.Len(), "requested", count)
			break
		}
	}

	return m.Entries(count), nil
}

// FetchPage requests a single results page for an already sanitized query.
func (b *Builder) FetchPage(ctx context.Context, sanitizedQuery string, page int) PageResult {
	res := PageResult{Page: page}

	resp, err := b.fetcher.Get(ctx, fmt.Sprintf(b.searchURL, sanitizedQuery, page))
	if err != nil {
		res.Reason = models.ReasonRequestError
		res.Err = err
		return res
	}
	if resp.StatusCode != http.StatusOK {
		res.Reason = models.ReasonBadStatus
		res.Err = fmt.Errorf("%w %d for page %d", ErrBadStatus, resp.StatusCode, page)
		return res
	}

	entries, err := ParsePage(resp.Body)
	if err != nil {
		res.Reason = models.ReasonParseError
		res.Err = fmt.Errorf("issue parsing json for page %d: %w", page, err)
		return res
	}
	res.Entries = entries
	return res
}

// ParsePage strips the guard prefix and decodes the ichunklite envelope.
// Any missing field fails the whole page.
func ParsePage(body []byte) ([]models.ManifestEntry, error) {
	body = bytes.TrimPrefix(body, []byte(jsonPrefix))

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	if env.IchunkLite == nil || env.IchunkLite.Results == nil {
		return nil, fmt.Errorf("%w: missing ichunklite.results", ErrBadEnvelope)
	}

	results := *env.IchunkLite.Results
	entries := make([]models.ManifestEntry, 0, len(results))
	for i, r := range results {
		if r.ImageDocID == "" {
			return nil, fmt.Errorf("%w: result %d has no image_docid", ErrBadEnvelope, i)
		}
		if r.ViewerMetadata == nil || r.ViewerMetadata.OriginalImage == nil || r.ViewerMetadata.OriginalImage.URL == "" {
			return nil, fmt.Errorf("%w: result %d has no original_image.url", ErrBadEnvelope, i)
		}
		entries = append(entries, models.ManifestEntry{
			ImageID:   r.ImageDocID,
			SourceURL: r.ViewerMetadata.OriginalImage.URL,
		})
	}
	return entries, nil
}
