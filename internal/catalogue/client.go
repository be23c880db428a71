// Package catalogue wraps the remote movie/TV database: a rate-limited,
// retried client performing a hybrid-fallback typed search.
package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/semaphore"

	"medialinkd/internal/media"
	"medialinkd/internal/metrics"
	"medialinkd/internal/retrypolicy"
)

// Client searches the catalogue for a Guess.
type Client interface {
	Search(ctx context.Context, guess *media.Guess) (*media.Match, error)
}

// Config configures the HTTP-backed catalogue client.
type Config struct {
	BaseURL     string
	Language    string
	Timeout     time.Duration // per-attempt timeout, recommended 15s
	Enabled     bool
	Concurrency int64 // semaphore capacity, default 10
}

// HTTPClient is the production Client implementation.
type HTTPClient struct {
	cfg     Config
	http    *http.Client
	sem     *semaphore.Weighted
	inFlight atomic.Int64
}

// NewHTTPClient builds a Client whose in-flight call count never exceeds
// cfg.Concurrency.
func NewHTTPClient(cfg Config) *HTTPClient {
	n := cfg.Concurrency
	if n <= 0 {
		n = 10
	}
	return &HTTPClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		sem:  semaphore.NewWeighted(n),
	}
}

// InFlight reports the number of calls currently holding the semaphore. It
// is the instrumentation hook the rate-limit boundary property observes.
func (c *HTTPClient) InFlight() int64 {
	return c.inFlight.Load()
}

// Search performs a typed search using guess.Type; on an empty result it
// retries once with the opposite type (hybrid fallback). When the catalogue
// is disabled it always returns NoMatch without making a call.
func (c *HTTPClient) Search(ctx context.Context, guess *media.Guess) (*media.Match, error) {
	if !c.cfg.Enabled {
		return nil, media.NewError(media.NoMatch, "catalogue disabled by configuration")
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, media.Wrap(media.Cancelled, err)
	}
	c.inFlight.Add(1)
	metrics.CatalogueInFlight.Set(float64(c.inFlight.Load()))
	defer func() {
		c.inFlight.Add(-1)
		metrics.CatalogueInFlight.Set(float64(c.inFlight.Load()))
		c.sem.Release(1)
	}()

	match, err := c.searchWithRetry(ctx, guess, guess.Type)
	if err == nil {
		metrics.CatalogueCallsTotal.WithLabelValues("success").Inc()
		return attachEpisodeInfo(match, guess), nil
	}
	if media.Kind(ctx, err) != media.NoMatch {
		metrics.CatalogueCallsTotal.WithLabelValues(outcomeLabel(ctx, err)).Inc()
		return nil, err
	}

	fallbackType := opposite(guess.Type)
	match, err = c.searchWithRetry(ctx, guess, fallbackType)
	if err != nil {
		metrics.CatalogueCallsTotal.WithLabelValues(outcomeLabel(ctx, err)).Inc()
		return nil, err
	}
	metrics.CatalogueCallsTotal.WithLabelValues("success").Inc()
	return attachEpisodeInfo(match, guess), nil
}

func outcomeLabel(ctx context.Context, err error) string {
	switch media.Kind(ctx, err) {
	case media.NoMatch:
		return "no_match"
	case media.CatalogueTransient:
		return "transient_error"
	default:
		return "permanent_error"
	}
}

func opposite(t media.MediaType) media.MediaType {
	if t == media.MediaTypeMovie {
		return media.MediaTypeTV
	}
	return media.MediaTypeMovie
}

func attachEpisodeInfo(match *media.Match, guess *media.Guess) *media.Match {
	if match.Type == media.MediaTypeTV {
		match.Season = guess.Season
		match.Episode = guess.Episode
	}
	return match
}

type searchResult struct {
	Results []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
		Name  string `json:"name"` // TV results use "name" instead of "title"
		Year  string `json:"release_date"`
	} `json:"results"`
}

func (c *HTTPClient) searchWithRetry(ctx context.Context, guess *media.Guess, asType media.MediaType) (*media.Match, error) {
	operation := func() (*media.Match, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		match, status, err := c.attempt(attemptCtx, guess, asType)
		if err != nil {
			return nil, media.Wrap(media.CatalogueTransient, err)
		}
		switch {
		case status == http.StatusTooManyRequests:
			return nil, media.NewError(media.CatalogueTransient, "rate limited")
		case status >= 500:
			return nil, media.NewError(media.CatalogueTransient, fmt.Sprintf("server error %d", status))
		case status >= 400:
			return nil, backoff.Permanent(media.NewError(media.CataloguePermanent, fmt.Sprintf("client error %d", status)))
		}
		if match == nil {
			return nil, backoff.Permanent(media.NewError(media.NoMatch, "catalogue returned no results"))
		}
		return match, nil
	}

	return retrypolicy.Run(ctx, retrypolicy.Default, metrics.CatalogueRetriesTotal.Inc, operation)
}

func (c *HTTPClient) attempt(ctx context.Context, guess *media.Guess, asType media.MediaType) (*media.Match, int, error) {
	endpoint := "movie"
	if asType == media.MediaTypeTV {
		endpoint = "tv"
	}

	q := url.Values{}
	q.Set("query", guess.Title)
	q.Set("language", c.cfg.Language)
	if guess.Year != nil {
		q.Set("year", strconv.Itoa(*guess.Year))
	}

	reqURL := fmt.Sprintf("%s/search/%s?%s", c.cfg.BaseURL, endpoint, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var parsed searchResult
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, resp.StatusCode, nil
	}

	top := parsed.Results[0]
	title := top.Title
	if title == "" {
		title = top.Name
	}
	var year *int
	if len(top.Year) >= 4 {
		if y, err := strconv.Atoi(top.Year[:4]); err == nil {
			year = &y
		}
	}

	return &media.Match{TMDBID: top.ID, Type: asType, Title: title, Year: year}, resp.StatusCode, nil
}
