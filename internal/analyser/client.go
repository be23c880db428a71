// Package analyser wraps the remote language-model filename analyser: a
// cached, retried client that turns a bare filename into a structured Guess.
package analyser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"

	"medialinkd/internal/log"
	"medialinkd/internal/media"
	"medialinkd/internal/metrics"
	"medialinkd/internal/retrypolicy"
)

// Client analyses a filename into a structured Guess.
type Client interface {
	Analyse(ctx context.Context, filename string) (*media.Guess, error)
}

// Config configures the HTTP-backed analyser client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration // per-attempt timeout, recommended 30s
	Enabled   bool
	CacheSize int // LRU capacity, recommended 128-1024
}

// HTTPClient is the production Client implementation.
type HTTPClient struct {
	cfg    Config
	http   *http.Client
	cache  *lru.Cache[string, media.Guess]
	folder cases.Caser
}

// NewHTTPClient builds a Client, bounding its cache at cfg.CacheSize entries.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, media.Guess](size)
	if err != nil {
		return nil, fmt.Errorf("analyser: build cache: %w", err)
	}
	return &HTTPClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		folder: cases.Fold(),
	}, nil
}

// Analyse returns the cached guess for filename if present, otherwise calls
// the remote endpoint (or the disabled-fallback stem guess) and caches the
// result. A regex SxxEyy extractor supplements, but never overrides, an
// explicit season/episode from the remote response.
func (c *HTTPClient) Analyse(ctx context.Context, filename string) (*media.Guess, error) {
	key := c.normalize(filename)
	if cached, ok := c.cache.Get(key); ok {
		metrics.AnalyserCallsTotal.WithLabelValues("cache_hit").Inc()
		guess := cached
		return &guess, nil
	}

	var guess *media.Guess
	var err error
	if !c.cfg.Enabled {
		guess = disabledFallback(filename)
	} else {
		guess, err = c.callRemote(ctx, filename)
		if err != nil {
			outcome := "transient_error"
			if media.Kind(ctx, err) == media.AnalyserPermanent {
				outcome = "permanent_error"
			}
			metrics.AnalyserCallsTotal.WithLabelValues(outcome).Inc()
			return nil, err
		}
	}
	metrics.AnalyserCallsTotal.WithLabelValues("success").Inc()

	supplementSeasonEpisode(guess, filename)

	c.cache.Add(key, *guess)
	return guess, nil
}

func (c *HTTPClient) normalize(filename string) string {
	folded := c.folder.String(filename)
	fields := strings.Fields(folded)
	return strings.Join(fields, " ")
}

// disabledFallback implements the ENABLE_LLM=false behaviour: a minimal
// guess derived from the filename stem.
func disabledFallback(filename string) *media.Guess {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return &media.Guess{Title: stem, Type: media.MediaTypeMovie}
}

type analyserResponse struct {
	Title   string `json:"title"`
	Year    *int   `json:"year"`
	Type    string `json:"type"`
	Season  *int   `json:"season"`
	Episode *int   `json:"episode"`
}

func (c *HTTPClient) callRemote(ctx context.Context, filename string) (*media.Guess, error) {
	operation := func() (*media.Guess, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		guess, permanent, err := c.attempt(attemptCtx, filename)
		if err != nil {
			if permanent {
				return nil, backoff.Permanent(media.Wrap(media.AnalyserPermanent, err))
			}
			return nil, media.Wrap(media.AnalyserTransient, err)
		}
		return guess, nil
	}

	return retrypolicy.Run(ctx, retrypolicy.Default, metrics.AnalyserRetriesTotal.Inc, operation)
}

func (c *HTTPClient) attempt(ctx context.Context, filename string) (guess *media.Guess, permanent bool, err error) {
	body, err := json.Marshal(map[string]string{"filename": filename})
	if err != nil {
		return nil, true, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, true, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, err // network error: transient
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	if resp.StatusCode >= 500 {
		return nil, false, fmt.Errorf("analyser: server error %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, true, fmt.Errorf("analyser: client error %d: %s", resp.StatusCode, string(raw))
	}

	obj, err := extractJSONObject(raw)
	if err != nil {
		log.WithComponent("analyser").Warn().Err(err).Str("filename", filename).Msg("malformed analyser response")
		return nil, true, err
	}

	var parsed analyserResponse
	if err := json.Unmarshal(obj, &parsed); err != nil {
		return nil, true, fmt.Errorf("analyser: decode response: %w", err)
	}
	if parsed.Title == "" {
		return nil, true, fmt.Errorf("analyser: response missing title")
	}
	mediaType := media.MediaType(parsed.Type)
	if mediaType != media.MediaTypeMovie && mediaType != media.MediaTypeTV {
		return nil, true, fmt.Errorf("analyser: unrecognised type %q", parsed.Type)
	}

	return &media.Guess{
		Title:   parsed.Title,
		Year:    parsed.Year,
		Type:    mediaType,
		Season:  parsed.Season,
		Episode: parsed.Episode,
	}, false, nil
}

// extractJSONObject scans raw for the first balanced {...} object, tolerating
// surrounding prose the model may emit despite being instructed to return
// strict JSON.
func extractJSONObject(raw []byte) ([]byte, error) {
	start := bytes.IndexByte(raw, '{')
	if start == -1 {
		return nil, fmt.Errorf("analyser: no JSON object found in response")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		b := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return nil, fmt.Errorf("analyser: unbalanced JSON object in response")
}

