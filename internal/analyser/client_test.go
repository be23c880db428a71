package analyser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"medialinkd/internal/media"
)

func TestExtractJSONObjectTolerantOfWrappingNoise(t *testing.T) {
	raw := []byte("Sure, here you go:\n```json\n{\"title\":\"Inception\",\"year\":2010,\"type\":\"movie\"}\n```\nHope that helps!")
	obj, err := extractJSONObject(raw)
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"Inception","year":2010,"type":"movie"}`, string(obj))
}

func TestExtractJSONObjectNoObjectIsError(t *testing.T) {
	_, err := extractJSONObject([]byte("no json here"))
	require.Error(t, err)
}

func TestDisabledFallbackUsesStem(t *testing.T) {
	guess := disabledFallback("/s/Some.Movie.2020.mkv")
	require.Equal(t, "Some.Movie.2020", guess.Title)
	require.Equal(t, media.MediaTypeMovie, guess.Type)
}

func TestSupplementSeasonEpisodeDoesNotOverrideExplicitValues(t *testing.T) {
	season, episode := 5, 9
	guess := &media.Guess{Type: media.MediaTypeTV, Season: &season, Episode: &episode}
	supplementSeasonEpisode(guess, "Show.S01E02.mkv")
	require.Equal(t, 5, *guess.Season)
	require.Equal(t, 9, *guess.Episode)
}

func TestSupplementSeasonEpisodeFillsFromFilename(t *testing.T) {
	guess := &media.Guess{Type: media.MediaTypeTV}
	supplementSeasonEpisode(guess, "Chernobyl.S01E02.mkv")
	require.NotNil(t, guess.Season)
	require.NotNil(t, guess.Episode)
	require.Equal(t, 1, *guess.Season)
	require.Equal(t, 2, *guess.Episode)
}

// TestSupplementSeasonEpisodeFillsEvenWhenAnalyserMislabelsType guards the
// exact failure mode of spec.md §8 scenario 2: the analyser returns
// type:"movie" for a TV episode, and the SxxEyy token must still be
// extracted so the catalogue's hybrid fallback has a season/episode to
// attach once it resolves the real type.
func TestSupplementSeasonEpisodeFillsEvenWhenAnalyserMislabelsType(t *testing.T) {
	guess := &media.Guess{Title: "Chernobyl", Type: media.MediaTypeMovie}
	supplementSeasonEpisode(guess, "Chernobyl.S01E02.mkv")
	require.NotNil(t, guess.Season)
	require.NotNil(t, guess.Episode)
	require.Equal(t, 1, *guess.Season)
	require.Equal(t, 2, *guess.Episode)
}

func TestAnalyseCachesByNormalizedFilename(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Inception","year":2010,"type":"movie"}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second, Enabled: true, CacheSize: 16})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = client.Analyse(ctx, "Inception.2010.mkv")
	require.NoError(t, err)
	_, err = client.Analyse(ctx, "inception.2010.mkv") // same after fold+collapse
	require.NoError(t, err)

	require.Equal(t, 1, calls)
}

func TestAnalysePermanentOnSchemaViolationIsNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"year":2010}`)) // missing title
	}))
	defer server.Close()

	client, err := NewHTTPClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second, Enabled: true, CacheSize: 16})
	require.NoError(t, err)

	_, err = client.Analyse(context.Background(), "x.mkv")
	require.Error(t, err)
	require.Equal(t, media.AnalyserPermanent, media.Kind(context.Background(), err))
	require.Equal(t, 1, calls, "permanent errors must not be retried")
}
