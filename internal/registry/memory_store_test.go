package registry_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"medialinkd/internal/media"
	"medialinkd/internal/registry"
)

func TestRegisterIfNewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()

	id1, wasNew1, err := store.RegisterIfNew(ctx, "/s/a.mkv", "a.mkv", 1, 100, 1024)
	require.NoError(t, err)
	require.True(t, wasNew1)

	id2, wasNew2, err := store.RegisterIfNew(ctx, "/s/a.mkv", "a.mkv", 1, 100, 1024)
	require.NoError(t, err)
	require.False(t, wasNew2)
	require.Equal(t, id1, id2)
}

func TestClaimIsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	id, _, err := store.RegisterIfNew(ctx, "/s/a.mkv", "a.mkv", 1, 100, 1024)
	require.NoError(t, err)

	_, ok1, err := store.Claim(ctx, id)
	require.NoError(t, err)
	require.True(t, ok1)

	_, ok2, err := store.Claim(ctx, id)
	require.NoError(t, err)
	require.False(t, ok2, "second claim must observe stale")
}

func TestRetryOnCompletedIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	id, _, err := store.RegisterIfNew(ctx, "/s/a.mkv", "a.mkv", 1, 100, 1024)
	require.NoError(t, err)
	_, _, err = store.Claim(ctx, id)
	require.NoError(t, err)

	year := 2010
	require.NoError(t, store.TransitionCompleted(ctx, id, "/t/a.mkv", &media.Match{TMDBID: 1, Type: media.MediaTypeMovie, Title: "A", Year: &year}))

	ok, err := store.Retry(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)

	mf, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, media.StatusCompleted, mf.Status)
}

func TestRetryBumpsRetryCountOnSecondClaim(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	id, _, err := store.RegisterIfNew(ctx, "/s/a.mkv", "a.mkv", 1, 100, 1024)
	require.NoError(t, err)

	_, _, err = store.Claim(ctx, id)
	require.NoError(t, err)
	require.NoError(t, store.TransitionFailed(ctx, id, "boom"))

	ok, err := store.Retry(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	mf, ok2, err := store.Claim(ctx, id)
	require.NoError(t, err)
	require.True(t, ok2)
	require.Equal(t, 1, mf.RetryCount)
}

func TestRecordGuessPersistsExactValue(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	id, _, err := store.RegisterIfNew(ctx, "/s/a.mkv", "a.mkv", 1, 100, 1024)
	require.NoError(t, err)
	_, _, err = store.Claim(ctx, id)
	require.NoError(t, err)

	year := 2019
	season, episode := 1, 3
	want := &media.Guess{Title: "Chernobyl", Year: &year, Type: media.MediaTypeTV, Season: &season, Episode: &episode}
	require.NoError(t, store.RecordGuess(ctx, id, want))

	mf, err := store.Get(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(want, mf.LLMGuess); diff != "" {
		t.Fatalf("stored guess mismatch (-want +got):\n%s", diff)
	}
}
