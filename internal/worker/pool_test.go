package worker_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"medialinkd/internal/media"
	"medialinkd/internal/registry"
	"medialinkd/internal/worker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAnalyser struct {
	guess *media.Guess
	err   error
}

func (f *fakeAnalyser) Analyse(context.Context, string) (*media.Guess, error) {
	if f.err != nil {
		return nil, f.err
	}
	g := *f.guess
	return &g, nil
}

type fakeCatalogue struct {
	match *media.Match
	err   error
}

func (f *fakeCatalogue) Search(context.Context, *media.Guess) (*media.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	m := *f.match
	return &m, nil
}

type panicAnalyser struct{}

func (panicAnalyser) Analyse(context.Context, string) (*media.Guess, error) {
	panic("boom")
}

func waitForStatus(t *testing.T, store *registry.MemoryStore, id int64, want media.Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mf, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		if mf.Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status never reached %s", want)
}

func TestPoolHappyMovieScenario(t *testing.T) {
	srcRoot := t.TempDir()
	targetRoot := t.TempDir()
	source := filepath.Join(srcRoot, "Inception.2010.1080p.mkv")
	require.NoError(t, os.WriteFile(source, make([]byte, 1024), 0o644))

	store := registry.NewMemoryStore()
	ctx := context.Background()
	id, _, err := store.RegisterIfNew(ctx, source, "Inception.2010.1080p.mkv", 1, 42, 1024)
	require.NoError(t, err)

	year := 2010
	an := &fakeAnalyser{guess: &media.Guess{Title: "Inception", Year: &year, Type: media.MediaTypeMovie}}
	cat := &fakeCatalogue{match: &media.Match{TMDBID: 27205, Type: media.MediaTypeMovie, Title: "Inception", Year: &year}}

	dispatcher := worker.NewDispatcher(2)
	pool := worker.NewPool(store, an, cat, dispatcher, targetRoot, 2, nil)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() { pool.Run(runCtx); close(done) }()

	require.NoError(t, dispatcher.Enqueue(ctx, id))
	waitForStatus(t, store, id, media.StatusCompleted)

	mf, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(targetRoot, "Movies", "Inception (2010)", "Inception (2010).mkv"), *mf.NewFilepath)
	require.Equal(t, int64(27205), *mf.TMDBID)

	cancel()
	dispatcher.Close()
	<-done
}

func TestPoolNoMatchScenario(t *testing.T) {
	srcRoot := t.TempDir()
	targetRoot := t.TempDir()
	source := filepath.Join(srcRoot, "home_video_2023.mkv")
	require.NoError(t, os.WriteFile(source, make([]byte, 1024), 0o644))

	store := registry.NewMemoryStore()
	ctx := context.Background()
	id, _, err := store.RegisterIfNew(ctx, source, "home_video_2023.mkv", 1, 43, 1024)
	require.NoError(t, err)

	an := &fakeAnalyser{guess: &media.Guess{Title: "home video 2023", Type: media.MediaTypeMovie}}
	cat := &fakeCatalogue{err: media.NewError(media.NoMatch, "catalogue returned no results")}

	dispatcher := worker.NewDispatcher(1)
	pool := worker.NewPool(store, an, cat, dispatcher, targetRoot, 1, nil)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() { pool.Run(runCtx); close(done) }()

	require.NoError(t, dispatcher.Enqueue(ctx, id))
	waitForStatus(t, store, id, media.StatusNoMatch)

	cancel()
	dispatcher.Close()
	<-done
}

func TestPoolRecoversFromPanic(t *testing.T) {
	srcRoot := t.TempDir()
	targetRoot := t.TempDir()
	source := filepath.Join(srcRoot, "a.mkv")
	require.NoError(t, os.WriteFile(source, make([]byte, 1024), 0o644))

	store := registry.NewMemoryStore()
	ctx := context.Background()
	id, _, err := store.RegisterIfNew(ctx, source, "a.mkv", 1, 44, 1024)
	require.NoError(t, err)

	dispatcher := worker.NewDispatcher(1)
	pool := worker.NewPool(store, panicAnalyser{}, &fakeCatalogue{}, dispatcher, targetRoot, 1, nil)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() { pool.Run(runCtx); close(done) }()

	require.NoError(t, dispatcher.Enqueue(ctx, id))
	waitForStatus(t, store, id, media.StatusFailed)

	// The pool must still be alive after the panic.
	id2, _, err := store.RegisterIfNew(ctx, source+"2", "a2.mkv", 1, 45, 1024)
	require.NoError(t, err)
	require.NoError(t, dispatcher.Enqueue(ctx, id2))
	waitForStatus(t, store, id2, media.StatusFailed)

	cancel()
	dispatcher.Close()
	<-done
}
