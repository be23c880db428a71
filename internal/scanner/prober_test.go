package scanner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"medialinkd/internal/scanner"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestProbeFiltersByExtensionAndSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "movie.mkv"), 2048)
	writeFile(t, filepath.Join(root, "readme.txt"), 2048)
	writeFile(t, filepath.Join(root, "small.mkv"), 10)

	cfg := scanner.ProbeConfig{
		Root:         root,
		Extensions:   map[string]struct{}{".mkv": {}},
		MinSizeBytes: 1024,
	}

	candidates, err := scanner.Probe(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, filepath.Join(root, "movie.mkv"), candidates[0].Path)
}

func TestProbeExcludesConfiguredSubtree(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target")
	writeFile(t, filepath.Join(root, "source.mkv"), 2048)
	writeFile(t, filepath.Join(target, "already_linked.mkv"), 2048)

	cfg := scanner.ProbeConfig{
		Root:         root,
		Extensions:   map[string]struct{}{".mkv": {}},
		MinSizeBytes: 0,
		ExcludeDir:   target,
	}

	candidates, err := scanner.Probe(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, filepath.Join(root, "source.mkv"), candidates[0].Path)
}

func TestProbeBoundarySizeIsInclusive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "exact.mkv"), 1024)
	writeFile(t, filepath.Join(root, "under.mkv"), 1023)

	cfg := scanner.ProbeConfig{
		Root:         root,
		Extensions:   map[string]struct{}{".mkv": {}},
		MinSizeBytes: 1024,
	}

	candidates, err := scanner.Probe(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, filepath.Join(root, "exact.mkv"), candidates[0].Path)
}
