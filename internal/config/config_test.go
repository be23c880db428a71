package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsMissingSourceDir(t *testing.T) {
	c := Defaults()
	c.TargetDir = "/tmp/out"
	require.Error(t, Validate(c))
}

func TestValidateRejectsSameSourceAndTarget(t *testing.T) {
	c := Defaults()
	c.SourceDir = "/media/in"
	c.TargetDir = "/media/in"
	require.Error(t, Validate(c))
}

func TestLoadFileOverlaysDefaultsAndEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_dir: /from/file\ntarget_dir: /to/file\nworker_count: 7\n"), 0o644))

	t.Setenv("WORKER_COUNT", "3")
	t.Setenv("TMDB_BASE_URL", "http://catalogue.invalid")
	t.Setenv("ANALYSER_BASE_URL", "http://analyser.invalid")
	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/from/file", c.SourceDir)
	require.Equal(t, "/to/file", c.TargetDir)
	require.Equal(t, 3, c.WorkerCount, "environment variable must win over file value")
}

func TestLoadFileMissingPathFallsBackToDefaults(t *testing.T) {
	t.Setenv("SOURCE_DIR", "/a")
	t.Setenv("TARGET_DIR", "/b")
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Defaults().WorkerCount, c.WorkerCount)
}

func TestParseStringListTrimsAndFiltersEmpty(t *testing.T) {
	t.Setenv("VIDEO_EXTENSIONS", " .mkv, .mp4 ,,.avi")
	got := ParseStringList("VIDEO_EXTENSIONS", nil)
	require.Equal(t, []string{".mkv", ".mp4", ".avi"}, got)
}
