package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"medialinkd/internal/fsutil"
)

func TestConfineAbsPathRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	_, err := fsutil.ConfineAbsPath(root, filepath.Join(filepath.Dir(root), "escaped"))
	require.Error(t, err)
}

func TestConfineAbsPathAllowsNested(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "Movies", "X (2020)")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	resolved, err := fsutil.ConfineAbsPath(root, nested)
	require.NoError(t, err)
	require.Contains(t, resolved, root)
}

func TestConfineAbsPathRejectsSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(root, "escape")
	require.NoError(t, os.Symlink(outside, link))

	_, err := fsutil.ConfineAbsPath(root, link)
	require.Error(t, err)
}
