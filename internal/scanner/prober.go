// Package scanner walks the source directory for candidate media files and
// drives the periodic scan that feeds the identity registry and dispatcher.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"medialinkd/internal/log"
)

func fsStat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Candidate is one file the prober yielded: enough to register it in the
// identity registry without re-stat'ing.
type Candidate struct {
	Path     string
	DeviceID uint64
	Inode    uint64
	Size     uint64
}

// ProbeConfig configures one walk of the source root.
type ProbeConfig struct {
	Root           string
	Extensions     map[string]struct{} // lower-cased, leading dot, e.g. ".mkv"
	MinSizeBytes   uint64
	ExcludeDir     string // absolute path to prune from the walk, typically TARGET_DIR
	FollowSymlinks bool
}

// Probe walks Root once, yielding a Candidate for each regular file passing
// the extension, size, and exclusion filters. Unreadable entries are logged
// and skipped; the walk proceeds. The context is checked between entries so
// a cancellation signal stops the walk promptly.
func Probe(ctx context.Context, cfg ProbeConfig) ([]Candidate, error) {
	logger := log.WithComponent("scanner")
	var visited map[[2]uint64]struct{}
	if cfg.FollowSymlinks {
		visited = make(map[[2]uint64]struct{})
	}

	var candidates []Candidate

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable entry")
			return nil
		}

		if d.IsDir() {
			if cfg.ExcludeDir != "" && samePath(path, cfg.ExcludeDir) {
				return filepath.SkipDir
			}
			if cfg.FollowSymlinks {
				info, statErr := d.Info()
				if statErr == nil {
					if dev, inode, ok := deviceInode(info); ok {
						key := [2]uint64{dev, inode}
						if _, seen := visited[key]; seen {
							return filepath.SkipDir
						}
						visited[key] = struct{}{}
					}
				}
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping unstatable entry")
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if !cfg.FollowSymlinks {
				return nil
			}
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("skipping broken symlink")
				return nil
			}
			info, err = fsStat(resolved)
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("skipping unstatable symlink target")
				return nil
			}
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		if len(cfg.Extensions) > 0 {
			ext := strings.ToLower(filepath.Ext(path))
			if _, ok := cfg.Extensions[ext]; !ok {
				return nil
			}
		}

		size := uint64(info.Size())
		if size < cfg.MinSizeBytes {
			return nil
		}

		dev, inode, ok := deviceInode(info)
		if !ok {
			logger.Warn().Str("path", path).Msg("skipping file without filesystem identity")
			return nil
		}

		candidates = append(candidates, Candidate{Path: path, DeviceID: dev, Inode: inode, Size: size})
		return nil
	}

	if err := filepath.WalkDir(cfg.Root, walkFn); err != nil && err != context.Canceled {
		return candidates, err
	}
	return candidates, ctx.Err()
}

func samePath(a, b string) bool {
	ca, err1 := filepath.Abs(a)
	cb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return a == b
	}
	return filepath.Clean(ca) == filepath.Clean(cb)
}

func deviceInode(info fs.FileInfo) (device, inode uint64, ok bool) {
	stat, isStat := info.Sys().(*syscall.Stat_t)
	if !isStat {
		return 0, 0, false
	}
	return uint64(stat.Dev), uint64(stat.Ino), true
}
