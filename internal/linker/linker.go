// Package linker creates the hard link from a source file to its generated
// destination path, never overwriting and never following symlinks when
// checking for a pre-existing destination.
package linker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"medialinkd/internal/fsutil"
)

// Outcome is the result of one Link call, in the precedence order the
// checks are performed.
type Outcome int

const (
	Success Outcome = iota
	NoSource
	Conflict
	CrossDevice
	Unknown
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "SUCCESS"
	case NoSource:
		return "NO_SOURCE"
	case Conflict:
		return "CONFLICT"
	case CrossDevice:
		return "CROSS_DEVICE"
	default:
		return "UNKNOWN"
	}
}

// Result carries the outcome plus, for UNKNOWN, the underlying message.
type Result struct {
	Outcome Outcome
	Detail  string
}

// Link creates a hard link from source to destination under targetRoot.
// destination must already be confined to targetRoot (the path generator's
// contract); Link re-validates that confinement defensively since it is the
// only filesystem writer in the pipeline.
func Link(source, destination, targetRoot string) Result {
	if _, err := fsutil.ConfineAbsPath(targetRoot, filepath.Dir(destination)); err != nil {
		// The parent may not exist yet; only reject if it resolves somewhere
		// outside targetRoot, which ConfineAbsPath reports even for missing
		// paths via its parent-walk fallback.
		if !errors.Is(err, os.ErrNotExist) {
			return Result{Outcome: Unknown, Detail: fmt.Sprintf("destination escapes target root: %v", err)}
		}
	}

	srcInfo, err := os.Stat(source)
	if err != nil || !srcInfo.Mode().IsRegular() {
		return Result{Outcome: NoSource, Detail: "source does not exist or is not a regular file"}
	}

	if _, err := os.Lstat(destination); err == nil {
		return Result{Outcome: Conflict, Detail: "destination already exists"}
	} else if !os.IsNotExist(err) {
		return Result{Outcome: Unknown, Detail: err.Error()}
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return Result{Outcome: Unknown, Detail: fmt.Sprintf("create parent directory: %v", err)}
	}

	if err := os.Link(source, destination); err != nil {
		if isCrossDevice(err) {
			return Result{Outcome: CrossDevice, Detail: err.Error()}
		}
		return Result{Outcome: Unknown, Detail: err.Error()}
	}

	return Result{Outcome: Success}
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}
