// Package registry is the identity registry and status manager: the
// persistent mapping from filesystem identity to MediaFile rows, and the
// guarded state transitions that move a row through its lifecycle.
package registry

import (
	"context"
	"errors"

	"medialinkd/internal/media"
)

// ErrNotFound is returned when a MediaFile id has no corresponding row.
var ErrNotFound = errors.New("registry: media file not found")

// Store is the identity registry and status manager combined, since both
// operate on the same MediaFile row and the registry's only writer is the
// status manager's transitions.
type Store interface {
	// RegisterIfNew inserts a new PENDING row keyed by (deviceID, inode) if
	// one does not already exist, returning the existing id and wasNew=false
	// on conflict.
	RegisterIfNew(ctx context.Context, originalFilepath, originalFilename string, deviceID, inode, fileSize uint64) (id int64, wasNew bool, err error)

	// Get returns the current row for id.
	Get(ctx context.Context, id int64) (*media.MediaFile, error)

	// Claim attempts the guarded PENDING -> PROCESSING transition. ok=false
	// means the guard failed (stale): another worker or a retry already
	// acted on this id, and the caller must discard it.
	Claim(ctx context.Context, id int64) (mf *media.MediaFile, ok bool, err error)

	// RecordGuess persists the analyser's output against a PROCESSING row
	// without changing its status.
	RecordGuess(ctx context.Context, id int64, guess *media.Guess) error

	// TransitionCompleted moves a PROCESSING row to COMPLETED, recording the
	// destination path and the catalogue match.
	TransitionCompleted(ctx context.Context, id int64, newFilepath string, match *media.Match) error

	// TransitionNoMatch moves a PROCESSING row to NO_MATCH.
	TransitionNoMatch(ctx context.Context, id int64, message string) error

	// TransitionConflict moves a PROCESSING row to CONFLICT.
	TransitionConflict(ctx context.Context, id int64, newFilepath, message string) error

	// TransitionFailed moves a PROCESSING row to FAILED.
	TransitionFailed(ctx context.Context, id int64, message string) error

	// Retry moves a terminal non-success row back to PENDING. ok=false means
	// the row was not in a retryable state (guard failed, stale).
	Retry(ctx context.Context, id int64) (ok bool, err error)

	// Close releases underlying resources.
	Close() error
}
