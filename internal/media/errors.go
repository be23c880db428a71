package media

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the error taxonomy the pipeline raises and persists, per the
// error handling design: each external-call failure is caught at its client
// boundary and translated into one of these tags before it reaches the
// worker or the status manager.
type ErrorKind string

const (
	AnalyserTransient ErrorKind = "AnalyserTransient"
	AnalyserPermanent ErrorKind = "AnalyserPermanent"
	CatalogueTransient ErrorKind = "CatalogueTransient"
	CataloguePermanent ErrorKind = "CataloguePermanent"
	NoMatch            ErrorKind = "NoMatch"
	PathInsufficient   ErrorKind = "PathInsufficient"
	LinkConflict       ErrorKind = "LinkConflict"
	LinkCrossDevice    ErrorKind = "LinkCrossDevice"
	LinkMissingSource  ErrorKind = "LinkMissingSource"
	LinkUnknown        ErrorKind = "LinkUnknown"
	Cancelled          ErrorKind = "Cancelled"
)

// terminal reports the status a worker transitions to when an error of this
// kind reaches it. Every kind in the taxonomy lands in FAILED except NoMatch
// and LinkConflict, which have their own dedicated terminal states.
func (k ErrorKind) terminal() Status {
	switch k {
	case NoMatch:
		return StatusNoMatch
	case LinkConflict:
		return StatusConflict
	default:
		return StatusFailed
	}
}

// Retryable reports whether a user-initiated retry is meaningful for this
// kind. Only LinkCrossDevice and LinkMissingSource require a configuration
// or filesystem fix that a bare retry cannot supply.
func (k ErrorKind) Retryable() bool {
	switch k {
	case LinkCrossDevice, LinkMissingSource:
		return false
	default:
		return true
	}
}

// kindError wraps an ErrorKind with an optional underlying cause. It is the
// single error type the pipeline constructs at client boundaries.
type kindError struct {
	kind   ErrorKind
	detail string
	cause  error
}

// NewError builds a taxonomy-tagged error with a human-readable detail.
func NewError(kind ErrorKind, detail string) error {
	return &kindError{kind: kind, detail: detail}
}

// Wrap tags an existing error with a taxonomy kind, preserving it as the
// cause for errors.Is/As and logging purposes.
func Wrap(kind ErrorKind, cause error) error {
	if cause == nil {
		return nil
	}
	return &kindError{kind: kind, detail: cause.Error(), cause: cause}
}

func (e *kindError) Error() string {
	if e.detail == "" {
		return string(e.kind)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.detail)
}

func (e *kindError) Unwrap() error { return e.cause }

func (e *kindError) Is(target error) bool {
	t, ok := target.(*kindError)
	if !ok {
		return false
	}
	return e.kind == t.kind
}

// Kind extracts the taxonomy tag from err, defaulting to Cancelled if ctx was
// already cancelled and LinkUnknown otherwise — every external-call error
// reaching the worker must already be wrapped by its client, so this is a
// last-resort classification for errors that escaped that boundary.
func Kind(ctx context.Context, err error) ErrorKind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Cancelled
	}
	return LinkUnknown
}

// Terminal returns the status a worker should transition a row to for err,
// and the error_message to persist alongside it.
func Terminal(ctx context.Context, err error) (Status, string) {
	kind := Kind(ctx, err)
	return kind.terminal(), err.Error()
}
