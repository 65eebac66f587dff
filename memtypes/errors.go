// Package memtypes holds the data model and error vocabulary shared by every
// store, the retriever, the ranking pipeline, the write-policy engine, the
// compaction controller, the tree index, and the Manager. None of these
// types own a database handle; they are the plain values that cross package
// boundaries.
package memtypes

import (
	"errors"
	"fmt"
)

// Kind classifies a memcore error so callers can branch on it with
// errors.Is without parsing message text.
type Kind int

const (
	// KindUnknown is the zero value; never returned deliberately.
	KindUnknown Kind = iota
	// KindNotInitialised names a use-before-open failure; no function in
	// this module returns it.
	KindNotInitialised
	// KindDatabase wraps an underlying storage IO/constraint failure.
	KindDatabase
	// KindInvalid means the input shape violates an invariant.
	KindInvalid
	// KindConflict means a task version mismatch or a duplicate tree path.
	KindConflict
	// KindNotFound means the referenced id is absent.
	KindNotFound
	// KindProfileKeyNotAllowed means the key is outside the profile whitelist.
	KindProfileKeyNotAllowed
	// KindSemanticSearch means the FTS/vector backend failed to execute a query.
	KindSemanticSearch
	// KindVectorDisabled means a vector operation was requested with no vector backend.
	KindVectorDisabled
	// KindAlreadyInProgress means a compaction is already running.
	KindAlreadyInProgress
	// KindCancelled means the operation was aborted via its context.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindNotInitialised:
		return "not_initialised"
	case KindDatabase:
		return "database"
	case KindInvalid:
		return "invalid"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindProfileKeyNotAllowed:
		return "profile_key_not_allowed"
	case KindSemanticSearch:
		return "semantic_search"
	case KindVectorDisabled:
		return "vector_disabled"
	case KindAlreadyInProgress:
		return "already_in_progress"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is the carrier type every exported memcore function returns on
// failure. Op names the failing operation (e.g. "eventstore.Add"); Path and
// RootID are populated for KindConflict tree-path collisions.
type Error struct {
	Kind   Kind
	Op     string
	Path   string
	RootID string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s root=%s)", e.Path, e.RootID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is a *Error with the same Kind, so that
// errors.Is(err, memtypes.NewKind(memtypes.KindNotFound)) style sentinels
// work without matching Op/Err.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// NewKind returns a bare sentinel of the given Kind, suitable for use with
// errors.Is(err, memtypes.NewKind(memtypes.KindNotFound)).
func NewKind(k Kind) error {
	return &Error{Kind: k}
}

// Newf builds an *Error with a formatted wrapped cause.
func Newf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap annotates cause with a Kind and operation name.
func Wrap(kind Kind, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: cause}
}

// ConflictPath builds a KindConflict error for a duplicate tree path.
func ConflictPath(op, path, rootID string) error {
	return &Error{Kind: KindConflict, Op: op, Path: path, RootID: rootID}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
