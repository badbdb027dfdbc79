package store

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the store error taxonomy. Callers branch on these
// with errors.Is; APIError carries the operation context alongside.
var (
	// ErrNotFound: the referenced file or ref does not exist. Recoverable at
	// call sites that can treat missing as empty (index files, new items).
	ErrNotFound = errors.New("store: not found")

	// ErrUnauthorized: credential invalid or expired. Not retryable without
	// new credentials.
	ErrUnauthorized = errors.New("store: unauthorized")

	// ErrRefConflict: another writer advanced the branch between our read of
	// the ref and our conditional update.
	ErrRefConflict = errors.New("store: ref update conflict")

	// ErrStaleBaseTree: the base tree no longer matches the branch head.
	ErrStaleBaseTree = errors.New("store: stale base tree")

	// ErrPayloadTooLarge: a single blob exceeds the backend's limits.
	ErrPayloadTooLarge = errors.New("store: payload too large")

	// ErrTransient: network, rate-limit or server hiccup. Safe to retry
	// with backoff.
	ErrTransient = errors.New("store: transient error")

	// ErrValidation: the caller supplied an invalid batch. Rejected before
	// any network call.
	ErrValidation = errors.New("store: validation error")
)

// APIError wraps a taxonomy sentinel with the failed operation and target so
// the UI can render a useful message. Unwrap exposes the sentinel for
// errors.Is.
type APIError struct {
	Op     string // operation name, e.g. "createTree"
	Path   string // target path or ref, when applicable
	Status int    // HTTP status from the backend, 0 if not an HTTP failure
	Err    error
}

func (e *APIError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("store: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsConflict reports whether err is an optimistic-concurrency violation,
// either flavor. The caller must re-fetch state and resubmit a fresh batch;
// no automatic rebase is performed anywhere.
func IsConflict(err error) bool {
	return errors.Is(err, ErrRefConflict) || errors.Is(err, ErrStaleBaseTree)
}
