package core

import "errors"

// Error taxonomy. Every turn-level failure maps onto one of these so the
// agent can translate it into a textual reply instead of surfacing an
// internal error. All are recoverable at the turn boundary.
var (
	// ErrNotFound: a task or masjid reference did not resolve at the store.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable: transport/persistence failure. No state was
	// mutated; the whole turn is safe to retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrUnresolvedAnchor: a recurrence rule is bound to a prayer time
	// that is not available (no masjid, or masjid has no such prayer).
	ErrUnresolvedAnchor = errors.New("unresolved recurrence anchor")

	// ErrAmbiguousReference: multiple tasks matched a fuzzy title
	// reference; the resolver must clarify, never pick one.
	ErrAmbiguousReference = errors.New("ambiguous task reference")

	// ErrInvalidFilter: list filter outside {all, pending, completed}.
	ErrInvalidFilter = errors.New("invalid list filter")

	// ErrAlreadyProcessed: a create carrying an idempotency token that
	// was already committed. The original result stands.
	ErrAlreadyProcessed = errors.New("already processed")
)
