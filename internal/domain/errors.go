package domain

import "errors"

var (
	// ErrNotFound is returned by single-entity lookups only; absence in
	// batch/list operations is an empty result, never an error.
	ErrNotFound = errors.New("not found")
	// ErrInvalidMapping marks malformed bridge input. Never retried.
	ErrInvalidMapping = errors.New("invalid mapping")
	// ErrUnavailable marks a store connectivity failure. Retries belong to
	// the transport layer, not to this engine.
	ErrUnavailable = errors.New("store unavailable")
)
