package db

import "errors"

var (
	// ErrNotTrusty means the nanopub's URI does not match the hash of
	// its own content. Client error, pure (no side effects).
	ErrNotTrusty = errors.New("nanopub is not trusty")

	// ErrOversized means a configured triple or byte limit was exceeded.
	ErrOversized = errors.New("nanopub exceeds size limits")

	// ErrServerFull means the configured maximum nanopub count was reached.
	ErrServerFull = errors.New("server is full (maximum number of nanopubs reached)")

	// ErrNanopubNotFound signals an unknown artifact code.
	ErrNanopubNotFound = errors.New("nanopub not found")

	// ErrInvalidPage means a package was requested for a page that is not
	// complete (or does not exist).
	ErrInvalidPage = errors.New("not a complete page")

	// ErrInconsistent means a complete page references a nanopub that is
	// absent from the store. This is the documented crash window of the
	// append path surfacing; it must never be silently masked.
	ErrInconsistent = errors.New("journal references a nanopub missing from the store")
)
