package ingest

import "errors"

// Precondition failures. They are reported before any backend call.
var (
	ErrNoFiles           = errors.New("no files selected")
	ErrMissingThickness  = errors.New("thickness is required")
	ErrInvalidThickness  = errors.New("thickness must be a number")
	ErrMissingCollection = errors.New("collection ID is required")
	ErrBlankName         = errors.New("every tile needs a name")
	ErrNothingToCommit   = errors.New("no tiles selected")
)

// ErrNoTilesExtracted reports a successful upload that produced nothing.
var ErrNoTilesExtracted = errors.New("no tiles were extracted")
