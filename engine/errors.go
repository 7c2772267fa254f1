package engine

import "errors"

// Error kinds returned across the API boundary. Callers match with
// errors.Is; the MCP layer translates them into tool errors.
var (
	// ErrNotInitialized marks a call-sequence violation: an operation that
	// needs the picker (or the frecency db) before its init succeeded.
	ErrNotInitialized = errors.New("file picker not initialized")

	// ErrInvalidArgument marks a synchronously rejected argument (negative
	// result count, empty base path).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInit wraps component startup failures: unwritable db path, missing
	// base path, watcher attach failure. The engine stays uninitialized.
	ErrInit = errors.New("init failed")
)
