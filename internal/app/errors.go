package service

import "errors"

// Sentinel kinds for run orchestration.
var (
	// ErrLocked marks a cache directory already being scanned by another
	// process.
	ErrLocked = errors.New("scan already running for this cache directory")
	// ErrUnknownTarget marks a target family name not present in the
	// library.
	ErrUnknownTarget = errors.New("unknown target family")
)
