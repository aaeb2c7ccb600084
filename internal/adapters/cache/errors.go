package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	// ErrBlobNotFound marks a hash with no stored measurement blob.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrBadSchema marks an index document whose version cannot be migrated.
	ErrBadSchema = errors.New("unsupported index schema version")
)
