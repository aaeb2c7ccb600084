package targets

import "errors"

// ErrNoTargets marks an empty or unreadable target library. Fatal for a
// scan: scoring against nothing is meaningless.
var ErrNoTargets = errors.New("no target curves found")
