package store

import "errors"

// ErrNotFound is returned by mutations that matched no row, so deleting or
// updating a missing record fails instead of silently succeeding.
var ErrNotFound = errors.New("not found")
