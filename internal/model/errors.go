package model

import "errors"

// ErrNotFound is shared by every store so callers can match it with errors.Is
// no matter which backend answered.
var ErrNotFound = errors.New("not found")
