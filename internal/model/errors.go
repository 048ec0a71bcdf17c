package model

import "errors"

// ErrPersistence marks failures of the backing store. Repositories wrap
// driver errors with it so callers can tell them apart from not-found.
var ErrPersistence = errors.New("persistence error")
