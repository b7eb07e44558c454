// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic
// locking) or a precondition violation such as a duplicate metric attach
// or a decision on an already-settled submission.
var ErrConflict = errors.New("conflict: resource state rejected the request")

// ErrValidation indicates a request failed domain validation.
var ErrValidation = errors.New("validation failed")
