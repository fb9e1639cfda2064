// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrCollision indicates a mapping write was refused because the target path
// is already claimed by a content page (strict collision policy).
var ErrCollision = errors.New("path collides with existing content page")

// ErrValidation indicates the request was rejected before any write happened.
var ErrValidation = errors.New("validation failed")
