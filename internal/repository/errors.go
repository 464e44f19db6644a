// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without parsing driver
// error text. For example, ErrForbidden indicates that the current user is
// not authorized to perform an operation on a resource owned by someone
// else, while ErrConflict signals that an operation cannot proceed because
// of existing state (e.g. applying for a stall that is not vacant).
package repository

import "errors"

// ErrUsernameExists is returned when creating a credential whose
// (role, username) pair is already taken.  Handlers translate this into an
// HTTP 409 response.
var ErrUsernameExists = errors.New("username already exists")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an HTTP 403
// response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as approving an application for a stall that is
// no longer vacant. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrNotFound is the generic missing-row sentinel for domain repositories
// that do not expose raw sql.ErrNoRows to their callers.
var ErrNotFound = errors.New("not found")
