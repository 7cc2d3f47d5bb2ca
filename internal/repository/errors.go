// Package repository provides data access over database/sql.  Sentinel
// errors defined here let handlers distinguish failure scenarios without
// string matching; ErrAlreadyMarked in particular identifies the
// duplicate-key rejection that makes attendance marking idempotent.
package repository

import "errors"

// ErrUsernameExists is returned when signup collides with an existing
// username.
var ErrUsernameExists = errors.New("username already exists")

// ErrSessionNotFound is returned when no class session matches the given
// token or id.
var ErrSessionNotFound = errors.New("session not found")

// ErrAlreadyMarked is returned when an attendance insert hits the
// (student_id, session_id) unique key.  It is an informational outcome, not
// a hard failure: the student is present either way.
var ErrAlreadyMarked = errors.New("attendance already marked")
