// Package errs contains sentinel errors shared across layers for stable
// error mapping.
package errs

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist. For
	// authentication lookups an inactive user is reported the same way.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated user lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyExists indicates a unique constraint violation
	// (username or email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrRateLimited indicates the client exceeded its request quota.
	ErrRateLimited = errors.New("rate limited")

	// ErrStorageUnavailable indicates the persistence layer failed. It is
	// distinct from ErrNotFound: not-found is a normal outcome, this is not.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
