package domain

import "errors"

// Domain errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrAccessDenied     = errors.New("access denied")
	ErrInternalError    = errors.New("internal error")
	ErrUserNotFound     = errors.New("user not found")
	ErrBuildingNotFound = errors.New("building not found")
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name exceeds maximum length")

	// ErrSerializationFailure is returned by the persistence layer when a
	// space-scoped transaction lost a serialization race and may be retried.
	ErrSerializationFailure = errors.New("transaction could not be serialized")
)

// Validation constants
const (
	MaxSpaceNameLength   = 255
	MaxDescriptionLength = 2000
	MaxReasonLength      = 500
)
