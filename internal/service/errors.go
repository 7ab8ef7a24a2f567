package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	ErrWrongPassword       = errors.New("wrong password")

	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
)

// Client-side sentinel errors.
var (
	// ErrServerUnreachable is returned when no endpoint permitted by the
	// current connection mode is reachable.
	ErrServerUnreachable = errors.New("server unreachable")

	// ErrNoConflictFound is returned by Resolve when the entity has no
	// unresolved conflict on record.
	ErrNoConflictFound = errors.New("no conflict found")

	// ErrMergedEntityRequired is returned by Resolve when ResolutionMerge is
	// chosen without a merged entity.
	ErrMergedEntityRequired = errors.New("merged entity required")
)
