package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidEntityID = errors.New("invalid entity id")
	ErrEntityIDTooLong = errors.New("entity id is too long")
	ErrInvalidKind     = errors.New("invalid entity kind")
	ErrEmptyBatch      = errors.New("push batch cannot be empty")
	ErrInvalidSince    = errors.New("since must be a non-negative integer")
)
