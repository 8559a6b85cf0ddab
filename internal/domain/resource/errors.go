package resource

import "errors"

var (
	// ErrNotFound covers unknown and unpublished resources
	ErrNotFound = errors.New("resource not found")

	ErrInternal = errors.New("internal error")
)
