package purchase

import "errors"

var (
	// ErrNotPurchased gates downloads of priced resources
	ErrNotPurchased = errors.New("resource not purchased")

	// ErrAlreadyExists marks a duplicate purchase insert. Callers treat it as
	// the idempotent-success path, never as a failure surfaced to the user.
	ErrAlreadyExists = errors.New("purchase already exists")

	ErrInternal = errors.New("internal error")
)
