package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmailAlreadyExists = errors.New("email already registered")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	ErrInternal = errors.New("internal error")
)
