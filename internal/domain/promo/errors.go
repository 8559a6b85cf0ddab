package promo

import "errors"

var (
	// ErrInvalidCode covers unknown and deactivated codes
	ErrInvalidCode = errors.New("invalid promo code")

	// ErrExpiredCode is returned when the code is past expires_at
	ErrExpiredCode = errors.New("promo code expired")

	// ErrUsesExhausted is returned when current_uses reached max_uses
	ErrUsesExhausted = errors.New("promo code uses exhausted")

	// ErrAlreadyRedeemed is returned on a second redemption by the same user
	// of a single-use-per-user code
	ErrAlreadyRedeemed = errors.New("promo code already redeemed")

	// ErrCodeExists is returned when creating a duplicate code
	ErrCodeExists = errors.New("promo code already exists")

	ErrNotFound = errors.New("promo code not found")

	ErrInternal = errors.New("internal error")
)
