package payment

import "errors"

var (
	ErrPackNotFound = errors.New("credit pack not found")

	ErrPaymentNotFound = errors.New("payment not found")

	// ErrAlreadyCompleted marks a duplicate webhook delivery. Credits were
	// granted on the first delivery; the caller acknowledges and stops.
	ErrAlreadyCompleted = errors.New("payment already completed")

	ErrInternal = errors.New("internal error")
)
