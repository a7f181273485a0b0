package service

import "errors"

var (
	// ErrInvalidTransition means an order transition was attempted from a
	// non-matching status.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrInsufficientQuantity means a requested quantity exceeds current
	// availability at validation time.
	ErrInsufficientQuantity = errors.New("insufficient quantity available")

	// ErrEmptyCart means checkout was attempted with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInvalidInput means a draft-flow input failed validation for the
	// current step.
	ErrInvalidInput = errors.New("invalid input for current step")
)
