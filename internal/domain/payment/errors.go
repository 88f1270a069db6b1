package payment

import "errors"

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrInvalidType      = errors.New("invalid payment type")
	ErrInvalidStatus    = errors.New("invalid payment status")
	ErrInvalidAmount    = errors.New("amount must not be negative")
	ErrAlreadyRequested = errors.New("payment already pending or paid")
)
