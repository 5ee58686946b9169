package models

import "errors"

// Common errors
var (
	ErrValidation      = errors.New("invalid submission")
	ErrNotFound        = errors.New("submission not found")
	ErrAlreadyResolved = errors.New("submission already resolved")
	ErrDeliveryFailure = errors.New("event could not be delivered")
	ErrUnknownKind     = errors.New("unknown message kind")
	ErrForbidden       = errors.New("command not allowed for role")
)
