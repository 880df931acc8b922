package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrUnknownStatus      = errors.New("unknown order status")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStatusConflict     = errors.New("order status changed concurrently")
	ErrWriterUnavailable  = errors.New("writer unavailable")
	ErrResetTokenInvalid  = errors.New("password reset token invalid or expired")
	ErrPaymentNotApproved = errors.New("payment not approved")
	ErrCaptureIncomplete  = errors.New("payment capture not completed")
)
