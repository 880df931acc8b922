package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"already exists", ErrAlreadyExists},
		{"not found", ErrNotFound},
		{"invalid credentials", ErrInvalidCredentials},
		{"forbidden", ErrForbidden},
		{"invalid order", ErrInvalidOrder},
		{"unknown status", ErrUnknownStatus},
		{"invalid transition", ErrInvalidTransition},
		{"status conflict", ErrStatusConflict},
		{"writer unavailable", ErrWriterUnavailable},
		{"reset token", ErrResetTokenInvalid},
		{"not approved", ErrPaymentNotApproved},
		{"capture incomplete", ErrCaptureIncomplete},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("op: %w", tc.err)
			if !stdErrors.Is(wrapped, tc.err) {
				t.Fatalf("expected wrapped error to match %v", tc.err)
			}
		})
	}
}
