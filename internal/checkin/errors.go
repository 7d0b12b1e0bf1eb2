package checkin

import (
	"errors"
	"fmt"

	"github.com/dmolina/fichabot/internal/sesame"
)

// FailureKind classifies why an attempt did not confirm a check-in.
type FailureKind string

const (
	// FailureAuth: the remote login was rejected.
	FailureAuth FailureKind = "auth"
	// FailureRemote: login succeeded but the check-in call was rejected.
	FailureRemote FailureKind = "remote"
	// FailureTransport: a network-level failure on either call.
	FailureTransport FailureKind = "transport"
)

// AttemptError wraps a failed remote attempt. The day's state is left
// untouched on any AttemptError, so a later retry is always permitted.
type AttemptError struct {
	Kind FailureKind
	Err  error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("check-in attempt failed (%s): %v", e.Kind, e.Err)
}

func (e *AttemptError) Unwrap() error { return e.Err }

func classify(err error) *AttemptError {
	var authErr *sesame.AuthError
	if errors.As(err, &authErr) {
		return &AttemptError{Kind: FailureAuth, Err: err}
	}
	var apiErr *sesame.APIError
	if errors.As(err, &apiErr) {
		return &AttemptError{Kind: FailureRemote, Err: err}
	}
	return &AttemptError{Kind: FailureTransport, Err: err}
}
