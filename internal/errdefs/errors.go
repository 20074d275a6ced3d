package errdefs

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission was denied")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrInFlight         = errors.New("request already in progress")
	ErrAlreadyApproved  = errors.New("report already approved")
	ErrClosed           = errors.New("workspace closed")
	ErrUnavailable      = errors.New("feature unavailable")
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is a local failure detected before any backend call.
type ValidationError struct {
	Field    string
	Message  string
	Severity Severity
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Severity: SeverityError}
}

func NewValidationWarning(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Severity: SeverityWarning}
}

// serverMessenger is implemented by transport errors that carry a message
// supplied by the backend.
type serverMessenger interface {
	ServerMessage() string
}

// RemoteError is a failed backend call, already converted to the text shown
// to the manager.
type RemoteError struct {
	Action  string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewRemoteError prefers the backend supplied message and falls back to a
// generic one naming the failed action.
func NewRemoteError(action string, err error) *RemoteError {
	msg := fmt.Sprintf("Failed to %s", action)
	var sm serverMessenger
	if errors.As(err, &sm) {
		if m := sm.ServerMessage(); m != "" {
			msg = m
		}
	}
	return &RemoteError{Action: action, Message: msg, Err: err}
}
