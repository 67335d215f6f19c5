package gree

import (
	"errors"
	"fmt"
)

// Domain errors for the gree package. Check with errors.Is.
var (
	// ErrTransport is returned when the datagram cannot be sent, no reply
	// arrives before the deadline, or the context ends first.
	ErrTransport = errors.New("gree: transport failure")

	// ErrProtocol is returned when a reply cannot be decrypted or does not
	// parse as the expected payload.
	ErrProtocol = errors.New("gree: protocol violation")

	// ErrShape is returned when the reply carries a different number of
	// values than were requested. Retrying will not help.
	ErrShape = errors.New("gree: response shape mismatch")

	// ErrInvalidRequest is returned before anything is sent when the
	// variable or assignment list is empty or names an unknown variable.
	ErrInvalidRequest = errors.New("gree: invalid request")

	// ErrInvalidEndpoint is returned before anything is sent when the
	// endpoint is missing its host, identifier or key.
	ErrInvalidEndpoint = errors.New("gree: invalid endpoint")
)

// ShapeError describes a count mismatch between request and reply.
// It matches ErrShape under errors.Is.
type ShapeError struct {
	Field     string // reply field that disagreed ("dat", "cols", "opt", "val")
	Requested int
	Received  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("gree: response shape mismatch: %s has %d values, requested %d",
		e.Field, e.Received, e.Requested)
}

// Is reports whether target is ErrShape.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}

// IsRetryable reports whether a later attempt could succeed.
//
// Transport and protocol failures are transient from a polling loop's
// point of view. Shape errors and precondition failures are not.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrProtocol)
}
