package yeelight

import (
	"errors"
	"fmt"
)

// Domain errors for the yeelight package.
var (
	// ErrTransport is returned when the bulb cannot be reached or does not
	// answer before the deadline.
	ErrTransport = errors.New("yeelight: transport failure")

	// ErrProtocol is returned when a reply line is not valid JSON-RPC.
	ErrProtocol = errors.New("yeelight: protocol violation")

	// ErrShape is returned when get_prop answers with a different number
	// of values than were requested.
	ErrShape = errors.New("yeelight: response shape mismatch")

	// ErrDevice is returned when the bulb replies with an error object.
	ErrDevice = errors.New("yeelight: device error")

	// ErrInvalidRequest is returned before anything is sent when an
	// argument is out of range.
	ErrInvalidRequest = errors.New("yeelight: invalid request")
)

// DeviceError carries the error object of a reply. It matches ErrDevice.
type DeviceError struct {
	Code    int
	Message string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("yeelight: device error %d: %s", e.Code, e.Message)
}

// Is reports whether target is ErrDevice.
func (e *DeviceError) Is(target error) bool {
	return target == ErrDevice
}

// ShapeError describes a get_prop count mismatch. It matches ErrShape.
type ShapeError struct {
	Requested int
	Received  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("yeelight: got %d properties, requested %d", e.Received, e.Requested)
}

// Is reports whether target is ErrShape.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}
