package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when the influxdb section is off.
	// Widgets treat it like any other connect failure and run without history.
	ErrDisabled = errors.New("influxdb: history disabled")

	// ErrConnectionFailed means the server could not be reached, or
	// answered the ping as unhealthy.
	ErrConnectionFailed = errors.New("influxdb: server unreachable")

	// ErrNotConnected is returned once the client has been closed.
	ErrNotConnected = errors.New("influxdb: history client closed")
)
