// Package ac drives the AC power widget on top of the Gree client.
package ac

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/rice/internal/gree"
	"github.com/nerrad567/rice/internal/status"
)

// ErrUnexpectedValue is returned when the unit reports a power value that
// is not an integer.
var ErrUnexpectedValue = errors.New("ac: unexpected power value")

// Widget classes.
const (
	ClassOn  = "ac-on"
	ClassOff = "ac-off"
)

// Device is the part of *gree.Client the controller needs.
type Device interface {
	Get(ctx context.Context, ep gree.Endpoint, vars []gree.Variable) ([]gree.Value, error)
	Set(ctx context.Context, ep gree.Endpoint, assignments []gree.Assignment) (gree.Ack, error)
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Controller reads and flips the power state of one unit.
type Controller struct {
	dev    Device
	ep     gree.Endpoint
	logger Logger
}

// NewController binds dev to ep.
func NewController(dev Device, ep gree.Endpoint) *Controller {
	return &Controller{dev: dev, ep: ep, logger: noopLogger{}}
}

// SetLogger sets the logger used by Status to report swallowed errors.
func (c *Controller) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

// PowerOn reports whether the unit is running.
func (c *Controller) PowerOn(ctx context.Context) (bool, error) {
	pow, err := c.readPower(ctx)
	if err != nil {
		return false, err
	}
	return pow == 1, nil
}

// Toggle reads the power state and writes its complement. It returns the
// state that was written.
func (c *Controller) Toggle(ctx context.Context) (bool, error) {
	pow, err := c.readPower(ctx)
	if err != nil {
		return false, err
	}

	next := int64(1)
	if pow == 1 {
		next = 0
	}

	_, err = c.dev.Set(ctx, c.ep, []gree.Assignment{
		{Variable: gree.Pow, Value: gree.IntValue(next)},
	})
	if err != nil {
		return false, fmt.Errorf("setting power: %w", err)
	}
	return next == 1, nil
}

// Status maps the power state to a widget response. Errors show as off.
func (c *Controller) Status(ctx context.Context) status.Response {
	on, err := c.PowerOn(ctx)
	if err != nil {
		c.logger.Debug("reading ac power", "host", c.ep.Host, "error", err)
		return StatusFor(false)
	}
	return StatusFor(on)
}

// StatusFor returns the response for a known power state.
func StatusFor(on bool) status.Response {
	if on {
		return status.Response{Class: ClassOn, Text: ""}
	}
	return status.Response{Class: ClassOff, Text: ""}
}

func (c *Controller) readPower(ctx context.Context) (int64, error) {
	values, err := c.dev.Get(ctx, c.ep, []gree.Variable{gree.Pow})
	if err != nil {
		return 0, fmt.Errorf("reading power: %w", err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("%w: %v", ErrUnexpectedValue, values)
	}
	// Some firmware reports Pow as the string "1".
	pow, ok := values[0].AsInt()
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnexpectedValue, values)
	}
	return pow, nil
}
