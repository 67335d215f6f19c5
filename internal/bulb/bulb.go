// Package bulb drives the Yeelight bulb widget.
package bulb

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/rice/internal/status"
	"github.com/nerrad567/rice/internal/yeelight"
)

// Widget classes.
const (
	ClassOn   = "bulb-on"
	ClassBgOn = "bulb-bg-on"
	ClassOff  = "bulb-off"
)

const (
	glyphOn   = "\uea61"
	glyphBgOn = "\U000F1A50"
	glyphOff  = "\U000F0E4F"
)

const (
	toggleTimeout = 5 * time.Second
	actionEffect  = yeelight.Sudden
	actionFade    = time.Second
	colorSat      = 100
)

// Device is the part of *yeelight.Client the controller needs.
type Device interface {
	GetProps(ctx context.Context, addr string, props ...string) ([]string, error)
	Toggle(ctx context.Context, addr string) error
	BgToggle(ctx context.Context, addr string) error
	SetBright(ctx context.Context, addr string, bright int, effect yeelight.Effect, d time.Duration) error
	BgSetBright(ctx context.Context, addr string, bright int, effect yeelight.Effect, d time.Duration) error
	BgSetHSV(ctx context.Context, addr string, hue, sat int, effect yeelight.Effect, d time.Duration) error
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

// Actions are the one-shot changes a single invocation can request.
// Nil pointers are left alone.
type Actions struct {
	Toggle       bool
	ToggleBg     bool
	Brightness   *int
	Color        *int // background hue, 0-359
	BgBrightness *int
}

// Empty reports whether no action is requested.
func (a Actions) Empty() bool {
	return !a.Toggle && !a.ToggleBg && a.Brightness == nil && a.Color == nil && a.BgBrightness == nil
}

// Controller talks to one bulb.
type Controller struct {
	dev    Device
	addr   string
	logger Logger
}

// NewController binds dev to the bulb at addr (host:port).
func NewController(dev Device, addr string) *Controller {
	return &Controller{dev: dev, addr: addr, logger: noopLogger{}}
}

// SetLogger sets the logger used by Status to report swallowed errors.
func (c *Controller) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

// Status reads both lights and maps them to a widget response. The main
// light wins over the background one. Errors show as off.
func (c *Controller) Status(ctx context.Context) status.Response {
	props, err := c.dev.GetProps(ctx, c.addr, yeelight.PropPower, yeelight.PropBgPower)
	if err != nil {
		c.logger.Debug("reading bulb state", "addr", c.addr, "error", err)
		return StatusFor(false, false)
	}
	return StatusFor(props[0] == "on", props[1] == "on")
}

// StatusFor returns the response for known light states.
func StatusFor(main, bg bool) status.Response {
	switch {
	case main:
		return status.Response{Class: ClassOn, Text: glyphOn}
	case bg:
		return status.Response{Class: ClassBgOn, Text: glyphBgOn}
	default:
		return status.Response{Class: ClassOff, Text: glyphOff}
	}
}

// Apply runs the requested actions in a fixed order: toggle, background
// toggle, brightness, colour, background brightness. It stops at the
// first failure.
func (c *Controller) Apply(ctx context.Context, a Actions) error {
	if a.Toggle {
		if err := c.withTimeout(ctx, c.dev.Toggle); err != nil {
			return fmt.Errorf("toggling: %w", err)
		}
	}
	if a.ToggleBg {
		if err := c.withTimeout(ctx, c.dev.BgToggle); err != nil {
			return fmt.Errorf("toggling background: %w", err)
		}
	}
	if a.Brightness != nil {
		if err := c.dev.SetBright(ctx, c.addr, *a.Brightness, actionEffect, actionFade); err != nil {
			return fmt.Errorf("setting brightness: %w", err)
		}
	}
	if a.Color != nil {
		if err := c.dev.BgSetHSV(ctx, c.addr, *a.Color, colorSat, actionEffect, actionFade); err != nil {
			return fmt.Errorf("setting colour: %w", err)
		}
	}
	if a.BgBrightness != nil {
		if err := c.dev.BgSetBright(ctx, c.addr, *a.BgBrightness, actionEffect, actionFade); err != nil {
			return fmt.Errorf("setting background brightness: %w", err)
		}
	}
	return nil
}

func (c *Controller) withTimeout(ctx context.Context, fn func(context.Context, string) error) error {
	ctx, cancel := context.WithTimeout(ctx, toggleTimeout)
	defer cancel()
	return fn(ctx, c.addr)
}
