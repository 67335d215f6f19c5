package yeelight

import (
	"context"
	"fmt"
	"time"
)

// Property names accepted by get_prop.
const (
	PropPower   = "power"
	PropBgPower = "bg_power"
	PropBright  = "bright"
	PropBgHue   = "bg_hue"
)

// GetProps reads props and returns their values in the same order.
// A bulb that answers with a different count yields a *ShapeError.
func (c *Client) GetProps(ctx context.Context, addr string, props ...string) ([]string, error) {
	if len(props) == 0 {
		return nil, fmt.Errorf("%w: no properties", ErrInvalidRequest)
	}
	params := make([]any, len(props))
	for i, p := range props {
		params[i] = p
	}

	values, err := c.Call(ctx, addr, "get_prop", params...)
	if err != nil {
		return nil, err
	}
	if len(values) != len(props) {
		return nil, &ShapeError{Requested: len(props), Received: len(values)}
	}
	return values, nil
}

// Toggle flips the main light.
func (c *Client) Toggle(ctx context.Context, addr string) error {
	return c.expectOK(ctx, addr, "toggle")
}

// BgToggle flips the background light.
func (c *Client) BgToggle(ctx context.Context, addr string) error {
	return c.expectOK(ctx, addr, "bg_toggle")
}

// SetBright sets main light brightness (1-100).
func (c *Client) SetBright(ctx context.Context, addr string, bright int, effect Effect, d time.Duration) error {
	if bright < 1 || bright > 100 {
		return fmt.Errorf("%w: brightness %d outside 1-100", ErrInvalidRequest, bright)
	}
	ms, err := transition(effect, d)
	if err != nil {
		return err
	}
	return c.expectOK(ctx, addr, "set_bright", bright, string(effect), ms)
}

// BgSetBright sets background light brightness (1-100).
func (c *Client) BgSetBright(ctx context.Context, addr string, bright int, effect Effect, d time.Duration) error {
	if bright < 1 || bright > 100 {
		return fmt.Errorf("%w: brightness %d outside 1-100", ErrInvalidRequest, bright)
	}
	ms, err := transition(effect, d)
	if err != nil {
		return err
	}
	return c.expectOK(ctx, addr, "bg_set_bright", bright, string(effect), ms)
}

// BgSetHSV sets the background light colour. Hue is 0-359, sat 0-100.
func (c *Client) BgSetHSV(ctx context.Context, addr string, hue, sat int, effect Effect, d time.Duration) error {
	if hue < 0 || hue > 359 {
		return fmt.Errorf("%w: hue %d outside 0-359", ErrInvalidRequest, hue)
	}
	if sat < 0 || sat > 100 {
		return fmt.Errorf("%w: saturation %d outside 0-100", ErrInvalidRequest, sat)
	}
	ms, err := transition(effect, d)
	if err != nil {
		return err
	}
	return c.expectOK(ctx, addr, "bg_set_hsv", hue, sat, string(effect), ms)
}

// transition validates an effect and returns its duration in milliseconds.
func transition(effect Effect, d time.Duration) (int64, error) {
	switch effect {
	case Sudden:
	case Smooth:
		if d < minSmoothDuration {
			d = minSmoothDuration
		}
	default:
		return 0, fmt.Errorf("%w: unknown effect %q", ErrInvalidRequest, effect)
	}
	return d.Milliseconds(), nil
}

func (c *Client) expectOK(ctx context.Context, addr, method string, params ...any) error {
	result, err := c.Call(ctx, addr, method, params...)
	if err != nil {
		return err
	}
	if len(result) != 1 || result[0] != "ok" {
		return fmt.Errorf("%w: %s answered %v", ErrProtocol, method, result)
	}
	return nil
}
