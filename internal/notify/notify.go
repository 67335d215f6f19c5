// Package notify sends desktop notifications over the D-Bus session bus.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = dbus.ObjectPath("/org/freedesktop/Notifications")
	method     = busName + ".Notify"

	// AppName is reported to the notification server.
	AppName = "rice"

	// defaultExpire lets the server pick the timeout.
	defaultExpire = int32(-1)
)

// ErrUnavailable indicates no session bus or notification server.
var ErrUnavailable = errors.New("notify: unavailable")

// caller is the part of dbus.BusObject used here.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Notifier posts notifications.
type Notifier struct {
	conn *dbus.Conn
	obj  caller
}

// New connects to the session bus. Callers treat failure as "no
// notifications" rather than a fatal error.
func New() (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &Notifier{conn: conn, obj: conn.Object(busName, objectPath)}, nil
}

// Close closes the bus connection.
func (n *Notifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

// Notify shows summary and body and returns the id the server assigned.
func (n *Notifier) Notify(ctx context.Context, summary, body string) (uint32, error) {
	call := n.obj.CallWithContext(ctx, method, 0,
		AppName,
		uint32(0), // replaces_id
		"",        // app_icon
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		defaultExpire,
	)

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return id, nil
}
