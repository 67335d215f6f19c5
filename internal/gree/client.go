package gree

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// DefaultPort is the UDP port Gree units listen on.
	DefaultPort = 7000

	// DefaultTimeout bounds one round trip when Config.Timeout is zero.
	DefaultTimeout = 3 * time.Second

	// KeySize is the AES-128 key length in bytes.
	KeySize = 16

	// maxDatagram is large enough for any UDP payload.
	maxDatagram = 64 * 1024
)

// Endpoint addresses one unit.
type Endpoint struct {
	Host string // IP address or resolvable host name
	Port int    // DefaultPort when zero
	ID   string // device identifier (its MAC as reported by the unit)
	Key  string // 16-byte AES key from binding
}

// Validate checks that every field needed for a round trip is present.
func (e Endpoint) Validate() error {
	switch {
	case e.Host == "":
		return fmt.Errorf("%w: host is empty", ErrInvalidEndpoint)
	case e.ID == "":
		return fmt.Errorf("%w: id is empty", ErrInvalidEndpoint)
	case len(e.Key) != KeySize:
		return fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidEndpoint, KeySize, len(e.Key))
	case e.Port < 0 || e.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidEndpoint, e.Port)
	}
	return nil
}

// Addr returns host:port.
func (e Endpoint) Addr() string {
	port := e.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(port))
}

// Assignment is one variable write.
type Assignment struct {
	Variable Variable
	Value    Value
}

// Ack is what the unit echoed after a write. Both slices may be empty.
type Ack struct {
	Variables []Variable
	Values    []Value
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

// Config holds client options.
type Config struct {
	// Timeout bounds each round trip. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Logger is optional.
	Logger Logger
}

// Client performs get and set round trips against Gree units.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - The client keeps no per-call state; every call dials its own socket
//     and allocates its own buffers.
//
// Retries:
//   - None. Each call makes exactly one attempt; polling callers retry on
//     their next tick. See IsRetryable.
//
// Create with NewClient; the zero value is not usable.
type Client struct {
	timeout time.Duration
	logger  Logger
}

// NewClient creates a client with the given configuration.
func NewClient(cfg Config) *Client {
	c := &Client{
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	return c
}

// Get reads vars and returns their values in the same order.
//
// Errors:
//   - ErrInvalidRequest, ErrInvalidEndpoint: nothing was sent
//   - ErrTransport: unreachable, timed out or context ended
//   - ErrProtocol: reply undecryptable, malformed or rejected
//   - ErrShape (*ShapeError): reply value count differs from len(vars)
func (c *Client) Get(ctx context.Context, ep Endpoint, vars []Variable) ([]Value, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: no variables", ErrInvalidRequest)
	}
	if err := ep.Validate(); err != nil {
		return nil, err
	}
	cols, err := wireNames(vars)
	if err != nil {
		return nil, err
	}

	var reply statusReply
	if err := c.roundTrip(ctx, ep, statusRequest{T: typeStatus, MAC: ep.ID, Cols: cols}, typeData, &reply); err != nil {
		return nil, err
	}
	if reply.R != statusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProtocol, reply.R)
	}

	values, err := decodeValues("dat", reply.Dat, vars)
	if err != nil {
		return nil, err
	}
	if err := checkNames("cols", reply.Cols, cols); err != nil {
		return nil, err
	}
	return values, nil
}

// Set writes assignments in one command and returns the unit's echo.
//
// Success means the unit accepted the command. It does not mean the
// physical effect has completed.
func (c *Client) Set(ctx context.Context, ep Endpoint, assignments []Assignment) (Ack, error) {
	if len(assignments) == 0 {
		return Ack{}, fmt.Errorf("%w: no assignments", ErrInvalidRequest)
	}
	if err := ep.Validate(); err != nil {
		return Ack{}, err
	}

	vars := make([]Variable, len(assignments))
	params := make([]Value, len(assignments))
	for i, a := range assignments {
		if a.Value.Kind() == KindInvalid {
			return Ack{}, fmt.Errorf("%w: %s has no value", ErrInvalidRequest, a.Variable)
		}
		vars[i] = a.Variable
		params[i] = a.Value
	}
	opt, err := wireNames(vars)
	if err != nil {
		return Ack{}, err
	}

	var reply commandReply
	if err := c.roundTrip(ctx, ep, commandRequest{T: typeCommand, Opt: opt, P: params}, typeResult, &reply); err != nil {
		return Ack{}, err
	}
	if reply.R != statusOK {
		return Ack{}, fmt.Errorf("%w: status %d", ErrProtocol, reply.R)
	}
	return buildAck(reply, vars, opt)
}

// buildAck validates the echoed opt and val arrays against the command.
func buildAck(reply commandReply, vars []Variable, opt []string) (Ack, error) {
	if err := checkNames("opt", reply.Opt, opt); err != nil {
		return Ack{}, err
	}

	echoed := reply.Val
	if len(echoed) == 0 {
		echoed = reply.P
	}
	if len(reply.Opt) == 0 && len(echoed) == 0 {
		return Ack{}, nil
	}

	values, err := decodeValues("val", echoed, vars)
	if err != nil {
		return Ack{}, err
	}
	return Ack{Variables: append([]Variable(nil), vars...), Values: values}, nil
}

// roundTrip seals request, exchanges one datagram pair and decodes the
// inner reply into reply after checking its discriminator.
func (c *Client) roundTrip(ctx context.Context, ep Endpoint, request any, wantType string, reply any) error {
	key := []byte(ep.Key)

	datagram, err := seal(key, ep.ID, request)
	if err != nil {
		return err
	}

	start := time.Now()
	raw, err := c.exchange(ctx, ep.Addr(), datagram)
	if err != nil {
		c.logger.Debug("gree round trip failed", "addr", ep.Addr(), "error", err)
		return err
	}
	c.logger.Debug("gree round trip", "addr", ep.Addr(), "sent", len(datagram), "received", len(raw), "took", time.Since(start))

	inner, err := open(key, raw)
	if err != nil {
		return err
	}

	var head struct {
		T string `json:"t"`
	}
	if err := json.Unmarshal(inner, &head); err != nil {
		return fmt.Errorf("%w: inner payload: %w", ErrProtocol, err)
	}
	if head.T != wantType {
		return fmt.Errorf("%w: reply type %q, want %q", ErrProtocol, head.T, wantType)
	}
	if err := json.Unmarshal(inner, reply); err != nil {
		return fmt.Errorf("%w: inner payload: %w", ErrProtocol, err)
	}
	return nil
}

// exchange sends one datagram and waits for one reply.
//
// The socket is connected, so the kernel drops datagrams from other
// peers. It is closed on every return path, and cancelling ctx closes it
// immediately so an abandoned call unblocks.
func (c *Client) exchange(ctx context.Context, addr string, datagram []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, transportError(ctx, "dial", err)
	}
	defer conn.Close() //nolint:errcheck // closing a UDP socket cannot fail meaningfully

	stop := context.AfterFunc(ctx, func() {
		conn.Close() //nolint:errcheck,gosec // unblocks Read on cancellation
	})
	defer stop()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, transportError(ctx, "set deadline", err)
	}

	if _, err := conn.Write(datagram); err != nil {
		return nil, transportError(ctx, "write", err)
	}

	buf := make([]byte, maxDatagram)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, transportError(ctx, "read", err)
	}
	return buf[:n], nil
}

// transportError wraps err in ErrTransport, preferring the context's own
// error when the context ended first.
func transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransport, op, ctxErr)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: timed out: %w", ErrTransport, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}
