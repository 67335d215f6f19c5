package yeelight

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"
)

const (
	// DefaultPort is the bulb's LAN control port.
	DefaultPort = 55443

	// DefaultTimeout bounds one call when Config.Timeout is zero.
	DefaultTimeout = 5 * time.Second

	// maxLine caps a single reply line.
	maxLine = 16 * 1024

	minSmoothDuration = 30 * time.Millisecond
)

// Effect selects how the bulb transitions to a new state.
type Effect string

// Transition effects.
const (
	Sudden Effect = "sudden"
	Smooth Effect = "smooth"
)

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
	Timeout time.Duration
	Logger  Logger
}

// Client speaks the Yeelight LAN control protocol: one JSON object per
// line over TCP.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Each call dials its own
//     connection; only the request id counter is shared.
type Client struct {
	timeout time.Duration
	logger  Logger
	nextID  atomic.Uint64
}

// NewClient creates a client with the given configuration.
func NewClient(cfg Config) *Client {
	c := &Client{timeout: cfg.Timeout, logger: cfg.Logger}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	return c
}

type request struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type reply struct {
	ID     *uint64           `json:"id"`
	Method string            `json:"method"`
	Result []json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Call sends one method invocation to the bulb at addr and returns the
// result array with every element rendered as a string.
//
// Unsolicited property notifications are skipped while waiting.
func (c *Client) Call(ctx context.Context, addr, method string, params ...any) ([]string, error) {
	if params == nil {
		params = []any{}
	}
	id := c.nextID.Add(1)
	line, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	line = append(line, '\r', '\n')

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, transportError(ctx, "dial", err)
	}
	defer conn.Close() //nolint:errcheck // one-shot connection

	stop := context.AfterFunc(ctx, func() {
		conn.Close() //nolint:errcheck,gosec // unblocks reads on cancellation
	})
	defer stop()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, transportError(ctx, "set deadline", err)
	}

	start := time.Now()
	if _, err := conn.Write(line); err != nil {
		return nil, transportError(ctx, "write", err)
	}

	reader := bufio.NewReaderSize(conn, maxLine)
	for {
		raw, err := reader.ReadSlice('\n')
		if err != nil {
			if errors.Is(err, bufio.ErrBufferFull) {
				return nil, fmt.Errorf("%w: reply line exceeds %d bytes", ErrProtocol, maxLine)
			}
			return nil, transportError(ctx, "read", err)
		}

		var r reply
		if err := json.Unmarshal(bytes.TrimSpace(raw), &r); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		if r.ID == nil {
			if r.Method != "" {
				continue // props notification
			}
			return nil, fmt.Errorf("%w: reply has no id", ErrProtocol)
		}
		if *r.ID != id {
			c.logger.Debug("yeelight reply for another request", "want", id, "got", *r.ID)
			continue
		}

		c.logger.Debug("yeelight call", "addr", addr, "method", method, "took", time.Since(start))

		if r.Error != nil {
			return nil, &DeviceError{Code: r.Error.Code, Message: r.Error.Message}
		}
		if r.Result == nil {
			return nil, fmt.Errorf("%w: reply has neither result nor error", ErrProtocol)
		}
		return renderResult(r.Result)
	}
}

func renderResult(result []json.RawMessage) ([]string, error) {
	out := make([]string, len(result))
	for i, raw := range result {
		if len(raw) > 0 && raw[0] == '"' {
			if err := json.Unmarshal(raw, &out[i]); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
			}
			continue
		}
		out[i] = string(raw)
	}
	return out, nil
}

func transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransport, op, ctxErr)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}

// Addr joins host and port, applying DefaultPort when port is zero.
func Addr(host string, port int) string {
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
