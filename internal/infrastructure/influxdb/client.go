package influxdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/rice/internal/infrastructure/config"
)

const (
	// connectTimeout bounds the ping made by Connect. A widget waits on it
	// before printing its first line, so it stays short.
	connectTimeout = 3 * time.Second

	// checkTimeout bounds a HealthCheck ping.
	checkTimeout = 2 * time.Second

	fallbackBatchSize     = 100
	fallbackFlushInterval = 10 * time.Second
)

// Client mirrors widget history into one InfluxDB bucket.
//
// Points are queued and sent in batches by the library; nothing on the
// widget's output path ever waits for the server. Failed batches are
// reported through the SetOnError callback. All methods are safe for
// concurrent use.
type Client struct {
	raw    influxdb2.Client
	writer api.WriteAPI

	mu      sync.RWMutex
	open    bool
	onError func(err error)
}

// batchOptions turns the batch settings of cfg into library options,
// substituting defaults for values that are unset or negative.
func batchOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	size := uint(fallbackBatchSize)
	if cfg.BatchSize > 0 {
		size = uint(cfg.BatchSize)
	}
	flush := fallbackFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}
	return influxdb2.DefaultOptions().
		SetBatchSize(size).
		SetFlushInterval(uint(flush.Milliseconds()))
}

// ping reports whether raw answers healthy within timeout.
func ping(ctx context.Context, raw influxdb2.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	healthy, err := raw.Ping(ctx)
	if err != nil {
		return err
	}
	if !healthy {
		return errors.New("ping answered unhealthy")
	}
	return nil
}

// Connect opens the history client for cfg.
//
// It returns ErrDisabled when the section is off and ErrConnectionFailed
// when the server does not answer a ping within ctx and a few seconds.
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	raw := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, batchOptions(cfg))
	if err := ping(ctx, raw, connectTimeout); err != nil {
		raw.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, cfg.URL, err)
	}

	c := &Client{
		raw:    raw,
		writer: raw.WriteAPI(cfg.Org, cfg.Bucket),
		open:   true,
	}
	go c.forwardErrors(c.writer.Errors())

	return c, nil
}

func (c *Client) forwardErrors(errs <-chan error) {
	for err := range errs {
		c.mu.RLock()
		fn := c.onError
		c.mu.RUnlock()
		if fn != nil {
			fn(err)
		}
	}
}

// SetOnError installs fn as the receiver of failed batch writes.
func (c *Client) SetOnError(fn func(err error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// IsConnected reports whether the client is still open. It does not
// contact the server; HealthCheck does.
func (c *Client) IsConnected() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// HealthCheck pings the server once more. The app calls it right after
// Connect and drops the history sink when it fails.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if err := ping(ctx, c.raw, checkTimeout); err != nil {
		return fmt.Errorf("influxdb: health check: %w", err)
	}
	return nil
}

// Flush sends queued points now. It does nothing after Close.
func (c *Client) Flush() {
	if !c.IsConnected() {
		return
	}
	c.writer.Flush()
}

// Close sends queued points and releases the client. It is safe on a nil
// client and on a client that is already closed.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	wasOpen := c.open
	c.open = false
	c.mu.Unlock()

	if wasOpen {
		c.writer.Flush()
		c.raw.Close()
	}
	return nil
}
