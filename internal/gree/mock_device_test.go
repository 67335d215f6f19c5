package gree

import (
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
)

const testKey = "0123456789abcdef"

// MockDevice simulates a Gree unit answering on a local UDP socket.
type MockDevice struct {
	conn *net.UDPConn
	key  []byte
	id   string

	mu       sync.Mutex
	state    map[string]Value // wire name -> value
	requests int
	silent   bool
	status   int
	// innerHook rewrites the plaintext reply before encryption.
	innerHook func(inner map[string]any)
	// rawHook rewrites the outgoing datagram after encryption.
	rawHook func(datagram []byte) []byte

	done chan struct{}
	wg   sync.WaitGroup
}

// NewMockDevice starts a device on 127.0.0.1 with the given initial state.
func NewMockDevice(t *testing.T, state map[Variable]Value) *MockDevice {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}

	d := &MockDevice{
		conn:   conn,
		key:    []byte(testKey),
		id:     "f4911e7aca59",
		state:  make(map[string]Value),
		status: statusOK,
		done:   make(chan struct{}),
	}
	for v, val := range state {
		d.state[v.Wire()] = val
	}

	d.wg.Add(1)
	go d.serve(t)
	t.Cleanup(d.Close)
	return d
}

// Endpoint returns an endpoint addressing this device.
func (d *MockDevice) Endpoint() Endpoint {
	addr := d.conn.LocalAddr().(*net.UDPAddr)
	return Endpoint{Host: "127.0.0.1", Port: addr.Port, ID: d.id, Key: testKey}
}

// Close stops the device.
func (d *MockDevice) Close() {
	select {
	case <-d.done:
		return
	default:
	}
	close(d.done)
	d.conn.Close()
	d.wg.Wait()
}

// Requests returns the number of datagrams received.
func (d *MockDevice) Requests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests
}

// State returns the current value of v.
func (d *MockDevice) State(v Variable) Value {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state[v.Wire()]
}

// SetSilent makes the device swallow requests without replying.
func (d *MockDevice) SetSilent(silent bool) {
	d.mu.Lock()
	d.silent = silent
	d.mu.Unlock()
}

// SetStatus sets the r code carried in replies.
func (d *MockDevice) SetStatus(code int) {
	d.mu.Lock()
	d.status = code
	d.mu.Unlock()
}

// SetInnerHook installs a rewrite of the plaintext reply.
func (d *MockDevice) SetInnerHook(fn func(inner map[string]any)) {
	d.mu.Lock()
	d.innerHook = fn
	d.mu.Unlock()
}

// SetRawHook installs a rewrite of the encrypted reply datagram.
func (d *MockDevice) SetRawHook(fn func(datagram []byte) []byte) {
	d.mu.Lock()
	d.rawHook = fn
	d.mu.Unlock()
}

// SetKey changes the key the device encrypts replies with.
func (d *MockDevice) SetKey(key string) {
	d.mu.Lock()
	d.key = []byte(key)
	d.mu.Unlock()
}

func (d *MockDevice) serve(t *testing.T) {
	defer d.wg.Done()

	buf := make([]byte, maxDatagram)
	for {
		n, peer, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-d.done:
			default:
				if !errors.Is(err, net.ErrClosed) {
					t.Logf("device read error: %v", err)
				}
			}
			return
		}

		reply := d.handle(append([]byte(nil), buf[:n]...))
		if reply == nil {
			continue
		}
		if _, err := d.conn.WriteToUDP(reply, peer); err != nil {
			t.Logf("device write error: %v", err)
		}
	}
}

// handle decodes one request and builds the encrypted reply, or nil.
func (d *MockDevice) handle(datagram []byte) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests++
	if d.silent {
		return nil
	}

	// Requests are always encrypted with the shared test key.
	inner, err := open([]byte(testKey), datagram)
	if err != nil {
		return nil
	}

	var req struct {
		T    string            `json:"t"`
		Cols []string          `json:"cols"`
		Opt  []string          `json:"opt"`
		P    []json.RawMessage `json:"p"`
	}
	if err := json.Unmarshal(inner, &req); err != nil {
		return nil
	}

	var reply map[string]any
	switch req.T {
	case typeStatus:
		dat := make([]any, len(req.Cols))
		for i, col := range req.Cols {
			dat[i] = jsonScalar(d.state[col])
		}
		reply = map[string]any{"t": typeData, "mac": d.id, "r": d.status, "cols": req.Cols, "dat": dat}
	case typeCommand:
		vals := make([]any, len(req.Opt))
		for i, opt := range req.Opt {
			var v Value
			if i < len(req.P) {
				_ = json.Unmarshal(req.P[i], &v)
			}
			if d.status == statusOK {
				d.state[opt] = v
			}
			vals[i] = jsonScalar(v)
		}
		reply = map[string]any{"t": typeResult, "mac": d.id, "r": d.status, "opt": req.Opt, "p": vals, "val": vals}
	default:
		return nil
	}

	if d.innerHook != nil {
		d.innerHook(reply)
	}

	out, err := seal(d.key, "", reply)
	if err != nil {
		return nil
	}
	if d.rawHook != nil {
		out = d.rawHook(out)
	}
	return out
}

// jsonScalar converts a Value to what a unit would put on the wire.
// Unset variables read as 0, as real firmware reports them.
func jsonScalar(v Value) any {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		return s
	case KindInt:
		n, _ := v.AsInt()
		return json.Number(strconv.FormatInt(n, 10))
	default:
		return 0
	}
}
