package yeelight

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// MockBulb simulates a Yeelight bulb on a local TCP listener.
type MockBulb struct {
	listener net.Listener

	mu       sync.Mutex
	props    map[string]string
	calls    []string // "method params"
	notify   bool     // send a props notification before each reply
	silent   bool
	failWith *DeviceError
	rawReply string // replaces the reply line when set

	wg sync.WaitGroup
}

// NewMockBulb starts a bulb with power and bg_power off.
func NewMockBulb(t *testing.T) *MockBulb {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}

	b := &MockBulb{
		listener: listener,
		props:    map[string]string{PropPower: "off", PropBgPower: "off", PropBright: "50", PropBgHue: "0"},
	}
	b.wg.Add(1)
	go b.acceptLoop()
	t.Cleanup(func() {
		listener.Close()
		b.wg.Wait()
	})
	return b
}

func (b *MockBulb) Address() string {
	return b.listener.Addr().String()
}

func (b *MockBulb) Prop(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.props[name]
}

func (b *MockBulb) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *MockBulb) configure(fn func(b *MockBulb)) {
	b.mu.Lock()
	fn(b)
	b.mu.Unlock()
}

func (b *MockBulb) acceptLoop() {
	defer b.wg.Done()
	for {
		conn, err := b.listener.Accept()
		if err != nil {
			return
		}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.serve(conn)
		}()
	}
}

func (b *MockBulb) serve(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			return
		}

		for _, line := range b.respond(req.ID, req.Method, req.Params) {
			if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
				return
			}
		}
	}
}

func (b *MockBulb) respond(id uint64, method string, params []json.RawMessage) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = string(p)
	}
	b.calls = append(b.calls, strings.TrimSpace(method+" "+strings.Join(parts, ",")))

	if b.silent {
		return nil
	}

	var lines []string
	if b.notify {
		lines = append(lines, `{"method":"props","params":{"power":"on"}}`)
	}
	if b.rawReply != "" {
		return append(lines, b.rawReply)
	}
	if b.failWith != nil {
		return append(lines, fmt.Sprintf(`{"id":%d,"error":{"code":%d,"message":%q}}`, id, b.failWith.Code, b.failWith.Message))
	}

	var result []string
	switch method {
	case "get_prop":
		for _, p := range params {
			var name string
			_ = json.Unmarshal(p, &name)
			result = append(result, b.props[name])
		}
	case "toggle":
		b.props[PropPower] = flip(b.props[PropPower])
		result = []string{"ok"}
	case "bg_toggle":
		b.props[PropBgPower] = flip(b.props[PropBgPower])
		result = []string{"ok"}
	case "set_bright":
		b.props[PropBright] = string(params[0])
		result = []string{"ok"}
	case "bg_set_bright", "bg_set_hsv":
		result = []string{"ok"}
	default:
		return append(lines, fmt.Sprintf(`{"id":%d,"error":{"code":-1,"message":"method not supported"}}`, id))
	}

	encoded, _ := json.Marshal(result)
	return append(lines, fmt.Sprintf(`{"id":%d,"result":%s}`, id, encoded))
}

func flip(s string) string {
	if s == "on" {
		return "off"
	}
	return "on"
}

func TestGetProps(t *testing.T) {
	bulb := NewMockBulb(t)
	bulb.configure(func(b *MockBulb) { b.props[PropBgPower] = "on" })
	c := NewClient(Config{Timeout: time.Second})

	got, err := c.GetProps(context.Background(), bulb.Address(), PropPower, PropBgPower, PropBright)
	if err != nil {
		t.Fatalf("GetProps() error = %v", err)
	}
	want := []string{"off", "on", "50"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetProps()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGetProps_SkipsNotifications(t *testing.T) {
	bulb := NewMockBulb(t)
	bulb.configure(func(b *MockBulb) { b.notify = true })
	c := NewClient(Config{Timeout: time.Second})

	got, err := c.GetProps(context.Background(), bulb.Address(), PropPower)
	if err != nil {
		t.Fatalf("GetProps() error = %v", err)
	}
	if got[0] != "off" {
		t.Errorf("GetProps() = %v, want [off]", got)
	}
}

func TestGetProps_Shape(t *testing.T) {
	bulb := NewMockBulb(t)
	bulb.configure(func(b *MockBulb) { b.rawReply = `{"id":1,"result":["on"]}` })
	c := NewClient(Config{Timeout: time.Second})

	_, err := c.GetProps(context.Background(), bulb.Address(), PropPower, PropBgPower)
	var shape *ShapeError
	if !errors.As(err, &shape) || !errors.Is(err, ErrShape) {
		t.Fatalf("GetProps() error = %v, want *ShapeError", err)
	}
	if shape.Requested != 2 || shape.Received != 1 {
		t.Errorf("ShapeError = %+v", shape)
	}
}

func TestToggle(t *testing.T) {
	bulb := NewMockBulb(t)
	c := NewClient(Config{Timeout: time.Second})
	ctx := context.Background()

	if err := c.Toggle(ctx, bulb.Address()); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if got := bulb.Prop(PropPower); got != "on" {
		t.Errorf("power after Toggle = %q, want on", got)
	}

	if err := c.BgToggle(ctx, bulb.Address()); err != nil {
		t.Fatalf("BgToggle() error = %v", err)
	}
	if got := bulb.Prop(PropBgPower); got != "on" {
		t.Errorf("bg_power after BgToggle = %q, want on", got)
	}
}

func TestSetters_Params(t *testing.T) {
	bulb := NewMockBulb(t)
	c := NewClient(Config{Timeout: time.Second})
	ctx := context.Background()
	addr := bulb.Address()

	if err := c.SetBright(ctx, addr, 80, Sudden, time.Second); err != nil {
		t.Fatalf("SetBright() error = %v", err)
	}
	if err := c.BgSetHSV(ctx, addr, 240, 100, Sudden, time.Second); err != nil {
		t.Fatalf("BgSetHSV() error = %v", err)
	}
	if err := c.BgSetBright(ctx, addr, 10, Smooth, 0); err != nil {
		t.Fatalf("BgSetBright() error = %v", err)
	}

	want := []string{
		`set_bright 80,"sudden",1000`,
		`bg_set_hsv 240,100,"sudden",1000`,
		`bg_set_bright 10,"smooth",30`,
	}
	got := bulb.Calls()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSetters_InvalidArguments(t *testing.T) {
	bulb := NewMockBulb(t)
	c := NewClient(Config{Timeout: time.Second})
	ctx := context.Background()
	addr := bulb.Address()

	tests := []struct {
		name string
		call func() error
	}{
		{"brightness zero", func() error { return c.SetBright(ctx, addr, 0, Sudden, time.Second) }},
		{"brightness high", func() error { return c.BgSetBright(ctx, addr, 101, Sudden, time.Second) }},
		{"hue high", func() error { return c.BgSetHSV(ctx, addr, 360, 100, Sudden, time.Second) }},
		{"sat negative", func() error { return c.BgSetHSV(ctx, addr, 10, -1, Sudden, time.Second) }},
		{"unknown effect", func() error { return c.SetBright(ctx, addr, 50, Effect("fade"), time.Second) }},
		{"no props", func() error { _, err := c.GetProps(ctx, addr); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error = %v, want ErrInvalidRequest", err)
			}
		})
	}

	if calls := bulb.Calls(); len(calls) != 0 {
		t.Errorf("bulb received %v, want no calls", calls)
	}
}

func TestCall_DeviceError(t *testing.T) {
	bulb := NewMockBulb(t)
	bulb.configure(func(b *MockBulb) { b.failWith = &DeviceError{Code: -5000, Message: "general error"} })
	c := NewClient(Config{Timeout: time.Second})

	err := c.Toggle(context.Background(), bulb.Address())
	var devErr *DeviceError
	if !errors.As(err, &devErr) || !errors.Is(err, ErrDevice) {
		t.Fatalf("Toggle() error = %v, want *DeviceError", err)
	}
	if devErr.Code != -5000 || devErr.Message != "general error" {
		t.Errorf("DeviceError = %+v", devErr)
	}
}

func TestCall_Malformed(t *testing.T) {
	for _, raw := range []string{`not json`, `{"id":1}`, `{"result":["ok"]}`} {
		t.Run(raw, func(t *testing.T) {
			bulb := NewMockBulb(t)
			bulb.configure(func(b *MockBulb) { b.rawReply = raw })
			c := NewClient(Config{Timeout: time.Second})

			if _, err := c.Call(context.Background(), bulb.Address(), "toggle"); !errors.Is(err, ErrProtocol) {
				t.Errorf("Call() error = %v, want ErrProtocol", err)
			}
		})
	}
}

func TestCall_Timeout(t *testing.T) {
	bulb := NewMockBulb(t)
	bulb.configure(func(b *MockBulb) { b.silent = true })
	c := NewClient(Config{Timeout: 150 * time.Millisecond})

	start := time.Now()
	_, err := c.GetProps(context.Background(), bulb.Address(), PropPower)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("GetProps() error = %v, want ErrTransport", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("GetProps() took %v", elapsed)
	}
}

func TestCall_Cancel(t *testing.T) {
	bulb := NewMockBulb(t)
	bulb.configure(func(b *MockBulb) { b.silent = true })
	c := NewClient(Config{Timeout: 10 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := c.Call(ctx, bulb.Address(), "toggle")
	if !errors.Is(err, ErrTransport) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Call() error = %v, want ErrTransport wrapping context.Canceled", err)
	}
}

func TestCall_Unreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := listener.Addr().String()
	listener.Close()

	c := NewClient(Config{Timeout: 500 * time.Millisecond})
	if _, err := c.Call(context.Background(), addr, "toggle"); !errors.Is(err, ErrTransport) {
		t.Errorf("Call() error = %v, want ErrTransport", err)
	}
}

func TestAddr(t *testing.T) {
	if got := Addr("192.168.1.41", 0); got != "192.168.1.41:55443" {
		t.Errorf("Addr() = %q", got)
	}
	if got := Addr("bulb.lan", 1234); got != "bulb.lan:1234" {
		t.Errorf("Addr() = %q", got)
	}
}
