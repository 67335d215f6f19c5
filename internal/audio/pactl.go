package audio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/rice/internal/process"
)

// DefaultBinary is the pactl executable looked up on PATH.
const DefaultBinary = "pactl"

// Runner executes pactl; tests substitute canned output.
type Runner = process.Runner

// ExecRunner is the default Runner.
type ExecRunner = process.ExecRunner

// Device is a sink or source as listed by pactl.
type Device struct {
	Name  string
	Muted bool
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

// Pactl queries the sound server. The zero value runs "pactl" from PATH.
type Pactl struct {
	Runner Runner
	Binary string

	logger Logger
}

// SetLogger sets the logger for Subscribe.
func (p *Pactl) SetLogger(logger Logger) {
	p.logger = logger
}

func (p *Pactl) log() Logger {
	if p.logger == nil {
		return noopLogger{}
	}
	return p.logger
}

func (p *Pactl) binary() string {
	if p.Binary == "" {
		return DefaultBinary
	}
	return p.Binary
}

func (p *Pactl) run(ctx context.Context, args ...string) ([]byte, error) {
	r := p.Runner
	if r == nil {
		r = ExecRunner{}
	}
	out, err := r.Output(ctx, p.binary(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCommand, strings.Join(args, " "), err)
	}
	return out, nil
}

// DefaultSink returns the name of the default output device.
func (p *Pactl) DefaultSink(ctx context.Context) (string, error) {
	return p.defaultDevice(ctx, "Default Sink:")
}

// DefaultSource returns the name of the default input device.
func (p *Pactl) DefaultSource(ctx context.Context) (string, error) {
	return p.defaultDevice(ctx, "Default Source:")
}

func (p *Pactl) defaultDevice(ctx context.Context, prefix string) (string, error) {
	out, err := p.run(ctx, "info")
	if err != nil {
		return "", err
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		if name := lastField(strings.TrimPrefix(line, prefix)); name != "" {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoDefault, strings.TrimSuffix(prefix, ":"))
}

// Sinks lists output devices.
func (p *Pactl) Sinks(ctx context.Context) ([]Device, error) {
	return p.list(ctx, "sinks")
}

// Sources lists input devices, monitors included.
func (p *Pactl) Sources(ctx context.Context) ([]Device, error) {
	return p.list(ctx, "sources")
}

func (p *Pactl) list(ctx context.Context, kind string) ([]Device, error) {
	out, err := p.run(ctx, "list", kind)
	if err != nil {
		return nil, err
	}
	return parseDevices(out), nil
}

// parseDevices pairs each "Mute:" line with the "Name:" seen before it.
func parseDevices(out []byte) []Device {
	var devices []Device
	var name string

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "Name: "):
			name = lastField(line)
		case strings.HasPrefix(line, "Mute: "):
			devices = append(devices, Device{Name: name, Muted: strings.Contains(line, "Mute: yes")})
		}
	}
	return devices
}

// IsOutputMuted reports whether the default sink is muted. A default sink
// missing from the list counts as muted.
func (p *Pactl) IsOutputMuted(ctx context.Context) (bool, error) {
	name, err := p.DefaultSink(ctx)
	if err != nil {
		return false, err
	}
	sinks, err := p.Sinks(ctx)
	if err != nil {
		return false, err
	}
	return mutedOrMissing(sinks, name), nil
}

// IsInputMuted reports whether the default source is muted. A default
// source missing from the list counts as muted.
func (p *Pactl) IsInputMuted(ctx context.Context) (bool, error) {
	name, err := p.DefaultSource(ctx)
	if err != nil {
		return false, err
	}
	sources, err := p.Sources(ctx)
	if err != nil {
		return false, err
	}
	return mutedOrMissing(sources, name), nil
}

func mutedOrMissing(devices []Device, name string) bool {
	for _, d := range devices {
		if d.Name == name {
			return d.Muted
		}
	}
	return true
}

func lastField(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
