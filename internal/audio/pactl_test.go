package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const infoOutput = `Server String: /run/user/1000/pulse/native
Library Protocol Version: 35
Server Name: PulseAudio (on PipeWire 1.0.5)
Default Sink: alsa_output.platform-sound.HiFi__Speaker__sink
Default Source: alsa_input.platform-sound.HiFi__Mic__source
Cookie: 8f2c:11a0
`

const sinksOutput = `Sink #50
	State: RUNNING
	Name: alsa_output.platform-sound.HiFi__Headphones__sink
	Description: Headphones
	Mute: no
	Volume: front-left: 32768 /  50% / -18.06 dB

Sink #51
	State: SUSPENDED
	Name: alsa_output.platform-sound.HiFi__Speaker__sink
	Description: Speaker
	Mute: yes
`

const sourcesOutput = `Source #52
	Name: alsa_output.platform-sound.HiFi__Speaker__sink.monitor
	Mute: no

Source #53
	Name: alsa_input.platform-sound.HiFi__Mic__source
	Mute: no
`

type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	err     error
	calls   []string
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.Join(args, " ")
	f.calls = append(f.calls, name+" "+key)
	if f.err != nil {
		return nil, f.err
	}
	out, ok := f.outputs[key]
	if !ok {
		return nil, errors.New("unexpected command " + key)
	}
	return []byte(out), nil
}

func newFake() *fakeRunner {
	return &fakeRunner{outputs: map[string]string{
		"info":         infoOutput,
		"list sinks":   sinksOutput,
		"list sources": sourcesOutput,
	}}
}

func TestPactl_DefaultDevices(t *testing.T) {
	p := &Pactl{Runner: newFake()}
	ctx := context.Background()

	sink, err := p.DefaultSink(ctx)
	if err != nil {
		t.Fatalf("DefaultSink() error = %v", err)
	}
	if sink != "alsa_output.platform-sound.HiFi__Speaker__sink" {
		t.Errorf("DefaultSink() = %q", sink)
	}

	source, err := p.DefaultSource(ctx)
	if err != nil {
		t.Fatalf("DefaultSource() error = %v", err)
	}
	if source != "alsa_input.platform-sound.HiFi__Mic__source" {
		t.Errorf("DefaultSource() = %q", source)
	}
}

func TestPactl_NoDefault(t *testing.T) {
	tests := []struct {
		name string
		info string
	}{
		{"missing line", "Server Name: PulseAudio\n"},
		{"empty value", "Default Sink:\nDefault Source: \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			f.outputs["info"] = tt.info
			p := &Pactl{Runner: f}

			if _, err := p.DefaultSink(context.Background()); !errors.Is(err, ErrNoDefault) {
				t.Errorf("DefaultSink() error = %v, want ErrNoDefault", err)
			}
			if _, err := p.DefaultSource(context.Background()); !errors.Is(err, ErrNoDefault) {
				t.Errorf("DefaultSource() error = %v, want ErrNoDefault", err)
			}
		})
	}
}

func TestPactl_Sinks(t *testing.T) {
	p := &Pactl{Runner: newFake()}

	got, err := p.Sinks(context.Background())
	if err != nil {
		t.Fatalf("Sinks() error = %v", err)
	}
	want := []Device{
		{Name: "alsa_output.platform-sound.HiFi__Headphones__sink", Muted: false},
		{Name: "alsa_output.platform-sound.HiFi__Speaker__sink", Muted: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sinks() = %+v, want %+v", got, want)
	}
}

func TestPactl_MuteState(t *testing.T) {
	ctx := context.Background()

	p := &Pactl{Runner: newFake()}
	out, err := p.IsOutputMuted(ctx)
	if err != nil || !out {
		t.Errorf("IsOutputMuted() = %v, %v; want true, nil", out, err)
	}
	in, err := p.IsInputMuted(ctx)
	if err != nil || in {
		t.Errorf("IsInputMuted() = %v, %v; want false, nil", in, err)
	}
}

func TestPactl_MissingDefaultCountsAsMuted(t *testing.T) {
	f := newFake()
	f.outputs["list sources"] = "Source #1\n\tName: something.else\n\tMute: no\n"
	p := &Pactl{Runner: f}

	muted, err := p.IsInputMuted(context.Background())
	if err != nil {
		t.Fatalf("IsInputMuted() error = %v", err)
	}
	if !muted {
		t.Error("IsInputMuted() = false for unlisted default source")
	}
}

func TestPactl_CommandFailure(t *testing.T) {
	f := newFake()
	f.err = errors.New("connection refused")
	p := &Pactl{Runner: f}

	if _, err := p.IsOutputMuted(context.Background()); !errors.Is(err, ErrCommand) {
		t.Errorf("IsOutputMuted() error = %v, want ErrCommand", err)
	}
}

func TestPactl_CustomBinary(t *testing.T) {
	f := newFake()
	p := &Pactl{Runner: f, Binary: "/usr/local/bin/pactl"}

	if _, err := p.DefaultSink(context.Background()); err != nil {
		t.Fatalf("DefaultSink() error = %v", err)
	}
	if f.calls[0] != "/usr/local/bin/pactl info" {
		t.Errorf("ran %q", f.calls[0])
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		got       func() (string, string)
		wantClass string
		wantText  string
	}{
		{"output muted", func() (string, string) { r := MuteStatus(true); return r.Class, r.Text }, ClassMuted, "\U000F075F"},
		{"output live", func() (string, string) { r := MuteStatus(false); return r.Class, r.Text }, ClassNotMuted, ""},
		{"input muted", func() (string, string) { r := MicStatus(true); return r.Class, r.Text }, ClassMuted, ""},
		{"input live", func() (string, string) { r := MicStatus(false); return r.Class, r.Text }, ClassNotMuted, "\uf130"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, text := tt.got()
			if class != tt.wantClass || text != tt.wantText {
				t.Errorf("got {%s %q}, want {%s %q}", class, text, tt.wantClass, tt.wantText)
			}
		})
	}
}

// fakeSubscribe writes a script that behaves like `pactl subscribe`.
func fakeSubscribe(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pactl")
	script := "#!/bin/sh\n[ \"$1\" = subscribe ] || exit 2\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o700); err != nil { //nolint:gosec // test script must be executable
		t.Fatalf("writing fake pactl: %v", err)
	}
	return path
}

func TestPactl_Subscribe(t *testing.T) {
	bin := fakeSubscribe(t, `
echo "Event 'new' on sink-input #90"
echo "Event 'change' on sink #51"
echo "Event 'change' on source #53"
echo "Event 'change' on sink #50"
exec sleep 60`)

	tests := []struct {
		kind Kind
		want int32
	}{
		{KindSink, 2},
		{KindSource, 1},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var changes atomic.Int32
			done := make(chan error, 1)
			p := &Pactl{Binary: bin}
			go func() {
				done <- p.Subscribe(ctx, tt.kind, func() { changes.Add(1) })
			}()

			deadline := time.Now().Add(5 * time.Second)
			for changes.Load() < tt.want && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}
			cancel()

			if err := <-done; !errors.Is(err, context.Canceled) {
				t.Errorf("Subscribe() error = %v, want context.Canceled", err)
			}
			if got := changes.Load(); got != tt.want {
				t.Errorf("changes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPactl_SubscribeMissingBinary(t *testing.T) {
	p := &Pactl{Binary: filepath.Join(t.TempDir(), "nope")}

	if err := p.Subscribe(context.Background(), KindSink, func() {}); err == nil {
		t.Error("Subscribe() with missing binary = nil, want error")
	}
}

func TestPactl_Watch(t *testing.T) {
	bin := fakeSubscribe(t, `
echo "Event 'change' on sink #51"
echo "Event 'change' on sink #50"
exec sleep 60`)

	fake := newFake()
	p := &Pactl{Runner: fake, Binary: bin}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	states := make(chan bool, 8)
	done := make(chan error, 1)
	go func() {
		done <- p.Watch(ctx, KindSink, func(muted bool) { states <- muted })
	}()

	// Initial state plus one per change event; the speaker sink is muted.
	for i := 0; i < 3; i++ {
		select {
		case muted := <-states:
			if !muted {
				t.Errorf("state %d = not muted, want muted", i)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("got %d states, want 3", i)
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch() error = %v, want context.Canceled", err)
	}
}

func TestPactl_WatchInitialReadFails(t *testing.T) {
	fake := newFake()
	fake.err = errors.New("connection refused")
	p := &Pactl{Runner: fake, Binary: filepath.Join(t.TempDir(), "never-run")}

	called := false
	err := p.Watch(context.Background(), KindSource, func(bool) { called = true })
	if !errors.Is(err, ErrCommand) {
		t.Errorf("Watch() error = %v, want ErrCommand", err)
	}
	if called {
		t.Error("onState called after failed read")
	}
}
