package audio

import (
	"context"
	"strings"

	"github.com/nerrad567/rice/internal/process"
	"github.com/nerrad567/rice/internal/status"
)

// Kind selects which device changes Subscribe reports.
type Kind int

const (
	KindSink Kind = iota
	KindSource
)

func (k Kind) event() string {
	if k == KindSource {
		return "Event 'change' on source"
	}
	return "Event 'change' on sink"
}

func (k Kind) String() string {
	if k == KindSource {
		return "source"
	}
	return "sink"
}

// Subscribe follows `pactl subscribe` and calls onChange for every change
// event on a device of the given kind. pactl is restarted if it dies. It
// blocks until ctx is done, returning ctx.Err(), or until pactl can no
// longer be restarted.
func (p *Pactl) Subscribe(ctx context.Context, kind Kind, onChange func()) error {
	want := kind.event()

	cfg := process.DefaultConfig("pactl-subscribe", p.binary(), []string{"subscribe"})
	cfg.MaxRestartAttempts = 0
	cfg.OnStdoutLine = func(line string) {
		// Also matches sink-input and source-output events, which is harmless:
		// the callback re-reads the state.
		if strings.Contains(line, want) {
			onChange()
		}
	}

	mgr := process.NewManager(cfg)
	mgr.SetLogger(p.log())

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer mgr.Stop() //nolint:errcheck // exit is reported by Wait

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-mgr.Done():
		return mgr.LastError()
	}
}

// Watch reports the mute state of the default device of kind now and
// again after every change event, until Subscribe returns. The first
// read must succeed; later read failures are logged and skipped.
func (p *Pactl) Watch(ctx context.Context, kind Kind, onState func(muted bool)) error {
	read := p.IsOutputMuted
	if kind == KindSource {
		read = p.IsInputMuted
	}

	muted, err := read(ctx)
	if err != nil {
		return err
	}
	onState(muted)

	return p.Subscribe(ctx, kind, func() {
		muted, err := read(ctx)
		if err != nil {
			p.log().Warn("reading mute state", "kind", kind.String(), "error", err)
			return
		}
		onState(muted)
	})
}

// Widget classes shared by the mute and mic widgets.
const (
	ClassMuted    = "muted"
	ClassNotMuted = "not-muted"
)

// MuteStatus maps the output mute state to a widget response.
func MuteStatus(muted bool) status.Response {
	if muted {
		return status.Response{Class: ClassMuted, Text: "\U000F075F"}
	}
	return status.Response{Class: ClassNotMuted, Text: ""}
}

// MicStatus maps the input mute state to a widget response.
func MicStatus(muted bool) status.Response {
	if muted {
		return status.Response{Class: ClassMuted, Text: ""}
	}
	return status.Response{Class: ClassNotMuted, Text: "\uf130"}
}
