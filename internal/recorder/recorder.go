// Package recorder runs region screen recordings and reports their state.
//
// One invocation records: it asks slurp for a region, runs wf-recorder
// until it exits and keeps the state in the shared kv store. Other
// invocations read that state to draw the widget or stop the recording
// by signalling the stored pid.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nerrad567/rice/internal/kv"
	"github.com/nerrad567/rice/internal/process"
	"github.com/nerrad567/rice/internal/status"
)

// Store keys.
const (
	KeyRecording = "recording"
	KeyStart     = "recording:start"
	KeyPID       = "recording:pid"
)

// Widget classes.
const (
	ClassRecording    = "recording"
	ClassNotRecording = "not-recording"
)

var (
	// ErrNoSelection indicates the region picker returned nothing.
	ErrNoSelection = errors.New("recorder: no region selected")

	// ErrCommand indicates a helper binary could not be run.
	ErrCommand = errors.New("recorder: command failed")
)

// Store is the part of *kv.Store the recorder needs.
type Store interface {
	PutBool(ctx context.Context, key string, v bool) error
	PutInt64(ctx context.Context, key string, v int64) error
	GetBool(ctx context.Context, key string) (bool, error)
	GetInt64(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
}

// Notifier posts a desktop notification.
type Notifier interface {
	Notify(ctx context.Context, summary, body string) (uint32, error)
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

// Config wires a Recorder. Store and VideosDir are required.
type Config struct {
	Store     Store
	VideosDir string

	// Slurp and WFRecorder default to the binaries on PATH.
	Slurp      string
	WFRecorder string

	// Runner runs slurp. Defaults to process.ExecRunner.
	Runner process.Runner

	// Notifier is optional.
	Notifier Notifier

	Logger Logger
}

// Recorder manages one recording at a time.
type Recorder struct {
	store     Store
	videosDir string
	slurp     string
	wf        string
	runner    process.Runner
	notifier  Notifier
	logger    Logger

	now  func() time.Time
	kill func(pid int, sig syscall.Signal) error
}

// New creates a Recorder from cfg.
func New(cfg Config) *Recorder {
	r := &Recorder{
		store:     cfg.Store,
		videosDir: cfg.VideosDir,
		slurp:     cfg.Slurp,
		wf:        cfg.WFRecorder,
		runner:    cfg.Runner,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
		now:       time.Now,
		kill:      syscall.Kill,
	}
	if r.slurp == "" {
		r.slurp = "slurp"
	}
	if r.wf == "" {
		r.wf = "wf-recorder"
	}
	if r.runner == nil {
		r.runner = process.ExecRunner{}
	}
	if r.logger == nil {
		r.logger = noopLogger{}
	}
	return r
}

// Start selects a region, records it until wf-recorder exits and returns
// the file written. Cancelling ctx stops the recording gracefully.
func (r *Recorder) Start(ctx context.Context) (string, error) {
	geometry, err := r.selectRegion(ctx)
	if err != nil {
		return "", err
	}

	start := r.now().Unix()
	if err := r.store.PutBool(ctx, KeyRecording, true); err != nil {
		return "", err
	}
	if err := r.store.PutInt64(ctx, KeyStart, start); err != nil {
		r.finish(context.WithoutCancel(ctx))
		return "", err
	}

	file := filepath.Join(r.videosDir, fmt.Sprintf("%d.mp4", start))

	// Cleanup must run even after ctx is cancelled.
	cleanupCtx := context.WithoutCancel(ctx)

	cfg := process.Config{
		Name:   "wf-recorder",
		Binary: r.wf,
		Args:   []string{"-g", geometry, "-x", "yuv420p", "-f", file},
		OnStart: func(pid int) {
			if err := r.store.PutInt64(cleanupCtx, KeyPID, int64(pid)); err != nil {
				r.logger.Warn("storing recorder pid", "pid", pid, "error", err)
			}
		},
		GracefulTimeout: 10 * time.Second,
	}
	mgr := process.NewManager(cfg)
	mgr.SetLogger(r.logger)

	if err := mgr.Start(ctx); err != nil {
		r.finish(cleanupCtx)
		return "", fmt.Errorf("%w: %w", ErrCommand, err)
	}

	waitErr := mgr.Wait()
	r.finish(cleanupCtx)

	if waitErr != nil && !signalled(waitErr) {
		return file, fmt.Errorf("%w: wf-recorder: %w", ErrCommand, waitErr)
	}

	if r.notifier != nil {
		if _, err := r.notifier.Notify(cleanupCtx, "Recording saved", file); err != nil {
			r.logger.Debug("sending notification", "error", err)
		}
	}
	return file, nil
}

func (r *Recorder) selectRegion(ctx context.Context) (string, error) {
	out, err := r.runner.Output(ctx, r.slurp)
	if err != nil {
		// slurp exits non-zero when the selection is cancelled.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", ErrNoSelection
		}
		return "", fmt.Errorf("%w: slurp: %w", ErrCommand, err)
	}
	geometry := strings.TrimSpace(string(out))
	if geometry == "" {
		return "", ErrNoSelection
	}
	return geometry, nil
}

func (r *Recorder) finish(ctx context.Context) {
	if err := r.store.PutBool(ctx, KeyRecording, false); err != nil {
		r.logger.Warn("clearing recording flag", "error", err)
	}
	if err := r.store.Delete(ctx, KeyPID); err != nil {
		r.logger.Warn("clearing recorder pid", "error", err)
	}
}

// signalled reports whether err is an exit caused by a signal, which is
// how Stop ends a recording.
func signalled(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	ws, ok := exitErr.Sys().(syscall.WaitStatus)
	return ok && ws.Signaled()
}

// Stop ends the running recording, if any, with SIGTERM so wf-recorder
// can finalise the file.
func (r *Recorder) Stop(ctx context.Context) error {
	pid, err := r.store.GetInt64(ctx, KeyPID)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.store.Delete(ctx, KeyPID); err != nil {
		return err
	}
	if err := r.kill(int(pid), syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("signalling recorder %d: %w", pid, err)
	}
	return r.store.PutBool(ctx, KeyRecording, false)
}

// Status reports the elapsed time of the running recording. Store errors
// show as not recording.
func (r *Recorder) Status(ctx context.Context, now time.Time) status.Response {
	recording, err := r.store.GetBool(ctx, KeyRecording)
	if err != nil || !recording {
		return status.Response{Class: ClassNotRecording, Text: ""}
	}
	start, err := r.store.GetInt64(ctx, KeyStart)
	if err != nil {
		return status.Response{Class: ClassNotRecording, Text: ""}
	}
	return Elapsed(now.Unix() - start)
}

// Elapsed formats a running recording of secs seconds.
func Elapsed(secs int64) status.Response {
	if secs < 0 {
		secs = 0
	}
	return status.Response{
		Class: ClassRecording,
		Text:  fmt.Sprintf("\ueba7   %02d:%02d", secs/60, secs%60),
	}
}
