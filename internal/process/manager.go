package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Status represents the current state of a managed process.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusFailed   Status = "failed"
)

// ErrAlreadyRunning is returned by Start on a manager that has a live process.
var ErrAlreadyRunning = errors.New("process: already running")

// maxLineSize bounds a single stdout or stderr line.
const maxLineSize = 1 << 20

// Config holds configuration for a managed subprocess.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the executable, resolved through PATH when not absolute.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// Env are additional environment variables (key=value format).
	// If nil, inherits from parent process.
	Env []string

	// WorkDir is the working directory for the process.
	WorkDir string

	// RestartOnFailure restarts the process whenever it exits without Stop
	// having been called or the context being cancelled.
	RestartOnFailure bool

	// RestartDelay is the delay before the first restart. Later restarts
	// double it up to MaxRestartDelay.
	RestartDelay time.Duration

	// MaxRestartDelay caps the backoff.
	MaxRestartDelay time.Duration

	// StableThreshold is how long a run must last for the backoff to reset.
	StableThreshold time.Duration

	// MaxRestartAttempts limits restart attempts. 0 means unlimited.
	MaxRestartAttempts int

	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration

	// OnStart is called with the pid each time the process starts.
	OnStart func(pid int)

	// OnStdoutLine receives each stdout line without its newline. When nil,
	// stdout is logged at debug level like stderr.
	OnStdoutLine func(line string)

	// OnStop is called when a run ends. err is nil for a clean exit or a
	// requested stop.
	OnStop func(err error)

	// OnRestart is called before each restart attempt.
	OnRestart func(attempt int)
}

// DefaultConfig returns a Config that restarts a long-lived helper such as
// an event stream.
func DefaultConfig(name, binary string, args []string) Config {
	return Config{
		Name:               name,
		Binary:             binary,
		Args:               args,
		RestartOnFailure:   true,
		RestartDelay:       time.Second,
		MaxRestartDelay:    30 * time.Second,
		StableThreshold:    time.Minute,
		MaxRestartAttempts: 10,
		GracefulTimeout:    5 * time.Second,
	}
}

// Logger defines the logging interface for the process manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager runs one subprocess at a time and supervises it.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Callbacks run on the manager's goroutines and must not call Stop.
type Manager struct {
	config Config
	logger Logger

	mu            sync.RWMutex
	cmd           *exec.Cmd
	streams       *sync.WaitGroup
	status        Status
	restartCount  int
	lastError     error
	startTime     time.Time
	stopRequested bool

	stop chan struct{}
	done chan struct{}
}

// NewManager creates a new process manager with the given configuration.
func NewManager(cfg Config) *Manager {
	if cfg.RestartDelay == 0 {
		cfg.RestartDelay = time.Second
	}
	if cfg.MaxRestartDelay == 0 {
		cfg.MaxRestartDelay = 30 * time.Second
	}
	if cfg.StableThreshold == 0 {
		cfg.StableThreshold = time.Minute
	}
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 5 * time.Second
	}

	return &Manager{
		config: cfg,
		logger: noopLogger{},
		status: StatusStopped,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = logger
}

func (m *Manager) log() Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logger
}

// Start launches the subprocess and begins supervising it. Cancelling ctx
// stops the process the same way Stop does.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.status == StatusRunning || m.status == StatusStarting {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, m.config.Name)
	}
	m.status = StatusStarting
	m.stopRequested = false
	m.restartCount = 0
	m.lastError = nil
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.mu.Unlock()

	if err := m.startProcess(ctx); err != nil {
		m.mu.Lock()
		m.status = StatusFailed
		m.lastError = err
		close(m.done)
		m.mu.Unlock()
		return err
	}

	go m.monitor(ctx)

	return nil
}

func (m *Manager) startProcess(ctx context.Context) error {
	logger := m.log()
	logger.Debug("starting process",
		"name", m.config.Name,
		"binary", m.config.Binary,
		"args", m.config.Args,
	)

	cmd := exec.CommandContext(ctx, m.config.Binary, m.config.Args...) //nolint:gosec // binary comes from config

	// New process group so shutdown reaches every child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// On cancellation ask nicely first; WaitDelay escalates to SIGKILL.
	cmd.Cancel = func() error {
		return signalGroup(cmd, syscall.SIGTERM)
	}
	cmd.WaitDelay = m.config.GracefulTimeout

	if m.config.Env != nil {
		cmd.Env = append(os.Environ(), m.config.Env...)
	}
	if m.config.WorkDir != "" {
		cmd.Dir = m.config.WorkDir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", m.config.Name, err)
	}

	streams := &sync.WaitGroup{}
	streams.Add(2)
	go func() {
		defer streams.Done()
		m.captureLines("stdout", stdout, m.config.OnStdoutLine)
	}()
	go func() {
		defer streams.Done()
		m.captureLines("stderr", stderr, nil)
	}()

	m.mu.Lock()
	m.cmd = cmd
	m.streams = streams
	m.status = StatusRunning
	m.startTime = time.Now()
	m.mu.Unlock()

	pid := cmd.Process.Pid
	logger.Debug("process started", "name", m.config.Name, "pid", pid)

	if m.config.OnStart != nil {
		m.config.OnStart(pid)
	}

	return nil
}

// captureLines hands each line to fn, or logs it when fn is nil.
func (m *Manager) captureLines(stream string, r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for scanner.Scan() {
		if fn != nil {
			fn(scanner.Text())
			continue
		}
		m.log().Debug("process output",
			"name", m.config.Name,
			"stream", stream,
			"output", scanner.Text(),
		)
	}
	if err := scanner.Err(); err != nil {
		m.log().Debug("output stream closed",
			"name", m.config.Name,
			"stream", stream,
			"error", err,
		)
		// Keep the child from blocking on a full pipe.
		_, _ = io.Copy(io.Discard, r)
	}
}

// monitor waits for each run to end and restarts it when configured.
func (m *Manager) monitor(ctx context.Context) {
	defer close(m.done)

	for {
		m.mu.RLock()
		cmd, streams, started, stop := m.cmd, m.streams, m.startTime, m.stop
		m.mu.RUnlock()

		// Pipes must be drained before Wait closes them.
		streams.Wait()
		err := cmd.Wait()
		ranFor := time.Since(started)

		m.mu.Lock()
		stopRequested := m.stopRequested || ctx.Err() != nil
		m.mu.Unlock()

		logger := m.log()

		if stopRequested {
			logger.Debug("process stopped as requested", "name", m.config.Name)
			m.mu.Lock()
			m.status = StatusStopped
			m.mu.Unlock()
			if m.config.OnStop != nil {
				m.config.OnStop(nil)
			}
			return
		}

		m.mu.Lock()
		m.lastError = err
		if err != nil {
			m.status = StatusFailed
		} else {
			m.status = StatusStopped
		}
		m.mu.Unlock()

		if m.config.OnStop != nil {
			m.config.OnStop(err)
		}

		if !m.config.RestartOnFailure {
			return
		}

		logger.Warn("process exited unexpectedly",
			"name", m.config.Name,
			"error", err,
			"ran_for", ranFor,
		)

		m.mu.Lock()
		if ranFor >= m.config.StableThreshold {
			m.restartCount = 0
		}
		m.restartCount++
		attempt := m.restartCount
		m.mu.Unlock()

		if m.config.MaxRestartAttempts > 0 && attempt > m.config.MaxRestartAttempts {
			logger.Error("max restart attempts reached",
				"name", m.config.Name,
				"attempts", attempt-1,
			)
			return
		}

		delay := m.calculateBackoffDelay(attempt)
		logger.Info("restarting process",
			"name", m.config.Name,
			"attempt", attempt,
			"delay", delay,
		)

		if m.config.OnRestart != nil {
			m.config.OnRestart(attempt)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.setStopped()
			return
		case <-stop:
			timer.Stop()
			m.setStopped()
			return
		case <-timer.C:
		}

		if err := m.startProcess(ctx); err != nil {
			logger.Error("failed to restart process", "name", m.config.Name, "error", err)
			m.mu.Lock()
			m.status = StatusFailed
			m.lastError = err
			m.mu.Unlock()
			// A missing binary will not appear by retrying.
			return
		}
	}
}

func (m *Manager) setStopped() {
	m.mu.Lock()
	m.status = StatusStopped
	m.mu.Unlock()
}

// calculateBackoffDelay returns RestartDelay doubled for every attempt
// after the first, capped at MaxRestartDelay.
func (m *Manager) calculateBackoffDelay(attempt int) time.Duration {
	delay := m.config.RestartDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= m.config.MaxRestartDelay {
			return m.config.MaxRestartDelay
		}
	}
	return delay
}

// Stop sends SIGTERM to the process group, waits up to GracefulTimeout and
// then sends SIGKILL. It returns once the manager has finished.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if m.done == nil {
		m.mu.Unlock()
		return nil
	}
	if !m.stopRequested {
		m.stopRequested = true
		close(m.stop)
	}
	cmd := m.cmd
	done := m.done
	running := m.status == StatusRunning || m.status == StatusStarting
	m.mu.Unlock()

	if !running || cmd == nil || cmd.Process == nil {
		// Either finished or waiting out a restart delay.
		<-done
		return nil
	}

	m.log().Debug("stopping process", "name", m.config.Name, "pid", cmd.Process.Pid)

	if err := signalGroup(cmd, syscall.SIGTERM); err != nil {
		m.log().Warn("failed to send SIGTERM to process group", "name", m.config.Name, "error", err)
	}

	timer := time.NewTimer(m.config.GracefulTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		m.log().Warn("graceful shutdown timeout, sending SIGKILL",
			"name", m.config.Name,
			"timeout", m.config.GracefulTimeout,
		)
	}

	if err := signalGroup(cmd, syscall.SIGKILL); err != nil {
		return fmt.Errorf("killing process group %s: %w", m.config.Name, err)
	}

	<-done
	return nil
}

// signalGroup signals the process group led by cmd. An already exited
// process is not an error.
func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-cmd.Process.Pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}

// Done is closed once the manager stops supervising: after a requested
// stop, a clean exit without restart, or when restarts are exhausted.
// It returns nil before the first Start.
func (m *Manager) Done() <-chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.done
}

// Wait blocks until Done is closed and returns the last exit error.
func (m *Manager) Wait() error {
	done := m.Done()
	if done == nil {
		return nil
	}
	<-done
	return m.LastError()
}

// Status returns the current status of the managed process.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsRunning returns true if the process is currently running.
func (m *Manager) IsRunning() bool {
	return m.Status() == StatusRunning
}

// LastError returns the error from the most recent unexpected exit.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}

// RestartCount returns the number of restarts since the last stable run.
func (m *Manager) RestartCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.restartCount
}

// PID returns the process ID, or 0 if not running.
func (m *Manager) PID() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status == StatusRunning && m.cmd != nil && m.cmd.Process != nil {
		return m.cmd.Process.Pid
	}
	return 0
}
