package status

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Response is one status bar update.
type Response struct {
	Class string `json:"class"`
	Text  string `json:"text"`
}

// Sink receives every emitted response, e.g. to mirror widget state
// elsewhere. Record must not block for long.
type Sink interface {
	Record(widget string, r Response)
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

// Emitter writes one compact JSON object per line.
//
// Thread Safety:
//   - Emit is safe for concurrent use; lines are never interleaved.
type Emitter struct {
	widget string
	mu     sync.Mutex
	w      io.Writer
	sinks  []Sink
	logger Logger
}

// NewEmitter creates an emitter for widget writing to w.
func NewEmitter(w io.Writer, widget string, sinks ...Sink) *Emitter {
	return &Emitter{widget: widget, w: w, sinks: sinks, logger: noopLogger{}}
}

// SetLogger sets the logger for write failures.
func (e *Emitter) SetLogger(logger Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	e.logger = logger
}

// AddSink appends a sink.
func (e *Emitter) AddSink(s Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

// Widget returns the widget name passed to sinks.
func (e *Emitter) Widget() string {
	return e.widget
}

// Emit writes r followed by a newline and then hands it to each sink.
func (e *Emitter) Emit(r Response) error {
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	line = append(line, '\n')

	e.mu.Lock()
	_, err = e.w.Write(line)
	sinks := e.sinks
	logger := e.logger
	e.mu.Unlock()

	if err != nil {
		logger.Warn("status write failed", "widget", e.widget, "error", err)
		return fmt.Errorf("writing status: %w", err)
	}

	for _, s := range sinks {
		s.Record(e.widget, r)
	}
	return nil
}
