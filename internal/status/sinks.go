package status

import (
	"encoding/json"
	"sync"
	"time"
)

// Publisher is the subset of the MQTT client used by StateSink. The
// publisher owns the topic layout.
type Publisher interface {
	PublishState(widget string, payload []byte) error
}

// PointWriter is the subset of the InfluxDB client used by MetricSink.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]any)
}

type statePayload struct {
	Class     string `json:"class"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// StateSink mirrors widget state to retained MQTT topics.
// A response equal to the last one published for the widget is skipped,
// so a one-second poll does not flood the broker.
type StateSink struct {
	pub    Publisher
	logger Logger
	now    func() time.Time

	mu   sync.Mutex
	last map[string]Response
}

// NewStateSink creates a sink publishing through pub.
func NewStateSink(pub Publisher, logger Logger) *StateSink {
	if logger == nil {
		logger = noopLogger{}
	}
	return &StateSink{pub: pub, logger: logger, now: time.Now, last: make(map[string]Response)}
}

// Record publishes r when it differs from the previous state.
func (s *StateSink) Record(widget string, r Response) {
	s.mu.Lock()
	if prev, ok := s.last[widget]; ok && prev == r {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	payload, err := json.Marshal(statePayload{
		Class:     r.Class,
		Text:      r.Text,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Warn("encoding widget state", "widget", widget, "error", err)
		return
	}

	if err := s.pub.PublishState(widget, payload); err != nil {
		// Not remembered, so the next identical state retries.
		s.logger.Warn("publishing widget state", "widget", widget, "error", err)
		return
	}

	s.mu.Lock()
	s.last[widget] = r
	s.mu.Unlock()
}

// MeasurementWidgetState is the InfluxDB measurement written by MetricSink.
const MeasurementWidgetState = "widget_state"

// MetricSink records every emitted response as a time-series point.
type MetricSink struct {
	w PointWriter
}

// NewMetricSink creates a sink writing through w.
func NewMetricSink(w PointWriter) *MetricSink {
	return &MetricSink{w: w}
}

// Record writes one widget_state point tagged by widget and class.
// The write is batched by the client and never blocks.
func (m *MetricSink) Record(widget string, r Response) {
	m.w.WritePoint(MeasurementWidgetState,
		map[string]string{"widget": widget, "class": r.Class},
		map[string]any{"text": r.Text, "count": 1},
	)
}
