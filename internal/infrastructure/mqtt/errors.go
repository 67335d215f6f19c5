package mqtt

import "errors"

var (
	// ErrConnectionFailed means the broker refused or never answered the
	// first connect. The widget runs without a state mirror.
	ErrConnectionFailed = errors.New("mqtt: broker unreachable")

	// ErrNotConnected means the broker link is down, either lost or
	// closed. Paho reconnects a lost link in the background.
	ErrNotConnected = errors.New("mqtt: not connected to broker")

	// ErrPublishFailed wraps a publish the broker did not acknowledge in time.
	ErrPublishFailed = errors.New("mqtt: state not delivered")

	// ErrInvalidQoS rejects a QoS above 2.
	ErrInvalidQoS = errors.New("mqtt: qos must be 0, 1 or 2")

	// ErrInvalidTopic rejects an empty topic.
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
