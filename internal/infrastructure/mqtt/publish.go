package mqtt

import "fmt"

// maxPayloadSize caps one message. A widget state is a few dozen bytes;
// anything near this is a bug upstream.
const maxPayloadSize = 64 << 10

// Publish sends payload to topic and waits for the broker to acknowledge
// it at the given QoS. A retained message is replayed to every later
// subscriber, which is what lets a dashboard show widget state at once.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return fmt.Errorf("%w: got %d", ErrInvalidQoS, qos)
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: %d byte payload on %s", ErrPublishFailed, len(payload), topic)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: no ack on %s within %v", ErrPublishFailed, topic, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}

// PublishState retains payload on StateTopic(widget) at the configured
// QoS. It satisfies status.Publisher.
func (c *Client) PublishState(widget string, payload []byte) error {
	return c.Publish(StateTopic(widget), payload, byte(c.cfg.QoS), true)
}
