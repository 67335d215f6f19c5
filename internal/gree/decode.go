package gree

import (
	"encoding/json"
	"fmt"
)

// decodeValues turns a positional value array (dat of a status reply, val
// of a command reply) into Values aligned with requested. A count mismatch
// is a ShapeError; the result is never truncated or padded.
func decodeValues(field string, payload []json.RawMessage, requested []Variable) ([]Value, error) {
	if len(payload) != len(requested) {
		return nil, &ShapeError{Field: field, Requested: len(requested), Received: len(payload)}
	}

	values := make([]Value, len(payload))
	for i, raw := range payload {
		if err := json.Unmarshal(raw, &values[i]); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", requested[i], err)
		}
	}
	return values, nil
}

// checkNames verifies that echoed field names match what was sent.
// An empty echo is accepted; some firmware omits it.
func checkNames(field string, echoed, sent []string) error {
	if len(echoed) == 0 {
		return nil
	}
	if len(echoed) != len(sent) {
		return &ShapeError{Field: field, Requested: len(sent), Received: len(echoed)}
	}
	for i := range sent {
		if echoed[i] != sent[i] {
			return fmt.Errorf("%w: %s[%d] is %q, sent %q", ErrProtocol, field, i, echoed[i], sent[i])
		}
	}
	return nil
}
