package gree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which member of a Value is set.
type Kind uint8

// Value kinds. The zero Value has KindInvalid.
const (
	KindInvalid Kind = iota
	KindInt
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Value is a device variable value: an integer or a string.
//
// The protocol carries no schema, so callers narrow with AsInt or AsString.
// A failed narrowing is reported by the second return, never an error.
type Value struct {
	kind Kind
	i    int64
	s    string
}

// IntValue returns an integer Value.
func IntValue(n int64) Value {
	return Value{kind: KindInt, i: n}
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind {
	return v.kind
}

// AsInt returns the integer value. A string holding a base-10 integer
// also narrows.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// AsString returns the string value, formatting integers in base 10.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindInt:
		return strconv.FormatInt(v.i, 10), true
	default:
		return "", false
	}
}

// Equal reports whether v and o have the same kind and contents.
func (v Value) Equal(o Value) bool {
	return v == o
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindString:
		return strconv.Quote(v.s)
	default:
		return "<invalid>"
	}
}

// MarshalJSON encodes integers as JSON numbers and strings as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindString:
		return json.Marshal(v.s)
	default:
		return nil, fmt.Errorf("%w: cannot encode invalid value", ErrInvalidRequest)
	}
}

// UnmarshalJSON accepts a JSON number or string.
//
// Integers become KindInt. Numbers with a fraction or exponent, or that
// overflow int64, keep their literal text as KindString so nothing is lost.
// Any other JSON type is a protocol error.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty value", ErrProtocol)
	}

	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		*v = StringValue(s)
		return nil
	case c == '-' || (c >= '0' && c <= '9'):
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		if n, err := num.Int64(); err == nil {
			*v = IntValue(n)
		} else {
			*v = StringValue(num.String())
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported value %s", ErrProtocol, truncate(data, 32))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
