package audio

import "errors"

var (
	// ErrNoDefault indicates pactl info named no default device.
	ErrNoDefault = errors.New("audio: no default device")

	// ErrCommand indicates a pactl invocation failed.
	ErrCommand = errors.New("audio: pactl failed")
)
