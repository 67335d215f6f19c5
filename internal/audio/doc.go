// Package audio reads mute state for the mute and mic widgets.
//
// State comes from `pactl info` and `pactl list sinks|sources`; changes
// come from the `pactl subscribe` event stream, which runs under a
// process.Manager so a restarted sound server does not end the widget.
package audio
