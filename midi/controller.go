package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Controller is a connected MIDI surface.
type Controller interface {
	ID() string

	// Input events from the surface. Closed by Close.
	Events() <-chan Event

	// Output to the surface
	Send(msg gomidi.Message) error

	// Lifecycle
	Close() error
}
