package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Event is one translated channel message from a surface.
type Event struct {
	Type    uint8 // NoteOn, NoteOff, CC
	Channel uint8
	Number  uint8 // note or controller
	Value   uint8 // velocity or controller value
}

// translate reads the channel messages a surface can send. Note on with
// velocity 0 is a note off.
func translate(msg gomidi.Message) (Event, bool) {
	var channel, number, value uint8
	switch {
	case msg.GetNoteOn(&channel, &number, &value):
		if value == 0 {
			return Event{Type: NoteOff, Channel: channel, Number: number}, true
		}
		return Event{Type: NoteOn, Channel: channel, Number: number, Value: value}, true
	case msg.GetNoteOff(&channel, &number, &value):
		return Event{Type: NoteOff, Channel: channel, Number: number}, true
	case msg.GetControlChange(&channel, &number, &value):
		return Event{Type: CC, Channel: channel, Number: number, Value: value}, true
	}
	return Event{}, false
}
