// Package event provides timestamped render events and the segmented render
// loop that interleaves them with audio processing.
package event

// Type discriminates the kinds of render events a host can schedule.
type Type uint8

const (
	// TypeParameter is an immediate parameter change.
	TypeParameter Type = iota
	// TypeParameterRamp is a parameter change smoothed over a ramp duration.
	TypeParameterRamp
	// TypeMIDI is a raw MIDI message.
	TypeMIDI
)

// ParameterEvent changes one parameter value, optionally ramped.
type ParameterEvent struct {
	Address            uint32
	Value              float64
	RampDurationFrames uint32
}

// MIDIEvent carries one raw MIDI message. Data holds at most three bytes;
// Length says how many are valid.
type MIDIEvent struct {
	Cable  uint8
	Length uint8
	Data   [3]byte
}

// Event is one node of a host-owned, null-terminated singly linked list,
// ordered ascending by SampleTime. The processor only reads events and
// never reorders them.
type Event struct {
	SampleTime int64
	Type       Type
	Parameter  ParameterEvent
	MIDI       MIDIEvent
	Next       *Event
}

// Link chains the given events in order and returns the head, or nil.
// Events must already be sorted ascending by SampleTime.
func Link(events ...*Event) *Event {
	if len(events) == 0 {
		return nil
	}
	for i := 0; i < len(events)-1; i++ {
		events[i].Next = events[i+1]
	}
	events[len(events)-1].Next = nil
	return events[0]
}
