// Package midi decodes raw channel-voice MIDI messages.
package midi

// Status nibbles for channel voice messages.
const (
	StatusNoteOff       byte = 0x80
	StatusNoteOn        byte = 0x90
	StatusPolyPressure  byte = 0xA0
	StatusControlChange byte = 0xB0
	StatusProgramChange byte = 0xC0
	StatusChannelPress  byte = 0xD0
	StatusPitchBend     byte = 0xE0
)

// Controller numbers.
const (
	CCModWheel          uint8 = 1
	CCBreath            uint8 = 2
	CCVolume            uint8 = 7
	CCPan               uint8 = 10
	CCExpression        uint8 = 11
	CCSustain           uint8 = 64
	CCHarmonicIntensity uint8 = 71
	CCBrightness        uint8 = 74
	CCAllSoundOff       uint8 = 120
	CCAllNotesOff       uint8 = 123
)

// Message is one raw channel-voice MIDI message of up to three bytes.
type Message struct {
	Data   [3]byte
	Length uint8
}

// Status returns the status nibble (message kind without the channel).
func (m Message) Status() byte {
	return m.Data[0] & 0xF0
}

// Channel returns the 0-based MIDI channel.
func (m Message) Channel() uint8 {
	return m.Data[0] & 0x0F
}

// IsControlChange reports whether the message is a control change with both
// data bytes present.
func (m Message) IsControlChange() bool {
	return m.Length >= 3 && m.Status() == StatusControlChange
}

// Controller returns the controller number of a control change message.
func (m Message) Controller() uint8 {
	return m.Data[1] & 0x7F
}

// Value returns the second data byte.
func (m Message) Value() uint8 {
	return m.Data[2] & 0x7F
}

// Normalized maps a 7-bit data value onto [0, 1].
func Normalized(value uint8) float64 {
	return float64(value&0x7F) / 127.0
}
