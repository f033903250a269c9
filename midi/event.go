package midi

import (
	"fmt"
	"unicode/utf8"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"golang.org/x/text/encoding/charmap"
)

// MIDI message types. Channel messages use their status nibble,
// meta events their meta type.
const (
	NoteOn    uint8 = 0x90
	NoteOff   uint8 = 0x80
	CC        uint8 = 0xB0
	PitchBend uint8 = 0xE0
	Tempo     uint8 = 0x51
	TrackName uint8 = 0x03
)

// Value ranges of the wire format.
const (
	MinBend          = -8192
	MaxBend          = 8191
	MaxMicrosPerBeat = 0xFFFFFF
)

// Event is one MIDI message at an absolute tick.
type Event struct {
	Tick       int64
	Type       uint8 // NoteOn, NoteOff, CC, PitchBend, Tempo, TrackName
	Channel    uint8
	Note       uint8
	Velocity   uint8
	BendValue  int16  // PitchBend, -8192..8191
	Controller uint8  // CC
	Value      uint8  // CC
	Micros     uint32 // Tempo, microseconds per beat
	Text       string // TrackName
}

func NewNoteOn(tick int64, ch, note, vel uint8) Event {
	return Event{Tick: tick, Type: NoteOn, Channel: ch, Note: note, Velocity: vel}
}

func NewNoteOff(tick int64, ch, note, vel uint8) Event {
	return Event{Tick: tick, Type: NoteOff, Channel: ch, Note: note, Velocity: vel}
}

func NewPitchBend(tick int64, ch uint8, value int16) Event {
	return Event{Tick: tick, Type: PitchBend, Channel: ch, BendValue: value}
}

func NewControl(tick int64, ch, controller, value uint8) Event {
	return Event{Tick: tick, Type: CC, Channel: ch, Controller: controller, Value: value}
}

func NewTempo(tick int64, micros uint32) Event {
	return Event{Tick: tick, Type: Tempo, Micros: micros}
}

func NewTrackName(tick int64, name string) Event {
	return Event{Tick: tick, Type: TrackName, Text: name}
}

// BPM converts a tempo event's microseconds per beat.
func (e Event) BPM() float64 {
	if e.Micros == 0 {
		return 0
	}
	return 60e6 / float64(e.Micros)
}

// IsNoteStart reports a note-on with nonzero velocity.
func (e Event) IsNoteStart() bool { return e.Type == NoteOn && e.Velocity > 0 }

// IsNoteEnd reports a note-off or a note-on with velocity zero.
func (e Event) IsNoteEnd() bool {
	return e.Type == NoteOff || (e.Type == NoteOn && e.Velocity == 0)
}

func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("%6d note-on    ch=%-2d note=%-3d vel=%d", e.Tick, e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return fmt.Sprintf("%6d note-off   ch=%-2d note=%-3d vel=%d", e.Tick, e.Channel, e.Note, e.Velocity)
	case PitchBend:
		return fmt.Sprintf("%6d pitchbend  ch=%-2d value=%d", e.Tick, e.Channel, e.BendValue)
	case CC:
		return fmt.Sprintf("%6d control    ch=%-2d cc=%d value=%d", e.Tick, e.Channel, e.Controller, e.Value)
	case Tempo:
		return fmt.Sprintf("%6d tempo      %dus/beat (%.2f bpm)", e.Tick, e.Micros, e.BPM())
	case TrackName:
		return fmt.Sprintf("%6d track-name %q", e.Tick, e.Text)
	}
	return fmt.Sprintf("%6d type=0x%02x", e.Tick, e.Type)
}

// Message encodes e in wire format.
func (e Event) Message() ([]byte, error) {
	if e.Channel > 15 {
		return nil, fmt.Errorf("channel %d out of range 0..15", e.Channel)
	}
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity), nil
	case NoteOff:
		return gomidi.NoteOffVelocity(e.Channel, e.Note, e.Velocity), nil
	case PitchBend:
		return gomidi.Pitchbend(e.Channel, e.BendValue), nil
	case CC:
		return gomidi.ControlChange(e.Channel, e.Controller, e.Value), nil
	case Tempo:
		if e.Micros == 0 || e.Micros > MaxMicrosPerBeat {
			return nil, fmt.Errorf("tempo %dus/beat out of range 1..%d", e.Micros, MaxMicrosPerBeat)
		}
		// FF 51 03 tt tt tt, written raw to keep microsecond precision
		return smf.Message([]byte{0xFF, Tempo, 0x03, byte(e.Micros >> 16), byte(e.Micros >> 8), byte(e.Micros)}), nil
	case TrackName:
		return smf.MetaTrackSequenceName(e.Text), nil
	}
	return nil, fmt.Errorf("unsupported event type 0x%02x", e.Type)
}

// ParseMessage decodes a wire message. Messages this package does not model
// report false.
func ParseMessage(b []byte) (Event, bool) {
	if len(b) >= 2 && b[0] == 0xFF {
		return parseMeta(b)
	}

	msg := gomidi.Message(b)
	var ch, key, vel, cc, val uint8
	var rel int16
	var abs uint16
	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		return NewNoteOn(0, ch, key, vel), true
	case msg.GetNoteOff(&ch, &key, &vel):
		return NewNoteOff(0, ch, key, vel), true
	case msg.GetPitchBend(&ch, &rel, &abs):
		return NewPitchBend(0, ch, rel), true
	case msg.GetControlChange(&ch, &cc, &val):
		return NewControl(0, ch, cc, val), true
	}
	return Event{}, false
}

func parseMeta(b []byte) (Event, bool) {
	switch b[1] {
	case Tempo:
		// FF 51 03 tt tt tt, read raw to keep microsecond precision
		if len(b) != 6 || b[2] != 0x03 {
			return Event{}, false
		}
		return NewTempo(0, uint32(b[3])<<16|uint32(b[4])<<8|uint32(b[5])), true
	case TrackName:
		var text string
		if !smf.Message(b).GetMetaTrackName(&text) {
			return Event{}, false
		}
		return NewTrackName(0, decodeText([]byte(text))), true
	}
	return Event{}, false
}

// decodeText reads meta text. Older files store Latin-1 rather than UTF-8.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(s)
}
