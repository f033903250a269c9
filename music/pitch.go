package music

import (
	"fmt"
	"math"
)

// Equal temperament reference: A4 = 440 Hz = MIDI note 69.
const (
	ReferenceFrequency = 440.0
	ReferenceNote      = 69
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Pitch is anything that sounds at a frequency.
type Pitch interface {
	Frequency() float64
}

// Enveloped is implemented by pitches that glide over the note they belong to.
type Enveloped interface {
	Envelope() Envelope
}

// MIDIPitch is a (possibly fractional) MIDI note number.
type MIDIPitch struct {
	Number float64
	Glide  Envelope
}

func (p MIDIPitch) Frequency() float64 { return NoteToFrequency(p.Number) }
func (p MIDIPitch) Envelope() Envelope { return p.Glide }

func (p MIDIPitch) String() string {
	n := int(math.Round(p.Number))
	if cents := (p.Number - float64(n)) * 100; math.Abs(cents) >= 0.5 {
		return fmt.Sprintf("%s%+.0fc", NoteName(n), cents)
	}
	return NoteName(n)
}

// DirectPitch is a frequency in Hz.
type DirectPitch struct {
	Hz    float64
	Glide Envelope
}

func (p DirectPitch) Frequency() float64 { return p.Hz }
func (p DirectPitch) Envelope() Envelope { return p.Glide }
func (p DirectPitch) String() string     { return fmt.Sprintf("%.2fHz", p.Hz) }

// EnvelopeOf returns the glide of p, or nil when p is static.
func EnvelopeOf(p Pitch) Envelope {
	if e, ok := p.(Enveloped); ok && len(e.Envelope()) > 0 {
		return e.Envelope()
	}
	return nil
}

// NoteToFrequency converts a fractional MIDI note number to Hz.
func NoteToFrequency(n float64) float64 {
	return ReferenceFrequency * math.Pow(2, (n-ReferenceNote)/12)
}

// FrequencyToNote converts Hz to a fractional MIDI note number.
func FrequencyToNote(hz float64) float64 {
	return ReferenceNote + 12*math.Log2(hz/ReferenceFrequency)
}

// NoteName formats a MIDI note number as e.g. "A4" (middle C is C4).
func NoteName(n int) string {
	if n < 0 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s%d", noteNames[n%12], n/12-1)
}
