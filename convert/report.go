package convert

import (
	"errors"
	"fmt"

	"go-midiconv/debug"
)

// ErrInvalidInput is returned when a value is neither an event tree nor a
// MIDI stream, or carries values no MIDI file can hold.
var ErrInvalidInput = errors.New("invalid input")

// Kind classifies a problem the converter recovered from.
type Kind int

const (
	UnrepresentablePitch Kind = iota // clamped to note 0 or 127
	ExcessiveTempo                   // slower than the tempo ceiling, clamped
	ExcessiveTempoFloor              // faster than 1us per beat, clamped
	DanglingNoteOn                   // note-on without note-off, dropped
	UnmatchedNoteOff                 // note-off without note-on, dropped
	ChannelExhaustion                // channels reused
)

var kindNames = map[Kind]string{
	UnrepresentablePitch: "unrepresentable pitch",
	ExcessiveTempo:       "excessive tempo",
	ExcessiveTempoFloor:  "excessive tempo floor",
	DanglingNoteOn:       "dangling note-on",
	UnmatchedNoteOff:     "unmatched note-off",
	ChannelExhaustion:    "channel exhaustion",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Warning is one recovered problem.
type Warning struct {
	Kind   Kind
	Track  int
	Tick   int64
	Detail string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (track %d, tick %d): %s", w.Kind, w.Track, w.Tick, w.Detail)
}

// Report collects the warnings of one Encode or Decode call.
type Report struct {
	Warnings []Warning
}

func (r *Report) add(kind Kind, track int, tick int64, format string, args ...any) {
	w := Warning{Kind: kind, Track: track, Tick: tick, Detail: fmt.Sprintf(format, args...)}
	r.Warnings = append(r.Warnings, w)
	debug.Log("convert", "%s", w)
}

// Count returns the number of warnings of kind k.
func (r *Report) Count(k Kind) int {
	var n int
	for _, w := range r.Warnings {
		if w.Kind == k {
			n++
		}
	}
	return n
}

func (r *Report) merge(o *Report) {
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// summarize writes one warning line per kind.
func (r *Report) summarize(category string) {
	for k := UnrepresentablePitch; k <= ChannelExhaustion; k++ {
		if n := r.Count(k); n > 0 {
			debug.Warn(category, "%s: %d", k, n)
		}
	}
}
