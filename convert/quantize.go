package convert

import (
	"math"

	"go-midiconv/midi"
)

// PitchBendToCents maps a bend value onto ±maxCents. Bend 0 is 0 cents,
// 8191 is +maxCents and -8192 is -maxCents.
func PitchBendToCents(bend int16, maxCents float64) float64 {
	if bend >= 0 {
		return float64(bend) / midi.MaxBend * maxCents
	}
	return float64(bend) / -midi.MinBend * maxCents
}

// CentsToPitchBend is the inverse of PitchBendToCents. Upward offsets scale
// onto 8191 steps and downward ones onto 8192, so ±maxCents reach both ends
// of the range. Larger offsets saturate.
func CentsToPitchBend(cents, maxCents float64) int16 {
	var v float64
	if cents >= 0 {
		v = cents / maxCents * midi.MaxBend
	} else {
		v = cents / maxCents * -midi.MinBend
	}
	v = math.Round(v)
	switch {
	case v > midi.MaxBend:
		return midi.MaxBend
	case v < midi.MinBend:
		return midi.MinBend
	}
	return int16(v)
}

// BeatsToTicks rounds a position in beats to the nearest tick.
func BeatsToTicks(beats float64, ticksPerBeat int) int64 {
	return int64(math.Round(beats * float64(ticksPerBeat)))
}

// TicksToDuration converts a tick count to beats.
func TicksToDuration(ticks int64, ticksPerBeat int) float64 {
	return float64(ticks) / float64(ticksPerBeat)
}
