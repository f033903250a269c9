package convert

import (
	"math"

	"go-midiconv/debug"
	"go-midiconv/midi"
	"go-midiconv/music"
)

// NearestNote finds the equal-tempered note closest to hz and the remaining
// offset in cents.
func NearestNote(hz float64) (int, float64) {
	exact := music.FrequencyToNote(hz)
	note := math.Round(exact)
	return int(note), (exact - note) * 100
}

// Tuner realises pitches as a note number plus pitch bends. It keeps no
// per-channel state, since other tracks may bend the same channels.
type Tuner struct {
	MaxBendCents float64

	track  int
	report *Report
}

func NewTuner(maxBendCents float64, track int, report *Report) *Tuner {
	return &Tuner{MaxBendCents: maxBendCents, track: track, report: report}
}

// Tune maps p, sounding on ch over [start, end), to a MIDI note and the bend
// events that realise its microtonal offset. A static pitch gets one bend
// at start-1 when its offset is nonzero.
func (t *Tuner) Tune(start, end int64, p music.Pitch, ch uint8) (uint8, []midi.Event) {
	note, cents := t.resolve(start, p.Frequency())
	if ch > 15 {
		t.report.add(UnrepresentablePitch, t.track, start, "channel %d out of range 0..15, bends dropped", ch)
		return note, nil
	}

	env := music.EnvelopeOf(p)
	if env == nil || end <= start {
		bend := CentsToPitchBend(cents, t.MaxBendCents)
		if bend == 0 {
			return note, nil
		}
		// one tick early so the bend lands before the note-on
		return note, []midi.Event{midi.NewPitchBend(max(start-1, 0), ch, bend)}
	}

	n := end - start
	span := env.Duration()
	var (
		bends []midi.Event
		last  int16
	)
	for i := range n {
		var rel float64
		if n > 1 {
			rel = float64(i) / float64(n-1)
		}
		bend := CentsToPitchBend(cents+env.ValueAt(rel*span), t.MaxBendCents)
		if i > 0 && bend == last {
			continue
		}
		last = bend
		bends = append(bends, midi.NewPitchBend(start+i, ch, bend))
		debug.LogEvery(256, "tune", "glide bend %d on channel %d at tick %d", bend, ch, start+i)
	}
	return note, bends
}

func (t *Tuner) resolve(tick int64, hz float64) (uint8, float64) {
	if math.IsNaN(hz) || math.IsInf(hz, 0) || hz <= 0 {
		t.report.add(UnrepresentablePitch, t.track, tick, "frequency %g Hz, using note 0", hz)
		return 0, 0
	}
	note, cents := NearestNote(hz)
	switch {
	case note < 0:
		t.report.add(UnrepresentablePitch, t.track, tick, "%.3f Hz is below note 0", hz)
		cents += float64(note) * 100
		note = 0
	case note > 127:
		t.report.add(UnrepresentablePitch, t.track, tick, "%.3f Hz is above note 127", hz)
		cents += float64(note-127) * 100
		note = 127
	}
	return uint8(note), cents
}
