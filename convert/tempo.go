package convert

import (
	"fmt"
	"math"
	"sort"

	"go-midiconv/midi"
	"go-midiconv/music"
)

// BPMToMicros converts beats per minute to microseconds per beat.
func BPMToMicros(bpm float64) (int64, error) {
	if !(bpm > 0) || math.IsInf(bpm, 0) {
		return 0, fmt.Errorf("%w: tempo %g bpm must be positive", ErrInvalidInput, bpm)
	}
	return int64(math.Round(60e6 / bpm)), nil
}

// TempoTrack emits one tempo event per breakpoint. Tempos slower than
// ceiling microseconds per beat are clamped to it, tempos faster than one
// microsecond per beat to that. Breakpoints landing on the same tick are
// all kept.
func TempoTrack(env music.TempoEnvelope, ticksPerBeat int, ceiling uint32, report *Report) (midi.Track, error) {
	if len(env) == 0 {
		env = music.ConstantTempo(music.DefaultBPM)
	}

	track := midi.Track{}
	for i, p := range env {
		if p.Beat < 0 {
			return midi.Track{}, fmt.Errorf("%w: tempo point %d at negative beat %g", ErrInvalidInput, i, p.Beat)
		}
		micros, err := BPMToMicros(p.BPM)
		if err != nil {
			return midi.Track{}, fmt.Errorf("tempo point %d: %w", i, err)
		}

		tick := BeatsToTicks(p.Beat, ticksPerBeat)
		switch {
		case micros > int64(ceiling):
			report.add(ExcessiveTempo, 0, tick, "%g bpm needs %dus/beat, clamped to %d", p.BPM, micros, ceiling)
			micros = int64(ceiling)
		case micros < 1:
			report.add(ExcessiveTempoFloor, 0, tick, "%g bpm is faster than 1us/beat", p.BPM)
			micros = 1
		}
		track.Add(midi.NewTempo(tick, uint32(micros)))
	}

	sort.SliceStable(track.Events, func(i, j int) bool {
		return track.Events[i].Tick < track.Events[j].Tick
	})
	return track, nil
}
