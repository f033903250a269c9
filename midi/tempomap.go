package midi

import (
	"sort"
	"time"
)

// DefaultMicrosPerBeat is the tempo before the first tempo event (120 bpm).
const DefaultMicrosPerBeat = 500000

// TempoMap converts ticks to wall-clock time.
type TempoMap struct {
	TicksPerBeat int
	Changes      []Event // Tempo events ordered by tick
}

// TempoMap collects the tempo events of every track.
func (s *Stream) TempoMap() TempoMap {
	m := TempoMap{TicksPerBeat: s.TicksPerBeat}
	for _, t := range s.Tracks {
		for _, e := range t.Events {
			if e.Type == Tempo {
				m.Changes = append(m.Changes, e)
			}
		}
	}
	sort.SliceStable(m.Changes, func(i, j int) bool { return m.Changes[i].Tick < m.Changes[j].Tick })
	return m
}

// Time returns the time elapsed from the start until tick.
func (m TempoMap) Time(tick int64) time.Duration {
	if m.TicksPerBeat <= 0 {
		return 0
	}
	var micros float64
	var last int64
	tempo := uint32(DefaultMicrosPerBeat)
	for _, c := range m.Changes {
		if c.Tick >= tick {
			break
		}
		micros += float64(c.Tick-last) / float64(m.TicksPerBeat) * float64(tempo)
		last = c.Tick
		tempo = c.Micros
	}
	micros += float64(tick-last) / float64(m.TicksPerBeat) * float64(tempo)
	return time.Duration(micros * float64(time.Microsecond))
}

// Length is the playback time of the stream.
func (s *Stream) Length() time.Duration {
	return s.TempoMap().Time(s.End())
}
