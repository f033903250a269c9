package midi

import (
	"slices"
	"sort"
)

// Track is a list of events at absolute ticks.
type Track struct {
	Name   string
	Events []Event
}

func (t *Track) Add(events ...Event) {
	t.Events = append(t.Events, events...)
}

// Sort orders events by tick, keeping emission order on ties.
func (t *Track) Sort() {
	sort.SliceStable(t.Events, func(i, j int) bool {
		return t.Events[i].Tick < t.Events[j].Tick
	})
}

// End returns the tick of the last event.
func (t *Track) End() int64 {
	var end int64
	for _, e := range t.Events {
		end = max(end, e.Tick)
	}
	return end
}

// Merge interleaves tracks into one, stable on ties by argument order.
func Merge(name string, tracks ...Track) Track {
	out := Track{Name: name}
	for _, t := range tracks {
		out.Events = append(out.Events, t.Events...)
	}
	out.Sort()
	return out
}

// Stream is a MIDI file in memory with absolute ticks.
type Stream struct {
	Format       int // 0: single track, 1: parallel tracks
	TicksPerBeat int
	Tracks       []Track
}

// End returns the last tick of the stream.
func (s *Stream) End() int64 {
	var end int64
	for i := range s.Tracks {
		end = max(end, s.Tracks[i].End())
	}
	return end
}

// Count returns how many events of type typ the stream holds.
func (s *Stream) Count(typ uint8) int {
	var n int
	for _, t := range s.Tracks {
		for _, e := range t.Events {
			if e.Type == typ {
				n++
			}
		}
	}
	return n
}

// Delta is an event with the ticks elapsed since the previous event.
type Delta struct {
	Delta uint32
	Event Event
}

// RawTrack is a track in file order with delta times.
type RawTrack []Delta

// RawStream is a MIDI file as delta-timed tracks.
type RawStream struct {
	Format       int
	TicksPerBeat int
	Tracks       []RawTrack
}

// Raw converts absolute ticks to deltas. Each track is sorted first and
// named tracks get a track-name event at tick zero.
func (s *Stream) Raw() *RawStream {
	raw := &RawStream{Format: s.Format, TicksPerBeat: s.TicksPerBeat}
	for _, t := range s.Tracks {
		events := slices.Clone(t.Events)
		sort.SliceStable(events, func(i, j int) bool { return events[i].Tick < events[j].Tick })
		if t.Name != "" {
			events = append([]Event{NewTrackName(0, t.Name)}, events...)
		}

		rt := make(RawTrack, 0, len(events))
		var last int64
		for _, e := range events {
			tick := max(e.Tick, 0)
			d := Delta{Delta: uint32(tick - last), Event: e}
			d.Event.Tick = 0
			rt = append(rt, d)
			last = tick
		}
		raw.Tracks = append(raw.Tracks, rt)
	}
	return raw
}
