package convert

import (
	"sort"

	"go-midiconv/midi"
)

// Message is a note or bend message located in the file.
type Message struct {
	Track int
	midi.Event
}

// Classified is a raw stream resolved to absolute ticks, with its note and
// pitch bend messages split out across all tracks.
type Classified struct {
	Stream   *midi.Stream
	NoteOns  []Message
	NoteOffs []Message
	Bends    []Message
}

// Classify rebuilds absolute ticks from deltas and buckets note messages by
// kind. A note-on with velocity zero counts as a note-off. Every list is
// ordered by tick, ties in track then file order.
func Classify(raw *midi.RawStream) Classified {
	c := Classified{Stream: &midi.Stream{Format: raw.Format, TicksPerBeat: raw.TicksPerBeat}}
	for ti, rt := range raw.Tracks {
		track := midi.Track{}
		var tick int64
		for _, d := range rt {
			tick += int64(d.Delta)
			ev := d.Event
			ev.Tick = tick
			switch {
			case ev.Type == midi.TrackName && track.Name == "":
				track.Name = ev.Text
			case ev.IsNoteStart():
				c.NoteOns = append(c.NoteOns, Message{Track: ti, Event: ev})
			case ev.IsNoteEnd():
				c.NoteOffs = append(c.NoteOffs, Message{Track: ti, Event: ev})
			case ev.Type == midi.PitchBend:
				c.Bends = append(c.Bends, Message{Track: ti, Event: ev})
			}
			track.Add(ev)
		}
		c.Stream.Tracks = append(c.Stream.Tracks, track)
	}

	byTick := func(ms []Message) {
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].Tick < ms[j].Tick })
	}
	byTick(c.NoteOns)
	byTick(c.NoteOffs)
	byTick(c.Bends)
	return c
}

// BendAt returns the last pitch bend on ch at or before tick, from a list
// ordered by tick. Channels start unbent.
func BendAt(bends []Message, ch uint8, tick int64) int16 {
	n := sort.Search(len(bends), func(i int) bool { return bends[i].Tick > tick })
	for i := n - 1; i >= 0; i-- {
		if bends[i].Channel == ch {
			return bends[i].BendValue
		}
	}
	return 0
}
