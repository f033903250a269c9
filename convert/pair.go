package convert

// NotePair is a note-on matched with the note-off that ends it.
type NotePair struct {
	Track    int // track of the note-on
	Channel  uint8
	Note     uint8
	Velocity uint8
	Start    int64
	End      int64
	Bend     int16 // pitch bend in force on the channel at Start
}

func noteKey(ch, note uint8) uint16 {
	return uint16(ch)<<8 | uint16(note)
}

// PairNotes matches every note-on, in order, with the earliest unused
// note-off of the same channel and note at or after its tick. Overlapping
// notes of one pitch on one channel can pair crosswise; that is accepted.
// Note-ons left without a partner come back as dangling, unused note-offs
// as unmatched.
func PairNotes(ons, offs []Message) (pairs []NotePair, dangling, unmatched []Message) {
	pending := make(map[uint16][]int)
	for i, off := range offs {
		k := noteKey(off.Channel, off.Note)
		pending[k] = append(pending[k], i)
	}
	used := make([]bool, len(offs))

	for _, on := range ons {
		k := noteKey(on.Channel, on.Note)
		queue := pending[k]
		match := -1
		for qi, oi := range queue {
			if used[oi] || offs[oi].Tick < on.Tick {
				continue
			}
			match = oi
			// drop consumed and stale entries from the front
			if qi == 0 {
				pending[k] = queue[1:]
			}
			break
		}
		if match < 0 {
			dangling = append(dangling, on)
			continue
		}
		used[match] = true
		pairs = append(pairs, NotePair{
			Track:    on.Track,
			Channel:  on.Channel,
			Note:     on.Note,
			Velocity: on.Velocity,
			Start:    on.Tick,
			End:      offs[match].Tick,
		})
	}

	for i, off := range offs {
		if !used[i] {
			unmatched = append(unmatched, off)
		}
	}
	return pairs, dangling, unmatched
}
