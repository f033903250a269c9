package convert

// Chord is a set of notes of one track sharing start and end.
type Chord struct {
	Track int
	Start int64
	End   int64
	Notes []NotePair // in note-on order
}

// MinVelocity is the quietest velocity in the chord.
func (c Chord) MinVelocity() uint8 {
	v := uint8(127)
	for _, n := range c.Notes {
		v = min(v, n.Velocity)
	}
	return v
}

type chordKey struct {
	track      int
	start, end int64
}

// GroupChords merges pairs with identical track, start and end. Chords come
// back in order of their first note.
func GroupChords(pairs []NotePair) []Chord {
	var chords []Chord
	index := make(map[chordKey]int)
	for _, p := range pairs {
		k := chordKey{p.Track, p.Start, p.End}
		i, ok := index[k]
		if !ok {
			i = len(chords)
			index[k] = i
			chords = append(chords, Chord{Track: p.Track, Start: p.Start, End: p.End})
		}
		chords[i].Notes = append(chords[i].Notes, p)
	}
	return chords
}
