package music

// Event is a node of a song tree.
type Event interface {
	Duration() float64
}

// Control is an auxiliary control change sent when a note starts.
type Control struct {
	Channel    uint8 `json:"channel"`
	Controller uint8 `json:"controller"`
	Value      uint8 `json:"value"`
}

// Note is a leaf event. A note without pitches is a rest.
type Note struct {
	Length   float64 // beats
	Pitches  []Pitch
	Volume   Volume
	Controls []Control
}

// NewNote builds a note of the given length in beats.
func NewNote(length float64, volume Volume, pitches ...Pitch) *Note {
	return &Note{Length: length, Pitches: pitches, Volume: volume}
}

// Rest builds a silent note.
func Rest(length float64) *Note {
	return &Note{Length: length}
}

func (n *Note) Duration() float64 { return n.Length }

// IsRest reports whether n carries no pitches.
func (n *Note) IsRest() bool { return len(n.Pitches) == 0 }

// Sequential plays its events one after another. Events are *Note or
// nested *Sequential.
type Sequential struct {
	Name   string
	Events []Event
}

func NewSequential(name string, events ...Event) *Sequential {
	return &Sequential{Name: name, Events: events}
}

func (s *Sequential) Duration() float64 {
	var d float64
	for _, e := range s.Events {
		d += e.Duration()
	}
	return d
}

// Placed is a note at an absolute position in beats.
type Placed struct {
	Start float64
	Note  *Note
}

// Leaves flattens nested sequences into notes with absolute start offsets.
func (s *Sequential) Leaves() []Placed {
	var out []Placed
	s.collect(0, &out)
	return out
}

func (s *Sequential) collect(start float64, out *[]Placed) float64 {
	pos := start
	for _, e := range s.Events {
		switch e := e.(type) {
		case *Note:
			*out = append(*out, Placed{Start: pos, Note: e})
			pos += e.Length
		case *Sequential:
			pos = e.collect(pos, out)
		default:
			pos += e.Duration()
		}
	}
	return pos
}

// Simultaneous plays its sequences in parallel, all starting at zero.
type Simultaneous struct {
	Tracks []*Sequential
}

func NewSimultaneous(tracks ...*Sequential) *Simultaneous {
	return &Simultaneous{Tracks: tracks}
}

func (s *Simultaneous) Duration() float64 {
	var d float64
	for _, t := range s.Tracks {
		d = max(d, t.Duration())
	}
	return d
}

// Song is a set of parallel tracks with a tempo envelope.
type Song struct {
	Tempo  TempoEnvelope
	Tracks *Simultaneous
}
