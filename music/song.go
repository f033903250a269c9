package music

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// songState is the JSON form of a Song.
type songState struct {
	Tempo  TempoEnvelope `json:"tempo,omitempty"`
	Tracks []trackState  `json:"tracks"`
}

type trackState struct {
	Name   string       `json:"name,omitempty"`
	Events []eventState `json:"events"`
}

// eventState is a note, a rest, or (when Events is set) a nested sequence.
type eventState struct {
	Duration  float64      `json:"duration,omitempty"`
	Pitches   []pitchState `json:"pitches,omitempty"`
	Dynamic   string       `json:"dynamic,omitempty"`
	Velocity  *uint8       `json:"velocity,omitempty"`
	Amplitude *float64     `json:"amplitude,omitempty"`
	Controls  []Control    `json:"controls,omitempty"`

	Name   string       `json:"name,omitempty"`
	Events []eventState `json:"events,omitempty"`
}

type pitchState struct {
	Note     *float64 `json:"note,omitempty"`
	Hz       *float64 `json:"hz,omitempty"`
	Envelope Envelope `json:"envelope,omitempty"`
}

// ReadSong decodes a JSON song document.
func ReadSong(r io.Reader) (*Song, error) {
	var st songState
	if err := json.NewDecoder(r).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode song: %w", err)
	}

	song := &Song{Tempo: st.Tempo, Tracks: &Simultaneous{}}
	for i, p := range st.Tempo {
		if p.BPM <= 0 {
			return nil, fmt.Errorf("tempo point %d: bpm %g must be positive", i, p.BPM)
		}
	}
	for i, ts := range st.Tracks {
		seq, err := sequenceFromState(ts.Name, ts.Events)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		song.Tracks.Tracks = append(song.Tracks.Tracks, seq)
	}
	return song, nil
}

func sequenceFromState(name string, events []eventState) (*Sequential, error) {
	seq := &Sequential{Name: name}
	for i, es := range events {
		if es.Events != nil {
			sub, err := sequenceFromState(es.Name, es.Events)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
			}
			seq.Events = append(seq.Events, sub)
			continue
		}
		n, err := noteFromState(es)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		seq.Events = append(seq.Events, n)
	}
	return seq, nil
}

func noteFromState(es eventState) (*Note, error) {
	if es.Duration < 0 {
		return nil, fmt.Errorf("negative duration %g", es.Duration)
	}
	n := &Note{Length: es.Duration, Controls: es.Controls}

	for _, ps := range es.Pitches {
		switch {
		case ps.Note != nil:
			n.Pitches = append(n.Pitches, MIDIPitch{Number: *ps.Note, Glide: ps.Envelope})
		case ps.Hz != nil:
			if *ps.Hz <= 0 {
				return nil, fmt.Errorf("frequency %g must be positive", *ps.Hz)
			}
			n.Pitches = append(n.Pitches, DirectPitch{Hz: *ps.Hz, Glide: ps.Envelope})
		default:
			return nil, fmt.Errorf("pitch needs either note or hz")
		}
	}

	switch {
	case es.Dynamic != "":
		v, err := NewWesternVolume(es.Dynamic)
		if err != nil {
			return nil, err
		}
		n.Volume = v
	case es.Velocity != nil:
		n.Volume = Velocity(*es.Velocity)
	case es.Amplitude != nil:
		n.Volume = DirectVolume{Amplitude: *es.Amplitude}
	case !n.IsRest():
		n.Volume = WesternVolume{Dynamic: "mf"}
	}
	return n, nil
}

// WriteSong encodes s as an indented JSON document.
func WriteSong(w io.Writer, s *Song) error {
	st := songState{Tempo: s.Tempo, Tracks: []trackState{}}
	if s.Tracks != nil {
		for _, seq := range s.Tracks.Tracks {
			st.Tracks = append(st.Tracks, trackState{Name: seq.Name, Events: eventsToState(seq.Events)})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

func eventsToState(events []Event) []eventState {
	out := make([]eventState, 0, len(events))
	for _, e := range events {
		switch e := e.(type) {
		case *Sequential:
			out = append(out, eventState{Name: e.Name, Events: eventsToState(e.Events)})
		case *Note:
			out = append(out, noteToState(e))
		}
	}
	return out
}

func noteToState(n *Note) eventState {
	es := eventState{Duration: n.Length, Controls: n.Controls}
	for _, p := range n.Pitches {
		var ps pitchState
		switch p := p.(type) {
		case MIDIPitch:
			num := p.Number
			ps.Note = &num
		default:
			hz := p.Frequency()
			ps.Hz = &hz
		}
		ps.Envelope = EnvelopeOf(p)
		es.Pitches = append(es.Pitches, ps)
	}
	switch v := n.Volume.(type) {
	case nil:
	case WesternVolume:
		es.Dynamic = v.Dynamic
	case DirectVolume:
		a := v.Amplitude
		es.Amplitude = &a
	default:
		vel := v.MIDIVelocity()
		es.Velocity = &vel
	}
	return es
}

// LoadSong reads a song document from path.
func LoadSong(path string) (*Song, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open song %s", path)
	}
	defer f.Close()
	s, err := ReadSong(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read song %s", path)
	}
	return s, nil
}

// SaveSong writes s to path, replacing any existing file.
func SaveSong(path string, s *Song) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create song %s", path)
	}
	if err := WriteSong(f, s); err != nil {
		f.Close()
		return errors.Wrapf(err, "write song %s", path)
	}
	return errors.Wrap(f.Close(), "close song")
}
