package convert

import (
	"fmt"
	"sort"
	"strings"

	"github.com/remeh/sizedwaitgroup"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-midiconv/debug"
	"go-midiconv/midi"
	"go-midiconv/music"
)

// Decoder turns MIDI streams back into event trees.
type Decoder struct {
	opts Options
}

func NewDecoder(opts Options) (*Decoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{opts: opts}, nil
}

// Decode converts a *midi.RawStream, *midi.Stream or *smf.SMF. Every track
// holding notes becomes one sequence; the tick resolution is the file's own.
func (d *Decoder) Decode(in any) (*music.Song, *Report, error) {
	var raw *midi.RawStream
	switch v := in.(type) {
	case *midi.RawStream:
		raw = v
	case *midi.Stream:
		raw = v.Raw()
	case *smf.SMF:
		r, err := midi.FromSMF(v)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		raw = r
	default:
		return nil, nil, fmt.Errorf("%w: cannot decode %T", ErrInvalidInput, in)
	}
	if raw == nil || raw.TicksPerBeat <= 0 {
		return nil, nil, fmt.Errorf("%w: stream without tick resolution", ErrInvalidInput)
	}

	report := &Report{}
	c := Classify(raw)
	pairs, dangling, unmatched := PairNotes(c.NoteOns, c.NoteOffs)
	for _, m := range dangling {
		report.add(DanglingNoteOn, m.Track, m.Tick, "ch=%d note=%d never ends", m.Channel, m.Note)
	}
	for _, m := range unmatched {
		report.add(UnmatchedNoteOff, m.Track, m.Tick, "ch=%d note=%d was not playing", m.Channel, m.Note)
	}
	for i := range pairs {
		pairs[i].Bend = BendAt(c.Bends, pairs[i].Channel, pairs[i].Start)
	}

	byTrack := make([][]Chord, len(raw.Tracks))
	for _, ch := range GroupChords(pairs) {
		byTrack[ch.Track] = append(byTrack[ch.Track], ch)
	}

	voices := make([][]*music.Sequential, len(raw.Tracks))
	swg := sizedwaitgroup.New(d.opts.workers())
	for i := range byTrack {
		swg.Add()
		go func(i int) {
			defer swg.Done()
			voices[i] = buildVoices(c.Stream.Tracks[i].Name, byTrack[i], raw.TicksPerBeat, d.opts.decode())
		}(i)
	}
	swg.Wait()

	song := &music.Song{Tempo: tempoEnvelope(c.Stream), Tracks: &music.Simultaneous{}}
	for _, v := range voices {
		song.Tracks.Tracks = append(song.Tracks.Tracks, v...)
	}

	debug.Log("decode", "tracks=%d pairs=%d chords=%d sequences=%d", len(raw.Tracks), len(pairs), countChords(byTrack), len(song.Tracks.Tracks))
	report.summarize("decode")
	return song, report, nil
}

// buildVoices lays a track's chords out in time. Gaps become rests. A chord
// starting before the previous one ends goes to the first voice that is free
// by then, opening a new voice when none is.
func buildVoices(name string, chords []Chord, ticksPerBeat int, strategy DecodeStrategy) []*music.Sequential {
	if len(chords) == 0 {
		return nil
	}
	sort.SliceStable(chords, func(i, j int) bool { return chords[i].Start < chords[j].Start })

	var voices []*music.Sequential
	var ends []int64
	for _, ch := range chords {
		v := -1
		for i, end := range ends {
			if end <= ch.Start {
				v = i
				break
			}
		}
		if v < 0 {
			v = len(voices)
			vname := name
			if v > 0 {
				vname = strings.TrimSpace(fmt.Sprintf("%s (%d)", name, v+1))
			}
			voices = append(voices, music.NewSequential(vname))
			ends = append(ends, 0)
		}

		seq := voices[v]
		if gap := ch.Start - ends[v]; gap > 0 {
			seq.Events = append(seq.Events, music.Rest(TicksToDuration(gap, ticksPerBeat)))
		}
		seq.Events = append(seq.Events, chordNote(ch, ticksPerBeat, strategy))
		ends[v] = ch.End
	}
	return voices
}

// chordNote converts a chord to a note. Mixed velocities resolve to the
// quietest one.
func chordNote(ch Chord, ticksPerBeat int, strategy DecodeStrategy) *music.Note {
	pitches := make([]music.Pitch, len(ch.Notes))
	for i, n := range ch.Notes {
		pitches[i] = strategy.PitchOf(n.Note, n.Bend)
	}
	return strategy.NoteOf(TicksToDuration(ch.End-ch.Start, ticksPerBeat), pitches, strategy.VolumeOf(ch.MinVelocity()))
}

func tempoEnvelope(s *midi.Stream) music.TempoEnvelope {
	var env music.TempoEnvelope
	for _, e := range s.TempoMap().Changes {
		env = append(env, music.TempoPoint{
			Beat: TicksToDuration(e.Tick, s.TicksPerBeat),
			BPM:  e.BPM(),
		})
	}
	return env
}

func countChords(byTrack [][]Chord) int {
	var n int
	for _, c := range byTrack {
		n += len(c)
	}
	return n
}
