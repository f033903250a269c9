package render

import (
	"bytes"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	meltysynth "github.com/sinshu/go-meltysynth/meltysynth"

	"go-midiconv/debug"
	"go-midiconv/midi"
)

const (
	DefaultSampleRate = 44100
	block             = 64
)

// synthesizer abstracts the subset of meltysynth.Synthesizer used by Render.
type synthesizer interface {
	ProcessMidiMessage(channel int32, command int32, data1, data2 int32)
	Render(left, right []float32)
}

// newSynthesizer constructs a meltysynth synthesizer. Tests override this to
// inject a mock.
var newSynthesizer = func(sf *meltysynth.SoundFont, settings *meltysynth.SynthesizerSettings) (synthesizer, error) {
	return meltysynth.NewSynthesizer(sf, settings)
}

// LoadSoundFont reads an SF2 file.
func LoadSoundFont(path string) (*meltysynth.SoundFont, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read soundfont")
	}
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "parse soundfont %s", path)
	}
	return sf, nil
}

// Renderer plays a stream through a SoundFont synthesizer offline.
type Renderer struct {
	SoundFont  *meltysynth.SoundFont
	SampleRate int
	Tail       time.Duration // rendered after the last event for release and reverb
}

func New(sf *meltysynth.SoundFont, sampleRate int, tail time.Duration) *Renderer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Renderer{SoundFont: sf, SampleRate: sampleRate, Tail: tail}
}

// cue is a channel message due at an absolute sample offset.
type cue struct {
	sample int
	event  midi.Event
}

// schedule places every channel message of s on the sample timeline.
// Note-offs sort before note-ons at the same sample so retriggers sound.
func schedule(s *midi.Stream, sampleRate int) []cue {
	tm := s.TempoMap()
	var cues []cue
	for _, t := range s.Tracks {
		for _, e := range t.Events {
			switch e.Type {
			case midi.NoteOn, midi.NoteOff, midi.CC, midi.PitchBend:
			default:
				continue
			}
			cues = append(cues, cue{sample: samples(tm.Time(e.Tick), sampleRate), event: e})
		}
	}
	sort.SliceStable(cues, func(i, j int) bool {
		if cues[i].sample != cues[j].sample {
			return cues[i].sample < cues[j].sample
		}
		return cues[i].event.IsNoteEnd() && !cues[j].event.IsNoteEnd()
	})
	return cues
}

func samples(d time.Duration, sampleRate int) int {
	return int((d.Nanoseconds()*int64(sampleRate) + int64(time.Second/2)) / int64(time.Second))
}

func dispatch(syn synthesizer, e midi.Event) {
	ch := int32(e.Channel)
	switch e.Type {
	case midi.NoteOn:
		syn.ProcessMidiMessage(ch, int32(midi.NoteOn), int32(e.Note), int32(e.Velocity))
	case midi.NoteOff:
		syn.ProcessMidiMessage(ch, int32(midi.NoteOff), int32(e.Note), int32(e.Velocity))
	case midi.CC:
		syn.ProcessMidiMessage(ch, int32(midi.CC), int32(e.Controller), int32(e.Value))
	case midi.PitchBend:
		v := int32(e.BendValue) - midi.MinBend
		syn.ProcessMidiMessage(ch, int32(midi.PitchBend), v&0x7F, v>>7)
	}
}

// Render returns the left and right samples of s.
func (r *Renderer) Render(s *midi.Stream) ([]float32, []float32, error) {
	if r.SoundFont == nil {
		return nil, nil, errors.New("no soundfont loaded")
	}
	settings := meltysynth.NewSynthesizerSettings(int32(r.SampleRate))
	syn, err := newSynthesizer(r.SoundFont, settings)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create synthesizer")
	}

	cues := schedule(s, r.SampleRate)
	end := samples(s.Length(), r.SampleRate)
	total := end + samples(r.Tail, r.SampleRate)
	debug.Log("render", "%d cues over %d samples at %dHz", len(cues), total, r.SampleRate)

	left := make([]float32, total)
	right := make([]float32, total)
	next := 0
	for pos := 0; pos < total; {
		for next < len(cues) && cues[next].sample <= pos {
			dispatch(syn, cues[next].event)
			next++
		}
		n := min(block, total-pos)
		if next < len(cues) {
			n = min(n, cues[next].sample-pos)
		}
		syn.Render(left[pos:pos+n], right[pos:pos+n])
		pos += n
	}
	return left, right, nil
}
