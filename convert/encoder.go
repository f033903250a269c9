package convert

import (
	"fmt"

	"github.com/remeh/sizedwaitgroup"

	"go-midiconv/debug"
	"go-midiconv/midi"
	"go-midiconv/music"
)

// Encoder turns event trees into MIDI streams.
type Encoder struct {
	opts Options
}

func NewEncoder(opts Options) (*Encoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{opts: opts}, nil
}

// Encode converts a *music.Song, *music.Simultaneous, *music.Sequential or
// *music.Note. Songs bring their own tempo envelope, everything else plays
// at music.DefaultBPM.
func (e *Encoder) Encode(in any) (*midi.Stream, *Report, error) {
	var tempo music.TempoEnvelope
	var tracks []*music.Sequential
	switch v := in.(type) {
	case *music.Song:
		tempo = v.Tempo
		if v.Tracks != nil {
			tracks = v.Tracks.Tracks
		}
	case *music.Simultaneous:
		tracks = v.Tracks
	case *music.Sequential:
		tracks = []*music.Sequential{v}
	case *music.Note:
		tracks = []*music.Sequential{music.NewSequential("", v)}
	default:
		return nil, nil, fmt.Errorf("%w: cannot encode %T", ErrInvalidInput, in)
	}
	for i, t := range tracks {
		if t == nil {
			return nil, nil, fmt.Errorf("%w: track %d is nil", ErrInvalidInput, i)
		}
	}

	report := &Report{}
	tempoTrack, err := TempoTrack(tempo, e.opts.TicksPerBeat, e.opts.MaxMicrosPerBeat, report)
	if err != nil {
		return nil, nil, err
	}

	groups := AllocateChannels(len(tracks), e.opts.Channels, e.opts.DistributeChannels, e.opts.ChannelsPerTrack)
	if e.opts.DistributeChannels && len(tracks)*e.opts.ChannelsPerTrack > len(e.opts.Channels) {
		report.add(ChannelExhaustion, 0, 0, "%d tracks of %d channels exceed a pool of %d, groups overlap",
			len(tracks), e.opts.ChannelsPerTrack, len(e.opts.Channels))
	}

	voices := make([]midi.Track, len(tracks))
	reports := make([]Report, len(tracks))
	swg := sizedwaitgroup.New(e.opts.workers())
	for i, t := range tracks {
		swg.Add()
		go func(i int, t *music.Sequential) {
			defer swg.Done()
			voices[i] = e.encodeTrack(i, t, NewCycle(groups[i]), &reports[i])
		}(i, t)
	}
	swg.Wait()
	for i := range reports {
		report.merge(&reports[i])
	}

	stream := &midi.Stream{Format: e.opts.FileType, TicksPerBeat: e.opts.TicksPerBeat}
	if e.opts.FileType == 0 {
		stream.Tracks = []midi.Track{midi.Merge("", append([]midi.Track{tempoTrack}, voices...)...)}
	} else {
		stream.Tracks = append([]midi.Track{tempoTrack}, voices...)
		for i := range stream.Tracks {
			stream.Tracks[i].Sort()
		}
	}

	debug.Log("encode", "tracks=%d format=%d events=%d end=%d", len(tracks), stream.Format, countEvents(stream), stream.End())
	report.summarize("encode")
	return stream, report, nil
}

// encodeTrack emits the messages of one sequence using its own channel cycle.
func (e *Encoder) encodeTrack(idx int, seq *music.Sequential, cycle Cycle, report *Report) midi.Track {
	strategy := e.opts.strategy()
	tpb := e.opts.TicksPerBeat
	tuner := NewTuner(e.opts.MaxBendCents, idx+1, report)
	track := midi.Track{Name: seq.Name}

	for _, leaf := range seq.Leaves() {
		n := leaf.Note
		start := BeatsToTicks(leaf.Start, tpb)
		end := BeatsToTicks(leaf.Start+n.Length, tpb)

		for _, c := range strategy.ControlsOf(n) {
			track.Add(midi.NewControl(start, c.Channel, c.Controller, c.Value))
		}

		pitches := strategy.PitchesOf(n)
		if len(pitches) == 0 {
			continue
		}
		if len(pitches) > cycle.Len() {
			report.add(ChannelExhaustion, idx+1, start, "%d pitches share %d channels", len(pitches), cycle.Len())
		}

		// velocity 0 would read as a note-off
		vel := min(max(strategy.VolumeOf(n).MIDIVelocity(), 1), 127)
		for _, p := range pitches {
			ch := cycle.Next()
			note, bends := tuner.Tune(start, end, p, ch)
			track.Add(bends...)
			track.Add(midi.NewNoteOn(start, ch, note, vel), midi.NewNoteOff(end, ch, note, vel))
		}
	}

	track.Sort()
	return track
}

func countEvents(s *midi.Stream) int {
	var n int
	for _, t := range s.Tracks {
		n += len(t.Events)
	}
	return n
}
