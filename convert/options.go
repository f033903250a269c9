package convert

import (
	"fmt"
	"runtime"
	"slices"

	"go-midiconv/midi"
)

// Options control both directions of the conversion.
type Options struct {
	TicksPerBeat       int
	Channels           []uint8 // usable channels, in allocation order
	DistributeChannels bool
	ChannelsPerTrack   int
	FileType           int // 0: one merged track, 1: one track per sequence
	MaxBendCents       float64
	MaxMicrosPerBeat   uint32
	Workers            int // per-track goroutines; 0 means one per CPU
	Strategy           NoteStrategy
	Decode             DecodeStrategy
}

// AllChannels lists the sixteen MIDI channels.
func AllChannels() []uint8 {
	ch := make([]uint8, 16)
	for i := range ch {
		ch[i] = uint8(i)
	}
	return ch
}

func DefaultOptions() Options {
	return Options{
		TicksPerBeat:     480,
		Channels:         AllChannels(),
		ChannelsPerTrack: 1,
		FileType:         1,
		MaxBendCents:     200,
		MaxMicrosPerBeat: midi.MaxMicrosPerBeat,
		Strategy:         DefaultStrategy{},
		Decode:           DefaultDecodeStrategy{},
	}
}

func (o Options) Validate() error {
	if o.TicksPerBeat <= 0 || o.TicksPerBeat > 0x7FFF {
		return fmt.Errorf("ticks per beat %d out of range 1..32767", o.TicksPerBeat)
	}
	if len(o.Channels) == 0 {
		return fmt.Errorf("no usable channels")
	}
	for i, ch := range o.Channels {
		if ch > 15 {
			return fmt.Errorf("channel %d out of range 0..15", ch)
		}
		if slices.Contains(o.Channels[:i], ch) {
			return fmt.Errorf("channel %d listed twice", ch)
		}
	}
	if o.DistributeChannels && o.ChannelsPerTrack <= 0 {
		return fmt.Errorf("channels per track must be positive, got %d", o.ChannelsPerTrack)
	}
	if o.FileType != 0 && o.FileType != 1 {
		return fmt.Errorf("midi file type %d is not 0 or 1", o.FileType)
	}
	if o.MaxBendCents <= 0 {
		return fmt.Errorf("pitch bend range %g cents must be positive", o.MaxBendCents)
	}
	if o.MaxMicrosPerBeat == 0 || o.MaxMicrosPerBeat > midi.MaxMicrosPerBeat {
		return fmt.Errorf("tempo ceiling %d out of range 1..%d", o.MaxMicrosPerBeat, midi.MaxMicrosPerBeat)
	}
	return nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

func (o Options) strategy() NoteStrategy {
	if o.Strategy == nil {
		return DefaultStrategy{}
	}
	return o.Strategy
}

func (o Options) decode() DecodeStrategy {
	if o.Decode == nil {
		return DefaultDecodeStrategy{}
	}
	return o.Decode
}
