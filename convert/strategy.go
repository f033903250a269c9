package convert

import "go-midiconv/music"

// NoteStrategy decides what a note sounds like in MIDI.
type NoteStrategy interface {
	PitchesOf(n *music.Note) []music.Pitch
	VolumeOf(n *music.Note) music.Volume
	ControlsOf(n *music.Note) []music.Control
}

// DefaultStrategy reads a note's own fields. Notes without a volume play mf.
type DefaultStrategy struct{}

func (DefaultStrategy) PitchesOf(n *music.Note) []music.Pitch { return n.Pitches }

func (DefaultStrategy) VolumeOf(n *music.Note) music.Volume {
	if n.Volume == nil {
		return music.WesternVolume{Dynamic: "mf"}
	}
	return n.Volume
}

func (DefaultStrategy) ControlsOf(n *music.Note) []music.Control { return n.Controls }

// StrategyFuncs overrides single parts of DefaultStrategy. Nil fields fall
// back to the default.
type StrategyFuncs struct {
	Pitches  func(*music.Note) []music.Pitch
	Volume   func(*music.Note) music.Volume
	Controls func(*music.Note) []music.Control
}

func (s StrategyFuncs) PitchesOf(n *music.Note) []music.Pitch {
	if s.Pitches != nil {
		return s.Pitches(n)
	}
	return DefaultStrategy{}.PitchesOf(n)
}

func (s StrategyFuncs) VolumeOf(n *music.Note) music.Volume {
	if s.Volume != nil {
		return s.Volume(n)
	}
	return DefaultStrategy{}.VolumeOf(n)
}

func (s StrategyFuncs) ControlsOf(n *music.Note) []music.Control {
	if s.Controls != nil {
		return s.Controls(n)
	}
	return DefaultStrategy{}.ControlsOf(n)
}

// DecodeStrategy decides how MIDI notes read back as events.
type DecodeStrategy interface {
	// PitchOf reads a note number under the bend in force on its channel.
	PitchOf(note uint8, bend int16) music.Pitch
	VolumeOf(velocity uint8) music.Volume
	NoteOf(length float64, pitches []music.Pitch, volume music.Volume) *music.Note
}

// DefaultDecodeStrategy ignores pitch bends and keeps velocities as they are.
type DefaultDecodeStrategy struct{}

func (DefaultDecodeStrategy) PitchOf(note uint8, _ int16) music.Pitch {
	return music.MIDIPitch{Number: float64(note)}
}

func (DefaultDecodeStrategy) VolumeOf(velocity uint8) music.Volume {
	return music.VelocityVolume(velocity)
}

func (DefaultDecodeStrategy) NoteOf(length float64, pitches []music.Pitch, volume music.Volume) *music.Note {
	return music.NewNote(length, volume, pitches...)
}

// BendDecodeStrategy folds the channel's pitch bend into each pitch, reading
// bends over a range of ±MaxBendCents.
type BendDecodeStrategy struct {
	DefaultDecodeStrategy
	MaxBendCents float64
}

func (s BendDecodeStrategy) PitchOf(note uint8, bend int16) music.Pitch {
	return music.MIDIPitch{Number: float64(note) + PitchBendToCents(bend, s.MaxBendCents)/100}
}

// DecodeFuncs overrides single parts of DefaultDecodeStrategy. Nil fields
// fall back to the default.
type DecodeFuncs struct {
	Pitch  func(note uint8, bend int16) music.Pitch
	Volume func(velocity uint8) music.Volume
	Note   func(length float64, pitches []music.Pitch, volume music.Volume) *music.Note
}

func (s DecodeFuncs) PitchOf(note uint8, bend int16) music.Pitch {
	if s.Pitch != nil {
		return s.Pitch(note, bend)
	}
	return DefaultDecodeStrategy{}.PitchOf(note, bend)
}

func (s DecodeFuncs) VolumeOf(velocity uint8) music.Volume {
	if s.Volume != nil {
		return s.Volume(velocity)
	}
	return DefaultDecodeStrategy{}.VolumeOf(velocity)
}

func (s DecodeFuncs) NoteOf(length float64, pitches []music.Pitch, volume music.Volume) *music.Note {
	if s.Note != nil {
		return s.Note(length, pitches, volume)
	}
	return DefaultDecodeStrategy{}.NoteOf(length, pitches, volume)
}
