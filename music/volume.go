package music

import (
	"fmt"
	"math"
)

// Volume is anything that maps to a MIDI velocity.
type Volume interface {
	MIDIVelocity() uint8
}

// Dynamics is the ordered dynamic scale, softest first.
var Dynamics = []string{"ppppp", "pppp", "ppp", "pp", "p", "mp", "mf", "f", "ff", "fff", "ffff", "fffff"}

// DynamicIndex looks up a dynamic indicator by name.
func DynamicIndex(name string) (int, bool) {
	for i, d := range Dynamics {
		if d == name {
			return i, true
		}
	}
	return 0, false
}

// VelocityToDynamic maps a velocity in [0,127] to the nearest index of Dynamics.
func VelocityToDynamic(velocity uint8) int {
	if velocity > 127 {
		velocity = 127
	}
	top := float64(len(Dynamics) - 1)
	return int(math.Round(float64(velocity) / 127 * top))
}

// DynamicToVelocity maps an index of Dynamics back to the nearest velocity.
func DynamicToVelocity(index int) uint8 {
	top := len(Dynamics) - 1
	index = max(0, min(index, top))
	return uint8(math.Round(float64(index) / float64(top) * 127))
}

// WesternVolume is a dynamic indicator such as "mf".
type WesternVolume struct {
	Dynamic string
}

// NewWesternVolume validates name against Dynamics.
func NewWesternVolume(name string) (WesternVolume, error) {
	if _, ok := DynamicIndex(name); !ok {
		return WesternVolume{}, fmt.Errorf("unknown dynamic %q", name)
	}
	return WesternVolume{Dynamic: name}, nil
}

// VelocityVolume returns the dynamic nearest to velocity.
func VelocityVolume(velocity uint8) WesternVolume {
	return WesternVolume{Dynamic: Dynamics[VelocityToDynamic(velocity)]}
}

func (v WesternVolume) MIDIVelocity() uint8 {
	i, ok := DynamicIndex(v.Dynamic)
	if !ok {
		i, _ = DynamicIndex("mf")
	}
	return DynamicToVelocity(i)
}

func (v WesternVolume) String() string { return v.Dynamic }

// Decibel range mapped linearly onto velocity 0..127.
const (
	MinDecibel = -40.0
	MaxDecibel = 0.0
)

// DirectVolume is a linear amplitude, 1 being full scale.
type DirectVolume struct {
	Amplitude float64
}

func (v DirectVolume) Decibel() float64 {
	return 20 * math.Log10(v.Amplitude)
}

func (v DirectVolume) MIDIVelocity() uint8 {
	if v.Amplitude <= 0 {
		return 0
	}
	db := max(MinDecibel, min(v.Decibel(), MaxDecibel))
	return uint8((db - MinDecibel) / (MaxDecibel - MinDecibel) * 127)
}

// Velocity is a raw MIDI velocity.
type Velocity uint8

func (v Velocity) MIDIVelocity() uint8 { return min(uint8(v), 127) }
