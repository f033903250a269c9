package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"

	"go-midiconv/convert"
	"go-midiconv/midi"
)

// ConvertConfig holds the converter options
type ConvertConfig struct {
	TicksPerBeat       int     `json:"ticksPerBeat"`
	AvailableChannels  []int   `json:"availableChannels"`
	ReservedChannels   []int   `json:"reservedChannels,omitempty"`
	DistributeChannels bool    `json:"distributeChannels"`
	ChannelsPerTrack   int     `json:"channelsPerTrack"`
	MIDIFileType       int     `json:"midiFileType"`
	MaxBendCents       float64 `json:"maxPitchBendDeviationCents"`
	MaxMicrosPerBeat   int     `json:"maxMicrosecondsPerBeat"`
	Workers            int     `json:"workers,omitempty"`
	DecodePitchBends   bool    `json:"decodePitchBends,omitempty"`
}

// RenderConfig stores audio rendering preferences
type RenderConfig struct {
	SoundFont  string `json:"soundFont,omitempty"`
	SampleRate int    `json:"sampleRate"`
	Tail       int    `json:"tailMs"`
}

// UIConfig stores viewer preferences
type UIConfig struct {
	Palette string `json:"palette,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Convert ConvertConfig `json:"convert"`
	Render  RenderConfig  `json:"render"`
	UI      UIConfig      `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	channels := make([]int, 16)
	for i := range channels {
		channels[i] = i
	}
	return &Config{
		Convert: ConvertConfig{
			TicksPerBeat:      480,
			AvailableChannels: channels,
			ChannelsPerTrack:  1,
			MIDIFileType:      1,
			MaxBendCents:      200,
			MaxMicrosPerBeat:  midi.MaxMicrosPerBeat,
		},
		Render: RenderConfig{
			SampleRate: 44100,
			Tail:       1000,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-midiconv"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Missing fields keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

// Channels returns the available channels minus the reserved ones, each
// once, in first-listed order.
func (c *Config) Channels() []uint8 {
	var out []uint8
	for _, ch := range c.Convert.AvailableChannels {
		if slices.Contains(c.Convert.ReservedChannels, ch) || slices.Contains(out, uint8(ch)) {
			continue
		}
		out = append(out, uint8(ch))
	}
	return out
}

// Validate checks ranges the converter relies on.
func (c *Config) Validate() error {
	cc := c.Convert
	for _, ch := range slices.Concat(cc.AvailableChannels, cc.ReservedChannels) {
		if ch < 0 || ch > 15 {
			return fmt.Errorf("channel %d out of range 0..15", ch)
		}
	}
	if len(c.Channels()) == 0 {
		return fmt.Errorf("every available channel is reserved")
	}
	if cc.MaxMicrosPerBeat <= 0 || cc.MaxMicrosPerBeat > midi.MaxMicrosPerBeat {
		return fmt.Errorf("maxMicrosecondsPerBeat %d out of range 1..%d", cc.MaxMicrosPerBeat, midi.MaxMicrosPerBeat)
	}
	if c.Render.SampleRate <= 0 {
		return fmt.Errorf("sample rate %d must be positive", c.Render.SampleRate)
	}
	if c.Render.Tail < 0 {
		return fmt.Errorf("tail %dms must not be negative", c.Render.Tail)
	}
	return c.Options().Validate()
}

// Options builds the converter options.
func (c *Config) Options() convert.Options {
	opts := convert.DefaultOptions()
	opts.TicksPerBeat = c.Convert.TicksPerBeat
	opts.Channels = c.Channels()
	opts.DistributeChannels = c.Convert.DistributeChannels
	opts.ChannelsPerTrack = c.Convert.ChannelsPerTrack
	opts.FileType = c.Convert.MIDIFileType
	opts.MaxBendCents = c.Convert.MaxBendCents
	opts.MaxMicrosPerBeat = uint32(max(c.Convert.MaxMicrosPerBeat, 0))
	opts.Workers = c.Convert.Workers
	if c.Convert.DecodePitchBends {
		opts.Decode = convert.BendDecodeStrategy{MaxBendCents: c.Convert.MaxBendCents}
	}
	return opts
}
