package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"go-midiconv/config"
	"go-midiconv/convert"
	"go-midiconv/debug"
	"go-midiconv/midi"
	"go-midiconv/music"
	"go-midiconv/render"
	"go-midiconv/theme"
	"go-midiconv/tui"
)

// common holds the flags every command shares.
type common struct {
	configPath string
	debugLog   bool
	debugPath  string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file (default ~/.config/go-midiconv/config.json)")
	fs.BoolVar(&c.debugLog, "debug", false, "write a debug log")
	fs.StringVar(&c.debugPath, "debugLog", "", "debug log path (default ~/.config/go-midiconv/debug.log)")
}

// setup enables logging and loads the config.
func (c *common) setup() (*config.Config, error) {
	if c.debugLog {
		if err := debug.Enable(c.debugPath); err != nil {
			return nil, err
		}
	}
	if c.configPath != "" {
		return config.LoadFrom(c.configPath)
	}
	return config.Load()
}

// convertFlags override converter options from the config.
type convertFlags struct {
	ticksPerBeat int
	fileType     int
	distribute   bool
	perTrack     int
	bendCents    float64
}

func (f *convertFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&f.ticksPerBeat, "tpb", 0, "ticks per beat")
	fs.IntVar(&f.fileType, "type", -1, "MIDI file type, 0 or 1")
	fs.BoolVar(&f.distribute, "distribute", false, "give each track its own channels")
	fs.IntVar(&f.perTrack, "perTrack", 0, "channels per track with -distribute")
	fs.Float64Var(&f.bendCents, "bend", 0, "pitch bend range in cents")
}

func (f *convertFlags) apply(opts *convert.Options) {
	if f.ticksPerBeat > 0 {
		opts.TicksPerBeat = f.ticksPerBeat
	}
	if f.fileType >= 0 {
		opts.FileType = f.fileType
	}
	if f.distribute {
		opts.DistributeChannels = true
	}
	if f.perTrack > 0 {
		opts.ChannelsPerTrack = f.perTrack
	}
	if f.bendCents > 0 {
		opts.MaxBendCents = f.bendCents
	}
}

func isSong(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// loadStream reads a .mid file, or encodes a song document.
func loadStream(path string, opts convert.Options) (*midi.RawStream, error) {
	if !isSong(path) {
		return midi.ReadFile(path)
	}
	song, err := music.LoadSong(path)
	if err != nil {
		return nil, err
	}
	enc, err := convert.NewEncoder(opts)
	if err != nil {
		return nil, err
	}
	stream, report, err := enc.Encode(song)
	if err != nil {
		return nil, err
	}
	printReport(report)
	return stream.Raw(), nil
}

func printReport(r *convert.Report) {
	if n := len(r.Warnings); n > 0 {
		fmt.Fprintf(os.Stderr, "%s warnings\n", humanize.Comma(int64(n)))
	}
}

func formatDuration(d time.Duration) string {
	return durafmt.Parse(d.Round(time.Millisecond)).LimitFirstN(2).String()
}

func oneInput(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return "", fmt.Errorf("%s needs exactly one input file", fs.Name())
	}
	return fs.Arg(0), nil
}

func encodeCmd(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	var c common
	var cf convertFlags
	c.register(fs)
	cf.register(fs)
	out := fs.String("o", "", "output .mid (default: input with .mid)")
	in, err := oneInput(fs, args)
	if err != nil {
		return err
	}

	cfg, err := c.setup()
	if err != nil {
		return err
	}
	opts := cfg.Options()
	cf.apply(&opts)

	song, err := music.LoadSong(in)
	if err != nil {
		return err
	}
	enc, err := convert.NewEncoder(opts)
	if err != nil {
		return err
	}
	stream, report, err := enc.Encode(song)
	if err != nil {
		return err
	}
	printReport(report)

	if *out == "" {
		*out = replaceExt(in, ".mid")
	}
	n, err := stream.Raw().WriteFile(*out)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s, %d tracks, %s notes, %s)\n",
		*out, humanize.Bytes(uint64(n)), len(stream.Tracks),
		humanize.Comma(int64(stream.Count(midi.NoteOn))), formatDuration(stream.Length()))
	return nil
}

func decodeCmd(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	var c common
	c.register(fs)
	out := fs.String("o", "", "output song .json (default: input with .json, - for stdout)")
	bends := fs.Bool("bends", false, "fold pitch bends into fractional pitches")
	in, err := oneInput(fs, args)
	if err != nil {
		return err
	}

	cfg, err := c.setup()
	if err != nil {
		return err
	}
	opts := cfg.Options()
	if *bends {
		opts.Decode = convert.BendDecodeStrategy{MaxBendCents: opts.MaxBendCents}
	}
	raw, err := midi.ReadFile(in)
	if err != nil {
		return err
	}
	dec, err := convert.NewDecoder(opts)
	if err != nil {
		return err
	}
	song, report, err := dec.Decode(raw)
	if err != nil {
		return err
	}
	printReport(report)

	if *out == "-" {
		return music.WriteSong(os.Stdout, song)
	}
	if *out == "" {
		*out = replaceExt(in, ".json")
	}
	if err := music.SaveSong(*out, song); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d tracks, %g beats)\n", *out, len(song.Tracks.Tracks), song.Tracks.Duration())
	return nil
}

func infoCmd(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	var c common
	c.register(fs)
	in, err := oneInput(fs, args)
	if err != nil {
		return err
	}

	cfg, err := c.setup()
	if err != nil {
		return err
	}
	raw, err := loadStream(in, cfg.Options())
	if err != nil {
		return err
	}
	fi, err := os.Stat(in)
	if err != nil {
		return err
	}

	cl := convert.Classify(raw)
	s := cl.Stream
	fmt.Printf("%s (%s)\n", in, humanize.Bytes(uint64(fi.Size())))
	fmt.Printf("  format %d, %d ticks per beat, %d tracks\n", s.Format, s.TicksPerBeat, len(s.Tracks))
	fmt.Printf("  length %s (%s ticks)\n", formatDuration(s.Length()), humanize.Comma(s.End()))
	for _, t := range s.TempoMap().Changes {
		fmt.Printf("  tempo %.2f bpm at tick %d\n", t.BPM(), t.Tick)
	}
	for i, t := range s.Tracks {
		name := t.Name
		if name == "" {
			name = "-"
		}
		fmt.Printf("  track %d %-20s %8s events\n", i, name, humanize.Comma(int64(len(t.Events))))
	}

	pairs, dangling, unmatched := convert.PairNotes(cl.NoteOns, cl.NoteOffs)
	fmt.Printf("  %s notes", humanize.Comma(int64(len(pairs))))
	if len(dangling)+len(unmatched) > 0 {
		fmt.Printf(" (%d dangling note-ons, %d unmatched note-offs)", len(dangling), len(unmatched))
	}
	fmt.Println()
	return nil
}

func viewCmd(args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	var c common
	c.register(fs)
	palette := fs.String("palette", "", "GIMP .gpl palette")
	in, err := oneInput(fs, args)
	if err != nil {
		return err
	}

	cfg, err := c.setup()
	if err != nil {
		return err
	}
	raw, err := loadStream(in, cfg.Options())
	if err != nil {
		return err
	}
	if *palette == "" {
		*palette = cfg.UI.Palette
	}
	th, err := theme.Load(*palette)
	if err != nil {
		return err
	}
	return tui.Run(tui.NewModel(filepath.Base(in), raw, th))
}

func renderCmd(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	var c common
	c.register(fs)
	sfPath := fs.String("sf", "", "SoundFont .sf2 (default from config)")
	rate := fs.Int("rate", 0, "sample rate (default from config)")
	out := fs.String("o", "", "output .wav (default: input with .wav)")
	in, err := oneInput(fs, args)
	if err != nil {
		return err
	}

	cfg, err := c.setup()
	if err != nil {
		return err
	}
	if *sfPath == "" {
		*sfPath = cfg.Render.SoundFont
	}
	if *sfPath == "" {
		return fmt.Errorf("no SoundFont: pass -sf or set render.soundFont in the config")
	}
	if *rate <= 0 {
		*rate = cfg.Render.SampleRate
	}

	raw, err := loadStream(in, cfg.Options())
	if err != nil {
		return err
	}
	sf, err := render.LoadSoundFont(*sfPath)
	if err != nil {
		return err
	}

	start := time.Now()
	r := render.New(sf, *rate, time.Duration(cfg.Render.Tail)*time.Millisecond)
	left, right, err := r.Render(convert.Classify(raw).Stream)
	if err != nil {
		return err
	}

	if *out == "" {
		*out = replaceExt(in, ".wav")
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	n, err := render.WriteWAV(f, *rate, render.MixPCM(left, right))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s, %s audio in %s)\n", *out, humanize.Bytes(uint64(n)),
		formatDuration(time.Duration(len(left))*time.Second/time.Duration(*rate)),
		formatDuration(time.Since(start)))
	return nil
}

func configCmd(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	path := fs.String("config", "", "config file (default ~/.config/go-midiconv/config.json)")
	initCfg := fs.Bool("init", false, "write the default config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		*path = p
	}

	if *initCfg {
		if err := config.DefaultConfig().SaveTo(*path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", *path)
		return nil
	}

	cfg, err := config.LoadFrom(*path)
	if err != nil {
		return err
	}
	fmt.Printf("# %s\n", *path)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
