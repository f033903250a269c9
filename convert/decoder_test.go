package convert

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"

	"go-midiconv/midi"
	"go-midiconv/music"
)

func rawTrack(events ...midi.Event) midi.RawTrack {
	t := midi.Track{Events: events}
	return (&midi.Stream{Tracks: []midi.Track{t}}).Raw().Tracks[0]
}

func decode(t *testing.T, in any) (*music.Song, *Report) {
	t.Helper()
	dec, err := NewDecoder(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	song, report, err := dec.Decode(in)
	if err != nil {
		t.Fatal(err)
	}
	return song, report
}

func numbers(n *music.Note) []float64 {
	var out []float64
	for _, p := range n.Pitches {
		out = append(out, p.(music.MIDIPitch).Number)
	}
	return out
}

func TestClassify(t *testing.T) {
	raw := &midi.RawStream{Format: 1, TicksPerBeat: 10, Tracks: []midi.RawTrack{
		{
			{Delta: 0, Event: midi.NewTrackName(0, "one")},
			{Delta: 5, Event: midi.NewNoteOn(0, 0, 60, 90)},
			{Delta: 5, Event: midi.NewNoteOn(0, 0, 60, 0)},
		},
		{
			{Delta: 2, Event: midi.NewNoteOn(0, 1, 62, 90)},
			{Delta: 1, Event: midi.NewPitchBend(0, 1, 100)},
			{Delta: 1, Event: midi.NewNoteOff(0, 1, 62, 64)},
		},
	}}
	c := Classify(raw)

	if c.Stream.Tracks[0].Name != "one" {
		t.Errorf("track name = %q", c.Stream.Tracks[0].Name)
	}
	onTicks := []int64{c.NoteOns[0].Tick, c.NoteOns[1].Tick}
	if !reflect.DeepEqual(onTicks, []int64{2, 5}) || c.NoteOns[0].Track != 1 {
		t.Errorf("note-ons = %v", c.NoteOns)
	}
	if len(c.NoteOffs) != 2 || c.NoteOffs[0].Tick != 4 || c.NoteOffs[1].Tick != 10 {
		t.Errorf("note-offs = %v", c.NoteOffs)
	}
	if bend := c.Stream.Tracks[1].Events[1]; bend.Type != midi.PitchBend || bend.Tick != 3 {
		t.Errorf("bend = %v", bend)
	}
	if len(c.Bends) != 1 || c.Bends[0].Track != 1 || c.Bends[0].Tick != 3 || c.Bends[0].BendValue != 100 {
		t.Errorf("bends = %v", c.Bends)
	}
}

func TestBendAt(t *testing.T) {
	bends := []Message{
		msg(0, midi.NewPitchBend(0, 0, 100)),
		msg(1, midi.NewPitchBend(5, 1, -200)),
		msg(0, midi.NewPitchBend(9, 0, 300)),
		msg(1, midi.NewPitchBend(9, 0, 400)),
	}
	tests := []struct {
		ch   uint8
		tick int64
		want int16
	}{
		{0, 0, 100},
		{0, 8, 100},
		{0, 9, 400},
		{0, 50, 400},
		{1, 4, 0},
		{1, 5, -200},
		{2, 50, 0},
	}
	for _, tt := range tests {
		if got := BendAt(bends, tt.ch, tt.tick); got != tt.want {
			t.Errorf("BendAt(ch %d, tick %d) = %d, want %d", tt.ch, tt.tick, got, tt.want)
		}
	}
}

func msg(track int, e midi.Event) Message { return Message{Track: track, Event: e} }

func TestPairNotes(t *testing.T) {
	ons := []Message{
		msg(0, midi.NewNoteOn(0, 0, 69, 80)),
		msg(0, midi.NewNoteOn(0, 1, 69, 80)),
		msg(0, midi.NewNoteOn(5, 0, 69, 80)),
		msg(0, midi.NewNoteOn(7, 2, 69, 80)),
	}
	offs := []Message{
		msg(0, midi.NewNoteOff(3, 1, 69, 0)),
		msg(0, midi.NewNoteOff(10, 0, 69, 0)),
		msg(0, midi.NewNoteOff(12, 0, 69, 0)),
		msg(0, midi.NewNoteOff(20, 3, 69, 0)),
	}
	pairs, dangling, unmatched := PairNotes(ons, offs)

	want := []NotePair{
		{Channel: 0, Note: 69, Velocity: 80, Start: 0, End: 10},
		{Channel: 1, Note: 69, Velocity: 80, Start: 0, End: 3},
		{Channel: 0, Note: 69, Velocity: 80, Start: 5, End: 12},
	}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("pairs =\n%v\nwant\n%v", pairs, want)
	}
	if len(dangling) != 1 || dangling[0].Channel != 2 {
		t.Errorf("dangling = %v", dangling)
	}
	if len(unmatched) != 1 || unmatched[0].Channel != 3 {
		t.Errorf("unmatched = %v", unmatched)
	}
}

func TestPairNotesSkipsEarlierOffs(t *testing.T) {
	ons := []Message{msg(0, midi.NewNoteOn(10, 0, 60, 1))}
	offs := []Message{msg(0, midi.NewNoteOff(5, 0, 60, 0)), msg(0, midi.NewNoteOff(10, 0, 60, 0))}
	pairs, dangling, unmatched := PairNotes(ons, offs)
	if len(pairs) != 1 || pairs[0].End != 10 || pairs[0].Start != 10 {
		t.Errorf("pairs = %v", pairs)
	}
	if len(dangling) != 0 || len(unmatched) != 1 || unmatched[0].Tick != 5 {
		t.Errorf("dangling = %v unmatched = %v", dangling, unmatched)
	}
}

func TestGroupChords(t *testing.T) {
	pairs := []NotePair{
		{Track: 0, Note: 64, Start: 0, End: 10, Velocity: 90},
		{Track: 0, Note: 60, Start: 0, End: 10, Velocity: 70},
		{Track: 1, Note: 67, Start: 0, End: 10},
		{Track: 0, Note: 62, Start: 10, End: 20},
	}
	chords := GroupChords(pairs)
	if len(chords) != 3 {
		t.Fatalf("got %d chords, want 3", len(chords))
	}
	first := chords[0]
	if len(first.Notes) != 2 || first.Notes[0].Note != 64 || first.Notes[1].Note != 60 {
		t.Errorf("first chord = %v", first)
	}
	if first.MinVelocity() != 70 {
		t.Errorf("MinVelocity = %d, want 70", first.MinVelocity())
	}
	if chords[1].Track != 1 || chords[2].Start != 10 {
		t.Errorf("chords = %v", chords)
	}
}

func TestDecodeEndToEnd(t *testing.T) {
	raw := &midi.RawStream{Format: 0, TicksPerBeat: 10, Tracks: []midi.RawTrack{rawTrack(
		midi.NewNoteOn(0, 0, 69, 64),
		midi.NewNoteOn(0, 1, 69, 64),
		midi.NewNoteOff(10, 0, 69, 64),
		midi.NewNoteOff(10, 1, 69, 64),
		midi.NewNoteOn(10, 0, 69, 64),
		midi.NewNoteOff(30, 0, 69, 64),
	)}}
	song, report := decode(t, raw)

	if len(song.Tracks.Tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(song.Tracks.Tracks))
	}
	events := song.Tracks.Tracks[0].Events
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	chord, tail := events[0].(*music.Note), events[1].(*music.Note)
	if !reflect.DeepEqual(numbers(chord), []float64{69, 69}) || chord.Length != 1 {
		t.Errorf("chord = %v length %g", numbers(chord), chord.Length)
	}
	if !reflect.DeepEqual(numbers(tail), []float64{69}) || tail.Length != 2 {
		t.Errorf("tail = %v length %g", numbers(tail), tail.Length)
	}
	if chord.Volume.(music.WesternVolume).Dynamic != "mf" {
		t.Errorf("volume = %v", chord.Volume)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("warnings = %v", report.Warnings)
	}
}

func TestRoundTrip(t *testing.T) {
	dynamics := []string{"pp", "mf", "fff", "ppppp", "fffff"}
	seq := music.NewSequential("melody")
	for i, d := range dynamics {
		if i%2 == 1 {
			seq.Events = append(seq.Events, music.Rest(0.5))
		}
		seq.Events = append(seq.Events, music.NewNote(float64(i+1)*0.25, music.WesternVolume{Dynamic: d}, music.MIDIPitch{Number: float64(60 + i)}))
	}
	song := &music.Song{Tempo: music.TempoEnvelope{{Beat: 0, BPM: 100}, {Beat: 2, BPM: 80}}, Tracks: music.NewSimultaneous(seq)}

	stream, _ := encode(t, DefaultOptions(), song)
	var buf bytes.Buffer
	if _, err := stream.Raw().WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	raw, err := midi.Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	back, report := decode(t, raw)
	if len(report.Warnings) != 0 {
		t.Errorf("warnings = %v", report.Warnings)
	}

	if len(back.Tracks.Tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(back.Tracks.Tracks))
	}
	got := back.Tracks.Tracks[0]
	if got.Name != "melody" {
		t.Errorf("name = %q", got.Name)
	}
	if len(got.Events) != len(seq.Events) {
		t.Fatalf("got %d events, want %d", len(got.Events), len(seq.Events))
	}
	for i := range seq.Events {
		w, g := seq.Events[i].(*music.Note), got.Events[i].(*music.Note)
		if math.Abs(w.Length-g.Length) > 1e-9 {
			t.Errorf("event %d length %g, want %g", i, g.Length, w.Length)
		}
		if w.IsRest() {
			if !g.IsRest() {
				t.Errorf("event %d should be a rest", i)
			}
			continue
		}
		if !reflect.DeepEqual(numbers(g), numbers(w)) {
			t.Errorf("event %d pitches %v, want %v", i, numbers(g), numbers(w))
		}
		if g.Volume.(music.WesternVolume).Dynamic != w.Volume.(music.WesternVolume).Dynamic {
			t.Errorf("event %d dynamic %v, want %v", i, g.Volume, w.Volume)
		}
	}

	if !reflect.DeepEqual(back.Tempo, music.TempoEnvelope{{Beat: 0, BPM: 100}, {Beat: 2, BPM: 80}}) {
		t.Errorf("tempo = %v", back.Tempo)
	}
}

func TestDecodeOverlapOpensVoice(t *testing.T) {
	raw := &midi.RawStream{Format: 1, TicksPerBeat: 10, Tracks: []midi.RawTrack{rawTrack(
		midi.NewTrackName(0, "pad"),
		midi.NewNoteOn(0, 0, 60, 64),
		midi.NewNoteOn(0, 0, 64, 64),
		midi.NewNoteOn(5, 0, 67, 64),
		midi.NewNoteOff(10, 0, 60, 64),
		midi.NewNoteOff(20, 0, 64, 64),
		midi.NewNoteOff(25, 0, 67, 64),
	)}}
	song, _ := decode(t, raw)
	tracks := song.Tracks.Tracks
	if len(tracks) != 3 {
		t.Fatalf("got %d sequences, want 3", len(tracks))
	}
	if tracks[0].Name != "pad" || tracks[1].Name != "pad (2)" || tracks[2].Name != "pad (3)" {
		t.Errorf("names = %q %q %q", tracks[0].Name, tracks[1].Name, tracks[2].Name)
	}
	for i, want := range []float64{1, 2, 2.5} {
		if d := tracks[i].Duration(); d != want {
			t.Errorf("sequence %d lasts %g, want %g", i, d, want)
		}
	}
	if n := tracks[2].Events[0].(*music.Note); !n.IsRest() || n.Length != 0.5 {
		t.Errorf("third voice should open with a rest, got %v", n)
	}
}

func TestDecodeReportsDropped(t *testing.T) {
	raw := &midi.RawStream{Format: 1, TicksPerBeat: 480, Tracks: []midi.RawTrack{rawTrack(
		midi.NewNoteOn(0, 0, 60, 64),
		midi.NewNoteOff(480, 0, 62, 64),
		midi.NewNoteOn(480, 0, 64, 64),
		midi.NewNoteOff(960, 0, 64, 64),
	)}}
	song, report := decode(t, raw)
	if report.Count(DanglingNoteOn) != 1 || report.Count(UnmatchedNoteOff) != 1 {
		t.Errorf("warnings = %v", report.Warnings)
	}
	events := song.Tracks.Tracks[0].Events
	if len(events) != 2 || !events[0].(*music.Note).IsRest() {
		t.Errorf("events = %v", events)
	}
}

func TestDecodeMixedVelocities(t *testing.T) {
	raw := &midi.RawStream{Format: 1, TicksPerBeat: 10, Tracks: []midi.RawTrack{rawTrack(
		midi.NewNoteOn(0, 0, 60, 120),
		midi.NewNoteOn(0, 1, 64, 20),
		midi.NewNoteOff(10, 0, 60, 0),
		midi.NewNoteOff(10, 1, 64, 0),
	)}}
	song, _ := decode(t, raw)
	n := song.Tracks.Tracks[0].Events[0].(*music.Note)
	if want := music.VelocityVolume(20); n.Volume != want {
		t.Errorf("volume = %v, want %v", n.Volume, want)
	}
}

func TestDecodeAcceptsStreams(t *testing.T) {
	s, _ := encode(t, DefaultOptions(), note(1, 60))
	song, _ := decode(t, s)
	if len(song.Tracks.Tracks) != 1 {
		t.Errorf("from stream: %d tracks", len(song.Tracks.Tracks))
	}

	smf, err := s.Raw().SMF()
	if err != nil {
		t.Fatal(err)
	}
	song, _ = decode(t, smf)
	if len(song.Tracks.Tracks) != 1 {
		t.Errorf("from smf: %d tracks", len(song.Tracks.Tracks))
	}
}

func TestDecodeParallelMatchesSequential(t *testing.T) {
	var tracks []*music.Sequential
	for i := range 10 {
		seq := music.NewSequential("")
		for j := range 15 {
			if j%4 == 3 {
				seq.Events = append(seq.Events, music.Rest(0.25))
			}
			seq.Events = append(seq.Events, note(0.5, float64(40+i+j)))
		}
		tracks = append(tracks, seq)
	}
	s, _ := encode(t, DefaultOptions(), music.NewSimultaneous(tracks...))

	opts := DefaultOptions()
	opts.Workers = 1
	serial, _ := NewDecoder(opts)
	opts.Workers = 6
	parallel, _ := NewDecoder(opts)
	a, _, err := serial.Decode(s)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := parallel.Decode(s)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("parallel decode differs from serial decode")
	}
}

func TestDecodeStrategy(t *testing.T) {
	seq := music.NewSequential("", note(1, 69.25), note(1, 60), note(1, 61.75))
	stream, _ := encode(t, DefaultOptions(), seq)

	tests := []struct {
		name     string
		strategy DecodeStrategy
		want     []float64
	}{
		{"default ignores bends", DefaultDecodeStrategy{}, []float64{69, 60, 62}},
		{"bends", BendDecodeStrategy{MaxBendCents: 200}, []float64{69.25, 60, 61.75}},
		{"unset", nil, []float64{69, 60, 62}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Decode = tt.strategy
			dec, err := NewDecoder(opts)
			if err != nil {
				t.Fatal(err)
			}
			song, _, err := dec.Decode(stream)
			if err != nil {
				t.Fatal(err)
			}
			events := song.Tracks.Tracks[0].Events
			if len(events) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(events), len(tt.want))
			}
			for i, w := range tt.want {
				got := numbers(events[i].(*music.Note))[0]
				if math.Abs(got-w) > 200.0/8191/100 {
					t.Errorf("event %d pitch %g, want %g", i, got, w)
				}
			}
		})
	}
}

func TestDecodeStrategyFuncs(t *testing.T) {
	raw := &midi.RawStream{Format: 1, TicksPerBeat: 10, Tracks: []midi.RawTrack{rawTrack(
		midi.NewNoteOn(0, 0, 60, 100),
		midi.NewNoteOff(10, 0, 60, 100),
	)}}
	opts := DefaultOptions()
	opts.Decode = DecodeFuncs{
		Volume: func(v uint8) music.Volume { return music.WesternVolume{Dynamic: "ppp"} },
	}
	dec, err := NewDecoder(opts)
	if err != nil {
		t.Fatal(err)
	}
	song, _, err := dec.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	n := song.Tracks.Tracks[0].Events[0].(*music.Note)
	if n.Volume.(music.WesternVolume).Dynamic != "ppp" || !reflect.DeepEqual(numbers(n), []float64{60}) {
		t.Errorf("note = %v %v", numbers(n), n.Volume)
	}
}

func TestDecodeInvalid(t *testing.T) {
	dec, err := NewDecoder(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	for _, in := range []any{music.NewSequential(""), "file.mid", nil, &midi.RawStream{}} {
		if _, _, err := dec.Decode(in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Decode(%T) err = %v, want ErrInvalidInput", in, err)
		}
	}
}
