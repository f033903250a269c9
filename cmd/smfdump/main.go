package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"go-midiconv/convert"
	"go-midiconv/midi"
)

func main() {
	if len(os.Args) < 3 {
		usage()
		return
	}

	raw, err := midi.ReadFile(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "events":
		dumpEvents(raw)
	case "deltas":
		dumpDeltas(raw)
	case "notes":
		dumpNotes(raw)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("SMF dump")
	fmt.Println("")
	fmt.Println("Usage: smfdump <command> file.mid")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  events  - Events per track at absolute ticks and times")
	fmt.Println("  deltas  - Events per track as stored, with delta times")
	fmt.Println("  notes   - Paired notes, plus dangling and unmatched messages")
}

func header(raw *midi.RawStream) {
	fmt.Printf("format %d, %d ticks per beat, %d tracks\n", raw.Format, raw.TicksPerBeat, len(raw.Tracks))
}

func dumpEvents(raw *midi.RawStream) {
	header(raw)
	s := convert.Classify(raw).Stream
	tm := s.TempoMap()
	for i, t := range s.Tracks {
		fmt.Printf("\n=== Track %d %q (%s events) ===\n", i, t.Name, humanize.Comma(int64(len(t.Events))))
		for _, e := range t.Events {
			fmt.Printf("  %8d  %10s  %s\n", e.Tick, tm.Time(e.Tick).Round(time.Millisecond), e)
		}
	}
}

func dumpDeltas(raw *midi.RawStream) {
	header(raw)
	for i, t := range raw.Tracks {
		fmt.Printf("\n=== Track %d (%s events) ===\n", i, humanize.Comma(int64(len(t))))
		for _, d := range t {
			fmt.Printf("  +%-6d %s\n", d.Delta, d.Event)
		}
	}
}

func dumpNotes(raw *midi.RawStream) {
	header(raw)
	cl := convert.Classify(raw)
	pairs, dangling, unmatched := convert.PairNotes(cl.NoteOns, cl.NoteOffs)

	fmt.Printf("\n=== Notes (%s) ===\n", humanize.Comma(int64(len(pairs))))
	for _, p := range pairs {
		fmt.Printf("  track %d ch %2d  note %3d vel %3d  %d-%d\n", p.Track, p.Channel, p.Note, p.Velocity, p.Start, p.End)
	}
	for _, chord := range convert.GroupChords(pairs) {
		if len(chord.Notes) > 1 {
			fmt.Printf("  chord track %d %d-%d: %d notes\n", chord.Track, chord.Start, chord.End, len(chord.Notes))
		}
	}
	if len(dangling) > 0 {
		fmt.Println("\n=== Dangling note-ons ===")
		for _, m := range dangling {
			fmt.Printf("  track %d %s\n", m.Track, m.Event)
		}
	}
	if len(unmatched) > 0 {
		fmt.Println("\n=== Unmatched note-offs ===")
		for _, m := range unmatched {
			fmt.Printf("  track %d %s\n", m.Track, m.Event)
		}
	}
}
