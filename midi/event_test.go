package midi

import (
	"testing"

	"gitlab.com/gomidi/midi/v2/smf"
)

func TestMessageParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
	}{
		{"note on", NewNoteOn(0, 3, 69, 100)},
		{"note off", NewNoteOff(0, 15, 0, 64)},
		{"bend min", NewPitchBend(0, 1, MinBend)},
		{"bend max", NewPitchBend(0, 1, MaxBend)},
		{"bend zero", NewPitchBend(0, 0, 0)},
		{"control", NewControl(0, 2, 7, 100)},
		{"tempo", NewTempo(0, 500000)},
		{"tempo ceiling", NewTempo(0, MaxMicrosPerBeat)},
		{"track name", NewTrackName(0, "lead")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.ev.Message()
			if err != nil {
				t.Fatal(err)
			}
			got, ok := ParseMessage(b)
			if !ok {
				t.Fatalf("ParseMessage(% x) not recognised", b)
			}
			if got != tt.ev {
				t.Errorf("got %+v, want %+v", got, tt.ev)
			}
		})
	}
}

func TestMessageErrors(t *testing.T) {
	tests := []Event{
		NewNoteOn(0, 16, 60, 100),
		NewTempo(0, 0),
		NewTempo(0, MaxMicrosPerBeat+1),
		{Type: 0x42},
	}
	for _, ev := range tests {
		if _, err := ev.Message(); err == nil {
			t.Errorf("%v: expected error", ev)
		}
	}
}

func TestParseMeta(t *testing.T) {
	tests := []struct {
		name string
		msg  []byte
		want Event
	}{
		{"latin-1 name", []byte{0xFF, 0x03, 0x03, 'M', 0xFC, 'l'}, NewTrackName(0, "Mül")},
		{"utf-8 name", []byte(smf.MetaTrackSequenceName("Bässe")), NewTrackName(0, "Bässe")},
		{"tempo", []byte{0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20}, NewTempo(0, 500000)},
		{"slowest tempo", []byte{0xFF, 0x51, 0x03, 0xFF, 0xFF, 0xFF}, NewTempo(0, MaxMicrosPerBeat)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := ParseMessage(tt.msg)
			if !ok {
				t.Fatal("meta event not recognised")
			}
			if ev != tt.want {
				t.Errorf("got %+v, want %+v", ev, tt.want)
			}
		})
	}
}

func TestParseMetaTruncated(t *testing.T) {
	if _, ok := ParseMessage([]byte{0xFF, 0x51, 0x03, 0x07}); ok {
		t.Error("truncated tempo parsed")
	}
	if _, ok := ParseMessage([]byte{0xFF, 0x51, 0x04, 0x07, 0xA1, 0x20, 0x00}); ok {
		t.Error("tempo with a four byte body parsed")
	}
	if _, ok := ParseMessage([]byte{0xFF, 0x2F, 0x00}); ok {
		t.Error("end of track should not be modelled")
	}
}

func TestNoteStartEnd(t *testing.T) {
	if !NewNoteOn(0, 0, 60, 1).IsNoteStart() {
		t.Error("note on with velocity should start")
	}
	if !NewNoteOn(0, 0, 60, 0).IsNoteEnd() {
		t.Error("note on with velocity 0 should end")
	}
	if !NewNoteOff(0, 0, 60, 64).IsNoteEnd() {
		t.Error("note off should end")
	}
}

func TestEventBPM(t *testing.T) {
	if bpm := NewTempo(0, 500000).BPM(); bpm != 120 {
		t.Errorf("BPM = %g, want 120", bpm)
	}
}
