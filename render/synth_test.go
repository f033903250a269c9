package render

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	meltysynth "github.com/sinshu/go-meltysynth/meltysynth"

	"go-midiconv/midi"
)

type message struct {
	channel, command, data1, data2 int32
	sample                         int
}

type mockSynth struct {
	cur      int
	messages []message
}

func (m *mockSynth) ProcessMidiMessage(channel, command, data1, data2 int32) {
	m.messages = append(m.messages, message{channel, command, data1, data2, m.cur})
}

func (m *mockSynth) Render(left, right []float32) {
	for i := range left {
		left[i] = 0.25
		right[i] = -0.5
	}
	m.cur += len(left)
}

func withMock(t *testing.T) *mockSynth {
	t.Helper()
	ms := &mockSynth{}
	orig := newSynthesizer
	newSynthesizer = func(*meltysynth.SoundFont, *meltysynth.SynthesizerSettings) (synthesizer, error) {
		return ms, nil
	}
	t.Cleanup(func() { newSynthesizer = orig })
	return ms
}

func testStream() *midi.Stream {
	var tempo, voice midi.Track
	tempo.Add(midi.NewTempo(0, 500000), midi.NewTempo(960, 1000000))
	voice.Add(
		midi.NewControl(0, 1, 7, 100),
		midi.NewPitchBend(479, 1, 4096),
		midi.NewNoteOn(480, 1, 60, 90),
		midi.NewNoteOff(960, 1, 60, 0),
		midi.NewNoteOn(960, 1, 62, 80),
		midi.NewNoteOff(1440, 1, 62, 0),
	)
	return &midi.Stream{Format: 1, TicksPerBeat: 480, Tracks: []midi.Track{tempo, voice}}
}

func TestRenderSchedulesAtExactSamples(t *testing.T) {
	ms := withMock(t)
	r := New(&meltysynth.SoundFont{}, 1000, 100*time.Millisecond)

	left, right, err := r.Render(testStream())
	if err != nil {
		t.Fatal(err)
	}
	// Two beats at 120 bpm, one at 60 bpm, then the tail.
	if len(left) != 2100 || len(right) != 2100 {
		t.Fatalf("rendered %d/%d samples, want 2100", len(left), len(right))
	}
	if ms.cur != 2100 {
		t.Errorf("synth rendered %d samples", ms.cur)
	}

	want := []message{
		{1, 0xB0, 7, 100, 0},
		{1, 0xE0, 0, 96, 499},
		{1, 0x90, 60, 90, 500},
		{1, 0x80, 60, 0, 1000},
		{1, 0x90, 62, 80, 1000},
		{1, 0x80, 62, 0, 2000},
	}
	if len(ms.messages) != len(want) {
		t.Fatalf("messages = %+v", ms.messages)
	}
	for i, m := range ms.messages {
		if m != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, m, want[i])
		}
	}
}

func TestRenderNeedsSoundFont(t *testing.T) {
	withMock(t)
	if _, _, err := New(nil, 0, 0).Render(testStream()); err == nil {
		t.Fatal("expected error")
	}
}

func TestScheduleOrdersOffsFirst(t *testing.T) {
	var tr midi.Track
	tr.Add(midi.NewNoteOn(0, 0, 60, 90), midi.NewNoteOn(480, 0, 60, 90), midi.NewNoteOff(480, 0, 60, 0))
	s := &midi.Stream{Format: 0, TicksPerBeat: 480, Tracks: []midi.Track{tr}}
	cues := schedule(s, 1000)
	if len(cues) != 3 {
		t.Fatalf("cues = %+v", cues)
	}
	if !cues[1].event.IsNoteEnd() || cues[1].sample != 500 {
		t.Errorf("cue 1 = %+v, want note-off at 500", cues[1])
	}
}

func TestMixPCMNormalizes(t *testing.T) {
	pcm := MixPCM([]float32{0.5, -0.25}, []float32{0, 0.1})
	if len(pcm) != 8 {
		t.Fatalf("len = %d", len(pcm))
	}
	l0 := int16(binary.LittleEndian.Uint16(pcm[0:]))
	l1 := int16(binary.LittleEndian.Uint16(pcm[4:]))
	if l0 < 32430 || l0 > 32440 {
		t.Errorf("peak sample = %d", l0)
	}
	if l1 > -16210 || l1 < -16230 {
		t.Errorf("second sample = %d", l1)
	}
}

func TestWriteWAV(t *testing.T) {
	var buf bytes.Buffer
	pcm := make([]byte, 40)
	n, err := WriteWAV(&buf, 22050, pcm)
	if err != nil {
		t.Fatal(err)
	}
	if n != 84 || buf.Len() != 84 {
		t.Fatalf("wrote %d bytes, buffer %d", n, buf.Len())
	}
	b := buf.Bytes()
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" || string(b[36:40]) != "data" {
		t.Errorf("bad chunk ids: %q", b[:40])
	}
	if got := binary.LittleEndian.Uint32(b[4:]); got != 76 {
		t.Errorf("riff size = %d", got)
	}
	if got := binary.LittleEndian.Uint32(b[24:]); got != 22050 {
		t.Errorf("sample rate = %d", got)
	}
	if got := binary.LittleEndian.Uint32(b[40:]); got != 40 {
		t.Errorf("data size = %d", got)
	}
}
