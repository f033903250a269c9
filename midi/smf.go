package midi

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

// SMF builds a standard MIDI file from the raw stream.
func (r *RawStream) SMF() (*smf.SMF, error) {
	var s *smf.SMF
	switch r.Format {
	case 0:
		if len(r.Tracks) != 1 {
			return nil, fmt.Errorf("format 0 needs exactly one track, got %d", len(r.Tracks))
		}
		s = smf.New()
	case 1:
		s = smf.NewSMF1()
	default:
		return nil, fmt.Errorf("unsupported file format %d", r.Format)
	}
	if r.TicksPerBeat <= 0 || r.TicksPerBeat > 0x7FFF {
		return nil, fmt.Errorf("ticks per beat %d out of range 1..32767", r.TicksPerBeat)
	}
	s.TimeFormat = smf.MetricTicks(r.TicksPerBeat)

	for i, rt := range r.Tracks {
		var track smf.Track
		for _, d := range rt {
			msg, err := d.Event.Message()
			if err != nil {
				return nil, fmt.Errorf("track %d: %w", i, err)
			}
			track.Add(d.Delta, msg)
		}
		track.Close(0)
		if err := s.Add(track); err != nil {
			return nil, fmt.Errorf("add track %d: %w", i, err)
		}
	}
	return s, nil
}

// FromSMF reads the messages this package models out of a standard MIDI
// file. Deltas of skipped messages carry over to the next kept one.
func FromSMF(s *smf.SMF) (*RawStream, error) {
	tpb, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported time format %v", s.TimeFormat)
	}
	raw := &RawStream{Format: int(s.Format()), TicksPerBeat: int(tpb)}
	for _, track := range s.Tracks {
		rt := RawTrack{}
		var pending uint32
		for _, ev := range track {
			pending += ev.Delta
			e, ok := ParseMessage(ev.Message)
			if !ok {
				continue
			}
			rt = append(rt, Delta{Delta: pending, Event: e})
			pending = 0
		}
		raw.Tracks = append(raw.Tracks, rt)
	}
	return raw, nil
}

// WriteTo writes the stream as a standard MIDI file.
func (r *RawStream) WriteTo(w io.Writer) (int64, error) {
	s, err := r.SMF()
	if err != nil {
		return 0, err
	}
	return s.WriteTo(w)
}

// Read parses a standard MIDI file.
func Read(rd io.Reader) (*RawStream, error) {
	s, err := smf.ReadFrom(rd)
	if err != nil {
		return nil, fmt.Errorf("parse smf: %w", err)
	}
	return FromSMF(s)
}

// ReadFile parses the standard MIDI file at path.
func ReadFile(path string) (*RawStream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	raw, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return raw, nil
}

// WriteFile writes the stream to path and returns the number of bytes written.
func (r *RawStream) WriteFile(path string) (int64, error) {
	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	if err != nil {
		return 0, errors.Wrapf(err, "encode %s", path)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return 0, errors.Wrapf(err, "write %s", path)
	}
	return n, nil
}
