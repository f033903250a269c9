package music

// DefaultBPM is used when a song carries no tempo envelope.
const DefaultBPM = 120.0

// TempoPoint sets the tempo from Beat onwards.
type TempoPoint struct {
	Beat float64 `json:"beat"`
	BPM  float64 `json:"bpm"`
}

// TempoEnvelope is an ordered list of tempo breakpoints.
type TempoEnvelope []TempoPoint

// ConstantTempo returns an envelope holding bpm from the start.
func ConstantTempo(bpm float64) TempoEnvelope {
	return TempoEnvelope{{Beat: 0, BPM: bpm}}
}

// BPMAt returns the tempo in effect at beat.
func (t TempoEnvelope) BPMAt(beat float64) float64 {
	bpm := DefaultBPM
	for _, p := range t {
		if p.Beat > beat {
			break
		}
		bpm = p.BPM
	}
	return bpm
}
