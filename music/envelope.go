package music

// Point is one breakpoint of an Envelope. The interval moves linearly from
// Cents to the next point's Cents over Duration.
type Point struct {
	Duration float64 `json:"duration"`
	Cents    float64 `json:"cents"`
}

// Envelope is a pitch interval curve in cents. Its time axis is relative:
// the tuner stretches it over the note it is attached to.
type Envelope []Point

// Duration is the sum of all segment durations.
func (e Envelope) Duration() float64 {
	var d float64
	for _, p := range e {
		d += p.Duration
	}
	return d
}

// ValueAt returns the interpolated interval at pos. Positions outside the
// envelope hold the first or last value.
func (e Envelope) ValueAt(pos float64) float64 {
	if len(e) == 0 {
		return 0
	}
	if pos <= 0 {
		return e[0].Cents
	}
	var start float64
	for i, p := range e {
		if i == len(e)-1 {
			return p.Cents
		}
		end := start + p.Duration
		if pos < end {
			frac := (pos - start) / p.Duration
			return p.Cents + frac*(e[i+1].Cents-p.Cents)
		}
		start = end
	}
	return e[len(e)-1].Cents
}
