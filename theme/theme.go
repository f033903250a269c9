package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"go-midiconv/widgets"
)

type Theme struct {
	Palette *Palette
	Glyphs  widgets.Glyphs
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Glyphs:  widgets.DefaultGlyphs(),
	}
}

// Load builds a theme from a GPL file, or the default palette when path is
// empty.
func Load(path string) (*Theme, error) {
	if path == "" {
		return New(nil), nil
	}
	p, err := LoadGPL(path)
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleCursor  = 0.6
	RoleWarning = 0.8
)

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

// Velocity maps a note velocity onto the upper part of the palette so that
// quiet notes stay readable.
func (t *Theme) Velocity(v uint8) RGB {
	if v >= 127 {
		return t.Palette.Lookup(1)
	}
	return t.Palette.Lookup(0.3 + 0.7*float64(v)/127)
}

// NoteColor colors roll notes by velocity.
func (t *Theme) NoteColor(n widgets.RollNote) [3]uint8 {
	return t.Velocity(n.Velocity)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
