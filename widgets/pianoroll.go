package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-midiconv/music"
)

// RollNote is one sounding note on the roll.
type RollNote struct {
	Track    int
	Channel  uint8
	Pitch    uint8
	Velocity uint8
	Start    int64 // ticks
	End      int64
}

// Viewport selects the window of the roll to draw.
type Viewport struct {
	Start       int64 // tick of the first column
	TicksPerCol int64
	Top         int // pitch of the first row
	Rows        int
	Cols        int
	Cursor      int64 // tick under the cursor column
}

// CursorCol returns the column holding the cursor, or -1.
func (v Viewport) CursorCol() int {
	if v.TicksPerCol <= 0 || v.Cursor < v.Start {
		return -1
	}
	col := int((v.Cursor - v.Start) / v.TicksPerCol)
	if col >= v.Cols {
		return -1
	}
	return col
}

// Glyphs are the runes of the roll.
type Glyphs struct {
	Empty      rune // · no note
	Start      rune // ● note starts in this column
	Hold       rune // ─ note sustains
	Overlap    rune // ═ several notes sustain
	Beyond     rune // - past the end of the song
	Cursor     rune // ▶ cursor on empty
	CursorNote rune // ◉ cursor on a note
}

func DefaultGlyphs() Glyphs {
	return Glyphs{
		Empty:      '·',
		Start:      '●',
		Hold:       '─',
		Overlap:    '═',
		Beyond:     '-',
		Cursor:     '▶',
		CursorNote: '◉',
	}
}

// CellKind classifies a grid cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellStart
	CellHold
	CellOverlap
	CellBeyond
)

// Cell is one column of one pitch row.
type Cell struct {
	Kind CellKind
	Note int // loudest note in the cell, -1 if none
}

// RollGrid lays notes out on the viewport. Row 0 is the Top pitch; columns at
// or after end are Beyond.
func RollGrid(notes []RollNote, vp Viewport, end int64) [][]Cell {
	grid := make([][]Cell, vp.Rows)
	for row := range grid {
		grid[row] = make([]Cell, vp.Cols)
		pitch := vp.Top - row
		for col := range grid[row] {
			colStart := vp.Start + int64(col)*vp.TicksPerCol
			colEnd := colStart + vp.TicksPerCol
			if pitch < 0 || pitch > 127 || colStart < 0 || colStart >= end {
				grid[row][col] = Cell{Kind: CellBeyond, Note: -1}
				continue
			}

			cell := Cell{Kind: CellEmpty, Note: -1}
			here := 0
			for i, n := range notes {
				if int(n.Pitch) != pitch || n.Start >= colEnd || n.End <= colStart {
					continue
				}
				here++
				if n.Start >= colStart {
					cell.Kind = CellStart
				}
				if cell.Note < 0 || n.Velocity > notes[cell.Note].Velocity {
					cell.Note = i
				}
			}
			if here > 0 && cell.Kind != CellStart {
				cell.Kind = CellHold
				if here > 1 {
					cell.Kind = CellOverlap
				}
			}
			grid[row][col] = cell
		}
	}
	return grid
}

// RenderRoll draws the grid with a pitch label per row. A nil color leaves
// the cells unstyled.
func RenderRoll(grid [][]Cell, vp Viewport, notes []RollNote, g Glyphs, color func(RollNote) [3]uint8) string {
	cursor := vp.CursorCol()
	var out strings.Builder
	for row, cells := range grid {
		fmt.Fprintf(&out, "%-4s ", music.NoteName(vp.Top-row))
		for col, c := range cells {
			ch := g.Empty
			switch c.Kind {
			case CellStart:
				ch = g.Start
			case CellHold:
				ch = g.Hold
			case CellOverlap:
				ch = g.Overlap
			case CellBeyond:
				ch = g.Beyond
			}
			if col == cursor && c.Kind != CellBeyond {
				ch = g.Cursor
				if c.Note >= 0 {
					ch = g.CursorNote
				}
			}

			if color != nil && c.Note >= 0 {
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color(notes[c.Note]))))
				out.WriteString(style.Render(string(ch)))
			} else {
				out.WriteRune(ch)
			}
		}
		if row < len(grid)-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}

// NotesAt returns the indices of the notes sounding at tick.
func NotesAt(notes []RollNote, tick int64) []int {
	var idx []int
	for i, n := range notes {
		if n.Start <= tick && tick < n.End {
			idx = append(idx, i)
		}
	}
	return idx
}
