package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hako/durafmt"

	"go-midiconv/convert"
	"go-midiconv/midi"
	"go-midiconv/music"
	"go-midiconv/theme"
	"go-midiconv/widgets"
)

// View scales: beats per column (8 levels)
var ViewScales = []float64{
	0.03125, // 1/32 per col - super zoomed
	0.0625,  // 1/16 per col
	0.125,   // 1/8 per col
	0.25,    // 1/4 per col
	0.5,     // 1/2 per col
	1.0,     // 1 beat per col
	2.0,     // 2 beats per col
	4.0,     // 4 beats per col - zoomed out
}

const (
	defaultScale = 3
	defaultRows  = 24
	defaultCols  = 64
	labelWidth   = 5
	chromeHeight = 7
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

// Model is a read-only piano roll over a decoded MIDI stream.
type Model struct {
	Title string
	Theme *theme.Theme

	notes        []widgets.RollNote
	tracks       []string
	tempo        midi.TempoMap
	end          int64
	ticksPerBeat int

	vp       widgets.Viewport
	scale    int
	track    int // -1 shows every track
	help     bool
	quitting bool
}

func NewModel(title string, raw *midi.RawStream, th *theme.Theme) Model {
	c := convert.Classify(raw)
	pairs, _, _ := convert.PairNotes(c.NoteOns, c.NoteOffs)

	notes := make([]widgets.RollNote, len(pairs))
	top := -1
	for i, p := range pairs {
		notes[i] = widgets.RollNote{
			Track:    p.Track,
			Channel:  p.Channel,
			Pitch:    p.Note,
			Velocity: p.Velocity,
			Start:    p.Start,
			End:      p.End,
		}
		top = max(top, int(p.Note))
	}
	if top < 0 {
		top = 72
	}

	tracks := make([]string, len(c.Stream.Tracks))
	for i, t := range c.Stream.Tracks {
		tracks[i] = t.Name
		if tracks[i] == "" {
			tracks[i] = fmt.Sprintf("track %d", i+1)
		}
	}

	if th == nil {
		th = theme.New(nil)
	}
	m := Model{
		Title:        title,
		Theme:        th,
		notes:        notes,
		tracks:       tracks,
		tempo:        c.Stream.TempoMap(),
		end:          c.Stream.End(),
		ticksPerBeat: max(raw.TicksPerBeat, 1),
		scale:        defaultScale,
		track:        -1,
		vp: widgets.Viewport{
			Top:  min(top+2, 127),
			Rows: defaultRows,
			Cols: defaultCols,
		},
	}
	m.vp.TicksPerCol = m.ticksPerCol()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) ticksPerCol() int64 {
	return max(int64(math.Round(ViewScales[m.scale]*float64(m.ticksPerBeat))), 1)
}

// follow scrolls so the cursor stays on screen.
func (m *Model) follow() {
	m.vp.Cursor = min(max(m.vp.Cursor, 0), m.end)
	span := int64(m.vp.Cols) * m.vp.TicksPerCol
	if m.vp.Cursor < m.vp.Start {
		m.vp.Start = m.vp.Cursor - m.vp.Cursor%m.vp.TicksPerCol
	}
	if m.vp.Cursor >= m.vp.Start+span {
		m.vp.Start = m.vp.Cursor - m.vp.Cursor%m.vp.TicksPerCol - span + m.vp.TicksPerCol
	}
	m.vp.Start = max(m.vp.Start, 0)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "h", "left":
			m.vp.Cursor -= m.vp.TicksPerCol
		case "l", "right":
			m.vp.Cursor += m.vp.TicksPerCol
		case "H":
			m.vp.Cursor -= 8 * m.vp.TicksPerCol
		case "L":
			m.vp.Cursor += 8 * m.vp.TicksPerCol
		case "g", "home":
			m.vp.Cursor = 0
		case "G", "end":
			m.vp.Cursor = m.end

		case "k", "up":
			m.vp.Top = min(m.vp.Top+1, 127)
		case "j", "down":
			m.vp.Top = max(m.vp.Top-1, m.vp.Rows-1)
		case "K":
			m.vp.Top = min(m.vp.Top+12, 127)
		case "J":
			m.vp.Top = max(m.vp.Top-12, m.vp.Rows-1)

		case "+", "=":
			m.scale = max(m.scale-1, 0)
			m.vp.TicksPerCol = m.ticksPerCol()
		case "-", "_":
			m.scale = min(m.scale+1, len(ViewScales)-1)
			m.vp.TicksPerCol = m.ticksPerCol()

		case "tab":
			m.track++
			if m.track >= len(m.tracks) {
				m.track = -1
			}

		case "?":
			m.help = !m.help
		}
		m.follow()

	case tea.WindowSizeMsg:
		m.vp.Cols = max(msg.Width-labelWidth, 8)
		m.vp.Rows = min(max(msg.Height-chromeHeight, 4), 128)
		m.vp.Top = max(m.vp.Top, m.vp.Rows-1)
		m.follow()
	}

	return m, nil
}

// visible returns the notes of the selected track.
func (m Model) visible() []widgets.RollNote {
	if m.track < 0 {
		return m.notes
	}
	var out []widgets.RollNote
	for _, n := range m.notes {
		if n.Track == m.track {
			out = append(out, n)
		}
	}
	return out
}

// bpmAt returns the tempo in effect at tick.
func (m Model) bpmAt(tick int64) float64 {
	bpm := music.DefaultBPM
	for _, c := range m.tempo.Changes {
		if c.Tick > tick {
			break
		}
		bpm = c.BPM()
	}
	return bpm
}

func formatTime(d time.Duration) string {
	if d < time.Millisecond {
		return "0s"
	}
	return durafmt.Parse(d).LimitFirstN(2).Format(shortUnits)
}

func (m Model) status(notes []widgets.RollNote) string {
	beat := float64(m.vp.Cursor) / float64(m.ticksPerBeat)
	out := fmt.Sprintf("beat %.2f  %s / %s  %.1fbpm  %s/col",
		beat,
		formatTime(m.tempo.Time(m.vp.Cursor)),
		formatTime(m.tempo.Time(m.end)),
		m.bpmAt(m.vp.Cursor),
		formatStep(ViewScales[m.scale]))

	var sounding []string
	for _, i := range widgets.NotesAt(notes, m.vp.Cursor) {
		n := notes[i]
		sounding = append(sounding, fmt.Sprintf("%s:%d", music.NoteName(int(n.Pitch)), n.Velocity))
	}
	if len(sounding) > 0 {
		out += "  " + strings.Join(sounding, " ")
	}
	return out
}

func formatStep(beats float64) string {
	if beats >= 1 {
		return fmt.Sprintf("%g beat", beats)
	}
	return fmt.Sprintf("1/%g", 1/beats)
}

var keyHelp = []widgets.KeySection{
	{Title: "Move", Keys: []widgets.KeyBinding{
		{Key: "h / l", Desc: "cursor left/right"},
		{Key: "H / L", Desc: "cursor 8 columns"},
		{Key: "g / G", Desc: "start/end"},
	}},
	{Title: "Pitch", Keys: []widgets.KeyBinding{
		{Key: "j / k", Desc: "scroll semitone"},
		{Key: "J / K", Desc: "scroll octave"},
	}},
	{Title: "View", Keys: []widgets.KeyBinding{
		{Key: "+ / -", Desc: "zoom in/out"},
		{Key: "tab", Desc: "next track"},
		{Key: "q", Desc: "quit"},
	}},
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	statusStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())

	trackName := "all tracks"
	if m.track >= 0 {
		trackName = m.tracks[m.track]
	}
	notes := m.visible()
	header := headerStyle.Render(fmt.Sprintf("%s  %s  %d notes", m.Title, trackName, len(notes)))

	grid := widgets.RollGrid(notes, m.vp, m.end)
	roll := widgets.RenderRoll(grid, m.vp, notes, m.Theme.Glyphs, m.Theme.NoteColor)

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(roll)
	out.WriteString("\n\n")
	out.WriteString(statusStyle.Render(m.status(notes)))
	out.WriteString("\n")
	if m.help {
		out.WriteString("\n")
		out.WriteString(widgets.RenderKeyHelp(keyHelp))
	} else {
		out.WriteString(dimStyle.Render("hl:cursor  jk:pitch  +/-:zoom  tab:track  ?:help  q:quit"))
	}
	return out.String()
}

// Run shows the model full screen until the user quits.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
