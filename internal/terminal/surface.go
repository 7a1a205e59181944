package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/hinshun/vt10x"
)

// Glyph attribute bits as vt10x stores them in Glyph.Mode. Reverse video
// (bit 0) needs no handling here: vt10x swaps a reversed cell's colors when
// it stores the glyph.
const (
	attrUnderline = 1 << 1
	attrBold      = 1 << 2
	attrItalic    = 1 << 4
	attrBlink     = 1 << 5
)

// Surface is the emulated screen a session's output is drawn onto.
// Output bytes are fed in with Write; View renders the current grid.
type Surface struct {
	mu       sync.Mutex
	vt       vt10x.Terminal
	theme    Theme
	cols     int
	rows     int
	pending  []byte
	onResize func(cols, rows int) bool
	styles   map[cellStyle]lipgloss.Style

	// last grid the resize callback accepted
	syncedCols int
	syncedRows int
}

type cellStyle struct {
	fg, bg    string
	bold      bool
	italic    bool
	underline bool
	blink     bool
}

// NewSurface creates a surface of the given size. Replies the emulator
// generates (device status reports and the like) are written to w, which is
// normally the session's process input. A nil w discards them.
func NewSurface(w io.Writer, cols, rows int, theme Theme) *Surface {
	if w == nil {
		w = io.Discard
	}
	cols, rows = clamp(cols), clamp(rows)
	if theme.Name == "" {
		theme, _ = ThemeByName("")
	}
	return &Surface{
		vt:     vt10x.New(vt10x.WithWriter(w), vt10x.WithSize(cols, rows)),
		theme:  theme,
		cols:   cols,
		rows:   rows,
		styles: make(map[cellStyle]lipgloss.Style),

		syncedCols: cols,
		syncedRows: rows,
	}
}

// OnResize registers fn to receive grid sizes from SetSize. fn reports
// whether it applied the size; a size it declined is offered again on the
// next SetSize call even when the grid has not changed since.
func (s *Surface) OnResize(fn func(cols, rows int) bool) {
	s.mu.Lock()
	s.onResize = fn
	s.mu.Unlock()
}

// Write feeds process output into the emulator. A multi-byte rune split
// across two writes is held back until the rest of it arrives.
func (s *Surface) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := p
	if len(s.pending) > 0 {
		buf = append(s.pending, p...)
		s.pending = nil
	}
	cut := incompleteTail(buf)
	if cut > 0 {
		s.pending = append([]byte(nil), buf[len(buf)-cut:]...)
		buf = buf[:len(buf)-cut]
	}
	if len(buf) > 0 {
		if _, err := s.vt.Write(buf); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// incompleteTail returns how many trailing bytes of b form the start of a
// rune that is not yet complete.
func incompleteTail(b []byte) int {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if c < utf8.RuneSelf {
			return 0
		}
		if utf8.RuneStart(c) {
			if utf8.FullRune(b[len(b)-i:]) {
				return 0
			}
			return i
		}
	}
	return 0
}

// SetSize resizes the grid and reports whether its size changed. The resize
// callback runs whenever the grid differs from the size it last accepted.
func (s *Surface) SetSize(cols, rows int) bool {
	cols, rows = clamp(cols), clamp(rows)

	s.mu.Lock()
	changed := cols != s.cols || rows != s.rows
	if changed {
		s.cols, s.rows = cols, rows
		s.vt.Resize(cols, rows)
	}
	fn := s.onResize
	unsynced := cols != s.syncedCols || rows != s.syncedRows
	s.mu.Unlock()

	if fn == nil || !unsynced || !fn(cols, rows) {
		return changed
	}
	s.mu.Lock()
	if s.cols == cols && s.rows == rows {
		s.syncedCols, s.syncedRows = cols, rows
	}
	s.mu.Unlock()
	return changed
}

// Size returns the grid size in cells.
func (s *Surface) Size() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// Title returns the window title last set by the program.
func (s *Surface) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vt.Title()
}

// AppCursor reports whether the program switched cursor keys to
// application mode.
func (s *Surface) AppCursor() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vt.Mode()&vt10x.ModeAppCursor != 0
}

// String returns the grid as plain text with trailing blanks trimmed.
func (s *Surface) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vt.Lock()
	defer s.vt.Unlock()

	lines := make([]string, s.rows)
	var sb strings.Builder
	for y := 0; y < s.rows; y++ {
		sb.Reset()
		for x := 0; x < s.cols; x++ {
			sb.WriteRune(printable(s.vt.Cell(x, y).Char))
		}
		lines[y] = strings.TrimRight(sb.String(), " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// View renders the grid with colors and attributes. Adjacent cells that
// share a style are rendered as one run.
func (s *Surface) View(showCursor bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vt.Lock()
	defer s.vt.Unlock()

	cur := s.vt.Cursor()
	showCursor = showCursor && s.vt.CursorVisible()

	var out strings.Builder
	var run strings.Builder
	for y := 0; y < s.rows; y++ {
		if y > 0 {
			out.WriteByte('\n')
		}
		var prev cellStyle
		run.Reset()
		for x := 0; x < s.cols; x++ {
			g := s.vt.Cell(x, y)
			st := s.styleOf(g, showCursor && x == cur.X && y == cur.Y)
			if x > 0 && st != prev {
				out.WriteString(s.render(prev, run.String()))
				run.Reset()
			}
			prev = st
			run.WriteRune(printable(g.Char))
		}
		out.WriteString(s.render(prev, run.String()))
	}
	return out.String()
}

func (s *Surface) styleOf(g vt10x.Glyph, cursor bool) cellStyle {
	st := cellStyle{
		fg:        s.color(g.FG),
		bg:        s.color(g.BG),
		bold:      g.Mode&attrBold != 0,
		italic:    g.Mode&attrItalic != 0,
		underline: g.Mode&attrUnderline != 0,
		blink:     g.Mode&attrBlink != 0,
	}
	if cursor {
		st.fg, st.bg = st.bg, st.fg
	}
	return st
}

func (s *Surface) render(st cellStyle, text string) string {
	if text == "" {
		return ""
	}
	style, ok := s.styles[st]
	if !ok {
		style = lipgloss.NewStyle().
			Foreground(lipgloss.Color(st.fg)).
			Background(lipgloss.Color(st.bg)).
			Bold(st.bold).
			Italic(st.italic).
			Underline(st.underline).
			Blink(st.blink)
		s.styles[st] = style
	}
	return style.Render(text)
}

// color maps an emulator color to a lipgloss color string.
func (s *Surface) color(c vt10x.Color) string {
	switch {
	case c == vt10x.DefaultFG:
		return s.theme.Foreground
	case c == vt10x.DefaultBG:
		return s.theme.Background
	case c == vt10x.DefaultCursor:
		return s.theme.Cursor
	case c < 16:
		return s.theme.ANSI[c]
	case c < 256:
		return fmt.Sprintf("%d", c)
	default:
		return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
	}
}

func printable(r rune) rune {
	if r < ' ' || r == 0x7f {
		return ' '
	}
	return r
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
