package terminal

import (
	tea "github.com/charmbracelet/bubbletea"
)

var keySequences = map[tea.KeyType]string{
	tea.KeySpace:          " ",
	tea.KeyShiftTab:       "\x1b[Z",
	tea.KeyHome:           "\x1b[H",
	tea.KeyEnd:            "\x1b[F",
	tea.KeyPgUp:           "\x1b[5~",
	tea.KeyPgDown:         "\x1b[6~",
	tea.KeyDelete:         "\x1b[3~",
	tea.KeyInsert:         "\x1b[2~",
	tea.KeyCtrlUp:         "\x1b[1;5A",
	tea.KeyCtrlDown:       "\x1b[1;5B",
	tea.KeyCtrlRight:      "\x1b[1;5C",
	tea.KeyCtrlLeft:       "\x1b[1;5D",
	tea.KeyShiftUp:        "\x1b[1;2A",
	tea.KeyShiftDown:      "\x1b[1;2B",
	tea.KeyShiftRight:     "\x1b[1;2C",
	tea.KeyShiftLeft:      "\x1b[1;2D",
	tea.KeyCtrlShiftUp:    "\x1b[1;6A",
	tea.KeyCtrlShiftDown:  "\x1b[1;6B",
	tea.KeyCtrlShiftRight: "\x1b[1;6C",
	tea.KeyCtrlShiftLeft:  "\x1b[1;6D",
	tea.KeyCtrlHome:       "\x1b[1;5H",
	tea.KeyCtrlEnd:        "\x1b[1;5F",
	tea.KeyShiftHome:      "\x1b[1;2H",
	tea.KeyShiftEnd:       "\x1b[1;2F",
	tea.KeyCtrlPgUp:       "\x1b[5;5~",
	tea.KeyCtrlPgDown:     "\x1b[6;5~",
	tea.KeyF1:             "\x1bOP",
	tea.KeyF2:             "\x1bOQ",
	tea.KeyF3:             "\x1bOR",
	tea.KeyF4:             "\x1bOS",
	tea.KeyF5:             "\x1b[15~",
	tea.KeyF6:             "\x1b[17~",
	tea.KeyF7:             "\x1b[18~",
	tea.KeyF8:             "\x1b[19~",
	tea.KeyF9:             "\x1b[20~",
	tea.KeyF10:            "\x1b[21~",
	tea.KeyF11:            "\x1b[23~",
	tea.KeyF12:            "\x1b[24~",
}

var arrowFinal = map[tea.KeyType]byte{
	tea.KeyUp:    'A',
	tea.KeyDown:  'B',
	tea.KeyRight: 'C',
	tea.KeyLeft:  'D',
}

// KeyBytes encodes a key press as the bytes an xterm would send for it.
// With appCursor set, plain arrows use the SS3 form. Keys with no encoding
// return nil.
func KeyBytes(msg tea.KeyMsg, appCursor bool) []byte {
	var out []byte
	switch {
	case msg.Type == tea.KeyRunes:
		if msg.Paste {
			return []byte(string(msg.Runes))
		}
		out = []byte(string(msg.Runes))
	case msg.Type >= 0 && msg.Type <= 31, msg.Type == tea.KeyBackspace:
		out = []byte{byte(msg.Type)}
	default:
		if final, ok := arrowFinal[msg.Type]; ok {
			if appCursor {
				out = []byte{0x1b, 'O', final}
			} else {
				out = []byte{0x1b, '[', final}
			}
			break
		}
		seq, ok := keySequences[msg.Type]
		if !ok {
			return nil
		}
		out = []byte(seq)
	}
	if msg.Alt {
		out = append([]byte{0x1b}, out...)
	}
	return out
}
