package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/GriffinCanCode/persona/internal/terminal"
)

const sidebarWidth = 32

// styles are derived from the terminal theme so the chrome matches the
// agent output.
type styles struct {
	header     lipgloss.Style
	navItem    lipgloss.Style
	navActive  lipgloss.Style
	sidebar    lipgloss.Style
	tab        lipgloss.Style
	tabActive  lipgloss.Style
	title      lipgloss.Style
	muted      lipgloss.Style
	errorText  lipgloss.Style
	prompt     lipgloss.Style
	key        lipgloss.Style
	selected   lipgloss.Style
	footer     lipgloss.Style
	statusLive lipgloss.Style
}

func newStyles(t terminal.Theme) styles {
	bg := lipgloss.Color(t.Background)
	fg := lipgloss.Color(t.Foreground)
	accent := lipgloss.Color(t.ANSI[4])
	muted := lipgloss.Color(t.ANSI[8])

	return styles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1),
		navItem:   lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		navActive: lipgloss.NewStyle().Bold(true).Foreground(bg).Background(accent).Padding(0, 1),
		sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(muted),
		tab:        lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		tabActive:  lipgloss.NewStyle().Bold(true).Foreground(fg).Underline(true).Padding(0, 1),
		title:      lipgloss.NewStyle().Bold(true).Foreground(fg),
		muted:      lipgloss.NewStyle().Foreground(muted),
		errorText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.ANSI[1])),
		prompt:     lipgloss.NewStyle().Foreground(fg),
		key:        lipgloss.NewStyle().Bold(true).Foreground(accent),
		selected:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		footer:     lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		statusLive: lipgloss.NewStyle().Foreground(lipgloss.Color(t.ANSI[2])),
	}
}
