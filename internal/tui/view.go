package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the whole screen.
func (m *Model) View() string {
	header := m.headerView()
	footer := m.footerView()
	bodyHeight := max(m.height-2, 1)

	var body string
	switch m.view {
	case ViewMemory:
		body = m.memoryBody(m.width, bodyHeight)
	case ViewSettings:
		body = m.settingsBody()
	default:
		body = m.personasBody(bodyHeight)
	}
	if m.height > 0 {
		body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) headerView() string {
	parts := []string{m.styles.header.Render("persona")}
	for i, v := range []View{ViewPersonas, ViewMemory, ViewSettings} {
		label := fmt.Sprintf("F%d %s", i+1, v)
		if v == m.view {
			parts = append(parts, m.styles.navActive.Render(label))
		} else {
			parts = append(parts, m.styles.navItem.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) footerView() string {
	if m.status != "" {
		return m.styles.footer.Render(m.status)
	}
	var keys bindings
	switch {
	case m.inputMode:
		keys = m.keys.inputHelp()
	case m.view == ViewMemory && m.mem.editing:
		keys = m.keys.noteHelp()
	case m.view == ViewMemory:
		keys = m.keys.memoryHelp()
	case m.view == ViewSettings:
		keys = m.keys.settingsHelp()
	default:
		keys = m.keys.personasHelp()
	}
	return m.styles.footer.Render(m.help.View(keys))
}

func (m *Model) personasBody(height int) string {
	conversation := lipgloss.JoinVertical(lipgloss.Left, m.tabBar(), m.conversationView())
	if m.expanded {
		return conversation
	}
	sidebar := m.styles.sidebar.Height(height).Render(m.list.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, conversation)
}

func (m *Model) tabBar() string {
	all := m.tabs.Tabs()
	if len(all) == 0 {
		return ""
	}
	active, _ := m.tabs.Active()
	parts := make([]string, 0, len(all))
	for i, t := range all {
		label := fmt.Sprintf("%d %s", i+1, t.PersonaName)
		if m.registry.IsActive(t.PersonaID) {
			label += " ●"
		}
		if i == active {
			parts = append(parts, m.styles.tabActive.Render(label))
		} else {
			parts = append(parts, m.styles.tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) conversationView() string {
	tab, ok := m.tabs.ActiveTab()
	if !ok {
		return m.styles.muted.Render("Select a persona to start a conversation")
	}

	s, ok := m.registry.Get(tab.PersonaID)
	if !ok {
		return m.sessionPrompt(tab.PersonaName, "")
	}
	if s.Failed() {
		return m.sessionPrompt(tab.PersonaName, s.Err())
	}

	state := m.styles.statusLive.Render("running")
	if !s.Alive() {
		state = m.styles.muted.Render("exited")
	}
	title := fmt.Sprintf("%s  %s  %s", m.styles.title.Render(tab.PersonaName), state,
		m.styles.muted.Render(s.Mode().String()))
	if m.inputMode {
		title += "  " + m.styles.key.Render("INPUT")
	}

	surf, ok := m.surfaces[tab.PersonaID]
	if !ok {
		return title
	}
	if !s.Alive() {
		title += "  " + m.styles.muted.Render("[n] new  [c] continue")
	}
	return title + "\n" + surf.View(m.inputMode)
}

func (m *Model) sessionPrompt(name, errMsg string) string {
	var b strings.Builder
	if errMsg != "" {
		b.WriteString(m.styles.errorText.Render(errMsg))
		b.WriteString("\n\n")
	}
	b.WriteString(m.styles.prompt.Render("Start session with " + name))
	b.WriteString("\n\n")
	b.WriteString(m.styles.key.Render("[n]"))
	b.WriteString(" Start new session   ")
	b.WriteString(m.styles.key.Render("[c]"))
	b.WriteString(" Continue session")
	return b.String()
}
