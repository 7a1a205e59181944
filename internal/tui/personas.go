package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/persona/internal/persona"
	"github.com/GriffinCanCode/persona/internal/session"
	"github.com/GriffinCanCode/persona/internal/tabs"
	"github.com/GriffinCanCode/persona/internal/terminal"
)

type personaItem struct {
	p      persona.Persona
	active func(string) bool
}

func (i personaItem) Title() string       { return i.p.Name }
func (i personaItem) FilterValue() string { return i.p.Name }

func (i personaItem) Description() string {
	if i.active != nil && i.active(i.p.ID) {
		return "● running"
	}
	return i.p.ID
}

func newPersonaList(personas []persona.Persona, active func(string) bool, st styles) list.Model {
	items := make([]list.Item, len(personas))
	for i, p := range personas {
		items[i] = personaItem{p: p, active: active}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(st.selected.GetForeground()).
		BorderForeground(st.selected.GetForeground())
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.BorderForeground(st.selected.GetForeground())

	l := list.New(items, delegate, sidebarWidth, 20)
	l.Title = "Personas"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	return l
}

// sessionWriter lets a surface answer terminal queries on the session's
// input.
type sessionWriter struct{ s *session.Session }

func (w sessionWriter) Write(p []byte) (int, error) {
	if err := w.s.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (m *Model) updatePersonas(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Open):
		if p, ok := m.selectedPersona(); ok {
			m.openTab(p)
		}
	case key.Matches(msg, m.keys.NewSession):
		m.startActive(session.ModeNew)
	case key.Matches(msg, m.keys.Continue):
		m.startActive(session.ModeContinue)
	case key.Matches(msg, m.keys.Input):
		m.enterInput()
	case key.Matches(msg, m.keys.NextTab):
		if m.tabs.Next() {
			m.layout()
		}
	case key.Matches(msg, m.keys.PrevTab):
		if m.tabs.Prev() {
			m.layout()
		}
	case key.Matches(msg, m.keys.SelectTab):
		if m.tabs.Select(int(msg.Runes[0] - '1')) {
			m.layout()
		}
	case key.Matches(msg, m.keys.CloseTab):
		m.closeActiveTab()
	case key.Matches(msg, m.keys.Expand):
		m.expanded = !m.expanded
		m.layout()
	default:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd
	}
	return nil
}

// openTab activates the persona's tab, adding it when needed. No session
// is started; the tab shows the new/continue prompt until one is chosen.
func (m *Model) openTab(p persona.Persona) {
	m.tabs.Open(tabs.Tab{PersonaID: p.ID, PersonaName: p.Name})
	m.layout()
}

// needsPrompt reports whether the persona's tab should offer to start a
// session: nothing has been started, the start failed, or the agent has
// exited.
func (m *Model) needsPrompt(personaID string) bool {
	s, ok := m.registry.Get(personaID)
	return !ok || s.Failed() || !s.Alive()
}

// startActive starts a session for the active tab. A failed or exited
// session is replaced; a running one is left alone.
func (m *Model) startActive(mode session.Mode) {
	tab, ok := m.tabs.ActiveTab()
	if !ok || !m.needsPrompt(tab.PersonaID) {
		return
	}
	p, ok := persona.Find(m.personas, tab.PersonaID)
	if !ok {
		p = persona.Persona{ID: tab.PersonaID, Name: tab.PersonaName}
	}

	// The registry spawns at the size the layout last reported.
	m.layout()

	var s *session.Session
	if _, exists := m.registry.Get(p.ID); exists {
		s = m.registry.Restart(p, mode)
	} else {
		s = m.registry.EnsureOrGet(p, mode)
	}
	m.attach(s)
}

// attach binds a rendering surface to a freshly started session.
func (m *Model) attach(s *session.Session) {
	id := s.PersonaID()
	if s.Failed() {
		delete(m.surfaces, id)
		m.logger.Debug("Session failed to start", zap.String("persona", id))
		return
	}

	size := m.registry.InitialSize()
	surf := terminal.NewSurface(sessionWriter{s}, int(size.Cols), int(size.Rows), m.theme)
	surf.OnResize(s.Resize)
	m.surfaces[id] = surf

	if s.ConsumeFocus() {
		m.inputMode = true
	}
	m.layout()
}

func (m *Model) enterInput() {
	tab, ok := m.tabs.ActiveTab()
	if !ok {
		return
	}
	if s, ok := m.registry.Get(tab.PersonaID); ok && s.Alive() {
		m.inputMode = true
	}
}

func (m *Model) closeActiveTab() {
	idx, ok := m.tabs.Active()
	if !ok {
		return
	}
	tab, ok := m.tabs.Close(idx)
	if !ok {
		return
	}
	m.registry.Destroy(tab.PersonaID)
	delete(m.surfaces, tab.PersonaID)
	m.layout()
}

// handleInputKey forwards a key to the active agent.
func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.LeaveInput) {
		m.inputMode = false
		return nil
	}
	tab, ok := m.tabs.ActiveTab()
	if !ok {
		m.inputMode = false
		return nil
	}
	s, ok := m.registry.Get(tab.PersonaID)
	surf := m.surfaces[tab.PersonaID]
	if !ok || surf == nil || !s.Alive() {
		m.inputMode = false
		return nil
	}

	data := terminal.KeyBytes(msg, surf.AppCursor())
	if len(data) == 0 {
		return nil
	}
	if err := s.Write(data); err != nil {
		m.logger.Debug("Write to agent failed", zap.String("persona", tab.PersonaID), zap.Error(err))
		m.inputMode = false
		m.setStatus("%s: agent is not accepting input", tab.PersonaName)
	}
	return nil
}

// handleSessionEvent applies one reader event. Events from a process that
// is no longer the persona's current one are dropped.
func (m *Model) handleSessionEvent(ev session.Event) {
	s, ok := m.registry.Get(ev.PersonaID)
	if !ok || s.Failed() || s.Process().ID() != ev.ProcessID {
		return
	}
	surf, ok := m.surfaces[ev.PersonaID]
	if !ok {
		return
	}
	if len(ev.Data) > 0 {
		_, _ = surf.Write(ev.Data)
	}
	if !ev.Closed {
		return
	}

	name := s.Persona().Name
	if ev.Err != nil {
		m.setStatus("%s: agent output failed: %v", name, ev.Err)
	} else {
		m.setStatus("%s: agent exited", name)
	}
	if tab, ok := m.tabs.ActiveTab(); ok && tab.PersonaID == ev.PersonaID {
		m.inputMode = false
	}
}
