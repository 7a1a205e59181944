package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/persona/internal/config"
	"github.com/GriffinCanCode/persona/internal/logging"
	"github.com/GriffinCanCode/persona/internal/memory"
	"github.com/GriffinCanCode/persona/internal/persona"
	"github.com/GriffinCanCode/persona/internal/session"
	"github.com/GriffinCanCode/persona/internal/tabs"
	"github.com/GriffinCanCode/persona/internal/terminal"
)

// View is one of the top-level screens.
type View int

const (
	ViewPersonas View = iota
	ViewMemory
	ViewSettings
)

func (v View) String() string {
	switch v {
	case ViewPersonas:
		return "Personas"
	case ViewMemory:
		return "Memory"
	case ViewSettings:
		return "Settings"
	default:
		return "Unknown"
	}
}

// MemoryService is the memory server as the UI uses it.
type MemoryService interface {
	Search(ctx context.Context, req memory.SearchRequest) ([]memory.Memory, error)
	Get(ctx context.Context, id, actor string) (memory.Memory, error)
}

// Options wires the model to the rest of the application.
type Options struct {
	Config     *config.Config
	ConfigPath string
	Personas   []persona.Persona
	Registry   *session.Registry
	// Memory may be nil, in which case search is disabled.
	Memory MemoryService
	Logger *logging.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg      *config.Config
	cfgPath  string
	personas []persona.Persona
	registry *session.Registry
	memory   MemoryService
	logger   *logging.Logger

	tabs     *tabs.Sequence
	surfaces map[string]*terminal.Surface
	theme    terminal.Theme
	styles   styles
	keys     KeyMap
	help     help.Model
	list     list.Model

	view      View
	inputMode bool
	expanded  bool
	width     int
	height    int
	status    string

	mem      memoryView
	settings settingsView
}

// New builds the root model. The registry must outlive the program.
func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	theme, ok := terminal.ThemeByName(cfg.Terminal.Theme)
	if !ok {
		logger.Warn("Unknown theme, using default", zap.String("theme", cfg.Terminal.Theme))
	}

	m := &Model{
		cfg:      cfg,
		cfgPath:  opts.ConfigPath,
		personas: opts.Personas,
		registry: opts.Registry,
		memory:   opts.Memory,
		logger:   logger.Named("tui"),
		tabs:     tabs.New(),
		surfaces: make(map[string]*terminal.Surface),
		theme:    theme,
		styles:   newStyles(theme),
		keys:     DefaultKeyMap,
		help:     help.New(),
		mem:      newMemoryView(),
		settings: newSettingsView(),
	}
	m.list = newPersonaList(m.personas, m.registry.IsActive, m.styles)
	return m
}

// Init starts listening for session events.
func (m *Model) Init() tea.Cmd {
	return waitForEvent(m.registry.Events())
}

// Update is the single place UI state changes.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case sessionEventMsg:
		m.handleSessionEvent(session.Event(msg))
		return m, waitForEvent(m.registry.Events())

	case memoryResultsMsg:
		m.mem.applyResults(msg)
		return m, nil

	case memoryDetailMsg:
		m.mem.applyDetail(msg)
		return m, nil

	case kbFileMsg:
		m.mem.applyFile(msg)
		return m, nil

	case kbSavedMsg:
		m.applySaved(msg)
		return m, nil

	case tea.KeyMsg:
		if m.inputMode {
			return m, m.handleInputKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text entry owns the keyboard until it is dismissed.
	if m.view == ViewMemory && (m.mem.input.Focused() || m.mem.editing) {
		return m, m.updateMemory(msg)
	}
	if m.view == ViewSettings && m.settings.editing {
		return m, m.updateSettings(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.ViewPersonas):
		m.setView(ViewPersonas)
		return m, nil
	case key.Matches(msg, m.keys.ViewMemory):
		m.setView(ViewMemory)
		return m, nil
	case key.Matches(msg, m.keys.ViewSettings):
		m.setView(ViewSettings)
		return m, nil
	case key.Matches(msg, m.keys.CycleView):
		m.setView((m.view + 1) % 3)
		return m, nil
	}

	switch m.view {
	case ViewMemory:
		return m, m.updateMemory(msg)
	case ViewSettings:
		return m, m.updateSettings(msg)
	default:
		return m, m.updatePersonas(msg)
	}
}

func (m *Model) setView(v View) {
	if m.view == v {
		return
	}
	m.view = v
	m.status = ""
	if v == ViewMemory {
		m.mem.setPersona(m.selectedPersona())
	}
	m.layout()
}

func (m *Model) quit() tea.Cmd {
	n := m.registry.DestroyAll()
	m.logger.Info("Shutting down", zap.Int("sessions_destroyed", n))
	return tea.Quit
}

// conversationSize is the grid available to the active conversation.
func (m *Model) conversationSize() (cols, rows int) {
	if m.width == 0 || m.height == 0 {
		size := m.registry.InitialSize()
		return int(size.Cols), int(size.Rows)
	}
	cols = m.width
	if !m.expanded {
		cols -= sidebarWidth + 1
	}
	// header, footer, tab bar and conversation title
	rows = m.height - 4
	return max(cols, 1), max(rows, 1)
}

// layout recomputes sizes after a window, view or tab change. The active
// surface is resized here; its callback forwards the new grid to the
// agent.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	cols, rows := m.conversationSize()
	m.registry.SetInitialSize(cols, rows)

	m.list.SetSize(sidebarWidth, max(m.height-2, 1))
	m.help.Width = m.width
	m.sizeEditor()

	if m.view != ViewPersonas {
		return
	}
	if tab, ok := m.tabs.ActiveTab(); ok {
		if surf, ok := m.surfaces[tab.PersonaID]; ok {
			surf.SetSize(cols, rows)
		}
	}
}

// selectedPersona is the persona highlighted in the list, if any.
func (m *Model) selectedPersona() (persona.Persona, bool) {
	item, ok := m.list.SelectedItem().(personaItem)
	if !ok {
		return persona.Persona{}, false
	}
	return item.p, true
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
}

// InputMode reports whether keys are being routed to the active agent.
func (m *Model) InputMode() bool { return m.inputMode }

// CurrentView returns the visible screen.
func (m *Model) CurrentView() View { return m.view }
