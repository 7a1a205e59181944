package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/GriffinCanCode/persona/internal/knowledgebase"
	"github.com/GriffinCanCode/persona/internal/memory"
	"github.com/GriffinCanCode/persona/internal/persona"
)

const searchLimit = 50

type memoryCategory int

const (
	categoryMemories memoryCategory = iota
	categoryKnowledgebase
)

func (c memoryCategory) String() string {
	if c == categoryKnowledgebase {
		return "Knowledgebase"
	}
	return "Memories"
}

type memoryView struct {
	input    textinput.Model
	category memoryCategory
	persona  persona.Persona
	hasP     bool

	query   string
	results []memory.Memory
	entries []knowledgebase.Entry
	cursor  int
	preview string
	loading bool
	err     string

	// previewID is the memory shown in the preview; file is the open note.
	previewID string
	file      *knowledgebase.File
	editor    textarea.Model
	editing   bool
}

func newMemoryView() memoryView {
	in := textinput.New()
	in.Placeholder = "search memories"
	in.Prompt = "/ "
	in.CharLimit = 256

	ed := textarea.New()
	ed.ShowLineNumbers = false
	ed.MaxHeight = 0
	return memoryView{input: in, editor: ed}
}

// closePreview drops the preview and any note opened in it.
func (v *memoryView) closePreview() {
	v.preview = ""
	v.previewID = ""
	v.file = nil
	v.editing = false
	v.editor.Blur()
}

// setPersona switches the view to p, clearing results that belonged to the
// previous persona.
func (v *memoryView) setPersona(p persona.Persona, ok bool) {
	if ok == v.hasP && p.ID == v.persona.ID {
		return
	}
	v.persona, v.hasP = p, ok
	v.results = nil
	v.query = ""
	v.closePreview()
	v.err = ""
	v.cursor = 0
	v.entries = nil
	if ok {
		v.entries = knowledgebase.LoadEntries(p.KnowledgebasePath)
	}
}

func (v *memoryView) len() int {
	if v.category == categoryKnowledgebase {
		return len(v.entries)
	}
	return len(v.results)
}

func (v *memoryView) applyResults(msg memoryResultsMsg) {
	if !v.hasP || msg.personaID != v.persona.ID || msg.query != v.query {
		return
	}
	v.loading = false
	if msg.err != nil {
		v.err = fmt.Sprintf("Search failed: %v", msg.err)
		v.results = nil
		return
	}
	v.err = ""
	v.results = msg.results
	v.cursor = 0
	v.closePreview()
}

// applyDetail replaces the previewed memory with the server's current copy.
func (v *memoryView) applyDetail(msg memoryDetailMsg) {
	if !v.hasP || msg.personaID != v.persona.ID || msg.id != v.previewID {
		return
	}
	if msg.err != nil {
		v.err = fmt.Sprintf("Could not refresh memory: %v", msg.err)
		return
	}
	v.preview = msg.memory.Content
	for i := range v.results {
		if v.results[i].ID == msg.memory.ID {
			v.results[i] = msg.memory
		}
	}
}

func (v *memoryView) applyFile(msg kbFileMsg) {
	if msg.err != nil {
		v.err = fmt.Sprintf("Could not open file: %v", msg.err)
		return
	}
	v.err = ""
	v.file = msg.file
	v.preview = msg.file.Content
}

func (m *Model) applySaved(msg kbSavedMsg) {
	v := &m.mem
	if msg.err != nil {
		m.setStatus("Save failed: %v", msg.err)
		return
	}
	if v.file != nil && v.file.FilePath == msg.path {
		v.file.Content = msg.content
		v.preview = msg.content
		v.editing = false
		v.editor.Blur()
	}
	if v.hasP {
		v.entries = knowledgebase.LoadEntries(v.persona.KnowledgebasePath)
	}
	m.setStatus("Saved %s", filepath.Base(msg.path))
}

func (m *Model) startEdit() tea.Cmd {
	v := &m.mem
	v.editing = true
	v.editor.SetValue(v.file.Content)
	m.sizeEditor()
	return v.editor.Focus()
}

func (m *Model) sizeEditor() {
	m.mem.editor.SetWidth(max(m.width-2, 10))
	m.mem.editor.SetHeight(max(m.height-10, 3))
}

func (m *Model) updateMemory(msg tea.KeyMsg) tea.Cmd {
	v := &m.mem

	if v.editing {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			v.editing = false
			v.editor.Blur()
			return nil
		case key.Matches(msg, m.keys.SaveNote):
			return saveKBFileCmd(v.file.FilePath, v.editor.Value())
		}
		var cmd tea.Cmd
		v.editor, cmd = v.editor.Update(msg)
		return cmd
	}

	if v.input.Focused() {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			v.input.Blur()
			return nil
		case msg.Type == tea.KeyEnter:
			v.input.Blur()
			return m.submitSearch()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		v.category = categoryMemories
		return v.input.Focus()
	case key.Matches(msg, m.keys.Category):
		if v.category == categoryMemories {
			v.category = categoryKnowledgebase
			if v.hasP {
				v.entries = knowledgebase.LoadEntries(v.persona.KnowledgebasePath)
			}
		} else {
			v.category = categoryMemories
		}
		v.cursor = 0
		v.closePreview()
	case key.Matches(msg, m.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if v.cursor < v.len()-1 {
			v.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		return m.openMemoryItem()
	case key.Matches(msg, m.keys.EditNote):
		if v.category == categoryKnowledgebase && v.file != nil && v.preview != "" {
			return m.startEdit()
		}
	case key.Matches(msg, m.keys.Cancel):
		v.closePreview()
	}
	return nil
}

func (m *Model) submitSearch() tea.Cmd {
	v := &m.mem
	query := strings.TrimSpace(v.input.Value())
	switch {
	case !v.hasP:
		v.err = "Select a persona first"
		return nil
	case query == "":
		return nil
	case m.memory == nil:
		v.err = "Memory service is not configured"
		return nil
	}
	v.query = query
	v.loading = true
	v.err = ""
	return searchCmd(m.memory, memory.SearchRequest{
		Query:   query,
		AsActor: v.persona.ID,
		Limit:   searchLimit,
	})
}

func (m *Model) openMemoryItem() tea.Cmd {
	v := &m.mem
	switch v.category {
	case categoryKnowledgebase:
		if v.cursor < len(v.entries) {
			return loadKBFileCmd(v.entries[v.cursor].FilePath)
		}
	default:
		if v.cursor < len(v.results) {
			res := v.results[v.cursor]
			v.preview = res.Content
			v.previewID = res.ID
			if m.memory != nil && res.ID != "" {
				return getMemoryCmd(m.memory, res.ID, v.persona.ID)
			}
		}
	}
	return nil
}

func (m *Model) memoryBody(width, height int) string {
	v := &m.mem
	st := m.styles
	var b strings.Builder

	if !v.hasP {
		b.WriteString(st.muted.Render("Select a persona in the Personas view to browse its memory."))
		return b.String()
	}

	b.WriteString(st.title.Render("Memory: " + v.persona.Name))
	b.WriteString("\n")
	for _, c := range []memoryCategory{categoryMemories, categoryKnowledgebase} {
		style := st.tab
		if c == v.category {
			style = st.tabActive
		}
		b.WriteString(style.Render(c.String()))
	}
	b.WriteString("\n")
	if v.category == categoryMemories {
		b.WriteString(v.input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if v.err != "" {
		b.WriteString(st.errorText.Render(v.err))
		b.WriteString("\n")
	}
	if v.loading {
		b.WriteString(st.muted.Render("Searching..."))
		return b.String()
	}

	if v.editing {
		b.WriteString(st.muted.Render("Editing " + v.file.Name))
		b.WriteString("\n")
		b.WriteString(v.editor.View())
		return b.String()
	}
	if v.preview != "" {
		b.WriteString(lipgloss.NewStyle().Width(width).MaxHeight(max(height-6, 1)).Render(v.preview))
		return b.String()
	}

	switch v.category {
	case categoryKnowledgebase:
		if v.persona.KnowledgebasePath == "" {
			b.WriteString(st.muted.Render("This persona has no knowledgebase directory."))
			break
		}
		if len(v.entries) == 0 {
			b.WriteString(st.muted.Render("No notes in " + v.persona.KnowledgebasePath))
			break
		}
		for i, e := range v.entries {
			line := fmt.Sprintf("%-40s %s", truncate(e.Name, 40), e.ModifiedAt.Format("2006-01-02 15:04"))
			b.WriteString(m.row(i == v.cursor, line))
		}
	default:
		if v.query == "" {
			b.WriteString(st.muted.Render("Press / to search."))
			break
		}
		if len(v.results) == 0 {
			b.WriteString(st.muted.Render("No memories match " + v.query))
			break
		}
		for i, r := range v.results {
			line := fmt.Sprintf("%-12s %-10s %s", r.CreatedAt.Format("2006-01-02"), r.Type.Label(),
				truncate(firstLine(r.Content), max(width-26, 10)))
			b.WriteString(m.row(i == v.cursor, line))
		}
	}
	return b.String()
}

func (m *Model) row(selected bool, line string) string {
	if selected {
		return m.styles.selected.Render("> "+line) + "\n"
	}
	return "  " + line + "\n"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
