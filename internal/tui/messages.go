package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/GriffinCanCode/persona/internal/knowledgebase"
	"github.com/GriffinCanCode/persona/internal/memory"
	"github.com/GriffinCanCode/persona/internal/session"
)

const searchTimeout = 15 * time.Second

type sessionEventMsg session.Event

type memoryResultsMsg struct {
	personaID string
	query     string
	results   []memory.Memory
	err       error
}

type memoryDetailMsg struct {
	personaID string
	id        string
	memory    memory.Memory
	err       error
}

type kbFileMsg struct {
	file *knowledgebase.File
	err  error
}

type kbSavedMsg struct {
	path    string
	content string
	err     error
}

// waitForEvent blocks on the registry inbox. It is re-issued after every
// event so exactly one receive is outstanding.
func waitForEvent(ch <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return sessionEventMsg(ev)
	}
}

func searchCmd(s MemoryService, req memory.SearchRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		res, err := s.Search(ctx, req)
		return memoryResultsMsg{personaID: req.AsActor, query: req.Query, results: res, err: err}
	}
}

func getMemoryCmd(s MemoryService, id, actor string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		mem, err := s.Get(ctx, id, actor)
		return memoryDetailMsg{personaID: actor, id: id, memory: mem, err: err}
	}
}

func loadKBFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := knowledgebase.LoadFile(path)
		return kbFileMsg{file: f, err: err}
	}
}

func saveKBFileCmd(path, content string) tea.Cmd {
	return func() tea.Msg {
		err := knowledgebase.SaveFile(path, content)
		return kbSavedMsg{path: path, content: content, err: err}
	}
}
