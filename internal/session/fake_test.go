package session

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/GriffinCanCode/persona/internal/persona"
	"github.com/GriffinCanCode/persona/internal/ptyproc"
	"github.com/GriffinCanCode/persona/internal/shared/id"
)

type fakeProcess struct {
	id id.ProcessID
	pr *io.PipeReader
	pw *io.PipeWriter

	mu      sync.Mutex
	input   bytes.Buffer
	sizes   []ptyproc.Size
	locked  bool
	closed  bool
	onClose func()
}

func newFakeProcess() *fakeProcess {
	pr, pw := io.Pipe()
	return &fakeProcess{id: id.NewProcessID(), pr: pr, pw: pw}
}

func (f *fakeProcess) ID() id.ProcessID  { return f.id }
func (f *fakeProcess) Reader() io.Reader { return f.pr }
func (f *fakeProcess) Writer() io.Writer { return fakeWriter{f} }

func (f *fakeProcess) TryResize(size ptyproc.Size) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locked || f.closed {
		return false
	}
	f.sizes = append(f.sizes, size)
	return true
}

func (f *fakeProcess) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeProcess) Close() error {
	f.mu.Lock()
	already := f.closed
	f.closed = true
	f.mu.Unlock()
	if !already {
		f.pw.Close()
		if f.onClose != nil {
			f.onClose()
		}
	}
	return nil
}

func (f *fakeProcess) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeProcess) written() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input.String()
}

func (f *fakeProcess) resizes() []ptyproc.Size {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ptyproc.Size(nil), f.sizes...)
}

type fakeWriter struct{ f *fakeProcess }

func (w fakeWriter) Write(p []byte) (int, error) {
	w.f.mu.Lock()
	defer w.f.mu.Unlock()
	if w.f.closed {
		return 0, ptyproc.ErrClosed
	}
	return w.f.input.Write(p)
}

type spawnCall struct {
	persona string
	mode    Mode
	size    ptyproc.Size
}

// fakeSpawner records calls and hands out fake processes. Personas listed
// in fail get a spawn error instead.
type fakeSpawner struct {
	mu    sync.Mutex
	calls []spawnCall
	procs map[string][]*fakeProcess
	fail  map[string]error
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{procs: map[string][]*fakeProcess{}, fail: map[string]error{}}
}

func (s *fakeSpawner) spawn(p persona.Persona, mode Mode, size ptyproc.Size) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, spawnCall{p.ID, mode, size})
	if err, ok := s.fail[p.ID]; ok {
		return nil, err
	}
	proc := newFakeProcess()
	s.procs[p.ID] = append(s.procs[p.ID], proc)
	return proc, nil
}

func (s *fakeSpawner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeSpawner) last(personaID string) *fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	procs := s.procs[personaID]
	if len(procs) == 0 {
		return nil
	}
	return procs[len(procs)-1]
}

var errBoom = errors.New("boom")

func testPersona(id string) persona.Persona {
	return persona.Persona{ID: id, Name: "Persona " + id, FilePath: "/personas/" + id + ".md"}
}
