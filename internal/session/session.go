package session

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/persona/internal/logging"
	"github.com/GriffinCanCode/persona/internal/monitoring"
	"github.com/GriffinCanCode/persona/internal/persona"
	"github.com/GriffinCanCode/persona/internal/ptyproc"
	"github.com/GriffinCanCode/persona/internal/shared/id"
)

// ErrNoProcess is returned when writing to a session whose spawn failed.
var ErrNoProcess = errors.New("session has no process")

const (
	readBufferSize = 32 * 1024
	tailSize       = 64 * 1024
)

// Mode selects whether the agent starts fresh or resumes prior context.
type Mode int

const (
	ModeNew Mode = iota
	ModeContinue
)

func (m Mode) String() string {
	if m == ModeContinue {
		return "continue"
	}
	return "new"
}

// Process is the running agent a session drives. *ptyproc.Handle
// implements it.
type Process interface {
	ID() id.ProcessID
	Reader() io.Reader
	Writer() io.Writer
	TryResize(size ptyproc.Size) bool
	Alive() bool
	Close() error
}

// Event is published by a session's reader goroutine.
type Event struct {
	PersonaID string
	ProcessID id.ProcessID
	Data      []byte
	// Closed marks the last event of a reader. Err is set when the reader
	// stopped on something other than EOF.
	Closed bool
	Err    error
}

// Session is one persona's conversation: a live process, or the error that
// prevented it from starting.
type Session struct {
	persona    persona.Persona
	mode       Mode
	proc       Process
	err        string
	needsFocus bool
	startedAt  time.Time

	tail      *Buffer
	done      chan struct{}
	closeOnce sync.Once

	// set once the reader has seen the end of the agent's output
	exited atomic.Bool
	onExit func()

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

func newSession(p persona.Persona, mode Mode, proc Process, spawnErr error, logger *logging.Logger, metrics *monitoring.Metrics) *Session {
	s := &Session{
		persona:   p,
		mode:      mode,
		proc:      proc,
		startedAt: time.Now(),
		tail:      NewBuffer(tailSize),
		done:      make(chan struct{}),
		logger:    logger,
		metrics:   metrics,
	}
	if spawnErr != nil {
		s.proc = nil
		s.err = fmt.Sprintf("Failed to spawn terminal: %v", spawnErr)
	} else {
		s.needsFocus = true
	}
	return s
}

// PersonaID returns the key this session is stored under.
func (s *Session) PersonaID() string { return s.persona.ID }

// Persona returns the persona the session was started for.
func (s *Session) Persona() persona.Persona { return s.persona }

// Process returns the running process, or nil when the spawn failed.
func (s *Session) Process() Process { return s.proc }

// Failed reports whether the spawn failed.
func (s *Session) Failed() bool { return s.proc == nil }

// Err returns the spawn error message, empty for a running session.
func (s *Session) Err() string { return s.err }

// Mode returns how the agent was started.
func (s *Session) Mode() Mode { return s.mode }

// StartedAt returns the creation time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Done is closed when the session is destroyed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Tail returns the most recent output of the agent.
func (s *Session) Tail() []byte { return s.tail.Bytes() }

// Alive reports whether the agent process is still running.
func (s *Session) Alive() bool {
	return s.proc != nil && s.proc.Alive()
}

// ConsumeFocus returns true exactly once for a running session, the first
// time the UI shows it.
func (s *Session) ConsumeFocus() bool {
	f := s.needsFocus
	s.needsFocus = false
	return f
}

// Write sends input to the agent.
func (s *Session) Write(p []byte) error {
	if s.proc == nil {
		return ErrNoProcess
	}
	_, err := s.proc.Writer().Write(p)
	return err
}

// Resize is the resize notification entry point for the session's surface.
// It never blocks on the process lock: a resize that finds the lock held is
// skipped and picked up by the next layout pass.
func (s *Session) Resize(cols, rows int) bool {
	if s.proc == nil || cols <= 0 || rows <= 0 {
		return false
	}
	applied := s.proc.TryResize(ptyproc.Size{Cols: clampDim(cols), Rows: clampDim(rows)})
	s.metrics.RecordResize(applied)
	if !applied {
		s.logger.Debug("Resize skipped", zap.String("persona", s.persona.ID),
			zap.Int("cols", cols), zap.Int("rows", rows))
	}
	return applied
}

// ReadLoop copies agent output to out until the reader fails or the session
// is destroyed. It must run on its own goroutine.
func (s *Session) ReadLoop(out chan<- Event) {
	if s.proc == nil {
		return
	}
	pid := s.proc.ID()
	r := s.proc.Reader()
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			_, _ = s.tail.Write(data)
			if !s.send(out, Event{PersonaID: s.persona.ID, ProcessID: pid, Data: data}) {
				return
			}
		}
		if err != nil {
			ev := Event{PersonaID: s.persona.ID, ProcessID: pid, Closed: true}
			if !errors.Is(err, io.EOF) {
				ev.Err = err
			}
			s.logger.Info("Reader closed", zap.String("persona", s.persona.ID),
				zap.String("process", pid.String()),
				zap.Duration("lifetime", time.Since(pid.Time()).Round(time.Millisecond)),
				zap.NamedError("reason", ev.Err))
			s.exited.Store(true)
			if s.onExit != nil {
				s.onExit()
			}
			s.send(out, ev)
			return
		}
	}
}

func (s *Session) send(out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-s.done:
		return false
	}
}

// close releases the process; the reader goroutine exits on its own once
// the process streams are closed.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.proc != nil {
			_ = s.proc.Close()
		}
	})
}

func clampDim(v int) uint16 {
	if v > 0xffff {
		return 0xffff
	}
	return uint16(v)
}
