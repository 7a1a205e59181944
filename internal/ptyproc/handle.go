package ptyproc

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/GriffinCanCode/persona/internal/shared/id"
)

// Handle owns one pty master and the agent process bound to its
// subordinate side.
type Handle struct {
	id        id.ProcessID
	personaID string
	cmd       *exec.Cmd
	startedAt time.Time

	// mu guards the master for resize and write; never held across a read.
	mu     sync.Mutex
	master *os.File
	reader *os.File
	writer *lockedWriter
	size   atomic.Value // Size

	closed    atomic.Bool
	closeOnce sync.Once
	killGrace time.Duration

	exited  chan struct{}
	exitErr error
}

// ID returns the unique identifier of this process handle.
func (h *Handle) ID() id.ProcessID { return h.id }

// PersonaID returns the persona the agent was started for.
func (h *Handle) PersonaID() string { return h.personaID }

// Pid returns the child's process id.
func (h *Handle) Pid() int { return h.cmd.Process.Pid }

// StartedAt returns the spawn time.
func (h *Handle) StartedAt() time.Time { return h.startedAt }

// Reader returns the child's output stream. Read returns io.EOF once the
// child has gone away or the handle is closed.
func (h *Handle) Reader() io.Reader { return ptyReader{f: h.reader} }

// Writer returns the child's input stream. Each Write holds the master lock.
func (h *Handle) Writer() io.Writer { return h.writer }

// Size returns the last grid applied to the pty.
func (h *Handle) Size() Size { return h.size.Load().(Size) }

// Resize sets the pty grid, waiting for the master lock.
func (h *Handle) Resize(size Size) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.setsize(size.OrDefault())
}

// TryResize sets the pty grid unless the master lock is held, in which case
// it returns false immediately. Errors are swallowed; a dead child is picked
// up by the reader's EOF instead.
func (h *Handle) TryResize(size Size) bool {
	if !h.mu.TryLock() {
		return false
	}
	defer h.mu.Unlock()
	return h.setsize(size.OrDefault()) == nil
}

func (h *Handle) setsize(size Size) error {
	if h.closed.Load() {
		return ErrClosed
	}
	if err := setWinsize(h.master, size); err != nil {
		return err
	}
	h.size.Store(size)
	return nil
}

// Exited is closed once the child has been reaped.
func (h *Handle) Exited() <-chan struct{} { return h.exited }

// ExitErr returns the child's wait error after Exited is closed, nil before.
func (h *Handle) ExitErr() error {
	select {
	case <-h.exited:
		return h.exitErr
	default:
		return nil
	}
}

// Alive reports whether the handle is open and the child has not exited.
func (h *Handle) Alive() bool {
	if h.closed.Load() {
		return false
	}
	select {
	case <-h.exited:
		return false
	default:
		return true
	}
}

// Close terminates the child and releases the pty: SIGHUP to its process
// group, then SIGKILL if it is still running after the grace period. It
// never blocks on the child or on a pending Read and is safe to call more
// than once.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.closed.Store(true)

		select {
		case <-h.exited:
		default:
			_ = signalGroup(h.cmd.Process, syscall.SIGHUP)
			go func() {
				select {
				case <-h.exited:
				case <-time.After(h.killGrace):
					_ = signalGroup(h.cmd.Process, syscall.SIGKILL)
				}
			}()
		}

		_ = h.reader.Close()
		_ = h.master.Close()
	})
	return nil
}

func (h *Handle) reap() {
	err := h.cmd.Wait()
	h.exitErr = err
	close(h.exited)
}

type lockedWriter struct {
	h *Handle
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.h.mu.Lock()
	defer w.h.mu.Unlock()
	if w.h.closed.Load() {
		return 0, ErrClosed
	}
	return w.h.master.Write(p)
}

type ptyReader struct {
	f *os.File
}

// Read maps the errors a pty master reports after hangup or Close to io.EOF.
func (r ptyReader) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	if err != nil && (errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)) {
		err = io.EOF
	}
	return n, err
}
