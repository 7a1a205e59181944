package ptyproc

import (
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"

	"github.com/GriffinCanCode/persona/internal/shared/id"
)

// DefaultKillGrace is how long Close waits after SIGHUP before SIGKILL.
const DefaultKillGrace = 3 * time.Second

// Size is a terminal grid in character cells.
type Size struct {
	Cols uint16
	Rows uint16
}

// DefaultSize is used until the layout reports a real grid.
var DefaultSize = Size{Cols: 80, Rows: 24}

// OrDefault replaces zero dimensions with DefaultSize's.
func (s Size) OrDefault() Size {
	if s.Cols == 0 {
		s.Cols = DefaultSize.Cols
	}
	if s.Rows == 0 {
		s.Rows = DefaultSize.Rows
	}
	return s
}

// Options configures Spawn.
type Options struct {
	// Agent is the executable, looked up in PATH when not absolute.
	Agent string
	// WorkingDir is passed through unmodified as the child's directory.
	WorkingDir string
	// Env entries ("KEY=value") are appended to the inherited environment.
	Env  []string
	Size Size
	// Continue asks the agent to resume the persona's previous context.
	Continue  bool
	KillGrace time.Duration
}

// Args returns the agent arguments for a persona.
func Args(personaID string, cont bool) []string {
	args := []string{"--agent", personaID}
	if cont {
		args = append(args, "--continue")
	}
	return args
}

// Spawn allocates a pty sized to opts.Size, starts the agent on its
// subordinate side and detaches the reader and writer from the master.
// Failures are returned as *SpawnError.
func Spawn(personaID string, opts Options) (*Handle, error) {
	size := opts.Size.OrDefault()

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, &SpawnError{Stage: StageAllocate, Err: err}
	}
	// pty.Open leaves ptmx in blocking mode; work on a pollable copy.
	master, err := pollable(ptmx, ptmx.Name())
	ptmx.Close()
	if err != nil {
		tty.Close()
		return nil, &SpawnError{Stage: StageAllocate, Err: err}
	}
	if err := setWinsize(master, size); err != nil {
		master.Close()
		tty.Close()
		return nil, &SpawnError{Stage: StageAllocate, Err: err}
	}

	cmd := exec.Command(opts.Agent, Args(personaID, opts.Continue)...)
	cmd.Dir = opts.WorkingDir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Env = append(cmd.Env, opts.Env...)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		master.Close()
		tty.Close()
		return nil, &SpawnError{Stage: StageSpawn, Err: err}
	}
	// the child holds its own copy of the subordinate side
	tty.Close()

	reader, err := pollable(master, master.Name()+"-reader")
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		master.Close()
		return nil, &SpawnError{Stage: StageDetach, Err: err}
	}

	grace := opts.KillGrace
	if grace <= 0 {
		grace = DefaultKillGrace
	}

	h := &Handle{
		id:        id.NewProcessID(),
		personaID: personaID,
		cmd:       cmd,
		master:    master,
		reader:    reader,
		exited:    make(chan struct{}),
		killGrace: grace,
		startedAt: time.Now(),
	}
	h.size.Store(size)
	h.writer = &lockedWriter{h: h}

	go h.reap()

	return h, nil
}
