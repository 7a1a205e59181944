//go:build !windows

package ptyproc

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeAgent = `#!/bin/sh
echo "agent:$2"
if [ "$3" = "--continue" ]; then echo "mode:continue"; else echo "mode:new"; fi
echo "term:$TERM extra:$PERSONA_TEST_EXTRA"
echo "cwd:$(pwd)"
while IFS= read -r line; do
	case "$line" in
		size) echo "size:$(stty size)" ;;
		quit) echo "bye"; exit 0 ;;
		*) echo "got:$line" ;;
	esac
done
`

const stubbornAgent = `#!/bin/sh
trap '' HUP
echo ready
while :; do sleep 1; done
`

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeAgent(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func collect(h *Handle) (*syncBuffer, <-chan error) {
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(out, h.Reader())
		done <- err
	}()
	return out, done
}

func waitFor(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), want)
	}, 5*time.Second, 10*time.Millisecond, "waiting for %q in %q", want, out.String())
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		cont bool
		want []string
	}{
		{"new", false, []string{"--agent", "ada"}},
		{"continue", true, []string{"--agent", "ada", "--continue"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Args("ada", tt.cont))
		})
	}
}

func TestSizeOrDefault(t *testing.T) {
	assert.Equal(t, DefaultSize, Size{}.OrDefault())
	assert.Equal(t, Size{Cols: 100, Rows: 24}, Size{Cols: 100}.OrDefault())
	assert.Equal(t, Size{Cols: 80, Rows: 50}, Size{Rows: 50}.OrDefault())
}

func TestSpawnRunsAgentOnPty(t *testing.T) {
	wd := t.TempDir()
	h, err := Spawn("ada", Options{
		Agent:      writeAgent(t, fakeAgent),
		WorkingDir: wd,
		Env:        []string{"PERSONA_TEST_EXTRA=yes"},
		Size:       Size{Cols: 100, Rows: 30},
		Continue:   true,
	})
	require.NoError(t, err)
	defer h.Close()

	out, _ := collect(h)
	waitFor(t, out, "agent:ada")
	waitFor(t, out, "mode:continue")
	waitFor(t, out, "term:xterm-256color extra:yes")
	resolved, err := filepath.EvalSymlinks(wd)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "cwd:"+wd) || strings.Contains(s, "cwd:"+resolved)
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, strings.HasPrefix(string(h.ID()), "proc_"))
	assert.Equal(t, "ada", h.PersonaID())
	assert.Positive(t, h.Pid())
	assert.Equal(t, Size{Cols: 100, Rows: 30}, h.Size())
	assert.True(t, h.Alive())

	_, err = h.Writer().Write([]byte("hello\n"))
	require.NoError(t, err)
	waitFor(t, out, "got:hello")

	_, err = h.Writer().Write([]byte("size\n"))
	require.NoError(t, err)
	waitFor(t, out, "size:30 100")
}

func TestResize(t *testing.T) {
	h, err := Spawn("ada", Options{Agent: writeAgent(t, fakeAgent), WorkingDir: t.TempDir()})
	require.NoError(t, err)
	defer h.Close()
	out, _ := collect(h)
	waitFor(t, out, "agent:ada")

	assert.Equal(t, DefaultSize, h.Size())

	assert.True(t, h.TryResize(Size{Cols: 132, Rows: 43}))
	assert.Equal(t, Size{Cols: 132, Rows: 43}, h.Size())
	_, err = h.Writer().Write([]byte("size\n"))
	require.NoError(t, err)
	waitFor(t, out, "size:43 132")

	require.NoError(t, h.Resize(Size{Cols: 90, Rows: 20}))
	assert.Equal(t, Size{Cols: 90, Rows: 20}, h.Size())
}

func TestTryResizeSkipsWhenLocked(t *testing.T) {
	h, err := Spawn("ada", Options{Agent: writeAgent(t, fakeAgent), WorkingDir: t.TempDir()})
	require.NoError(t, err)
	defer h.Close()

	h.mu.Lock()
	assert.False(t, h.TryResize(Size{Cols: 10, Rows: 10}))
	h.mu.Unlock()

	assert.Equal(t, DefaultSize, h.Size())
}

func TestReaderEOFWhenAgentExits(t *testing.T) {
	h, err := Spawn("ada", Options{Agent: writeAgent(t, fakeAgent), WorkingDir: t.TempDir()})
	require.NoError(t, err)
	defer h.Close()
	out, done := collect(h)
	waitFor(t, out, "agent:ada")

	_, err = h.Writer().Write([]byte("quit\n"))
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.NoError(t, err, "reader should finish with EOF")
	case <-time.After(5 * time.Second):
		t.Fatal("reader did not finish")
	}
	select {
	case <-h.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("agent was not reaped")
	}
	assert.NoError(t, h.ExitErr())
	assert.False(t, h.Alive())
}

func TestCloseTerminatesAndIsIdempotent(t *testing.T) {
	h, err := Spawn("ada", Options{Agent: writeAgent(t, fakeAgent), WorkingDir: t.TempDir()})
	require.NoError(t, err)
	out, done := collect(h)
	waitFor(t, out, "agent:ada")

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	select {
	case <-h.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("agent survived close")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reader survived close")
	}

	_, err = h.Writer().Write([]byte("late\n"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, h.TryResize(Size{Cols: 10, Rows: 10}))
	assert.ErrorIs(t, h.Resize(Size{Cols: 10, Rows: 10}), ErrClosed)
	assert.False(t, h.Alive())
}

func TestCloseAfterResizeWithIdleAgent(t *testing.T) {
	h, err := Spawn("ada", Options{Agent: writeAgent(t, fakeAgent), WorkingDir: t.TempDir()})
	require.NoError(t, err)
	out, done := collect(h)
	waitFor(t, out, "agent:ada")

	require.True(t, h.TryResize(Size{Cols: 100, Rows: 30}))
	_, err = h.Writer().Write([]byte("hello\n"))
	require.NoError(t, err)
	waitFor(t, out, "got:hello")

	// The reader is now parked on an idle agent.
	closed := make(chan struct{})
	go func() {
		_ = h.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("Close blocked after resize")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reader survived close")
	}
	select {
	case <-h.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("agent survived close")
	}
}

func TestCloseKillsAfterGrace(t *testing.T) {
	h, err := Spawn("ada", Options{
		Agent:      writeAgent(t, stubbornAgent),
		WorkingDir: t.TempDir(),
		KillGrace:  100 * time.Millisecond,
	})
	require.NoError(t, err)
	out, _ := collect(h)
	waitFor(t, out, "ready")

	require.NoError(t, h.Close())

	select {
	case <-h.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("agent ignoring SIGHUP was not killed")
	}
	assert.Error(t, h.ExitErr())
}

func TestSpawnMissingExecutable(t *testing.T) {
	_, err := Spawn("ada", Options{
		Agent:      filepath.Join(t.TempDir(), "does-not-exist"),
		WorkingDir: t.TempDir(),
	})
	require.Error(t, err)

	var se *SpawnError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageSpawn, se.Stage)
	assert.Equal(t, StageSpawn, StageOf(err))
	assert.Contains(t, err.Error(), "failed to spawn agent")
}

func TestSpawnBadWorkingDir(t *testing.T) {
	_, err := Spawn("ada", Options{
		Agent:      writeAgent(t, fakeAgent),
		WorkingDir: filepath.Join(t.TempDir(), "missing"),
	})
	assert.Equal(t, StageSpawn, StageOf(err))
}

func TestSpawnErrorMessages(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageAllocate, "failed to allocate pty: boom"},
		{StageSpawn, "failed to spawn agent: boom"},
		{StageDetach, "failed to detach pty streams: boom"},
	}
	for _, tt := range tests {
		err := &SpawnError{Stage: tt.stage, Err: cause}
		assert.Equal(t, tt.want, err.Error())
		assert.ErrorIs(t, err, cause)
	}
	assert.Equal(t, Stage(""), StageOf(cause))
}
