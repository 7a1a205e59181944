package session

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/persona/internal/logging"
	"github.com/GriffinCanCode/persona/internal/monitoring"
	"github.com/GriffinCanCode/persona/internal/ptyproc"
)

func nextEvent(t *testing.T, r *Registry) Event {
	t.Helper()
	select {
	case ev := <-r.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

func TestEnsureOrGetNeverDoubleSpawns(t *testing.T) {
	sp := newFakeSpawner()
	r := NewRegistry(sp.spawn)

	first := r.EnsureOrGet(testPersona("ada"), ModeNew)
	second := r.EnsureOrGet(testPersona("ada"), ModeContinue)

	assert.Same(t, first, second)
	assert.Equal(t, 1, sp.callCount())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, ModeNew, second.Mode())
	assert.False(t, first.Failed())
	assert.Equal(t, []string{"ada"}, r.ActiveIDs())
}

func TestSpawnUsesInitialSizeAndMode(t *testing.T) {
	sp := newFakeSpawner()
	r := NewRegistry(sp.spawn)

	r.EnsureOrGet(testPersona("a"), ModeNew)
	r.SetInitialSize(120, 0)
	r.EnsureOrGet(testPersona("b"), ModeContinue)
	r.SetInitialSize(0, 40)
	r.EnsureOrGet(testPersona("c"), ModeNew)

	require.Len(t, sp.calls, 3)
	assert.Equal(t, spawnCall{"a", ModeNew, ptyproc.DefaultSize}, sp.calls[0])
	assert.Equal(t, spawnCall{"b", ModeContinue, ptyproc.Size{Cols: 120, Rows: 24}}, sp.calls[1])
	assert.Equal(t, spawnCall{"c", ModeNew, ptyproc.Size{Cols: 120, Rows: 40}}, sp.calls[2])
	assert.Equal(t, ptyproc.Size{Cols: 120, Rows: 40}, r.InitialSize())
}

func TestSpawnFailureIsSessionLocal(t *testing.T) {
	sp := newFakeSpawner()
	sp.fail["bad"] = &ptyproc.SpawnError{Stage: ptyproc.StageSpawn, Err: errBoom}
	metrics := monitoring.NewMetrics()
	r := NewRegistry(sp.spawn, WithMetrics(metrics))

	bad := r.EnsureOrGet(testPersona("bad"), ModeNew)
	good := r.EnsureOrGet(testPersona("good"), ModeNew)

	assert.True(t, bad.Failed())
	assert.Nil(t, bad.Process())
	assert.Equal(t, "Failed to spawn terminal: failed to spawn agent: boom", bad.Err())
	assert.ErrorIs(t, bad.Write([]byte("x")), ErrNoProcess)
	assert.False(t, bad.Resize(80, 24))
	assert.False(t, bad.ConsumeFocus())

	assert.False(t, good.Failed())
	assert.Empty(t, good.Err())

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"good"}, r.ActiveIDs())
	assert.False(t, r.IsActive("bad"))
	assert.True(t, r.IsActive("good"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SpawnFailures.WithLabelValues("spawn")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsActive))
}

func TestFailedSessionIsNotRetriedInPlace(t *testing.T) {
	sp := newFakeSpawner()
	sp.fail["ada"] = errBoom
	r := NewRegistry(sp.spawn)

	failed := r.EnsureOrGet(testPersona("ada"), ModeNew)
	again := r.EnsureOrGet(testPersona("ada"), ModeNew)
	assert.Same(t, failed, again)
	assert.Equal(t, 1, sp.callCount())

	delete(sp.fail, "ada")
	fresh := r.Restart(testPersona("ada"), ModeContinue)
	assert.NotSame(t, failed, fresh)
	assert.False(t, fresh.Failed())
	assert.Equal(t, ModeContinue, fresh.Mode())
	assert.Equal(t, 2, sp.callCount())
	assert.Equal(t, 1, r.Len())
}

func TestDestroyReleasesProcess(t *testing.T) {
	sp := newFakeSpawner()
	r := NewRegistry(sp.spawn)

	s := r.EnsureOrGet(testPersona("ada"), ModeNew)
	proc := sp.last("ada")
	oldID := s.Process().ID()

	assert.True(t, r.Destroy("ada"))
	assert.True(t, proc.isClosed())
	assert.Equal(t, 0, r.Len())
	_, ok := r.Get("ada")
	assert.False(t, ok)
	select {
	case <-s.Done():
	default:
		t.Fatal("destroyed session not marked done")
	}

	assert.False(t, r.Destroy("ada"), "destroying an absent key is a no-op")

	again := r.EnsureOrGet(testPersona("ada"), ModeNew)
	assert.NotSame(t, s, again)
	assert.NotEqual(t, oldID, again.Process().ID())
	assert.NotSame(t, proc, sp.last("ada"))
}

func TestRestartReplacesLiveSession(t *testing.T) {
	sp := newFakeSpawner()
	r := NewRegistry(sp.spawn)

	old := r.EnsureOrGet(testPersona("ada"), ModeNew)
	oldProc := sp.last("ada")
	fresh := r.Restart(testPersona("ada"), ModeNew)

	assert.NotSame(t, old, fresh)
	assert.True(t, oldProc.isClosed())
	got, ok := r.Get("ada")
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestDestroyAll(t *testing.T) {
	sp := newFakeSpawner()
	sp.fail["broken"] = errBoom
	metrics := monitoring.NewMetrics()
	r := NewRegistry(sp.spawn, WithMetrics(metrics))

	for _, pid := range []string{"a", "b", "c", "broken"} {
		r.EnsureOrGet(testPersona(pid), ModeNew)
	}
	require.Equal(t, []string{"a", "b", "c"}, r.ActiveIDs())

	assert.Equal(t, 4, r.DestroyAll())
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.ActiveIDs())
	for _, pid := range []string{"a", "b", "c"} {
		assert.True(t, sp.last(pid).isClosed(), pid)
	}
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.SessionsActive))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.SessionsDestroyed))

	assert.Equal(t, 0, r.DestroyAll())
}

func TestActiveGaugeDropsExitedAgent(t *testing.T) {
	sp := newFakeSpawner()
	metrics := monitoring.NewMetrics()
	r := NewRegistry(sp.spawn, WithMetrics(metrics))
	r.EnsureOrGet(testPersona("a"), ModeNew)
	r.EnsureOrGet(testPersona("b"), ModeNew)
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.SessionsActive))

	// The agent ends its output on its own; the session stays registered.
	require.NoError(t, sp.last("a").pw.Close())

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.SessionsActive) == 1.0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, r.Len())
}

func TestActiveIDsSkipsExitedProcesses(t *testing.T) {
	sp := newFakeSpawner()
	r := NewRegistry(sp.spawn)

	r.EnsureOrGet(testPersona("b"), ModeNew)
	r.EnsureOrGet(testPersona("a"), ModeNew)
	assert.Equal(t, []string{"a", "b"}, r.ActiveIDs())

	// the agent went away on its own; the session stays until closed
	sp.last("b").Close()
	assert.Equal(t, []string{"a"}, r.ActiveIDs())
	assert.Equal(t, 2, r.Len())
}

func TestReaderPublishesEvents(t *testing.T) {
	sp := newFakeSpawner()
	r := NewRegistry(sp.spawn)

	s := r.EnsureOrGet(testPersona("ada"), ModeNew)
	proc := sp.last("ada")

	go func() { _, _ = proc.pw.Write([]byte("hello")) }()
	ev := nextEvent(t, r)
	assert.Equal(t, "ada", ev.PersonaID)
	assert.Equal(t, s.Process().ID(), ev.ProcessID)
	assert.Equal(t, "hello", string(ev.Data))
	assert.False(t, ev.Closed)
	assert.Equal(t, "hello", string(s.Tail()))

	proc.pw.Close()
	ev = nextEvent(t, r)
	assert.True(t, ev.Closed)
	assert.NoError(t, ev.Err)
}

func TestReaderReportsErrors(t *testing.T) {
	sp := newFakeSpawner()
	r := NewRegistry(sp.spawn)
	r.EnsureOrGet(testPersona("ada"), ModeNew)

	sp.last("ada").pw.CloseWithError(errBoom)
	ev := nextEvent(t, r)
	assert.True(t, ev.Closed)
	assert.ErrorIs(t, ev.Err, errBoom)
}

func TestReadLoopReturnsWhenClosedWithNoReceiver(t *testing.T) {
	proc := newFakeProcess()
	s := newSession(testPersona("ada"), ModeNew, proc, nil, logging.NewNop(), nil)

	out := make(chan Event) // nobody receives
	finished := make(chan struct{})
	go func() {
		s.ReadLoop(out)
		close(finished)
	}()

	_, err := proc.pw.Write([]byte("stuck in send"))
	require.NoError(t, err)

	s.close()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("reader blocked after session close")
	}
	assert.True(t, proc.isClosed())
}

func TestWriteAndResize(t *testing.T) {
	sp := newFakeSpawner()
	metrics := monitoring.NewMetrics()
	r := NewRegistry(sp.spawn, WithMetrics(metrics))
	s := r.EnsureOrGet(testPersona("ada"), ModeNew)
	proc := sp.last("ada")

	require.NoError(t, s.Write([]byte("hi\r")))
	assert.Equal(t, "hi\r", proc.written())

	assert.True(t, s.Resize(100, 30))
	assert.False(t, s.Resize(0, 30))

	proc.mu.Lock()
	proc.locked = true
	proc.mu.Unlock()
	assert.False(t, s.Resize(90, 20), "resize skipped while the process lock is held")

	assert.Equal(t, []ptyproc.Size{{Cols: 100, Rows: 30}}, proc.resizes())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Resizes.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Resizes.WithLabelValues("skipped")))
}

func TestConsumeFocusIsOneShot(t *testing.T) {
	r := NewRegistry(newFakeSpawner().spawn)
	s := r.EnsureOrGet(testPersona("ada"), ModeNew)

	assert.True(t, s.ConsumeFocus())
	assert.False(t, s.ConsumeFocus())
}

func TestSnapshot(t *testing.T) {
	sp := newFakeSpawner()
	sp.fail["b"] = errBoom
	r := NewRegistry(sp.spawn)
	r.EnsureOrGet(testPersona("b"), ModeNew)
	r.EnsureOrGet(testPersona("a"), ModeContinue)

	infos := r.Snapshot()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].PersonaID)
	assert.Equal(t, "Persona a", infos[0].PersonaName)
	assert.Equal(t, "continue", infos[0].Mode)
	assert.True(t, infos[0].Alive)
	assert.NotEmpty(t, infos[0].ProcessID)

	assert.Equal(t, "b", infos[1].PersonaID)
	assert.False(t, infos[1].Alive)
	assert.Empty(t, infos[1].ProcessID)
	assert.Contains(t, infos[1].Error, "boom")
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "new", ModeNew.String())
	assert.Equal(t, "continue", ModeContinue.String())
}
