package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProcessID(t *testing.T) {
	before := time.Now().Truncate(time.Millisecond)
	pid := NewProcessID()
	after := time.Now()

	require.True(t, strings.HasPrefix(pid.String(), "proc_"))
	assert.Len(t, pid.String(), len("proc_")+26)
	assert.NotEqual(t, pid, NewProcessID())

	ts := pid.Time()
	assert.False(t, ts.Before(before))
	assert.False(t, ts.After(after))
}

func TestTimeOfForeignID(t *testing.T) {
	for _, bad := range []ProcessID{"", "proc_", "invalid", "proc_zzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		assert.True(t, bad.Time().IsZero(), string(bad))
	}
}

func TestGeneratorSortsWithinMillisecond(t *testing.T) {
	gen := NewGenerator(nil)
	now := time.Now()

	prev := gen.Next(now)
	for i := 0; i < 100; i++ {
		next := gen.Next(now)
		require.Equal(t, 1, next.Compare(prev), "ids must increase")
		prev = next
	}
}

func TestConcurrentGeneration(t *testing.T) {
	const goroutines, perGoroutine = 50, 50

	var wg sync.WaitGroup
	ids := make(chan ProcessID, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				ids <- NewProcessID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[ProcessID]struct{}, goroutines*perGoroutine)
	for v := range ids {
		_, dup := seen[v]
		require.False(t, dup, "duplicate id %s", v)
		seen[v] = struct{}{}
	}
}
