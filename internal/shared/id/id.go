// Package id generates the ULID identifiers of spawned pty processes.
//
// Ids read as proc_<ulid> in logs. A persona that is restarted gets a new
// ProcessID, which is how the UI tells a stale reader's events from the
// live session's.
package id

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const processPrefix = "proc_"

// ProcessID identifies one spawned pty process handle.
type ProcessID string

func (p ProcessID) String() string { return string(p) }

// Time returns when the id was generated, or the zero time for an id this
// package did not produce.
func (p ProcessID) Time() time.Time {
	u, err := ulid.ParseStrict(strings.TrimPrefix(string(p), processPrefix))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}

// Generator hands out ULIDs that sort in generation order, even within a
// millisecond. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewGenerator reads randomness from r, or crypto/rand when r is nil.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{entropy: ulid.Monotonic(r, 0)}
}

// Next returns a ULID stamped with now.
func (g *Generator) Next(now time.Time) ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), g.entropy)
}

var processIDs = NewGenerator(nil)

// NewProcessID returns a fresh process handle id.
func NewProcessID() ProcessID {
	return ProcessID(processPrefix + processIDs.Next(time.Now()).String())
}
