package ptyproc

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by writes and resizes after Close.
var ErrClosed = errors.New("pty process closed")

// Stage names the spawn step that failed.
type Stage string

const (
	StageAllocate Stage = "allocate"
	StageSpawn    Stage = "spawn"
	StageDetach   Stage = "detach"
)

// SpawnError reports a failed Spawn. Everything acquired before the failing
// stage has been released when it is returned.
type SpawnError struct {
	Stage Stage
	Err   error
}

func (e *SpawnError) Error() string {
	switch e.Stage {
	case StageAllocate:
		return fmt.Sprintf("failed to allocate pty: %v", e.Err)
	case StageSpawn:
		return fmt.Sprintf("failed to spawn agent: %v", e.Err)
	case StageDetach:
		return fmt.Sprintf("failed to detach pty streams: %v", e.Err)
	default:
		return fmt.Sprintf("spawn %s: %v", e.Stage, e.Err)
	}
}

func (e *SpawnError) Unwrap() error { return e.Err }

// StageOf returns the failing stage of a spawn error, or "" for other errors.
func StageOf(err error) Stage {
	var se *SpawnError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
