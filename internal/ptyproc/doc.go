// Package ptyproc runs one external agent process on its own pseudo-terminal.
//
// A Handle owns the pty master, the child process and the streams detached
// from the master. The master is shared between the writer and the resize
// path under a mutex; the reader works on a duplicated descriptor so a
// blocking read never holds that mutex.
//
// Example Usage:
//
//	h, err := ptyproc.Spawn("data-scientist", ptyproc.Options{
//		Agent:      "opencode",
//		WorkingDir: dir,
//		Size:       ptyproc.Size{Cols: 120, Rows: 40},
//	})
//	if err != nil {
//		return err // *ptyproc.SpawnError
//	}
//	defer h.Close()
//	go io.Copy(surface, h.Reader())
//	h.Writer().Write([]byte("hello\r"))
//	h.TryResize(ptyproc.Size{Cols: 100, Rows: 30})
package ptyproc
