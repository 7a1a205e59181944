//go:build !windows

package ptyproc

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// sysProcAttr puts the child in its own session with the pty as its
// controlling terminal, so signals reach the whole job.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true, Setctty: true}
}

// pollable duplicates f's descriptor into a non-blocking *os.File that the
// runtime poller owns. Close on the result interrupts a pending Read.
//
// The duplicate shares f's file description, and with it the O_NONBLOCK
// flag: nothing may call Fd on any file sharing that description afterwards,
// since Fd switches the description back to blocking mode.
func pollable(f *os.File, name string) (*os.File, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return nil, err
	}
	var (
		fd     int
		dupErr error
	)
	if err := rc.Control(func(raw uintptr) {
		fd, dupErr = unix.Dup(int(raw))
	}); err != nil {
		return nil, err
	}
	if dupErr != nil {
		return nil, dupErr
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return os.NewFile(uintptr(fd), name), nil
}

// setWinsize applies size to the pty through the raw descriptor.
func setWinsize(f *os.File, size Size) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}
	ws := &unix.Winsize{Row: size.Rows, Col: size.Cols}
	var ioctlErr error
	if err := rc.Control(func(fd uintptr) {
		ioctlErr = unix.IoctlSetWinsize(int(fd), unix.TIOCSWINSZ, ws)
	}); err != nil {
		return err
	}
	return ioctlErr
}

// signalGroup signals the child's process group, falling back to the
// process itself when the group is gone.
func signalGroup(p *os.Process, sig syscall.Signal) error {
	if p == nil {
		return nil
	}
	if err := unix.Kill(-p.Pid, sig); err == nil {
		return nil
	}
	return p.Signal(sig)
}
