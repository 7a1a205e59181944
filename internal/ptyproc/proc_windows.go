//go:build windows

package ptyproc

import (
	"os"
	"syscall"

	"github.com/creack/pty"
)

func sysProcAttr() *syscall.SysProcAttr { return nil }

func pollable(*os.File, string) (*os.File, error) { return nil, pty.ErrUnsupported }

func setWinsize(*os.File, Size) error { return pty.ErrUnsupported }

func signalGroup(p *os.Process, _ syscall.Signal) error {
	if p == nil {
		return nil
	}
	return p.Kill()
}
