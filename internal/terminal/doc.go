// Package terminal renders agent output inside the UI.
//
// A Surface feeds the raw pty byte stream through a vt10x emulator and
// draws the resulting cell grid with lipgloss. The layout tells a Surface
// its size through SetSize; whoever owns the process registers OnResize to
// forward size changes to the pty.
package terminal
