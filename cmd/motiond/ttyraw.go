package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/pkg/term/termios"
)

// ttyRaw puts the controlling terminal into raw mode for the duration of
// the local stdin/stdout session (run without -tty or -replay), so real-time bytes (?, !, ~, Ctrl-X) reach
// Feed immediately instead of waiting for a line to be buffered by the
// user's shell.
type ttyRaw struct {
	f       *os.File
	canAttr syscall.Termios
	rawAttr syscall.Termios
	mu      sync.Mutex
}

func newTTYRaw(f *os.File) (*ttyRaw, error) {
	if f == nil {
		return nil, fmt.Errorf("ttyraw: nil file")
	}

	t := &ttyRaw{f: f}
	if err := termios.Tcgetattr(f.Fd(), &t.canAttr); err != nil {
		return nil, err
	}
	t.rawAttr = t.canAttr
	termios.Cfmakeraw(&t.rawAttr)
	return t, nil
}

func (t *ttyRaw) enable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return termios.Tcsetattr(t.f.Fd(), termios.TCIFLUSH, &t.rawAttr)
}

func (t *ttyRaw) restore() {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = termios.Tcsetattr(t.f.Fd(), termios.TCIFLUSH, &t.canAttr)
}
