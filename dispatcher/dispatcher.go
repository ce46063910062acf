// Package dispatcher implements the line buffer and
// real-time byte classifier. push_byte runs from the serial receive hook
// (a second-highest-priority context); poll_line is drained once per
// main-loop iteration.
package dispatcher

import (
	"sync"
	"sync/atomic"

	"github.com/tindervale/motionfw/errors"
)

// maxLineLength bounds the line buffer; overflow discards the remainder of
// the line and records an error for the next response.
const maxLineLength = 128

// Flags holds the real-time single-byte signals. Each is a lock-free,
// idempotent edge: multiple identical bytes before the main loop services
// them coalesce into a single pending flag.
type Flags struct {
	statusRequested uint32
	feedHold        uint32
	cycleStart      uint32
	softReset       uint32
}

func (f *Flags) set(flag *uint32) { atomic.StoreUint32(flag, 1) }
func (f *Flags) testAndClear(flag *uint32) bool {
	return atomic.SwapUint32(flag, 0) != 0
}

// TakeStatusRequested reports and clears a pending "?".
func (f *Flags) TakeStatusRequested() bool { return f.testAndClear(&f.statusRequested) }

// TakeFeedHold reports and clears a pending "!".
func (f *Flags) TakeFeedHold() bool { return f.testAndClear(&f.feedHold) }

// TakeCycleStart reports and clears a pending "~".
func (f *Flags) TakeCycleStart() bool { return f.testAndClear(&f.cycleStart) }

// TakeSoftReset reports and clears a pending Ctrl-X (0x18).
func (f *Flags) TakeSoftReset() bool { return f.testAndClear(&f.softReset) }

// Dispatcher accumulates incoming serial bytes into complete lines and
// tracks the real-time flags. PushByte is safe to call from a receive
// interrupt context concurrently with PollLine running on the main loop.
type Dispatcher struct {
	Flags Flags

	mu       sync.Mutex
	line     [maxLineLength]byte
	length   int
	overflow bool
	ready    []string
	pending  []error
}

// New creates an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

// PushByte classifies and consumes one incoming byte.
func (d *Dispatcher) PushByte(b byte) {
	switch b {
	case '?':
		d.Flags.set(&d.Flags.statusRequested)
		return
	case '!':
		d.Flags.set(&d.Flags.feedHold)
		return
	case '~':
		d.Flags.set(&d.Flags.cycleStart)
		return
	case 0x18:
		d.Flags.set(&d.Flags.softReset)
		return
	case '\r', '\n':
		d.terminateLine()
		return
	}

	if b < 0x20 || b >= 0x80 {
		return // non-printable, high-bit-set bytes are dropped silently
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.length >= maxLineLength {
		d.overflow = true
		return
	}
	d.line[d.length] = b
	d.length++
}

func (d *Dispatcher) terminateLine() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.length == 0 && !d.overflow {
		return // bare CR/LF, eg. from a CRLF pair: not a line
	}

	if d.overflow {
		d.pending = append(d.pending, errors.CodeErrorf(errors.LineOverflow, errors.LineOverflowMsg))
		d.overflow = false
		d.length = 0
		return
	}

	d.ready = append(d.ready, string(d.line[:d.length]))
	d.length = 0
}

// PollLine consumes one ready line, if any.
func (d *Dispatcher) PollLine() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.ready) == 0 {
		return "", false
	}
	line := d.ready[0]
	d.ready = d.ready[1:]
	return line, true
}

// PollError consumes one pending dispatcher-level error (eg. an overflowed
// line), if any, for the next ok/error response.
func (d *Dispatcher) PollError() (error, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return nil, false
	}
	err := d.pending[0]
	d.pending = d.pending[1:]
	return err, true
}

// Reset clears all buffered lines, the in-progress line, and the real-time
// flags, for soft_reset.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.length = 0
	d.overflow = false
	d.ready = nil
	d.pending = nil
	atomic.StoreUint32(&d.Flags.statusRequested, 0)
	atomic.StoreUint32(&d.Flags.feedHold, 0)
	atomic.StoreUint32(&d.Flags.cycleStart, 0)
	atomic.StoreUint32(&d.Flags.softReset, 0)
}
