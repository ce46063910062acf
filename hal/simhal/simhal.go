// Package simhal is a software simulation of the step executor's hardware
// primitives: no real peripheral, but faithful to hal.Timer/OutputCompare/
// Gpio semantics, so the executor can be driven and its pulse counts
// asserted against in tests without real silicon.
package simhal

import "sync"

// Timer simulates a programmable-period timer. Callers step it manually via
// Fire in tests rather than waiting on a real clock.
type Timer struct {
	mu      sync.Mutex
	running bool
	period  uint32
	onFire  func()
}

// NewTimer creates a stopped Timer that invokes onFire on every simulated
// period match.
func NewTimer(onFire func()) *Timer {
	return &Timer{onFire: onFire}
}

func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
}

func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

func (t *Timer) SetPeriod(ticks uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.period = ticks
}

// Running reports whether the timer is started, for test assertions.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Fire simulates one period-match interrupt, invoking onFire if running.
func (t *Timer) Fire() {
	t.mu.Lock()
	running := t.running
	cb := t.onFire
	t.mu.Unlock()
	if running && cb != nil {
		cb()
	}
}

// OutputCompare simulates a dual-compare step-pulse unit.
type OutputCompare struct {
	mu            sync.Mutex
	enabled       bool
	oneShot       bool
	primary       uint32
	secondary     uint32
	pulsesEmitted uint32
}

// NewOutputCompare creates a disabled OutputCompare unit.
func NewOutputCompare() *OutputCompare {
	return &OutputCompare{}
}

func (o *OutputCompare) Enable() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enabled = true
	o.oneShot = false
}

func (o *OutputCompare) Disable() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enabled = false
}

func (o *OutputCompare) SetPrimaryCompare(ticks uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.primary = ticks
}

func (o *OutputCompare) SetSecondaryCompare(ticks uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.secondary = ticks
}

func (o *OutputCompare) ArmOneShot() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enabled = true
	o.oneShot = true
}

// Pulse simulates one rising+falling edge cycle: increments the pulse
// counter, and if armed one-shot, auto-disables (the "Sub -> Sub"
// row).
func (o *OutputCompare) Pulse() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.enabled {
		return
	}
	o.pulsesEmitted++
	if o.oneShot {
		o.enabled = false
	}
}

// PulseCount reports the number of pulses emitted, for Bresenham-correctness
// test assertions.
func (o *OutputCompare) PulseCount() uint32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pulsesEmitted
}

// Enabled reports whether the unit is currently armed.
func (o *OutputCompare) Enabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

// Gpio simulates a single pin, remembering the last value written.
type Gpio struct {
	mu    sync.Mutex
	value bool
}

// NewGpio creates a Gpio initialized low.
func NewGpio() *Gpio { return &Gpio{} }

func (g *Gpio) Set(high bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = high
}

func (g *Gpio) Get() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}
