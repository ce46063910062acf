// Package executor implements the step executor that runs
// inside the output-compare interrupt of the dominant axis, emitting
// Bresenham-paced pulses to the subordinate axes from each segment's integer
// step counts. No floating point touches this package.
package executor

import (
	"github.com/tindervale/motionfw/hal"
	"github.com/tindervale/motionfw/kinematics"
	"github.com/tindervale/motionfw/segment"
)

// role is one axis's position in the per-segment Bresenham state machine.
type role int

const (
	roleIdle role = iota
	roleSub
	roleDominant
)

// Companion is the per-block data the preparer hands off to the executor
// through a segment record, avoiding a race on the shared companion table
// (written by the preparer, read by the executor).
type Companion struct {
	Steps          [kinematics.NumAxes]int32
	Dominant       kinematics.AxisID
	StepEventCount uint32
	DirectionBits  uint8
}

// Executor drives one physical axis set. Axes are addressed through the hal
// interfaces so the same logic runs against simhal in tests and against real
// peripherals in firmware builds.
type Executor struct {
	oc      [kinematics.NumAxes]hal.OutputCompare
	dirPins [kinematics.NumAxes]hal.Gpio
	enable  [kinematics.NumAxes]hal.Gpio

	roles [kinematics.NumAxes]role

	companionBlockIdx int
	companion         Companion
	counters          [kinematics.NumAxes]uint32

	stepsRemaining uint32
	dominant       kinematics.AxisID

	// positionSteps is the real, pulse-counted machine position, signed per
	// axis. It only advances from Pulse, so it tracks what has actually been
	// stepped rather than what a block commands.
	positionSteps [kinematics.NumAxes]int32

	alarmed bool
}

// New creates an Executor driving the given per-axis output-compare units,
// direction pins, and driver-enable pins.
func New(oc [kinematics.NumAxes]hal.OutputCompare, dirPins, enable [kinematics.NumAxes]hal.Gpio) *Executor {
	return &Executor{oc: oc, dirPins: dirPins, enable: enable, companionBlockIdx: -1}
}

// Alarmed reports whether an executor stall has latched:
// cleared only by Reset (soft_reset).
func (e *Executor) Alarmed() bool { return e.alarmed }

// LoadSegment arms the executor for one Segment. If blockIdx differs from
// the currently loaded companion, companion must be provided; if blockIdx
// matches, the segment belongs to the same block and the executor reuses
// the already-loaded companion entry.
func (e *Executor) LoadSegment(seg segment.Segment, companion *Companion) {
	if companion != nil && seg.BlockIndex != e.companionBlockIdx {
		e.loadCompanion(seg.BlockIndex, *companion)
	}

	e.stepsRemaining = seg.NSteps
	if e.stepsRemaining == 0 {
		return
	}

	e.setupDominant()
}

func (e *Executor) loadCompanion(blockIdx int, c Companion) {
	e.companionBlockIdx = blockIdx
	e.companion = c
	e.dominant = c.Dominant
	e.counters = [kinematics.NumAxes]uint32{}

	for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
		if c.Steps[axis] == 0 {
			e.transitionRole(axis, roleIdle)
			continue
		}
		if axis == c.Dominant {
			continue // set up lazily in setupDominant, once steps are armed
		}
		e.transitionRole(axis, roleSub)
	}
}

func (e *Executor) setupDominant() {
	axis := e.dominant
	if e.roles[axis] != roleDominant {
		e.transitionRole(axis, roleDominant)
		high := e.companion.DirectionBits&(1<<uint(axis)) != 0
		e.dirPins[axis].Set(high)
		e.enable[axis].Set(true)
		e.oc[axis].Enable()
	}
}

func (e *Executor) transitionRole(axis kinematics.AxisID, next role) {
	prev := e.roles[axis]
	e.roles[axis] = next

	switch {
	case next == roleDominant:
		// handled by setupDominant's one-time-setup branch
	case prev == roleDominant && next != roleDominant:
		e.oc[axis].Disable()
	}
}

// Pulse simulates one dominant-axis step tick: it is the executor's
// reaction to the dominant OutputCompare's falling edge, advancing each
// subordinate axis's Bresenham accumulator and emitting a subordinate pulse
// whenever it carries.
func (e *Executor) Pulse() {
	if e.stepsRemaining == 0 {
		e.alarmed = true
		return
	}

	e.stepsRemaining--
	e.bumpPosition(e.dominant)

	for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
		if axis == e.dominant || e.companion.Steps[axis] == 0 {
			continue
		}

		abs := e.companion.Steps[axis]
		if abs < 0 {
			abs = -abs
		}

		e.counters[axis] += uint32(abs)
		if e.counters[axis] >= e.companion.StepEventCount {
			e.counters[axis] -= e.companion.StepEventCount
			high := e.companion.DirectionBits&(1<<uint(axis)) != 0
			e.dirPins[axis].Set(high)
			e.oc[axis].ArmOneShot()
			e.bumpPosition(axis)
		}
	}

	if e.stepsRemaining == 0 {
		e.transitionRole(e.dominant, roleIdle)
	}
}

// bumpPosition advances positionSteps[axis] by one pulse, signed by the
// companion's latched direction for that axis.
func (e *Executor) bumpPosition(axis kinematics.AxisID) {
	if e.companion.DirectionBits&(1<<uint(axis)) != 0 {
		e.positionSteps[axis]--
	} else {
		e.positionSteps[axis]++
	}
}

// PositionSteps returns the real, pulse-counted position per axis. Unlike
// the parser's commanded position, this only advances as Pulse fires, so it
// reflects what the machine has actually stepped, not what was requested.
func (e *Executor) PositionSteps() [kinematics.NumAxes]int32 { return e.positionSteps }

// StepsRemaining reports the dominant-axis pulses left in the loaded
// segment.
func (e *Executor) StepsRemaining() uint32 { return e.stepsRemaining }

// Stop disables every axis's output-compare unit, for soft_reset/feed hold.
func (e *Executor) Stop() {
	for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
		e.oc[axis].Disable()
		e.roles[axis] = roleIdle
	}
}

// Reset clears the latched alarm and all companion/segment state, for
// soft_reset cancellation.
func (e *Executor) Reset() {
	e.Stop()
	e.alarmed = false
	e.companionBlockIdx = -1
	e.companion = Companion{}
	e.counters = [kinematics.NumAxes]uint32{}
	e.stepsRemaining = 0
}
