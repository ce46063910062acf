// Package segment implements the segment preparer, which
// slices the planner's current block into short constant-rate Segments the
// executor can step through without floating point.
package segment

import (
	"math"

	"github.com/tindervale/motionfw/planner"
)

// AmassLevel names a pulse-width-doubling tier used to keep very low step
// rates representable in the 16-bit timer period.
type AmassLevel int

const (
	Amass0 AmassLevel = iota
	Amass1
	Amass2
	Amass3
)

const (
	// TimerClockHz is the abstracted hardware tick rate.
	TimerClockHz = 1_500_000
	// minPeriodTicks is the lowest period the 16-bit timer can represent.
	minPeriodTicks = 1
	// maxPeriodTicks is the highest period the 16-bit timer can represent.
	maxPeriodTicks = 0xFFFF

	targetIntervalSeconds = 0.01 // ~100 Hz preparer cadence
)

// Segment is one short constant-accel slice of a block's motion, already
// reduced to an integer step count and a timer period the executor can load
// directly.
type Segment struct {
	BlockIndex int // sequence number of the block this segment belongs to; differs between consecutive blocks

	NSteps        uint32 // dominant-axis step count for this segment
	CyclesPerTick uint32 // timer period in ticks
	Amass         AmassLevel

	// IsFinal marks the last segment of its owning block: the preparer
	// discards the block from the ring when it emits this segment.
	IsFinal bool
}

// Preparer walks the planner's current tail block, emitting one Segment per
// invocation. The main loop (motion.Controller.stepExecutor) calls it each
// time the executor has finished its loaded segment.
type Preparer struct {
	ring *planner.Ring

	active          bool
	blockIdx        int
	stepsRemaining  uint32
	mmRemaining     float64
	currentSpeedSq  float64
	decelDistanceSq float64
	block           *planner.PlannedBlock
}

// NewPreparer creates a Preparer bound to ring.
func NewPreparer(ring *planner.Ring) *Preparer {
	return &Preparer{ring: ring}
}

// Prepare produces the next Segment, or (Segment{}, false) if the current
// block has no work left and the ring has nothing further planned.
func (p *Preparer) Prepare() (Segment, bool) {
	if !p.active {
		if !p.loadNextBlock() {
			return Segment{}, false
		}
	}

	if p.block.IsDwell() {
		seg := Segment{NSteps: 0, IsFinal: true}
		p.finishBlock()
		return seg, true
	}

	dt := targetIntervalSeconds
	v0Sq := p.currentSpeedSq
	accel := p.block.AccelerationStepsPerS2

	// Determine phase: accelerate toward nominal, cruise, or decelerate
	// toward exit, picking whichever is consistent with remaining distance.
	var a float64
	switch {
	case v0Sq < p.block.NominalRateStepsPerSec*p.block.NominalRateStepsPerSec && p.mmRemaining > p.decelDistanceSq:
		a = accel
	case v0Sq > p.block.ExitSpeedSq && p.mmRemaining <= p.decelDistanceSq:
		a = -accel
	default:
		a = 0
	}

	// v' = sqrt(v^2 + 2*a*ds); approximate ds for this dt using the current
	// speed, then clamp to nominal/exit and to remaining steps.
	v := math.Sqrt(math.Max(v0Sq, 0))
	ds := v*dt + 0.5*a*dt*dt
	if ds < 0 {
		ds = 0
	}
	if ds > p.mmRemaining {
		ds = p.mmRemaining
	}
	newSpeedSq := math.Max(0, v0Sq+2*a*ds)
	if newSpeedSq > p.block.NominalRateStepsPerSec*p.block.NominalRateStepsPerSec {
		newSpeedSq = p.block.NominalRateStepsPerSec * p.block.NominalRateStepsPerSec
	}

	nSteps := uint32(math.Round(ds))
	if nSteps > p.stepsRemaining {
		nSteps = p.stepsRemaining
	}

	isFinal := nSteps >= p.stepsRemaining
	if isFinal {
		nSteps = p.stepsRemaining // final segment absorbs the remainder exactly
	}

	avgSpeed := math.Sqrt(math.Max((v0Sq+newSpeedSq)/2, 1))
	stepRateHz := avgSpeed
	cycles, amass := cyclesForRate(stepRateHz)

	seg := Segment{
		BlockIndex:    p.blockIdx,
		NSteps:        nSteps,
		CyclesPerTick: cycles,
		Amass:         amass,
		IsFinal:       isFinal,
	}

	p.stepsRemaining -= nSteps
	p.mmRemaining -= ds
	p.currentSpeedSq = newSpeedSq

	if isFinal {
		p.finishBlock()
	}

	return seg, true
}

func (p *Preparer) loadNextBlock() bool {
	b := p.ring.Tail()
	if b == nil {
		return false
	}

	p.ring.MarkTailExecuting()

	p.blockIdx++
	p.block = b
	p.active = true
	p.stepsRemaining = b.StepEventCount
	p.mmRemaining = float64(b.StepEventCount)
	p.currentSpeedSq = b.EntrySpeedSq
	p.decelDistanceSq = (b.ExitSpeedSq - b.NominalRateStepsPerSec*b.NominalRateStepsPerSec) / (-2 * maxFloat(b.AccelerationStepsPerS2, 1))
	if p.decelDistanceSq < 0 {
		p.decelDistanceSq = 0
	}
	return true
}

func (p *Preparer) finishBlock() {
	p.ring.Discard()
	p.active = false
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// cyclesForRate converts a step rate in Hz to a 16-bit timer period,
// subdividing via amass when the rate would otherwise be below the minimum
// representable period.
func cyclesForRate(stepRateHz float64) (uint32, AmassLevel) {
	if stepRateHz <= 0 {
		return maxPeriodTicks, Amass0
	}

	period := TimerClockHz / stepRateHz

	amass := Amass0
	for period > maxPeriodTicks && amass < Amass3 {
		stepRateHz *= 2
		period = TimerClockHz / stepRateHz
		amass++
	}

	if period > maxPeriodTicks {
		period = maxPeriodTicks
	}
	if period < minPeriodTicks {
		period = minPeriodTicks
	}

	return uint32(period), amass
}

// Reset discards any in-progress block tracking, for soft_reset and feed
// hold/resume transitions.
func (p *Preparer) Reset() {
	p.active = false
	p.block = nil
	p.stepsRemaining = 0
	p.mmRemaining = 0
	p.currentSpeedSq = 0
}
