package planner

import (
	"math"

	"github.com/tindervale/motionfw/gcode"
	"github.com/tindervale/motionfw/kinematics"
)

const minPlannerSpeedStepsPerSec = 1.0

// Planner owns the block Ring and the settings it plans against. It runs
// entirely in the main cooperative loop: plan_buffer_line computes
// one new block and recomputes the junction speeds of its neighbours; the
// preparer and executor only ever read the tail via Ring.Tail/Discard.
type Planner struct {
	ring     *Ring
	settings *kinematics.Settings

	havePrev   bool
	prevExit   [kinematics.NumAxes]float64 // unit vector
	prevLen    float64
	prevAccel  float64
	prevExitSq float64
}

// New creates a Planner bound to ring and settings.
func New(ring *Ring, settings *kinematics.Settings) *Planner {
	return &Planner{ring: ring, settings: settings}
}

// PlanBufferLine computes steps, rates, and junction speed for one
// MotionIntent and appends it to the ring, then runs the reverse and forward
// recompute passes over the whole look-ahead window.
func (p *Planner) PlanBufferLine(intent gcode.MotionIntent, from [kinematics.NumAxes]float64) error {
	if intent.Kind == gcode.MotionDwell {
		_, err := p.ring.Push(PlannedBlock{
			DwellSeconds: intent.DwellSeconds,
			Generation:   p.settings.Generation(),
			State:        BlockPlanned,
		})
		return err
	}

	block := p.buildBlock(intent, from)
	idx, err := p.ring.Push(block)
	if err != nil {
		return err
	}

	p.recompute()

	p.ring.mu.Lock()
	p.ring.blocks[idx].State = BlockPlanned
	p.ring.mu.Unlock()

	return nil
}

func (p *Planner) buildBlock(intent gcode.MotionIntent, from [kinematics.NumAxes]float64) PlannedBlock {
	var b PlannedBlock
	b.Generation = p.settings.Generation()

	var mmSq float64
	for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
		delta := intent.Target[axis] - from[axis]
		steps := kinematics.StepsFromMM(axis, delta, p.settings)
		b.Steps[axis] = steps
		if steps < 0 {
			b.DirectionBits |= 1 << uint(axis)
		}
		mmSq += delta * delta
	}
	b.MillimetersTotal = math.Sqrt(mmSq)

	dominant := kinematics.AxisX
	var maxAbs int32
	for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
		abs := b.Steps[axis]
		if abs < 0 {
			abs = -abs
		}
		if abs > maxAbs {
			maxAbs = abs
			dominant = axis
		}
	}
	b.Dominant = dominant
	b.StepEventCount = uint32(maxAbs)

	if b.MillimetersTotal > 0 {
		for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
			b.UnitVector[axis] = (intent.Target[axis] - from[axis]) / b.MillimetersTotal
		}
	}

	nominalMMPerMin := math.MaxFloat64
	accelMMPerS2 := math.MaxFloat64
	if b.MillimetersTotal > 0 {
		for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
			if b.Steps[axis] == 0 {
				continue
			}
			axisFraction := float64(abs32(b.Steps[axis])) / float64(maxAbs)
			if axisFraction == 0 {
				continue
			}
			rate := p.settings.MaxRateMMPerMin(axis) / axisFraction
			if rate < nominalMMPerMin {
				nominalMMPerMin = rate
			}
			accel := p.settings.MaxAccelMMPerS2(axis) / axisFraction
			if accel < accelMMPerS2 {
				accelMMPerS2 = accel
			}
		}
	}
	if nominalMMPerMin == math.MaxFloat64 {
		nominalMMPerMin = 0
	}
	if accelMMPerS2 == math.MaxFloat64 {
		accelMMPerS2 = 0
	}
	if intent.FeedMMPerMin > 0 && intent.FeedMMPerMin < nominalMMPerMin {
		nominalMMPerMin = intent.FeedMMPerMin
	}

	stepsPerMM := 0.0
	if b.MillimetersTotal > 0 {
		stepsPerMM = float64(maxAbs) / b.MillimetersTotal
	}
	b.NominalRateStepsPerSec = nominalMMPerMin / 60.0 * stepsPerMM
	b.AccelerationStepsPerS2 = accelMMPerS2 * stepsPerMM

	b.MaxEntrySpeedSq = p.junctionEntrySpeedSq(b)
	if b.MaxEntrySpeedSq > b.NominalRateStepsPerSec*b.NominalRateStepsPerSec {
		b.MaxEntrySpeedSq = b.NominalRateStepsPerSec * b.NominalRateStepsPerSec
	}
	b.EntrySpeedSq = b.MaxEntrySpeedSq
	b.ExitSpeedSq = b.NominalRateStepsPerSec * b.NominalRateStepsPerSec

	p.havePrev = true
	p.prevExit = b.UnitVector
	p.prevLen = b.MillimetersTotal
	p.prevAccel = b.AccelerationStepsPerS2
	p.prevExitSq = b.ExitSpeedSq

	return b
}

// junctionEntrySpeedSq implements the junction-deviation formula
// against the exit unit vector of the previous block.
func (p *Planner) junctionEntrySpeedSq(b PlannedBlock) float64 {
	if !p.havePrev || p.prevLen == 0 || b.MillimetersTotal == 0 {
		return minPlannerSpeedStepsPerSec * minPlannerSpeedStepsPerSec
	}

	var cosTheta float64
	for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
		cosTheta += p.prevExit[axis] * b.UnitVector[axis]
	}

	if cosTheta <= -0.999999 {
		return minPlannerSpeedStepsPerSec * minPlannerSpeedStepsPerSec
	}

	sinHalf := math.Sqrt(math.Max(0, (1-cosTheta)/2))
	if sinHalf >= 1 {
		return minPlannerSpeedStepsPerSec * minPlannerSpeedStepsPerSec
	}

	junctionDeviationSteps := p.settings.JunctionDeviationMM() * stepsPerMMApprox(b)
	r := junctionDeviationSteps * sinHalf / (1 - sinHalf)
	vMaxSq := b.AccelerationStepsPerS2 * r
	return vMaxSq
}

func stepsPerMMApprox(b PlannedBlock) float64 {
	if b.MillimetersTotal == 0 {
		return 0
	}
	return float64(b.StepEventCount) / b.MillimetersTotal
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// recompute runs the reverse then forward passes over the whole ring,
// maintaining the invariant that exit_speed(A)^2 <= entry_speed(B)^2 +
// 2*a*len(A) in both directions.
func (p *Planner) recompute() {
	p.ring.mu.Lock()
	defer p.ring.mu.Unlock()

	n := p.ring.count
	if n == 0 {
		return
	}

	idxOf := func(i int) int { return (p.ring.head + i) % PlannerRingCapacity }

	// Reverse pass: newest back to the block after the executing head.
	for i := n - 1; i > 0; i-- {
		cur := &p.ring.blocks[idxOf(i)]
		prev := &p.ring.blocks[idxOf(i-1)]
		if cur.State == BlockExecuting {
			continue
		}
		if prev.State == BlockExecuting {
			continue
		}
		limited := math.Sqrt(cur.EntrySpeedSq + 2*prev.AccelerationStepsPerS2*prev.MillimetersTotal*stepsPerMMApprox(*prev))
		candidate := math.Min(prev.MaxEntrySpeedSq, limited*limited)
		prev.EntrySpeedSq = math.Min(prev.MaxEntrySpeedSq, candidate)
	}

	// Forward pass: oldest to newest.
	for i := 0; i < n-1; i++ {
		cur := &p.ring.blocks[idxOf(i)]
		next := &p.ring.blocks[idxOf(i+1)]

		lenSteps := cur.MillimetersTotal * stepsPerMMApprox(*cur)
		reachable := cur.EntrySpeedSq + 2*cur.AccelerationStepsPerS2*lenSteps
		exitSq := math.Min(cur.NominalRateStepsPerSec*cur.NominalRateStepsPerSec, reachable)

		if next.EntrySpeedSq > exitSq {
			next.EntrySpeedSq = exitSq
		}
		cur.ExitSpeedSq = next.EntrySpeedSq
	}

	last := &p.ring.blocks[idxOf(n-1)]
	lenSteps := last.MillimetersTotal * stepsPerMMApprox(*last)
	last.ExitSpeedSq = math.Min(last.NominalRateStepsPerSec*last.NominalRateStepsPerSec, last.EntrySpeedSq+2*last.AccelerationStepsPerS2*lenSteps)
}

// Ring exposes the underlying Ring for the preparer/executor/status reporter.
func (p *Planner) Ring() *Ring { return p.ring }

// Reset clears the ring and the junction-tracking state, for soft_reset.
func (p *Planner) Reset() {
	p.ring.Reset()
	p.havePrev = false
}
