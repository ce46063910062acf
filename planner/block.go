// Package planner implements the look-ahead planner: the fixed-capacity ring of
// planned motion blocks, junction-deviation cornering speed, and the
// forward/reverse recompute passes that keep consecutive blocks' speeds
// consistent with the machine's acceleration limits.
package planner

import "github.com/tindervale/motionfw/kinematics"

// PlannerRingCapacity is the number of block slots held at once. Sixteen
// blocks of typical desktop-CNC length give the look-ahead window enough
// reach to smooth cornering speed without costing much RAM.
const PlannerRingCapacity = 16

// BlockState is one slot's position in the Free -> Staged -> Planned ->
// Executing -> Free state machine.
type BlockState int

const (
	BlockFree BlockState = iota
	BlockStaged
	BlockPlanned
	BlockExecuting
)

// PlannedBlock is one line's worth of motion, already reduced to steps and a
// trapezoidal speed profile. Dwell blocks (an edge case) carry
// StepEventCount == 0 and a nonzero DwellSeconds; the preparer emits a single
// time-only segment for them.
type PlannedBlock struct {
	State BlockState

	// Steps is the signed per-axis step delta for this block.
	Steps [kinematics.NumAxes]int32
	// Dominant is the axis with the largest |Steps|; ties broken to the
	// lower axis index.
	Dominant kinematics.AxisID
	// StepEventCount is |Steps[Dominant]|.
	StepEventCount uint32
	// DirectionBits has bit i set when Steps[i] is negative.
	DirectionBits uint8

	MillimetersTotal float64
	UnitVector       [kinematics.NumAxes]float64 // direction cosines, for junction math

	NominalRateStepsPerSec float64
	AccelerationStepsPerS2 float64

	MaxEntrySpeedSq float64 // junction-limited cap, before recompute passes
	EntrySpeedSq    float64 // current recomputed entry speed^2
	ExitSpeedSq     float64 // current recomputed exit speed^2 (== next block's entry, by construction)

	DwellSeconds float64

	// Generation records Settings.Generation() at plan time, so a later
	// settings change never retroactively perturbs an in-flight block.
	Generation uint64
}

// IsDwell reports whether this block is a zero-step timed pause.
func (b *PlannedBlock) IsDwell() bool {
	return b.StepEventCount == 0 && b.DwellSeconds > 0
}
