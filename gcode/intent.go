// Package gcode implements the G-code parser: tokenizing one line of G-code
// into (letter, value) words, folding them into modal state, and producing
// the MotionIntent the planner consumes.
package gcode

import "github.com/tindervale/motionfw/kinematics"

// MotionKind distinguishes the shapes of motion a line can produce.
type MotionKind int

const (
	// MotionNone means the line produced no intent (feed/spindle/coolant-only).
	MotionNone MotionKind = iota
	// MotionLinear is a straight traverse or feed move (G0/G1).
	MotionLinear
	// MotionArcCW is a clockwise arc (G2).
	MotionArcCW
	// MotionArcCCW is a counter-clockwise arc (G3).
	MotionArcCCW
	// MotionDwell is a G4 timed pause: a zero-step block with a duration.
	MotionDwell
)

// MotionIntent is the parser's (and arc generator's) unit of output: one
// motion for the planner to turn into a PlannedBlock.
type MotionIntent struct {
	Kind MotionKind

	// Target is the commanded absolute position in machine coordinates
	// (post G92 offset, post unit conversion), one entry per AxisID.
	Target [kinematics.NumAxes]float64

	// FeedMMPerMin is the commanded feed rate; meaningless for MotionDwell.
	FeedMMPerMin float64

	// SpindleRPM is the last commanded spindle speed, carried for status
	// reporting; it does not affect planning.
	SpindleRPM float64

	// I, J are arc center offsets relative to the arc's start point,
	// populated only for MotionArcCW/MotionArcCCW.
	I, J float64

	// DwellSeconds is populated only for MotionDwell.
	DwellSeconds float64
}

// ZeroLength reports whether every axis of Target equals from, meaning this
// intent is a no-op move (an edge case dropped at the parser,
// without an error).
func (m MotionIntent) ZeroLength(from [kinematics.NumAxes]float64) bool {
	for i := range m.Target {
		if m.Target[i] != from[i] {
			return false
		}
	}
	return true
}
