// Package arc implements the G2/G3 arc generator, a
// stateful iterator that subdivides one commanded arc into a sequence of
// linear MotionIntent chords, producing at most one chord per tick.
package arc

import (
	"math"

	"github.com/tindervale/motionfw/errors"
	"github.com/tindervale/motionfw/gcode"
	"github.com/tindervale/motionfw/kinematics"
)

// Generator walks one arc, one chord at a time. Each chord's X/Y target is
// computed in closed form from the arc's centre, radius, start angle and
// chord index, and Z/A are interpolated linearly from the arc's start
// position, so chord targets carry no accumulated error. The position passed
// to Next does not affect the chord targets; the last chord lands exactly on
// the commanded target.
type Generator struct {
	cw       bool
	feed     float64
	center   [2]float64 // in the arc's plane (X,Y); restricted to G17
	radius   float64
	thetaEnd float64 // total sweep, always positive, in the commanded direction
	thetaPos float64 // consumed so far
	deltaT   float64 // angle per chord
	start    [2]float64
	target   [kinematics.NumAxes]float64 // full commanded target, non-planar axes carried linearly
	from     [kinematics.NumAxes]float64
	n        int
	emitted  int
	done     bool
}

// New validates the commanded arc geometry and builds a Generator ready to
// be driven by Next. pos is the current logical position; intent must be
// MotionArcCW or MotionArcCCW.
func New(pos [kinematics.NumAxes]float64, intent gcode.MotionIntent, arcToleranceMM float64) (*Generator, error) {
	x0, y0 := pos[kinematics.AxisX], pos[kinematics.AxisY]
	cx, cy := x0+intent.I, y0+intent.J
	x1, y1 := intent.Target[kinematics.AxisX], intent.Target[kinematics.AxisY]

	r0 := math.Hypot(x0-cx, y0-cy)
	r1 := math.Hypot(x1-cx, y1-cy)

	eps := arcToleranceMM
	if eps <= 0 {
		eps = 0.002
	}
	if math.Abs(r0-r1) > eps {
		return nil, errors.CodeErrorf(errors.InvalidArcGeometry, errors.InvalidArcGeometryMsg, math.Abs(r0-r1), eps)
	}
	if r0 == 0 {
		return nil, errors.CodeErrorf(errors.InvalidArcGeometry, errors.ZeroRadiusArcMsg)
	}

	startAngle := math.Atan2(y0-cy, x0-cx)
	endAngle := math.Atan2(y1-cy, x1-cx)

	cw := intent.Kind == gcode.MotionArcCW

	var theta float64
	if x0 == x1 && y0 == y1 && (intent.I != 0 || intent.J != 0) {
		theta = 2 * math.Pi
	} else {
		theta = endAngle - startAngle
		if cw {
			for theta > 0 {
				theta -= 2 * math.Pi
			}
			theta = -theta
		} else {
			for theta < 0 {
				theta += 2 * math.Pi
			}
		}
		if theta == 0 {
			theta = 2 * math.Pi
		}
	}

	chordMax := math.Sqrt(eps * (2*r0 - eps))
	if chordMax <= 0 {
		chordMax = eps
	}
	n := int(math.Ceil(theta * r0 / chordMax))
	if n < 1 {
		n = 1
	}

	return &Generator{
		cw:       cw,
		feed:     intent.FeedMMPerMin,
		center:   [2]float64{cx, cy},
		radius:   r0,
		thetaEnd: theta,
		deltaT:   theta / float64(n),
		start:    [2]float64{x0, y0},
		target:   intent.Target,
		from:     pos,
		n:        n,
	}, nil
}

// Remaining reports the number of chords not yet emitted.
func (g *Generator) Remaining() int { return g.n - g.emitted }

// Next produces the next chord as a MotionIntent. Every axis of the chord's
// target is computed from the arc itself; current is not used. The second
// return is false once every chord has been emitted.
func (g *Generator) Next(current [kinematics.NumAxes]float64) (gcode.MotionIntent, bool) {
	if g.done || g.emitted >= g.n {
		return gcode.MotionIntent{}, false
	}

	g.emitted++
	last := g.emitted == g.n

	var next [kinematics.NumAxes]float64 = current
	if last {
		next[kinematics.AxisX] = g.target[kinematics.AxisX]
		next[kinematics.AxisY] = g.target[kinematics.AxisY]
	} else {
		startAngle := math.Atan2(g.start[1]-g.center[1], g.start[0]-g.center[0])
		step := g.deltaT * float64(g.emitted)
		angle := startAngle - step
		if !g.cw {
			angle = startAngle + step
		}
		next[kinematics.AxisX] = g.center[0] + g.radius*math.Cos(angle)
		next[kinematics.AxisY] = g.center[1] + g.radius*math.Sin(angle)
	}

	// Non-planar axes (Z/A) interpolate linearly across the whole arc.
	frac := float64(g.emitted) / float64(g.n)
	next[kinematics.AxisZ] = g.from[kinematics.AxisZ] + frac*(g.target[kinematics.AxisZ]-g.from[kinematics.AxisZ])
	next[kinematics.AxisA] = g.from[kinematics.AxisA] + frac*(g.target[kinematics.AxisA]-g.from[kinematics.AxisA])

	if last {
		g.done = true
	}

	return gcode.MotionIntent{
		Kind:         gcode.MotionLinear,
		Target:       next,
		FeedMMPerMin: g.feed,
	}, true
}

// Abandon stops the generator mid-sequence, for soft_reset handling.
func (g *Generator) Abandon() { g.done = true }
