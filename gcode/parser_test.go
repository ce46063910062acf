package gcode_test

import (
	"testing"

	"github.com/tindervale/motionfw/gcode"
	"github.com/tindervale/motionfw/test"
)

func TestSimpleLinearMove(t *testing.T) {
	p := gcode.NewParser()

	intent, err := p.ParseLine("G21 G90 G1 X10 Y10 F1000")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, intent.Kind, gcode.MotionLinear)
	test.ExpectEquality(t, intent.Target[0], 10.0)
	test.ExpectEquality(t, intent.Target[1], 10.0)
	test.ExpectEquality(t, intent.FeedMMPerMin, 1000.0)
}

func TestModalMotionPersists(t *testing.T) {
	p := gcode.NewParser()

	_, err := p.ParseLine("G1 X1 F500")
	test.ExpectSuccess(t, err)

	intent, err := p.ParseLine("X2")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, intent.Kind, gcode.MotionLinear)
	test.ExpectEquality(t, intent.Target[0], 2.0)
}

func TestIncrementalNoOpIsIdentity(t *testing.T) {
	p := gcode.NewParser()

	_, err := p.ParseLine("G90 G1 X5 Y5 F100")
	test.ExpectSuccess(t, err)

	intent, err := p.ParseLine("G91 X0 Y0")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, intent.Kind, gcode.MotionNone)
}

func TestG92OffsetThenResetRestoresMachineCoords(t *testing.T) {
	p := gcode.NewParser()

	_, err := p.ParseLine("G90 G1 X5 Y5 F100")
	test.ExpectSuccess(t, err)

	_, err = p.ParseLine("G92 X0 Y0")
	test.ExpectSuccess(t, err)
	pos := p.State().CurrentPos()
	test.ExpectEquality(t, pos[0], 0.0)

	_, err = p.ParseLine("G92.1")
	test.ExpectSuccess(t, err)
	pos = p.State().CurrentPos()
	test.ExpectEquality(t, pos[0], 5.0)
}

func TestFeedOnlyLineProducesNoIntent(t *testing.T) {
	p := gcode.NewParser()

	intent, err := p.ParseLine("F500")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, intent.Kind, gcode.MotionNone)
}

func TestModalGroupConflictRejected(t *testing.T) {
	p := gcode.NewParser()
	_, err := p.ParseLine("G0 G1 X1")
	test.ExpectFailure(t, err)
}

func TestLetterWithoutValueRejected(t *testing.T) {
	p := gcode.NewParser()
	_, err := p.ParseLine("G1 X")
	test.ExpectFailure(t, err)
}

func TestUndefinedAxisTargetRejected(t *testing.T) {
	p := gcode.NewParser()
	_, err := p.ParseLine("G1")
	test.ExpectFailure(t, err)
}

func TestErrorLeavesModalStateUnchanged(t *testing.T) {
	p := gcode.NewParser()
	_, err := p.ParseLine("G1 X1 F500")
	test.ExpectSuccess(t, err)

	before := p.State().GCodeLine()
	_, err = p.ParseLine("G0 G1 X1")
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, p.State().GCodeLine(), before)
}

func TestInchesConvertToMM(t *testing.T) {
	p := gcode.NewParser()
	intent, err := p.ParseLine("G20 G1 X1 F10")
	test.ExpectSuccess(t, err)
	test.ExpectApproximate(t, intent.Target[0], 25.4, 0.001)
}

func TestDwellProducesZeroStepIntent(t *testing.T) {
	p := gcode.NewParser()
	intent, err := p.ParseLine("G4 P1.5")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, intent.Kind, gcode.MotionDwell)
	test.ExpectEquality(t, intent.DwellSeconds, 1.5)
}

func TestCommentsStripped(t *testing.T) {
	p := gcode.NewParser()
	intent, err := p.ParseLine("G1 X1 (move to x=1) ; trailing comment")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, intent.Target[0], 1.0)
}

func TestArcRequiresIorJ(t *testing.T) {
	p := gcode.NewParser()
	_, err := p.ParseLine("G2 X10 Y0 F1000")
	test.ExpectFailure(t, err)
}

func TestArcIntent(t *testing.T) {
	p := gcode.NewParser()
	intent, err := p.ParseLine("G2 X10 Y0 I5 J0 F1000")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, intent.Kind, gcode.MotionArcCW)
	test.ExpectEquality(t, intent.I, 5.0)
}
