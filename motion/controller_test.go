package motion_test

import (
	"strings"
	"testing"

	"github.com/tindervale/motionfw/hal"
	"github.com/tindervale/motionfw/hal/simhal"
	"github.com/tindervale/motionfw/kinematics"
	"github.com/tindervale/motionfw/motion"
	"github.com/tindervale/motionfw/test"
	"github.com/tindervale/motionfw/transport"
)

func newTestController(t *testing.T) (*motion.Controller, *transport.Loopback) {
	t.Helper()

	var oc [kinematics.NumAxes]hal.OutputCompare
	var dirPins, enablePins [kinematics.NumAxes]hal.Gpio
	for i := range oc {
		oc[i] = simhal.NewOutputCompare()
		dirPins[i] = simhal.NewGpio()
		enablePins[i] = simhal.NewGpio()
	}

	loop := transport.NewLoopback()
	c := motion.New(kinematics.NewMemStore(), oc, dirPins, enablePins, loop)
	test.ExpectSuccess(t, c.Settings.Set(kinematics.StepsPerMMID(kinematics.AxisX), 80))
	test.ExpectSuccess(t, c.Settings.Set(kinematics.StepsPerMMID(kinematics.AxisY), 80))

	return c, loop
}

func feedLine(c *motion.Controller, line string) {
	for i := 0; i < len(line); i++ {
		c.Feed(line[i])
		c.Step()
	}
	c.Feed('\n')
	c.Step()
}

func TestResponseOrdering(t *testing.T) {
	c, loop := newTestController(t)

	feedLine(c, "G21 G90 G1 X1 F1000")
	feedLine(c, "G1 X2 F1000")

	for i := 0; i < 100000 && c.Planner.Ring().Len() > 0; i++ {
		c.Step()
	}

	out := loop.Written()
	first := strings.Index(out, "ok")
	second := strings.Index(out[first+1:], "ok")
	if first < 0 || second < 0 {
		t.Fatalf("expected two ok responses, got %q", out)
	}
}

func TestSimpleMoveReachesTarget(t *testing.T) {
	c, _ := newTestController(t)
	feedLine(c, "G21 G90 G1 X10 Y10 F1000")

	for i := 0; i < 1_000_000 && (c.Planner.Ring().Len() > 0 || c.Executor.StepsRemaining() > 0); i++ {
		c.Step()
	}

	pos := c.Parser.State().CurrentPos()
	test.ExpectApproximate(t, pos[kinematics.AxisX], 10.0, 0.01)
	test.ExpectApproximate(t, pos[kinematics.AxisY], 10.0, 0.01)
}

func TestStatusReportTracksExecutedSteps(t *testing.T) {
	c, loop := newTestController(t)
	feedLine(c, "G21 G90 G1 X10 F1000")

	c.Feed('?')
	c.Step()
	out := loop.Written()
	if !strings.Contains(out, "MPos:0.000000,0.000000,0.000000,0.000000") {
		t.Fatalf("expected MPos still at origin before any step pulses, got %q", out)
	}

	for i := 0; i < 1_000_000 && (c.Planner.Ring().Len() > 0 || c.Executor.StepsRemaining() > 0); i++ {
		c.Step()
	}

	steps := c.Executor.PositionSteps()
	test.ExpectEquality(t, steps[kinematics.AxisX], int32(800))

	c.Feed('?')
	c.Step()
	out = loop.Written()
	if !strings.Contains(out, "MPos:10.000000,0.000000,0.000000,0.000000") {
		t.Fatalf("expected MPos at the executed target after the move drained, got %q", out)
	}
}

func TestSoftResetClearsEverything(t *testing.T) {
	c, loop := newTestController(t)
	feedLine(c, "G1 X1 F100")

	c.Feed(0x18)
	c.Step()

	test.ExpectEquality(t, c.Planner.Ring().Len(), 0)

	out := loop.Written()
	if !strings.Contains(out, "Grbl 1.1f") {
		t.Errorf("expected a fresh welcome banner after soft reset, got %q", out)
	}
}

func TestDollarDollarDumpsSettings(t *testing.T) {
	c, loop := newTestController(t)
	feedLine(c, "$$")

	out := loop.Written()
	if !strings.Contains(out, "$100=80") {
		t.Errorf("expected $100=80 in settings dump, got %q", out)
	}
}

func TestDollarGReportsParserState(t *testing.T) {
	c, loop := newTestController(t)
	feedLine(c, "$G")

	out := loop.Written()
	if !strings.Contains(out, "[GC:G0 G54 G17 G21 G90 G94 M5 M9 T0 F0 S0]") {
		t.Errorf("unexpected $G output: %q", out)
	}
}
