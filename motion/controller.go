// Package motion wires the parser, planner, preparer, and executor into the main cooperative loop
// described below: one Controller owns the dispatcher, parser, arc
// generator, planner, preparer, executor, and status layers, and Step drives
// one iteration of the loop.
package motion

import (
	"github.com/tindervale/motionfw/arc"
	"github.com/tindervale/motionfw/dispatcher"
	"github.com/tindervale/motionfw/errors"
	"github.com/tindervale/motionfw/executor"
	"github.com/tindervale/motionfw/gcode"
	"github.com/tindervale/motionfw/hal"
	"github.com/tindervale/motionfw/kinematics"
	"github.com/tindervale/motionfw/logger"
	"github.com/tindervale/motionfw/planner"
	"github.com/tindervale/motionfw/segment"
	"github.com/tindervale/motionfw/status"
	"github.com/tindervale/motionfw/transport"
)

// Controller is the single-process owner of the whole pipeline. Every
// method here is meant to run on the main cooperative loop except Feed,
// which may be called concurrently from a receive hook.
type Controller struct {
	Settings   *kinematics.Settings
	Dispatcher *dispatcher.Dispatcher
	Parser     *gcode.Parser
	Planner    *planner.Planner
	Preparer   *segment.Preparer
	Executor   *executor.Executor

	port transport.Port

	state     status.MachineState
	activeArc *arc.Generator

	buildInfo status.BuildInfo
}

// New wires a Controller against store (settings persistence) and port
// (the serial transport).
func New(store kinematics.Store, oc [kinematics.NumAxes]hal.OutputCompare, dirPins, enable [kinematics.NumAxes]hal.Gpio, port transport.Port) *Controller {
	settings := kinematics.NewSettings(store)
	ring := planner.NewRing()

	c := &Controller{
		Settings:   settings,
		Dispatcher: dispatcher.New(),
		Parser:     gcode.NewParser(),
		Planner:    planner.New(ring, settings),
		Preparer:   segment.NewPreparer(ring),
		Executor:   executor.New(oc, dirPins, enable),
		port:       port,
		state:      status.Idle,
		buildInfo:  status.BuildInfo{Version: "1.1f", Date: "20260731", Label: "motionfw", Options: ""},
	}
	return c
}

// Feed pushes bytes arriving from the transport into the dispatcher. Safe
// to call concurrently with Step.
func (c *Controller) Feed(b byte) {
	c.Dispatcher.PushByte(b)
}

// Step runs one iteration of the main cooperative loop: services
// real-time flags, runs one step of any in-progress arc, polls one ready
// line if the planner ring has room, and runs one executor tick (fires one
// pulse, or loads the next prepared segment).
func (c *Controller) Step() {
	if c.Dispatcher.Flags.TakeSoftReset() {
		c.softReset()
		return
	}

	if c.Dispatcher.Flags.TakeFeedHold() {
		c.state = status.Hold
	}
	if c.Dispatcher.Flags.TakeCycleStart() && c.state == status.Hold {
		c.state = status.Run
	}

	if c.Dispatcher.Flags.TakeStatusRequested() {
		c.emit(c.statusReport())
	}

	if c.state != status.Hold {
		c.stepArc()
	}

	if c.state != status.Hold && c.Planner.Ring().Free() > 0 {
		if err := c.pollAndDispatchLine(); err != nil {
			logger.Logf("motion", "line error: %v", err)
		}
	}

	if c.state != status.Hold {
		c.stepExecutor()
	}

	if c.Executor.Alarmed() && c.state != status.Alarm {
		c.state = status.Alarm
		logger.Logf("motion", errors.ExecutorStallMsg)
		c.emit(status.ErrorResponse(errors.CodeErrorf(errors.ExecutorStall, errors.ExecutorStallMsg)))
	}
}

func (c *Controller) pollAndDispatchLine() error {
	if err, ok := c.Dispatcher.PollError(); ok {
		c.emit(status.ErrorResponse(err))
		return nil
	}

	line, ok := c.Dispatcher.PollLine()
	if !ok {
		return nil
	}

	if len(line) > 0 && line[0] == '$' {
		c.handleSystemCommand(line)
		return nil
	}

	from := c.Parser.State().CurrentPos()
	intent, err := c.Parser.ParseLine(line)
	if err != nil {
		c.emit(status.ErrorResponse(err))
		return nil
	}

	if intent.Kind == gcode.MotionNone {
		c.emit(status.Ok)
		return nil
	}

	if intent.Kind == gcode.MotionArcCW || intent.Kind == gcode.MotionArcCCW {
		gen, err := arc.New(from, intent, c.Settings.ArcToleranceMM())
		if err != nil {
			c.emit(status.ErrorResponse(err))
			return nil
		}
		c.activeArc = gen
		c.state = status.Run
		c.emit(status.Ok)
		return nil
	}

	if err := c.Planner.PlanBufferLine(intent, from); err != nil {
		c.emit(status.ErrorResponse(err))
		return nil
	}
	c.state = status.Run
	c.emit(status.Ok)
	return nil
}

func (c *Controller) stepArc() {
	if c.activeArc == nil {
		return
	}
	current := c.Parser.State().CurrentPos()
	chord, ok := c.activeArc.Next(current)
	if !ok {
		c.activeArc = nil
		return
	}
	_ = c.Planner.PlanBufferLine(chord, current)
	for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
		c.Parser.State().MachinePos[axis] = chord.Target[axis] - c.Parser.State().Offset[axis]
	}
}

// stepExecutor simulates one dominant-axis output-compare tick of the main
// loop: if a segment is already armed it fires the next pulse, otherwise it
// asks the preparer for the next one (a cooperative mapping of the
// dominant-axis ISR onto the main loop).
func (c *Controller) stepExecutor() {
	if c.Executor.StepsRemaining() > 0 {
		c.Executor.Pulse()
		return
	}

	// The companion is copied before Prepare, because emitting a block's
	// final segment discards that block from the ring.
	b := c.Planner.Ring().Tail()
	var companion *executor.Companion
	if b != nil {
		companion = &executor.Companion{
			Steps:          b.Steps,
			Dominant:       b.Dominant,
			StepEventCount: b.StepEventCount,
			DirectionBits:  b.DirectionBits,
		}
	}

	seg, ok := c.Preparer.Prepare()
	if !ok {
		if c.Planner.Ring().Len() == 0 {
			c.state = status.Idle
		}
		return
	}

	c.Executor.LoadSegment(seg, companion)
	if seg.NSteps > 0 {
		c.Executor.Pulse()
	}
}

func (c *Controller) handleSystemCommand(line string) {
	switch {
	case line == "$":
		c.emit(status.HelpText)
		c.emit(status.Ok)
	case line == "$$":
		for _, l := range status.DumpSettings(c.Settings.All()) {
			c.emit(l)
		}
		c.emit(status.Ok)
	case line == "$I":
		for _, l := range c.buildInfo.Lines() {
			c.emit(l)
		}
		c.emit(status.Ok)
	case line == "$G":
		c.emit(status.ParserStateLine(c.Parser.State()))
		c.emit(status.Ok)
	case line == "$#":
		for _, l := range status.CoordinateOffsetsLines(c.Parser.State()) {
			c.emit(l)
		}
		c.emit(status.Ok)
	case line == "$N":
		for _, l := range status.StartupLines() {
			c.emit(l)
		}
		c.emit(status.Ok)
	case line == "$H":
		status.Homing()
		c.emit(status.Ok)
	case len(line) > 1 && isSettingAssignment(line[1:]):
		id, value, err := status.ParseSettingCommand(line[1:])
		if err != nil {
			c.emit(status.ErrorResponse(err))
			return
		}
		if err := c.Settings.Set(id, value); err != nil {
			c.emit(status.ErrorResponse(err))
			return
		}
		c.emit(status.Ok)
	default:
		c.emit(status.ErrorResponse(errors.CodeErrorf(errors.MalformedSystemCommand, errors.MalformedSettingMsg, line)))
	}
}

func isSettingAssignment(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return true
		}
	}
	return false
}

func (c *Controller) statusReport() string {
	pos := c.executedPositionMM()
	return status.Report(status.Snapshot{
		State:        c.state,
		Position:     pos,
		FeedMMPerMin: c.Parser.State().Feed,
		SpindleRPM:   c.Parser.State().Speed,
		PlannerFree:  c.Planner.Ring().Free(),
		SegmentFree:  0,
	})
}

// executedPositionMM converts the executor's pulse-counted step position
// back to machine mm, so a status report reflects steps actually emitted
// rather than the parser's commanded target.
func (c *Controller) executedPositionMM() [kinematics.NumAxes]float64 {
	steps := c.Executor.PositionSteps()
	var pos [kinematics.NumAxes]float64
	for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
		pos[axis] = kinematics.MMFromSteps(axis, steps[axis], c.Settings)
	}
	return pos
}

func (c *Controller) emit(line string) {
	_, _ = c.port.Write([]byte(line + "\n"))
}

// softReset cancels everything: executor stops, preparer and
// planner clear, parser modal state resets, and a fresh welcome banner is
// emitted.
func (c *Controller) softReset() {
	c.Executor.Reset()
	c.Preparer.Reset()
	c.Planner.Reset()
	c.Parser.Reset()
	c.Dispatcher.Reset()
	c.activeArc = nil
	c.state = status.Idle
	c.emit(status.Welcome)
}

// Welcome emits the startup banner.
func (c *Controller) Welcome() {
	c.emit(status.Welcome)
}
