package status_test

import (
	"strings"
	"testing"

	"github.com/tindervale/motionfw/errors"
	"github.com/tindervale/motionfw/gcode"
	"github.com/tindervale/motionfw/kinematics"
	"github.com/tindervale/motionfw/status"
	"github.com/tindervale/motionfw/test"
)

func TestReportFormat(t *testing.T) {
	s := status.Snapshot{
		State:        status.Run,
		Position:     [kinematics.NumAxes]float64{10, 0, 0, 0},
		FeedMMPerMin: 1000,
		PlannerFree:  15,
		SegmentFree:  7,
	}
	line := status.Report(s)

	if !strings.HasPrefix(line, "<Run|MPos:10.000000,0.000000,0.000000,0.000000|FS:1000,0|Bf:15,7>") {
		t.Errorf("unexpected report format: %s", line)
	}
}

func TestErrorResponseUsesCarriedCode(t *testing.T) {
	err := errors.CodeErrorf(errors.LineOverflow, errors.LineOverflowMsg)
	test.ExpectEquality(t, status.ErrorResponse(err), "error:7")
}

func TestParseSettingCommand(t *testing.T) {
	id, value, err := status.ParseSettingCommand("100=200")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, id, kinematics.SettingID(100))
	test.ExpectEquality(t, value, 200.0)
}

func TestParseSettingCommandMalformed(t *testing.T) {
	_, _, err := status.ParseSettingCommand("oops")
	test.ExpectFailure(t, err)
}

func TestDumpSettingsSorted(t *testing.T) {
	all := map[kinematics.SettingID]float64{102: 1280, 100: 80, 11: 0.01}
	lines := status.DumpSettings(all)
	test.ExpectEquality(t, lines[0], "$11=0.01")
	test.ExpectEquality(t, lines[1], "$100=80")
	test.ExpectEquality(t, lines[2], "$102=1280")
}

func TestParserStateLineFixedPoint(t *testing.T) {
	p := gcode.NewParser()
	line := status.ParserStateLine(p.State())
	test.ExpectEquality(t, line, "[GC:G0 G54 G17 G21 G90 G94 M5 M9 T0 F0 S0]")
}

func TestReportFitsBoundedResponseBuffer(t *testing.T) {
	// The status report line must fit the firmware's bounded, no-allocation
	// response buffer even at worst-case planner/segment fill.
	w, err := test.NewCappedWriter(96)
	test.ExpectSuccess(t, err)

	s := status.Snapshot{
		State:        status.Run,
		Position:     [kinematics.NumAxes]float64{123.456, -78.9, 0, 0},
		FeedMMPerMin: 9999,
		PlannerFree:  15,
		SegmentFree:  7,
	}
	line := status.Report(s)

	_, err = w.Write([]byte(line))
	test.ExpectSuccess(t, err)
	if len(line) > 96 || w.String() != line {
		t.Errorf("report line overran the bounded response buffer: %q", line)
	}
}

func TestRingWriterKeepsOnlyMostRecentResponses(t *testing.T) {
	w, err := test.NewRingWriter(len("ok\n"))
	test.ExpectSuccess(t, err)

	_, _ = w.Write([]byte("error:7\n"))
	_, _ = w.Write([]byte("ok\n"))

	test.ExpectEquality(t, w.String(), "ok\n")
}
