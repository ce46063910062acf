// Package status implements status report formatting and
// the "$" system command family, plus the ok/error response protocol.
package status

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tindervale/motionfw/errors"
	"github.com/tindervale/motionfw/gcode"
	"github.com/tindervale/motionfw/kinematics"
)

// MachineState is the firmware's run state, reported in every status line.
// Only Idle, Run, Hold, and Alarm are reachable from this core.
type MachineState int

const (
	Idle MachineState = iota
	Run
	Hold
	Alarm
	Door
	Check
	Home
	Sleep
)

func (s MachineState) String() string {
	names := [...]string{"Idle", "Run", "Hold", "Alarm", "Door", "Check", "Home", "Sleep"}
	if int(s) < len(names) {
		return names[s]
	}
	return "Idle"
}

// Snapshot is the consistent, critical-section-sampled state a status
// report is formatted from: sampled under a brief critical section, then
// formatted without locking.
type Snapshot struct {
	State        MachineState
	Position     [kinematics.NumAxes]float64
	FeedMMPerMin float64
	SpindleRPM   float64
	PlannerFree  int
	SegmentFree  int
}

// Report renders one status line:
// "<State|MPos:x,y,z,a|FS:feed,speed|Bf:plan_free,seg_free>".
func Report(s Snapshot) string {
	return fmt.Sprintf("<%s|MPos:%.6f,%.6f,%.6f,%.6f|FS:%v,%v|Bf:%d,%d>",
		s.State,
		s.Position[kinematics.AxisX], s.Position[kinematics.AxisY], s.Position[kinematics.AxisZ], s.Position[kinematics.AxisA],
		s.FeedMMPerMin, s.SpindleRPM,
		s.PlannerFree, s.SegmentFree,
	)
}

// Welcome is emitted once on start and again after a soft_reset.
const Welcome = "Grbl 1.1f ['$' for help]"

// Ok is the response to an accepted line.
const Ok = "ok"

// ErrorResponse formats a rejected line's response. If err carries a numeric
// protocol code (errors.CodeOf), that code is used; otherwise code 1
// ("unsupported command") is the fallback, since an uncoded internal error
// reaching the protocol layer is itself a bug.
func ErrorResponse(err error) string {
	code, ok := errors.CodeOf(err)
	if !ok {
		code = errors.UnsupportedCommand
	}
	return fmt.Sprintf("error:%d", int(code))
}

// HelpText is the "$" response.
const HelpText = "$$ (settings), $# (offsets), $G (parser state), $I (build info), $N (startup lines), $H (homing)"

// BuildInfo is the "$I" response.
type BuildInfo struct {
	Version string
	Date    string
	Label   string
	Options string
}

// Lines renders BuildInfo's two bracketed lines.
func (b BuildInfo) Lines() []string {
	return []string{
		fmt.Sprintf("[VER:%s.%s:%s]", b.Version, b.Date, b.Label),
		fmt.Sprintf("[OPT:%s]", b.Options),
	}
}

// DumpSettings renders "$$": every setting as "$<id>=<value>", sorted by id.
func DumpSettings(all map[kinematics.SettingID]float64) []string {
	ids := make([]int, 0, len(all))
	for id := range all {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("$%d=%v", id, all[kinematics.SettingID(id)]))
	}
	return lines
}

// ParseSettingCommand parses a "$<id>=<value>" command. A malformed command
// (no "=", non-numeric id or value) yields MalformedSystemCommand.
func ParseSettingCommand(cmd string) (kinematics.SettingID, float64, error) {
	parts := strings.SplitN(cmd, "=", 2)
	if len(parts) != 2 {
		return 0, 0, errors.CodeErrorf(errors.MalformedSystemCommand, errors.MalformedSettingMsg, cmd)
	}

	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, errors.CodeErrorf(errors.MalformedSystemCommand, errors.MalformedSettingMsg, cmd)
	}

	value, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, errors.CodeErrorf(errors.MalformedSystemCommand, errors.MalformedSettingMsg, cmd)
	}

	return kinematics.SettingID(id), value, nil
}

// ParserStateLine renders "$G": "[GC:<modal line>]".
func ParserStateLine(state *gcode.State) string {
	return fmt.Sprintf("[GC:%s]", state.GCodeLine())
}

// CoordinateOffsetsLines renders "$#": the G92 offset, the only coordinate
// system this core models (others report as zero).
func CoordinateOffsetsLines(state *gcode.State) []string {
	o := state.Offset
	return []string{
		fmt.Sprintf("[G92:%.3f,%.3f,%.3f,%.3f]", o[kinematics.AxisX], o[kinematics.AxisY], o[kinematics.AxisZ], o[kinematics.AxisA]),
		"[G54:0.000,0.000,0.000,0.000]",
	}
}

// StartupLines renders "$N": this core stores none, so the list is empty.
func StartupLines() []string { return nil }

// Homing handles "$H": accepted, no-op.
func Homing() {}
