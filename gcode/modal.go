package gcode

import (
	"fmt"

	"github.com/tindervale/motionfw/kinematics"
)

// Motion group values (the "Motion" modal group).
type MotionMode int

const (
	ModeRapid   MotionMode = iota // G0
	ModeFeed                      // G1
	ModeArcCW                     // G2
	ModeArcCCW                    // G3
	ModeCancel                    // G80
	ModeHomeG28                   // G28
	ModeHomeG30                   // G30
)

// Units modal group.
type Units int

const (
	UnitsMM Units = iota
	UnitsInch
)

// Distance modal group.
type Distance int

const (
	DistanceAbsolute Distance = iota
	DistanceIncremental
)

// SpindleState modal group (state only, no dynamics modelled).
type SpindleState int

const (
	SpindleOff SpindleState = iota
	SpindleCW
	SpindleCCW
)

// CoolantState modal group (state only; M7/M8 both latch on, M9 clears both).
type CoolantState struct {
	Mist  bool
	Flood bool
}

// State is the parser's modal state: every value that persists across
// lines until explicitly changed. Power-on defaults match Grbl's: G0 G54 G17
// G21 G90 G94 M5 M9 T0 F0 S0.
type State struct {
	Motion   MotionMode
	Units    Units
	Distance Distance
	Spindle  SpindleState
	Coolant  CoolantState

	Feed  float64
	Tool  int
	Speed float64

	// Offset is the G92 coordinate offset: CurrentPos = MachinePos + Offset.
	Offset [kinematics.NumAxes]float64

	// MachinePos is the last commanded position in unoffset machine mm.
	MachinePos [kinematics.NumAxes]float64
}

// NewState returns the power-on default modal state.
func NewState() *State {
	return &State{
		Motion:   ModeRapid,
		Units:    UnitsMM,
		Distance: DistanceAbsolute,
		Spindle:  SpindleOff,
	}
}

// Reset restores power-on defaults in place, for soft_reset handling.
func (s *State) Reset() {
	*s = *NewState()
}

// CurrentPos returns the offset-applied logical position.
func (s *State) CurrentPos() [kinematics.NumAxes]float64 {
	var p [kinematics.NumAxes]float64
	for i := range p {
		p[i] = s.MachinePos[i] + s.Offset[i]
	}
	return p
}

// GCodeLine renders the modal state the way "$G" reports it, eg.
// "G0 G54 G17 G21 G90 G94 M5 M9 T0 F0 S0".
func (s *State) GCodeLine() string {
	motion := map[MotionMode]string{
		ModeRapid: "G0", ModeFeed: "G1", ModeArcCW: "G2", ModeArcCCW: "G3",
		ModeCancel: "G80", ModeHomeG28: "G28", ModeHomeG30: "G30",
	}[s.Motion]

	units := "G21"
	if s.Units == UnitsInch {
		units = "G20"
	}
	distance := "G90"
	if s.Distance == DistanceIncremental {
		distance = "G91"
	}
	spindle := map[SpindleState]string{SpindleOff: "M5", SpindleCW: "M3", SpindleCCW: "M4"}[s.Spindle]

	coolant := "M9"
	switch {
	case s.Coolant.Mist && s.Coolant.Flood:
		coolant = "M7 M8"
	case s.Coolant.Mist:
		coolant = "M7"
	case s.Coolant.Flood:
		coolant = "M8"
	}

	return fmt.Sprintf("%s G54 G17 %s %s G94 %s %s T%d F%v S%v",
		motion, units, distance, spindle, coolant, s.Tool, s.Feed, s.Speed)
}
