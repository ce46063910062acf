// Package kinematics implements axis identity, the per-axis/global Settings
// table, and the steps<->mm conversions the rest of the pipeline depends on.
package kinematics

import "fmt"

// AxisID identifies one of the four machine axes.
type AxisID int

// The four axes this controller drives, in table/array order.
const (
	AxisX AxisID = iota
	AxisY
	AxisZ
	AxisA

	// NumAxes is the number of axes this controller supports. Every
	// per-axis array in the pipeline is exactly this long.
	NumAxes = 4
)

func (a AxisID) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	case AxisA:
		return "A"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// AxisFromLetter maps a G-code axis letter to an AxisID.
func AxisFromLetter(letter byte) (AxisID, bool) {
	switch letter {
	case 'X', 'x':
		return AxisX, true
	case 'Y', 'y':
		return AxisY, true
	case 'Z', 'z':
		return AxisZ, true
	case 'A', 'a':
		return AxisA, true
	default:
		return 0, false
	}
}
