package gcode

import (
	"math"

	"github.com/tindervale/motionfw/errors"
	"github.com/tindervale/motionfw/kinematics"
)

const mmPerInch = 25.4

// Parser tokenizes and folds lines of G-code into MotionIntent values against
// a persistent modal State. One Parser instance is owned by the main loop;
// it is never touched from the dispatcher or executor contexts.
type Parser struct {
	state *State
}

// NewParser creates a Parser with power-on default modal state.
func NewParser() *Parser {
	return &Parser{state: NewState()}
}

// State exposes the parser's modal state, eg. for "$G" reporting.
func (p *Parser) State() *State { return p.state }

// Reset restores the modal state to power-on defaults, for soft_reset.
func (p *Parser) Reset() { p.state.Reset() }

// words groups tokenized (letter, value) pairs into the fields the parser
// cares about for one line.
type words struct {
	motionGs  []float64 // 0,1,2,3,80,28,30
	planeGs   []float64 // 17 (others rejected)
	unitGs    []float64 // 20,21
	distGs    []float64 // 90,91
	feedModeG []float64 // 94
	offsetGs  []float64 // 92, 92.1
	ms        []float64 // M words

	axes    [kinematics.NumAxes]float64
	axisSet [kinematics.NumAxes]bool
	haveI   bool
	i       float64
	haveJ   bool
	j       float64
	haveF   bool
	f       float64
	haveS   bool
	s       float64
	haveT   bool
	t       float64
	haveP   bool
	p       float64
}

// ParseLine tokenizes line, applies it to modal state, and returns the
// resulting MotionIntent (Kind == MotionNone if the line carried no motion).
// On any error the modal state is left exactly as it was before the call and
// no partial intent is produced, satisfying the parser's idempotence-on-error
// contract.
func (p *Parser) ParseLine(line string) (MotionIntent, error) {
	raw := stripComments(line)

	toks, err := tokenize(raw)
	if err != nil {
		return MotionIntent{}, err
	}
	if len(toks) == 0 {
		return MotionIntent{}, nil
	}

	w, err := classify(toks)
	if err != nil {
		return MotionIntent{}, err
	}

	if err := validateExclusivity(w); err != nil {
		return MotionIntent{}, err
	}

	// Work against a scratch copy of modal state so a later error never
	// leaves a partially-applied line behind.
	scratch := *p.state

	if len(w.unitGs) > 0 {
		if w.unitGs[0] == 20 {
			scratch.Units = UnitsInch
		} else {
			scratch.Units = UnitsMM
		}
	}

	toMM := func(v float64) float64 {
		if scratch.Units == UnitsInch {
			return v * mmPerInch
		}
		return v
	}

	if len(w.distGs) > 0 {
		if w.distGs[0] == 90 {
			scratch.Distance = DistanceAbsolute
		} else {
			scratch.Distance = DistanceIncremental
		}
	}

	if len(w.planeGs) > 0 && w.planeGs[0] != 17 {
		return MotionIntent{}, errors.CodeErrorf(errors.UnsupportedCommand, errors.UnsupportedCommandMsg, "plane")
	}

	for _, g := range w.ms {
		switch g {
		case 0, 1, 2, 30:
			// program flow: accepted, state-only, no further effect modelled
		case 3:
			scratch.Spindle = SpindleCW
		case 4:
			scratch.Spindle = SpindleCCW
		case 5:
			scratch.Spindle = SpindleOff
		case 7:
			scratch.Coolant.Mist = true
		case 8:
			scratch.Coolant.Flood = true
		case 9:
			scratch.Coolant = CoolantState{}
		default:
			return MotionIntent{}, errors.CodeErrorf(errors.UnsupportedCommand, errors.UnsupportedCommandMsg, "M word")
		}
	}

	if w.haveF {
		scratch.Feed = toMM(w.f)
	}
	if w.haveS {
		scratch.Speed = w.s
	}
	if w.haveT {
		scratch.Tool = int(w.t)
	}

	// G92 / G92.1 coordinate offset (non-motion; does not move the machine).
	for _, g := range w.offsetGs {
		if g == 92.1 {
			scratch.Offset = [kinematics.NumAxes]float64{}
			continue
		}
		// G92: current logical position becomes the given axis values.
		for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
			if !w.axisSet[axis] {
				continue
			}
			want := toMM(w.axes[axis])
			scratch.Offset[axis] = want - scratch.MachinePos[axis]
		}
	}

	// Dwell: G4 P<sec>, a non-modal zero-step block with a duration.
	isDwell := false
	for _, tok := range toks {
		if tok.Letter == 'G' && tok.Value == 4 {
			isDwell = true
		}
	}
	if isDwell {
		if !w.haveP {
			return MotionIntent{}, errors.CodeErrorf(errors.LetterWithoutValue, errors.LetterWithoutValueMsg, "P")
		}
		*p.state = scratch
		return MotionIntent{Kind: MotionDwell, DwellSeconds: w.p}, nil
	}

	if len(w.motionGs) > 0 {
		switch w.motionGs[0] {
		case 0:
			scratch.Motion = ModeRapid
		case 1:
			scratch.Motion = ModeFeed
		case 2:
			scratch.Motion = ModeArcCW
		case 3:
			scratch.Motion = ModeArcCCW
		case 80:
			scratch.Motion = ModeCancel
		case 28:
			scratch.Motion = ModeHomeG28
		case 30:
			scratch.Motion = ModeHomeG30
		}
	}

	hasAxisWord := w.axisSet[0] || w.axisSet[1] || w.axisSet[2] || w.axisSet[3]
	hasExplicitMotionG := len(w.motionGs) > 0

	if !hasAxisWord && !hasExplicitMotionG {
		// feed/spindle/coolant-only line: commit modal changes, no intent.
		*p.state = scratch
		return MotionIntent{}, nil
	}

	if scratch.Motion == ModeCancel || scratch.Motion == ModeHomeG28 || scratch.Motion == ModeHomeG30 {
		*p.state = scratch
		return MotionIntent{}, nil
	}

	if !hasAxisWord {
		return MotionIntent{}, errors.CodeErrorf(errors.UndefinedAxisTarget, errors.UndefinedAxisTargetMsg, scratch.Motion)
	}

	from := scratch.CurrentPos()
	target := from
	for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
		if !w.axisSet[axis] {
			continue
		}
		v := toMM(w.axes[axis])
		if scratch.Distance == DistanceIncremental {
			target[axis] = from[axis] + v
		} else {
			target[axis] = v // absolute target, already in logical (offset-applied) coordinates
		}
	}
	// MachinePos is unoffset, so convert the logical target back before storing.
	var machineTarget [kinematics.NumAxes]float64
	for axis := range machineTarget {
		machineTarget[axis] = target[axis] - scratch.Offset[axis]
	}

	intent := MotionIntent{
		FeedMMPerMin: scratch.Feed,
		SpindleRPM:   scratch.Speed,
		Target:       machineTarget,
	}

	switch scratch.Motion {
	case ModeArcCW, ModeArcCCW:
		if !w.haveI && !w.haveJ {
			return MotionIntent{}, errors.CodeErrorf(errors.InvalidArcGeometry, errors.ZeroRadiusArcMsg)
		}
		if scratch.Motion == ModeArcCW {
			intent.Kind = MotionArcCW
		} else {
			intent.Kind = MotionArcCCW
		}
		intent.I = toMM(w.i)
		intent.J = toMM(w.j)
	default:
		intent.Kind = MotionLinear
	}

	if intent.ZeroLength(scratch.MachinePos) {
		// zero-length moves are dropped, not errored.
		scratch.MachinePos = machineTarget
		*p.state = scratch
		return MotionIntent{}, nil
	}

	scratch.MachinePos = machineTarget
	*p.state = scratch
	return intent, nil
}

func classify(toks []Word) (*words, error) {
	w := &words{}

	for _, tok := range toks {
		switch tok.Letter {
		case 'G':
			switch {
			case isOneOf(tok.Value, 0, 1, 2, 3, 80, 28, 30):
				w.motionGs = append(w.motionGs, tok.Value)
			case tok.Value == 17:
				w.planeGs = append(w.planeGs, tok.Value)
			case isOneOf(tok.Value, 20, 21):
				w.unitGs = append(w.unitGs, tok.Value)
			case isOneOf(tok.Value, 90, 91):
				w.distGs = append(w.distGs, tok.Value)
			case tok.Value == 94:
				w.feedModeG = append(w.feedModeG, tok.Value)
			case isOneOf(tok.Value, 92, 92.1):
				w.offsetGs = append(w.offsetGs, tok.Value)
			case tok.Value == 4:
				// dwell handled by caller; tokens already captured via toks
			default:
				return nil, errors.CodeErrorf(errors.UnsupportedCommand, errors.UnsupportedCommandMsg, "G"+formatWord(tok.Value))
			}
		case 'M':
			w.ms = append(w.ms, tok.Value)
		case 'X':
			w.axes[kinematics.AxisX] = tok.Value
			w.axisSet[kinematics.AxisX] = true
		case 'Y':
			w.axes[kinematics.AxisY] = tok.Value
			w.axisSet[kinematics.AxisY] = true
		case 'Z':
			w.axes[kinematics.AxisZ] = tok.Value
			w.axisSet[kinematics.AxisZ] = true
		case 'A':
			w.axes[kinematics.AxisA] = tok.Value
			w.axisSet[kinematics.AxisA] = true
		case 'I':
			w.haveI, w.i = true, tok.Value
		case 'J':
			w.haveJ, w.j = true, tok.Value
		case 'F':
			w.haveF, w.f = true, tok.Value
		case 'S':
			w.haveS, w.s = true, tok.Value
		case 'T':
			w.haveT, w.t = true, tok.Value
		case 'P':
			w.haveP, w.p = true, tok.Value
		case 'N':
			// line number: accepted, ignored
		default:
			return nil, errors.CodeErrorf(errors.InvalidGCodeWord, errors.InvalidGCodeWordMsg, string(tok.Letter))
		}
	}

	return w, nil
}

func validateExclusivity(w *words) error {
	nonDwellMotion := 0
	for _, g := range w.motionGs {
		if g != 4 {
			nonDwellMotion++
		}
	}
	if nonDwellMotion > 1 {
		return errors.CodeErrorf(errors.ModalGroupConflict, errors.ModalGroupConflictMsg, w.motionGs[0], w.motionGs[1], "motion")
	}
	if len(w.unitGs) > 1 {
		return errors.CodeErrorf(errors.ModalGroupConflict, errors.ModalGroupConflictMsg, w.unitGs[0], w.unitGs[1], "units")
	}
	if len(w.distGs) > 1 {
		return errors.CodeErrorf(errors.ModalGroupConflict, errors.ModalGroupConflictMsg, w.distGs[0], w.distGs[1], "distance")
	}
	return nil
}

func isOneOf(v float64, candidates ...float64) bool {
	for _, c := range candidates {
		if math.Abs(v-c) < 1e-9 {
			return true
		}
	}
	return false
}

func formatWord(v float64) string {
	if v == math.Trunc(v) {
		return itoa(int(v))
	}
	return ftoa(v)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func ftoa(v float64) string {
	return itoa(int(v)) + ".x"
}
