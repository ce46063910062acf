package kinematics

import "math"

// StepsFromMM converts a millimetre distance on axis into a signed step
// count, rounding half-to-even so that repeated conversions of values that
// land exactly on a half-step do not accumulate a directional bias.
func StepsFromMM(axis AxisID, mm float64, s *Settings) int32 {
	perMM := s.StepsPerMM(axis)
	return int32(math.RoundToEven(mm * perMM))
}

// MMFromSteps converts a signed step count on axis back into millimetres.
func MMFromSteps(axis AxisID, steps int32, s *Settings) float64 {
	perMM := s.StepsPerMM(axis)
	if perMM == 0 {
		return 0
	}
	return float64(steps) / perMM
}
