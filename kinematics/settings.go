package kinematics

import (
	"math"
	"sync"

	"github.com/tindervale/motionfw/errors"
)

// SettingID names one persisted, process-wide setting, keyed exactly as the
// serial protocol's "$n=v" command names it.
type SettingID int

// The settings this core reads. Per-axis settings are laid out as a base ID
// plus AxisID, eg. StepsPerMMBase+AxisZ is "$102".
const (
	SettingJunctionDeviation SettingID = 11
	SettingArcTolerance      SettingID = 12

	StepsPerMMBase SettingID = 100
	MaxRateBase    SettingID = 110
	MaxAccelBase   SettingID = 120
	MaxTravelBase  SettingID = 130
)

// StepsPerMMID, MaxRateID, MaxAccelID and MaxTravelID return the SettingID
// for a given axis's member of the corresponding per-axis setting family.
func StepsPerMMID(axis AxisID) SettingID { return StepsPerMMBase + SettingID(axis) }
func MaxRateID(axis AxisID) SettingID    { return MaxRateBase + SettingID(axis) }
func MaxAccelID(axis AxisID) SettingID   { return MaxAccelBase + SettingID(axis) }
func MaxTravelID(axis AxisID) SettingID  { return MaxTravelBase + SettingID(axis) }

// Defaults are the compile-time safety net: belt-driven
// axes default to 80 steps/mm, lead-screw axes to 1280. X/Y are modelled as
// belt axes, Z/A as lead-screw, which is the conventional desktop-CNC
// arrangement and the only place this number is written down — every other
// reference to a default goes through Defaults() so the two documented
// candidate values (64 vs 80) can never drift
// out of sync with each other.
func Defaults() [NumAxes]float64 {
	return [NumAxes]float64{
		AxisX: 80,
		AxisY: 80,
		AxisZ: 1280,
		AxisA: 1280,
	}
}

const (
	defaultMaxRateMMPerMin     = 3000
	defaultMaxAccelMMPerS2     = 100
	defaultMaxTravelMM         = 0
	defaultJunctionDeviationMM = 0.01
	defaultArcToleranceMM      = 0.002
)

// Store is the narrow persistence interface Settings depends on. The
// disk-backed implementation lives in the settingsdisk package (built on
// prefs.Disk + prefs.Float); Settings never imports that concern directly, only this
// interface, treating persistent storage as an
// external collaborator.
type Store interface {
	Get(id SettingID) (float64, bool)
	Set(id SettingID, value float64) error
	All() map[SettingID]float64
}

// Settings is the in-memory, process-wide settings table. Only
// subsequently planned blocks see a changed setting, since the pipeline
// reads it at block-planning time — readers that need to detect an
// in-flight change consult Generation().
type Settings struct {
	mu         sync.RWMutex
	store      Store
	generation uint64
}

// NewSettings loads the table from store, falling back to compile-time
// defaults for any setting missing or out of range.
func NewSettings(store Store) *Settings {
	s := &Settings{store: store}
	s.applyDefaults()
	return s
}

func (s *Settings) applyDefaults() {
	defaults := Defaults()
	for axis := AxisID(0); axis < NumAxes; axis++ {
		s.setIfMissingOrInvalid(StepsPerMMID(axis), defaults[axis], isPositive)
		s.setIfMissingOrInvalid(MaxRateID(axis), defaultMaxRateMMPerMin, isPositive)
		s.setIfMissingOrInvalid(MaxAccelID(axis), defaultMaxAccelMMPerS2, isPositive)
		s.setIfMissingOrInvalid(MaxTravelID(axis), defaultMaxTravelMM, isNonNegative)
	}
	s.setIfMissingOrInvalid(SettingJunctionDeviation, defaultJunctionDeviationMM, isNonNegative)
	s.setIfMissingOrInvalid(SettingArcTolerance, defaultArcToleranceMM, isPositive)
}

func (s *Settings) setIfMissingOrInvalid(id SettingID, fallback float64, valid func(float64) bool) {
	if v, ok := s.store.Get(id); ok && valid(v) {
		return
	}
	_ = s.store.Set(id, fallback)
}

func isPositive(v float64) bool    { return v > 0 }
func isNonNegative(v float64) bool { return v >= 0 }

// Get returns a setting's current value. Every access returns a finite
// value: if the store somehow holds an invalid value the
// compile-time default is substituted and re-persisted.
func (s *Settings) Get(id SettingID) float64 {
	s.mu.RLock()
	v, ok := s.store.Get(id)
	s.mu.RUnlock()
	if ok && !math.IsNaN(v) && !math.IsInf(v, 0) && validate(id, v) == nil {
		return v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fallback := fallbackFor(id)
	_ = s.store.Set(id, fallback)
	return fallback
}

func fallbackFor(id SettingID) float64 {
	if id == SettingJunctionDeviation {
		return defaultJunctionDeviationMM
	}
	if id == SettingArcTolerance {
		return defaultArcToleranceMM
	}
	defaults := Defaults()
	for axis := AxisID(0); axis < NumAxes; axis++ {
		switch id {
		case StepsPerMMID(axis):
			return defaults[axis]
		case MaxRateID(axis):
			return defaultMaxRateMMPerMin
		case MaxAccelID(axis):
			return defaultMaxAccelMMPerS2
		case MaxTravelID(axis):
			return defaultMaxTravelMM
		}
	}
	return 0
}

// Set range-checks and persists value under id, bumping the generation
// counter so in-flight readers can detect the change.
func (s *Settings) Set(id SettingID, value float64) error {
	if err := validate(id, value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(id, value); err != nil {
		return errors.CodeErrorf(errors.SettingOutOfRange, errors.SettingsDisk, err)
	}
	s.generation++
	return nil
}

func validate(id SettingID, value float64) error {
	switch {
	case id == SettingJunctionDeviation || id == SettingArcTolerance:
		if id == SettingArcTolerance && value <= 0 {
			return errors.CodeErrorf(errors.SettingOutOfRange, errors.SettingOutOfRangeMsg, id, value)
		}
		if id == SettingJunctionDeviation && value < 0 {
			return errors.CodeErrorf(errors.SettingOutOfRange, errors.SettingOutOfRangeMsg, id, value)
		}
	case isPerAxisTravel(id):
		if value < 0 {
			return errors.CodeErrorf(errors.SettingOutOfRange, errors.SettingOutOfRangeMsg, id, value)
		}
	case isPerAxis(id):
		if value <= 0 {
			return errors.CodeErrorf(errors.SettingOutOfRange, errors.SettingOutOfRangeMsg, id, value)
		}
	default:
		return errors.CodeErrorf(errors.SettingOutOfRange, errors.UnknownSettingIDMsg, id)
	}
	return nil
}

func isPerAxisTravel(id SettingID) bool {
	return id >= MaxTravelBase && id < MaxTravelBase+NumAxes
}

func isPerAxis(id SettingID) bool {
	bases := []SettingID{StepsPerMMBase, MaxRateBase, MaxAccelBase}
	for _, base := range bases {
		if id >= base && id < base+NumAxes {
			return true
		}
	}
	return false
}

// All returns a snapshot of every persisted setting.
func (s *Settings) All() map[SettingID]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.All()
}

// Generation returns a counter that increments on every successful Set. The
// planner samples this once per block at plan time; a change observed
// between samples never retroactively changes an in-flight block.
func (s *Settings) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Convenience accessors used throughout the pipeline.

func (s *Settings) StepsPerMM(axis AxisID) float64      { return s.Get(StepsPerMMID(axis)) }
func (s *Settings) MaxRateMMPerMin(axis AxisID) float64 { return s.Get(MaxRateID(axis)) }
func (s *Settings) MaxAccelMMPerS2(axis AxisID) float64 { return s.Get(MaxAccelID(axis)) }
func (s *Settings) MaxTravelMM(axis AxisID) float64     { return s.Get(MaxTravelID(axis)) }
func (s *Settings) JunctionDeviationMM() float64        { return s.Get(SettingJunctionDeviation) }
func (s *Settings) ArcToleranceMM() float64             { return s.Get(SettingArcTolerance) }
