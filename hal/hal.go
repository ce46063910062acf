// Package hal names the hardware primitives the step executor consumes,
// abstracted the way the rest of the corpus abstracts peripheral access
// (register-level drivers behind small Go interfaces, eg. the TMC5160 and
// RP2040 PIO stepper backends this package's simulator is modelled on).
package hal

// Timer is a programmable-period hardware timer with a period-match
// callback, the executor's basic tick source.
type Timer interface {
	Start()
	Stop()
	SetPeriod(ticks uint32)
}

// OutputCompare is one axis's dual-compare step-pulse unit: a rising edge at
// PrimaryCompare ticks, a falling edge at SecondaryCompare ticks, either
// free-running (subsequent pulses) or one-shot (subordinate pulses).
type OutputCompare interface {
	Enable()
	Disable()
	SetPrimaryCompare(ticks uint32)
	SetSecondaryCompare(ticks uint32)
	// ArmOneShot enables the unit for exactly one pulse; it disables itself
	// on the falling edge (the "Sub -> Sub" auto-disable case).
	ArmOneShot()
}

// Gpio is a single direction or driver-enable pin.
type Gpio interface {
	Set(high bool)
	Get() bool
}

// ClockHz is the constant tick rate the Timer/OutputCompare ticks are
// counted in.
const ClockHz = 1_500_000
