package errors

// Code is the numeric code surfaced to the serial protocol as "error:N",
// per the firmware's documented error taxonomy.
type Code int

// The firmware's error taxonomy. Numbering matches the protocol exactly —
// senders on the other end of the wire key off these values, so they must
// never be renumbered once released.
const (
	_ Code = iota
	UnsupportedCommand
	LetterWithoutValue
	MalformedSystemCommand
	SettingOutOfRange
	InvalidArcGeometry
	ModalGroupConflict
	LineOverflow
	UndefinedAxisTarget
	ZeroLengthMove
	InvalidGCodeWord
	ExecutorStall
	TransportFault
)

// codeNames gives the human-readable category each code belongs to, used by
// Code.String.
var codeNames = map[Code]string{
	UnsupportedCommand:     "unsupported command",
	LetterWithoutValue:     "letter without value",
	MalformedSystemCommand: "malformed $ command",
	SettingOutOfRange:      "setting out of range",
	InvalidArcGeometry:     "invalid arc geometry",
	ModalGroupConflict:     "modal group conflict",
	LineOverflow:           "line overflow",
	UndefinedAxisTarget:    "undefined axis target",
	ZeroLengthMove:         "zero-length move",
	InvalidGCodeWord:       "invalid g-code word",
	ExecutorStall:          "executor stall",
	TransportFault:         "transport error",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "unknown error"
}
