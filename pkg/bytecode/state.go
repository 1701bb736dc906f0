package bytecode

import "fmt"

// RegisterCount is the size of the register file. Register operands are
// 8-bit, so every encodable register index is in range.
const RegisterCount = 256

// Location addresses one instruction in an image.
type Location struct {
	Function    uint32
	Instruction uint32
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%04x", l.Function, l.Instruction)
}

// State is the live execution state of one VM: the register file, the
// current control location and the condition flags.
//
// The control location is only meaningful while Running reports true;
// there is no numeric "unset" value.
type State struct {
	Registers [RegisterCount]Word
	Flags     Flags

	at      Location
	running bool
}

// Running reports whether a control location is set.
func (s *State) Running() bool {
	return s.running
}

// Location returns the current control location and whether it is set.
func (s *State) Location() (Location, bool) {
	return s.at, s.running
}

// SetLocation sets the control location and marks the state running.
func (s *State) SetLocation(loc Location) {
	s.at = loc
	s.running = true
}

// ClearLocation returns the state to "not running". Registers and flags
// are left as they are.
func (s *State) ClearLocation() {
	s.at = Location{}
	s.running = false
}

// Reset zeroes registers and flags and clears the location.
func (s *State) Reset() {
	*s = State{}
}
