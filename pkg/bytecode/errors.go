package bytecode

import (
	"errors"
	"fmt"
)

// Fatal step errors. A Step that returns one of these (wrapped in a
// *StepError) has failed the whole function; register contents written
// before the failure are not meaningful.
var (
	ErrUninitializedState = errors.New("vm: uninitialized state")
	ErrIllegalInstruction = errors.New("vm: illegal instruction")
	ErrRunawayFunction    = errors.New("vm: runaway function")
	ErrDivisionByZero     = errors.New("vm: division by zero")
	ErrOutOfRangeIndex    = errors.New("vm: index out of range")
)

// ErrStepLimit is returned by Run when the step budget runs out before the
// function returns.
var ErrStepLimit = errors.New("vm: step limit exceeded")

// StepError reports a fatal condition raised while executing an instruction.
type StepError struct {
	Err      error       // One of the Err* sentinels
	Location Location    // Where the failing instruction was fetched from
	Word     Instruction // Raw instruction word (zero if never fetched)
	Detail   string      // Optional extra context
}

func (e *StepError) Error() string {
	if e.Err == ErrUninitializedState {
		return e.Err.Error()
	}
	msg := fmt.Sprintf("%v at %s", e.Err, e.Location)
	if e.Word != 0 || e.Err == ErrIllegalInstruction {
		msg += fmt.Sprintf(" [%08x]", uint32(e.Word))
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is one of the VM's fatal step errors.
func IsFatal(err error) bool {
	var se *StepError
	return errors.As(err, &se)
}
