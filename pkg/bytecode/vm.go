package bytecode

import (
	"context"
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
)

// Status is the lifecycle position of a VM.
type Status int

const (
	StatusUninitialized Status = iota // no entry point set
	StatusRunning                     // Step may be called
	StatusHalted                      // function returned normally
	StatusFailed                      // a fatal error ended the run
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusRunning:
		return "running"
	case StatusHalted:
		return "halted"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is what a successful Step reports. Halted is true exactly once per
// completed function, on the return step, and Value then holds the
// returned register.
type Result struct {
	Halted bool
	Value  Word
}

// VM executes functions from a Program Image one instruction at a time.
// A VM is not safe for concurrent use.
type VM struct {
	image  *Image
	state  State
	status Status
	err    error

	steps    uint64
	maxSteps uint64

	log commonlog.Logger

	// Trace logs every executed instruction at debug level.
	Trace bool
}

// NewVM creates a VM over image. The VM owns the image until Close.
func NewVM(image *Image) *VM {
	return &VM{
		image: image,
		log:   commonlog.GetLogger("atto.vm"),
	}
}

// SetLogger replaces the VM's logger.
func (vm *VM) SetLogger(log commonlog.Logger) {
	if log == nil {
		log = commonlog.MOCK_LOGGER
	}
	vm.log = log
}

// SetMaxSteps bounds the number of steps a single Run call may take.
// Zero means unbounded.
func (vm *VM) SetMaxSteps(max uint64) {
	vm.maxSteps = max
}

// Image returns the image the VM executes.
func (vm *VM) Image() *Image { return vm.image }

// State exposes the execution state for inspection.
func (vm *VM) State() *State { return &vm.state }

// Status returns the lifecycle status.
func (vm *VM) Status() Status { return vm.status }

// Err returns the fatal error that ended the last run, if any.
func (vm *VM) Err() error { return vm.err }

// Steps returns the number of instructions fetched so far.
func (vm *VM) Steps() uint64 { return vm.steps }

// Enter sets the entry point. The function must exist and the instruction
// index must lie inside it; otherwise ErrOutOfRangeIndex is returned and
// the VM is left uninitialized. Registers and flags are not touched.
func (vm *VM) Enter(function, instruction uint32) error {
	vm.state.ClearLocation()
	vm.status = StatusUninitialized
	vm.err = nil

	fn, err := vm.image.Function(int(function))
	if err != nil {
		return err
	}
	if int(instruction) >= fn.Len() {
		return fmt.Errorf("%w: entry instruction %d (function %d has %d)",
			ErrOutOfRangeIndex, instruction, function, fn.Len())
	}
	vm.state.SetLocation(Location{Function: function, Instruction: instruction})
	vm.status = StatusRunning
	return nil
}

// Step fetches, decodes and executes one instruction, then advances the
// instruction pointer. Fatal conditions are returned as *StepError and
// move the VM to StatusFailed.
func (vm *VM) Step() (Result, error) {
	loc, ok := vm.state.Location()
	if !ok {
		return Result{}, vm.fail(&StepError{Err: ErrUninitializedState})
	}

	fn, err := vm.image.Function(int(loc.Function))
	if err != nil {
		return Result{}, vm.fail(&StepError{Err: ErrOutOfRangeIndex, Location: loc, Detail: err.Error()})
	}
	word, err := fn.Instruction(int(loc.Instruction))
	if err != nil {
		return Result{}, vm.fail(&StepError{Err: ErrRunawayFunction, Location: loc, Detail: err.Error()})
	}
	vm.steps++

	if vm.Trace && vm.log.AllowLevel(commonlog.Debug) {
		vm.log.Debug("step",
			"function", loc.Function,
			"instruction", loc.Instruction,
			"word", fmt.Sprintf("%08x", uint32(word)),
			"flags", vm.state.Flags.String(),
			"op", word.String())
	}

	regs := &vm.state.Registers
	d := word.Decode()
	next := uint64(loc.Instruction) + 1

	switch d.Op {
	case OpMove:
		regs[d.A] = regs[d.B]

	case OpLoad:
		c, err := fn.Constant(int(d.B))
		if err != nil {
			return Result{}, vm.fail(&StepError{Err: ErrOutOfRangeIndex, Location: loc, Word: word, Detail: err.Error()})
		}
		regs[d.A] = c

	case OpAdd:
		regs[d.A] = regs[d.B] + regs[d.C]

	case OpSub:
		regs[d.A] = regs[d.B] - regs[d.C]

	case OpMul:
		regs[d.A] = regs[d.B] * regs[d.C]

	case OpDiv:
		if regs[d.C] == 0 {
			return Result{}, vm.fail(&StepError{Err: ErrDivisionByZero, Location: loc, Word: word,
				Detail: fmt.Sprintf("r%d is zero", d.C)})
		}
		regs[d.A] = regs[d.B] / regs[d.C]

	case OpJmp:
		target, err := fn.Constant(int(d.A))
		if err != nil {
			return Result{}, vm.fail(&StepError{Err: ErrOutOfRangeIndex, Location: loc, Word: word, Detail: err.Error()})
		}
		next = uint64(target)

	case OpCjmp:
		// Full byte equality, not "any bit set".
		if vm.state.Flags == Flags(d.B) {
			target, err := fn.Constant(int(d.A))
			if err != nil {
				return Result{}, vm.fail(&StepError{Err: ErrOutOfRangeIndex, Location: loc, Word: word, Detail: err.Error()})
			}
			next = uint64(target)
		}

	case OpTest:
		vm.state.Flags = Compare(regs[d.A], regs[d.B])

	case OpReturn:
		value := regs[d.A]
		vm.state.ClearLocation()
		vm.status = StatusHalted
		vm.log.Info("returned",
			"function", loc.Function,
			"value", fmt.Sprintf("0x%016x", uint64(value)))
		return Result{Halted: true, Value: value}, nil

	default:
		return Result{}, vm.fail(&StepError{Err: ErrIllegalInstruction, Location: loc, Word: word,
			Detail: fmt.Sprintf("opcode 0x%02x", byte(d.Op))})
	}

	if next >= uint64(fn.Len()) {
		return Result{}, vm.fail(&StepError{Err: ErrRunawayFunction, Location: loc, Word: word,
			Detail: fmt.Sprintf("next instruction %d, function has %d", next, fn.Len())})
	}
	vm.state.SetLocation(Location{Function: loc.Function, Instruction: uint32(next)})
	return Result{}, nil
}

// Run steps until the current function returns, a fatal error occurs, ctx
// is done or the step limit is reached. Cancellation and the step limit
// only take effect between instructions and leave the VM running, so a
// later Run resumes where this one stopped.
func (vm *VM) Run(ctx context.Context) (Word, error) {
	var taken uint64
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if vm.maxSteps > 0 && taken >= vm.maxSteps {
			return 0, fmt.Errorf("%w (%d)", ErrStepLimit, vm.maxSteps)
		}
		res, err := vm.Step()
		taken++
		if err != nil {
			return 0, err
		}
		if res.Halted {
			return res.Value, nil
		}
	}
}

// Close releases the image. The VM cannot be entered again afterwards.
func (vm *VM) Close() {
	vm.image.Release()
	vm.image = nil
	if vm.status == StatusRunning {
		vm.status = StatusUninitialized
	}
	vm.state.ClearLocation()
}

// fail records a fatal error and leaves the VM without a control location.
func (vm *VM) fail(e *StepError) error {
	vm.state.ClearLocation()
	vm.status = StatusFailed
	vm.err = e
	if !errors.Is(e, ErrUninitializedState) {
		vm.log.Error("fatal error",
			"error", e.Err.Error(),
			"location", e.Location.String(),
			"word", fmt.Sprintf("%08x", uint32(e.Word)))
	} else {
		vm.log.Error("fatal error", "error", e.Err.Error())
	}
	return e
}
