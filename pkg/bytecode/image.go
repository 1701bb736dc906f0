package bytecode

import (
	"errors"
	"fmt"
)

// Image is a Program Image: a dense, zero-indexed collection of functions
// owned as a whole for the lifetime of a run.
type Image struct {
	functions []*Function
}

// NewImage reserves n empty function slots.
func NewImage(n int) *Image {
	if n < 0 {
		n = 0
	}
	return &Image{functions: make([]*Function, n)}
}

// NewImageFromFunctions builds an image whose slots hold fns in order.
func NewImageFromFunctions(fns ...*Function) *Image {
	img := NewImage(len(fns))
	copy(img.functions, fns)
	return img
}

// Len returns the number of function slots.
func (img *Image) Len() int {
	if img == nil {
		return 0
	}
	return len(img.functions)
}

// SetFunction places fn in slot index.
func (img *Image) SetFunction(index int, fn *Function) error {
	if index < 0 || index >= img.Len() {
		return fmt.Errorf("%w: function slot %d (image has %d)", ErrOutOfRangeIndex, index, img.Len())
	}
	img.functions[index] = fn
	return nil
}

// Function returns the function in slot index. Empty slots are reported as
// out of range.
func (img *Image) Function(index int) (*Function, error) {
	if index < 0 || index >= img.Len() {
		return nil, fmt.Errorf("%w: function %d (image has %d)", ErrOutOfRangeIndex, index, img.Len())
	}
	fn := img.functions[index]
	if fn == nil {
		return nil, fmt.Errorf("%w: function slot %d is empty", ErrOutOfRangeIndex, index)
	}
	return fn, nil
}

// Functions returns the slots in order. Empty slots are nil.
func (img *Image) Functions() []*Function {
	if img == nil {
		return nil
	}
	return img.functions
}

// Release drops every function and then the slot index. A released image
// has zero slots.
func (img *Image) Release() {
	if img == nil {
		return
	}
	for i := range img.functions {
		img.functions[i] = nil
	}
	img.functions = nil
}

// Validate statically checks every function for undefined opcodes,
// constant indices past the pool and jump targets past the last
// instruction. It returns all problems joined, or nil.
func (img *Image) Validate() error {
	var errs []error
	for fi, fn := range img.Functions() {
		if fn == nil {
			errs = append(errs, fmt.Errorf("function %d: %w: empty slot", fi, ErrOutOfRangeIndex))
			continue
		}
		if len(fn.Instructions) == 0 {
			errs = append(errs, fmt.Errorf("function %d: %w: no instructions", fi, ErrRunawayFunction))
		}
		for ii, ins := range fn.Instructions {
			if err := validateInstruction(fn, ins); err != nil {
				errs = append(errs, fmt.Errorf("function %d, instruction %d (%s): %w", fi, ii, ins, err))
			}
		}
	}
	return errors.Join(errs...)
}

func validateInstruction(fn *Function, ins Instruction) error {
	d := ins.Decode()
	info, ok := GetOpcodeInfo(d.Op)
	if !ok {
		return ErrIllegalInstruction
	}
	fields := [3]uint8{d.A, d.B, d.C}
	for n, kind := range info.Operands {
		if kind != OperandConstant {
			continue
		}
		target, err := fn.Constant(int(fields[n]))
		if err != nil {
			return err
		}
		if d.Op.IsJump() && target >= Word(len(fn.Instructions)) {
			return fmt.Errorf("%w: jump target %d", ErrRunawayFunction, uint64(target))
		}
	}
	return nil
}
