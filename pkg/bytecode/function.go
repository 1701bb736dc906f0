package bytecode

import "fmt"

// Function is an immutable unit of compiled code: a constant pool and an
// instruction sequence. Constants serve both as literal operands (load) and
// as absolute jump targets (jmp, cjmp).
type Function struct {
	// ArgumentCount is carried for a calling convention that the current
	// instruction set does not exercise.
	ArgumentCount uint32
	Constants     []Word
	Instructions  []Instruction
}

// NewFunction allocates a zeroed function with exactly the given sizes.
// The counts are trusted.
func NewFunction(arguments, constants, instructions uint32) *Function {
	return &Function{
		ArgumentCount: arguments,
		Constants:     make([]Word, constants),
		Instructions:  make([]Instruction, instructions),
	}
}

// Constant returns the constant at index, or ErrOutOfRangeIndex.
func (f *Function) Constant(index int) (Word, error) {
	if index < 0 || index >= len(f.Constants) {
		return 0, fmt.Errorf("%w: constant %d (pool has %d)", ErrOutOfRangeIndex, index, len(f.Constants))
	}
	return f.Constants[index], nil
}

// Instruction returns the instruction at index, or ErrOutOfRangeIndex.
func (f *Function) Instruction(index int) (Instruction, error) {
	if index < 0 || index >= len(f.Instructions) {
		return 0, fmt.Errorf("%w: instruction %d (function has %d)", ErrOutOfRangeIndex, index, len(f.Instructions))
	}
	return f.Instructions[index], nil
}

// Len returns the number of instructions.
func (f *Function) Len() int {
	return len(f.Instructions)
}
