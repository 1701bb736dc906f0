package bytecode

import (
	"fmt"
	"strings"
)

// Word is an untyped 64-bit register or constant value. The VM never tags
// it; the opcode reading it decides whether it is an unsigned integer or an
// absolute instruction index.
type Word uint64

// Instruction is a packed 32-bit instruction word:
//
//	31      24 23      16 15       8 7        0
//	+---------+----------+----------+---------+
//	| opcode  |    A     |    B     |    C    |
//	+---------+----------+----------+---------+
//
// The meaning of A, B and C depends entirely on the opcode.
type Instruction uint32

// Decoded is an instruction word split into its fields.
type Decoded struct {
	Op Opcode
	A  uint8
	B  uint8
	C  uint8
}

// Op returns the opcode byte.
func (i Instruction) Op() Opcode { return Opcode(i >> 24) }

// A returns operand field A (bits 23..16).
func (i Instruction) A() uint8 { return uint8(i >> 16) }

// B returns operand field B (bits 15..8).
func (i Instruction) B() uint8 { return uint8(i >> 8) }

// C returns operand field C (bits 7..0).
func (i Instruction) C() uint8 { return uint8(i) }

// Decode splits the word into opcode and operand fields. Decoding never
// fails; whether the opcode is defined is checked at execution time.
func (i Instruction) Decode() Decoded {
	return Decoded{Op: i.Op(), A: i.A(), B: i.B(), C: i.C()}
}

// Make packs an opcode and up to three operand fields into an instruction.
// Missing operands are zero.
func Make(op Opcode, operands ...uint8) Instruction {
	if len(operands) > 3 {
		panic(fmt.Sprintf("bytecode: %s takes at most 3 operands, got %d", op, len(operands)))
	}
	ins := Instruction(op) << 24
	for i, o := range operands {
		ins |= Instruction(o) << (16 - 8*uint(i))
	}
	return ins
}

// Move encodes `move dest, src`.
func Move(dest, src uint8) Instruction { return Make(OpMove, dest, src) }

// Load encodes `load dest, const`.
func Load(dest, constIndex uint8) Instruction { return Make(OpLoad, dest, constIndex) }

// Add encodes `add dest, op1, op2`.
func Add(dest, op1, op2 uint8) Instruction { return Make(OpAdd, dest, op1, op2) }

// Sub encodes `sub dest, op1, op2`.
func Sub(dest, op1, op2 uint8) Instruction { return Make(OpSub, dest, op1, op2) }

// Mul encodes `mul dest, op1, op2`.
func Mul(dest, op1, op2 uint8) Instruction { return Make(OpMul, dest, op1, op2) }

// Div encodes `div dest, op1, op2`.
func Div(dest, op1, op2 uint8) Instruction { return Make(OpDiv, dest, op1, op2) }

// Jmp encodes `jmp const`.
func Jmp(constIndex uint8) Instruction { return Make(OpJmp, constIndex) }

// Cjmp encodes `cjmp const, mask`.
func Cjmp(constIndex uint8, mask Flags) Instruction {
	return Make(OpCjmp, constIndex, uint8(mask))
}

// Test encodes `test op1, op2`.
func Test(op1, op2 uint8) Instruction { return Make(OpTest, op1, op2) }

// Return encodes `return reg`.
func Return(reg uint8) Instruction { return Make(OpReturn, reg) }

// String renders the instruction in assembler form, e.g. "add r2, r0, r1".
func (i Instruction) String() string {
	d := i.Decode()
	info, ok := GetOpcodeInfo(d.Op)
	if !ok {
		return fmt.Sprintf(".word 0x%08x", uint32(i))
	}
	fields := [3]uint8{d.A, d.B, d.C}
	var parts []string
	for n, kind := range info.Operands {
		switch kind {
		case OperandRegister:
			parts = append(parts, fmt.Sprintf("r%d", fields[n]))
		case OperandConstant:
			parts = append(parts, fmt.Sprintf("c%d", fields[n]))
		case OperandMask:
			parts = append(parts, Flags(fields[n]).String())
		}
	}
	if len(parts) == 0 {
		return info.Name
	}
	return info.Name + " " + strings.Join(parts, ", ")
}
