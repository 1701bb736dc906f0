package bytecode

import (
	"fmt"
	"sort"
)

// Opcode is the top byte of an instruction word.
// Opcodes are grouped into ranges by category.
type Opcode byte

const (
	// ========================================================================
	// Data movement and arithmetic (0x00-0x0F)
	// ========================================================================

	OpMove Opcode = 0x00 // dest <- src: OpMove <dest:u8> <src:u8>
	OpLoad Opcode = 0x01 // dest <- constants[index]: OpLoad <dest:u8> <index:u8>
	OpAdd  Opcode = 0x02 // dest <- op1 + op2 (wrapping): OpAdd <dest:u8> <op1:u8> <op2:u8>
	OpSub  Opcode = 0x03 // dest <- op1 - op2 (wrapping)
	OpMul  Opcode = 0x04 // dest <- op1 * op2 (wrapping)
	OpDiv  Opcode = 0x05 // dest <- op1 / op2 (unsigned, zero divisor is fatal)

	// ========================================================================
	// Control flow (0x10-0x1F)
	// ========================================================================

	OpJmp  Opcode = 0x10 // Absolute jump to constants[index]: OpJmp <index:u8>
	OpCjmp Opcode = 0x11 // Jump if flags == mask: OpCjmp <index:u8> <mask:u8>

	// ========================================================================
	// Comparison (0x20-0x2F)
	// ========================================================================

	OpTest Opcode = 0x20 // Compare two registers, set flags: OpTest <op1:u8> <op2:u8>

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpReturn Opcode = 0xF0 // Halt and report a register: OpReturn <reg:u8>
)

// OperandKind describes how an operand field is interpreted.
type OperandKind uint8

const (
	OperandNone     OperandKind = iota // field unused
	OperandRegister                    // register index
	OperandConstant                    // constant pool index
	OperandMask                        // literal flags mask
)

// String returns a short name for the operand kind.
func (k OperandKind) String() string {
	switch k {
	case OperandNone:
		return "none"
	case OperandRegister:
		return "reg"
	case OperandConstant:
		return "const"
	case OperandMask:
		return "mask"
	default:
		return fmt.Sprintf("OperandKind(%d)", k)
	}
}

// OpcodeInfo provides metadata about each opcode for disassembly and validation.
type OpcodeInfo struct {
	Name     string         // Mnemonic
	Operands [3]OperandKind // Meaning of fields A, B and C
}

// OperandCount returns how many of the three fields the opcode reads.
func (i OpcodeInfo) OperandCount() int {
	n := 0
	for _, k := range i.Operands {
		if k != OperandNone {
			n++
		}
	}
	return n
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpMove: {"move", [3]OperandKind{OperandRegister, OperandRegister}},
	OpLoad: {"load", [3]OperandKind{OperandRegister, OperandConstant}},
	OpAdd:  {"add", [3]OperandKind{OperandRegister, OperandRegister, OperandRegister}},
	OpSub:  {"sub", [3]OperandKind{OperandRegister, OperandRegister, OperandRegister}},
	OpMul:  {"mul", [3]OperandKind{OperandRegister, OperandRegister, OperandRegister}},
	OpDiv:  {"div", [3]OperandKind{OperandRegister, OperandRegister, OperandRegister}},

	OpJmp:  {"jmp", [3]OperandKind{OperandConstant}},
	OpCjmp: {"cjmp", [3]OperandKind{OperandConstant, OperandMask}},

	OpTest: {"test", [3]OperandKind{OperandRegister, OperandRegister}},

	OpReturn: {"return", [3]OperandKind{OperandRegister}},
}

// GetOpcodeInfo returns metadata for an opcode.
// The second result is false if the opcode is not defined.
func GetOpcodeInfo(op Opcode) (OpcodeInfo, bool) {
	info, ok := opcodeInfoTable[op]
	return info, ok
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	if info, ok := opcodeInfoTable[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))
}

// Valid reports whether the opcode is part of the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// IsJump returns true if this opcode may transfer control.
func (op Opcode) IsJump() bool {
	return op == OpJmp || op == OpCjmp
}

// IsArithmetic returns true for the three-register arithmetic opcodes.
func (op Opcode) IsArithmetic() bool {
	return op >= OpAdd && op <= OpDiv
}

// AllOpcodes returns every defined opcode in ascending order.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	sort.Slice(opcodes, func(i, j int) bool { return opcodes[i] < opcodes[j] })
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
