// Package bytecode provides the register-based virtual machine that runs
// compiled Atto programs.
//
// # Architecture Overview
//
//   - Function: an immutable constant pool plus a sequence of 32-bit
//     instruction words. Constants are both literal operands and absolute
//     jump targets.
//
//   - Image: the dense, indexed set of functions a VM executes.
//
//   - State: 256 untyped 64-bit registers, the current control location
//     and the flags byte written by test.
//
//   - VM: the fetch-decode-execute-advance loop. Step executes exactly one
//     instruction; Run drives Step until return.
//
// # Instruction Encoding
//
// The top byte of a word is the opcode; the remaining three bytes are the
// operand fields A, B and C, interpreted per opcode (see OpcodeInfo).
//
// # Errors
//
// Nothing in this package terminates the process. Every fatal condition
// (uninitialized state, illegal instruction, runaway function, division
// by zero, out-of-range index) is returned from Step as a *StepError that
// unwraps to one of the Err* sentinels, and the VM moves to StatusFailed.
package bytecode
