package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the function.
func (f *Function) Disassemble() string {
	return f.DisassembleWithName("")
}

// DisassembleWithName returns a listing with a name header.
func (f *Function) DisassembleWithName(name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; Arguments: %d\n", f.ArgumentCount))

	if len(f.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, c := range f.Constants {
			sb.WriteString(fmt.Sprintf(";   [%3d] %d (0x%x)\n", i, uint64(c), uint64(c)))
		}
	}
	sb.WriteString("\n")

	for i, ins := range f.Instructions {
		sb.WriteString(fmt.Sprintf("%04x  %08x  %s", i, uint32(ins), ins))
		if note := f.annotate(ins); note != "" {
			sb.WriteString("  ; ")
			sb.WriteString(note)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// annotate resolves constant operands for the listing.
func (f *Function) annotate(ins Instruction) string {
	d := ins.Decode()
	switch d.Op {
	case OpLoad:
		if c, err := f.Constant(int(d.B)); err == nil {
			return fmt.Sprintf("= %d", uint64(c))
		}
		return "constant out of range"
	case OpJmp, OpCjmp:
		if c, err := f.Constant(int(d.A)); err == nil {
			return fmt.Sprintf("-> %04x", uint64(c))
		}
		return "constant out of range"
	}
	return ""
}

// Disassemble lists every function in the image.
func (img *Image) Disassemble() string {
	var sb strings.Builder
	for i, fn := range img.Functions() {
		if i > 0 {
			sb.WriteString("\n")
		}
		name := fmt.Sprintf("function %d", i)
		if fn == nil {
			sb.WriteString(fmt.Sprintf("; === %s === (empty)\n", name))
			continue
		}
		sb.WriteString(fn.DisassembleWithName(name))
	}
	return sb.String()
}
