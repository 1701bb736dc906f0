package bytecode

import (
	"fmt"
	"strings"
)

// Flags is the condition-code byte written by test and read by cjmp.
type Flags uint8

const (
	FlagEqual   Flags = 0x01
	FlagGreater Flags = 0x02
	FlagLesser  Flags = 0x04

	flagsKnown = FlagEqual | FlagGreater | FlagLesser
)

// Compare returns the flags produced by comparing a and b as unsigned
// integers. Exactly one bit is set.
func Compare(a, b Word) Flags {
	switch {
	case a == b:
		return FlagEqual
	case a > b:
		return FlagGreater
	default:
		return FlagLesser
	}
}

// String renders the flags as a |-separated list, e.g. "eq" or "gt|lt".
// Bytes carrying undefined bits are printed in hex.
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	if f&^flagsKnown != 0 {
		return fmt.Sprintf("0x%02x", uint8(f))
	}
	var names []string
	if f&FlagEqual != 0 {
		names = append(names, "eq")
	}
	if f&FlagGreater != 0 {
		names = append(names, "gt")
	}
	if f&FlagLesser != 0 {
		names = append(names, "lt")
	}
	return strings.Join(names, "|")
}
