package bytecode

import (
	"errors"
	"strings"
	"testing"
)

func TestNewFunctionZeroed(t *testing.T) {
	fn := NewFunction(2, 3, 4)
	if fn.ArgumentCount != 2 {
		t.Errorf("ArgumentCount = %d, want 2", fn.ArgumentCount)
	}
	if len(fn.Constants) != 3 || len(fn.Instructions) != 4 {
		t.Fatalf("sizes = %d/%d, want 3/4", len(fn.Constants), len(fn.Instructions))
	}
	for i, c := range fn.Constants {
		if c != 0 {
			t.Errorf("constant %d = %d, want 0", i, c)
		}
	}
	for i, ins := range fn.Instructions {
		if ins != 0 {
			t.Errorf("instruction %d = %08x, want 0", i, uint32(ins))
		}
	}
}

func TestFunctionBounds(t *testing.T) {
	fn := &Function{Constants: []Word{5}, Instructions: []Instruction{Return(0)}}

	if c, err := fn.Constant(0); err != nil || c != 5 {
		t.Errorf("Constant(0) = %d, %v", c, err)
	}
	if _, err := fn.Constant(1); !errors.Is(err, ErrOutOfRangeIndex) {
		t.Errorf("Constant(1): expected ErrOutOfRangeIndex, got %v", err)
	}
	if _, err := fn.Instruction(-1); !errors.Is(err, ErrOutOfRangeIndex) {
		t.Errorf("Instruction(-1): expected ErrOutOfRangeIndex, got %v", err)
	}
}

func TestImageSlots(t *testing.T) {
	img := NewImage(3)
	if img.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", img.Len())
	}
	if _, err := img.Function(0); !errors.Is(err, ErrOutOfRangeIndex) {
		t.Errorf("empty slot: expected ErrOutOfRangeIndex, got %v", err)
	}

	fn := NewFunction(0, 0, 1)
	if err := img.SetFunction(2, fn); err != nil {
		t.Fatalf("SetFunction failed: %v", err)
	}
	got, err := img.Function(2)
	if err != nil || got != fn {
		t.Errorf("Function(2) = %p, %v; want %p", got, err, fn)
	}
	if err := img.SetFunction(3, fn); !errors.Is(err, ErrOutOfRangeIndex) {
		t.Errorf("SetFunction(3): expected ErrOutOfRangeIndex, got %v", err)
	}
}

func TestImageRelease(t *testing.T) {
	img := NewImageFromFunctions(NewFunction(0, 0, 1), NewFunction(0, 0, 1))
	img.Release()

	if img.Len() != 0 {
		t.Errorf("Len() after Release = %d, want 0", img.Len())
	}
	if _, err := img.Function(0); !errors.Is(err, ErrOutOfRangeIndex) {
		t.Errorf("Function after Release: expected ErrOutOfRangeIndex, got %v", err)
	}

	var nilImage *Image
	nilImage.Release()
}

func TestImageValidate(t *testing.T) {
	good := &Function{
		Constants:    []Word{0, 1},
		Instructions: []Instruction{Load(0, 1), Cjmp(0, FlagEqual), Jmp(0), Return(0)},
	}
	if err := NewImageFromFunctions(good).Validate(); err != nil {
		t.Fatalf("Validate(good) = %v", err)
	}

	bad := &Function{
		Constants: []Word{10},
		Instructions: []Instruction{
			Instruction(0x42000000), // illegal
			Load(0, 3),              // constant out of range
			Jmp(0),                  // target past the end
			Return(0),
		},
	}
	err := NewImageFromFunctions(bad, nil).Validate()
	if err == nil {
		t.Fatal("Validate(bad) = nil")
	}
	for _, target := range []error{ErrIllegalInstruction, ErrOutOfRangeIndex, ErrRunawayFunction} {
		if !errors.Is(err, target) {
			t.Errorf("Validate(bad) does not report %v", target)
		}
	}
	msg := err.Error()
	for _, want := range []string{"instruction 0", "instruction 1", "instruction 2", "function 1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Validate message missing %q:\n%s", want, msg)
		}
	}
}

func TestImageValidateEmptyFunction(t *testing.T) {
	err := NewImageFromFunctions(&Function{}).Validate()
	if !errors.Is(err, ErrRunawayFunction) {
		t.Errorf("expected ErrRunawayFunction for empty function, got %v", err)
	}
}
