package imagefile

import (
	"bytes"
	"fmt"
	"math"

	"github.com/BurntSushi/toml"

	"github.com/chazu/atto/pkg/bytecode"
)

// tomlImage is the hand-editable form of an image:
//
//	[[function]]
//	arguments = 0
//	constants = [0, 7]
//	instructions = [0x01000000, 0x01010100, 0x10000000]
//
// TOML integers are signed 64-bit, so constants above math.MaxInt64 are
// written as their two's-complement negative value.
type tomlImage struct {
	Functions []tomlFunction `toml:"function"`
}

type tomlFunction struct {
	Arguments    uint32  `toml:"arguments"`
	Constants    []int64 `toml:"constants"`
	Instructions []int64 `toml:"instructions"`
}

// DecodeTOML parses the TOML image form.
func DecodeTOML(data []byte) (*bytecode.Image, error) {
	var ti tomlImage
	md, err := toml.Decode(string(data), &ti)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}

	img := bytecode.NewImage(len(ti.Functions))
	for i, tf := range ti.Functions {
		fn := bytecode.NewFunction(tf.Arguments, uint32(len(tf.Constants)), uint32(len(tf.Instructions)))
		for j, c := range tf.Constants {
			fn.Constants[j] = bytecode.Word(uint64(c))
		}
		for j, w := range tf.Instructions {
			if w < 0 || w > math.MaxUint32 {
				return nil, fmt.Errorf("function %d: instruction %d: 0x%x does not fit in 32 bits", i, j, w)
			}
			fn.Instructions[j] = bytecode.Instruction(w)
		}
		_ = img.SetFunction(i, fn)
	}
	return img, nil
}

// EncodeTOML renders an image in the TOML form.
func EncodeTOML(img *bytecode.Image) ([]byte, error) {
	ti := tomlImage{Functions: make([]tomlFunction, 0, img.Len())}
	for i, fn := range img.Functions() {
		if fn == nil {
			return nil, fmt.Errorf("imagefile: function slot %d is empty", i)
		}
		tf := tomlFunction{
			Arguments:    fn.ArgumentCount,
			Constants:    make([]int64, len(fn.Constants)),
			Instructions: make([]int64, len(fn.Instructions)),
		}
		for j, c := range fn.Constants {
			tf.Constants[j] = int64(c)
		}
		for j, w := range fn.Instructions {
			tf.Instructions[j] = int64(w)
		}
		ti.Functions = append(ti.Functions, tf)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(ti); err != nil {
		return nil, fmt.Errorf("imagefile: encode toml: %w", err)
	}
	return buf.Bytes(), nil
}
