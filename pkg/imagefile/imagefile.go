// Package imagefile reads and writes Program Images.
//
// Two encodings are supported:
//
//   - Binary: the four magic bytes "ATTO", a big-endian uint16 format
//     version, then the image as canonical CBOR.
//   - TOML: one [[function]] table per function, for hand-written images
//     and test fixtures.
package imagefile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/atto/pkg/bytecode"
)

// Magic identifies a binary Atto image.
var Magic = [4]byte{'A', 'T', 'T', 'O'}

// Version is the current binary format version.
// v1: initial format
const Version uint16 = 1

// HeaderSize is magic(4) + version(2).
const HeaderSize = 6

var (
	ErrBadMagic           = errors.New("imagefile: not an atto image")
	ErrUnsupportedVersion = errors.New("imagefile: unsupported version")
)

// functionRecord is the on-disk shape of one function. Integer keys keep
// the encoding compact and stable across field renames.
type functionRecord struct {
	Arguments    uint32                 `cbor:"1,keyasint"`
	Constants    []bytecode.Word        `cbor:"2,keyasint"`
	Instructions []bytecode.Instruction `cbor:"3,keyasint"`
}

type imageRecord struct {
	Functions []functionRecord `cbor:"1,keyasint"`
}

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("imagefile: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	dm, err := cbor.DecOptions{
		MaxArrayElements:  1 << 24,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("imagefile: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

func toRecord(img *bytecode.Image) (imageRecord, error) {
	rec := imageRecord{Functions: make([]functionRecord, 0, img.Len())}
	for i, fn := range img.Functions() {
		if fn == nil {
			return imageRecord{}, fmt.Errorf("imagefile: function slot %d is empty", i)
		}
		rec.Functions = append(rec.Functions, functionRecord{
			Arguments:    fn.ArgumentCount,
			Constants:    fn.Constants,
			Instructions: fn.Instructions,
		})
	}
	return rec, nil
}

func fromRecord(rec imageRecord) *bytecode.Image {
	img := bytecode.NewImage(len(rec.Functions))
	for i, fr := range rec.Functions {
		fn := bytecode.NewFunction(fr.Arguments, uint32(len(fr.Constants)), uint32(len(fr.Instructions)))
		copy(fn.Constants, fr.Constants)
		copy(fn.Instructions, fr.Instructions)
		// i is always in range: the image was sized from rec.
		_ = img.SetFunction(i, fn)
	}
	return img
}

// Encode serializes an image to the binary format. Every slot must hold a
// function.
func Encode(img *bytecode.Image) ([]byte, error) {
	rec, err := toRecord(img)
	if err != nil {
		return nil, err
	}
	body, err := cborEncMode.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("imagefile: marshal: %w", err)
	}

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+len(body)))
	buf.Write(Magic[:])
	binary.Write(buf, binary.BigEndian, Version)
	buf.Write(body)
	return buf.Bytes(), nil
}

// Decode parses the binary format.
func Decode(data []byte) (*bytecode.Image, error) {
	if len(data) < HeaderSize || !bytes.Equal(data[:4], Magic[:]) {
		return nil, ErrBadMagic
	}
	if v := binary.BigEndian.Uint16(data[4:HeaderSize]); v != Version {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, v, Version)
	}

	var rec imageRecord
	if err := cborDecMode.Unmarshal(data[HeaderSize:], &rec); err != nil {
		return nil, fmt.Errorf("imagefile: unmarshal: %w", err)
	}
	return fromRecord(rec), nil
}

// IsBinary reports whether data starts with the binary image magic.
func IsBinary(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], Magic[:])
}

// Parse decodes data in whichever format it is in: binary if it carries
// the magic bytes, TOML otherwise.
func Parse(data []byte) (*bytecode.Image, error) {
	if IsBinary(data) {
		return Decode(data)
	}
	return DecodeTOML(data)
}

// ReadFile loads an image from disk, detecting the format from content.
func ReadFile(path string) (*bytecode.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	img, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// WriteFile saves an image. Paths ending in .toml are written as TOML,
// everything else in the binary format.
func WriteFile(path string, img *bytecode.Image) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = EncodeTOML(img)
	} else {
		data, err = Encode(img)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}
