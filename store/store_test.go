package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/chazu/atto/pkg/bytecode"
	"github.com/chazu/atto/pkg/imagefile"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "images.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func returnImage(v bytecode.Word) *bytecode.Image {
	return bytecode.NewImageFromFunctions(&bytecode.Function{
		Constants:    []bytecode.Word{v},
		Instructions: []bytecode.Instruction{bytecode.Load(0, 0), bytecode.Return(0)},
	})
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)

	hash, err := s.Put(returnImage(42))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64", len(hash))
	}

	data, err := imagefile.Encode(returnImage(42))
	if err != nil {
		t.Fatal(err)
	}
	if hash != Hash(data) {
		t.Errorf("hash = %s, want %s", hash, Hash(data))
	}

	img, err := s.Get(hash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	fn, err := img.Function(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(fn.Constants) != 1 || fn.Constants[0] != 42 {
		t.Errorf("constants = %v, want [42]", fn.Constants)
	}
}

func TestPutIdempotent(t *testing.T) {
	s := openTestStore(t)

	h1, err := s.Put(returnImage(1))
	if err != nil {
		t.Fatal(err)
	}
	h2, err := s.Put(returnImage(1))
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("same image stored under %s and %s", h1, h2)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("List returned %d entries, want 1", len(entries))
	}
	if entries[0].Functions != 1 || entries[0].Size == 0 {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestGetByPrefix(t *testing.T) {
	s := openTestStore(t)

	hash, err := s.Put(returnImage(7))
	if err != nil {
		t.Fatal(err)
	}
	img, err := s.Get(hash[:8])
	if err != nil {
		t.Fatalf("Get by prefix failed: %v", err)
	}
	if img.Len() != 1 {
		t.Errorf("Len() = %d, want 1", img.Len())
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Get("deadbeef"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound, got %v", err)
	}
	if _, err := s.Get("not-hex"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound for invalid hash, got %v", err)
	}
	if err := s.Delete("deadbeef"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Delete: expected ErrImageNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	hash, err := s.Put(returnImage(3))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(hash); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(hash); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound after delete, got %v", err)
	}
}

func TestPutEmptySlot(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Put(bytecode.NewImage(2)); err == nil {
		t.Error("expected error storing image with empty slots")
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	hash, err := s.Put(returnImage(9))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.Get(hash); err != nil {
		t.Errorf("Get after reopen failed: %v", err)
	}
}
