package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	// Create a temporary directory with an atto.toml
	dir := t.TempDir()
	tomlContent := `
[run]
image = "build/prog.atto"
function = 2
instruction = 5
max-steps = 100000
trace = true

[log]
verbosity = 2
file = "/var/log/atto.log"

[store]
path = "images.db"
`
	if err := os.WriteFile(filepath.Join(dir, "atto.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Run.Image != "build/prog.atto" {
		t.Errorf("run image = %q, want build/prog.atto", m.Run.Image)
	}
	if m.Run.Function != 2 || m.Run.Instruction != 5 {
		t.Errorf("entry = %d:%d, want 2:5", m.Run.Function, m.Run.Instruction)
	}
	if m.Run.MaxSteps != 100000 {
		t.Errorf("max-steps = %d, want 100000", m.Run.MaxSteps)
	}
	if !m.Run.Trace {
		t.Error("trace = false, want true")
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}
	if got := m.ImagePath(); got != filepath.Join(m.Dir, "build", "prog.atto") {
		t.Errorf("ImagePath() = %q", got)
	}
	if got := m.StorePath(); got != filepath.Join(m.Dir, "images.db") {
		t.Errorf("StorePath() = %q", got)
	}
	if got := m.LogFilePath(); got != "/var/log/atto.log" {
		t.Errorf("LogFilePath() = %q, want absolute path unchanged", got)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "atto.toml"), []byte("[run]\nimage = \"x.atto\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Store.Path != DefaultStorePath {
		t.Errorf("store path = %q, want %q", m.Store.Path, DefaultStorePath)
	}
	if m.Run.MaxSteps != 0 || m.Run.Trace {
		t.Errorf("unexpected run defaults: %+v", m.Run)
	}
	if m.LogFilePath() != "" {
		t.Errorf("LogFilePath() = %q, want empty", m.LogFilePath())
	}
}

func TestLoadManifestErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "atto.toml")
	if err := os.WriteFile(bad, []byte("[run\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected parse error")
	}

	if err := os.WriteFile(bad, []byte("[run]\nfunction = -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected error for negative function index")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "atto.toml"), []byte("[run]\nfunction = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Run.Function != 1 {
		t.Errorf("function = %d, want 1", m.Run.Function)
	}
	absRoot, _ := filepath.Abs(root)
	if m.Dir != absRoot {
		t.Errorf("Dir = %q, want %q", m.Dir, absRoot)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no atto.toml exists")
	}
}

func TestDefault(t *testing.T) {
	dir := t.TempDir()
	m := Default(dir)
	if m.StorePath() != filepath.Join(m.Dir, ".atto", "images.db") {
		t.Errorf("StorePath() = %q", m.StorePath())
	}
}
