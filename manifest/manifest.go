// Package manifest handles atto.toml runtime configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "atto.toml"

// DefaultStorePath is the image store location used when [store] path is
// not set, relative to the manifest directory.
const DefaultStorePath = ".atto/images.db"

// Manifest represents an atto.toml configuration.
type Manifest struct {
	Run   RunConfig   `toml:"run"`
	Log   LogConfig   `toml:"log"`
	Store StoreConfig `toml:"store"`

	// Dir is the directory containing the atto.toml file (set at load time).
	Dir string `toml:"-"`
}

// RunConfig selects what to execute and how.
type RunConfig struct {
	Image       string `toml:"image"`
	Function    uint32 `toml:"function"`
	Instruction uint32 `toml:"instruction"`
	MaxSteps    uint64 `toml:"max-steps"`
	Trace       bool   `toml:"trace"`
}

// LogConfig configures the commonlog backend.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// StoreConfig configures the SQLite image store.
type StoreConfig struct {
	Path string `toml:"path"`
}

// Load parses the atto.toml file in the given directory.
func Load(dir string) (*Manifest, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses an explicit configuration file.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	// Defaults
	if m.Store.Path == "" {
		m.Store.Path = DefaultStorePath
	}

	return &m, nil
}

// Default returns the configuration used when no atto.toml exists.
func Default(dir string) *Manifest {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return &Manifest{
		Store: StoreConfig{Path: DefaultStorePath},
		Dir:   abs,
	}
}

// FindAndLoad walks up from startDir to find an atto.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// resolve makes p absolute relative to the manifest directory.
func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// ImagePath returns the absolute path of [run] image, or "" if unset.
func (m *Manifest) ImagePath() string {
	return m.resolve(m.Run.Image)
}

// StorePath returns the absolute path of the image store database.
func (m *Manifest) StorePath() string {
	return m.resolve(m.Store.Path)
}

// LogFilePath returns the absolute log file path, or "" for stderr.
func (m *Manifest) LogFilePath() string {
	return m.resolve(m.Log.File)
}
