// Package store keeps Program Images in a content-addressed SQLite
// database. An image's key is the SHA-256 of its binary encoding, so
// storing the same image twice yields the same hash and a single row.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chazu/atto/pkg/bytecode"
	"github.com/chazu/atto/pkg/imagefile"
)

// ErrImageNotFound indicates the requested image doesn't exist.
var ErrImageNotFound = errors.New("image not found")

// ErrAmbiguousHash indicates a hash prefix matched more than one image.
var ErrAmbiguousHash = errors.New("ambiguous image hash")

// Entry describes one stored image.
type Entry struct {
	Hash      string
	Size      int
	Functions int
	CreatedAt time.Time
}

// Store is a SQLite-backed image store.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS images (
		hash TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		functions INTEGER NOT NULL,
		created INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Hash returns the content hash of an encoded image.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores img and returns its hash. Storing an image that is already
// present is not an error.
func (s *Store) Put(img *bytecode.Image) (string, error) {
	data, err := imagefile.Encode(img)
	if err != nil {
		return "", err
	}
	hash := Hash(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR IGNORE INTO images (hash, data, functions, created) VALUES (?, ?, ?, ?)",
		hash, data, img.Len(), time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("storing image %s: %w", hash, err)
	}
	return hash, nil
}

// Resolve expands a unique hash prefix to the full hash.
func (s *Store) Resolve(prefix string) (string, error) {
	prefix = strings.ToLower(prefix)
	if prefix == "" || strings.Trim(prefix, "0123456789abcdef") != "" {
		return "", fmt.Errorf("%w: %q", ErrImageNotFound, prefix)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT hash FROM images WHERE hash LIKE ? LIMIT 2", prefix+"%")
	if err != nil {
		return "", fmt.Errorf("querying images: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return "", fmt.Errorf("scanning hash: %w", err)
		}
		matches = append(matches, h)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("querying images: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousHash, prefix)
	}
}

// GetBytes returns the binary encoding of the image with the given hash
// or unique hash prefix.
func (s *Store) GetBytes(hash string) ([]byte, error) {
	full, err := s.Resolve(hash)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err = s.db.QueryRow("SELECT data FROM images WHERE hash = ?", full).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, full)
	}
	if err != nil {
		return nil, fmt.Errorf("loading image %s: %w", full, err)
	}
	if Hash(data) != full {
		return nil, fmt.Errorf("image %s: stored data does not match its hash", full)
	}
	return data, nil
}

// Get loads and decodes the image with the given hash or unique prefix.
func (s *Store) Get(hash string) (*bytecode.Image, error) {
	data, err := s.GetBytes(hash)
	if err != nil {
		return nil, err
	}
	return imagefile.Decode(data)
}

// Delete removes an image. Deleting a missing image returns
// ErrImageNotFound.
func (s *Store) Delete(hash string) error {
	full, err := s.Resolve(hash)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM images WHERE hash = ?", full); err != nil {
		return fmt.Errorf("deleting image %s: %w", full, err)
	}
	return nil
}

// List returns all stored images, oldest first.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT hash, length(data), functions, created FROM images ORDER BY created, hash")
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created int64
		)
		if err := rows.Scan(&e.Hash, &e.Size, &e.Functions, &created); err != nil {
			return nil, fmt.Errorf("scanning image row: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
