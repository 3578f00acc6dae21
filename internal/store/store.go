// Package store holds the current cache snapshot in memory and persists
// it as a JSON array on disk. The snapshot is replaced wholesale on each
// successful refresh cycle; there is no incremental merge.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Store guards the snapshot with a single mutex. The lock is held only
// for the copy in Snapshot and the swap in Replace, never across network
// or file I/O.
type Store struct {
	path   string
	logger log.Logger

	mu      sync.Mutex
	entries []Entry
}

func New(path string, logger log.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path reports where the snapshot is persisted.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted snapshot from disk. A missing file is a cold
// start, not an error. A malformed file is logged and treated as empty;
// the next successful cycle rewrites it.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cache file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		level.Error(s.logger).Log("msg", "cache file malformed, starting empty", "path", s.path, "err", err)
		return nil
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// Snapshot returns an independent copy of the current entries. Mutating
// the returned slice never affects the store.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Replace swaps the held snapshot for entries. Readers observe either
// the full old list or the full new one, never a mix.
func (s *Store) Replace(entries []Entry) {
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

// Len reports the number of entries in the current snapshot.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Persist writes the current snapshot to disk as a pretty-printed JSON
// array. The snapshot is copied under the lock and written outside it,
// via a temp file and rename so a crash mid-write never corrupts the
// previous file.
func (s *Store) Persist() error {
	entries := s.Snapshot()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".spotlight-*.json")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}
