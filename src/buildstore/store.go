// Package buildstore persists successful builds keyed by their start time.
package buildstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"unicode/utf16"
	"unicode/utf8"
)

// KeyLayout is the layout of store keys: local wall-clock time, no zone, whole seconds.
const KeyLayout = "2006-01-02T15:04:05"

// Record is one successful build. Field order matches the sorted JSON key order.
type Record struct {
	Duration    int64  `json:"duration"`
	PullRequest int    `json:"pull-request"`
	URI         string `json:"uri"`
}

// Entry pairs a record with its start-time key.
type Entry struct {
	Start string
	Record
}

// Store maps start times to build records and owns the file they persist to.
type Store struct {
	path string

	mu      sync.RWMutex
	records map[string]Record
}

// New creates an empty store that saves to path.
func New(path string) *Store {
	return &Store{
		path:    path,
		records: make(map[string]Record),
	}
}

// Load reads the store at path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	s := New(path)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read build store: %w", err)
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("failed to decode build store %s: %w", path, err)
	}
	if s.records == nil {
		// The file held a JSON null.
		s.records = make(map[string]Record)
	}
	return s, nil
}

// Open reads the store at path and fails if it does not exist.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open build store: %w", err)
	}
	return Load(path)
}

// Path returns the file the store saves to.
func (s *Store) Path() string {
	return s.path
}

// Put inserts or overwrites the record for start.
func (s *Store) Put(start string, r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[start] = r
}

// Get returns the record for start.
func (s *Store) Get(start string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[start]
	return r, ok
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Entries returns all records ordered by start key.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.records))
	for start, r := range s.records {
		entries = append(entries, Entry{Start: start, Record: r})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Start < entries[j].Start
	})
	return entries
}

// Marshal renders the store as it is written to disk: sorted keys,
// two-space indent, trailing newline, ASCII only.
func (s *Store) Marshal() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.records); err != nil {
		return nil, fmt.Errorf("failed to encode build store: %w", err)
	}
	return escapeNonASCII(buf.Bytes()), nil
}

// escapeNonASCII rewrites every rune from DEL upward as \uXXXX, using a
// surrogate pair outside the BMP. Such bytes only occur inside JSON strings.
func escapeNonASCII(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for len(data) > 0 {
		if data[0] < utf8.RuneSelf-1 {
			out = append(out, data[0])
			data = data[1:]
			continue
		}
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if r > 0xffff {
			hi, lo := utf16.EncodeRune(r)
			out = fmt.Appendf(out, `\u%04x\u%04x`, hi, lo)
			continue
		}
		out = fmt.Appendf(out, `\u%04x`, r)
	}
	return out
}

// Save rewrites the whole store file. The new content is written to a
// temporary file in the same directory and renamed over the old one.
func (s *Store) Save() error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write build store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write build store: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set build store permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace build store: %w", err)
	}
	return nil
}
