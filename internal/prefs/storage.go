package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RecordName is the fixed key of the durable preference record.
const RecordName = "radio-storage"

// Record is the persisted subset of the preference state. Nothing else is
// ever written.
type Record struct {
	Favorites []string `json:"favorites"`
	Volume    float64  `json:"volume"`
}

// Storage is the durability port behind Store.
type Storage interface {
	// Load returns the stored record. ok is false when nothing was stored yet.
	Load() (rec Record, ok bool, err error)
	Save(rec Record) error
}

// FileStorage keeps the record as JSON in dir/radio-storage.json.
type FileStorage struct {
	path string
}

// NewFileStorage returns a storage that writes into dir.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{path: filepath.Join(dir, RecordName+".json")}
}

// Path is the file backing the record.
func (f *FileStorage) Path() string { return f.path }

// Load reads the record; a missing file is not an error.
func (f *FileStorage) Load() (Record, bool, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, false, fmt.Errorf("preference record parse error: %w", err)
	}
	return rec, true, nil
}

// Save writes the record through a temp file so a crash mid-write leaves the
// previous record intact.
func (f *FileStorage) Save(rec Record) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// MemoryStorage is an in-process Storage, used by tests and offline runs.
type MemoryStorage struct {
	mu    sync.Mutex
	rec   Record
	ok    bool
	saves int
}

// NewMemoryStorage returns an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load() (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRecord(m.rec), m.ok, nil
}

func (m *MemoryStorage) Save(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = cloneRecord(rec)
	m.ok = true
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *MemoryStorage) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneRecord(r Record) Record {
	out := Record{Volume: r.Volume}
	if r.Favorites != nil {
		out.Favorites = append([]string(nil), r.Favorites...)
	}
	return out
}
