// Package store holds the durable entry collection: a single JSON document
// read fully on every operation and rewritten atomically on save. The file is
// the only persisted state; effective (decayed) confidence is recomputed on
// read and never baked in except by an explicit decay pass.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clawdbot/metalens/internal/config"
)

const schemaVersion = 1

// Store is the full store document. Entries plus store-level metadata:
// schema version, tunable config, the feedback audit log, and counters.
type Store struct {
	Version     int              `json:"version"`
	CreatedAt   time.Time        `json:"created_at"`
	Config      config.Config    `json:"config"`
	Entries     []*Entry         `json:"entries"`
	FeedbackLog []FeedbackRecord `json:"feedback_log"`
	Meta        Meta             `json:"meta"`
}

// FeedbackRecord is one audit line per feedback call. The context text is
// recorded verbatim; entry content is never mutated by feedback.
type FeedbackRecord struct {
	Time     time.Time `json:"time"`
	Polarity int       `json:"polarity"`
	Context  string    `json:"context,omitempty"`
	EntryIDs []string  `json:"entry_ids,omitempty"`
}

// Meta holds store-level counters.
type Meta struct {
	TotalDecisions   int `json:"total_decisions"`
	TotalCorrections int `json:"total_corrections"`
}

// NewStore returns an empty store document with default config.
func NewStore(now time.Time) *Store {
	return &Store{
		Version:   schemaVersion,
		CreatedAt: now,
		Config:    config.Default(),
	}
}

// Get returns the entry with the given id, or nil if absent.
func (s *Store) Get(id string) *Entry {
	for _, e := range s.Entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Insert appends an entry, enforcing id uniqueness for the lifetime of the
// store.
func (s *Store) Insert(e *Entry) error {
	if s.Get(e.ID) != nil {
		return &ValidationError{Field: "id", Value: e.ID, Reason: "already exists"}
	}
	s.Entries = append(s.Entries, e)
	return nil
}

// Create validates and inserts a new entry. When the content is a near
// duplicate of an existing non-resolved entry of the same type, that entry is
// reinforced instead and returned; reinforced is false only for a fresh
// insert.
func (s *Store) Create(now time.Time, t EntryType, content string, confidence float64, domain string) (entry *Entry, reinforced bool, err error) {
	fresh, err := NewEntry(now, t, content, confidence, domain)
	if err != nil {
		return nil, false, err
	}

	threshold := s.Config.Normalized().DuplicateThreshold
	for _, existing := range s.Entries {
		if existing.Type != t || existing.Status == StatusResolved {
			continue
		}
		if similarity(existing.Content, fresh.Content) <= threshold {
			continue
		}
		existing.ReinforcementCount++
		existing.Confidence = Clamp(existing.Confidence + 0.1)
		existing.Touch(now)
		return existing, true, nil
	}

	if err := s.Insert(fresh); err != nil {
		return nil, false, err
	}
	if t == TypeDecision {
		s.Meta.TotalDecisions++
	}
	return fresh, false, nil
}

// File is a handle to a store document on disk. It holds no cached state:
// every operation loads fresh, so manual edits between runs are picked up.
// The design assumes a single writer at a time; overlapping invocations are
// a read-modify-write hazard the external scheduler must avoid.
type File struct {
	Path string
}

// Open returns a handle to the store file at path. The file need not exist
// yet; the first Load returns an empty store and the first Save creates it.
func Open(path string) *File {
	return &File{Path: path}
}

// DefaultPath returns the default store location: ~/.metalens/metalens.json
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".metalens", "metalens.json"), nil
}

// Load reads and parses the full store document. A missing file yields a
// fresh empty store; a present but unparsable file yields a CorruptError.
func (f *File) Load() (*Store, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return NewStore(time.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &CorruptError{Path: f.Path, Err: err}
	}
	if s.Version == 0 {
		s.Version = schemaVersion
	}
	s.Config = s.Config.Normalized()
	return &s, nil
}

// Save rewrites the entire store atomically: write to a temp file in the
// same directory, then rename over the target. No partial write is ever
// visible.
func (f *File) Save(s *Store) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
