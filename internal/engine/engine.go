// Package engine implements the entry lifecycle and scoring operations:
// decay, feedback tracing, the curiosity state machine, and lens compilation.
// Every operation is a full load / mutate / save of the store document —
// nothing partial, no cached state between calls.
package engine

import (
	"time"

	"github.com/clawdbot/metalens/internal/config"
	"github.com/clawdbot/metalens/internal/store"
)

// Engine runs operations against a store file.
type Engine struct {
	File *store.File
	now  func() time.Time
}

// New creates an Engine over the given store file.
func New(f *store.File) *Engine {
	return &Engine{File: f, now: time.Now}
}

// SetClock replaces the time source. Tests use a fixed clock to make decay
// and lens output deterministic.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Engine) load() (*store.Store, config.Config, error) {
	s, err := e.File.Load()
	if err != nil {
		return nil, config.Config{}, err
	}
	return s, s.Config.Normalized(), nil
}

// Add creates an entry (or reinforces a near duplicate). The trace lists the
// ids of entries that were active when a decision was logged; it is stored
// verbatim.
func (e *Engine) Add(t store.EntryType, content string, confidence float64, domain string, trace []string) (*store.Entry, error) {
	s, _, err := e.load()
	if err != nil {
		return nil, err
	}

	now := e.now()
	entry, reinforced, err := s.Create(now, t, content, confidence, domain)
	if err != nil {
		return nil, err
	}
	if !reinforced && len(trace) > 0 {
		entry.Trace = trace
	}

	if err := e.File.Save(s); err != nil {
		return nil, err
	}
	return entry, nil
}

// Get returns a single entry by id.
func (e *Engine) Get(id string) (*store.Entry, error) {
	s, _, err := e.load()
	if err != nil {
		return nil, err
	}
	entry := s.Get(id)
	if entry == nil {
		return nil, &store.NotFoundError{ID: id}
	}
	return entry, nil
}
