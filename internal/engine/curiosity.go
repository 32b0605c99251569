package engine

import (
	"github.com/clawdbot/metalens/internal/store"
)

// Curiosity lifecycle: born → active → evolving → resolved, with a
// reversible dormant branch. Born never persists — a new curiosity is
// written already active. Resolved is terminal.

// AddCuriosity births a curiosity entry.
func (e *Engine) AddCuriosity(content string, confidence float64, domain string) (*store.Entry, error) {
	return e.Add(store.TypeCuriosity, content, confidence, domain, nil)
}

// Evolve appends evidence to a curiosity and advances it to evolving.
// Dormant curiosities wake: new evidence is exactly the signal dormancy
// waits for. Evolving a resolved curiosity fails with InvalidStateError.
func (e *Engine) Evolve(id, evidence string) (*store.Entry, error) {
	if evidence == "" {
		return nil, &store.ValidationError{Field: "evidence", Value: "", Reason: "must not be empty"}
	}

	s, _, err := e.load()
	if err != nil {
		return nil, err
	}

	entry := s.Get(id)
	if entry == nil || entry.Type != store.TypeCuriosity {
		return nil, &store.NotFoundError{ID: id, Want: store.TypeCuriosity}
	}
	if entry.Status == store.StatusResolved {
		return nil, &store.InvalidStateError{ID: id, State: entry.Status, Op: "evolve"}
	}

	entry.Evidence = append(entry.Evidence, evidence)
	entry.Status = store.StatusEvolving
	entry.ReinforcementCount++
	entry.Touch(e.now())

	if err := e.File.Save(s); err != nil {
		return nil, err
	}
	return entry, nil
}

// Resolve closes a curiosity and creates the entry it resolved into: a new
// record of a non-curiosity type whose confidence is seeded from the
// curiosity's final effective confidence. The curiosity is retained for
// audit, terminal and frozen; both mutations land in one save.
func (e *Engine) Resolve(id, resolution string, target store.EntryType) (*store.Entry, error) {
	if !store.ValidType(target) || target == store.TypeCuriosity {
		return nil, &store.ValidationError{
			Field:  "target_type",
			Value:  string(target),
			Reason: "must be a non-curiosity entry type",
		}
	}

	s, cfg, err := e.load()
	if err != nil {
		return nil, err
	}

	entry := s.Get(id)
	if entry == nil || entry.Type != store.TypeCuriosity {
		return nil, &store.NotFoundError{ID: id, Want: store.TypeCuriosity}
	}
	if entry.Status == store.StatusResolved {
		return nil, &store.InvalidStateError{ID: id, State: entry.Status, Op: "resolve"}
	}

	now := e.now()
	seed := Effective(entry, cfg, now)

	entry.Status = store.StatusResolved
	entry.Touch(now)

	// Built directly rather than through Create: resolution must yield
	// exactly one new entry, never a duplicate-merge.
	resolved, err := store.NewEntry(now, target, resolution, seed, entry.Domain)
	if err != nil {
		return nil, err
	}
	resolved.Trace = []string{entry.ID}
	if err := s.Insert(resolved); err != nil {
		return nil, err
	}
	if target == store.TypeDecision {
		s.Meta.TotalDecisions++
	}

	if err := e.File.Save(s); err != nil {
		return nil, err
	}
	return resolved, nil
}
