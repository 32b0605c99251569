package engine

import (
	"github.com/clawdbot/metalens/internal/store"
)

// EntryView is a read-only projection of an entry with its effective
// confidence at query time.
type EntryView struct {
	ID             string          `json:"id"`
	Type           store.EntryType `json:"type"`
	Content        string          `json:"content"`
	Domain         string          `json:"domain,omitempty"`
	Status         store.Status    `json:"status"`
	Effective      float64         `json:"effective_confidence"`
	Reinforcements int             `json:"reinforcements"`
	EvidenceCount  int             `json:"evidence_count"`
}

// Summary is the status/audit view of the store. Unlike the lens it lists
// dormant curiosities — they are excluded from injection, not from audit.
type Summary struct {
	TotalEntries     int                             `json:"total_entries"`
	Active           int                             `json:"active"`
	Resolved         int                             `json:"resolved"`
	TotalDecisions   int                             `json:"total_decisions"`
	TotalCorrections int                             `json:"total_corrections"`
	ByType           map[store.EntryType][]EntryView `json:"by_type"`
	Curiosities      []EntryView                     `json:"curiosities"`
}

// Status loads the store and summarizes it with fresh effective confidences.
func (e *Engine) Status() (*Summary, error) {
	s, cfg, err := e.load()
	if err != nil {
		return nil, err
	}
	now := e.now()

	sum := &Summary{
		TotalEntries:     len(s.Entries),
		TotalDecisions:   s.Meta.TotalDecisions,
		TotalCorrections: s.Meta.TotalCorrections,
		ByType:           make(map[store.EntryType][]EntryView),
	}

	for _, entry := range s.Entries {
		if entry.Status == store.StatusResolved {
			sum.Resolved++
		} else {
			sum.Active++
		}
	}

	byType := selectLens(s, cfg, now)
	for t, group := range byType {
		views := make([]EntryView, 0, len(group))
		for _, r := range group {
			views = append(views, view(r))
		}
		sum.ByType[t] = views
	}

	// Curiosity lifecycle audit: everything non-resolved, dormant included.
	for _, entry := range s.Entries {
		if entry.Type != store.TypeCuriosity || entry.Status == store.StatusResolved {
			continue
		}
		sum.Curiosities = append(sum.Curiosities, view(ranked{
			Entry:     entry,
			Effective: Effective(entry, cfg, now),
		}))
	}

	return sum, nil
}

func view(r ranked) EntryView {
	return EntryView{
		ID:             r.Entry.ID,
		Type:           r.Entry.Type,
		Content:        r.Entry.Content,
		Domain:         r.Entry.Domain,
		Status:         r.Entry.Status,
		Effective:      r.Effective,
		Reinforcements: r.Entry.ReinforcementCount,
		EvidenceCount:  len(r.Entry.Evidence),
	}
}
