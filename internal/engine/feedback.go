package engine

import (
	"fmt"
	"sort"

	"github.com/clawdbot/metalens/internal/store"
)

// Feedback applies a Hebbian-style update: entries that were active around a
// confirmed or corrected moment get adjusted, everything else is untouched.
//
// With explicit ids the call targets exactly those entries; any missing id
// fails the whole call with NotFoundError before anything is written. With no
// ids it targets the TraceWidth most recently reinforced, currently-active
// non-curiosity entries — a documented approximation of "whatever influenced
// the last response", since true causal attribution is not observable.
//
// Positive feedback adds a step scaled by headroom and counts as a
// reinforcement; negative feedback subtracts a step scaled by current
// confidence (confident claims are penalized harder) and halves the
// reinforcement count so repeatedly-wrong entries stop looking reinforced.
// Returns the adjusted entries.
func (e *Engine) Feedback(polarity int, context string, ids []string) ([]*store.Entry, error) {
	if polarity != 1 && polarity != -1 {
		return nil, &store.ValidationError{
			Field:  "polarity",
			Value:  fmt.Sprintf("%d", polarity),
			Reason: "must be +1 or -1",
		}
	}

	s, cfg, err := e.load()
	if err != nil {
		return nil, err
	}
	now := e.now()

	var targets []*store.Entry
	if len(ids) > 0 {
		for _, id := range ids {
			entry := s.Get(id)
			if entry == nil {
				return nil, &store.NotFoundError{ID: id}
			}
			targets = append(targets, entry)
		}
	} else {
		targets = recentActive(s, cfg.TraceWidth)
	}

	targetIDs := make([]string, len(targets))
	for i, t := range targets {
		targetIDs[i] = t.ID
	}
	s.FeedbackLog = append(s.FeedbackLog, store.FeedbackRecord{
		Time:     now,
		Polarity: polarity,
		Context:  context,
		EntryIDs: targetIDs,
	})
	if polarity < 0 {
		s.Meta.TotalCorrections++
	}

	for _, entry := range targets {
		if polarity > 0 {
			entry.Confidence = store.Clamp(entry.Confidence + cfg.FeedbackStep*(1-entry.Confidence))
			entry.ReinforcementCount++
			if entry.Confidence >= cfg.PruningFloor &&
				(entry.Status == store.StatusWeakened || entry.Status == store.StatusPruned) {
				entry.Status = store.StatusActive
			}
		} else {
			entry.Confidence = store.Clamp(entry.Confidence - cfg.FeedbackStep*entry.Confidence)
			entry.ReinforcementCount /= 2
			if entry.Confidence < cfg.PruningFloor {
				if entry.Type == store.TypeCuriosity {
					entry.Status = store.StatusDormant
				} else if entry.Status != store.StatusPruned {
					entry.Status = store.StatusWeakened
				}
			}
		}
		entry.Touch(now)
	}

	if err := e.File.Save(s); err != nil {
		return nil, err
	}
	return targets, nil
}

// recentActive selects the implicit feedback trace: the n most recently
// reinforced active entries across all non-curiosity types. Ties break by id
// so the selection is deterministic.
func recentActive(s *store.Store, n int) []*store.Entry {
	var active []*store.Entry
	for _, entry := range s.Entries {
		if entry.Type == store.TypeCuriosity || entry.Status != store.StatusActive {
			continue
		}
		active = append(active, entry)
	}

	sort.Slice(active, func(i, j int) bool {
		if !active[i].LastReinforcedAt.Equal(active[j].LastReinforcedAt) {
			return active[i].LastReinforcedAt.After(active[j].LastReinforcedAt)
		}
		return active[i].ID < active[j].ID
	})

	if len(active) > n {
		active = active[:n]
	}
	return active
}
