package engine

import (
	"math"
	"time"

	"github.com/clawdbot/metalens/internal/config"
	"github.com/clawdbot/metalens/internal/store"
)

// Effective computes an entry's decay-adjusted confidence at time now:
//
//	decay    = 0.5 ^ (elapsed / halfLife)
//	damping  = 1 / (1 + reinforcement_count * ReinforceDampen)
//	effective = confidence * decay ^ damping
//
// Repeated reinforcement slows decay; curiosities use a stretched half-life
// so open questions persist longer than situational perceptions. The result
// is never written back here — only ApplyDecay persists it.
func Effective(e *store.Entry, cfg config.Config, now time.Time) float64 {
	elapsed := now.Sub(e.LastReinforcedAt)
	if elapsed <= 0 {
		return store.Clamp(e.Confidence)
	}

	halfLife := cfg.HalfLifeDays
	if e.Type == store.TypeCuriosity {
		halfLife *= cfg.CuriosityHalfLifeMult
	}

	days := elapsed.Hours() / 24
	decay := math.Pow(0.5, days/halfLife)
	damping := 1 / (1 + float64(e.ReinforcementCount)*cfg.ReinforceDampen)
	return store.Clamp(e.Confidence * math.Pow(decay, damping))
}

// ApplyDecay persists effective confidence into every non-resolved,
// non-dormant entry and applies the lifecycle consequences: entries falling
// below the pruning floor are marked pruned (dormant for curiosities, a
// reversible branch), and curiosities untouched for longer than the dormancy
// window go dormant. Nothing is ever deleted. Returns how many entries were
// marked pruned or dormant.
func (e *Engine) ApplyDecay() (int, error) {
	s, cfg, err := e.load()
	if err != nil {
		return 0, err
	}

	now := e.now()
	marked := 0
	for _, entry := range s.Entries {
		if entry.Status == store.StatusResolved || entry.Status == store.StatusDormant {
			continue
		}

		entry.Confidence = Effective(entry, cfg, now)

		switch {
		case entry.Type == store.TypeCuriosity &&
			(entry.Confidence < cfg.PruningFloor || now.Sub(entry.LastReinforcedAt).Hours()/24 >= cfg.DormancyDays):
			entry.Status = store.StatusDormant
			marked++
		case entry.Type != store.TypeCuriosity && entry.Confidence < cfg.PruningFloor && entry.Status != store.StatusPruned:
			entry.Status = store.StatusPruned
			marked++
		}
	}

	if err := e.File.Save(s); err != nil {
		return 0, err
	}
	return marked, nil
}
