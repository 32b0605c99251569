package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clawdbot/metalens/internal/config"
	"github.com/clawdbot/metalens/internal/store"
)

// Injection markers in the bootstrap document. Content strictly between them
// is replaced on inject; they are never created by this package.
const (
	StartMarker = "<!-- LIVE_STATE_START -->"
	EndMarker   = "<!-- LIVE_STATE_END -->"
)

// sectionHeaders render each type's block in the fixed section order
// returned by store.Types().
var sectionHeaders = map[store.EntryType]string{
	store.TypeOverride:   "**Override rules** (failure-learned, non-negotiable):",
	store.TypeProtection: "**Protected behaviors** (working, do not break):",
	store.TypeSelfObs:    "**Self-model** (observed own patterns):",
	store.TypeCuriosity:  "**Active curiosities** (watch for evidence):",
	store.TypePerception: "**Active lens** (apply before processing):",
	store.TypeDecision:   "**Recent decisions** (traced):",
}

// ranked is an entry paired with its effective confidence at compile time.
type ranked struct {
	Entry     *store.Entry
	Effective float64
}

// selectLens filters and ranks the active subset: resolved and dormant
// entries are out, as is anything whose effective confidence sits below the
// pruning floor. Within a type: effective confidence descending, then most
// recently reinforced, then id — a total order, so compilation is
// deterministic for a given snapshot and timestamp.
func selectLens(s *store.Store, cfg config.Config, now time.Time) map[store.EntryType][]ranked {
	byType := make(map[store.EntryType][]ranked)
	for _, entry := range s.Entries {
		if entry.Status == store.StatusResolved || entry.Status == store.StatusDormant {
			continue
		}
		eff := Effective(entry, cfg, now)
		if eff < cfg.PruningFloor {
			continue
		}
		byType[entry.Type] = append(byType[entry.Type], ranked{Entry: entry, Effective: eff})
	}

	for t, group := range byType {
		sort.Slice(group, func(i, j int) bool {
			if group[i].Effective != group[j].Effective {
				return group[i].Effective > group[j].Effective
			}
			if !group[i].Entry.LastReinforcedAt.Equal(group[j].Entry.LastReinforcedAt) {
				return group[i].Entry.LastReinforcedAt.After(group[j].Entry.LastReinforcedAt)
			}
			return group[i].Entry.ID < group[j].Entry.ID
		})
		if limit := cfg.CapFor(string(t)); len(group) > limit {
			group = group[:limit]
		}
		byType[t] = group
	}
	return byType
}

// CompileLens renders the active subset of a store snapshot into the
// directive text block. Two compiles of the same snapshot at the same
// instant are byte-identical.
func CompileLens(s *store.Store, now time.Time) string {
	cfg := s.Config.Normalized()
	byType := selectLens(s, cfg, now)

	var b strings.Builder
	fmt.Fprintf(&b, "*Lens compiled %s — self-evolving from every experience*\n",
		now.UTC().Format(time.RFC3339))

	for _, t := range store.Types() {
		group := byType[t]
		if len(group) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(sectionHeaders[t])
		b.WriteString("\n")
		for _, r := range group {
			b.WriteString(directiveLine(t, r))
			b.WriteString("\n")
		}
	}

	active := 0
	for _, entry := range s.Entries {
		if entry.Status != store.StatusResolved {
			active++
		}
	}
	decisions := s.Meta.TotalDecisions
	uncorrected := 100.0
	if decisions > 0 {
		uncorrected = (1 - float64(s.Meta.TotalCorrections)/float64(decisions)) * 100
		if uncorrected < 0 {
			uncorrected = 0
		}
	}
	fmt.Fprintf(&b, "\n*%d active entries | %d decisions traced | %.0f%% uncorrected*\n",
		active, decisions, uncorrected)

	return b.String()
}

// directiveLine renders one entry as an imperative directive, with the
// per-type annotation that matters for that kind of entry.
func directiveLine(t store.EntryType, r ranked) string {
	e := r.Entry
	switch t {
	case store.TypeOverride:
		if e.Domain != "" {
			return fmt.Sprintf("- **%s**: %s", e.Domain, e.Content)
		}
		return "- " + e.Content
	case store.TypeSelfObs:
		return fmt.Sprintf("- [%d%%] %s", int(r.Effective*100), e.Content)
	case store.TypeCuriosity:
		return fmt.Sprintf("- [%s|%d evidence] %s", e.Status, len(e.Evidence), e.Content)
	case store.TypePerception:
		return fmt.Sprintf("- [%.2f] %s", r.Effective, e.Content)
	case store.TypeDecision:
		if len(e.Trace) > 0 {
			return fmt.Sprintf("- %s (trace: %s)", e.Content, strings.Join(e.Trace, ", "))
		}
		return "- " + e.Content
	default:
		return "- " + e.Content
	}
}

// Compile loads the store and renders the lens at the engine's current time.
func (e *Engine) Compile() (string, error) {
	s, _, err := e.load()
	if err != nil {
		return "", err
	}
	return CompileLens(s, e.now()), nil
}

// Splice replaces the content strictly between the two marker lines in
// document with block, leaving everything outside the markers untouched.
// Fails with MarkerNotFoundError if either marker is absent; markers are
// never created.
func Splice(document, block string) (string, error) {
	start := strings.Index(document, StartMarker)
	if start < 0 {
		return "", &store.MarkerNotFoundError{Marker: StartMarker}
	}
	afterStart := start + len(StartMarker)

	endRel := strings.Index(document[afterStart:], EndMarker)
	if endRel < 0 {
		return "", &store.MarkerNotFoundError{Marker: EndMarker}
	}
	end := afterStart + endRel

	return document[:afterStart] + "\n" + block + document[end:], nil
}

// Inject compiles the lens and splices it into the given bootstrap document
// text, returning the full modified document for the caller to persist.
func (e *Engine) Inject(document string) (string, error) {
	lens, err := e.Compile()
	if err != nil {
		return "", err
	}
	return Splice(document, lens)
}
