package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntryType is the kind of a memory entry. Fixed at creation; a curiosity
// that resolves spawns a new entry of another type rather than mutating.
type EntryType string

const (
	TypePerception EntryType = "perception"
	TypeOverride   EntryType = "override"
	TypeProtection EntryType = "protection"
	TypeSelfObs    EntryType = "self_obs"
	TypeDecision   EntryType = "decision"
	TypeCuriosity  EntryType = "curiosity"
)

// idPrefixes maps each type to its id prefix. Protection uses "G" (guard)
// so it does not collide with perception.
var idPrefixes = map[EntryType]string{
	TypePerception: "P",
	TypeOverride:   "O",
	TypeProtection: "G",
	TypeSelfObs:    "S",
	TypeDecision:   "D",
	TypeCuriosity:  "C",
}

// Types lists all entry types in their fixed lens section order.
func Types() []EntryType {
	return []EntryType{
		TypeOverride,
		TypeProtection,
		TypeSelfObs,
		TypeCuriosity,
		TypePerception,
		TypeDecision,
	}
}

// ValidType reports whether t is one of the six recognized entry types.
func ValidType(t EntryType) bool {
	_, ok := idPrefixes[t]
	return ok
}

// Status is an entry's lifecycle tag. Curiosities move through
// active → evolving → resolved with a reversible dormant side branch;
// other types are active until weakened (by feedback) or pruned (by decay).
type Status string

const (
	StatusActive   Status = "active"
	StatusEvolving Status = "evolving"
	StatusDormant  Status = "dormant"
	StatusResolved Status = "resolved"
	StatusWeakened Status = "weakened"
	StatusPruned   Status = "pruned"
)

// maxContentRunes caps entry content length on create.
const maxContentRunes = 500

// Entry is a single typed record in the store.
type Entry struct {
	ID                 string    `json:"id"`
	Type               EntryType `json:"type"`
	Content            string    `json:"content"`
	Confidence         float64   `json:"confidence"`
	Domain             string    `json:"domain,omitempty"`
	Status             Status    `json:"status"`
	Evidence           []string  `json:"evidence,omitempty"`
	Trace              []string  `json:"trace,omitempty"`
	ReinforcementCount int       `json:"reinforcement_count"`
	CreatedAt          time.Time `json:"created_at"`
	LastReinforcedAt   time.Time `json:"last_reinforced_at"`
}

// NewEntry builds (but does not insert) an entry with a generated id,
// timestamps, and the initial active status. Confidence outside [0,1] is
// clamped rather than rejected — a policy choice to keep callers forgiving,
// not a correctness requirement.
func NewEntry(now time.Time, t EntryType, content string, confidence float64, domain string) (*Entry, error) {
	if !ValidType(t) {
		return nil, &ValidationError{Field: "type", Value: string(t), Reason: "not a recognized entry type"}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Value: "", Reason: "must not be empty"}
	}
	if r := []rune(content); len(r) > maxContentRunes {
		content = string(r[:maxContentRunes])
	}

	return &Entry{
		ID:               newID(t),
		Type:             t,
		Content:          content,
		Confidence:       Clamp(confidence),
		Domain:           domain,
		Status:           StatusActive,
		CreatedAt:        now,
		LastReinforcedAt: now,
	}, nil
}

// Touch advances LastReinforcedAt. It never moves backwards.
func (e *Entry) Touch(now time.Time) {
	if now.After(e.LastReinforcedAt) {
		e.LastReinforcedAt = now
	}
}

// Clamp bounds a confidence value to [0,1].
func Clamp(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func newID(t EntryType) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s-%s", idPrefixes[t], suffix)
}

// similarity returns the token-set Jaccard index of two content strings.
// Intentionally cheap — matching is signal-based, not semantic.
func similarity(a, b string) float64 {
	ta := tokens(a)
	tb := tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for tok := range ta {
		if tb[tok] {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 1
	}
	return float64(shared) / float64(union)
}

func tokens(s string) map[string]bool {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]bool, len(fields))
	for _, f := range fields {
		m[f] = true
	}
	return m
}
