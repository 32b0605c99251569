package config

// Config holds the tunable policy constants for decay, feedback, and lens
// compilation. It travels inside the store document's metadata so an operator
// can retune the system by editing the store file; zero values fall back to
// the defaults via Normalized.
type Config struct {
	// HalfLifeDays is the base exponential-decay half-life.
	HalfLifeDays float64 `json:"half_life_days"`

	// CuriosityHalfLifeMult stretches the half-life for curiosity entries.
	// Unresolved questions should outlive situational perceptions.
	CuriosityHalfLifeMult float64 `json:"curiosity_half_life_mult"`

	// PruningFloor is the effective-confidence threshold below which an
	// entry leaves the lens and is marked pruned (or dormant, for
	// curiosities). Entries are never deleted automatically.
	PruningFloor float64 `json:"pruning_floor"`

	// ReinforceDampen controls how much each reinforcement slows decay:
	// damping = 1 / (1 + reinforcement_count * ReinforceDampen).
	ReinforceDampen float64 `json:"reinforce_dampen"`

	// FeedbackStep is the base step size for feedback adjustments, scaled
	// by headroom (positive) or current confidence (negative).
	FeedbackStep float64 `json:"feedback_step"`

	// TraceWidth is how many recently reinforced active entries an
	// untargeted feedback call adjusts.
	TraceWidth int `json:"trace_width"`

	// DormancyDays is the inactivity window after which an active curiosity
	// goes dormant. New evidence wakes it.
	DormancyDays float64 `json:"dormancy_days"`

	// DuplicateThreshold is the token-set Jaccard similarity above which a
	// new entry reinforces an existing one instead of being inserted.
	DuplicateThreshold float64 `json:"duplicate_threshold"`

	// LensCaps limits how many entries of each type the compiled lens
	// includes, keyed by entry type name.
	LensCaps map[string]int `json:"lens_caps"`
}

// Default returns a Config with the stock tuning.
func Default() Config {
	return Config{
		HalfLifeDays:          7,
		CuriosityHalfLifeMult: 2.0,
		PruningFloor:          0.05,
		ReinforceDampen:       0.3,
		FeedbackStep:          0.25,
		TraceWidth:            3,
		DormancyDays:          14,
		DuplicateThreshold:    0.5,
		LensCaps: map[string]int{
			"override":   8,
			"protection": 8,
			"self_obs":   3,
			"curiosity":  3,
			"perception": 4,
			"decision":   3,
		},
	}
}

// Normalized fills zero-valued fields from Default. A hand-edited store file
// that drops a field keeps working with stock behavior.
func (c Config) Normalized() Config {
	d := Default()
	if c.HalfLifeDays <= 0 {
		c.HalfLifeDays = d.HalfLifeDays
	}
	if c.CuriosityHalfLifeMult <= 0 {
		c.CuriosityHalfLifeMult = d.CuriosityHalfLifeMult
	}
	if c.PruningFloor <= 0 {
		c.PruningFloor = d.PruningFloor
	}
	if c.ReinforceDampen <= 0 {
		c.ReinforceDampen = d.ReinforceDampen
	}
	if c.FeedbackStep <= 0 {
		c.FeedbackStep = d.FeedbackStep
	}
	if c.TraceWidth <= 0 {
		c.TraceWidth = d.TraceWidth
	}
	if c.DormancyDays <= 0 {
		c.DormancyDays = d.DormancyDays
	}
	if c.DuplicateThreshold <= 0 {
		c.DuplicateThreshold = d.DuplicateThreshold
	}
	if len(c.LensCaps) == 0 {
		c.LensCaps = d.LensCaps
	}
	return c
}

// CapFor returns the lens cap for an entry type name, falling back to the
// default cap for types missing from a hand-edited map.
func (c Config) CapFor(entryType string) int {
	if n, ok := c.LensCaps[entryType]; ok {
		return n
	}
	return Default().LensCaps[entryType]
}
