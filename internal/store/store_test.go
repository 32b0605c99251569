package store

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func testFile(t *testing.T) *File {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "metalens.json"))
}

func TestNewEntryValidation(t *testing.T) {
	_, err := NewEntry(t0, "belief", "some content", 0.5, "")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for unknown type, got %v", err)
	}
	if ve.Field != "type" {
		t.Errorf("field = %q, want type", ve.Field)
	}

	_, err = NewEntry(t0, TypeOverride, "   ", 0.5, "")
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty content, got %v", err)
	}
}

func TestNewEntryClampsConfidence(t *testing.T) {
	e, err := NewEntry(t0, TypeOverride, "check file exists before write", 1.5, "")
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if e.Confidence != 1.0 {
		t.Errorf("confidence = %f, want clamped to 1.0", e.Confidence)
	}

	e, _ = NewEntry(t0, TypeOverride, "never force push", -0.3, "")
	if e.Confidence != 0 {
		t.Errorf("confidence = %f, want clamped to 0", e.Confidence)
	}
}

func TestNewEntryDefaults(t *testing.T) {
	e, err := NewEntry(t0, TypeCuriosity, "does the scheduler drift overnight", 0.7, "ops")
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if e.Status != StatusActive {
		t.Errorf("status = %s, want active (born never persists)", e.Status)
	}
	if !strings.HasPrefix(e.ID, "C-") {
		t.Errorf("id = %q, want C- prefix", e.ID)
	}
	if !e.CreatedAt.Equal(t0) || !e.LastReinforcedAt.Equal(t0) {
		t.Error("timestamps not seeded from now")
	}
}

func TestIDPrefixesDistinct(t *testing.T) {
	seen := map[string]EntryType{}
	for _, et := range Types() {
		e, err := NewEntry(t0, et, "content for "+string(et), 0.5, "")
		if err != nil {
			t.Fatalf("NewEntry(%s): %v", et, err)
		}
		prefix := e.ID[:1]
		if prev, dup := seen[prefix]; dup {
			t.Errorf("prefix %q shared by %s and %s", prefix, prev, et)
		}
		seen[prefix] = et
	}
}

func TestNewEntryTruncatesContent(t *testing.T) {
	long := strings.Repeat("x", 600)
	e, err := NewEntry(t0, TypePerception, long, 0.5, "")
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if got := len([]rune(e.Content)); got != maxContentRunes {
		t.Errorf("content length = %d, want %d", got, maxContentRunes)
	}
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	s := NewStore(t0)
	a, _ := NewEntry(t0, TypeOverride, "first entry content", 0.5, "")
	b, _ := NewEntry(t0, TypeOverride, "second entry content", 0.5, "")
	b.ID = a.ID

	if err := s.Insert(a); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	var ve *ValidationError
	if err := s.Insert(b); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError on duplicate id, got %v", err)
	}
}

func TestCreateNearDuplicateReinforces(t *testing.T) {
	s := NewStore(t0)

	first, reinforced, err := s.Create(t0, TypeProtection, "backup cron runs nightly and is verified", 0.6, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if reinforced {
		t.Fatal("first create should not reinforce")
	}

	later := t0.Add(time.Hour)
	second, reinforced, err := s.Create(later, TypeProtection, "backup cron runs nightly and is verified daily", 0.6, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !reinforced {
		t.Fatal("near-duplicate should reinforce existing entry")
	}
	if second.ID != first.ID {
		t.Errorf("reinforced id = %s, want %s", second.ID, first.ID)
	}
	if second.ReinforcementCount != 1 {
		t.Errorf("reinforcement_count = %d, want 1", second.ReinforcementCount)
	}
	if math.Abs(second.Confidence-0.7) > 1e-9 {
		t.Errorf("confidence = %f, want 0.7 after reinforcement bump", second.Confidence)
	}
	if !second.LastReinforcedAt.Equal(later) {
		t.Error("last_reinforced_at not refreshed")
	}
	if len(s.Entries) != 1 {
		t.Errorf("entries = %d, want 1", len(s.Entries))
	}
}

func TestCreateDistinctContentInserts(t *testing.T) {
	s := NewStore(t0)
	s.Create(t0, TypePerception, "terse answers land better in reviews", 0.5, "")
	_, reinforced, err := s.Create(t0, TypePerception, "cron drift correlates with host reboots", 0.5, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if reinforced {
		t.Error("distinct content should insert, not reinforce")
	}
	if len(s.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(s.Entries))
	}
}

func TestCreateDifferentTypeNeverMerges(t *testing.T) {
	s := NewStore(t0)
	s.Create(t0, TypePerception, "always check disk space before large writes", 0.5, "")
	_, reinforced, _ := s.Create(t0, TypeOverride, "always check disk space before large writes", 0.9, "")
	if reinforced {
		t.Error("same content under a different type must not merge")
	}
}

func TestCreateCountsDecisions(t *testing.T) {
	s := NewStore(t0)
	s.Create(t0, TypeDecision, "chose sqlite-free json store for hand editability", 0.8, "")
	if s.Meta.TotalDecisions != 1 {
		t.Errorf("total_decisions = %d, want 1", s.Meta.TotalDecisions)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f := testFile(t)
	s := NewStore(t0)
	e, _, err := s.Create(t0, TypeOverride, "verify markers exist before injecting", 0.95, "bootstrap")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	e.Trace = []string{"D-abc123"}

	if err := f.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := loaded.Get(e.ID)
	if got == nil {
		t.Fatal("entry missing after reload")
	}
	if got.Type != TypeOverride || got.Confidence != 0.95 || got.Domain != "bootstrap" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Trace) != 1 || got.Trace[0] != "D-abc123" {
		t.Errorf("trace = %v", got.Trace)
	}
	if loaded.Config.HalfLifeDays != 7 {
		t.Errorf("config half_life_days = %f, want 7", loaded.Config.HalfLifeDays)
	}
}

func TestLoadMissingFileIsFreshStore(t *testing.T) {
	f := testFile(t)
	s, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(s.Entries))
	}
	if s.Config.PruningFloor != 0.05 {
		t.Errorf("pruning_floor = %f, want default", s.Config.PruningFloor)
	}
}

func TestLoadCorruptSurfacesError(t *testing.T) {
	f := testFile(t)
	if err := os.WriteFile(f.Path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := f.Load()
	var ce *CorruptError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CorruptError, got %v", err)
	}
	if ce.Path != f.Path {
		t.Errorf("path = %q, want %q", ce.Path, f.Path)
	}

	// The corrupt file must survive untouched — never silently reset.
	data, _ := os.ReadFile(f.Path)
	if string(data) != "{not json" {
		t.Error("corrupt store file was modified")
	}
}

func TestSaveIsFullRewrite(t *testing.T) {
	f := testFile(t)
	s := NewStore(t0)
	s.Create(t0, TypePerception, "short feedback loops keep the lens honest", 0.5, "")
	if err := f.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s2, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s2.Create(t0.Add(time.Minute), TypeOverride, "never write outside the workspace", 0.9, "")
	if err := f.Save(s2); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s3, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s3.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(s3.Entries))
	}
	if _, err := os.Stat(f.Path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Error("temp file left behind after save")
	}
}

func TestTouchIsMonotonic(t *testing.T) {
	e, _ := NewEntry(t0, TypePerception, "touch never moves backwards", 0.5, "")
	e.Touch(t0.Add(-time.Hour))
	if !e.LastReinforcedAt.Equal(t0) {
		t.Error("Touch moved last_reinforced_at backwards")
	}
	e.Touch(t0.Add(time.Hour))
	if !e.LastReinforcedAt.Equal(t0.Add(time.Hour)) {
		t.Error("Touch did not advance last_reinforced_at")
	}
}

func TestSimilarity(t *testing.T) {
	if got := similarity("alpha bravo charlie", "alpha bravo charlie"); got != 1 {
		t.Errorf("identical similarity = %f, want 1", got)
	}
	if got := similarity("alpha bravo", "delta echo"); got != 0 {
		t.Errorf("disjoint similarity = %f, want 0", got)
	}
	if got := similarity("", "anything"); got != 0 {
		t.Errorf("empty similarity = %f, want 0", got)
	}
}
