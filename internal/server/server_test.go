package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clawdbot/metalens/internal/engine"
	"github.com/clawdbot/metalens/internal/store"
)

func testServer(t *testing.T) (*httptest.Server, *engine.Engine) {
	t.Helper()
	f := store.Open(filepath.Join(t.TempDir(), "metalens.json"))
	eng := engine.New(f)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	eng.SetClock(func() time.Time { return now })

	ts := httptest.NewServer(New(eng, "test"))
	t.Cleanup(ts.Close)
	return ts, eng
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts, _ := testServer(t)
	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("health body = %v", body)
	}
}

func TestAddAndStatus(t *testing.T) {
	ts, _ := testServer(t)

	resp := postJSON(t, ts.URL+"/api/entries", map[string]any{
		"type":       "override",
		"content":    "MUST check file exists before write",
		"confidence": 0.95,
		"domain":     "files",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var entry store.Entry
	json.NewDecoder(resp.Body).Decode(&entry)
	if entry.Type != store.TypeOverride || entry.Confidence != 0.95 {
		t.Errorf("entry = %+v", entry)
	}

	statusResp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer statusResp.Body.Close()

	var sum engine.Summary
	json.NewDecoder(statusResp.Body).Decode(&sum)
	if sum.Active != 1 || sum.TotalEntries != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestAddInvalidType(t *testing.T) {
	ts, _ := testServer(t)
	resp := postJSON(t, ts.URL+"/api/entries", map[string]any{
		"type":    "vibe",
		"content": "not a recognized type",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if !strings.Contains(body["error"], "vibe") {
		t.Errorf("error should name the offending type, got %q", body["error"])
	}
}

func TestFeedbackUnknownIDIs404(t *testing.T) {
	ts, _ := testServer(t)
	resp := postJSON(t, ts.URL+"/api/feedback", map[string]any{
		"polarity": -1,
		"context":  "wrong diagnosis",
		"ids":      []string{"O-nosuch"},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if !strings.Contains(body["error"], "O-nosuch") {
		t.Errorf("error should name the missing id, got %q", body["error"])
	}
}

func TestCuriosityLifecycleOverHTTP(t *testing.T) {
	ts, _ := testServer(t)

	resp := postJSON(t, ts.URL+"/api/curiosities", map[string]any{
		"content":    "does the retry budget ever exhaust",
		"confidence": 0.7,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var c store.Entry
	json.NewDecoder(resp.Body).Decode(&c)

	evolveURL := fmt.Sprintf("%s/api/curiosities/%s/evolve", ts.URL, c.ID)
	resp = postJSON(t, evolveURL, map[string]any{"evidence": "saw it exhaust under load"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("evolve status = %d, want 200", resp.StatusCode)
	}
	var evolved store.Entry
	json.NewDecoder(resp.Body).Decode(&evolved)
	if evolved.Status != store.StatusEvolving {
		t.Errorf("status = %s, want evolving", evolved.Status)
	}

	resolveURL := fmt.Sprintf("%s/api/curiosities/%s/resolve", ts.URL, c.ID)
	resp = postJSON(t, resolveURL, map[string]any{
		"resolution": "budget exhausts at sustained 50 rps",
		"type":       "perception",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("resolve status = %d, want 201", resp.StatusCode)
	}

	// Evolving a resolved curiosity maps to 409.
	resp = postJSON(t, evolveURL, map[string]any{"evidence": "late evidence"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("evolve after resolve status = %d, want 409", resp.StatusCode)
	}
}

func TestLensEndpoint(t *testing.T) {
	ts, _ := testServer(t)
	postJSON(t, ts.URL+"/api/entries", map[string]any{
		"type":       "override",
		"content":    "enforced rule shows in the lens",
		"confidence": 0.9,
	})

	resp, err := http.Get(ts.URL + "/api/lens")
	if err != nil {
		t.Fatalf("GET lens: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "enforced rule shows in the lens") {
		t.Errorf("lens body missing entry:\n%s", body)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/markdown") {
		t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
	}
}

func TestDecayEndpoint(t *testing.T) {
	ts, _ := testServer(t)
	resp := postJSON(t, ts.URL+"/api/decay", map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]int
	json.NewDecoder(resp.Body).Decode(&body)
	if body["marked"] != 0 {
		t.Errorf("marked = %d, want 0 on empty store", body["marked"])
	}
}
