package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clawdbot/metalens/internal/store"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sum, err := s.eng.Status()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleLens(w http.ResponseWriter, r *http.Request) {
	lens, err := s.eng.Compile()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(lens))
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type       string   `json:"type"`
		Content    string   `json:"content"`
		Confidence float64  `json:"confidence"`
		Domain     string   `json:"domain"`
		Trace      []string `json:"trace"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	entry, err := s.eng.Add(store.EntryType(req.Type), req.Content, req.Confidence, req.Domain, req.Trace)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Polarity int      `json:"polarity"`
		Context  string   `json:"context"`
		IDs      []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	adjusted, err := s.eng.Feedback(req.Polarity, req.Context, req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}

	ids := make([]string, len(adjusted))
	for i, e := range adjusted {
		ids[i] = e.ID
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"adjusted": len(adjusted),
		"ids":      ids,
	})
}

func (s *Server) handleAddCuriosity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content    string  `json:"content"`
		Confidence float64 `json:"confidence"`
		Domain     string  `json:"domain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	entry, err := s.eng.AddCuriosity(req.Content, req.Confidence, req.Domain)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleEvolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Evidence string `json:"evidence"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	entry, err := s.eng.Evolve(id, req.Evidence)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Resolution string `json:"resolution"`
		Type       string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Type == "" {
		req.Type = string(store.TypePerception)
	}

	entry, err := s.eng.Resolve(id, req.Resolution, store.EntryType(req.Type))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	marked, err := s.eng.ApplyDecay()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": marked})
}
