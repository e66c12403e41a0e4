package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/claude/fittracker/internal/models"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Settings(userIDFromContext(r)))
}

// handleUpdateSettings merges the body over the current settings, so a
// client may send only the keys it changes.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	data, ok := readBody(w, r)
	if !ok {
		return
	}

	st := s.svc.Settings(uid)
	if err := json.Unmarshal(data, &st); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.svc.UpdateSettings(r.Context(), uid, st); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	var typ models.WorkoutType
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, ok := models.NormalizeWorkoutType(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown workout type " + strconv.Quote(raw)})
			return
		}
		typ = t
	}
	exercises, err := s.svc.ExerciseLibrary(r.Context(), userIDFromContext(r), r.URL.Query().Get("q"), typ)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.svc.ImportLogs(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
