package server

import (
	"io"
	"net/http"

	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/tracker"
)

// handleValidateImport checks an import document without storing anything.
// Problems are reported with 200 so clients can show them as a preview.
func (s *Server) handleValidateImport(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	res, err := s.svc.ValidateImport(r.Context(), data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	workouts := res.Workouts
	if workouts == nil {
		workouts = []models.WorkoutRequest{}
	}
	problems := res.Problems
	if problems == nil {
		problems = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":    res.OK(),
		"workouts": workouts,
		"errors":   problems,
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	created, err := s.svc.ImportWorkouts(r.Context(), userIDFromContext(r), data, tracker.SourceImport)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"imported": created})
}

// handleExportWorkouts downloads every ficha in import format.
func (s *Server) handleExportWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.svc.ExportWorkouts(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if workouts == nil {
		workouts = []models.Workout{}
	}
	attachment(w, "fichas-"+s.today()+".json")
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	backup, err := s.svc.ExportBackup(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	attachment(w, "fittracker-backup-"+backup.ExportDate.In(s.svc.Location()).Format("2006-01-02")+".json")
	writeJSON(w, http.StatusOK, backup)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var backup models.Backup
	if !decodeJSON(w, r, &backup) {
		return
	}
	result, err := s.svc.RestoreBackup(r.Context(), userIDFromContext(r), backup)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) today() string {
	return s.svc.Now().In(s.svc.Location()).Format("2006-01-02")
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return nil, false
	}
	return data, true
}
