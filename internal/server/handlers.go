package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/claude/fittracker/internal/importer"
	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/report"
	"github.com/claude/fittracker/internal/settings"
	"github.com/claude/fittracker/internal/tracker"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.svc.ListWorkouts(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var req models.WorkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	workout, err := s.svc.CreateWorkout(r.Context(), userIDFromContext(r), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, workout)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	workout, err := s.svc.GetWorkout(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch models.WorkoutPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	workout, err := s.svc.UpdateWorkout(r.Context(), userIDFromContext(r), id, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteWorkout(r.Context(), userIDFromContext(r), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sess, err := s.svc.StartSession(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	status, ok := models.ParseSessionStatus(r.URL.Query().Get("status"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be all, completed or incomplete"})
		return
	}

	var day *time.Time
	if d := r.URL.Query().Get("date"); d != "" {
		t, err := time.ParseInLocation("2006-01-02", d, s.svc.Location())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = &t
	}

	sessions, err := s.svc.ListSessions(r.Context(), userIDFromContext(r), status, day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.svc.CreateSession(r.Context(), userIDFromContext(r), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sess, err := s.svc.GetSession(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleExportSession downloads one session as JSON.
func (s *Server) handleExportSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sess, err := s.svc.GetSession(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	attachment(w, report.FileName(sess.Date.In(s.svc.Location()), "json"))
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	doc, err := s.svc.SessionReport(r.Context(), userIDFromContext(r), id, format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	attachment(w, doc.Filename)
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Body)
}

// handleSessionPhoto attaches a photo to a session. A multipart body uploads
// the "photo" file to object storage; a JSON body {"url": ...} attaches an
// existing URL.
func (s *Server) handleSessionPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	uid := userIDFromContext(r)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)
		if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body: " + err.Error()})
			return
		}
		file, header, err := r.FormFile("photo")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "photo file required"})
			return
		}
		defer file.Close()

		url, err := s.svc.UploadSessionPhoto(r.Context(), uid, id, header.Filename, file)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"url": url})
		return
	}

	var body struct {
		URL string `json:"url"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := s.svc.AddSessionPhotoURL(r.Context(), uid, id, body.URL); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": body.URL})
}

// writeError maps service errors to HTTP responses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var importErr *tracker.ImportError
	var partial *importer.PartialError
	switch {
	case errors.As(err, &importErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": importErr.Problems})
	case errors.As(err, &partial):
		s.log.Error("import stopped part way", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":    err.Error(),
			"imported": partial.Created,
		})
	case errors.Is(err, tracker.ErrWorkoutNotFound), errors.Is(err, tracker.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, tracker.ErrInvalidInput), errors.Is(err, settings.ErrInvalidSettings):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, tracker.ErrPhotosDisabled):
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}

func attachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
