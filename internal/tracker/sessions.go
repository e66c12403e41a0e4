package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/photos"
	"github.com/claude/fittracker/internal/report"
	"github.com/claude/fittracker/internal/stats"
	"github.com/claude/fittracker/internal/storage"
	"github.com/google/uuid"
)

// ListSessions returns the history filtered by status and, when day is
// non-nil, by calendar day in the service location. Newest first.
func (s *Service) ListSessions(ctx context.Context, userID int, status models.SessionStatus, day *time.Time) ([]models.SessionDetail, error) {
	sessions, err := s.store.ListSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	sessions = stats.FilterSessions(sessions, status)
	if day != nil {
		sessions = stats.SessionsOn(sessions, *day, s.loc)
	}

	names, err := s.workoutNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.SessionDetail, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, models.SessionDetail{WorkoutSession: sess, WorkoutName: names[sess.WorkoutID]})
	}
	return out, nil
}

func (s *Service) workoutNames(ctx context.Context, userID int) (map[uuid.UUID]string, error) {
	workouts, err := s.ListWorkouts(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(workouts))
	for _, w := range workouts {
		names[w.ID] = w.Name
	}
	return names, nil
}

// GetSession returns one session with its ficha name, blank when the ficha
// has been deleted.
func (s *Service) GetSession(ctx context.Context, userID int, id uuid.UUID) (*models.SessionDetail, error) {
	sess, err := s.store.GetSession(ctx, id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}

	detail := &models.SessionDetail{WorkoutSession: *sess}
	w, err := s.store.GetWorkout(ctx, sess.WorkoutID, userID)
	switch {
	case err == nil:
		detail.WorkoutName = w.Name
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, fmt.Errorf("getting workout of session %s: %w", id, err)
	}
	return detail, nil
}

// StartSession returns an unsaved session for a ficha: a fresh copy of its
// exercises, none completed, dated now.
func (s *Service) StartSession(ctx context.Context, userID int, workoutID uuid.UUID) (*models.WorkoutSession, error) {
	w, err := s.GetWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	return &models.WorkoutSession{
		WorkoutID: w.ID,
		Date:      s.now(),
		Exercises: snapshot(w.Exercises),
	}, nil
}

func snapshot(exercises []models.Exercise) []models.Exercise {
	out := make([]models.Exercise, len(exercises))
	for i, ex := range exercises {
		out[i] = ex
		out[i].Completed = false
		if ex.Weight != nil {
			w := *ex.Weight
			out[i].Weight = &w
		}
	}
	return out
}

// CreateSession records a session for an existing ficha. A zero date means
// now and nil exercises means a copy of the ficha's template.
func (s *Service) CreateSession(ctx context.Context, userID int, req models.SessionRequest) (*models.WorkoutSession, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	w, err := s.GetWorkout(ctx, userID, req.WorkoutID)
	if err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		req.Date = s.now()
	}
	if req.Exercises == nil {
		req.Exercises = snapshot(w.Exercises)
	}

	sess, err := s.store.CreateSession(ctx, userID, req)
	if err != nil {
		s.log.Error("create session failed", "user_id", userID, "workout_id", req.WorkoutID, "error", err)
		return nil, fmt.Errorf("creating session: %w", err)
	}
	s.metrics.SessionRecorded()
	return sess, nil
}

// UploadSessionPhoto stores a photo and attaches its URL to the session.
func (s *Service) UploadSessionPhoto(ctx context.Context, userID int, sessionID uuid.UUID, filename string, body io.Reader) (string, error) {
	if s.photos == nil {
		return "", ErrPhotosDisabled
	}
	if _, err := s.GetSession(ctx, userID, sessionID); err != nil {
		return "", err
	}
	url, err := s.photos.Upload(ctx, userID, sessionID, filename, body)
	if errors.Is(err, photos.ErrUnsupportedType) {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err != nil {
		s.log.Error("photo upload failed", "user_id", userID, "session_id", sessionID, "error", err)
		return "", err
	}
	if err := s.attach(ctx, userID, sessionID, url); err != nil {
		return "", err
	}
	return url, nil
}

// AddSessionPhotoURL attaches an externally hosted photo.
func (s *Service) AddSessionPhotoURL(ctx context.Context, userID int, sessionID uuid.UUID, url string) error {
	if err := s.validate.Var(url, "required,url"); err != nil {
		return fmt.Errorf("%w: url: %s", ErrInvalidInput, url)
	}
	return s.attach(ctx, userID, sessionID, url)
}

func (s *Service) attach(ctx context.Context, userID int, sessionID uuid.UUID, url string) error {
	err := s.store.AddSessionPhoto(ctx, sessionID, userID, url)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("adding photo to session %s: %w", sessionID, err)
	}
	return nil
}

// Stats aggregates the user's whole history as of now.
func (s *Service) Stats(ctx context.Context, userID int) (models.WorkoutStats, error) {
	sessions, err := s.store.ListSessions(ctx, userID)
	if err != nil {
		return models.WorkoutStats{}, fmt.Errorf("listing sessions: %w", err)
	}
	return stats.Compute(sessions, s.now().In(s.loc), s.settings.Get(userID).WeeklyGoal), nil
}

// SessionReport renders the downloadable report of a session.
func (s *Service) SessionReport(ctx context.Context, userID int, id uuid.UUID, format report.Format) (*report.Document, error) {
	detail, err := s.GetSession(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.reports.Render(detail.WorkoutSession, detail.WorkoutName, format)
}
