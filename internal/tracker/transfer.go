package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/fittracker/internal/importer"
	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/settings"
	"github.com/claude/fittracker/internal/storage"
	"github.com/google/uuid"
)

// Import log sources.
const (
	SourceImport  = "import"
	SourceRestore = "restore"
)

// ValidateImport parses an import document without storing anything.
func (s *Service) ValidateImport(_ context.Context, data []byte) (importer.Result, error) {
	return importer.Parse(data, s.importOpts), nil
}

// ImportWorkouts parses an import document and creates its fichas in order.
// An unusable document returns *ImportError and stores nothing. A store
// failure part way returns the fichas created so far and *importer.PartialError.
func (s *Service) ImportWorkouts(ctx context.Context, userID int, data []byte, source string) ([]models.Workout, error) {
	start := time.Now()
	res := importer.Parse(data, s.importOpts)
	if !res.OK() {
		s.logImport(userID, source, importRun{problems: res.Problems}, start)
		return nil, &ImportError{Problems: res.Problems}
	}

	created, err := importer.Run(ctx, s, userID, res.Workouts)
	s.logImport(userID, source, importRun{received: len(res.Workouts), workouts: len(created), err: err}, start)
	if err != nil {
		return created, err
	}
	s.log.Info("import finished", "user_id", userID, "source", source, "workouts", len(created))
	return created, nil
}

// ExportWorkouts returns every ficha in import format.
func (s *Service) ExportWorkouts(ctx context.Context, userID int) ([]models.Workout, error) {
	workouts, err := s.store.ListWorkouts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing workouts: %w", err)
	}
	return workouts, nil
}

// ExportBackup returns the user's full data set.
func (s *Service) ExportBackup(ctx context.Context, userID int) (*models.Backup, error) {
	workouts, err := s.ExportWorkouts(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.ListSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return &models.Backup{
		Workouts:   workouts,
		Sessions:   sessions,
		Settings:   s.settings.Get(userID),
		ExportDate: s.now(),
	}, nil
}

// RestoreBackup re-creates the fichas of b through the import path, then its
// sessions with workout ids mapped to the new fichas, then replaces the
// settings. Sessions whose ficha is not in the backup keep their reference.
// A zero WeeklyGoal means the backup carried no settings.
func (s *Service) RestoreBackup(ctx context.Context, userID int, b models.Backup) (*models.RestoreResult, error) {
	start := time.Now()

	restoreSettings := b.Settings.WeeklyGoal != 0
	if restoreSettings {
		if err := settings.Validate(b.Settings); err != nil {
			problems := []string{err.Error()}
			s.logImport(userID, SourceRestore, importRun{problems: problems}, start)
			return nil, &ImportError{Problems: problems}
		}
	}

	workouts := b.Workouts
	if workouts == nil {
		workouts = []models.Workout{}
	}
	data, err := json.Marshal(workouts)
	if err != nil {
		return nil, fmt.Errorf("encoding backup workouts: %w", err)
	}
	// Backups always use the array form.
	res := importer.Parse(data, importer.Options{AcceptObjectForm: true})
	if !res.OK() {
		s.logImport(userID, SourceRestore, importRun{problems: res.Problems}, start)
		return nil, &ImportError{Problems: res.Problems}
	}

	created, err := importer.Run(ctx, s, userID, res.Workouts)
	if err != nil {
		s.logImport(userID, SourceRestore, importRun{received: len(workouts), workouts: len(created), err: err}, start)
		return nil, err
	}

	ids := make(map[uuid.UUID]uuid.UUID, len(created))
	for i, w := range created {
		if old := workouts[i].ID; old != uuid.Nil {
			ids[old] = w.ID
		}
	}

	restored := 0
	for i, sess := range b.Sessions {
		workoutID := sess.WorkoutID
		if id, ok := ids[workoutID]; ok {
			workoutID = id
		}
		req := models.SessionRequest{
			WorkoutID: workoutID,
			Date:      sess.Date,
			Duration:  sess.Duration,
			Completed: sess.Completed,
			Notes:     sess.Notes,
			Photos:    sess.Photos,
			Exercises: sess.Exercises,
		}
		if req.Exercises == nil {
			req.Exercises = []models.Exercise{}
		}
		if _, err := s.store.CreateSession(ctx, userID, req); err != nil {
			err = fmt.Errorf("restoring session %d: %w", i, err)
			s.logImport(userID, SourceRestore, importRun{received: len(workouts), workouts: len(created), sessions: restored, err: err}, start)
			return nil, err
		}
		restored++
	}

	result := &models.RestoreResult{Workouts: created, Sessions: restored, Settings: s.settings.Get(userID)}
	if restoreSettings {
		if err := s.settings.Save(ctx, userID, b.Settings); err != nil {
			err = fmt.Errorf("restoring settings: %w", err)
			s.logImport(userID, SourceRestore, importRun{received: len(workouts), workouts: len(created), sessions: restored, err: err}, start)
			return nil, err
		}
		result.Settings = b.Settings
	}

	s.logImport(userID, SourceRestore, importRun{received: len(workouts), workouts: len(created), sessions: restored}, start)
	s.log.Info("restore finished", "user_id", userID, "workouts", len(created), "sessions", restored)
	return result, nil
}

type importRun struct {
	received int
	workouts int
	sessions int
	problems []string
	err      error
}

func (r importRun) status() string {
	var partial *importer.PartialError
	switch {
	case len(r.problems) > 0:
		return storage.ImportStatusInvalid
	case r.err == nil:
		return storage.ImportStatusSuccess
	case errors.As(r.err, &partial), r.workouts > 0:
		return storage.ImportStatusPartial
	default:
		return storage.ImportStatusError
	}
}

// logImport records the run in import_logs. It outlives the request context
// so cancelled imports are still logged.
func (s *Service) logImport(userID int, source string, run importRun, start time.Time) {
	status := run.status()
	elapsed := time.Since(start)
	durationMs := int(elapsed.Milliseconds())

	entry := storage.ImportLog{
		UserID:           userID,
		Source:           source,
		Status:           status,
		WorkoutsReceived: run.received,
		WorkoutsInserted: run.workouts,
		SessionsInserted: run.sessions,
		DurationMs:       &durationMs,
	}
	if run.err != nil {
		msg := run.err.Error()
		entry.ErrorMessage = &msg
	}
	if len(run.problems) > 0 {
		if meta, err := json.Marshal(map[string]any{"problems": run.problems}); err == nil {
			raw := json.RawMessage(meta)
			entry.Metadata = &raw
		}
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()
	if _, err := s.store.InsertImportLog(ctx, entry); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
	s.metrics.ImportFinished(source, status, elapsed)
}

// contextWithTimeout returns a background context with a 5-second timeout for import logging.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
