package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/storage"
	"github.com/google/uuid"
)

func workoutsKey(userID int) string {
	return fmt.Sprintf("workouts:%d", userID)
}

// ListWorkouts returns the user's fichas, newest first. The list is cached
// per user until the next write.
func (s *Service) ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error) {
	key := workoutsKey(userID)
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("workout cache read failed", "user_id", userID, "error", err)
	} else if ok {
		var workouts []models.Workout
		if err := json.Unmarshal(data, &workouts); err == nil {
			return workouts, nil
		}
		s.log.Warn("discarding corrupt workout cache entry", "user_id", userID)
	}

	workouts, err := s.store.ListWorkouts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing workouts: %w", err)
	}
	if data, err := json.Marshal(workouts); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			s.log.Warn("workout cache write failed", "user_id", userID, "error", err)
		}
	}
	return workouts, nil
}

func (s *Service) invalidateWorkouts(ctx context.Context, userID int) {
	if err := s.cache.Delete(ctx, workoutsKey(userID)); err != nil {
		s.log.Warn("workout cache invalidation failed", "user_id", userID, "error", err)
	}
}

// GetWorkout returns one ficha or ErrWorkoutNotFound.
func (s *Service) GetWorkout(ctx context.Context, userID int, id uuid.UUID) (*models.Workout, error) {
	w, err := s.store.GetWorkout(ctx, id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrWorkoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting workout %s: %w", id, err)
	}
	return w, nil
}

// CreateWorkout validates and stores a ficha. Loose type labels such as
// "ficha b" are accepted.
func (s *Service) CreateWorkout(ctx context.Context, userID int, req models.WorkoutRequest) (*models.Workout, error) {
	req.Name = strings.TrimSpace(req.Name)
	if t, ok := models.NormalizeWorkoutType(string(req.Type)); ok {
		req.Type = t
	}
	if req.Exercises == nil {
		req.Exercises = []models.ExerciseRequest{}
	}
	if err := s.check(req); err != nil {
		return nil, err
	}

	w, err := s.store.CreateWorkout(ctx, userID, req)
	if err != nil {
		s.log.Error("create workout failed", "user_id", userID, "name", req.Name, "error", err)
		return nil, fmt.Errorf("creating workout: %w", err)
	}
	s.invalidateWorkouts(ctx, userID)
	return w, nil
}

// UpdateWorkout applies a partial update.
func (s *Service) UpdateWorkout(ctx context.Context, userID int, id uuid.UUID, patch models.WorkoutPatch) (*models.Workout, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.Type != nil {
		if t, ok := models.NormalizeWorkoutType(string(*patch.Type)); ok {
			patch.Type = &t
		}
	}
	if err := s.check(patch); err != nil {
		return nil, err
	}

	w, err := s.store.UpdateWorkout(ctx, id, userID, patch)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrWorkoutNotFound
	}
	if err != nil {
		s.log.Error("update workout failed", "user_id", userID, "workout_id", id, "error", err)
		return nil, fmt.Errorf("updating workout %s: %w", id, err)
	}
	s.invalidateWorkouts(ctx, userID)
	return w, nil
}

// DeleteWorkout removes a ficha. Its recorded sessions are kept.
func (s *Service) DeleteWorkout(ctx context.Context, userID int, id uuid.UUID) error {
	err := s.store.DeleteWorkout(ctx, id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrWorkoutNotFound
	}
	if err != nil {
		s.log.Error("delete workout failed", "user_id", userID, "workout_id", id, "error", err)
		return fmt.Errorf("deleting workout %s: %w", id, err)
	}
	s.invalidateWorkouts(ctx, userID)
	return nil
}
