package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/fittracker/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListWorkouts returns the user's fichas, newest first, each with its
// exercises in template order.
func (db *DB) ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, type, created_at, updated_at
		 FROM workouts
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	result := []models.Workout{}
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating workouts: %w", err)
	}

	ids := make([]uuid.UUID, len(result))
	for i, w := range result {
		ids[i] = w.ID
	}
	byWorkout, err := loadExercises(ctx, db.Pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		if ex, ok := byWorkout[result[i].ID]; ok {
			result[i].Exercises = ex
		}
	}
	return result, nil
}

// GetWorkout retrieves a single ficha with its exercises.
func (db *DB) GetWorkout(ctx context.Context, id uuid.UUID, userID int) (*models.Workout, error) {
	return getWorkout(ctx, db.Pool, id, userID)
}

func getWorkout(ctx context.Context, q querier, id uuid.UUID, userID int) (*models.Workout, error) {
	row := q.QueryRow(ctx,
		`SELECT id, name, type, created_at, updated_at
		 FROM workouts
		 WHERE id = $1 AND user_id = $2`,
		id, userID)
	w, err := scanWorkout(row)
	if err != nil {
		return nil, err
	}

	byWorkout, err := loadExercises(ctx, q, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if ex, ok := byWorkout[id]; ok {
		w.Exercises = ex
	}
	return &w, nil
}

// CreateWorkout inserts a ficha and its exercises in one transaction.
func (db *DB) CreateWorkout(ctx context.Context, userID int, req models.WorkoutRequest) (*models.Workout, error) {
	id := uuid.New()
	var w *models.Workout
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO workouts (id, user_id, name, type) VALUES ($1, $2, $3, $4)`,
			id, userID, req.Name, string(req.Type))
		if err != nil {
			return fmt.Errorf("inserting workout: %w", err)
		}
		if err := insertExercises(ctx, tx, id, req.Exercises); err != nil {
			return err
		}
		w, err = getWorkout(ctx, tx, id, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// UpdateWorkout applies a patch to a ficha. A non-nil patch.Exercises
// replaces the template exercises. Recorded sessions are never touched.
func (db *DB) UpdateWorkout(ctx context.Context, id uuid.UUID, userID int, patch models.WorkoutPatch) (*models.Workout, error) {
	var typ *string
	if patch.Type != nil {
		s := string(*patch.Type)
		typ = &s
	}

	var w *models.Workout
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE workouts
			 SET name = COALESCE($3, name), type = COALESCE($4, type), updated_at = NOW()
			 WHERE id = $1 AND user_id = $2`,
			id, userID, patch.Name, typ)
		if err != nil {
			return fmt.Errorf("updating workout %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("workout %s: %w", id, ErrNotFound)
		}

		if patch.Exercises != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM exercises WHERE workout_id = $1`, id); err != nil {
				return fmt.Errorf("clearing exercises of %s: %w", id, err)
			}
			if err := insertExercises(ctx, tx, id, patch.Exercises); err != nil {
				return err
			}
		}

		w, err = getWorkout(ctx, tx, id, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// DeleteWorkout removes a ficha and its template exercises. Sessions that
// reference it are kept.
func (db *DB) DeleteWorkout(ctx context.Context, id uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("deleting workout %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout %s: %w", id, ErrNotFound)
	}
	return nil
}

func insertExercises(ctx context.Context, tx pgx.Tx, workoutID uuid.UUID, exercises []models.ExerciseRequest) error {
	if len(exercises) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, ex := range exercises {
		batch.Queue(
			`INSERT INTO exercises (id, workout_id, name, sets, reps, rest_time, video_url, image_url, order_index)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New(), workoutID, ex.Name, ex.Sets, ex.Reps, ex.RestSeconds(),
			nullString(ex.VideoURL), nullString(ex.ImageURL), i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting exercises: %w", err)
	}
	return nil
}

func scanWorkout(row pgx.Row) (models.Workout, error) {
	var (
		w   models.Workout
		typ string
	)
	if err := row.Scan(&w.ID, &w.Name, &typ, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return w, fmt.Errorf("workout: %w", ErrNotFound)
		}
		return w, fmt.Errorf("scanning workout: %w", err)
	}
	w.Type = models.WorkoutType(typ)
	w.Exercises = []models.Exercise{}
	return w, nil
}

// loadExercises fetches template exercises for the given fichas, grouped by
// ficha and ordered by order_index.
func loadExercises(ctx context.Context, q querier, workoutIDs []uuid.UUID) (map[uuid.UUID][]models.Exercise, error) {
	result := make(map[uuid.UUID][]models.Exercise, len(workoutIDs))
	if len(workoutIDs) == 0 {
		return result, nil
	}

	rows, err := q.Query(ctx,
		`SELECT id, workout_id, name, sets, reps, rest_time, COALESCE(video_url, ''), COALESCE(image_url, '')
		 FROM exercises
		 WHERE workout_id = ANY($1)
		 ORDER BY workout_id, order_index`,
		workoutIDs)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ex        models.Exercise
			workoutID uuid.UUID
		)
		if err := rows.Scan(&ex.ID, &workoutID, &ex.Name, &ex.Sets, &ex.Reps, &ex.RestTime, &ex.VideoURL, &ex.ImageURL); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result[workoutID] = append(result[workoutID], ex)
	}
	return result, rows.Err()
}
