package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/fittracker/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListSessions returns the user's sessions, newest first, with their
// exercise snapshots and photos.
func (db *DB) ListSessions(ctx context.Context, userID int) ([]models.WorkoutSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, workout_id, date, duration, completed, notes
		 FROM workout_sessions
		 WHERE user_id = $1
		 ORDER BY date DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	result := []models.WorkoutSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	if err := attachSessionDetails(ctx, db.Pool, result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetSession retrieves one session with its snapshots and photos.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID, userID int) (*models.WorkoutSession, error) {
	return getSession(ctx, db.Pool, id, userID)
}

func getSession(ctx context.Context, q querier, id uuid.UUID, userID int) (*models.WorkoutSession, error) {
	row := q.QueryRow(ctx,
		`SELECT id, workout_id, date, duration, completed, notes
		 FROM workout_sessions
		 WHERE id = $1 AND user_id = $2`,
		id, userID)
	s, err := scanSession(row)
	if err != nil {
		return nil, err
	}
	list := []models.WorkoutSession{s}
	if err := attachSessionDetails(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// CreateSession inserts a session, its exercise snapshots and photo
// references in one transaction. The caller has already checked that the
// ficha exists.
func (db *DB) CreateSession(ctx context.Context, userID int, req models.SessionRequest) (*models.WorkoutSession, error) {
	id := uuid.New()
	var s *models.WorkoutSession
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO workout_sessions (id, user_id, workout_id, date, duration, completed, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, userID, req.WorkoutID, req.Date, req.Duration, req.Completed, req.Notes)
		if err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}

		batch := &pgx.Batch{}
		for i, ex := range req.Exercises {
			var exerciseID *uuid.UUID
			if ex.ID != uuid.Nil {
				exerciseID = &ex.ID
			}
			batch.Queue(
				`INSERT INTO session_exercises (session_id, exercise_id, name, sets, reps, rest_time,
				 video_url, image_url, completed, weight, notes, order_index)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				id, exerciseID, ex.Name, ex.Sets, ex.Reps, ex.RestTime,
				nullString(ex.VideoURL), nullString(ex.ImageURL), ex.Completed, ex.Weight, ex.Notes, i)
		}
		for _, url := range req.Photos {
			batch.Queue(`INSERT INTO session_photos (session_id, photo_url) VALUES ($1, $2)`, id, url)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("inserting session details: %w", err)
			}
		}

		s, err = getSession(ctx, tx, id, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// AddSessionPhoto attaches a photo reference to one of the user's sessions.
func (db *DB) AddSessionPhoto(ctx context.Context, sessionID uuid.UUID, userID int, url string) error {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO session_photos (session_id, photo_url)
		 SELECT id, $3 FROM workout_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID, url)
	if err != nil {
		return fmt.Errorf("inserting session photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

func scanSession(row pgx.Row) (models.WorkoutSession, error) {
	var s models.WorkoutSession
	if err := row.Scan(&s.ID, &s.WorkoutID, &s.Date, &s.Duration, &s.Completed, &s.Notes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, fmt.Errorf("session: %w", ErrNotFound)
		}
		return s, fmt.Errorf("scanning session: %w", err)
	}
	s.Exercises = []models.Exercise{}
	return s, nil
}

// attachSessionDetails fills exercise snapshots and photos for sessions in place.
func attachSessionDetails(ctx context.Context, q querier, sessions []models.WorkoutSession) error {
	if len(sessions) == 0 {
		return nil
	}
	index := make(map[uuid.UUID]int, len(sessions))
	ids := make([]uuid.UUID, len(sessions))
	for i, s := range sessions {
		index[s.ID] = i
		ids[i] = s.ID
	}

	rows, err := q.Query(ctx,
		`SELECT session_id, exercise_id, name, sets, reps, rest_time,
		 COALESCE(video_url, ''), COALESCE(image_url, ''), completed, weight, notes
		 FROM session_exercises
		 WHERE session_id = ANY($1)
		 ORDER BY session_id, order_index`,
		ids)
	if err != nil {
		return fmt.Errorf("querying session exercises: %w", err)
	}
	for rows.Next() {
		var (
			sessionID  uuid.UUID
			exerciseID *uuid.UUID
			ex         models.Exercise
		)
		if err := rows.Scan(&sessionID, &exerciseID, &ex.Name, &ex.Sets, &ex.Reps, &ex.RestTime,
			&ex.VideoURL, &ex.ImageURL, &ex.Completed, &ex.Weight, &ex.Notes); err != nil {
			rows.Close()
			return fmt.Errorf("scanning session exercise: %w", err)
		}
		if exerciseID != nil {
			ex.ID = *exerciseID
		}
		i := index[sessionID]
		sessions[i].Exercises = append(sessions[i].Exercises, ex)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating session exercises: %w", err)
	}

	rows, err = q.Query(ctx,
		`SELECT session_id, photo_url
		 FROM session_photos
		 WHERE session_id = ANY($1)
		 ORDER BY session_id, id`,
		ids)
	if err != nil {
		return fmt.Errorf("querying session photos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			sessionID uuid.UUID
			url       string
		)
		if err := rows.Scan(&sessionID, &url); err != nil {
			return fmt.Errorf("scanning session photo: %w", err)
		}
		i := index[sessionID]
		sessions[i].Photos = append(sessions[i].Photos, url)
	}
	return rows.Err()
}
