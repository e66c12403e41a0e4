// Package trackertest provides in-memory collaborators for tests of packages
// built on tracker.Service.
package trackertest

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/settings"
	"github.com/claude/fittracker/internal/storage"
	"github.com/google/uuid"
)

// Store is an in-memory tracker.Store. Workouts and sessions are kept in
// insertion order and listed newest first like the Postgres store.
type Store struct {
	mu         sync.Mutex
	clock      time.Time
	workouts   []models.Workout
	owners     map[uuid.UUID]int
	sessions   []models.WorkoutSession
	sessOwners map[uuid.UUID]int
	users      map[string]int
	Logs       []storage.ImportLog

	ListWorkoutCalls int
	FailCreateAt     int // 1-based CreateWorkout call that fails; 0 never
	CreateCalls      int
}

func NewStore() *Store {
	return &Store{
		clock:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		owners:     map[uuid.UUID]int{},
		sessOwners: map[uuid.UUID]int{},
		users:      map[string]int{"local": 1},
	}
}

// GetOrCreateUser assigns ids in order of first sight; "local" is user 1.
func (m *Store) GetOrCreateUser(_ context.Context, login, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.users[login]; ok {
		return id, nil
	}
	id := len(m.users) + 1
	m.users[login] = id
	return id, nil
}

// ErrStoreDown is returned by CreateWorkout on the call selected by FailCreateAt.
var ErrStoreDown = errors.New("store unavailable")

func (m *Store) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *Store) ListWorkouts(_ context.Context, userID int) ([]models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListWorkoutCalls++
	out := []models.Workout{}
	for i := len(m.workouts) - 1; i >= 0; i-- {
		if m.owners[m.workouts[i].ID] == userID {
			out = append(out, m.workouts[i])
		}
	}
	return out, nil
}

func (m *Store) GetWorkout(_ context.Context, id uuid.UUID, userID int) (*models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.workouts {
		if w.ID == id && m.owners[id] == userID {
			return &w, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *Store) CreateWorkout(_ context.Context, userID int, req models.WorkoutRequest) (*models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.FailCreateAt == m.CreateCalls {
		return nil, ErrStoreDown
	}
	now := m.tick()
	w := models.Workout{ID: uuid.New(), Name: req.Name, Type: req.Type, CreatedAt: now, UpdatedAt: now}
	w.Exercises = toExercises(req.Exercises)
	m.workouts = append(m.workouts, w)
	m.owners[w.ID] = userID
	return &w, nil
}

func toExercises(reqs []models.ExerciseRequest) []models.Exercise {
	out := make([]models.Exercise, 0, len(reqs))
	for _, e := range reqs {
		out = append(out, models.Exercise{
			ID: uuid.New(), Name: e.Name, Sets: e.Sets, Reps: e.Reps, RestTime: e.RestSeconds(),
			VideoURL: e.VideoURL, ImageURL: e.ImageURL,
		})
	}
	return out
}

func (m *Store) UpdateWorkout(_ context.Context, id uuid.UUID, userID int, patch models.WorkoutPatch) (*models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.workouts {
		w := &m.workouts[i]
		if w.ID != id || m.owners[id] != userID {
			continue
		}
		if patch.Name != nil {
			w.Name = *patch.Name
		}
		if patch.Type != nil {
			w.Type = *patch.Type
		}
		if patch.Exercises != nil {
			w.Exercises = toExercises(patch.Exercises)
		}
		w.UpdatedAt = m.tick()
		out := *w
		return &out, nil
	}
	return nil, storage.ErrNotFound
}

func (m *Store) DeleteWorkout(_ context.Context, id uuid.UUID, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.workouts {
		if w.ID == id && m.owners[id] == userID {
			m.workouts = slices.Delete(m.workouts, i, i+1)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *Store) ListSessions(_ context.Context, userID int) ([]models.WorkoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.WorkoutSession{}
	for _, s := range m.sessions {
		if m.sessOwners[s.ID] == userID {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b models.WorkoutSession) int { return b.Date.Compare(a.Date) })
	return out, nil
}

func (m *Store) GetSession(_ context.Context, id uuid.UUID, userID int) (*models.WorkoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == id && m.sessOwners[id] == userID {
			return &s, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *Store) CreateSession(_ context.Context, userID int, req models.SessionRequest) (*models.WorkoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := models.WorkoutSession{
		ID: uuid.New(), WorkoutID: req.WorkoutID, Date: req.Date, Duration: req.Duration,
		Completed: req.Completed, Notes: req.Notes, Photos: req.Photos, Exercises: req.Exercises,
	}
	m.sessions = append(m.sessions, s)
	m.sessOwners[s.ID] = userID
	return &s, nil
}

func (m *Store) AddSessionPhoto(_ context.Context, sessionID uuid.UUID, userID int, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sessions {
		if m.sessions[i].ID == sessionID && m.sessOwners[sessionID] == userID {
			m.sessions[i].Photos = append(m.sessions[i].Photos, url)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *Store) InsertImportLog(_ context.Context, log storage.ImportLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = int64(len(m.Logs) + 1)
	m.Logs = append(m.Logs, log)
	return log.ID, nil
}

func (m *Store) QueryImportLogs(_ context.Context, userID, limit int) ([]storage.ImportLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []storage.ImportLog{}
	for i := len(m.Logs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Logs[i].UserID == userID {
			out = append(out, m.Logs[i])
		}
	}
	return out, nil
}

// Settings is an in-memory tracker.SettingsStore with the same validation as the
// SQLite store.
type Settings struct {
	mu sync.Mutex
	m  map[int]models.Settings
}

func NewSettings() *Settings {
	return &Settings{m: map[int]models.Settings{}}
}

func (s *Settings) Get(userID int) models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.m[userID]; ok {
		return st
	}
	return models.DefaultSettings()
}

func (s *Settings) Save(_ context.Context, userID int, st models.Settings) error {
	if err := settings.Validate(st); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = st
	return nil
}
