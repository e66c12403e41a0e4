package settings

import (
	"context"
	"testing"

	"github.com/claude/fittracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestGetDefaults verifies unknown users get the default preferences.
func TestGetDefaults(t *testing.T) {
	s := openStore(t, t.TempDir())
	assert.Equal(t, models.Settings{WeeklyGoal: 4, RestTimerSound: true}, s.Get(1))
}

// TestSaveAndReload verifies a saved value survives reopening the database
// and is visible only after Load.
func TestSaveAndReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := openStore(t, dir)
	want := models.Settings{WeeklyGoal: 5, RestTimerSound: false, AutoNextExercise: true, DarkMode: true}
	require.NoError(t, s.Save(ctx, 7, want))
	assert.Equal(t, want, s.Get(7))
	require.NoError(t, s.Close())

	reopened := openStore(t, dir)
	assert.Equal(t, models.DefaultSettings(), reopened.Get(7), "snapshot is empty before Load")
	require.NoError(t, reopened.Load(ctx))
	assert.Equal(t, want, reopened.Get(7))
	assert.Equal(t, models.DefaultSettings(), reopened.Get(8))
}

// TestSaveRejectsOutOfRange verifies weeklyGoal must be between 1 and 7 and
// that a rejected save leaves the previous value in place.
func TestSaveRejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir())

	for _, goal := range []int{0, 8, -1} {
		err := s.Save(ctx, 1, models.Settings{WeeklyGoal: goal})
		assert.ErrorIs(t, err, ErrInvalidSettings, "weeklyGoal=%d", goal)
	}
	assert.Equal(t, models.DefaultSettings(), s.Get(1))
}

// TestParseMergesDefaults verifies missing keys keep their defaults.
func TestParseMergesDefaults(t *testing.T) {
	st, err := Parse([]byte(`{"darkMode": true}`))
	require.NoError(t, err)
	assert.Equal(t, models.Settings{WeeklyGoal: 4, RestTimerSound: true, DarkMode: true}, st)

	_, err = Parse([]byte(`{"weeklyGoal": 9}`))
	assert.ErrorIs(t, err, ErrInvalidSettings)

	_, err = Parse([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

// TestLoadSkipsCorruptRows verifies a bad row does not prevent the others
// from loading.
func TestLoadSkipsCorruptRows(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir())
	require.NoError(t, s.Save(ctx, 1, models.Settings{WeeklyGoal: 3}))
	_, err := s.db.Exec(`INSERT INTO user_settings (user_id, data) VALUES (2, '{broken')`)
	require.NoError(t, err)

	err = s.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Equal(t, 3, s.Get(1).WeeklyGoal)
	assert.Equal(t, models.DefaultSettings(), s.Get(2))
}
