package stats

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/claude/fittracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday; the week started on Sunday 2026-03-08.
var now = time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

func at(year int, month time.Month, dayOfMonth, hour int) time.Time {
	return time.Date(year, month, dayOfMonth, hour, 0, 0, 0, time.UTC)
}

func sessionsAt(dates ...time.Time) []models.WorkoutSession {
	out := make([]models.WorkoutSession, len(dates))
	for i, d := range dates {
		out[i] = models.WorkoutSession{Date: d, Duration: 30}
	}
	return out
}

// TestComputeTotals verifies that totals equal the list length and the sum
// of durations for randomly generated histories.
func TestComputeTotals(t *testing.T) {
	faker := gofakeit.New(42)
	for range 20 {
		n := faker.Number(1, 40)
		sessions := make([]models.WorkoutSession, n)
		sum := 0
		for i := range sessions {
			sessions[i] = models.WorkoutSession{
				Date:      faker.DateRange(now.AddDate(0, -3, 0), now),
				Duration:  faker.Number(0, 180),
				Completed: faker.Bool(),
			}
			sum += sessions[i].Duration
		}

		st := Compute(sessions, now, 4)
		assert.Equal(t, n, st.TotalSessions)
		assert.Equal(t, sum, st.TotalDuration)
		assert.Equal(t, 4, st.WeeklyGoal)
	}
}

// TestComputeEmpty verifies the zero history.
func TestComputeEmpty(t *testing.T) {
	st := Compute(nil, now, 3)
	assert.Equal(t, models.WorkoutStats{WeeklyGoal: 3}, st)
}

// TestStreak covers the walk from now through the sorted history, including
// the lenient same-day and floor-of-days behavior.
func TestStreak(t *testing.T) {
	cases := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"empty", nil, 0},
		{"consecutive days", []time.Time{at(2026, 3, 11, 9), at(2026, 3, 10, 9), at(2026, 3, 9, 9)}, 3},
		{"unsorted input", []time.Time{at(2026, 3, 9, 9), at(2026, 3, 11, 9), at(2026, 3, 10, 9)}, 3},
		{"gap of three days", []time.Time{at(2026, 3, 11, 9), at(2026, 3, 8, 9)}, 1},
		{"two sessions same day", []time.Time{at(2026, 3, 11, 8), at(2026, 3, 11, 10)}, 2},
		{"just under two days counts", []time.Time{at(2026, 3, 11, 9), at(2026, 3, 9, 10)}, 2},
		{"nothing recent", []time.Time{at(2026, 3, 1, 9)}, 0},
		{"yesterday only", []time.Time{at(2026, 3, 10, 13)}, 1},
		{"future session counts", []time.Time{at(2026, 3, 14, 9), at(2026, 3, 11, 9)}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Streak(sessionsAt(tc.dates...), now))
		})
	}
}

// TestStreakDoesNotReorderInput verifies the input slice is left untouched.
func TestStreakDoesNotReorderInput(t *testing.T) {
	sessions := sessionsAt(at(2026, 3, 9, 9), at(2026, 3, 11, 9))
	Streak(sessions, now)
	assert.Equal(t, at(2026, 3, 9, 9), sessions[0].Date)
}

// TestWeekStart verifies the boundary is Sunday midnight in the same location.
func TestWeekStart(t *testing.T) {
	assert.Equal(t, at(2026, 3, 8, 0), WeekStart(now))
	// Sunday itself starts its own week.
	assert.Equal(t, at(2026, 3, 8, 0), WeekStart(at(2026, 3, 8, 23)))
	// Saturday belongs to the previous Sunday.
	assert.Equal(t, at(2026, 3, 1, 0), WeekStart(at(2026, 3, 7, 23)))

	loc := time.FixedZone("BRT", -3*3600)
	ws := WeekStart(time.Date(2026, 3, 11, 1, 0, 0, 0, loc))
	assert.Equal(t, loc, ws.Location())
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, loc), ws)
}

// TestCompletedThisWeekBoundary verifies that a session exactly at the week
// boundary counts and one a millisecond earlier does not, whatever its
// completed flag.
func TestCompletedThisWeekBoundary(t *testing.T) {
	w := WeekStart(now)
	sessions := []models.WorkoutSession{
		{Date: w, Completed: false},
		{Date: w.Add(-time.Millisecond), Completed: true},
		{Date: now, Completed: true},
	}
	st := Compute(sessions, now, 4)
	assert.Equal(t, 2, st.CompletedThisWeek)
	assert.Equal(t, 2, st.CompletedSessions)
	assert.Equal(t, 67, st.CompletionRate)
}

// TestCompletionRate verifies rounding and the empty case.
func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0, CompletionRate(0, 0))
	assert.Equal(t, 100, CompletionRate(3, 3))
	assert.Equal(t, 33, CompletionRate(1, 3))
	assert.Equal(t, 50, CompletionRate(1, 2))
}

// TestFilterSessions verifies status filtering and newest-first ordering.
func TestFilterSessions(t *testing.T) {
	sessions := []models.WorkoutSession{
		{Date: at(2026, 3, 1, 9), Completed: true},
		{Date: at(2026, 3, 3, 9), Completed: false},
		{Date: at(2026, 3, 2, 9), Completed: true},
	}

	all := FilterSessions(sessions, models.SessionStatusAll)
	require.Len(t, all, 3)
	assert.Equal(t, at(2026, 3, 3, 9), all[0].Date)
	assert.Equal(t, at(2026, 3, 1, 9), all[2].Date)

	done := FilterSessions(sessions, models.SessionStatusCompleted)
	require.Len(t, done, 2)
	assert.Equal(t, at(2026, 3, 2, 9), done[0].Date)

	open := FilterSessions(sessions, models.SessionStatusIncomplete)
	require.Len(t, open, 1)
	assert.False(t, open[0].Completed)

	// input keeps its order
	assert.Equal(t, at(2026, 3, 1, 9), sessions[0].Date)
}

// TestSessionsOn verifies calendar-day matching in a given location.
func TestSessionsOn(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	sessions := sessionsAt(
		at(2026, 3, 11, 2),  // 2026-03-10 23:00 BRT
		at(2026, 3, 11, 12), // 2026-03-11 09:00 BRT
		at(2026, 3, 11, 20), // 2026-03-11 17:00 BRT
	)

	got := SessionsOn(sessions, time.Date(2026, 3, 11, 0, 0, 0, 0, loc), loc)
	require.Len(t, got, 2)
	assert.Equal(t, at(2026, 3, 11, 20), got[0].Date)

	got = SessionsOn(sessions, time.Date(2026, 3, 10, 0, 0, 0, 0, loc), loc)
	require.Len(t, got, 1)
	assert.Equal(t, at(2026, 3, 11, 2), got[0].Date)
}

// TestFormatDuration verifies hour/minute rendering.
func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45min", FormatDuration(45))
	assert.Equal(t, "0min", FormatDuration(0))
	assert.Equal(t, "1h 0min", FormatDuration(60))
	assert.Equal(t, "2h 5min", FormatDuration(125))
}
