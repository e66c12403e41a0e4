// Package stats derives workout statistics from a session history.
// Every function is pure: results depend only on the arguments.
package stats

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/claude/fittracker/internal/models"
)

const day = 24 * time.Hour

// Compute derives the summary statistics for sessions as seen at now.
// The input order does not matter and the slice is not modified.
func Compute(sessions []models.WorkoutSession, now time.Time, weeklyGoal int) models.WorkoutStats {
	st := models.WorkoutStats{
		TotalSessions: len(sessions),
		WeeklyGoal:    weeklyGoal,
	}

	weekStart := WeekStart(now)
	for _, s := range sessions {
		st.TotalDuration += s.Duration
		if s.Completed {
			st.CompletedSessions++
		}
		// Counts sessions held this week, completed or not.
		if !s.Date.Before(weekStart) {
			st.CompletedThisWeek++
		}
	}

	st.CurrentStreak = Streak(sessions, now)
	st.CompletionRate = CompletionRate(st.CompletedSessions, st.TotalSessions)
	return st
}

// Streak walks sessions from newest to oldest starting at now. A session
// extends the streak when it is at most one whole day older than the
// previous one (or than now, for the first). Sessions on the same day each
// count, and sessions dated in the future always count.
func Streak(sessions []models.WorkoutSession, now time.Time) int {
	dates := make([]time.Time, len(sessions))
	for i, s := range sessions {
		dates[i] = s.Date
	}
	slices.SortStableFunc(dates, func(a, b time.Time) int { return b.Compare(a) })

	streak := 0
	cursor := now
	for _, d := range dates {
		if wholeDays(cursor.Sub(d)) > 1 {
			break
		}
		streak++
		cursor = d
	}
	return streak
}

// wholeDays floors d to whole days, rounding toward negative infinity.
func wholeDays(d time.Duration) int {
	return int(math.Floor(float64(d) / float64(day)))
}

// WeekStart returns midnight of the most recent Sunday in now's location.
func WeekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, now.Location())
}

// CompletionRate returns completed/total as a rounded percentage, 0 when total is 0.
func CompletionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// FilterSessions returns the sessions matching status, newest first.
func FilterSessions(sessions []models.WorkoutSession, status models.SessionStatus) []models.WorkoutSession {
	out := make([]models.WorkoutSession, 0, len(sessions))
	for _, s := range sessions {
		switch status {
		case models.SessionStatusCompleted:
			if !s.Completed {
				continue
			}
		case models.SessionStatusIncomplete:
			if s.Completed {
				continue
			}
		}
		out = append(out, s)
	}
	SortNewestFirst(out)
	return out
}

// SessionsOn returns the sessions whose date falls on the same calendar day
// as day in loc, newest first.
func SessionsOn(sessions []models.WorkoutSession, day time.Time, loc *time.Location) []models.WorkoutSession {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := day.In(loc).Date()
	var out []models.WorkoutSession
	for _, s := range sessions {
		sy, sm, sd := s.Date.In(loc).Date()
		if sy == y && sm == m && sd == d {
			out = append(out, s)
		}
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst sorts sessions by date descending in place.
func SortNewestFirst(sessions []models.WorkoutSession) {
	slices.SortStableFunc(sessions, func(a, b models.WorkoutSession) int {
		return b.Date.Compare(a.Date)
	})
}

// FormatDuration renders minutes as "1h 5min" or "45min".
func FormatDuration(minutes int) string {
	h, m := minutes/60, minutes%60
	if h > 0 {
		return fmt.Sprintf("%dh %dmin", h, m)
	}
	return fmt.Sprintf("%dmin", m)
}
