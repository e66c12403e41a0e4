package models

import "time"

// Settings are the per-user preferences persisted in the local settings store.
type Settings struct {
	WeeklyGoal       int  `json:"weeklyGoal" validate:"min=1,max=7"`
	RestTimerSound   bool `json:"restTimerSound"`
	AutoNextExercise bool `json:"autoNextExercise"`
	DarkMode         bool `json:"darkMode"`
}

// DefaultWeeklyGoal is the weekly session target for new users.
const DefaultWeeklyGoal = 4

// DefaultSettings returns the settings used when nothing has been saved.
func DefaultSettings() Settings {
	return Settings{
		WeeklyGoal:       DefaultWeeklyGoal,
		RestTimerSound:   true,
		AutoNextExercise: false,
		DarkMode:         false,
	}
}

// WorkoutStats is derived from the session list on every request and never stored.
type WorkoutStats struct {
	TotalSessions     int `json:"totalSessions"`
	TotalDuration     int `json:"totalDuration"`
	CurrentStreak     int `json:"currentStreak"`
	WeeklyGoal        int `json:"weeklyGoal"`
	CompletedThisWeek int `json:"completedThisWeek"`
	CompletedSessions int `json:"completedSessions"`
	CompletionRate    int `json:"completionRate"`
}

// Backup is the full export document.
type Backup struct {
	Workouts   []Workout        `json:"workouts"`
	Sessions   []WorkoutSession `json:"sessions"`
	Settings   Settings         `json:"settings"`
	ExportDate time.Time        `json:"exportDate"`
}

// RestoreResult summarizes a backup restore.
type RestoreResult struct {
	Workouts []Workout `json:"workouts"`
	Sessions int       `json:"sessions"`
	Settings Settings  `json:"settings"`
}
