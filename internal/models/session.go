package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutSession is one recorded execution of a ficha. Exercises are
// independent copies of the template taken when the session was recorded.
type WorkoutSession struct {
	ID        uuid.UUID  `json:"id"`
	WorkoutID uuid.UUID  `json:"workoutId"`
	Date      time.Time  `json:"date"`
	Duration  int        `json:"duration"`
	Completed bool       `json:"completed"`
	Notes     string     `json:"notes,omitempty"`
	Photos    []string   `json:"photos,omitempty"`
	Exercises []Exercise `json:"exercises"`
}

// SessionDetail is a session joined with the name of its ficha. WorkoutName
// is empty when the ficha has since been deleted.
type SessionDetail struct {
	WorkoutSession
	WorkoutName string `json:"workoutName"`
}

// SessionRequest records a new session. A zero Date means now.
type SessionRequest struct {
	WorkoutID uuid.UUID  `json:"workoutId"`
	Date      time.Time  `json:"date"`
	Duration  int        `json:"duration" validate:"gte=0"`
	Completed bool       `json:"completed"`
	Notes     string     `json:"notes,omitempty" validate:"max=2000"`
	Photos    []string   `json:"photos,omitempty" validate:"dive,required"`
	Exercises []Exercise `json:"exercises" validate:"dive"`
}

// SessionStatus filters the session history.
type SessionStatus string

const (
	SessionStatusAll        SessionStatus = "all"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusIncomplete SessionStatus = "incomplete"
)

// ParseSessionStatus maps a query value to a SessionStatus. Empty means all.
func ParseSessionStatus(s string) (SessionStatus, bool) {
	switch SessionStatus(s) {
	case "", SessionStatusAll:
		return SessionStatusAll, true
	case SessionStatusCompleted, SessionStatusIncomplete:
		return SessionStatus(s), true
	}
	return SessionStatusAll, false
}
