package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxSets bounds the set count of one exercise. Keep in sync with the
// lte tag on ExerciseRequest.Sets.
const MaxSets = 1000

// Exercise is either a template entry of a ficha or a snapshot recorded in a
// session. In a snapshot, ID is the template exercise it was copied from and
// may be uuid.Nil when that template is unknown.
type Exercise struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Sets      int       `json:"sets"`
	Reps      string    `json:"reps"`
	RestTime  int       `json:"restTime"`
	Weight    *float64  `json:"weight,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Completed bool      `json:"completed,omitempty"`
	VideoURL  string    `json:"videoUrl,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
}

// Workout is a ficha: a named routine template with ordered exercises.
type Workout struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Type      WorkoutType `json:"type"`
	Exercises []Exercise  `json:"exercises"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// ExerciseRequest is the canonical shape of one exercise in a creation request.
// A nil RestTime means the source had no usable rest value; it is stored as 0.
type ExerciseRequest struct {
	Name     string `json:"name" validate:"max=200"`
	Sets     int    `json:"sets" validate:"gte=0,lte=1000"`
	Reps     string `json:"reps" validate:"max=50"`
	RestTime *int   `json:"restTime,omitempty" validate:"omitempty,gte=0"`
	VideoURL string `json:"videoUrl,omitempty" validate:"omitempty,url"`
	ImageURL string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// RestSeconds returns the rest time to persist.
func (e ExerciseRequest) RestSeconds() int {
	if e.RestTime == nil {
		return 0
	}
	return *e.RestTime
}

// WorkoutRequest is the canonical workout creation request.
type WorkoutRequest struct {
	Name      string            `json:"name" validate:"required,max=120"`
	Type      WorkoutType       `json:"type" validate:"required,oneof=A B C"`
	Exercises []ExerciseRequest `json:"exercises" validate:"dive"`
}

// WorkoutPatch updates a ficha. Nil fields are left unchanged; a non-nil
// Exercises replaces the whole template list.
type WorkoutPatch struct {
	Name      *string           `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Type      *WorkoutType      `json:"type,omitempty" validate:"omitempty,oneof=A B C"`
	Exercises []ExerciseRequest `json:"exercises,omitempty" validate:"omitempty,dive"`
}

// LibraryExercise is an exercise as listed in the exercise library, together
// with the ficha it was first found in.
type LibraryExercise struct {
	Exercise
	WorkoutID   uuid.UUID   `json:"workoutId"`
	WorkoutName string      `json:"workoutName"`
	WorkoutType WorkoutType `json:"workoutType"`
}
