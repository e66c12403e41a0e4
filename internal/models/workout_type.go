package models

import "strings"

// WorkoutType is the category tag of a ficha.
type WorkoutType string

// Canonical workout types. A routine split is usually A/B/C.
const (
	WorkoutTypeA WorkoutType = "A"
	WorkoutTypeB WorkoutType = "B"
	WorkoutTypeC WorkoutType = "C"
)

// WorkoutTypes lists the accepted types in display order.
var WorkoutTypes = []WorkoutType{WorkoutTypeA, WorkoutTypeB, WorkoutTypeC}

// workoutTypePrefixes are labels people put in front of the letter in
// hand-written exports ("Ficha A", "Treino B", "Workout C").
var workoutTypePrefixes = []string{"ficha", "treino", "workout", "tipo", "type"}

// Valid reports whether t is one of the canonical types.
func (t WorkoutType) Valid() bool {
	switch t {
	case WorkoutTypeA, WorkoutTypeB, WorkoutTypeC:
		return true
	}
	return false
}

// NormalizeWorkoutType maps a loosely written type ("a", " Ficha B ", "treino-c")
// to its canonical value. Returns the canonical type and true if recognized,
// or the original string and false if unknown.
func NormalizeWorkoutType(raw string) (WorkoutType, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, p := range workoutTypePrefixes {
		if rest, ok := strings.CutPrefix(s, p); ok {
			s = strings.TrimLeft(rest, " -_:")
			break
		}
	}
	t := WorkoutType(strings.ToUpper(s))
	if t.Valid() {
		return t, true
	}
	return WorkoutType(raw), false
}
