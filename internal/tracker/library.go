package tracker

import (
	"context"
	"strings"
	"unicode"

	"github.com/claude/fittracker/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ExerciseLibrary lists every distinct exercise across the user's fichas.
// The first occurrence of a name wins, walking fichas newest first. query
// matches a substring ignoring case and accents; typ keeps only exercises
// first found in fichas of that type.
func (s *Service) ExerciseLibrary(ctx context.Context, userID int, query string, typ models.WorkoutType) ([]models.LibraryExercise, error) {
	workouts, err := s.ListWorkouts(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []models.LibraryExercise
	for _, w := range workouts {
		for _, ex := range w.Exercises {
			if seen[ex.Name] {
				continue
			}
			seen[ex.Name] = true
			all = append(all, models.LibraryExercise{
				Exercise:    ex,
				WorkoutID:   w.ID,
				WorkoutName: w.Name,
				WorkoutType: w.Type,
			})
		}
	}

	needle := fold(strings.TrimSpace(query))
	out := make([]models.LibraryExercise, 0, len(all))
	for _, ex := range all {
		if typ != "" && ex.WorkoutType != typ {
			continue
		}
		if needle != "" && !strings.Contains(fold(ex.Name), needle) {
			continue
		}
		out = append(out, ex)
	}
	return out, nil
}

// fold strips diacritics and case so "Elevação" matches "elevacao".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}
