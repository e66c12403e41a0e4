package importer

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/claude/fittracker/internal/models"
	"github.com/spf13/cast"
)

// ErrUnsupportedShape is returned by Normalize for inputs that are neither
// an array nor an object.
var ErrUnsupportedShape = errors.New("import data must be an array or an object of fichas")

// Normalize turns a decoded import document into canonical creation
// requests. It accepts the key → ficha object form and the array form and
// fills defaults for missing fields. It does not validate; run Validate first.
func Normalize(v any) ([]models.WorkoutRequest, error) {
	switch data := v.(type) {
	case []any:
		out := make([]models.WorkoutRequest, 0, len(data))
		for i, item := range data {
			label := strconv.Itoa(i + 1)
			out = append(out, normalizeWorkout(asObject(item), label, "Ficha-"+label))
		}
		return out, nil
	case *object:
		out := make([]models.WorkoutRequest, 0, len(data.keys))
		for _, key := range data.keys {
			item, _ := data.get(key)
			out = append(out, normalizeWorkout(asObject(item), key, key))
		}
		return out, nil
	}
	return nil, ErrUnsupportedShape
}

func normalizeWorkout(w *object, label, defaultType string) models.WorkoutRequest {
	typ, _ := models.NormalizeWorkoutType(text(firstTruthy(w, "type"), defaultType))
	req := models.WorkoutRequest{
		Name:      text(firstTruthy(w, "name"), "Ficha "+label),
		Type:      typ,
		Exercises: []models.ExerciseRequest{},
	}
	exercises, _ := firstTruthy(w, "exercises").([]any)
	for _, item := range exercises {
		req.Exercises = append(req.Exercises, normalizeExercise(asObject(item)))
	}
	return req
}

func normalizeExercise(ex *object) models.ExerciseRequest {
	out := models.ExerciseRequest{
		Name:     text(firstTruthy(ex, nameKeys...), ""),
		Reps:     text(firstTruthy(ex, repsKeys...), ""),
		VideoURL: text(firstTruthy(ex, "videoUrl"), ""),
		ImageURL: text(firstTruthy(ex, "imageUrl"), ""),
	}
	if n, ok := toNumber(firstTruthy(ex, setsKeys...)); ok {
		out.Sets = cast.ToInt(n)
	}
	if secs, ok := restSeconds(firstTruthy(ex, restTimeKeys...)); ok {
		out.RestTime = &secs
	}
	return out
}

func asObject(v any) *object {
	if o, ok := v.(*object); ok {
		return o
	}
	return newObject()
}

// firstTruthy returns the first value among keys that is present and not
// null, false, 0 or "". It returns nil when none qualifies.
func firstTruthy(o *object, keys ...string) any {
	for _, k := range keys {
		if v, ok := o.get(k); ok && truthy(v) {
			return v
		}
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	}
	return true
}

// text renders a scalar as a string, or def when v is nil or not a scalar.
func text(v any, def string) string {
	if v == nil {
		return def
	}
	switch v.(type) {
	case *object, []any:
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return s
}

// restSeconds reads a rest interval as seconds. Besides plain numbers it
// understands "90s", "90 seg", "2min" and "1:30".
func restSeconds(v any) (int, bool) {
	if v == nil {
		return 0, false
	}
	if n, ok := toNumber(v); ok {
		return nonNegative(n)
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	s = strings.ToLower(strings.TrimSpace(s))

	if m, sec, found := strings.Cut(s, ":"); found {
		mins, err1 := strconv.Atoi(m)
		secs, err2 := strconv.Atoi(sec)
		if err1 != nil || err2 != nil || mins < 0 || secs < 0 || secs >= 60 {
			return 0, false
		}
		return mins*60 + secs, true
	}
	for _, unit := range []struct {
		suffix string
		scale  float64
	}{
		{"min", 60},
		{"m", 60},
		{"seg", 1},
		{"sec", 1},
		{"s", 1},
	} {
		if num, found := strings.CutSuffix(s, unit.suffix); found {
			if n, ok := toNumber(strings.TrimSpace(num)); ok && strings.TrimSpace(num) != "" {
				return nonNegative(n * unit.scale)
			}
		}
	}
	return 0, false
}

func nonNegative(n float64) (int, bool) {
	if n < 0 {
		return 0, false
	}
	return int(math.Round(n)), true
}
