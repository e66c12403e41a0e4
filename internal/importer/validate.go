package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/claude/fittracker/internal/models"
)

// Problem messages shown to the user, one per offending ficha or exercise.
const (
	msgNotArray         = "O JSON deve ser um array de fichas de treino."
	msgNotArrayOrObject = "O JSON deve ser um array ou um objeto de fichas de treino."
	msgParse            = "Erro ao analisar JSON: %s"
	msgBadWorkout       = "Ficha no índice %d está com formato inválido."
	msgBadWorkoutKey    = "Ficha %q está com formato inválido."
	msgBadExercise      = "Exercício %d da ficha %d está inválido."
	msgBadExerciseKey   = "Exercício %d da ficha %q está inválido."
	msgBadSets          = "Número inválido de séries no exercício %d da ficha %d."
	msgBadSetsKey       = "Número inválido de séries no exercício %d da ficha %q."
)

// English field names and their Portuguese aliases. The English key wins
// when both are present.
var (
	nameKeys     = []string{"name", "exercicio"}
	setsKeys     = []string{"sets", "series"}
	repsKeys     = []string{"reps", "repeticoes"}
	restTimeKeys = []string{"restTime", "intervalo"}
)

// exerciseFields picks which keys satisfy the exercise checks. The array
// form requires the English names; the object form also takes aliases.
type exerciseFields struct {
	name, sets, reps, restTime []string
}

var (
	englishFields = exerciseFields{
		name:     nameKeys[:1],
		sets:     setsKeys[:1],
		reps:     repsKeys[:1],
		restTime: restTimeKeys[:1],
	}
	aliasFields = exerciseFields{name: nameKeys, sets: setsKeys, reps: repsKeys, restTime: restTimeKeys}
)

// Validate scans the whole input and returns every structural problem.
// An empty result means Normalize can run.
func Validate(v any, opts Options) []string {
	switch data := v.(type) {
	case []any:
		return validateArray(data)
	case *object:
		if opts.AcceptObjectForm {
			return validateObject(data)
		}
	}
	if opts.AcceptObjectForm {
		return []string{msgNotArrayOrObject}
	}
	return []string{msgNotArray}
}

func validateArray(data []any) []string {
	var problems []string
	for idx, item := range data {
		w, ok := item.(*object)
		if !ok || !isString(w, "name") || !isString(w, "type") || !isArray(w, "exercises") {
			problems = append(problems, fmt.Sprintf(msgBadWorkout, idx))
			continue
		}
		exercises, _ := w.get("exercises")
		for exIdx, ex := range exercises.([]any) {
			switch exerciseProblem(ex, englishFields) {
			case exerciseInvalid:
				problems = append(problems, fmt.Sprintf(msgBadExercise, exIdx, idx))
			case exerciseBadSets:
				problems = append(problems, fmt.Sprintf(msgBadSets, exIdx, idx))
			}
		}
	}
	return problems
}

// validateObject checks the key → ficha form. Fields may be missing since
// Normalize fills defaults, but must have the right type when present.
func validateObject(data *object) []string {
	var problems []string
	for _, key := range data.keys {
		v, _ := data.get(key)
		w, ok := v.(*object)
		if !ok || !optionalString(w, "name") || !optionalString(w, "type") || !optionalArray(w, "exercises") {
			problems = append(problems, fmt.Sprintf(msgBadWorkoutKey, key))
			continue
		}
		exercises, _ := w.get("exercises")
		list, _ := exercises.([]any)
		for exIdx, ex := range list {
			switch exerciseProblem(ex, aliasFields) {
			case exerciseInvalid:
				problems = append(problems, fmt.Sprintf(msgBadExerciseKey, exIdx, key))
			case exerciseBadSets:
				problems = append(problems, fmt.Sprintf(msgBadSetsKey, exIdx, key))
			}
		}
	}
	return problems
}

type exerciseCheck int

const (
	exerciseOK exerciseCheck = iota
	exerciseInvalid
	exerciseBadSets
)

func exerciseProblem(v any, f exerciseFields) exerciseCheck {
	ex, ok := v.(*object)
	if !ok {
		return exerciseInvalid
	}
	name, _ := lookup(ex, f.name...)
	if _, ok := name.(string); !ok {
		return exerciseInvalid
	}
	sets, _ := lookup(ex, f.sets...)
	if !isNumberOrString(sets) {
		return exerciseInvalid
	}
	for _, keys := range [][]string{f.reps, f.restTime} {
		if v, present := lookup(ex, keys...); present && !isNumberOrString(v) {
			return exerciseInvalid
		}
	}
	n, ok := toNumber(sets)
	if !ok || n < 0 || n > models.MaxSets {
		return exerciseBadSets
	}
	return exerciseOK
}

// lookup returns the value of the first present key.
func lookup(o *object, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := o.get(k); ok {
			return v, true
		}
	}
	return nil, false
}

func isString(o *object, key string) bool {
	v, _ := o.get(key)
	_, ok := v.(string)
	return ok
}

func isArray(o *object, key string) bool {
	v, _ := o.get(key)
	_, ok := v.([]any)
	return ok
}

func optionalString(o *object, key string) bool {
	if _, present := o.get(key); !present {
		return true
	}
	return isString(o, key)
}

func optionalArray(o *object, key string) bool {
	if _, present := o.get(key); !present {
		return true
	}
	return isArray(o, key)
}

func isNumberOrString(v any) bool {
	switch v.(type) {
	case string, float64:
		return true
	}
	return false
}

// toNumber converts a JSON number or numeric string to a finite float.
// Blank strings are 0. Hex, octal and binary integer literals are accepted.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsInf(n, 0) && !math.IsNaN(n)
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case nil:
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		lower := strings.ToLower(strings.TrimLeft(s, "+-"))
		if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
			if strings.ContainsAny(s, "+-_") {
				return 0, false
			}
			i, err := strconv.ParseInt(s, 0, 64)
			return float64(i), err == nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || strings.Contains(s, "_") {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
