package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/claude/fittracker/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := Decode([]byte(s))
	require.NoError(t, err)
	return v
}

func intPtr(n int) *int { return &n }

// TestNormalizeObjectFormPortuguese verifies that Portuguese aliases are
// resolved and the mapping key becomes the type.
func TestNormalizeObjectFormPortuguese(t *testing.T) {
	got, err := Normalize(decode(t, `{"A": {"exercises": [{"exercicio": "Supino", "series": 3, "repeticoes": "10", "intervalo": 60}]}}`))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "Ficha A", got[0].Name)
	assert.Equal(t, models.WorkoutTypeA, got[0].Type)
	require.Len(t, got[0].Exercises, 1)
	assert.Equal(t, models.ExerciseRequest{Name: "Supino", Sets: 3, Reps: "10", RestTime: intPtr(60)}, got[0].Exercises[0])
}

// TestNormalizeArrayFormDefaults verifies numeric coercion of string sets and
// empty defaults for missing reps and rest.
func TestNormalizeArrayFormDefaults(t *testing.T) {
	got, err := Normalize(decode(t, `[{"name": "X", "exercises": [{"name": "Y", "sets": "4"}]}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "X", got[0].Name)
	assert.Equal(t, models.WorkoutType("Ficha-1"), got[0].Type)
	require.Len(t, got[0].Exercises, 1)
	ex := got[0].Exercises[0]
	assert.Equal(t, 4, ex.Sets)
	assert.Equal(t, "", ex.Reps)
	assert.Nil(t, ex.RestTime)
	assert.Equal(t, 0, ex.RestSeconds())
}

// TestNormalizeEnglishWins verifies the English key is preferred when both
// spellings are present, and the alias is used when the English value is falsy.
func TestNormalizeEnglishWins(t *testing.T) {
	got, err := Normalize(decode(t, `[{"name": "Peito", "type": "b", "exercises": [
		{"name": "Supino", "exercicio": "Crucifixo", "sets": 0, "series": 4, "reps": 12, "repeticoes": "8", "restTime": "1:30"}
	]}]`))
	require.NoError(t, err)
	ex := got[0].Exercises[0]

	assert.Equal(t, models.WorkoutTypeB, got[0].Type)
	assert.Equal(t, "Supino", ex.Name)
	assert.Equal(t, 4, ex.Sets, "falsy sets falls back to series")
	assert.Equal(t, "12", ex.Reps)
	require.NotNil(t, ex.RestTime)
	assert.Equal(t, 90, *ex.RestTime)
}

// TestNormalizeKeepsObjectOrder verifies object-form fichas come out in file order.
func TestNormalizeKeepsObjectOrder(t *testing.T) {
	got, err := Normalize(decode(t, `{"C": {}, "A": {}, "B": {"name": "Pernas"}}`))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.WorkoutTypeC, got[0].Type)
	assert.Equal(t, models.WorkoutTypeA, got[1].Type)
	assert.Equal(t, "Pernas", got[2].Name)
	assert.Empty(t, got[2].Exercises)
}

// TestNormalizeUnsupportedShape verifies scalars are rejected.
func TestNormalizeUnsupportedShape(t *testing.T) {
	_, err := Normalize(decode(t, `"fichas"`))
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

// TestRestSeconds covers the accepted rest notations.
func TestRestSeconds(t *testing.T) {
	cases := []struct {
		in   any
		want int
		ok   bool
	}{
		{float64(60), 60, true},
		{"90", 90, true},
		{"90s", 90, true},
		{"45 seg", 45, true},
		{"2min", 120, true},
		{"1:30", 90, true},
		{"1:75", 0, false},
		{"-5", 0, false},
		{"bastante", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := restSeconds(tc.in)
		assert.Equal(t, tc.ok, ok, "restSeconds(%v)", tc.in)
		assert.Equal(t, tc.want, got, "restSeconds(%v)", tc.in)
	}
}

// TestValidateArrayOnly verifies the array-only contract rejects object form
// with the single top-level message.
func TestValidateArrayOnly(t *testing.T) {
	problems := Validate(decode(t, `{"0": {}}`), Options{})
	assert.Equal(t, []string{"O JSON deve ser um array de fichas de treino."}, problems)
}

// TestValidateObjectFormAccepted verifies that with object form enabled,
// missing fields are allowed and wrong types are reported by key.
func TestValidateObjectFormAccepted(t *testing.T) {
	assert.Empty(t, Validate(decode(t, `{"0": {}}`), DefaultOptions()))

	problems := Validate(decode(t, `{"A": {"name": 3}, "B": {"exercises": [{"name": "Remada", "sets": "x"}]}}`), DefaultOptions())
	assert.Equal(t, []string{
		`Ficha "A" está com formato inválido.`,
		`Número inválido de séries no exercício 0 da ficha "B".`,
	}, problems)

	problems = Validate(decode(t, `42`), DefaultOptions())
	assert.Equal(t, []string{"O JSON deve ser um array ou um objeto de fichas de treino."}, problems)
}

// TestValidateCollectsEveryProblem verifies the whole input is scanned and
// each offending ficha or exercise gets its own message.
func TestValidateCollectsEveryProblem(t *testing.T) {
	input := `[
		{"name": "Ok", "type": "A", "exercises": [{"name": "Supino", "sets": 3, "reps": "10", "restTime": 60}]},
		{"name": "Sem tipo", "exercises": []},
		null,
		{"name": "Ruim", "type": "B", "exercises": [
			{"name": "Agachamento", "sets": 4},
			{"sets": 3},
			{"name": "Leg", "sets": "três"},
			{"name": "Stiff", "sets": 3, "reps": null},
			"Panturrilha"
		]}
	]`
	problems := Validate(decode(t, input), Options{})
	assert.Equal(t, []string{
		"Ficha no índice 1 está com formato inválido.",
		"Ficha no índice 2 está com formato inválido.",
		"Exercício 1 da ficha 3 está inválido.",
		"Número inválido de séries no exercício 2 da ficha 3.",
		"Exercício 3 da ficha 3 está inválido.",
		"Exercício 4 da ficha 3 está inválido.",
	}, problems)
}

// TestValidateNumericSets covers the string forms accepted as a set count.
func TestValidateNumericSets(t *testing.T) {
	for _, sets := range []string{`"4"`, `" 4 "`, `""`, `"1e1"`, `"0x3"`, `3.5`} {
		doc := `[{"name": "A", "type": "A", "exercises": [{"name": "x", "sets": ` + sets + `}]}]`
		assert.Empty(t, Validate(decode(t, doc), Options{}), "sets=%s", sets)
	}
	for _, sets := range []string{`"Infinity"`, `"NaN"`, `"4 séries"`, `"1_000"`} {
		doc := `[{"name": "A", "type": "A", "exercises": [{"name": "x", "sets": ` + sets + `}]}]`
		assert.Len(t, Validate(decode(t, doc), Options{}), 1, "sets=%s", sets)
	}
}

// TestValidatePortugueseAliases verifies the array form needs the English
// name and sets while the object form also takes the Portuguese aliases.
func TestValidatePortugueseAliases(t *testing.T) {
	exercise := `{"exercicio": "Supino", "series": "3", "repeticoes": 10, "intervalo": "60s"}`

	array := `[{"name": "A", "type": "A", "exercises": [` + exercise + `]}]`
	assert.Equal(t, []string{"Exercício 0 da ficha 0 está inválido."}, Validate(decode(t, array), DefaultOptions()))

	object := `{"A": {"exercises": [` + exercise + `]}}`
	assert.Empty(t, Validate(decode(t, object), DefaultOptions()))

	// Aliases beside the English keys are still read by Normalize.
	mixed := `[{"name": "A", "type": "A", "exercises": [{"name": "Supino", "sets": 3, "repeticoes": 10, "intervalo": "60s"}]}]`
	res := Parse([]byte(mixed), DefaultOptions())
	require.True(t, res.OK(), res.Problems)
	ex := res.Workouts[0].Exercises[0]
	assert.Equal(t, "10", ex.Reps)
	require.NotNil(t, ex.RestTime)
	assert.Equal(t, 60, *ex.RestTime)

	// A wrongly typed alias is only checked where aliases count.
	badAlias := `{"name": "Supino", "sets": 3, "repeticoes": {}}`
	assert.Empty(t, Validate(decode(t, `[{"name": "A", "type": "A", "exercises": [`+badAlias+`]}]`), DefaultOptions()))
}

// TestValidateSetsRange verifies set counts must fit 0..MaxSets so a
// document that validates never fails at create time.
func TestValidateSetsRange(t *testing.T) {
	for _, sets := range []string{`0`, `"1000"`, `12`} {
		doc := `[{"name": "A", "type": "A", "exercises": [{"name": "x", "sets": ` + sets + `}]}]`
		assert.Empty(t, Validate(decode(t, doc), Options{}), "sets=%s", sets)
	}
	for _, sets := range []string{`-1`, `"-3"`, `1001`, `1e30`, `"0x7fffffffffffffff"`} {
		doc := `[{"name": "A", "type": "A", "exercises": [{"name": "x", "sets": ` + sets + `}]}]`
		assert.Equal(t, []string{"Número inválido de séries no exercício 0 da ficha 0."}, Validate(decode(t, doc), Options{}), "sets=%s", sets)
	}
	obj := `{"A": {"exercises": [{"exercicio": "x", "series": 5000}]}}`
	assert.Equal(t, []string{`Número inválido de séries no exercício 0 da ficha "A".`}, Validate(decode(t, obj), DefaultOptions()))
}

// TestParse verifies the tagged result for each outcome.
func TestParse(t *testing.T) {
	res := Parse([]byte(`{"A": {"name": "Peito", "exercises": [{"name": "Supino", "sets": 4}]}}`), DefaultOptions())
	require.True(t, res.OK())
	require.Len(t, res.Workouts, 1)
	assert.Equal(t, "Peito", res.Workouts[0].Name)

	res = Parse([]byte(`{"A": {"name": "Peito"}}`), Options{})
	assert.False(t, res.OK())
	assert.Empty(t, res.Workouts)
	assert.Equal(t, []string{"O JSON deve ser um array de fichas de treino."}, res.Problems)

	for _, broken := range []string{``, `{"A": `, `[1, 2,]`, `{nome: 1}`, `[] []`} {
		res = Parse([]byte(broken), DefaultOptions())
		require.Len(t, res.Problems, 1, "input %q", broken)
		assert.True(t, strings.HasPrefix(res.Problems[0], "Erro ao analisar JSON: "), res.Problems[0])
	}
}

// TestRunSequential verifies requests are created in order and all results returned.
func TestRunSequential(t *testing.T) {
	ctrl := gomock.NewController(t)
	creator := NewMockWorkoutCreator(ctrl)
	ctx := context.Background()

	reqs := []models.WorkoutRequest{
		{Name: "Peito", Type: models.WorkoutTypeA},
		{Name: "Costas", Type: models.WorkoutTypeB},
	}
	gomock.InOrder(
		creator.EXPECT().CreateWorkout(ctx, 7, reqs[0]).Return(&models.Workout{ID: uuid.New(), Name: "Peito"}, nil),
		creator.EXPECT().CreateWorkout(ctx, 7, reqs[1]).Return(&models.Workout{ID: uuid.New(), Name: "Costas"}, nil),
	)

	created, err := Run(ctx, creator, 7, reqs)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "Costas", created[1].Name)
}

// TestRunStopsAtFirstFailure verifies earlier fichas stay created and later
// ones are never attempted.
func TestRunStopsAtFirstFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	creator := NewMockWorkoutCreator(ctrl)
	ctx := context.Background()
	boom := errors.New("insert failed")

	reqs := []models.WorkoutRequest{
		{Name: "Peito", Type: models.WorkoutTypeA},
		{Name: "Ruim", Type: "Ficha-2"},
		{Name: "Pernas", Type: models.WorkoutTypeC},
	}
	gomock.InOrder(
		creator.EXPECT().CreateWorkout(ctx, 1, reqs[0]).Return(&models.Workout{Name: "Peito"}, nil),
		creator.EXPECT().CreateWorkout(ctx, 1, reqs[1]).Return(nil, boom),
	)

	created, err := Run(ctx, creator, 1, reqs)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Index)
	assert.Equal(t, "Ruim", partial.Name)
	require.Len(t, partial.Created, 1)
	assert.Equal(t, created, partial.Created)
}

// TestRunCancelled verifies a cancelled context stops before the next call.
func TestRunCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	creator := NewMockWorkoutCreator(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	created, err := Run(ctx, creator, 1, []models.WorkoutRequest{{Name: "Peito", Type: models.WorkoutTypeA}})
	assert.Empty(t, created)
	assert.ErrorIs(t, err, context.Canceled)
}
