// Package importer turns loosely structured workout JSON ("fichas") into
// canonical creation requests and hands them to a persistence collaborator.
//
// Parsing is split in two passes that can be tested on their own: Validate
// collects every structural problem, then Normalize fills defaults and
// resolves the English/Portuguese field aliases. Parse runs both and returns
// a Result that is either a list of requests or a list of problems.
package importer

import (
	"context"
	"fmt"

	"github.com/claude/fittracker/internal/models"
)

//go:generate mockgen -source=$GOFILE -destination=importer_mocks_test.go -package=importer

// Options control which document shapes are accepted.
type Options struct {
	// AcceptObjectForm allows a top-level object mapping keys to fichas in
	// addition to an array of fichas.
	AcceptObjectForm bool
}

// DefaultOptions accepts both document shapes.
func DefaultOptions() Options {
	return Options{AcceptObjectForm: true}
}

// Result is the outcome of Parse. Exactly one of Workouts or Problems is set.
type Result struct {
	Workouts []models.WorkoutRequest `json:"workouts,omitempty"`
	Problems []string                `json:"errors,omitempty"`
}

// OK reports whether the document can be imported.
func (r Result) OK() bool {
	return len(r.Problems) == 0
}

// Parse decodes, validates and normalizes an import document.
func Parse(data []byte, opts Options) Result {
	v, err := Decode(data)
	if err != nil {
		return Result{Problems: []string{fmt.Sprintf(msgParse, err.Error())}}
	}
	return ParseValue(v, opts)
}

// ParseValue validates and normalizes an already decoded document.
func ParseValue(v any, opts Options) Result {
	if problems := Validate(v, opts); len(problems) > 0 {
		return Result{Problems: problems}
	}
	workouts, err := Normalize(v)
	if err != nil {
		return Result{Problems: []string{err.Error()}}
	}
	return Result{Workouts: workouts}
}

// WorkoutCreator persists one ficha.
type WorkoutCreator interface {
	CreateWorkout(ctx context.Context, userID int, req models.WorkoutRequest) (*models.Workout, error)
}

// PartialError reports an import that stopped part way. Fichas in Created
// were persisted before the failure and are not rolled back.
type PartialError struct {
	Index   int
	Name    string
	Created []models.Workout
	Err     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("importing ficha %d (%q), %d already imported: %v", e.Index, e.Name, len(e.Created), e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// Run creates the requests one at a time, in order. The first failure stops
// the run and is returned as a *PartialError.
func Run(ctx context.Context, creator WorkoutCreator, userID int, reqs []models.WorkoutRequest) ([]models.Workout, error) {
	created := make([]models.Workout, 0, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return created, &PartialError{Index: i, Name: req.Name, Created: created, Err: err}
		}
		w, err := creator.CreateWorkout(ctx, userID, req)
		if err != nil {
			return created, &PartialError{Index: i, Name: req.Name, Created: created, Err: err}
		}
		created = append(created, *w)
	}
	return created, nil
}
