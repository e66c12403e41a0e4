package mcp

import (
	"context"
	"time"

	"github.com/claude/fittracker/internal/importer"
	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/report"
	"github.com/claude/fittracker/internal/tracker"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *tracker.Service
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	// Location is the zone calendar-day filters are interpreted in.
	Location() *time.Location
	Stats(ctx context.Context, userID int) (models.WorkoutStats, error)
	ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error)
	ListSessions(ctx context.Context, userID int, status models.SessionStatus, day *time.Time) ([]models.SessionDetail, error)
	SessionReport(ctx context.Context, userID int, id uuid.UUID, format report.Format) (*report.Document, error)
	ExerciseLibrary(ctx context.Context, userID int, query string, typ models.WorkoutType) ([]models.LibraryExercise, error)
	// ValidateImport checks a document with the import rules of the server
	// that would store it. Nothing is persisted.
	ValidateImport(ctx context.Context, data []byte) (importer.Result, error)
}

// Compile-time check: *tracker.Service satisfies DataSource.
var _ DataSource = (*tracker.Service)(nil)
