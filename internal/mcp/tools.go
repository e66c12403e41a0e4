package mcp

import (
	"context"
	"time"

	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/report"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const defaultSessionLimit = 20

// parseDay reads a YYYY-MM-DD calendar day in loc.
func parseDay(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseType maps an optional type argument to a canonical workout type.
func parseType(raw string) (models.WorkoutType, bool) {
	if raw == "" {
		return "", true
	}
	return models.NormalizeWorkoutType(raw)
}

// --- Tool definitions ---

var toolGetWorkoutStats = mcp.NewTool("get_workout_stats",
	mcp.WithDescription("Progress summary: total sessions, total minutes trained, current streak in days, weekly goal and sessions completed this week (weeks start Sunday), completed sessions and completion rate in percent."),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List fichas (workout templates) with their exercises: sets, reps, rest time in seconds, and optional weight, notes and media links. Newest first."),
	mcp.WithString("type", mcp.Description("Filter by ficha type: A, B or C. Loose labels like 'Ficha B' are accepted.")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List recorded workout sessions, newest first. Each session carries its own copy of the exercises as performed, with completion flags."),
	mcp.WithString("status", mcp.Description("Filter by completion. Defaults to all."), mcp.Enum("all", "completed", "incomplete")),
	mcp.WithString("date", mcp.Description("Only sessions on this calendar day (YYYY-MM-DD).")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions. Defaults to 20.")),
)

var toolGetSessionReport = mcp.NewTool("get_session_report",
	mcp.WithDescription("Render the report of one session: date, ficha, duration, status, notes, exercises and photos."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID (UUID)")),
	mcp.WithString("format", mcp.Description("Report format. Defaults to md."), mcp.Enum("md", "html")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("Exercise library: every distinct exercise across all fichas, with the ficha it comes from."),
	mcp.WithString("query", mcp.Description("Substring match on the exercise name, ignoring case and accents (e.g. 'elevacao')")),
	mcp.WithString("type", mcp.Description("Only exercises from fichas of this type: A, B or C.")),
)

var toolValidateWorkoutImport = mcp.NewTool("validate_workout_import",
	mcp.WithDescription("Check a fichas JSON document before importing it. Accepts an array of fichas or an object keyed by ficha, with English or Portuguese field names. Returns the normalized fichas or the list of problems. Nothing is stored."),
	mcp.WithString("json", mcp.Required(), mcp.Description("The import document as a JSON string")),
)

// --- Tool handlers ---

func (h *handlers) getWorkoutStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.Stats(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_workout_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, ok := parseType(req.GetString("type", ""))
	if !ok {
		return mcp.NewToolResultError("type must be A, B or C"), nil
	}

	workouts, err := h.ds.ListWorkouts(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if typ != "" {
		filtered := make([]models.Workout, 0, len(workouts))
		for _, w := range workouts {
			if w.Type == typ {
				filtered = append(filtered, w)
			}
		}
		workouts = filtered
	}

	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, ok := models.ParseSessionStatus(req.GetString("status", ""))
	if !ok {
		return mcp.NewToolResultError("status must be all, completed or incomplete"), nil
	}
	day, err := parseDay(req.GetString("date", ""), h.ds.Location())
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	limit := req.GetInt("limit", defaultSessionLimit)
	if limit <= 0 {
		limit = defaultSessionLimit
	}

	sessions, err := h.ds.ListSessions(ctx, UserIDFromContext(ctx), status, day)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("invalid session_id: " + err.Error()), nil
	}
	format, err := report.ParseFormat(req.GetString("format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := h.ds.SessionReport(ctx, UserIDFromContext(ctx), id, format)
	if err != nil {
		h.log.Error("mcp get_session_report", "error", err)
		return mcp.NewToolResultError("report failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(doc.Body)), nil
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, ok := parseType(req.GetString("type", ""))
	if !ok {
		return mcp.NewToolResultError("type must be A, B or C"), nil
	}

	exercises, err := h.ds.ExerciseLibrary(ctx, UserIDFromContext(ctx), req.GetString("query", ""), typ)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) validateWorkoutImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("json")
	if err != nil {
		return mcp.NewToolResultError("json parameter is required"), nil
	}

	res, err := h.ds.ValidateImport(ctx, []byte(doc))
	if err != nil {
		h.log.Error("mcp validate_workout_import", "error", err)
		return mcp.NewToolResultError("validation failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(map[string]any{
		"valid":    res.OK(),
		"workouts": res.Workouts,
		"errors":   res.Problems,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
