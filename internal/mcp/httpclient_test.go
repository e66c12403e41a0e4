package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/report"
	"github.com/google/uuid"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestStats verifies the HTTP client correctly parses a single struct response.
func TestStats(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, models.WorkoutStats{TotalSessions: 12, CurrentStreak: 3, WeeklyGoal: 4})
		},
	})
	defer ts.Close()

	stats, err := NewHTTPClient(ts.URL).Stats(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalSessions != 12 || stats.CurrentStreak != 3 {
		t.Errorf("stats = %+v, want 12 sessions and streak 3", stats)
	}
}

// TestListWorkouts verifies the HTTP client parses the ficha list.
func TestListWorkouts(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.Workout{
				{ID: uuid.New(), Name: "Peito", Type: models.WorkoutTypeA, Exercises: []models.Exercise{{Name: "Supino", Sets: 4, Reps: "10"}}},
			})
		},
	})
	defer ts.Close()

	workouts, err := NewHTTPClient(ts.URL).ListWorkouts(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 1 {
		t.Fatalf("got %d workouts, want 1", len(workouts))
	}
	if workouts[0].Exercises[0].Name != "Supino" {
		t.Errorf("exercise = %q, want Supino", workouts[0].Exercises[0].Name)
	}
}

// TestListSessionsParams verifies status and date are sent as query params
// and omitted when unset.
func TestListSessionsParams(t *testing.T) {
	var gotQuery string
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			writeTestJSON(t, w, []models.SessionDetail{{WorkoutName: "Costas"}})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	sessions, err := client.ListSessions(context.Background(), 1, models.SessionStatusCompleted, &day)
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "date=2026-03-10&status=completed" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(sessions) != 1 || sessions[0].WorkoutName != "Costas" {
		t.Errorf("sessions = %+v", sessions)
	}

	if _, err := client.ListSessions(context.Background(), 1, models.SessionStatusAll, nil); err != nil {
		t.Fatal(err)
	}
	if gotQuery != "" {
		t.Errorf("query = %q, want empty", gotQuery)
	}
}

// TestSessionReport verifies the report body, content type and filename are
// taken from the response.
func TestSessionReport(t *testing.T) {
	id := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions/" + id.String() + "/report": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("format"); got != "html" {
				t.Errorf("format=%q, want html", got)
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Content-Disposition", `attachment; filename="treino-2026-03-10.html"`)
			w.Write([]byte("<h1>Relatório de Treino</h1>"))
		},
	})
	defer ts.Close()

	doc, err := NewHTTPClient(ts.URL).SessionReport(context.Background(), 1, id, report.FormatHTML)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Filename != "treino-2026-03-10.html" {
		t.Errorf("filename = %q", doc.Filename)
	}
	if !strings.HasPrefix(doc.ContentType, "text/html") {
		t.Errorf("content type = %q", doc.ContentType)
	}
	if !strings.Contains(string(doc.Body), "Relatório") {
		t.Errorf("body = %q", doc.Body)
	}
}

// TestExerciseLibraryParams verifies the query and type filters.
func TestExerciseLibraryParams(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("q"); got != "elevacao" {
				t.Errorf("q=%q, want elevacao", got)
			}
			if got := r.URL.Query().Get("type"); got != "B" {
				t.Errorf("type=%q, want B", got)
			}
			writeTestJSON(t, w, []models.LibraryExercise{{Exercise: models.Exercise{Name: "Elevação lateral"}}})
		},
	})
	defer ts.Close()

	exercises, err := NewHTTPClient(ts.URL).ExerciseLibrary(context.Background(), 1, "elevacao", models.WorkoutTypeB)
	if err != nil {
		t.Fatal(err)
	}
	if len(exercises) != 1 {
		t.Fatalf("got %d exercises, want 1", len(exercises))
	}
}

// TestHTTPError verifies non-200 responses become errors carrying the status.
func TestHTTPError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).Stats(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %v, want status code", err)
	}
}

// TestHTTPDecodeError verifies malformed JSON is reported.
func TestHTTPDecodeError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		},
	})
	defer ts.Close()

	if _, err := NewHTTPClient(ts.URL).ListWorkouts(context.Background(), 1); err == nil {
		t.Fatal("expected decode error")
	}
}

// TestValidateImportUsesServer verifies the document is posted as is and the
// server's verdict becomes the result.
func TestValidateImportUsesServer(t *testing.T) {
	const doc = `{"A": {"name": "Peito"}}`
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/import/validate": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != doc {
				t.Errorf("body = %s", body)
			}
			writeTestJSON(t, w, map[string]any{
				"valid":    false,
				"workouts": []any{},
				"errors":   []string{"O JSON deve ser um array de fichas de treino."},
			})
		},
	})
	defer ts.Close()

	res, err := NewHTTPClient(ts.URL).ValidateImport(context.Background(), []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if res.OK() {
		t.Fatal("expected the server's rejection to be reported")
	}
	if len(res.Problems) != 1 || res.Problems[0] != "O JSON deve ser um array de fichas de treino." {
		t.Errorf("problems = %v", res.Problems)
	}
}

// TestValidateImportValid verifies normalized fichas come back on success.
func TestValidateImportValid(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/import/validate": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, map[string]any{
				"valid":    true,
				"workouts": []models.WorkoutRequest{{Name: "Peito", Type: models.WorkoutTypeA}},
				"errors":   []string{},
			})
		},
	})
	defer ts.Close()

	res, err := NewHTTPClient(ts.URL).ValidateImport(context.Background(), []byte(`[]`))
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() || len(res.Workouts) != 1 || res.Workouts[0].Name != "Peito" {
		t.Errorf("result = %+v", res)
	}
}
