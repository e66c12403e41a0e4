package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/fittracker/internal/importer"
	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/report"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the FitTracker REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// get performs a GET and returns the body and response headers.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, http.Header, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, resp.Header, nil
}

// post sends a JSON body and returns the response body on 200.
func (c *HTTPClient) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, respBody)
	}
	return respBody, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, what string, dst any) error {
	body, _, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", what, err)
	}
	return nil
}

// Location returns the local zone. Day filters are sent as plain dates and
// resolved by the server in its own zone.
func (c *HTTPClient) Location() *time.Location {
	return time.Local
}

func (c *HTTPClient) Stats(ctx context.Context, _ int) (models.WorkoutStats, error) {
	var stats models.WorkoutStats
	err := c.getJSON(ctx, "/api/v1/stats", nil, "stats", &stats)
	return stats, err
}

func (c *HTTPClient) ListWorkouts(ctx context.Context, _ int) ([]models.Workout, error) {
	var workouts []models.Workout
	if err := c.getJSON(ctx, "/api/v1/workouts", nil, "workouts", &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context, _ int, status models.SessionStatus, day *time.Time) ([]models.SessionDetail, error) {
	params := url.Values{}
	if status != "" && status != models.SessionStatusAll {
		params.Set("status", string(status))
	}
	if day != nil {
		params.Set("date", day.Format("2006-01-02"))
	}

	var sessions []models.SessionDetail
	if err := c.getJSON(ctx, "/api/v1/sessions", params, "sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) SessionReport(ctx context.Context, _ int, id uuid.UUID, format report.Format) (*report.Document, error) {
	params := url.Values{}
	params.Set("format", string(format))

	body, header, err := c.get(ctx, "/api/v1/sessions/"+id.String()+"/report", params)
	if err != nil {
		return nil, err
	}

	doc := &report.Document{ContentType: header.Get("Content-Type"), Body: body}
	if _, p, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		doc.Filename = p["filename"]
	}
	return doc, nil
}

func (c *HTTPClient) ExerciseLibrary(ctx context.Context, _ int, query string, typ models.WorkoutType) ([]models.LibraryExercise, error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if typ != "" {
		params.Set("type", string(typ))
	}

	var exercises []models.LibraryExercise
	if err := c.getJSON(ctx, "/api/v1/exercises", params, "exercises", &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// ValidateImport asks the server to check the document, so its own import
// options (object form on or off) decide the outcome.
func (c *HTTPClient) ValidateImport(ctx context.Context, data []byte) (importer.Result, error) {
	body, err := c.post(ctx, "/api/v1/import/validate", data)
	if err != nil {
		return importer.Result{}, err
	}
	var resp struct {
		Workouts []models.WorkoutRequest `json:"workouts"`
		Errors   []string                `json:"errors"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return importer.Result{}, fmt.Errorf("httpclient: decode validation: %w", err)
	}
	if len(resp.Errors) > 0 {
		return importer.Result{Problems: resp.Errors}, nil
	}
	return importer.Result{Workouts: resp.Workouts}, nil
}
