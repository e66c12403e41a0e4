// Package client talks to the FitTracker REST API from the command line.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/claude/fittracker/internal/models"
)

// ValidationError is returned when the server rejects an import document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "import rejected: " + strings.Join(e.Problems, "; ")
}

// PartialImportError is returned when the server stopped part way. Imported
// holds the fichas that were stored before the failure.
type PartialImportError struct {
	Message  string
	Imported []models.Workout
}

func (e *PartialImportError) Error() string {
	return fmt.Sprintf("import stopped after %d fichas: %s", len(e.Imported), e.Message)
}

// ValidateResult is the server's preview of an import document.
type ValidateResult struct {
	Valid    bool                    `json:"valid"`
	Workouts []models.WorkoutRequest `json:"workouts"`
	Errors   []string                `json:"errors"`
}

// Client sends data to the FitTracker server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the FitTracker server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// Validate asks the server to check an import document without storing it.
func (c *Client) Validate(ctx context.Context, data []byte) (*ValidateResult, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/api/v1/import/validate", data)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("validate failed (status %d): %s", status, body)
	}
	var res ValidateResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decoding validate response: %w", err)
	}
	return &res, nil
}

// Import POSTs an import document. Every accepted request creates new
// fichas, so only a failed connection attempt is retried: the server never
// saw the document. Once it was sent, any outcome is final, including
// timeouts and gateway errors.
func (c *Client) Import(ctx context.Context, data []byte) ([]models.Workout, error) {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		status, body, err := c.do(ctx, http.MethodPost, "/api/v1/import", data)
		if err != nil {
			if !notSent(err) {
				return nil, fmt.Errorf("import outcome unknown, check the server before importing again: %w", err)
			}
			lastErr = err
			continue
		}
		return decodeImport(status, body)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}

// notSent reports whether err happened while connecting, before any byte
// of the request reached the server.
func notSent(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func decodeImport(status int, body []byte) ([]models.Workout, error) {
	var resp struct {
		Imported []models.Workout `json:"imported"`
		Errors   []string         `json:"errors"`
		Error    string           `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("import failed (status %d): %s", status, body)
	}
	switch {
	case status == http.StatusCreated:
		return resp.Imported, nil
	case status == http.StatusUnprocessableEntity:
		return nil, &ValidationError{Problems: resp.Errors}
	case len(resp.Imported) > 0:
		return resp.Imported, &PartialImportError{Message: resp.Error, Imported: resp.Imported}
	case resp.Error != "":
		return nil, fmt.Errorf("import failed (status %d): %s", status, resp.Error)
	default:
		return nil, fmt.Errorf("import failed (status %d): %s", status, body)
	}
}

// Backup downloads the full backup document.
func (c *Client) Backup(ctx context.Context) ([]byte, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/v1/export", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("backup failed (status %d): %s", status, body)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, path string, data []byte) (int, []byte, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
