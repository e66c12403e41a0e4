// Package tracker is the data-access façade used by the HTTP and MCP
// surfaces. It combines the Postgres store, the ficha cache, the settings
// store and photo storage, and owns validation of incoming requests.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/claude/fittracker/internal/cache"
	"github.com/claude/fittracker/internal/importer"
	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/report"
	"github.com/claude/fittracker/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrPhotosDisabled  = errors.New("photo storage is not configured")
)

// ImportError carries the problems that made an import document unusable.
// It matches ErrInvalidInput with errors.Is.
type ImportError struct {
	Problems []string
}

func (e *ImportError) Error() string {
	return "invalid import data: " + strings.Join(e.Problems, "; ")
}

func (e *ImportError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Store is the persistence collaborator.
type Store interface {
	ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error)
	GetWorkout(ctx context.Context, id uuid.UUID, userID int) (*models.Workout, error)
	CreateWorkout(ctx context.Context, userID int, req models.WorkoutRequest) (*models.Workout, error)
	UpdateWorkout(ctx context.Context, id uuid.UUID, userID int, patch models.WorkoutPatch) (*models.Workout, error)
	DeleteWorkout(ctx context.Context, id uuid.UUID, userID int) error

	ListSessions(ctx context.Context, userID int) ([]models.WorkoutSession, error)
	GetSession(ctx context.Context, id uuid.UUID, userID int) (*models.WorkoutSession, error)
	CreateSession(ctx context.Context, userID int, req models.SessionRequest) (*models.WorkoutSession, error)
	AddSessionPhoto(ctx context.Context, sessionID uuid.UUID, userID int, url string) error

	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
}

// SettingsStore holds per-user preferences.
type SettingsStore interface {
	Get(userID int) models.Settings
	Save(ctx context.Context, userID int, st models.Settings) error
}

// PhotoStore uploads a session photo and returns its public URL.
type PhotoStore interface {
	Upload(ctx context.Context, userID int, sessionID uuid.UUID, filename string, body io.Reader) (string, error)
}

// Recorder receives domain events for metrics.
type Recorder interface {
	ImportFinished(source, status string, d time.Duration)
	SessionRecorded()
}

type nopRecorder struct{}

func (nopRecorder) ImportFinished(string, string, time.Duration) {}
func (nopRecorder) SessionRecorded()                             {}

// Options configure a Service. Zero values are usable.
type Options struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Photos   PhotoStore // nil disables uploads
	Metrics  Recorder
	Location *time.Location
	Import   importer.Options
	Now      func() time.Time
}

// Service implements every read and write the application exposes.
type Service struct {
	store    Store
	settings SettingsStore
	log      *slog.Logger

	cache      cache.Cache
	cacheTTL   time.Duration
	photos     PhotoStore
	metrics    Recorder
	loc        *time.Location
	importOpts importer.Options
	now        func() time.Time
	reports    *report.Renderer
	validate   *validator.Validate
}

// New creates a Service.
func New(store Store, settings SettingsStore, log *slog.Logger, opts Options) *Service {
	s := &Service{
		store:      store,
		settings:   settings,
		log:        log,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		photos:     opts.Photos,
		metrics:    opts.Metrics,
		loc:        opts.Location,
		importOpts: opts.Import,
		now:        opts.Now,
		validate:   newValidator(),
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = 5 * time.Minute
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.reports = report.New(s.loc)
	return s
}

// Location is the time zone used for day and week boundaries.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Settings returns the user's preferences.
func (s *Service) Settings(userID int) models.Settings {
	return s.settings.Get(userID)
}

// UpdateSettings validates and persists the user's preferences.
func (s *Service) UpdateSettings(ctx context.Context, userID int, st models.Settings) error {
	return s.settings.Save(ctx, userID, st)
}

// ImportLogs returns the most recent import and restore runs.
func (s *Service) ImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error) {
	return s.store.QueryImportLogs(ctx, userID, limit)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs struct validation and converts failures to ErrInvalidInput.
func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, ", "))
}
