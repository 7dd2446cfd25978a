package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/extract-cli/internal/model"
)

// ErrNotFound is returned when a lookup or update targets a run that does
// not exist. Callers route on it with errors.Is.
var ErrNotFound = eris.New("not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Source string          `json:"source,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for extraction runs.
type Store interface {
	CreateRun(ctx context.Context, source, contextHint string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, result map[string]any, confidence float64) error
	FailRun(ctx context.Context, runID string, cause string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
