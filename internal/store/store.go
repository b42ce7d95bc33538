package store

import (
	"context"
	"time"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// Run is a persisted analysis run.
type Run struct {
	ID        string        `json:"id"`
	City      string        `json:"city"`
	Slug      string        `json:"slug"`
	Country   string        `json:"country,omitempty"`
	Year      int           `json:"year"`
	Report    *model.Report `json:"report,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Slug   string `json:"slug,omitempty"`
	Year   int    `json:"year,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for analysis runs.
type Store interface {
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
