// Package store keeps the local run ledger: one entry per sync invocation
// with its outcome and counts. Disclosures themselves live in Notion.
package store

import (
	"context"
	"time"

	"github.com/sells-group/yuutai-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Kind   model.RunKind   `json:"kind,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
	// CreatedAfter, when set, drops runs started before it.
	CreatedAfter time.Time `json:"created_after,omitempty"`
}

// Store defines the persistence interface for the run ledger.
type Store interface {
	CreateRun(ctx context.Context, kind model.RunKind, target string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, stats *model.BatchStats, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
