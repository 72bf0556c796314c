package model

import "time"

// RunStatus represents the state of a sync run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunKind names the entry point that started a run.
type RunKind string

const (
	RunKindDate     RunKind = "date"
	RunKindRange    RunKind = "range"
	RunKindCompany  RunKind = "company"
	RunKindSchedule RunKind = "schedule"
)

// Run is one invocation of a sync entry point, recorded in the run ledger.
type Run struct {
	ID        string      `json:"id"`
	Kind      RunKind     `json:"kind"`
	Target    string      `json:"target"`
	Status    RunStatus   `json:"status"`
	Stats     *BatchStats `json:"stats,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
