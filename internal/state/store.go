// Package state records render runs and the last successful render of each
// input in a SQLite database, so unchanged inputs can be skipped.
package state

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors.
var (
	ErrNotOpen  = errors.New("database not opened")
	ErrNotFound = errors.New("not found")
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one batch invocation.
type Run struct {
	ID          string     `json:"id"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Inputs      int        `json:"inputs"`
	Rendered    int        `json:"rendered"`
	Skipped     int        `json:"skipped"`
	Failed      int        `json:"failed"`
	Error       string     `json:"error,omitempty"`
}

// RunCounts are the totals stored when a run completes.
type RunCounts struct {
	Inputs   int
	Rendered int
	Skipped  int
	Failed   int
}

// Render is the last successful render of one input.
type Render struct {
	InputPath   string    `json:"input_path"`
	ContentHash string    `json:"content_hash"`
	OutputPath  string    `json:"output_path"`
	Entities    int       `json:"entities"`
	Statements  int       `json:"statements"`
	RenderedAt  time.Time `json:"rendered_at"`
	RunID       string    `json:"run_id,omitempty"`
}

// Store persists runs and renders.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(ctx context.Context) (*Run, error)
	CompleteRun(ctx context.Context, id string, status RunStatus, counts RunCounts, errMsg string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	RecordRender(ctx context.Context, r *Render) error
	GetRender(ctx context.Context, inputPath string) (*Render, error)
	ListRenders(ctx context.Context) ([]*Render, error)
}

var _ Store = (*SQLiteStore)(nil)
