// Package history keeps the ledger of pipeline runs: when each run started
// and finished, how it ended, and what it produced.
//
// The ledger lives in PostgreSQL when a database URL is configured and in
// memory otherwise.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/dataclean/internal/core"
)

// ErrNotFound is returned when no run has the requested ID.
var ErrNotFound = errors.New("run not found")

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one pipeline execution.
type Run struct {
	ID          string                `json:"id"`
	Status      Status                `json:"status"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  *time.Time            `json:"finished_at,omitempty"`
	FailedStage string                `json:"failed_stage,omitempty"`
	Error       string                `json:"error,omitempty"`
	ErrorCode   string                `json:"error_code,omitempty"`
	Stats       *core.ValidationStats `json:"stats,omitempty"`

	CleanedObject string `json:"cleaned_object,omitempty"`
	RejectsObject string `json:"rejects_object,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists runs.
type Store interface {
	// Create records a new run.
	Create(ctx context.Context, run *Run) error

	// Update replaces the stored state of an existing run.
	Update(ctx context.Context, run *Run) error

	// Get returns the run with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]*Run, error)

	// Close releases the store's resources.
	Close()
}

func clone(r *Run) *Run {
	c := *r
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		c.FinishedAt = &t
	}
	if r.Stats != nil {
		s := *r.Stats
		c.Stats = &s
	}
	return &c
}
