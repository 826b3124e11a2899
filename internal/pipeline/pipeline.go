// Package pipeline runs the dataset stages in order and records each run.
//
// A run is download, validate, upload and notify. Each stage persists its
// output to the staging area before the next begins, and reports what it
// produced on the shared Handoff. The first failing stage stops the run;
// finalizer stages (notify) still run so the outcome is always reported.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JonMunkholm/dataclean/internal/core"
)

// Stage names.
const (
	StageDownload = "download"
	StageValidate = "validate"
	StageUpload   = "upload"
	StageNotify   = "notify"
)

// Handoff carries run outputs between stages. Empty fields mean the
// producing stage did not run or failed; consumers fall back to the default
// staged paths where one exists.
type Handoff struct {
	RunID string

	InputPath    string
	CleanedPath  string
	RejectedPath string

	Stats *core.ValidationStats

	CleanedObject string
	RejectsObject string
}

// Stage is one step of a run.
type Stage interface {
	Name() string
	Run(ctx context.Context, h *Handoff) error
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ParseRunID checks that id is a UUID, which the run ledger requires, and
// returns it in canonical lowercase form.
func ParseRunID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", id, err)
	}
	return u.String(), nil
}
