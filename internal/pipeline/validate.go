package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/JonMunkholm/dataclean/internal/core"
	"github.com/JonMunkholm/dataclean/internal/logging"
	"github.com/JonMunkholm/dataclean/internal/staging"
)

// ValidateStage partitions the staged input into the clean table and the
// rejects report, both written to the staging area.
type ValidateStage struct {
	area      *staging.Area
	validator *core.Validator
}

// NewValidateStage creates the validate stage.
func NewValidateStage(area *staging.Area, validator *core.Validator) *ValidateStage {
	return &ValidateStage{area: area, validator: validator}
}

// Name implements Stage.
func (s *ValidateStage) Name() string { return StageValidate }

// Run implements Stage. Nothing is written when the input is fatal
// (empty, malformed, or missing required header columns).
func (s *ValidateStage) Run(ctx context.Context, h *Handoff) error {
	inPath := staging.Or(h.InputPath, s.area.InputPath())

	f, err := s.area.Open(inPath)
	if err != nil {
		return fmt.Errorf("input %w", err)
	}
	defer f.Close()

	res, err := s.validator.Validate(f)
	if err != nil {
		return err
	}

	cleanedPath := s.area.CleanedPath()
	if err := s.writeFile(cleanedPath, func(f io.Writer) error { return core.WriteClean(f, res.Clean) }); err != nil {
		return fmt.Errorf("staging clean table: %w", err)
	}

	rejectedPath := s.area.RejectedPath()
	if err := s.writeFile(rejectedPath, func(f io.Writer) error { return core.WriteRejected(f, res.Rejected) }); err != nil {
		return fmt.Errorf("staging rejects report: %w", err)
	}

	h.CleanedPath = cleanedPath
	h.RejectedPath = rejectedPath
	stats := res.Stats
	h.Stats = &stats

	logging.FromContext(ctx).Info("validation complete",
		"stage", StageValidate,
		"has_header", res.HasHeader,
		"total_rows", stats.TotalRows,
		"data_rows", stats.DataRows,
		"clean_rows", stats.CleanRows,
		"rejected_rows", stats.RejectedRows,
	)
	return nil
}

func (s *ValidateStage) writeFile(path string, write func(io.Writer) error) error {
	f, err := s.area.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
