package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/dataclean/internal/core"
	"github.com/JonMunkholm/dataclean/internal/history"
)

type fakeStage struct {
	name  string
	err   error
	calls *[]string
	run   func(ctx context.Context, h *Handoff) error
}

func (s *fakeStage) Name() string { return s.name }

func (s *fakeStage) Run(ctx context.Context, h *Handoff) error {
	*s.calls = append(*s.calls, s.name)
	if s.run != nil {
		return s.run(ctx, h)
	}
	return s.err
}

var startTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRunner_Success(t *testing.T) {
	var calls []string
	stats := &core.ValidationStats{TotalRows: 3, DataRows: 2, CleanRows: 1, RejectedRows: 1}

	stages := []Stage{
		&fakeStage{name: StageDownload, calls: &calls},
		&fakeStage{name: StageValidate, calls: &calls, run: func(_ context.Context, h *Handoff) error {
			h.Stats = stats
			return nil
		}},
		&fakeStage{name: StageUpload, calls: &calls, run: func(_ context.Context, h *Handoff) error {
			h.CleanedObject = "datasets/out/dataset_clean_20240301T120000Z.csv"
			h.RejectsObject = "datasets/reject/dataset_rejects_20240301T120000Z.csv"
			return nil
		}},
	}
	notify := &fakeStage{name: StageNotify, calls: &calls}

	ledger := history.NewMemoryStore()
	runner := NewRunner(ledger, stages, WithFinalizers(notify), WithClock(clockwork.NewFakeClockAt(startTime)))

	run, err := runner.Run(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, []string{StageDownload, StageValidate, StageUpload, StageNotify}, calls)

	require.Equal(t, history.StatusSucceeded, run.Status)
	require.Equal(t, startTime, run.StartedAt)
	require.NotNil(t, run.FinishedAt)
	require.Equal(t, stats, run.Stats)
	require.Equal(t, "datasets/out/dataset_clean_20240301T120000Z.csv", run.CleanedObject)
	require.Empty(t, run.FailedStage)

	stored, err := ledger.Get(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, history.StatusSucceeded, stored.Status)
	require.Equal(t, *stats, *stored.Stats)
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	var calls []string
	var notified *Handoff

	stages := []Stage{
		&fakeStage{name: StageDownload, calls: &calls},
		&fakeStage{name: StageValidate, calls: &calls, err: core.ErrEmptyInput},
		&fakeStage{name: StageUpload, calls: &calls},
	}
	notify := &fakeStage{name: StageNotify, calls: &calls, run: func(_ context.Context, h *Handoff) error {
		notified = h
		return nil
	}}

	runner := NewRunner(nil, stages, WithFinalizers(notify))

	run, err := runner.Run(context.Background(), "run-2")
	require.ErrorIs(t, err, core.ErrEmptyInput)
	require.EqualError(t, err, "validate: empty file: input CSV has no rows")
	require.Equal(t, []string{StageDownload, StageValidate, StageNotify}, calls)

	require.Equal(t, history.StatusFailed, run.Status)
	require.Equal(t, StageValidate, run.FailedStage)
	require.Equal(t, "FILE005", run.ErrorCode)
	require.Nil(t, run.Stats)

	require.NotNil(t, notified)
	require.Nil(t, notified.Stats)
	require.Empty(t, notified.CleanedObject)
}

func TestRunner_FinalizerErrorIsNotFatal(t *testing.T) {
	var calls []string
	stages := []Stage{&fakeStage{name: StageDownload, calls: &calls}}
	notify := &fakeStage{name: StageNotify, calls: &calls, err: errors.New("webhook down")}

	run, err := NewRunner(nil, stages, WithFinalizers(notify)).Run(context.Background(), "run-3")
	require.NoError(t, err)
	require.Equal(t, history.StatusSucceeded, run.Status)
	require.Equal(t, []string{StageDownload, StageNotify}, calls)
}

func TestRunner_CancelledContext(t *testing.T) {
	var calls []string
	var finalizerCtxErr error

	ctx, cancel := context.WithCancel(context.Background())

	stages := []Stage{
		&fakeStage{name: StageDownload, calls: &calls, run: func(context.Context, *Handoff) error {
			cancel()
			return nil
		}},
		&fakeStage{name: StageValidate, calls: &calls},
	}
	notify := &fakeStage{name: StageNotify, calls: &calls, run: func(ctx context.Context, _ *Handoff) error {
		finalizerCtxErr = ctx.Err()
		return nil
	}}

	run, err := NewRunner(nil, stages, WithFinalizers(notify)).Run(ctx, "run-4")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []string{StageDownload, StageNotify}, calls)
	require.Equal(t, StageValidate, run.FailedStage)
	require.Equal(t, "RUN003", run.ErrorCode)
	require.NoError(t, finalizerCtxErr)
}

func TestRunner_RecordsRunningState(t *testing.T) {
	ledger := history.NewMemoryStore()
	var seen *history.Run

	stages := []Stage{&fakeStage{name: StageDownload, calls: new([]string), run: func(ctx context.Context, h *Handoff) error {
		var err error
		seen, err = ledger.Get(ctx, h.RunID)
		return err
	}}}

	_, err := NewRunner(ledger, stages).Run(context.Background(), "run-5")
	require.NoError(t, err)
	require.NotNil(t, seen)
	require.Equal(t, history.StatusRunning, seen.Status)
	require.Nil(t, seen.FinishedAt)
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	require.Len(t, a, 36)
	require.NotEqual(t, a, b)

	got, err := ParseRunID(a)
	require.NoError(t, err)
	require.Equal(t, a, got)
}

func TestParseRunID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{name: "canonical", id: "0b6f5c2e-4a8d-4c1e-9f3a-2d7e8b9c1a00", want: "0b6f5c2e-4a8d-4c1e-9f3a-2d7e8b9c1a00"},
		{name: "uppercase", id: "0B6F5C2E-4A8D-4C1E-9F3A-2D7E8B9C1A00", want: "0b6f5c2e-4a8d-4c1e-9f3a-2d7e8b9c1a00"},
		{name: "free form", id: "nightly-2024-03-01", wantErr: true},
		{name: "empty", id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRunID(tt.id)
			if tt.wantErr {
				require.ErrorContains(t, err, "invalid run id")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
