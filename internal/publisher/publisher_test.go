package publisher

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/dataclean/internal/config"
	"github.com/JonMunkholm/dataclean/internal/pipeline"
	"github.com/JonMunkholm/dataclean/internal/staging"
	"github.com/JonMunkholm/dataclean/internal/storage"
)

var runTime = time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)

func TestObjectNames(t *testing.T) {
	tests := []struct {
		name         string
		inputKey     string
		outputPrefix string
		rejectPrefix string
		now          time.Time
		wantClean    string
		wantRejects  string
	}{
		{
			name:         "defaults",
			inputKey:     "datasets/in/dataset.csv",
			outputPrefix: "datasets/out",
			rejectPrefix: "datasets/reject",
			now:          runTime,
			wantClean:    "datasets/out/dataset_clean_20240301T090507Z.csv",
			wantRejects:  "datasets/reject/dataset_rejects_20240301T090507Z.csv",
		},
		{
			name:         "trailing slashes trimmed",
			inputKey:     "in/applicants.csv",
			outputPrefix: "out//",
			rejectPrefix: "reject/",
			now:          runTime,
			wantClean:    "out/applicants_clean_20240301T090507Z.csv",
			wantRejects:  "reject/applicants_rejects_20240301T090507Z.csv",
		},
		{
			name:         "only last extension stripped",
			inputKey:     "in/data.v2.csv",
			outputPrefix: "out",
			rejectPrefix: "reject",
			now:          runTime,
			wantClean:    "out/data.v2_clean_20240301T090507Z.csv",
			wantRejects:  "reject/data.v2_rejects_20240301T090507Z.csv",
		},
		{
			name:         "no extension",
			inputKey:     "dataset",
			outputPrefix: "out",
			rejectPrefix: "reject",
			now:          runTime,
			wantClean:    "out/dataset_clean_20240301T090507Z.csv",
			wantRejects:  "reject/dataset_rejects_20240301T090507Z.csv",
		},
		{
			name:         "empty prefix",
			inputKey:     "dataset.csv",
			outputPrefix: "",
			rejectPrefix: "/",
			now:          runTime,
			wantClean:    "dataset_clean_20240301T090507Z.csv",
			wantRejects:  "dataset_rejects_20240301T090507Z.csv",
		},
		{
			name:         "timestamp converted to UTC",
			inputKey:     "dataset.csv",
			outputPrefix: "out",
			rejectPrefix: "reject",
			now:          time.Date(2024, 3, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)),
			wantClean:    "out/dataset_clean_20240302T043000Z.csv",
			wantRejects:  "reject/dataset_rejects_20240302T043000Z.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, rejects := ObjectNames(tt.inputKey, tt.outputPrefix, tt.rejectPrefix, tt.now)
			require.Equal(t, tt.wantClean, clean)
			require.Equal(t, tt.wantRejects, rejects)
		})
	}
}

func setup(t *testing.T) (*storage.FileStore, *staging.Area, config.StorageConfig) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	cfg := config.StorageConfig{
		Bucket:       "finure-airflow",
		InputKey:     "datasets/in/dataset.csv",
		OutputPrefix: "datasets/out/",
		RejectPrefix: "datasets/reject",
	}
	return store, staging.New(t.TempDir()), cfg
}

func TestPublisher_Run(t *testing.T) {
	ctx := context.Background()
	store, area, cfg := setup(t)

	require.NoError(t, area.Write(area.CleanedPath(), []byte("clean\n")))
	require.NoError(t, area.Write(area.RejectedPath(), []byte("rejects\n")))

	p := New(store, area, cfg, WithClock(clockwork.NewFakeClockAt(runTime)))
	require.Equal(t, pipeline.StageUpload, p.Name())

	h := &pipeline.Handoff{}
	require.NoError(t, p.Run(ctx, h))

	require.Equal(t, "datasets/out/dataset_clean_20240301T090507Z.csv", h.CleanedObject)
	require.Equal(t, "datasets/reject/dataset_rejects_20240301T090507Z.csv", h.RejectsObject)

	got, err := store.Get(ctx, cfg.Bucket, h.CleanedObject)
	require.NoError(t, err)
	require.Equal(t, "clean\n", string(got))

	got, err = store.Get(ctx, cfg.Bucket, h.RejectsObject)
	require.NoError(t, err)
	require.Equal(t, "rejects\n", string(got))
}

func TestPublisher_MissingStagedFile(t *testing.T) {
	tests := []struct {
		name         string
		stageClean   bool
		stageRejects bool
		wantPrefix   string
	}{
		{name: "cleaned missing", stageRejects: true, wantPrefix: "cleaned file "},
		{name: "rejects missing", stageClean: true, wantPrefix: "rejects file "},
		{name: "both missing", wantPrefix: "cleaned file "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, area, cfg := setup(t)
			if tt.stageClean {
				require.NoError(t, area.Write(area.CleanedPath(), []byte("clean\n")))
			}
			if tt.stageRejects {
				require.NoError(t, area.Write(area.RejectedPath(), []byte("rejects\n")))
			}

			h := &pipeline.Handoff{}
			err := New(store, area, cfg, WithClock(clockwork.NewFakeClockAt(runTime))).Run(ctx, h)
			require.ErrorIs(t, err, staging.ErrNotStaged)
			require.Contains(t, err.Error(), tt.wantPrefix)
			require.Empty(t, h.CleanedObject)
			require.Empty(t, h.RejectsObject)

			// Nothing may be published when either file is missing.
			clean, _ := ObjectNames(cfg.InputKey, cfg.OutputPrefix, cfg.RejectPrefix, runTime)
			_, err = store.Get(ctx, cfg.Bucket, clean)
			require.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestPublisher_UsesHandoffPaths(t *testing.T) {
	ctx := context.Background()
	store, area, cfg := setup(t)

	cleanedPath := filepath.Join(filepath.Dir(area.InputPath()), "alt-clean.csv")
	rejectedPath := filepath.Join(filepath.Dir(area.InputPath()), "alt-rejects.csv")
	require.NoError(t, area.Write(cleanedPath, []byte("alt clean\n")))
	require.NoError(t, area.Write(rejectedPath, []byte("alt rejects\n")))

	h := &pipeline.Handoff{CleanedPath: cleanedPath, RejectedPath: rejectedPath}
	require.NoError(t, New(store, area, cfg, WithClock(clockwork.NewFakeClockAt(runTime))).Run(ctx, h))

	got, err := store.Get(ctx, cfg.Bucket, h.CleanedObject)
	require.NoError(t, err)
	require.Equal(t, "alt clean\n", string(got))
}
