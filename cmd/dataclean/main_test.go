package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/dataclean/internal/core"
	"github.com/JonMunkholm/dataclean/internal/json"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "dataset.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"Age,Income,Employed,CreditScore,LoanAmount,Approved\n"+
			"34,52000,1,710,15000,1\n"+
			"34,52000,1,710,15000,maybe\n"), 0o644))

	outDir := filepath.Join(dir, "out")
	out, err := execute(t, "validate", "--out-dir", outDir, input)
	require.NoError(t, err)

	var got validateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, &core.ValidationStats{TotalRows: 3, DataRows: 2, CleanRows: 1, RejectedRows: 1}, got.Stats)
	require.Equal(t, filepath.Join(outDir, "cleaned.csv"), got.CleanedPath)
	require.FileExists(t, got.RejectedPath)
}

func TestValidateCommand_RequireHeader(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "dataset.csv")
	require.NoError(t, os.WriteFile(input, []byte("Age,Income\n34,52000\n"), 0o644))

	_, err := execute(t, "validate", "--out-dir", dir, "--require-header", input)

	var schemaErr *core.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "VAL004", core.MapError(err).Code)
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", "--out-dir", t.TempDir(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	require.Equal(t, "STG001", core.MapError(err).Code)
}

func TestValidateCommand_Args(t *testing.T) {
	_, err := execute(t, "validate")
	require.Error(t, err)
}

func TestRunCommand_FileBackend(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bucket", "in"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bucket", "in", "dataset.csv"),
		[]byte("34,52000,1,710,15000\n7,1,1,1,1\n"), 0o644))

	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("STORAGE_FILE_ROOT", root)
	t.Setenv("GCS_BUCKET", "bucket")
	t.Setenv("INPUT_FILE_PATH", "in/dataset.csv")
	t.Setenv("OUTPUT_FILE_PREFIX", "out")
	t.Setenv("REJECT_FILE_PREFIX", "reject")
	t.Setenv("SHARED_DIR", filepath.Join(root, "shared"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SLACK_WEBHOOK_URL", "")
	t.Setenv("WEBHOOK_URL", "")

	out, err := execute(t, "run", "--run-id", "0B6F5C2E-4A8D-4C1E-9F3A-2D7E8B9C1A00")
	require.NoError(t, err)

	var run struct {
		ID            string                `json:"id"`
		Status        string                `json:"status"`
		Stats         *core.ValidationStats `json:"stats"`
		CleanedObject string                `json:"cleaned_object"`
		RejectsObject string                `json:"rejects_object"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	require.Equal(t, "0b6f5c2e-4a8d-4c1e-9f3a-2d7e8b9c1a00", run.ID)
	require.Equal(t, "succeeded", run.Status)
	require.Equal(t, 1, run.Stats.CleanRows)
	require.Equal(t, 1, run.Stats.RejectedRows)

	require.FileExists(t, filepath.Join(root, "bucket", filepath.FromSlash(run.CleanedObject)))
	require.FileExists(t, filepath.Join(root, "bucket", filepath.FromSlash(run.RejectsObject)))
}

func TestRunCommand_RejectsNonUUIDRunID(t *testing.T) {
	root := t.TempDir()
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("STORAGE_FILE_ROOT", root)
	t.Setenv("SHARED_DIR", filepath.Join(root, "shared"))
	t.Setenv("DATABASE_URL", "")

	out, err := execute(t, "run", "--run-id", "nightly-2024-03-01")
	require.ErrorContains(t, err, `invalid run id "nightly-2024-03-01"`)
	require.Empty(t, out)
	require.NoDirExists(t, filepath.Join(root, "shared"))
}
