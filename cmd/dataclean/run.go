package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dataclean/internal/json"
	"github.com/JonMunkholm/dataclean/internal/pipeline"
)

func newRunCmd(a *app) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once: download, validate, upload, notify",
		Example: `
	dataclean run
	dataclean run --run-id 0b6f5c2e-4a8d-4c1e-9f3a-2d7e8b9c1a00
	STORAGE_BACKEND=file STORAGE_FILE_ROOT=./data dataclean run`,
		Args: cobra.NoArgs,
		RunE: withSignalWatcher(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			id := pipeline.NewRunID()
			if runID != "" {
				var err error
				if id, err = pipeline.ParseRunID(runID); err != nil {
					return err
				}
			}

			d, err := buildPipeline(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			run, runErr := d.runner.Run(ctx, id)

			out, err := json.MarshalIndent(run, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding run: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			return runErr
		}),
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "UUID recorded in the run ledger (default: random)")
	return cmd
}
