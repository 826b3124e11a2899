package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dataclean/internal/core"
	"github.com/JonMunkholm/dataclean/internal/json"
	"github.com/JonMunkholm/dataclean/internal/pipeline"
	"github.com/JonMunkholm/dataclean/internal/staging"
)

// validateOutput is printed by the validate command.
type validateOutput struct {
	Stats        *core.ValidationStats `json:"stats"`
	CleanedPath  string                `json:"cleaned_path"`
	RejectedPath string                `json:"rejected_path"`
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		outDir        string
		requireHeader bool
	)

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a local CSV file without object storage",
		Long: `Validate partitions the rows of a local CSV file into clean and rejected
sets, writes cleaned.csv and rejected.csv to the output directory and prints
the validation stats as JSON.`,
		Example: `
	dataclean validate datasets/dataset.csv
	dataclean validate --out-dir /tmp/out --require-header dataset.csv`,
		Args: cobra.ExactArgs(1),
		RunE: withSignalWatcher(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = a.cfg.Staging.Dir
			}
			cfg := *a.cfg
			cfg.Validation.RequireHeader = cfg.Validation.RequireHeader || requireHeader

			area := staging.New(outDir)
			stage := pipeline.NewValidateStage(area, newValidator(&cfg))

			h := &pipeline.Handoff{RunID: pipeline.NewRunID(), InputPath: args[0]}
			if err := stage.Run(ctx, h); err != nil {
				return err
			}

			out, err := json.MarshalIndent(validateOutput{
				Stats:        h.Stats,
				CleanedPath:  h.CleanedPath,
				RejectedPath: h.RejectedPath,
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding stats: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "directory for cleaned.csv and rejected.csv (default: SHARED_DIR)")
	cmd.Flags().BoolVar(&requireHeader, "require-header", false, "treat row 1 as a header and fail when required columns are missing")
	return cmd
}
