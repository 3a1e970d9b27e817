package main

import (
	"context"

	"github.com/spf13/cobra"

	shifterrors "shift/internal/errors"
	"shift/internal/history"
)

var (
	historyLimit  int
	historyRunID  string
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previous runs and the files they changed",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show")
	historyCmd.Flags().StringVar(&historyRunID, "run", "", "Show the files changed by one run")
	historyCmd.Flags().StringVar(&historyFormat, "format", "human", "Output format (human, json, yaml)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(historyFormat)
	if err != nil {
		return err
	}

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	store, err := history.OpenStore(env.repoRoot, env.logger)
	if err != nil {
		return shifterrors.NewShiftError(shifterrors.InternalError, "Failed to open run history", err, nil)
	}
	defer func() { _ = store.Close() }()

	resp, err := queryHistory(cmd.Context(), store, historyRunID, historyLimit)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), resp, format)
}

// queryHistory returns either the run list or one run's details.
func queryHistory(ctx context.Context, store *history.Store, runID string, limit int) (interface{}, error) {
	if runID == "" {
		runs, err := store.ListRuns(ctx, limit)
		if err != nil {
			return nil, err
		}
		return &HistoryResponse{Runs: runs}, nil
	}

	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, shifterrors.NewShiftError(shifterrors.InternalError, "Run not found: "+runID, nil,
			[]shifterrors.FixAction{{
				Type:        shifterrors.RunCommand,
				Command:     "shift history",
				Safe:        true,
				Description: "List recorded runs",
			}})
	}

	changes, err := store.Changes(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &RunDetailResponse{Run: run, Changes: changes}, nil
}
