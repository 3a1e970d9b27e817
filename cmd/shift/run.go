package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"shift/internal/files"
	"shift/internal/history"
	"shift/internal/pipeline"
	"shift/internal/repostate"
	"shift/internal/tasks"
	"shift/internal/version"
)

var (
	runListTasks bool
	runDirty     bool
	runPaths     []string
	runDryRun    bool
	runFormat    string
	runWorkers   int
	runNoHistory bool
)

var runCmd = &cobra.Command{
	Use:   "run [task...]",
	Short: "Run one or more automated tasks",
	Long: `Runs the named tasks in order, or the tasks listed in .shift/config.toml when
none are named. The run stops at the first task that finds something to fix and
exits with that task's status.`,
	Example: `  shift run debug-calls
  shift run facade-aliases laravel-carbon --path app --path routes
  shift run --dirty --dry-run
  shift run --tasks`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runListTasks, "tasks", false, "List the available tasks")
	runCmd.Flags().BoolVar(&runDirty, "dirty", false, "Scan only files with uncommitted changes")
	runCmd.Flags().StringArrayVar(&runPaths, "path", nil, "The paths to scan (repeatable)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Report what would change without writing files")
	runCmd.Flags().StringVar(&runFormat, "format", "human", "Output format (human, json, yaml)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Files processed in parallel per task (default from config)")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Do not record this run in .shift/history.db")
	rootCmd.AddCommand(runCmd)
}

// runOptions are the resolved inputs of one `shift run`.
type runOptions struct {
	Tasks   []string
	Paths   []string
	Dirty   bool
	DryRun  bool
	Workers int
	History bool
	Format  OutputFormat
}

func runRun(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(runFormat)
	if err != nil {
		return err
	}

	if runListTasks {
		return writeOutput(cmd.OutOrStdout(), newTaskListResponse(tasks.DefaultRegistry()), format)
	}

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	resp, err := executeRun(cmd.Context(), env, runOptions{
		Tasks:   args,
		Paths:   runPaths,
		Dirty:   runDirty,
		DryRun:  runDryRun,
		Workers: runWorkers,
		History: !runNoHistory,
		Format:  format,
	}, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if resp.Result.Status != 0 {
		return &exitError{code: resp.Result.Status}
	}
	return nil
}

// executeRun wires the pipeline for env and runs it. Human output is
// streamed task by task; json and yaml are written once at the end.
func executeRun(ctx context.Context, env *environment, opts runOptions, out io.Writer) (*RunResponse, error) {
	cfg := env.cfg
	logger := env.logger

	workers := cfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	dryRun := opts.DryRun || cfg.DryRun

	deps := tasks.Deps{
		Resolver: &files.Resolver{
			RepoRoot:   env.repoRoot,
			Roots:      cfg.Paths,
			Extensions: cfg.Extensions,
			Ignore:     cfg.Ignore,
			Dirty:      repostate.DirtyFiles,
		},
		Logger:  logger,
		Workers: workers,
		DryRun:  dryRun,
		Aliases: cfg.FacadeAliases,
	}

	resp := &RunResponse{
		Version: version.Version,
		DryRun:  dryRun,
		Reports: []pipeline.TaskReport{},
	}

	p := &pipeline.Pipeline{
		Registry: tasks.DefaultRegistry(),
		Deps:     deps,
		Defaults: cfg.Tasks,
		Logger:   logger,
		Sink: pipeline.SinkFunc(func(r pipeline.TaskReport) error {
			resp.Reports = append(resp.Reports, r)
			if opts.Format != FormatHuman {
				return nil
			}
			_, err := io.WriteString(out, formatTaskReportHuman(r))
			return err
		}),
	}

	// unknown names fail here, before the history database is opened
	descriptors, err := p.Resolve(opts.Tasks)
	if err != nil {
		resp.Result = pipeline.Result{Status: 1, Ran: []string{}}
		return resp, err
	}
	requested := make([]string, len(descriptors))
	for i, d := range descriptors {
		requested[i] = d.Name
	}

	var store *history.Store
	var run *history.Run
	if opts.History && cfg.History.Enabled && !dryRun && len(requested) > 0 {
		store, run = startHistory(ctx, env, requested)
		if store != nil {
			defer func() { _ = store.Close() }()
			p.Deps.Recorder = store.Recorder(run.ID)
			resp.RunID = run.ID
		}
	}

	result, runErr := p.Run(ctx, pipeline.Options{
		Tasks: opts.Tasks,
		Paths: opts.Paths,
		Dirty: opts.Dirty,
	})
	resp.Result = result

	if store != nil {
		if err := store.FinishRun(ctx, run, result.Status, result.FailedTask, runErr); err != nil {
			logger.Warn("Failed to record run", "runId", run.ID, "error", err)
		}
	}

	if runErr != nil {
		return resp, runErr
	}
	logger.Info("Run finished", "outcome", describeRun(resp))

	if opts.Format == FormatHuman {
		_, err := io.WriteString(out, formatRunFooter(resp))
		return resp, err
	}
	return resp, writeOutput(out, resp, opts.Format)
}

// startHistory opens the history store and records the start of a run.
// History is best effort: failures are logged and the run proceeds
// unrecorded.
func startHistory(ctx context.Context, env *environment, requested []string) (*history.Store, *history.Run) {
	store, err := history.OpenStore(env.repoRoot, env.logger)
	if err != nil {
		env.logger.Warn("Run history unavailable", "error", err)
		return nil, nil
	}

	stateID := ""
	if env.isGit {
		if state, err := repostate.ComputeRepoState(ctx, env.repoRoot); err == nil {
			stateID = state.RepoStateID
		} else {
			env.logger.Debug("Could not compute repository state", "error", err)
		}
	}

	run, err := store.StartRun(ctx, requested, stateID)
	if err != nil {
		env.logger.Warn("Failed to record run start", "error", err)
		_ = store.Close()
		return nil, nil
	}
	return store, run
}

// describeRun summarises a finished run for the log.
func describeRun(resp *RunResponse) string {
	if resp.Result.FailedTask != "" {
		return fmt.Sprintf("failed at %s (status %d)", resp.Result.FailedTask, resp.Result.Status)
	}
	return fmt.Sprintf("ran %d task(s)", len(resp.Result.Ran))
}
