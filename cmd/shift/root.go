package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"shift/internal/config"
	shifterrors "shift/internal/errors"
	"shift/internal/repostate"
	"shift/internal/slogutil"
	"shift/internal/version"
)

var (
	// verbosity is the number of -v flags
	verbosity int
	quiet     bool
	repoFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "shift",
	Short: "shift - automated PHP source upgrades",
	Long: `shift runs automated tasks that find outdated or unwanted constructs in a PHP
code base and rewrite them in place, reporting every change it makes.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("shift version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "Repository to operate on (default: current directory)")
}

// exitError carries a nonzero exit status without an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// environment is everything a command needs about the repository it runs in.
type environment struct {
	repoRoot string
	isGit    bool
	cfg      *config.Config
	logger   *slog.Logger
	factory  *slogutil.LoggerFactory
}

// resolveRepoRoot returns the git toplevel containing --repo (or the working
// directory), falling back to that directory itself outside of git.
func resolveRepoRoot(cmd *cobra.Command) (string, bool, error) {
	start := repoFlag
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", false, shifterrors.NewShiftError(shifterrors.InternalError, "Failed to get current directory", err, nil)
		}
		start = cwd
	}

	if root, err := repostate.GetRepoRoot(cmd.Context(), start); err == nil {
		return root, true, nil
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", false, shifterrors.NewShiftError(shifterrors.InternalError, "Failed to resolve "+start, err, nil)
	}
	return abs, false, nil
}

// loadEnvironment resolves the repository, loads its configuration and
// builds the CLI logger.
func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	root, isGit, err := resolveRepoRoot(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, err
	}

	cliSet := verbosity > 0 || quiet
	factory := slogutil.NewLoggerFactory(root, cfg, slogutil.LevelFromVerbosity(verbosity, quiet), cliSet)
	logger := factory.CLILogger(cmd.ErrOrStderr())
	logger.Debug("Loaded configuration", "repoRoot", root, "git", isGit)

	return &environment{
		repoRoot: root,
		isGit:    isGit,
		cfg:      cfg,
		logger:   logger,
		factory:  factory,
	}, nil
}

// newEnvironment builds an environment without touching flags, for callers
// that already know the repository and configuration.
func newEnvironment(root string, isGit bool, cfg *config.Config, logger *slog.Logger) *environment {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &environment{
		repoRoot: root,
		isGit:    isGit,
		cfg:      cfg,
		logger:   slogutil.OrDiscard(logger),
	}
}

// Close releases log files opened for the environment.
func (e *environment) Close() error {
	if e == nil || e.factory == nil {
		return nil
	}
	return e.factory.Close()
}

// writeOutput prints a formatted response followed by a newline.
func writeOutput(w io.Writer, resp interface{}, format OutputFormat) error {
	out, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	if out == "" {
		return nil
	}
	if out[len(out)-1] != '\n' {
		out += "\n"
	}
	_, err = io.WriteString(w, out)
	return err
}
