package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"shift/internal/config"
	shifterrors "shift/internal/errors"
	"shift/internal/paths"
	"shift/internal/tasks"
)

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize shift configuration",
	Long:  "Creates a .shift/ directory with a default config.toml in the repository root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing .shift/config.toml")
	rootCmd.AddCommand(initCmd)
}

// shiftGitignore keeps local state out of version control.
const shiftGitignore = "history.db*\nlogs/\n"

func runInit(cmd *cobra.Command, args []string) error {
	root, _, err := resolveRepoRoot(cmd)
	if err != nil {
		return err
	}

	configPath, created, err := initRepository(root, initForce)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !created {
		fmt.Fprintln(out, "shift already initialized.")
		fmt.Fprintf(out, "Configuration at: %s\n", configPath)
		fmt.Fprintln(out, "\nRun 'shift init --force' to reinitialize.")
		return nil
	}

	fmt.Fprintln(out, "shift initialized successfully!")
	fmt.Fprintf(out, "Configuration written to: %s\n", configPath)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Run 'shift run --tasks' to see the available tasks")
	fmt.Fprintln(out, "  2. Edit the tasks list in the configuration, then run 'shift run'")
	return nil
}

// initRepository writes the default configuration under root. An existing
// configuration is left alone unless force is set.
func initRepository(root string, force bool) (string, bool, error) {
	configPath := config.ConfigPath(root)
	if _, err := os.Stat(configPath); err == nil && !force {
		return configPath, false, nil
	}

	cfg := config.DefaultConfig()
	for _, d := range tasks.DefaultRegistry().List() {
		cfg.Tasks = append(cfg.Tasks, d.Name)
	}
	if err := cfg.Save(root); err != nil {
		return "", false, shifterrors.NewShiftError(shifterrors.FileWriteError, "Failed to write config file", err, nil)
	}

	ignorePath := filepath.Join(paths.ShiftDir(root), ".gitignore")
	if err := os.WriteFile(ignorePath, []byte(shiftGitignore), 0644); err != nil {
		return "", false, shifterrors.NewShiftError(shifterrors.FileWriteError, "Failed to write "+ignorePath, err, nil)
	}

	return configPath, true, nil
}
