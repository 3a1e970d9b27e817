// Package tasks holds the named units of work `shift run` executes and the
// registry they are looked up in.
package tasks

import (
	"context"
	"log/slog"

	"shift/internal/files"
	"shift/internal/paths"
	"shift/internal/report"
	"shift/internal/slogutil"
)

// Task scans (and possibly rewrites) a set of files.
//
// Perform returns 0 when nothing needed attention and nonzero when at least
// one instance was found. Per-file failures are logged and skipped; a non-nil
// error is reserved for conditions that stop the task as a whole, such as a
// failed file discovery or a cancelled context.
type Task interface {
	Perform(ctx context.Context, log *report.Log) (int, error)
}

// FileScoped is implemented by tasks that discover files and honour the
// --path and --dirty options.
type FileScoped interface {
	SetPaths(paths []string)
	SetDirty(dirty bool)
}

// Recorder receives one Change per file a task rewrites.
type Recorder interface {
	RecordChange(ctx context.Context, change report.Change) error
}

// Deps are the shared collaborators handed to every task constructor.
type Deps struct {
	Resolver *files.Resolver
	Logger   *slog.Logger
	// Workers bounds how many files a task processes concurrently
	Workers int
	// DryRun computes and reports changes without writing files
	DryRun bool
	// Aliases overrides the built-in facade alias table
	Aliases  map[string]string
	Recorder Recorder
}

func (d Deps) logger() *slog.Logger {
	return slogutil.OrDiscard(d.Logger)
}

// FileScope implements FileScoped and resolves the task's file set.
type FileScope struct {
	resolver *files.Resolver
	paths    []string
	dirty    bool
}

// NewFileScope creates a FileScope that resolves through r.
func NewFileScope(r *files.Resolver) FileScope {
	return FileScope{resolver: r}
}

// SetPaths restricts discovery to the given files or directories.
func (s *FileScope) SetPaths(p []string) {
	s.paths = append([]string(nil), p...)
}

// SetDirty restricts discovery to files with uncommitted changes.
func (s *FileScope) SetDirty(dirty bool) {
	s.dirty = dirty
}

// Files returns the candidate files in discovery order.
func (s *FileScope) Files(ctx context.Context) ([]string, error) {
	if s.resolver == nil {
		return nil, nil
	}
	return s.resolver.Resolve(ctx, s.paths, s.dirty)
}

// displayPath renders path the way notes and history refer to it.
func (s *FileScope) displayPath(path string) string {
	if s.resolver == nil {
		return path
	}
	return paths.DisplayPath(path, s.resolver.RepoRoot)
}
