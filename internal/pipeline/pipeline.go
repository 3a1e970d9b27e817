// Package pipeline runs a sequence of named tasks, stopping at the first one
// that reports a nonzero status.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"shift/internal/report"
	"shift/internal/slogutil"
	"shift/internal/tasks"
)

// TaskReport is what one task produced: its status and drained notes.
type TaskReport struct {
	Task    string         `json:"task" yaml:"task"`
	Status  int            `json:"status" yaml:"status"`
	Entries []report.Entry `json:"entries" yaml:"entries"`
}

// Failed reports whether the task returned a nonzero status.
func (r TaskReport) Failed() bool {
	return r.Status != 0
}

// Sink receives each task's report as soon as the task finishes.
type Sink interface {
	Emit(r TaskReport) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(TaskReport) error

// Emit implements Sink.
func (f SinkFunc) Emit(r TaskReport) error {
	return f(r)
}

// Options select what a run executes.
type Options struct {
	// Tasks to run in order; empty means Pipeline.Defaults
	Tasks []string
	// Paths and Dirty are forwarded to file-scoped tasks
	Paths []string
	Dirty bool
}

// Result is the outcome of a run.
type Result struct {
	// Status is 0 on success, otherwise the failing task's status
	Status     int      `json:"status" yaml:"status"`
	FailedTask string   `json:"failedTask,omitempty" yaml:"failedTask,omitempty"`
	Ran        []string `json:"ran" yaml:"ran"`
}

// Pipeline resolves task names against a registry and runs them in order.
type Pipeline struct {
	Registry *tasks.Registry
	Deps     tasks.Deps
	// Defaults are run when Options.Tasks is empty
	Defaults []string
	Sink     Sink
	Logger   *slog.Logger
}

// Resolve looks up every requested task, or the defaults when names is
// empty. The first unknown name fails with TASK_NOT_REGISTERED.
func (p *Pipeline) Resolve(names []string) ([]tasks.Descriptor, error) {
	if len(names) == 0 {
		names = p.Defaults
	}
	descriptors := make([]tasks.Descriptor, 0, len(names))
	for _, name := range names {
		d, err := p.Registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// Run executes the requested tasks.
//
// Every name is resolved before anything runs, so an unknown task fails the
// run without touching a file. Each task gets a fresh report log which is
// drained into the Sink when it finishes, including the failing task's. The
// first nonzero status ends the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	logger := slogutil.OrDiscard(p.Logger)

	descriptors, err := p.Resolve(opts.Tasks)
	if err != nil {
		return Result{Status: 1, Ran: []string{}}, err
	}
	if len(descriptors) == 0 {
		logger.Warn("No tasks requested and none configured")
		return Result{Ran: []string{}}, nil
	}

	result := Result{Ran: make([]string, 0, len(descriptors))}
	for _, d := range descriptors {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		task := d.New(p.Deps)
		if scoped, ok := task.(tasks.FileScoped); ok {
			if len(opts.Paths) > 0 {
				scoped.SetPaths(opts.Paths)
			}
			if opts.Dirty {
				scoped.SetDirty(true)
			}
		}

		logger.Info("Running task", "task", d.Name)
		start := time.Now()
		log := report.NewLog()
		status, err := task.Perform(ctx, log)
		result.Ran = append(result.Ran, d.Name)
		if err != nil {
			result.Status = 1
			result.FailedTask = d.Name
			return result, err
		}
		logger.Debug("Task finished", "task", d.Name, "status", status, "duration", time.Since(start))

		if p.Sink != nil {
			if err := p.Sink.Emit(TaskReport{Task: d.Name, Status: status, Entries: log.Drain()}); err != nil {
				return result, err
			}
		}

		if status != 0 {
			result.Status = status
			result.FailedTask = d.Name
			logger.Info("Stopping after failed task", "task", d.Name, "status", status)
			return result, nil
		}
	}

	return result, nil
}
