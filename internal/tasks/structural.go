package tasks

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"shift/internal/errors"
	"shift/internal/files"
	"shift/internal/finder"
	"shift/internal/report"
	"shift/internal/rewrite"
)

// fileResult is what processing a single file produced.
type fileResult struct {
	path   string
	found  bool
	notes  []string
	change *report.Change
}

type fileFunc func(ctx context.Context, path string) (fileResult, error)

// eachFile runs fn over paths using up to workers goroutines. Results come
// back in path order regardless of completion order. fn returns an error
// only for conditions that should stop the whole task.
func eachFile(ctx context.Context, paths []string, workers int, fn fileFunc) ([]fileResult, error) {
	results := make([]fileResult, len(paths))

	if workers <= 1 {
		for i, p := range paths {
			res, err := fn(ctx, p)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			res, err := fn(gctx, p)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// flush records the results of a task run in discovery order and returns
// whether any file had instances.
func flush(ctx context.Context, deps Deps, logger *slog.Logger, log *report.Log, results []fileResult, reference string) bool {
	found := false
	for _, res := range results {
		if !res.found {
			continue
		}
		found = true
		log.Record(res.path, res.notes, reference)

		if res.change != nil && deps.Recorder != nil {
			if err := deps.Recorder.RecordChange(ctx, *res.change); err != nil {
				logger.Warn("Failed to record change", "file", res.path, "error", err)
			}
		}
	}
	return found
}

// structuralTask is the parse-based pipeline shared by tasks that locate
// instances with a Finder: read, pre-filter, find, plan, apply, write.
type structuralTask struct {
	FileScope
	name      string
	finder    finder.Finder
	replace   rewrite.ReplaceFunc
	describe  func(finder.Instance) string
	reference string
	deps      Deps
}

// Perform implements Task. The status is 1 when any file had instances.
func (t *structuralTask) Perform(ctx context.Context, log *report.Log) (int, error) {
	logger := t.deps.logger().With("task", t.name)

	paths, err := t.Files(ctx)
	if err != nil {
		return 0, err
	}
	logger.Debug("Scanning files", "count", len(paths))

	results, err := eachFile(ctx, paths, t.deps.Workers, func(ctx context.Context, path string) (fileResult, error) {
		return t.rewriteFile(ctx, logger, path)
	})
	if err != nil {
		return 0, err
	}

	if flush(ctx, t.deps, logger, log, results, t.reference) {
		return 1, nil
	}
	return 0, nil
}

func (t *structuralTask) rewriteFile(ctx context.Context, logger *slog.Logger, path string) (fileResult, error) {
	if err := ctx.Err(); err != nil {
		return fileResult{}, err
	}

	display := t.displayPath(path)
	text, mode, err := files.ReadText(path)
	if err != nil {
		logger.Warn("Skipping unreadable file", "file", display, "error", err)
		return fileResult{}, nil
	}

	src := []byte(text)
	if !t.finder.MayContain(src) {
		return fileResult{}, nil
	}

	instances, err := t.finder.Find(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return fileResult{}, ctx.Err()
		}
		if !errors.HasCode(err, errors.ParseError) {
			return fileResult{}, err
		}
		logger.Warn("Skipping file that could not be parsed", "file", display, "error", err)
		return fileResult{}, nil
	}
	if len(instances) == 0 {
		return fileResult{}, nil
	}

	res := fileResult{path: display, found: true, notes: make([]string, 0, len(instances))}
	for _, inst := range instances {
		res.notes = append(res.notes, t.describe(inst))
	}

	out, err := rewrite.Apply(text, rewrite.Plan(instances, t.replace))
	if err != nil {
		logger.Error("Refusing to rewrite file", "file", display, "code", errors.CodeOf(err), "error", err)
		return res, nil
	}
	if t.deps.DryRun || out == text {
		return res, nil
	}

	if err := files.WriteText(path, out, mode); err != nil {
		logger.Warn("Failed to write file", "file", display, "error", err)
		return res, nil
	}
	logger.Info("Rewrote file", "file", display, "instances", len(instances))

	res.change = &report.Change{
		Task:         t.name,
		Path:         display,
		Instances:    len(instances),
		BeforeDigest: report.Digest(text),
		AfterDigest:  report.Digest(out),
		Notes:        res.notes,
	}
	return res, nil
}
