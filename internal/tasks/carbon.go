package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"shift/internal/files"
	"shift/internal/report"
)

// LaravelCarbonName is the registry name of the Carbon import converter.
const LaravelCarbonName = "laravel-carbon"

// carbonPattern matches Carbon\Carbon when it is not the prefix of a longer
// name such as Carbon\CarbonImmutable or Carbon\Carbon\Foo.
var carbonPattern = regexp.MustCompile(`\bCarbon\\Carbon([^\w\\]|$)`)

const laravelCarbon = `Illuminate\Support\Carbon`

// laravelCarbonTask is a plain text substitution. It does not parse files and
// always reports status 0.
type laravelCarbonTask struct {
	FileScope
	deps Deps
}

// NewLaravelCarbonTask converts Carbon\Carbon references to
// Illuminate\Support\Carbon.
func NewLaravelCarbonTask(deps Deps) Task {
	return &laravelCarbonTask{FileScope: NewFileScope(deps.Resolver), deps: deps}
}

// Perform implements Task.
func (t *laravelCarbonTask) Perform(ctx context.Context, log *report.Log) (int, error) {
	logger := t.deps.logger().With("task", LaravelCarbonName)

	paths, err := t.Files(ctx)
	if err != nil {
		return 0, err
	}

	results, err := eachFile(ctx, paths, t.deps.Workers, func(ctx context.Context, path string) (fileResult, error) {
		return t.convertFile(ctx, logger, path)
	})
	if err != nil {
		return 0, err
	}

	flush(ctx, t.deps, logger, log, results, "")
	return 0, nil
}

func (t *laravelCarbonTask) convertFile(ctx context.Context, logger *slog.Logger, path string) (fileResult, error) {
	if err := ctx.Err(); err != nil {
		return fileResult{}, err
	}

	display := t.displayPath(path)
	text, mode, err := files.ReadText(path)
	if err != nil {
		logger.Warn("Skipping unreadable file", "file", display, "error", err)
		return fileResult{}, nil
	}
	if !strings.Contains(text, `Carbon\Carbon`) {
		return fileResult{}, nil
	}

	count := len(carbonPattern.FindAllStringIndex(text, -1))
	if count == 0 {
		return fileResult{}, nil
	}

	out := carbonPattern.ReplaceAllString(text, laravelCarbon+"${1}")
	res := fileResult{
		path:  display,
		found: true,
		notes: []string{fmt.Sprintf("Replaced %d reference(s) to `Carbon\\Carbon` with `%s`", count, laravelCarbon)},
	}
	if t.deps.DryRun {
		return res, nil
	}

	if err := files.WriteText(path, out, mode); err != nil {
		logger.Warn("Failed to write file", "file", display, "error", err)
		return res, nil
	}
	logger.Info("Rewrote file", "file", display, "instances", count)

	res.change = &report.Change{
		Task:         LaravelCarbonName,
		Path:         display,
		Instances:    count,
		BeforeDigest: report.Digest(text),
		AfterDigest:  report.Digest(out),
		Notes:        res.notes,
	}
	return res, nil
}
