package pipeline

import (
	"context"
	"errors"
	"testing"

	shifterrors "shift/internal/errors"
	"shift/internal/report"
	"shift/internal/tasks"
)

// fakeTask records that it ran and returns a fixed status.
type fakeTask struct {
	name   string
	status int
	err    error
	calls  *[]string

	paths []string
	dirty bool
}

func (f *fakeTask) Perform(_ context.Context, log *report.Log) (int, error) {
	*f.calls = append(*f.calls, f.name)
	if f.status != 0 {
		log.Record(f.name+".php", []string{"Line 1: issue from " + f.name})
	}
	return f.status, f.err
}

func (f *fakeTask) SetPaths(p []string) { f.paths = p }
func (f *fakeTask) SetDirty(d bool)     { f.dirty = d }

type collectingSink struct {
	reports []TaskReport
}

func (c *collectingSink) Emit(r TaskReport) error {
	c.reports = append(c.reports, r)
	return nil
}

func newPipeline(calls *[]string, last **fakeTask, statuses map[string]int) (*Pipeline, *collectingSink) {
	var descriptors []tasks.Descriptor
	for name, status := range statuses {
		descriptors = append(descriptors, tasks.Descriptor{
			Name:        name,
			Description: "fake " + name,
			New: func(tasks.Deps) tasks.Task {
				t := &fakeTask{name: name, status: status, calls: calls}
				*last = t
				return t
			},
		})
	}
	sink := &collectingSink{}
	return &Pipeline{Registry: tasks.NewRegistry(descriptors...), Sink: sink}, sink
}

func TestRun_AllSucceed(t *testing.T) {
	var calls []string
	var last *fakeTask
	p, sink := newPipeline(&calls, &last, map[string]int{"a": 0, "b": 0})

	result, err := p.Run(context.Background(), Options{Tasks: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Status != 0 || result.FailedTask != "" {
		t.Errorf("result = %+v, want success", result)
	}
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Errorf("calls = %v, want [a b]", calls)
	}
	if len(sink.reports) != 2 {
		t.Errorf("expected a report per task, got %d", len(sink.reports))
	}
}

func TestRun_HaltsOnFirstFailure(t *testing.T) {
	var calls []string
	var last *fakeTask
	p, sink := newPipeline(&calls, &last, map[string]int{"A": 0, "B": 1, "C": 0})

	result, err := p.Run(context.Background(), Options{Tasks: []string{"A", "B", "C"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Status != 1 || result.FailedTask != "B" {
		t.Errorf("result = %+v, want status 1 from B", result)
	}
	if len(calls) != 2 || calls[1] != "B" {
		t.Errorf("calls = %v, C must never run", calls)
	}
	if len(result.Ran) != 2 {
		t.Errorf("Ran = %v", result.Ran)
	}

	failed := sink.reports[len(sink.reports)-1]
	if failed.Task != "B" || !failed.Failed() || len(failed.Entries) != 1 {
		t.Errorf("failing task's notes should be emitted, got %+v", failed)
	}
}

func TestRun_UnknownTaskRunsNothing(t *testing.T) {
	var calls []string
	var last *fakeTask
	p, sink := newPipeline(&calls, &last, map[string]int{"a": 0})

	result, err := p.Run(context.Background(), Options{Tasks: []string{"a", "does-not-exist"}})
	if !shifterrors.HasCode(err, shifterrors.TaskNotRegistered) {
		t.Fatalf("expected TASK_NOT_REGISTERED, got %v", err)
	}
	if result.Status == 0 {
		t.Error("an unknown task should produce a nonzero status")
	}
	if len(calls) != 0 || len(sink.reports) != 0 {
		t.Errorf("no task should run, calls = %v", calls)
	}
}

func TestResolve(t *testing.T) {
	var calls []string
	var last *fakeTask
	p, _ := newPipeline(&calls, &last, map[string]int{"a": 0, "b": 0})
	p.Defaults = []string{"b"}

	tests := []struct {
		name      string
		requested []string
		want      []string
		wantErr   bool
	}{
		{"explicit order kept", []string{"b", "a"}, []string{"b", "a"}, false},
		{"defaults when empty", nil, []string{"b"}, false},
		{"unknown name", []string{"a", "nope"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Resolve(tt.requested)
			if tt.wantErr {
				if !shifterrors.HasCode(err, shifterrors.TaskNotRegistered) {
					t.Fatalf("expected TASK_NOT_REGISTERED, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d descriptors, want %v", len(got), tt.want)
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("[%d] = %s, want %s", i, got[i].Name, name)
				}
			}
		})
	}
	if len(calls) != 0 {
		t.Errorf("Resolve should not run tasks, calls = %v", calls)
	}
}

func TestRun_Defaults(t *testing.T) {
	var calls []string
	var last *fakeTask
	p, _ := newPipeline(&calls, &last, map[string]int{"a": 0, "b": 0})
	p.Defaults = []string{"b"}

	if _, err := p.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(calls) != 1 || calls[0] != "b" {
		t.Errorf("calls = %v, want configured default [b]", calls)
	}

	calls = nil
	p.Defaults = nil
	result, err := p.Run(context.Background(), Options{})
	if err != nil || result.Status != 0 || len(calls) != 0 {
		t.Errorf("empty run = %+v, %v, calls %v", result, err, calls)
	}
}

func TestRun_ConfiguresFileScope(t *testing.T) {
	var calls []string
	var last *fakeTask
	p, _ := newPipeline(&calls, &last, map[string]int{"a": 0})

	_, err := p.Run(context.Background(), Options{Tasks: []string{"a"}, Paths: []string{"app"}, Dirty: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(last.paths) != 1 || last.paths[0] != "app" || !last.dirty {
		t.Errorf("file scope not forwarded: paths=%v dirty=%v", last.paths, last.dirty)
	}
}

func TestRun_TaskError(t *testing.T) {
	var calls []string
	boom := errors.New("discovery failed")
	p := &Pipeline{Registry: tasks.NewRegistry(
		tasks.Descriptor{Name: "a", New: func(tasks.Deps) tasks.Task {
			return &fakeTask{name: "a", err: boom, calls: &calls}
		}},
		tasks.Descriptor{Name: "b", New: func(tasks.Deps) tasks.Task {
			return &fakeTask{name: "b", calls: &calls}
		}},
	)}

	result, err := p.Run(context.Background(), Options{Tasks: []string{"a", "b"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected task error, got %v", err)
	}
	if result.FailedTask != "a" || len(calls) != 1 {
		t.Errorf("result = %+v, calls = %v", result, calls)
	}
}

func TestRun_Cancelled(t *testing.T) {
	var calls []string
	var last *fakeTask
	p, _ := newPipeline(&calls, &last, map[string]int{"a": 0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Run(ctx, Options{Tasks: []string{"a"}}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("no task should run after cancellation, calls = %v", calls)
	}
}
