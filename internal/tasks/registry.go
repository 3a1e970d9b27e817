package tasks

import (
	"fmt"
	"sort"

	"shift/internal/errors"
)

// Descriptor names a task and knows how to build it.
type Descriptor struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	New         func(Deps) Task `json:"-" yaml:"-"`
}

// Registry maps task names to descriptors. It is immutable once built.
type Registry struct {
	byName map[string]Descriptor
}

// NewRegistry builds a registry from descriptors. Duplicate or empty names
// are programming errors and panic.
func NewRegistry(descriptors ...Descriptor) *Registry {
	r := &Registry{byName: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.Name == "" || d.New == nil {
			panic(fmt.Sprintf("tasks: incomplete descriptor %q", d.Name))
		}
		if _, dup := r.byName[d.Name]; dup {
			panic(fmt.Sprintf("tasks: duplicate task %q", d.Name))
		}
		r.byName[d.Name] = d
	}
	return r
}

// DefaultRegistry returns the registry of built-in tasks.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Descriptor{
			Name:        DebugCallsName,
			Description: "Removes calls to common debugging functions",
			New:         NewDebugCallsTask,
		},
		Descriptor{
			Name:        FacadeAliasesName,
			Description: "Replaces facade aliases with their fully qualified class name",
			New:         NewFacadeAliasesTask,
		},
		Descriptor{
			Name:        LaravelCarbonName,
			Description: "Converts `Carbon\\Carbon` imports to `Illuminate\\Support\\Carbon`",
			New:         NewLaravelCarbonTask,
		},
	)
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, errors.NewShiftError(
			errors.TaskNotRegistered,
			"Task not registered: "+name,
			nil,
			errors.GetSuggestedFixes(errors.TaskNotRegistered),
		)
	}
	return d, nil
}

// List returns every descriptor sorted by name.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.byName))
	for _, d := range r.byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
