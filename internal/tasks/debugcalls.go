package tasks

import (
	"fmt"

	"shift/internal/finder"
	"shift/internal/rewrite"
)

// DebugCallsName is the registry name of the debug call remover.
const DebugCallsName = "debug-calls"

// NewDebugCallsTask removes statements that call print_r, var_dump,
// var_export or dd.
func NewDebugCallsTask(deps Deps) Task {
	return &structuralTask{
		FileScope: NewFileScope(deps.Resolver),
		name:      DebugCallsName,
		finder:    finder.NewDebugCalls(),
		replace:   rewrite.DeletePlanner,
		describe: func(inst finder.Instance) string {
			return fmt.Sprintf("Line %d: contains call to `%s`", inst.Line, inst.Symbol)
		},
		deps: deps,
	}
}
