package rewrite

import "shift/internal/finder"

// ReplaceFunc decides the replacement text for one instance.
type ReplaceFunc func(finder.Instance) string

// Plan derives one Edit per instance, in instance order.
func Plan(instances []finder.Instance, replace ReplaceFunc) EditSet {
	edits := make(EditSet, 0, len(instances))
	for _, inst := range instances {
		if text := replace(inst); text != "" {
			edits = append(edits, NewReplace(inst.Start, inst.End, text))
		} else {
			edits = append(edits, NewDelete(inst.Start, inst.End))
		}
	}
	return edits
}

// DeletePlanner removes each instance outright. A statement that is the only
// body of a control structure becomes an empty statement so the structure
// does not swallow whatever follows it.
func DeletePlanner(inst finder.Instance) string {
	if inst.Embedded {
		return ";"
	}
	return ""
}
