// Package rewrite turns located pattern instances into text edits and applies
// them to a buffer without corrupting the regions it does not touch.
//
// Offsets are byte offsets into the original text. End is inclusive: an edit
// covering [Start, End] replaces End-Start+1 bytes.
package rewrite

import "fmt"

// Edit replaces the bytes in [Start, End] (inclusive) with Replacement.
type Edit struct {
	Start       int
	End         int
	Replacement string
}

// NewDelete creates an Edit that removes [start, end].
func NewDelete(start, end int) Edit {
	return Edit{Start: start, End: end}
}

// NewReplace creates an Edit that swaps [start, end] for text.
func NewReplace(start, end int, text string) Edit {
	return Edit{Start: start, End: end, Replacement: text}
}

// Len returns the number of original bytes the edit covers.
func (e Edit) Len() int {
	return e.End - e.Start + 1
}

// Delta returns the change in buffer length caused by this edit.
func (e Edit) Delta() int {
	return len(e.Replacement) - e.Len()
}

// IsDelete returns true if the edit removes text without inserting any.
func (e Edit) IsDelete() bool {
	return e.Replacement == ""
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	if e.IsDelete() {
		return fmt.Sprintf("Delete[%d,%d]", e.Start, e.End)
	}
	return fmt.Sprintf("Replace[%d,%d] with %q", e.Start, e.End, e.Replacement)
}

// EditSet is the ordered list of edits planned for one file.
type EditSet []Edit
