package rewrite

import (
	"fmt"
	"sort"
	"strings"

	"shift/internal/errors"
)

// Apply splices every edit into text and returns the result.
//
// Edits are applied from the highest Start down: a splice only shifts the
// bytes after it, so every edit still pending keeps offsets that are valid in
// the original text. The caller's slice is not reordered.
func Apply(text string, edits EditSet) (string, error) {
	if len(edits) == 0 {
		return text, nil
	}

	ordered := make(EditSet, len(edits))
	copy(ordered, edits)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start > ordered[j].Start
	})

	if err := validateDescending(ordered, len(text)); err != nil {
		return "", err
	}

	buf := text
	for _, e := range ordered {
		if e.End >= len(buf) {
			return "", invalidRange(e, len(buf), "exceeds buffer length")
		}
		var b strings.Builder
		b.Grow(len(buf) + e.Delta())
		b.WriteString(buf[:e.Start])
		b.WriteString(e.Replacement)
		b.WriteString(buf[e.End+1:])
		buf = b.String()
	}

	return buf, nil
}

// validateDescending expects edits sorted by Start, highest first.
func validateDescending(edits EditSet, n int) error {
	for i, e := range edits {
		if e.Start < 0 || e.End < e.Start {
			return invalidRange(e, n, "malformed range")
		}
		if e.End >= n {
			return invalidRange(e, n, "exceeds buffer length")
		}
		if i > 0 {
			// edits[i-1] starts at or after e; they overlap if e reaches it
			if next := edits[i-1]; e.End >= next.Start {
				return errors.NewShiftError(
					errors.InvalidOffsetRange,
					fmt.Sprintf("edit [%d,%d] overlaps edit [%d,%d]", e.Start, e.End, next.Start, next.End),
					nil,
					nil,
				)
			}
		}
	}
	return nil
}

func invalidRange(e Edit, n int, reason string) error {
	return errors.NewShiftError(
		errors.InvalidOffsetRange,
		fmt.Sprintf("edit [%d,%d] %s (buffer length %d)", e.Start, e.End, reason, n),
		nil,
		nil,
	).WithDetails(map[string]int{"start": e.Start, "end": e.End, "length": n})
}
