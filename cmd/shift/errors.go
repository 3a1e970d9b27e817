package main

import (
	"errors"
	"fmt"
	"strings"

	shifterrors "shift/internal/errors"
)

// formatError renders an error for stderr, followed by any suggested fixes.
func formatError(err error) string {
	var b strings.Builder
	b.WriteString(failureStyle.Render("Error:") + " " + err.Error() + "\n")

	var se *shifterrors.ShiftError
	if errors.As(err, &se) && len(se.SuggestedFixes) > 0 {
		b.WriteString("\nSuggested fixes:\n")
		for _, fix := range se.SuggestedFixes {
			b.WriteString(fmt.Sprintf("  - %s\n", fix.Description))
			if fix.Command != "" {
				b.WriteString(fmt.Sprintf("    $ %s\n", fix.Command))
			}
			if fix.URL != "" {
				b.WriteString(fmt.Sprintf("    %s\n", fix.URL))
			}
		}
	}
	return b.String()
}
