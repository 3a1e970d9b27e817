// Package finder locates instances of targeted PHP constructs in source text.
//
// Finders are pure: they read the bytes they are given and never touch the
// filesystem. Parsing goes through tree-sitter and needs CGO; without it every
// Find reports a PARSE_ERROR and callers treat the file as having no instances.
package finder

import (
	"context"
	"regexp"
	"strings"

	"shift/internal/errors"
)

// Instance is one located occurrence of a targeted construct.
type Instance struct {
	// Start and End are byte offsets into the original text; End is inclusive.
	Start int `json:"start"`
	End   int `json:"end"`
	// Line is the 1-based line Start falls on.
	Line int `json:"line"`
	// Symbol is the targeted name as written in the source.
	Symbol string `json:"symbol"`
	// Embedded marks a statement that is the braceless body of a control structure.
	Embedded bool `json:"embedded,omitempty"`
}

// Finder produces instances in ascending Start order, mutually non-overlapping.
type Finder interface {
	// MayContain is a cheap pre-filter. It may report false positives but
	// never false negatives.
	MayContain(src []byte) bool
	Find(ctx context.Context, src []byte) ([]Instance, error)
}

// Prefilter is a whole-word, case-insensitive test for any of a set of names.
type Prefilter struct {
	re *regexp.Regexp
}

// NewPrefilter builds a Prefilter for symbols. An empty set never matches.
func NewPrefilter(symbols []string) *Prefilter {
	if len(symbols) == 0 {
		return &Prefilter{}
	}
	quoted := make([]string, len(symbols))
	for i, s := range symbols {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return &Prefilter{re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

// MayContain reports whether src mentions any of the names.
func (p *Prefilter) MayContain(src []byte) bool {
	if p.re == nil {
		return false
	}
	return p.re.Match(src)
}

func parseError(msg string, cause error) *errors.ShiftError {
	return errors.NewShiftError(errors.ParseError, msg, cause, nil)
}

// globalName strips one leading namespace separator and reports whether the
// remainder is an unqualified name. "\var_dump" -> ("var_dump", 1, true),
// "Foo\var_dump" -> ("", 0, false).
func globalName(text string) (name string, prefix int, ok bool) {
	if strings.HasPrefix(text, `\`) {
		text = text[1:]
		prefix = 1
	}
	if text == "" || strings.Contains(text, `\`) {
		return "", 0, false
	}
	return text, prefix, true
}

// DebugCalls finds statements that consist of a single call to a debugging
// function.
//
// Matching is at statement granularity: a debug call nested inside another
// call's arguments belongs to the outer statement's range and is not reported
// separately, and a debug call used as a value (assignment, echo, argument
// of a non-debug call) is never matched.
type DebugCalls struct {
	functions map[string]bool
	prefilter *Prefilter
}

// DefaultDebugFunctions are the functions DebugCalls targets by default.
var DefaultDebugFunctions = []string{"print_r", "var_dump", "var_export", "dd"}

// NewDebugCalls creates a DebugCalls finder for the given function names.
func NewDebugCalls(functions ...string) *DebugCalls {
	if len(functions) == 0 {
		functions = DefaultDebugFunctions
	}
	set := make(map[string]bool, len(functions))
	for _, fn := range functions {
		set[strings.ToLower(fn)] = true
	}
	return &DebugCalls{functions: set, prefilter: NewPrefilter(functions)}
}

// MayContain implements Finder.
func (d *DebugCalls) MayContain(src []byte) bool {
	return d.prefilter.MayContain(src)
}

// FacadeAliases finds references to Laravel facade aliases: `use X;` imports
// and `\X::` scopes. In a file without a namespace declaration an unqualified
// `X::` scope is also an alias reference. The reported range covers the
// alias name only, never a leading separator, so instances are leaves and
// cannot nest.
type FacadeAliases struct {
	aliases   map[string]string
	prefilter *Prefilter
}

// NewFacadeAliases creates a finder for the given alias -> class table.
// Alias names are matched case-insensitively, as PHP resolves class names.
func NewFacadeAliases(aliases map[string]string) *FacadeAliases {
	table := make(map[string]string, len(aliases))
	names := make([]string, 0, len(aliases))
	for alias, class := range aliases {
		table[strings.ToLower(alias)] = class
		names = append(names, alias)
	}
	return &FacadeAliases{aliases: table, prefilter: NewPrefilter(names)}
}

// MayContain implements Finder.
func (f *FacadeAliases) MayContain(src []byte) bool {
	return f.prefilter.MayContain(src)
}

// Resolve returns the fully qualified class for alias.
func (f *FacadeAliases) Resolve(alias string) (string, bool) {
	class, ok := f.aliases[strings.ToLower(alias)]
	return class, ok
}
