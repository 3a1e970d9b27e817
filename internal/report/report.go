// Package report accumulates the human-readable notes tasks leave about the
// files they change. A Log is owned by whoever runs the task and drained once
// after the task finishes.
package report

import "sync"

// Entry is the set of notes recorded for one file.
type Entry struct {
	Path      string   `json:"path" yaml:"path"`
	Notes     []string `json:"notes" yaml:"notes"`
	Reference string   `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// Log is an append-only, path-keyed accumulator. It is safe for concurrent
// Record calls; each call's notes stay contiguous.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	index   map[string]int
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{index: make(map[string]int)}
}

// Record appends notes for path. Recording the same path again extends its
// entry; a non-empty reference replaces the previous one.
func (l *Log) Record(path string, notes []string, reference ...string) {
	ref := ""
	if len(reference) > 0 {
		ref = reference[0]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.index == nil {
		l.index = make(map[string]int)
	}

	if i, ok := l.index[path]; ok {
		l.entries[i].Notes = append(l.entries[i].Notes, notes...)
		if ref != "" {
			l.entries[i].Reference = ref
		}
		return
	}

	l.index[path] = len(l.entries)
	l.entries = append(l.entries, Entry{
		Path:      path,
		Notes:     append([]string(nil), notes...),
		Reference: ref,
	})
}

// Drain returns every entry in recording order and empties the log.
func (l *Log) Drain() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.entries
	l.entries = nil
	l.index = make(map[string]int)
	return entries
}

// Len returns the number of files with recorded notes.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
