// Package files resolves which files a task operates on and performs the
// whole-file reads and writes that bracket every rewrite.
package files

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shift/internal/errors"
	"shift/internal/paths"
)

// DirtyLister returns absolute paths of files with uncommitted changes.
type DirtyLister func(ctx context.Context, repoRoot string) ([]string, error)

// alwaysSkipped directories are never descended into.
var alwaysSkipped = map[string]bool{
	".git":             true,
	paths.ShiftDirName: true,
}

// Resolver expands scan roots into the concrete list of candidate files.
type Resolver struct {
	RepoRoot string
	// Roots are used when a caller passes no explicit paths
	Roots      []string
	Extensions []string
	// Ignore holds directory names or repo-relative directory paths
	Ignore []string
	Dirty  DirtyLister
}

// Resolve returns the sorted, deduplicated absolute paths of candidate files
// under explicit (or r.Roots when explicit is empty). With dirtyOnly set the
// result is narrowed to files reported by r.Dirty.
func (r *Resolver) Resolve(ctx context.Context, explicit []string, dirtyOnly bool) ([]string, error) {
	roots := explicit
	if len(roots) == 0 {
		roots = r.Roots
	}
	if len(roots) == 0 {
		roots = []string{"."}
	}

	ignore := r.ignoreSet()
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, root := range roots {
		abs := r.absolute(root)
		if r.RepoRoot != "" && !paths.IsWithinRepo(abs, r.RepoRoot) {
			return nil, errors.NewShiftError(errors.FileReadError,
				fmt.Sprintf("Path %s is outside the repository", root), nil, nil)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, errors.NewShiftError(errors.FileReadError,
				fmt.Sprintf("Cannot resolve path %s", root), err, nil)
		}

		// explicitly named files bypass the ignore list
		if !info.IsDir() {
			if r.matchesExtension(abs) {
				add(abs)
			}
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				return err
			}

			if d.IsDir() {
				if path != abs && r.shouldIgnore(path, d.Name(), ignore) {
					return filepath.SkipDir
				}
				return nil
			}

			if d.Type().IsRegular() && r.matchesExtension(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.NewShiftError(errors.FileReadError,
				fmt.Sprintf("Failed to scan %s", root), err, nil)
		}
	}

	if dirtyOnly {
		var err error
		out, err = r.onlyDirty(ctx, out)
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(out)
	return out, nil
}

func (r *Resolver) onlyDirty(ctx context.Context, candidates []string) ([]string, error) {
	if r.Dirty == nil {
		return nil, errors.NewShiftError(errors.InternalError, "No dirty-file lister configured", nil, nil)
	}
	dirty, err := r.Dirty(ctx, r.RepoRoot)
	if err != nil {
		return nil, err
	}

	changed := make(map[string]bool, len(dirty))
	for _, p := range dirty {
		changed[filepath.Clean(p)] = true
	}

	kept := candidates[:0]
	for _, p := range candidates {
		if changed[p] {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

func (r *Resolver) absolute(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return paths.JoinRepoPath(r.RepoRoot, p)
}

func (r *Resolver) matchesExtension(path string) bool {
	if len(r.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, want := range r.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

func (r *Resolver) ignoreSet() map[string]bool {
	set := make(map[string]bool, len(r.Ignore))
	for _, ig := range r.Ignore {
		ig = strings.Trim(filepath.ToSlash(ig), "/")
		if ig != "" {
			set[ig] = true
		}
	}
	return set
}

// shouldIgnore matches a directory by bare name or by repo-relative path.
// Hidden directories are skipped unless named as a scan root.
func (r *Resolver) shouldIgnore(path, name string, ignore map[string]bool) bool {
	if alwaysSkipped[name] || ignore[name] || strings.HasPrefix(name, ".") {
		return true
	}
	if r.RepoRoot == "" {
		return false
	}
	rel, err := filepath.Rel(r.RepoRoot, path)
	if err != nil {
		return false
	}
	return ignore[filepath.ToSlash(rel)]
}

// ReadText reads a whole file and returns its contents and permission bits.
func ReadText(path string) (string, os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, readError(path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, readError(path, err)
	}
	return string(data), info.Mode().Perm(), nil
}

// WriteText replaces the file at path with text. The new contents are
// written to a sibling temp file first and renamed into place, so readers
// never observe a partially written file.
func WriteText(path, text string, mode os.FileMode) error {
	if mode == 0 {
		mode = 0644
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".shift-*")
	if err != nil {
		return writeError(path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		cleanup()
		return writeError(path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return writeError(path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return writeError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return writeError(path, err)
	}
	return nil
}

func readError(path string, err error) *errors.ShiftError {
	return errors.NewShiftError(errors.FileReadError, fmt.Sprintf("Failed to read %s", path), err, nil)
}

func writeError(path string, err error) *errors.ShiftError {
	return errors.NewShiftError(errors.FileWriteError, fmt.Sprintf("Failed to write %s", path), err, nil)
}
