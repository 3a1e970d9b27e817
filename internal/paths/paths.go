// Package paths centralises the on-disk layout of the per-repository .shift
// directory and repo-relative path handling.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// ShiftDirName is the per-repository state directory
	ShiftDirName = ".shift"
	// HistoryDBName is the run history database inside ShiftDirName
	HistoryDBName = "history.db"
	// LogsDirName holds log files written when logging.file is relative
	LogsDirName = "logs"
)

// ShiftDir returns <repoRoot>/.shift
func ShiftDir(repoRoot string) string {
	return filepath.Join(repoRoot, ShiftDirName)
}

// EnsureShiftDir creates <repoRoot>/.shift if needed and returns its path.
func EnsureShiftDir(repoRoot string) (string, error) {
	dir := ShiftDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// HistoryDBPath returns <repoRoot>/.shift/history.db
func HistoryDBPath(repoRoot string) string {
	return filepath.Join(ShiftDir(repoRoot), HistoryDBName)
}

// ResolveLogPath resolves a configured log file. Bare file names land in
// .shift/logs, relative paths are taken from the repo root.
func ResolveLogPath(repoRoot, file string) string {
	if file == "" {
		return ""
	}
	if filepath.IsAbs(file) {
		return file
	}
	if !strings.ContainsAny(file, `/\`) {
		return filepath.Join(ShiftDir(repoRoot), LogsDirName, file)
	}
	return JoinRepoPath(repoRoot, file)
}

// CanonicalizePath converts an absolute path to a repo-relative path with
// forward slashes. Symlinks are resolved on both sides when they exist.
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := evalIfExists(absolutePath)
	if err != nil {
		return "", err
	}
	rootResolved, err := evalIfExists(repoRoot)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func evalIfExists(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", err
	}
	return resolved, nil
}

// IsWithinRepo checks if a path is within the repository root
func IsWithinRepo(path string, repoRoot string) bool {
	canonical, err := CanonicalizePath(path, repoRoot)
	if err != nil {
		return false
	}
	return !outside(canonical)
}

func outside(canonical string) bool {
	return canonical == ".." || strings.HasPrefix(canonical, "../")
}

// DisplayPath returns the repo-relative form of path for output, falling back
// to path itself when it lies outside the repository.
func DisplayPath(path, repoRoot string) string {
	if repoRoot == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := CanonicalizePath(path, repoRoot)
	if err != nil || outside(rel) {
		return path
	}
	return rel
}

// JoinRepoPath joins a repo root with a forward-slash relative path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	normalized := strings.ReplaceAll(canonicalPath, "\\", "/")
	parts := strings.Split(normalized, "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}
