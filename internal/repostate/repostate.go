// Package repostate reads working-tree state from git: the repository root,
// the HEAD commit, and the set of files with uncommitted changes.
package repostate

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"shift/internal/errors"
)

const (
	// EmptyHash represents an empty diff/list hash
	EmptyHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// RepoState is a snapshot of the repository taken before a run
type RepoState struct {
	RepoStateID         string `json:"repoStateId"`
	HeadCommit          string `json:"headCommit"`
	StagedDiffHash      string `json:"stagedDiffHash"`
	WorkingTreeDiffHash string `json:"workingTreeDiffHash"`
	UntrackedListHash   string `json:"untrackedListHash"`
	Dirty               bool   `json:"dirty"`
	ComputedAt          string `json:"computedAt"`
}

// ComputeRepoState computes the current repository state using git commands.
// A repository without commits reports an empty HeadCommit.
func ComputeRepoState(ctx context.Context, repoRoot string) (*RepoState, error) {
	if !IsGitRepository(ctx, repoRoot) {
		return nil, notARepository(repoRoot, nil)
	}

	headCommit, err := gitRevParse(ctx, repoRoot, "--verify", "-q", "HEAD")
	if err != nil {
		headCommit = ""
	}

	stagedDiff, err := gitOutput(ctx, repoRoot, "diff", "--cached")
	if err != nil {
		return nil, gitFailure("Failed to get staged diff", err)
	}
	stagedDiffHash := hashString(stagedDiff)

	workingTreeDiffHash := EmptyHash
	if headCommit != "" {
		workingDiff, err := gitOutput(ctx, repoRoot, "diff", "HEAD")
		if err != nil {
			return nil, gitFailure("Failed to get working tree diff", err)
		}
		workingTreeDiffHash = hashString(workingDiff)
	}

	untrackedFiles, err := gitOutput(ctx, repoRoot, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, gitFailure("Failed to get untracked files", err)
	}
	untrackedListHash := hashString(untrackedFiles)

	dirty := stagedDiffHash != EmptyHash ||
		workingTreeDiffHash != EmptyHash ||
		untrackedListHash != EmptyHash

	return &RepoState{
		RepoStateID:         computeRepoStateID(headCommit, stagedDiffHash, workingTreeDiffHash, untrackedListHash),
		HeadCommit:          headCommit,
		StagedDiffHash:      stagedDiffHash,
		WorkingTreeDiffHash: workingTreeDiffHash,
		UntrackedListHash:   untrackedListHash,
		Dirty:               dirty,
		ComputedAt:          time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// DirtyFiles returns the absolute paths of files that are modified, staged,
// or untracked (respecting .gitignore), sorted and deduplicated. Deleted
// files are omitted since there is nothing left to rewrite.
func DirtyFiles(ctx context.Context, repoRoot string) ([]string, error) {
	root, err := GetRepoRoot(ctx, repoRoot)
	if err != nil {
		return nil, err
	}

	listings := [][]string{
		{"diff", "--name-only", "--diff-filter=d", "--cached"},
		{"ls-files", "--others", "--exclude-standard"},
	}
	if _, err := gitRevParse(ctx, root, "--verify", "-q", "HEAD"); err == nil {
		listings = append(listings, []string{"diff", "--name-only", "--diff-filter=d", "HEAD"})
	} else {
		// no commits yet: unstaged changes are relative to the index
		listings = append(listings, []string{"diff", "--name-only", "--diff-filter=d"})
	}

	seen := make(map[string]bool)
	var files []string
	for _, args := range listings {
		out, err := gitOutput(ctx, root, args...)
		if err != nil {
			return nil, gitFailure("Failed to list changed files", err)
		}
		for _, line := range strings.Split(out, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			abs := filepath.Join(root, filepath.FromSlash(line))
			if !seen[abs] {
				seen[abs] = true
				files = append(files, abs)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// IsGitRepository checks if the given path is inside a git work tree
func IsGitRepository(ctx context.Context, repoRoot string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// GetRepoRoot finds the git repository root from the given directory
func GetRepoRoot(ctx context.Context, startPath string) (string, error) {
	root, err := gitRevParse(ctx, startPath, "--show-toplevel")
	if err != nil {
		return "", notARepository(startPath, err)
	}
	return filepath.FromSlash(root), nil
}

func gitRevParse(ctx context.Context, repoRoot string, args ...string) (string, error) {
	out, err := gitOutput(ctx, repoRoot, append([]string{"rev-parse"}, args...)...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func gitOutput(ctx context.Context, repoRoot string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoRoot

	output, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(output), nil
}

func notARepository(path string, cause error) *errors.ShiftError {
	return errors.NewShiftError(
		errors.NotARepository,
		fmt.Sprintf("Not a git repository: %s", path),
		cause,
		errors.GetSuggestedFixes(errors.NotARepository),
	)
}

func gitFailure(msg string, cause error) *errors.ShiftError {
	return errors.NewShiftError(
		errors.InternalError,
		msg,
		cause,
		[]errors.FixAction{
			{
				Type:        errors.RunCommand,
				Command:     "git status",
				Safe:        true,
				Description: "Check the state of the repository",
			},
		},
	)
}

// hashString computes SHA256 hash of a string
func hashString(s string) string {
	if s == "" {
		return EmptyHash
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(s)))
}

func computeRepoStateID(headCommit, stagedHash, workingHash, untrackedHash string) string {
	composite := fmt.Sprintf("%s:%s:%s:%s", headCommit, stagedHash, workingHash, untrackedHash)
	return hashString(composite)
}
