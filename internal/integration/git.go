package integration

import (
	"fmt"
	"strings"
)

// Git wraps the git operations the task executor needs, running the git CLI
// in a fixed repository working tree.
type Git struct {
	repoPath string
	runner   CommandRunner
}

// NewGit creates a Git bound to the given working tree.
func NewGit(repoPath string, runner CommandRunner) *Git {
	return &Git{repoPath: repoPath, runner: runner}
}

// RepoPath returns the working tree this Git operates on.
func (g *Git) RepoPath() string {
	return g.repoPath
}

// run executes a git subcommand and converts non-zero exits into errors
// carrying the captured stderr.
func (g *Git) run(args ...string) (*RunResult, error) {
	result, err := g.runner.Run(g.repoPath, "git", args, nil)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return result, fmt.Errorf("git %s: exit %d: %s",
			strings.Join(args, " "), result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return result, nil
}

// IsWorkTree reports whether the repo path is inside a git working tree.
func (g *Git) IsWorkTree() bool {
	result, err := g.run("rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return strings.TrimSpace(result.Stdout) == "true"
}

// StashPush stashes uncommitted local changes, including untracked files.
// With a clean tree git exits 0 ("No local changes to save"), so a non-nil
// error means the stash itself failed.
func (g *Git) StashPush() error {
	_, err := g.run("stash", "push", "--include-untracked")
	return err
}

// AddAll stages every working-tree change.
func (g *Git) AddAll() error {
	_, err := g.run("add", "-A")
	return err
}

// HasChanges reports whether anything is staged or unstaged relative to HEAD.
func (g *Git) HasChanges() (bool, error) {
	result, err := g.run("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(result.Stdout) != "", nil
}

// Commit creates a commit with the given message.
func (g *Git) Commit(message string) error {
	_, err := g.run("commit", "-m", message)
	return err
}

// Head resolves the current commit id.
func (g *Git) Head() (string, error) {
	result, err := g.run("rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}
