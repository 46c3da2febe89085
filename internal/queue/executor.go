// Package queue drives submitted tasks from queued to a terminal state: a
// single-worker processor pulls the oldest queued task and an executor runs
// the configured command against the git working tree and commits the result.
package queue

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/drmercer/prompt-pad/internal/integration"
	"github.com/drmercer/prompt-pad/pkg/models"
)

// commitSubjectLimit caps the first line of a generated commit message.
const commitSubjectLimit = 72

// Executor performs one task's stash, external-command, and commit sequence
// against a fixed repository working tree.
type Executor struct {
	command []string // argv template containing the {prompt} placeholder
	runner  integration.CommandRunner
	git     *integration.Git
	logger  *log.Logger
}

// NewExecutor creates an Executor for the given repository and command
// template. command[0] is the program, the rest its arguments; every
// occurrence of the placeholder token is replaced with the task prompt at
// run time.
func NewExecutor(command []string, runner integration.CommandRunner, git *integration.Git, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{
		command: command,
		runner:  runner,
		git:     git,
		logger:  logger,
	}
}

// Execute runs one task to completion and returns the resulting commit id.
// Local changes are stashed first so the command starts from a clean tree;
// the stash is intentionally not popped afterwards. A command that leaves
// the tree unchanged records the current HEAD instead of a new commit. Any
// returned error is converted by the processor into the task's error state.
func (e *Executor) Execute(task models.Task) (string, error) {
	// Best effort: a failed stash is logged but does not abort the task.
	if err := e.git.StashPush(); err != nil {
		e.logger.Warn("stashing local changes", "task", task.ID, "err", err)
	}

	args := integration.SubstitutePrompt(e.command[1:], task.Prompt)
	taskEnv := &integration.TaskEnv{TaskID: task.ID, RepoPath: e.git.RepoPath()}

	result, err := e.runner.Run(e.git.RepoPath(), e.command[0], args, taskEnv)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		stderr := strings.TrimSpace(result.Stderr)
		if stderr == "" {
			stderr = strings.TrimSpace(result.Stdout)
		}
		return "", fmt.Errorf("command exited %d: %s", result.ExitCode, stderr)
	}

	changed, err := e.git.HasChanges()
	if err != nil {
		return "", err
	}
	if changed {
		if err := e.git.AddAll(); err != nil {
			return "", err
		}
		if err := e.git.Commit(commitMessage(task.Prompt)); err != nil {
			return "", err
		}
	} else {
		e.logger.Info("command made no changes", "task", task.ID)
	}

	commit, err := e.git.Head()
	if err != nil {
		return "", fmt.Errorf("resolving commit: %w", err)
	}
	return commit, nil
}

// commitMessage builds a commit message embedding the original prompt text.
// Long prompts keep a truncated subject line with the full prompt in the body.
func commitMessage(prompt string) string {
	subject := strings.SplitN(prompt, "\n", 2)[0]
	if len(subject) > commitSubjectLimit {
		subject = subject[:commitSubjectLimit-3] + "..."
	}
	msg := "ppad: " + subject
	if subject != prompt {
		msg += "\n\n" + prompt
	}
	return msg
}
