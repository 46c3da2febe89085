// Package integration invokes external processes: the user-configured task
// command and the git CLI. All invocations are explicit synchronous calls
// returning an exit code and captured output.
package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// PromptPlaceholder is the reserved argument token replaced with the task's
// prompt text at execution time.
const PromptPlaceholder = "{prompt}"

// TaskEnv carries task-specific information injected into the subprocess
// environment.
type TaskEnv struct {
	TaskID   string
	RepoPath string
}

// RunResult captures the outcome of an external command invocation. A
// non-zero ExitCode is a normal outcome, not an error: Run only returns an
// error when the command could not be started at all.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner defines the interface for invoking external commands inside
// a working directory.
type CommandRunner interface {
	// Run executes command with args in dir, injecting task env vars when
	// taskEnv is non-nil.
	Run(dir, command string, args []string, taskEnv *TaskEnv) (*RunResult, error)
}

type commandRunner struct{}

// NewCommandRunner creates the default CommandRunner backed by os/exec.
func NewCommandRunner() CommandRunner {
	return &commandRunner{}
}

// SubstitutePrompt replaces every occurrence of PromptPlaceholder in every
// argument with the prompt text. Arguments without the placeholder pass
// through unchanged.
func SubstitutePrompt(args []string, prompt string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, PromptPlaceholder, prompt)
	}
	return out
}

// BuildEnv appends PPAD_* variables to the base environment when a task env
// is provided. When taskEnv is nil, the base is returned unchanged.
func BuildEnv(base []string, taskEnv *TaskEnv) []string {
	if taskEnv == nil {
		return base
	}
	env := make([]string, len(base), len(base)+2)
	copy(env, base)
	env = append(env,
		"PPAD_TASK_ID="+taskEnv.TaskID,
		"PPAD_REPO="+taskEnv.RepoPath,
	)
	return env
}

func (r *commandRunner) Run(dir, command string, args []string, taskEnv *TaskEnv) (*RunResult, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = dir
	cmd.Env = BuildEnv(os.Environ(), taskEnv)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	result := &RunResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// Command could not be started (e.g., not found).
			return result, fmt.Errorf("executing %s: %w", command, err)
		}
	}

	return result, nil
}
