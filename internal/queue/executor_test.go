package queue

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/drmercer/prompt-pad/internal/integration"
	"github.com/drmercer/prompt-pad/pkg/models"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test relies on sh")
	}
}

// setupTestGitRepo creates a git repo with an initial commit in the given directory.
func setupTestGitRepo(t *testing.T, dir string) {
	t.Helper()
	for _, args := range [][]string{
		{"git", "init", "-b", "main"},
		{"git", "config", "user.name", "Test User"},
		{"git", "config", "user.email", "test@example.com"},
	} {
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("running %v: %v\n%s", args, err, out)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0o644); err != nil {
		t.Fatalf("writing README: %v", err)
	}
	for _, args := range [][]string{
		{"git", "add", "."},
		{"git", "commit", "-m", "initial commit"},
	} {
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("running %v: %v\n%s", args, err, out)
		}
	}
}

func newTestExecutor(t *testing.T, command []string) (*Executor, *integration.Git) {
	t.Helper()
	dir := t.TempDir()
	setupTestGitRepo(t, dir)
	runner := integration.NewCommandRunner()
	git := integration.NewGit(dir, runner)
	return NewExecutor(command, runner, git, nil), git
}

func lastCommitMessage(t *testing.T, dir string) string {
	t.Helper()
	cmd := exec.Command("git", "log", "-1", "--format=%B")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git log: %v\n%s", err, out)
	}
	return string(out)
}

func TestExecute_CommitsAndResolvesHead(t *testing.T) {
	skipOnWindows(t)
	executor, git := newTestExecutor(t, []string{"sh", "-c", "echo {prompt} > out.txt"})

	commit, err := executor.Execute(models.Task{ID: "t1", Prompt: "add a comment"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(commit) != 40 {
		t.Errorf("commit = %q, want a 40-char id", commit)
	}

	head, err := git.Head()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if head != commit {
		t.Errorf("returned commit %q != HEAD %q", commit, head)
	}

	data, err := os.ReadFile(filepath.Join(git.RepoPath(), "out.txt"))
	if err != nil {
		t.Fatalf("reading command output file: %v", err)
	}
	if strings.TrimSpace(string(data)) != "add a comment" {
		t.Errorf("out.txt = %q, want the substituted prompt", data)
	}

	if msg := lastCommitMessage(t, git.RepoPath()); !strings.Contains(msg, "add a comment") {
		t.Errorf("commit message = %q, want it to contain the prompt", msg)
	}
}

func TestExecute_NonZeroExitCarriesStderr(t *testing.T) {
	skipOnWindows(t)
	executor, git := newTestExecutor(t, []string{"sh", "-c", "echo broken >&2; exit 1"})

	before, _ := git.Head()
	_, err := executor.Execute(models.Task{ID: "t2", Prompt: "bad task"})
	if err == nil {
		t.Fatal("expected error for a failing command")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error = %q, want it to carry stderr", err)
	}

	after, _ := git.Head()
	if after != before {
		t.Error("failing command must not produce a commit")
	}
}

func TestExecute_StashesLocalChangesFirst(t *testing.T) {
	skipOnWindows(t)
	executor, git := newTestExecutor(t, []string{"sh", "-c", "echo done > out.txt"})

	// Dirty the tree before the task runs.
	if err := os.WriteFile(filepath.Join(git.RepoPath(), "local.txt"), []byte("uncommitted\n"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	commit, err := executor.Execute(models.Task{ID: "t3", Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if commit == "" {
		t.Fatal("expected a commit id")
	}

	// The pre-existing local change was stashed, not committed.
	cmd := exec.Command("git", "show", "--stat", "--format=", "HEAD")
	cmd.Dir = git.RepoPath()
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git show: %v\n%s", err, out)
	}
	if strings.Contains(string(out), "local.txt") {
		t.Errorf("stashed file ended up in the commit:\n%s", out)
	}
	if !strings.Contains(string(out), "out.txt") {
		t.Errorf("command output missing from the commit:\n%s", out)
	}
}

func TestExecute_NoChangesRecordsCurrentHead(t *testing.T) {
	skipOnWindows(t)
	executor, git := newTestExecutor(t, []string{"sh", "-c", "true {prompt}"})

	before, err := git.Head()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	commit, err := executor.Execute(models.Task{ID: "t5", Prompt: "noop"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if commit != before {
		t.Errorf("commit = %q, want unchanged HEAD %q", commit, before)
	}
}

func TestExecute_SubprocessSeesTaskEnv(t *testing.T) {
	skipOnWindows(t)
	executor, git := newTestExecutor(t, []string{"sh", "-c", "echo $PPAD_TASK_ID > env.txt; echo {prompt} >> env.txt"})

	if _, err := executor.Execute(models.Task{ID: "t4", Prompt: "p"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(git.RepoPath(), "env.txt"))
	if err != nil {
		t.Fatalf("reading env file: %v", err)
	}
	if !strings.Contains(string(data), "t4") {
		t.Errorf("env.txt = %q, want the task id from PPAD_TASK_ID", data)
	}
}

func TestCommitMessage(t *testing.T) {
	tests := []struct {
		name        string
		prompt      string
		wantSubject string
		wantBody    bool
	}{
		{
			name:        "short prompt",
			prompt:      "fix typo",
			wantSubject: "ppad: fix typo",
			wantBody:    false,
		},
		{
			name:        "multiline prompt keeps first line as subject",
			prompt:      "fix typo\nin the readme",
			wantSubject: "ppad: fix typo",
			wantBody:    true,
		},
		{
			name:        "long prompt truncated in subject",
			prompt:      strings.Repeat("a", 100),
			wantSubject: "ppad: " + strings.Repeat("a", commitSubjectLimit-3) + "...",
			wantBody:    true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := commitMessage(tc.prompt)
			lines := strings.SplitN(msg, "\n", 2)
			if lines[0] != tc.wantSubject {
				t.Errorf("subject = %q, want %q", lines[0], tc.wantSubject)
			}
			if tc.wantBody && !strings.Contains(msg, tc.prompt) {
				t.Errorf("message %q does not embed the full prompt", msg)
			}
			if !tc.wantBody && len(lines) > 1 {
				t.Errorf("unexpected body in %q", msg)
			}
		})
	}
}
