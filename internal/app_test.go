package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/drmercer/prompt-pad/internal/core"
	"github.com/drmercer/prompt-pad/internal/storage"
	"github.com/drmercer/prompt-pad/pkg/models"
)

const (
	testHost   = "ppad.localhost:8999"
	testSecret = "sekret"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test relies on sh")
	}
}

func gitIn(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func setupTestGitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	gitIn(t, dir, "init", "-b", "main")
	gitIn(t, dir, "config", "user.name", "Test User")
	gitIn(t, dir, "config", "user.email", "test@example.com")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0o644); err != nil {
		t.Fatalf("writing README: %v", err)
	}
	gitIn(t, dir, "add", ".")
	gitIn(t, dir, "commit", "-m", "initial commit")
	return dir
}

func testConfig(t *testing.T) *core.Config {
	t.Helper()
	return &core.Config{
		ServerName: "test-server",
		Addr:       "127.0.0.1:0",
		Host:       testHost,
		Secret:     testSecret,
		StateDir:   t.TempDir(),
		Command:    []string{"sh", "-c", "echo {prompt} > task-output.txt"},
	}
}

func newTestApp(t *testing.T, cfg *core.Config, repo string) *App {
	t.Helper()
	app, err := NewApp(cfg, repo, nil)
	if err != nil {
		t.Fatalf("creating app: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func waitForTerminal(t *testing.T, store *storage.TaskStore, id string) models.Task {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		if task, ok := store.Get(id); ok && task.Status.Terminal() {
			return task
		}
		select {
		case <-deadline:
			task, _ := store.Get(id)
			t.Fatalf("task %s stuck at %q", id, task.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestApp_SubmitOverHTTP(t *testing.T) {
	skipOnWindows(t)
	repo := setupTestGitRepo(t)
	app := newTestApp(t, testConfig(t), repo)
	app.Start()

	ts := httptest.NewServer(app.Server.Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/",
		strings.NewReader(`{"id":"t1","prompt":"write a haiku"}`))
	req.Host = testHost
	req.Header.Set("Authorization", "Bearer "+testSecret)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	task := waitForTerminal(t, app.Store, "t1")
	if task.Status != models.StatusCompleted {
		t.Fatalf("task status = %q (%s), want completed", task.Status, task.Error)
	}
	if len(task.Commit) != 40 {
		t.Errorf("commit = %q, want a 40-char id", task.Commit)
	}

	data, err := os.ReadFile(filepath.Join(repo, "task-output.txt"))
	if err != nil {
		t.Fatalf("reading task output: %v", err)
	}
	if strings.TrimSpace(string(data)) != "write a haiku" {
		t.Errorf("task output = %q, want the substituted prompt", data)
	}

	// The snapshot reflects the finished task over the same API.
	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	req.Host = testHost
	req.Header.Set("Authorization", "Bearer "+testSecret)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	var status struct {
		ServerName string        `json:"serverName"`
		Tasks      []models.Task `json:"tasks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.ServerName != "test-server" {
		t.Errorf("serverName = %q", status.ServerName)
	}
	if len(status.Tasks) != 1 || status.Tasks[0].Commit != task.Commit {
		t.Errorf("tasks = %+v", status.Tasks)
	}
}

func TestApp_RecoversInterruptedTask(t *testing.T) {
	skipOnWindows(t)
	repo := setupTestGitRepo(t)
	cfg := testConfig(t)

	// Simulate a previous process that died mid-task: the persisted
	// document holds an in-progress record.
	abs, err := filepath.Abs(repo)
	if err != nil {
		t.Fatalf("resolving repo path: %v", err)
	}
	docPath := storage.StateDocPath(cfg.StateDir, abs)
	interrupted := []models.Task{{
		ID:          "t1",
		Prompt:      "finish me",
		Status:      models.StatusInProgress,
		SubmittedAt: time.Now().Add(-time.Minute),
	}}
	data, err := json.MarshalIndent(interrupted, "", "  ")
	if err != nil {
		t.Fatalf("marshalling fixture: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(docPath), 0o755); err != nil {
		t.Fatalf("creating state dir: %v", err)
	}
	if err := os.WriteFile(docPath, data, 0o644); err != nil {
		t.Fatalf("writing state doc: %v", err)
	}

	app := newTestApp(t, cfg, repo)
	app.Start()

	task := waitForTerminal(t, app.Store, "t1")
	if task.Status != models.StatusCompleted {
		t.Fatalf("recovered task status = %q (%s), want completed", task.Status, task.Error)
	}
	if task.Commit == "" {
		t.Error("recovered task has no commit")
	}
}

func TestApp_RejectsNonGitDirectory(t *testing.T) {
	cfg := testConfig(t)
	if _, err := NewApp(cfg, t.TempDir(), nil); err == nil {
		t.Fatal("expected error for a directory that is not a git working tree")
	}
}
