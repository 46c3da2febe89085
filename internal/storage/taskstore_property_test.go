package storage

import (
	"fmt"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"

	"github.com/drmercer/prompt-pad/pkg/models"
)

func genTaskID(t *rapid.T, label string) string {
	n := rapid.IntRange(0, 9).Draw(t, label)
	return fmt.Sprintf("task-%d", n)
}

func genPrompt(t *rapid.T) string {
	letters := "abcdefghijklmnopqrstuvwxyz "
	n := rapid.IntRange(1, 30).Draw(t, "promptLen")
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rapid.IntRange(0, len(letters)-1).Draw(t, "promptChar")]
	}
	return string(b)
}

// TestSubmit_IDsStayUnique checks that after any sequence of submissions the
// store never holds two tasks with the same id, and that its size equals the
// number of distinct ids submitted.
func TestSubmit_IDsStayUnique(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := NewTaskStore(filepath.Join(t.TempDir(), "tasks.json"), nil)

		distinct := make(map[string]bool)
		n := rapid.IntRange(1, 40).Draw(rt, "nSubmissions")
		for i := 0; i < n; i++ {
			id := genTaskID(rt, fmt.Sprintf("id%d", i))
			store.Submit(models.Submission{ID: id, Prompt: genPrompt(rt)})
			distinct[id] = true
		}

		snap := store.Snapshot()
		if len(snap) != len(distinct) {
			rt.Fatalf("store size = %d, want %d distinct ids", len(snap), len(distinct))
		}
		seen := make(map[string]bool)
		for _, task := range snap {
			if seen[task.ID] {
				rt.Fatalf("duplicate id %q in store", task.ID)
			}
			seen[task.ID] = true
		}
	})
}

// TestSubmit_LatestPromptWins checks that a resubmission fully replaces the
// prior record: the stored prompt is always the most recent one for that id.
func TestSubmit_LatestPromptWins(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := NewTaskStore(filepath.Join(t.TempDir(), "tasks.json"), nil)

		latest := make(map[string]string)
		n := rapid.IntRange(1, 40).Draw(rt, "nSubmissions")
		for i := 0; i < n; i++ {
			id := genTaskID(rt, fmt.Sprintf("id%d", i))
			prompt := genPrompt(rt)
			store.Submit(models.Submission{ID: id, Prompt: prompt})
			latest[id] = prompt
		}

		for id, want := range latest {
			got, ok := store.Get(id)
			if !ok {
				rt.Fatalf("task %q missing", id)
			}
			if got.Prompt != want {
				rt.Fatalf("task %q prompt = %q, want %q", id, got.Prompt, want)
			}
			if got.Status != models.StatusQueued {
				rt.Fatalf("task %q status = %q, want queued", id, got.Status)
			}
		}
	})
}
