package watcher

import (
	"sort"
	"testing"
	"time"
)

const testInterval = 50 * time.Millisecond

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []DebouncedEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for debouncer batch")
		return nil
	}
}

func Test_Debouncer_SingleEvent(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("main.go", OpWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 event, got %d", len(batch))
	}
	if batch[0].Path != "main.go" {
		t.Errorf("expected path 'main.go', got '%s'", batch[0].Path)
	}
	if batch[0].Op != OpWrite {
		t.Errorf("expected OpWrite, got %d", batch[0].Op)
	}
}

func Test_Debouncer_EventCollapsing(t *testing.T) {
	d := NewDebouncer(testInterval)

	// Same path twice within the window: final state wins
	d.Add("main.go", OpCreate)
	d.Add("main.go", OpRemove)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 event (collapsed), got %d", len(batch))
	}
	if batch[0].Op != OpRemove {
		t.Errorf("expected latest op OpRemove, got %d", batch[0].Op)
	}
}

func Test_Debouncer_MultiplePaths(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("main.go", OpWrite)
	d.Add("util.go", OpCreate)
	d.Add("README.md", OpRemove)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 3 {
		t.Fatalf("expected 3 events, got %d", len(batch))
	}

	sort.Slice(batch, func(i, j int) bool {
		return batch[i].Path < batch[j].Path
	})

	expectedPaths := []string{"README.md", "main.go", "util.go"}
	for i, expected := range expectedPaths {
		if batch[i].Path != expected {
			t.Errorf("event[%d]: expected path '%s', got '%s'", i, expected, batch[i].Path)
		}
	}
}

func Test_Debouncer_QuietWindowResets(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("a.go", OpWrite)
	time.Sleep(testInterval / 2)
	d.Add("b.go", OpWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)
	if len(batch) != 2 {
		t.Errorf("expected both events in one batch after the window reset, got %d", len(batch))
	}
}

func Test_AffectsGitState(t *testing.T) {
	gitDir := "/repo/.git"

	relevant := []string{
		"/repo/.git/index",
		"/repo/.git/index.lock",
		"/repo/.git/HEAD",
		"/repo/.git/packed-refs",
		"/repo/.git/refs/heads/main",
		"/repo/.git/MERGE_HEAD",
		"/repo/.git/info/exclude",
	}
	for _, p := range relevant {
		if !affectsGitState(p, gitDir) {
			t.Errorf("expected %s to affect git state", p)
		}
	}

	irrelevant := []string{
		"/repo/.git/objects/ab/cdef0123",
		"/repo/.git/logs/HEAD",
		"/repo/.git/hooks/pre-commit",
	}
	for _, p := range irrelevant {
		if affectsGitState(p, gitDir) {
			t.Errorf("expected %s to NOT affect git state", p)
		}
	}
}

func Test_IsIgnoreDefinition(t *testing.T) {
	if !isIgnoreDefinition("/repo/sub/.gitignore") {
		t.Error("expected .gitignore to be an ignore definition")
	}
	if !isIgnoreDefinition("/repo/.ignore") {
		t.Error("expected .ignore to be an ignore definition")
	}
	if isIgnoreDefinition("/repo/main.go") {
		t.Error("expected main.go to not be an ignore definition")
	}
}
