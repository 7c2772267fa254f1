package index

import (
	"sync"
	"testing"
)

func newTestEntry(relPath string) FileEntry {
	return NewFileEntry("/repo/"+relPath, relPath, 1024, 1700000000, 1700000000)
}

func Test_NewFileEntry_FieldDerivation(t *testing.T) {
	e := NewFileEntry("/repo/src/Main.RS", "src/Main.RS", 42, 100, 200)

	if e.Name != "Main.RS" {
		t.Errorf("expected name Main.RS, got %s", e.Name)
	}
	if e.Extension != "rs" {
		t.Errorf("expected lowercased extension rs, got %s", e.Extension)
	}
	if e.Directory != "src" {
		t.Errorf("expected directory src, got %s", e.Directory)
	}
	if e.GitStatus != GitUnknown {
		t.Errorf("expected initial status unknown, got %s", e.GitStatus)
	}
}

func Test_NewFileEntry_BaseLevelFile(t *testing.T) {
	e := NewFileEntry("/repo/README.md", "README.md", 1, 1, 1)
	if e.Directory != "" {
		t.Errorf("expected empty directory, got %s", e.Directory)
	}
}

func Test_NewFileEntry_DotfileHasNoExtension(t *testing.T) {
	e := NewFileEntry("/repo/.envrc", ".envrc", 1, 1, 1)
	if e.Extension != "" {
		t.Errorf("expected empty extension for dotfile, got %s", e.Extension)
	}
}

func Test_Index_InsertAndLookup(t *testing.T) {
	ix := NewIndex("/repo")
	id, err := ix.Insert(newTestEntry("src/main.go"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero id")
	}

	got, ok := ix.LookupByPath("/repo/src/main.go")
	if !ok {
		t.Fatal("expected to find entry")
	}
	if got.Name != "main.go" {
		t.Errorf("expected name main.go, got %s", got.Name)
	}
}

func Test_Index_DuplicateInsertRejected(t *testing.T) {
	ix := NewIndex("/repo")
	if _, err := ix.Insert(newTestEntry("a.go")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ix.Insert(newTestEntry("a.go")); err == nil {
		t.Error("expected duplicate insert to fail")
	}
}

func Test_Index_InsertRemoveRoundTrip(t *testing.T) {
	ix := NewIndex("/repo")
	ix.Insert(newTestEntry("a.go"))
	before := ix.Len()

	ix.Insert(newTestEntry("b.go"))
	if !ix.Remove("/repo/b.go") {
		t.Fatal("expected removal to succeed")
	}

	if ix.Len() != before {
		t.Errorf("expected len %d after round trip, got %d", before, ix.Len())
	}
	if _, ok := ix.LookupByPath("/repo/b.go"); ok {
		t.Error("expected entry to be gone")
	}
}

func Test_Index_RemoveDir(t *testing.T) {
	ix := NewIndex("/repo")
	ix.Insert(newTestEntry("src/a.go"))
	ix.Insert(newTestEntry("src/sub/b.go"))
	ix.Insert(newTestEntry("other/c.go"))

	removed := ix.RemoveDir("/repo/src")
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if ix.Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", ix.Len())
	}
}

func Test_Index_TouchMovesModTimeForwardOnly(t *testing.T) {
	ix := NewIndex("/repo")
	ix.Insert(newTestEntry("a.go"))

	ix.Touch("/repo/a.go", 2048, 1700000099, 1700000099)
	e, _ := ix.LookupByPath("/repo/a.go")
	if e.ModifiedTime != 1700000099 || e.Size != 2048 {
		t.Errorf("expected touch to apply, got mtime=%d size=%d", e.ModifiedTime, e.Size)
	}

	ix.Touch("/repo/a.go", 512, 1600000000, 1600000000)
	e, _ = ix.LookupByPath("/repo/a.go")
	if e.ModifiedTime != 1700000099 {
		t.Errorf("expected mtime to not move backwards, got %d", e.ModifiedTime)
	}
}

func Test_Index_SnapshotIsolation(t *testing.T) {
	ix := NewIndex("/repo")
	ix.Insert(newTestEntry("a.go"))

	snap := ix.Snapshot()
	ix.Insert(newTestEntry("b.go"))
	ix.Remove("/repo/a.go")

	if len(snap.Entries) != 1 {
		t.Fatalf("expected snapshot to keep 1 entry, got %d", len(snap.Entries))
	}
	if snap.Entries[0].RelativePath != "a.go" {
		t.Errorf("expected a.go in snapshot, got %s", snap.Entries[0].RelativePath)
	}
}

func Test_Index_SnapshotCurrentFileMark(t *testing.T) {
	ix := NewIndex("/repo")
	ix.Insert(newTestEntry("src/main.go"))
	ix.Insert(newTestEntry("src/lib.go"))

	ix.SetCurrentFile("/repo/src/main.go")
	snap := ix.Snapshot()

	marked := 0
	for _, e := range snap.Entries {
		if e.IsCurrentFile {
			marked++
			if e.RelativePath != "src/main.go" {
				t.Errorf("wrong entry marked: %s", e.RelativePath)
			}
		}
	}
	if marked != 1 {
		t.Fatalf("expected exactly 1 marked entry, got %d", marked)
	}
	if snap.CurrentFile != "src/main.go" {
		t.Errorf("expected snapshot current file src/main.go, got %s", snap.CurrentFile)
	}

	// the mark is transient: replacing the hint clears the previous one
	ix.SetCurrentFile("")
	snap = ix.Snapshot()
	for _, e := range snap.Entries {
		if e.IsCurrentFile {
			t.Error("expected no marked entries after clearing the hint")
		}
	}
}

func Test_Index_ApplyGitStatuses(t *testing.T) {
	ix := NewIndex("/repo")
	ix.Insert(newTestEntry("a.go"))
	ix.Insert(newTestEntry("b.go"))
	ix.Insert(newTestEntry("c.go"))

	changed := ix.ApplyGitStatuses(map[string]GitStatus{
		"/repo/a.go": GitModified,
	})

	// a.go unknown->modified, b.go and c.go unknown->clean
	if changed != 3 {
		t.Errorf("expected 3 changed, got %d", changed)
	}

	e, _ := ix.LookupByPath("/repo/a.go")
	if e.GitStatus != GitModified {
		t.Errorf("expected modified, got %s", e.GitStatus)
	}
	e, _ = ix.LookupByPath("/repo/b.go")
	if e.GitStatus != GitClean {
		t.Errorf("expected clean, got %s", e.GitStatus)
	}

	// second identical pass changes nothing
	changed = ix.ApplyGitStatuses(map[string]GitStatus{"/repo/a.go": GitModified})
	if changed != 0 {
		t.Errorf("expected 0 changed on repeat, got %d", changed)
	}
}

func Test_Index_RescoreAppliesWeights(t *testing.T) {
	ix := NewIndex("/repo")
	ix.Insert(newTestEntry("a.go"))

	ix.Rescore(func(path string, modTime int64, status GitStatus) (int64, int64, int64) {
		return 3, 2, 3 + 2*2
	})

	e, _ := ix.LookupByPath("/repo/a.go")
	if e.AccessFrecencyScore != 3 || e.ModificationFrecencyScore != 2 || e.TotalFrecencyScore != 7 {
		t.Errorf("unexpected scores: %d %d %d",
			e.AccessFrecencyScore, e.ModificationFrecencyScore, e.TotalFrecencyScore)
	}
}

func Test_Index_MarkSweep(t *testing.T) {
	ix := NewIndex("/repo")
	ix.Insert(newTestEntry("keep.go"))
	ix.Insert(newTestEntry("stale.go"))

	const gen = 7
	ix.MarkSeen("/repo/keep.go", gen)
	removed := ix.Sweep(gen)

	if removed != 1 {
		t.Errorf("expected 1 swept, got %d", removed)
	}
	if _, ok := ix.LookupByPath("/repo/keep.go"); !ok {
		t.Error("expected marked entry to survive")
	}
	if _, ok := ix.LookupByPath("/repo/stale.go"); ok {
		t.Error("expected unmarked entry to be swept")
	}
}

func Test_Index_SearchByGlob(t *testing.T) {
	ix := NewIndex("/repo")
	ix.Insert(newTestEntry("src/main.go"))
	ix.Insert(newTestEntry("src/utils/helper.go"))
	ix.Insert(newTestEntry("src/app.ts"))

	results, err := ix.SearchByGlob("**/*.go", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 Go files, got %d", len(results))
	}
}

func Test_Index_SearchByGlob_InvalidPattern(t *testing.T) {
	ix := NewIndex("/repo")
	if _, err := ix.SearchByGlob("[invalid", 50); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func Test_Index_ConcurrentReadersAndWriters(t *testing.T) {
	ix := NewIndex("/repo")
	for _, p := range []string{"a.go", "b.go", "c.go"} {
		ix.Insert(newTestEntry(p))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := ix.Snapshot()
				for _, e := range snap.Entries {
					if e.Path == "" {
						t.Error("observed torn entry")
						return
					}
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			ix.Touch("/repo/a.go", int64(j), int64(1700000000+j), 0)
			ix.ApplyGitStatuses(map[string]GitStatus{"/repo/b.go": GitModified})
		}
	}()
	wg.Wait()
}
