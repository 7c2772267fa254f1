package gitstatus

import (
	"strings"
	"testing"

	"github.com/lexandro/fastpick-mcp/index"
)

func porcelain(records ...string) []byte {
	return []byte(strings.Join(records, "\x00") + "\x00")
}

func Test_ParsePorcelainV2_Untracked(t *testing.T) {
	statuses := parsePorcelainV2(porcelain("? new.go"), "/repo")
	if statuses["/repo/new.go"] != index.GitUntracked {
		t.Errorf("expected untracked, got %s", statuses["/repo/new.go"])
	}
}

func Test_ParsePorcelainV2_Ignored(t *testing.T) {
	statuses := parsePorcelainV2(porcelain("! build/out.bin"), "/repo")
	if statuses["/repo/build/out.bin"] != index.GitIgnored {
		t.Errorf("expected ignored, got %s", statuses["/repo/build/out.bin"])
	}
}

func Test_ParsePorcelainV2_WorktreeModified(t *testing.T) {
	record := "1 .M N... 100644 100644 100644 abc123 abc123 src/main.go"
	statuses := parsePorcelainV2(porcelain(record), "/repo")
	if statuses["/repo/src/main.go"] != index.GitModified {
		t.Errorf("expected modified, got %s", statuses["/repo/src/main.go"])
	}
}

func Test_ParsePorcelainV2_WorktreeDeleted(t *testing.T) {
	record := "1 .D N... 100644 100644 000000 abc123 abc123 gone.go"
	statuses := parsePorcelainV2(porcelain(record), "/repo")
	if statuses["/repo/gone.go"] != index.GitDeleted {
		t.Errorf("expected deleted, got %s", statuses["/repo/gone.go"])
	}
}

func Test_ParsePorcelainV2_StagedVariants(t *testing.T) {
	cases := []struct {
		xy   string
		want index.GitStatus
	}{
		{"A.", index.GitStagedNew},
		{"M.", index.GitStagedModified},
		{"D.", index.GitStagedDeleted},
	}
	for _, c := range cases {
		record := "1 " + c.xy + " N... 100644 100644 100644 abc123 def456 file.go"
		statuses := parsePorcelainV2(porcelain(record), "/repo")
		if statuses["/repo/file.go"] != c.want {
			t.Errorf("XY %s: expected %s, got %s", c.xy, c.want, statuses["/repo/file.go"])
		}
	}
}

func Test_ParsePorcelainV2_WorktreeStateWinsOverStaged(t *testing.T) {
	// staged-modified AND worktree-modified reads as modified
	record := "1 MM N... 100644 100644 100644 abc123 def456 both.go"
	statuses := parsePorcelainV2(porcelain(record), "/repo")
	if statuses["/repo/both.go"] != index.GitModified {
		t.Errorf("expected modified, got %s", statuses["/repo/both.go"])
	}
}

func Test_ParsePorcelainV2_RenameConsumesOriginPath(t *testing.T) {
	record := "2 R. N... 100644 100644 100644 abc123 abc123 R100 new_name.go"
	statuses := parsePorcelainV2(porcelain(record, "old_name.go", "? trailing.go"), "/repo")

	if statuses["/repo/new_name.go"] != index.GitRenamed {
		t.Errorf("expected renamed, got %s", statuses["/repo/new_name.go"])
	}
	if _, ok := statuses["/repo/old_name.go"]; ok {
		t.Error("origin path of a rename must not produce an entry")
	}
	if statuses["/repo/trailing.go"] != index.GitUntracked {
		t.Error("expected parsing to continue after the rename record")
	}
}

func Test_ParsePorcelainV2_EmptyOutput(t *testing.T) {
	statuses := parsePorcelainV2(nil, "/repo")
	if len(statuses) != 0 {
		t.Errorf("expected no statuses, got %d", len(statuses))
	}
}

func Test_ClassifyXY_Clean(t *testing.T) {
	if got := classifyXY("..", false); got != index.GitClean {
		t.Errorf("expected clean, got %s", got)
	}
}

func Test_GitDir(t *testing.T) {
	if got := GitDir(""); got != "" {
		t.Errorf("expected empty for no workdir, got %s", got)
	}
	if got := GitDir("/repo"); got != "/repo/.git" {
		t.Errorf("expected /repo/.git, got %s", got)
	}
}
