package tools

import (
	"strings"
	"testing"

	"github.com/lexandro/fastpick-mcp/index"
	"github.com/lexandro/fastpick-mcp/search"
)

func Test_FormatSearchResult_Empty(t *testing.T) {
	out := FormatSearchResult(search.Result{TotalFiles: 42})
	if !strings.Contains(out, "No matches") || !strings.Contains(out, "42") {
		t.Errorf("unexpected output: %s", out)
	}
}

func Test_FormatSearchResult_Items(t *testing.T) {
	e := index.NewFileEntry("/repo/src/main.go", "src/main.go", 100, 0, 0)
	e.GitStatus = index.GitModified

	out := FormatSearchResult(search.Result{
		Items:        []index.FileEntry{e},
		Scores:       []search.Score{{Total: 300, MatchType: search.MatchPrefix, FrecencyBoost: 10}},
		TotalMatched: 1,
		TotalFiles:   3,
	})

	for _, want := range []string{"src/main.go", "prefix 300", "modified", "frecency +10"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func Test_FormatFileResults_NameOnly(t *testing.T) {
	results := []index.FileSearchResult{
		{File: index.NewFileEntry("/repo/a.go", "a.go", 10, 0, 0)},
	}
	out := FormatFileResults(results, true)
	if !strings.Contains(out, "a.go") {
		t.Errorf("expected path in output, got: %s", out)
	}
	if strings.Contains(out, "B)") {
		t.Errorf("expected no metadata in nameOnly output, got: %s", out)
	}
}

func Test_FormatFileSize(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{100, "100 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, c := range cases {
		if got := formatFileSize(c.bytes); got != c.want {
			t.Errorf("formatFileSize(%d): expected %s, got %s", c.bytes, c.want, got)
		}
	}
}
