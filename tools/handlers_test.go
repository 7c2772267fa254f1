package tools

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lexandro/fastpick-mcp/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

// initEngine brings up a picker over a small tree and tears it down after.
func initEngine(t *testing.T, files ...string) {
	t.Helper()
	dir := t.TempDir()
	for _, rel := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		os.MkdirAll(filepath.Dir(path), 0755)
		os.WriteFile(path, []byte("x"), 0644)
	}

	if _, err := engine.InitFilePicker(dir, engine.Options{}); err != nil {
		t.Fatalf("init picker: %v", err)
	}
	t.Cleanup(func() { engine.CleanupFilePicker() })

	if ok, _ := engine.WaitForInitialScan(5000); !ok {
		t.Fatal("initial scan did not finish")
	}
}

func Test_SearchHandler_ReturnsRankedResults(t *testing.T) {
	initEngine(t, "src/main.go", "src/other.go")

	h := &SearchHandler{Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "main"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(t, result))
	}
	if !strings.Contains(textOf(t, result), "src/main.go") {
		t.Errorf("expected src/main.go in output, got:\n%s", textOf(t, result))
	}
}

func Test_SearchHandler_UninitializedEngine(t *testing.T) {
	engine.CleanupFilePicker()

	h := &SearchHandler{Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "x"})
	if err != nil {
		t.Fatalf("handler must not fail the protocol: %v", err)
	}
	if !result.IsError {
		t.Error("expected a tool-level error before init")
	}
}

func Test_FilesHandler_GlobListing(t *testing.T) {
	initEngine(t, "src/main.go", "src/app.ts")

	h := &FilesHandler{Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, FilesArgs{Pattern: "**/*.go"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	out := textOf(t, result)
	if !strings.Contains(out, "src/main.go") || strings.Contains(out, "app.ts") {
		t.Errorf("unexpected listing:\n%s", out)
	}
}

func Test_FilesHandler_InvalidPattern(t *testing.T) {
	initEngine(t, "a.go")

	h := &FilesHandler{Logger: testLogger()}
	result, _, _ := h.Handle(context.Background(), nil, FilesArgs{Pattern: "[bad"})
	if !result.IsError {
		t.Error("expected a tool-level error for an invalid pattern")
	}
}

func Test_AccessHandler_RequiresPath(t *testing.T) {
	h := &AccessHandler{Logger: testLogger()}
	result, _, _ := h.Handle(context.Background(), nil, AccessArgs{})
	if !result.IsError {
		t.Error("expected a tool-level error for a missing path")
	}
}

func Test_StatusHandler_ReportsIndex(t *testing.T) {
	initEngine(t, "src/main.go", "README.md")

	h := &StatusHandler{StartTime: time.Now(), RootDir: "/repo", Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	out := textOf(t, result)
	if !strings.Contains(out, "Indexed files: 2") {
		t.Errorf("expected file count in status, got:\n%s", out)
	}
	if !strings.Contains(out, "Go") {
		t.Errorf("expected language breakdown, got:\n%s", out)
	}
}

func Test_RescanHandler_Triggers(t *testing.T) {
	initEngine(t, "a.go")

	h := &RescanHandler{Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, RescanArgs{Wait: true})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(t, result))
	}
	if !strings.Contains(textOf(t, result), "rescan") {
		t.Errorf("unexpected output: %s", textOf(t, result))
	}
}
