package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/fastpick-mcp/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RescanArgs defines the input parameters for the fastpick_rescan tool.
type RescanArgs struct {
	Wait bool `json:"wait,omitempty" jsonschema:"If true block until the rescan completes (up to 30s)"`
}

// RescanHandler triggers delta rescans.
type RescanHandler struct {
	Logger *slog.Logger
}

// Handle processes a fastpick_rescan request.
func (h *RescanHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RescanArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("fastpick_rescan triggered", "wait", args.Wait)

	if err := engine.ScanFiles(); err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Rescan error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	if !args.Wait {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "rescan started"}},
		}, nil, nil
	}

	deadline := time.Now().Add(30 * time.Second)
	for {
		scanning, err := engine.IsScanning()
		if err != nil || !scanning {
			break
		}
		if time.Now().After(deadline) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: "rescan still running (timed out waiting)"}},
			}, nil, nil
		}
		time.Sleep(50 * time.Millisecond)
	}

	progress, err := engine.GetScanProgress()
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Rescan error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{
			Text: fmt.Sprintf("rescan complete: %d files", progress.ScannedFiles),
		}},
	}, nil, nil
}
