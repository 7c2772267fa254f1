package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/fastpick-mcp/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FilesArgs defines the input parameters for the fastpick_files tool.
type FilesArgs struct {
	Pattern    string `json:"pattern,omitempty" jsonschema:"Glob pattern to match files (e.g. **/*.go). Empty lists every indexed file"`
	NameOnly   bool   `json:"nameOnly,omitempty" jsonschema:"If true return only file paths without metadata"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	Logger *slog.Logger
}

// Handle processes a fastpick_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	ix, err := engine.Index()
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	pattern := args.Pattern
	if pattern == "" {
		pattern = "**"
	}

	results, err := ix.SearchByGlob(pattern, args.MaxResults)
	if err != nil {
		h.Logger.Error("fastpick_files failed", "pattern", args.Pattern, "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Glob error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	h.Logger.Info("fastpick_files",
		"pattern", pattern,
		"results", len(results),
		"elapsed", time.Since(start),
	)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatFileResults(results, args.NameOnly)}},
	}, nil, nil
}
