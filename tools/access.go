package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexandro/fastpick-mcp/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AccessArgs defines the input parameters for the fastpick_access tool.
type AccessArgs struct {
	Path string `json:"path" jsonschema:"Absolute path of the file that was opened"`
}

// AccessHandler records file accesses into the frecency store.
type AccessHandler struct {
	Logger *slog.Logger
}

// Handle processes a fastpick_access request.
func (h *AccessHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args AccessArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Error: path parameter is required"}},
			IsError: true,
		}, nil, nil
	}

	if err := engine.TrackAccess(args.Path); err != nil {
		h.Logger.Error("fastpick_access failed", "path", args.Path, "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Access error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	h.Logger.Debug("fastpick_access", "path", args.Path)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "ok"}},
	}, nil, nil
}
