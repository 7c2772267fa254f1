package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/fastpick-mcp/engine"
	"github.com/lexandro/fastpick-mcp/gitstatus"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GitRefreshArgs defines the input parameters for the fastpick_git_refresh tool (none required).
type GitRefreshArgs struct{}

// GitRefreshHandler forces a git status re-enumeration.
type GitRefreshHandler struct {
	Logger *slog.Logger
}

// Handle processes a fastpick_git_refresh request.
func (h *GitRefreshHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args GitRefreshArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	updated, err := engine.RefreshGitStatus()
	if err != nil {
		if errors.Is(err, gitstatus.ErrGitUnavailable) {
			// non-fatal: prior statuses stay in place
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: "git unavailable, statuses unchanged"}},
			}, nil, nil
		}
		h.Logger.Error("fastpick_git_refresh failed", "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Git refresh error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	h.Logger.Info("fastpick_git_refresh", "updated", updated, "elapsed", time.Since(start))
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("updated %d entries", updated)}},
	}, nil, nil
}
