package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/fastpick-mcp/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchArgs defines the input parameters for the fastpick_search tool.
type SearchArgs struct {
	Query       string `json:"query" jsonschema:"Fuzzy query matched against file names and relative paths. Empty returns the frecency ranking"`
	MaxResults  int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
	MaxThreads  int    `json:"maxThreads,omitempty" jsonschema:"Scoring worker count (default 4)"`
	CurrentFile string `json:"currentFile,omitempty" jsonschema:"Absolute path of the currently open file; it is ranked down so a close competing match ranks above it"`
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	Logger *slog.Logger
}

// Handle processes a fastpick_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	maxResults := args.MaxResults
	if maxResults == 0 {
		maxResults = 50
	}

	result, err := engine.FuzzySearchFiles(args.Query, maxResults, args.MaxThreads, args.CurrentFile)
	if err != nil {
		h.Logger.Error("fastpick_search failed", "query", args.Query, "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Search error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	elapsed := time.Since(start)
	h.Logger.Info("fastpick_search",
		"query", args.Query,
		"results", len(result.Items),
		"matched", result.TotalMatched,
		"elapsed", elapsed,
	)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatSearchResult(result)}},
	}, nil, nil
}
