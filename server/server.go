package server

import (
	"github.com/lexandro/fastpick-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Setup creates and configures the MCP server with all tool registrations.
func Setup(
	searchHandler *tools.SearchHandler,
	filesHandler *tools.FilesHandler,
	accessHandler *tools.AccessHandler,
	statusHandler *tools.StatusHandler,
	rescanHandler *tools.RescanHandler,
	gitRefreshHandler *tools.GitRefreshHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fastpick-mcp",
			Version: "0.3.0",
		},
		&mcp.ServerOptions{
			Instructions: `This server provides indexed fuzzy file search over the project tree. Ranking blends match quality with usage frecency and git status, so recently touched and frequently opened files float up.

- Use fastpick_search to find files by approximate name or path fragment (typo-tolerant). An empty query returns the most relevant files by recent usage.
- Pass currentFile so the file you already have open is not re-suggested on top.
- Call fastpick_access after opening a file so its ranking improves over time.
- Use fastpick_files for exact glob listings (e.g. **/*.go).
- The index updates automatically via a filesystem watcher; fastpick_rescan forces a full delta rescan.`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "fastpick_search",
		Description: `Fuzzy-search indexed files by name or path. Much faster than find/ls and tolerant of typos.

Ranking: literal matches (exact > prefix > substring) beat fuzzy ones; filename hits beat directory hits; frequently and recently opened files get a frecency boost; git-modified files float up. Empty query = pure frecency ranking.`,
	}, searchHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "fastpick_files",
		Description: `List indexed files by glob pattern.

Pattern examples:
  - "**/*.go" - all Go files
  - "src/**/*.ts" - TypeScript files under src/
  - "*.json" - JSON files in the base directory only`,
	}, filesHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "fastpick_access",
		Description: "Record that a file was opened. Feeds the frecency ranking used by fastpick_search.",
	}, accessHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "fastpick_status",
		Description: "Show index status: file count, scan progress, languages, memory usage, and uptime.",
	}, statusHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "fastpick_rescan",
		Description: "Force a delta rescan of the base directory: new files are indexed, vanished ones dropped.",
	}, rescanHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "fastpick_git_refresh",
		Description: "Re-enumerate git status for every indexed file. Returns the number of entries that changed.",
	}, gitRefreshHandler.Handle)

	return mcpServer
}
