package tools

import (
	"fmt"
	"strings"

	"github.com/lexandro/fastpick-mcp/index"
	"github.com/lexandro/fastpick-mcp/search"
)

// FormatSearchResult renders a ranked search result as human-readable text:
// one line per item with the score breakdown compacted into a suffix.
func FormatSearchResult(result search.Result) string {
	if len(result.Items) == 0 {
		return fmt.Sprintf("No matches (%d files indexed).", result.TotalFiles)
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%d of %d matched (%d files indexed):\n\n",
		len(result.Items), result.TotalMatched, result.TotalFiles))

	for i, item := range result.Items {
		score := result.Scores[i]
		builder.WriteString(fmt.Sprintf("  %s", item.RelativePath))

		var notes []string
		notes = append(notes, fmt.Sprintf("%s %d", score.MatchType, score.Total))
		if item.GitStatus != index.GitClean && item.GitStatus != index.GitUnknown {
			notes = append(notes, string(item.GitStatus))
		}
		if score.FrecencyBoost > 0 {
			notes = append(notes, fmt.Sprintf("frecency +%d", score.FrecencyBoost))
		}
		if item.IsCurrentFile {
			notes = append(notes, "current")
		}
		builder.WriteString(fmt.Sprintf("  (%s)\n", strings.Join(notes, ", ")))
	}

	return builder.String()
}

// FormatFileResults formats glob listing results as human-readable text.
func FormatFileResults(results []index.FileSearchResult, nameOnly bool) string {
	if len(results) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(results)))

	for _, result := range results {
		if nameOnly {
			builder.WriteString(result.File.RelativePath)
			builder.WriteString("\n")
		} else {
			builder.WriteString(fmt.Sprintf("  %s  (%s, %s)\n",
				result.File.RelativePath,
				result.File.Language,
				formatFileSize(result.File.Size),
			))
		}
	}

	return builder.String()
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
