package ignore

import (
	"path/filepath"
	"strings"
)

// defaultIgnorePatterns are always excluded regardless of gitignore content.
// The set is deliberately small: the picker indexes everything a worktree
// shows (including images and archives, which the UI can preview), so only
// dependency and VCS internals, editor swap and backup files, and OS folder
// metadata files, none of which are ever picked, are hard-excluded.
var defaultIgnorePatterns = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"__pycache__",
	"*.swp",
	"*.swo",
	"*~",
	".DS_Store",
	"Thumbs.db",
}

func matchesDefaultPatterns(relativePath string) bool {
	base := filepath.Base(relativePath)

	for _, pattern := range defaultIgnorePatterns {
		if !strings.ContainsAny(pattern, "*?[") {
			if base == pattern {
				return true
			}
			for _, part := range strings.Split(relativePath, "/") {
				if part == pattern {
					return true
				}
			}
			continue
		}

		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
