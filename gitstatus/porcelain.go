package gitstatus

import (
	"path/filepath"
	"strings"

	"github.com/lexandro/fastpick-mcp/index"
)

// parsePorcelainV2 translates `git status --porcelain=v2 -z` output into a
// map of absolute path -> status. Paths in the output are relative to the
// worktree root.
func parsePorcelainV2(output []byte, workdir string) map[string]index.GitStatus {
	statuses := make(map[string]index.GitStatus)

	records := strings.Split(string(output), "\x00")
	for i := 0; i < len(records); i++ {
		record := records[i]
		if record == "" {
			continue
		}

		switch record[0] {
		case '?':
			if path, ok := strings.CutPrefix(record, "? "); ok {
				statuses[filepath.Join(workdir, path)] = index.GitUntracked
			}
		case '!':
			if path, ok := strings.CutPrefix(record, "! "); ok {
				statuses[filepath.Join(workdir, path)] = index.GitIgnored
			}
		case '1':
			fields := strings.SplitN(record, " ", 9)
			if len(fields) < 9 {
				continue
			}
			statuses[filepath.Join(workdir, fields[8])] = classifyXY(fields[1], false)
		case '2':
			// rename/copy entries carry the original path as the next
			// NUL-separated record; consume it
			fields := strings.SplitN(record, " ", 10)
			if i+1 < len(records) {
				i++
			}
			if len(fields) < 10 {
				continue
			}
			statuses[filepath.Join(workdir, fields[9])] = classifyXY(fields[1], true)
		case 'u':
			fields := strings.SplitN(record, " ", 11)
			if len(fields) < 11 {
				continue
			}
			statuses[filepath.Join(workdir, fields[10])] = index.GitModified
		}
	}
	return statuses
}

// classifyXY maps a porcelain XY pair to the status enum. Worktree-side
// state wins over staged state; renames win over staged changes.
func classifyXY(xy string, renamed bool) index.GitStatus {
	if len(xy) != 2 {
		return index.GitUnknown
	}
	staged, worktree := xy[0], xy[1]

	switch worktree {
	case 'M':
		return index.GitModified
	case 'D':
		return index.GitDeleted
	case 'A':
		return index.GitUntracked
	}
	if renamed || staged == 'R' || worktree == 'R' {
		return index.GitRenamed
	}
	switch staged {
	case 'A':
		return index.GitStagedNew
	case 'M':
		return index.GitStagedModified
	case 'D':
		return index.GitStagedDeleted
	}
	return index.GitClean
}
