package index

import (
	"path/filepath"
	"strings"

	"github.com/lexandro/fastpick-mcp/language"
)

// GitStatus is the per-file git state attached to an index entry.
type GitStatus string

const (
	GitUnknown        GitStatus = "unknown"
	GitClean          GitStatus = "clean"
	GitUntracked      GitStatus = "untracked"
	GitModified       GitStatus = "modified"
	GitDeleted        GitStatus = "deleted"
	GitRenamed        GitStatus = "renamed"
	GitStagedNew      GitStatus = "staged_new"
	GitStagedModified GitStatus = "staged_modified"
	GitStagedDeleted  GitStatus = "staged_deleted"
	GitIgnored        GitStatus = "ignored"
)

// IsDirty reports whether the status indicates uncommitted work in the
// worktree or index. Dirty files receive a modification frecency score.
func (s GitStatus) IsDirty() bool {
	switch s {
	case GitModified, GitStagedModified, GitUntracked, GitStagedNew, GitRenamed:
		return true
	}
	return false
}

// FileEntry is one indexed regular file. Entries are stored by value inside
// the Index; snapshots copy them wholesale, so the struct stays flat.
type FileEntry struct {
	ID           int64  `json:"-"`             // monotonically assigned, stable for the entry's lifetime
	Path         string `json:"path"`          // canonical absolute path
	RelativePath string `json:"relative_path"` // relative to the base path, forward slashes
	Name         string `json:"name"`          // final path segment
	Extension    string `json:"extension"`     // lowercased, without dot, possibly empty
	Directory    string `json:"directory"`     // parent relative path, empty for base-level files
	Language     string `json:"language,omitempty"`
	Size         int64  `json:"size"`
	ModifiedTime int64  `json:"modified_time"` // seconds since epoch
	AccessedTime int64  `json:"accessed_time"` // seconds since epoch

	GitStatus                 GitStatus `json:"git_status"`
	AccessFrecencyScore       int64     `json:"access_frecency_score"`
	ModificationFrecencyScore int64     `json:"modification_frecency_score"`
	TotalFrecencyScore        int64     `json:"total_frecency_score"`

	// IsCurrentFile is transient: it is only set on snapshot copies when a
	// current-file hint was provided for the query.
	IsCurrentFile bool `json:"is_current_file"`

	gen uint64 // scan generation, managed by MarkSeen/Sweep
}

// NewFileEntry composes an entry from a stat result. Git status starts as
// unknown and frecency scores at zero; both are decorated later.
func NewFileEntry(absolutePath, relativePath string, size, modTime, accessTime int64) FileEntry {
	name := filepath.Base(absolutePath)

	ext := ""
	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		ext = strings.ToLower(name[dot+1:])
	}

	dir := ""
	if slash := strings.LastIndexByte(relativePath, '/'); slash >= 0 {
		dir = relativePath[:slash]
	}

	return FileEntry{
		Path:         absolutePath,
		RelativePath: relativePath,
		Name:         name,
		Extension:    ext,
		Directory:    dir,
		Language:     language.DetectFromPath(name),
		Size:         size,
		ModifiedTime: modTime,
		AccessedTime: accessTime,
		GitStatus:    GitUnknown,
	}
}
