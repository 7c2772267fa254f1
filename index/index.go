package index

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Index holds every FileEntry for the current base path. It is the single
// source of truth for queries: readers take a point-in-time snapshot, writers
// serialize on the internal mutex. Entries live in a dense slice with a
// path-keyed position map, so insert/remove/lookup are O(1) and a snapshot is
// one bulk copy.
type Index struct {
	mu          sync.RWMutex
	basePath    string
	entries     []FileEntry
	byPath      map[string]int // absolute path -> position in entries
	currentFile string         // absolute path, "" when no hint is set
	nextID      int64
}

// NewIndex creates an empty index rooted at basePath.
func NewIndex(basePath string) *Index {
	return &Index{
		basePath: basePath,
		byPath:   make(map[string]int),
	}
}

// BasePath returns the base path the index is rooted at.
func (ix *Index) BasePath() string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.basePath
}

// Insert adds a new entry and returns its assigned id. Inserting a path that
// is already present is a programmer error and is rejected.
func (ix *Index) Insert(entry FileEntry) (int64, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, exists := ix.byPath[entry.Path]; exists {
		return 0, fmt.Errorf("duplicate insert for %s", entry.Path)
	}

	ix.nextID++
	entry.ID = ix.nextID
	ix.byPath[entry.Path] = len(ix.entries)
	ix.entries = append(ix.entries, entry)
	return entry.ID, nil
}

// Touch updates the stat-derived fields of an existing entry. The modified
// time only moves forward. Returns false if the path is not indexed.
func (ix *Index) Touch(absolutePath string, size, modTime, accessTime int64) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pos, ok := ix.byPath[absolutePath]
	if !ok {
		return false
	}
	entry := &ix.entries[pos]
	entry.Size = size
	if modTime > entry.ModifiedTime {
		entry.ModifiedTime = modTime
	}
	if accessTime > entry.AccessedTime {
		entry.AccessedTime = accessTime
	}
	return true
}

// Remove deletes the entry for the given absolute path. Returns false if the
// path was not indexed. The vacated slot is filled by the last entry.
func (ix *Index) Remove(absolutePath string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.removeLocked(absolutePath)
}

func (ix *Index) removeLocked(absolutePath string) bool {
	pos, ok := ix.byPath[absolutePath]
	if !ok {
		return false
	}

	last := len(ix.entries) - 1
	if pos != last {
		ix.entries[pos] = ix.entries[last]
		ix.byPath[ix.entries[pos].Path] = pos
	}
	ix.entries = ix.entries[:last]
	delete(ix.byPath, absolutePath)
	return true
}

// RemoveDir deletes every entry whose path lives under the given directory.
// Returns the number of entries removed. Used when the watcher reports a
// directory-level remove or rename.
func (ix *Index) RemoveDir(absoluteDir string) int {
	prefix := strings.TrimSuffix(absoluteDir, "/") + "/"

	ix.mu.Lock()
	defer ix.mu.Unlock()

	removed := 0
	for i := len(ix.entries) - 1; i >= 0; i-- {
		if strings.HasPrefix(ix.entries[i].Path, prefix) {
			ix.removeLocked(ix.entries[i].Path)
			removed++
		}
	}
	return removed
}

// LookupByPath returns a copy of the entry for the given absolute path.
func (ix *Index) LookupByPath(absolutePath string) (FileEntry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	pos, ok := ix.byPath[absolutePath]
	if !ok {
		return FileEntry{}, false
	}
	return ix.entries[pos], true
}

// Len returns the number of indexed files.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// SetCurrentFile records the current-file hint for the next snapshot. Passing
// an empty string clears it. Each call replaces the previous hint.
func (ix *Index) SetCurrentFile(absolutePath string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.currentFile = absolutePath
}

// Snapshot is a consistent, immutable view of the index used by one query.
type Snapshot struct {
	BasePath    string
	CurrentFile string // relative path of the current file, "" if none
	Entries     []FileEntry
	TotalFiles  int
}

// Snapshot copies the entry set under the read lock. The copy is what makes
// a query immune to concurrent scanner writes; for the entry sizes involved
// it stays comfortably inside the query latency budget.
func (ix *Index) Snapshot() *Snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	snap := &Snapshot{
		BasePath:   ix.basePath,
		Entries:    make([]FileEntry, len(ix.entries)),
		TotalFiles: len(ix.entries),
	}
	copy(snap.Entries, ix.entries)

	if ix.currentFile != "" {
		if pos, ok := ix.byPath[ix.currentFile]; ok {
			snap.Entries[pos].IsCurrentFile = true
			snap.CurrentFile = snap.Entries[pos].RelativePath
		}
	}
	return snap
}

// All returns copies of every entry sorted by relative path.
func (ix *Index) All() []FileEntry {
	ix.mu.RLock()
	entries := make([]FileEntry, len(ix.entries))
	copy(entries, ix.entries)
	ix.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelativePath < entries[j].RelativePath
	})
	return entries
}

// PathID pairs an entry id with its absolute path for git refresh passes.
type PathID struct {
	ID   int64
	Path string
}

// ForGitRefresh yields the (id, path) pairs of every entry. The git monitor
// resolves statuses against this list without holding the index lock.
func (ix *Index) ForGitRefresh() []PathID {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	pairs := make([]PathID, len(ix.entries))
	for i := range ix.entries {
		pairs[i] = PathID{ID: ix.entries[i].ID, Path: ix.entries[i].Path}
	}
	return pairs
}

// ApplyGitStatuses sets the git status of every entry in one serialized pass:
// entries present in the map take the mapped status, all others become clean.
// Returns the number of entries whose status changed.
func (ix *Index) ApplyGitStatuses(statuses map[string]GitStatus) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	changed := 0
	for i := range ix.entries {
		want, ok := statuses[ix.entries[i].Path]
		if !ok {
			want = GitClean
		}
		if ix.entries[i].GitStatus != want {
			ix.entries[i].GitStatus = want
			changed++
		}
	}
	return changed
}

// ScoreFunc derives the frecency scores for one entry.
type ScoreFunc func(absolutePath string, modTime int64, status GitStatus) (access, modification, total int64)

// Rescore recomputes the frecency scores of every entry under the write lock.
func (ix *Index) Rescore(score ScoreFunc) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for i := range ix.entries {
		e := &ix.entries[i]
		e.AccessFrecencyScore, e.ModificationFrecencyScore, e.TotalFrecencyScore =
			score(e.Path, e.ModifiedTime, e.GitStatus)
	}
}

// RescorePath recomputes the frecency scores of a single entry. Returns false
// if the path is not indexed.
func (ix *Index) RescorePath(absolutePath string, score ScoreFunc) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pos, ok := ix.byPath[absolutePath]
	if !ok {
		return false
	}
	e := &ix.entries[pos]
	e.AccessFrecencyScore, e.ModificationFrecencyScore, e.TotalFrecencyScore =
		score(e.Path, e.ModifiedTime, e.GitStatus)
	return true
}

// MarkSeen stamps the entry with the given scan generation. Returns false if
// the path is not indexed.
func (ix *Index) MarkSeen(absolutePath string, gen uint64) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pos, ok := ix.byPath[absolutePath]
	if !ok {
		return false
	}
	ix.entries[pos].gen = gen
	return true
}

// Sweep removes every entry whose generation differs from gen. A delta rescan
// marks all still-present files and sweeps the leftovers. Returns the number
// of entries removed.
func (ix *Index) Sweep(gen uint64) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	removed := 0
	for i := len(ix.entries) - 1; i >= 0; i-- {
		if ix.entries[i].gen != gen {
			ix.removeLocked(ix.entries[i].Path)
			removed++
		}
	}
	return removed
}

// Clear removes all entries. The base path and id counter are retained.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.entries = nil
	ix.byPath = make(map[string]int)
	ix.currentFile = ""
}

// FileSearchResult holds one file match from a glob search.
type FileSearchResult struct {
	File FileEntry
}

// SearchByGlob returns files matching a doublestar glob pattern, matched
// against relative paths, sorted for stable output.
func (ix *Index) SearchByGlob(pattern string, maxResults int) ([]FileSearchResult, error) {
	if maxResults <= 0 {
		maxResults = 50
	}

	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var matched []FileEntry
	ix.mu.RLock()
	for i := range ix.entries {
		ok, err := doublestar.Match(pattern, ix.entries[i].RelativePath)
		if err == nil && ok {
			matched = append(matched, ix.entries[i])
		}
	}
	ix.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].RelativePath < matched[j].RelativePath
	})
	if len(matched) > maxResults {
		matched = matched[:maxResults]
	}

	results := make([]FileSearchResult, len(matched))
	for i, entry := range matched {
		results[i] = FileSearchResult{File: entry}
	}
	return results, nil
}

// LanguageCounts returns a language -> file count map over the index.
func (ix *Index) LanguageCounts() map[string]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	counts := make(map[string]int)
	for i := range ix.entries {
		counts[ix.entries[i].Language]++
	}
	return counts
}

// TotalSizeBytes returns the combined size of all indexed files.
func (ix *Index) TotalSizeBytes() int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var total int64
	for i := range ix.entries {
		total += ix.entries[i].Size
	}
	return total
}
