package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// IgnoreChecker is used by the watcher to decide which paths to report.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// Watcher provides recursive file system watching with debouncing. Besides
// the base tree it watches the git bookkeeping directory (when present) so
// that commits, stashes, and ref updates surface as OpGitState events.
type Watcher struct {
	fsWatcher     *fsnotify.Watcher
	debouncer     *Debouncer
	ignoreChecker IgnoreChecker
	rootDir       string
	gitDir        string
	logger        *slog.Logger
}

// NewWatcher creates a recursive watcher on rootDir. gitDir may be empty when
// the base path is not inside a git worktree.
func NewWatcher(rootDir, gitDir string, ignoreChecker IgnoreChecker, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher:     fsWatcher,
		debouncer:     NewDebouncer(100 * time.Millisecond),
		ignoreChecker: ignoreChecker,
		rootDir:       rootDir,
		gitDir:        gitDir,
		logger:        logger,
	}

	err = filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != rootDir && ignoreChecker.ShouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if watchErr := fsWatcher.Add(path); watchErr != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", watchErr)
		}
		return nil
	})
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	// fsnotify is not recursive; the git dir itself plus refs/ covers index,
	// HEAD, packed-refs, and branch tip updates.
	if gitDir != "" {
		for _, p := range []string{gitDir, filepath.Join(gitDir, "refs"), filepath.Join(gitDir, "refs", "heads")} {
			if watchErr := fsWatcher.Add(p); watchErr != nil {
				w.logger.Debug("failed to watch git dir", "path", p, "error", watchErr)
			}
		}
	}

	return w, nil
}

// Events returns the channel that receives debounced event batches.
func (w *Watcher) Events() <-chan []DebouncedEvent {
	return w.debouncer.Output()
}

// Start begins listening for file system events. Call this in a goroutine.
// It runs until the watcher is closed.
func (w *Watcher) Start() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if w.gitDir != "" && strings.HasPrefix(path, w.gitDir+string(filepath.Separator)) {
		if affectsGitState(path, w.gitDir) {
			w.debouncer.Add(path, OpGitState)
		}
		return
	}

	if isIgnoreDefinition(path) {
		w.debouncer.Add(path, OpIgnoreFile)
		return
	}

	// A new directory starts being watched and is reported as a create, so
	// the scanner can pick up files that were already inside it (a directory
	// renamed in, an unpacked archive); those produce no events of their own.
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if w.ignoreChecker.ShouldIgnoreDir(path) {
				return
			}
			if err := w.fsWatcher.Add(path); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			w.debouncer.Add(path, OpCreate)
			return
		}
	}

	if w.ignoreChecker.ShouldIgnore(path) {
		return
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpWrite
	case event.Has(fsnotify.Remove):
		op = OpRemove
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(path, op)
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

// affectsGitState reports whether a change under the git dir can shift
// per-file statuses. Object and log churn is filtered out: every commit
// writes objects, but only ref/index movement changes what status shows.
func affectsGitState(changed, gitDir string) bool {
	rel, err := filepath.Rel(gitDir, changed)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	switch {
	case strings.HasPrefix(rel, "objects/"), strings.HasPrefix(rel, "logs/"), strings.HasPrefix(rel, "hooks/"):
		return false
	case rel == "index", rel == "index.lock", rel == "HEAD", rel == "packed-refs":
		return true
	case strings.HasPrefix(rel, "refs/"):
		return true
	case rel == "info/exclude", rel == "info/sparse-checkout":
		return true
	}

	switch filepath.Base(rel) {
	case "MERGE_HEAD", "CHERRY_PICK_HEAD", "REVERT_HEAD":
		return true
	}
	return false
}

// isIgnoreDefinition reports whether the path is an ignore definition file
// whose edit invalidates the current walk policy.
func isIgnoreDefinition(path string) bool {
	switch filepath.Base(path) {
	case ".gitignore", ".ignore":
		return true
	}
	return false
}
