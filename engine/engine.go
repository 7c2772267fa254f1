// Package engine is the process-wide coordinator: it owns the index, the
// scanner, the git monitor, and the frecency store, and exposes the flat
// synchronous API the host embeds. One picker is active at a time; it lives
// in a slot guarded by a single lock, the way the original design notes
// require instead of scattered globals.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lexandro/fastpick-mcp/frecency"
	"github.com/lexandro/fastpick-mcp/gitstatus"
	"github.com/lexandro/fastpick-mcp/ignore"
	"github.com/lexandro/fastpick-mcp/index"
	"github.com/lexandro/fastpick-mcp/scanner"
	"github.com/lexandro/fastpick-mcp/search"
)

const defaultWaitTimeout = 5000 * time.Millisecond

// Options tune picker construction. Scoring constants are deliberately not
// here; they are internal calibration.
type Options struct {
	CustomPatterns []string
	IncludeHidden  bool
	FollowSymlinks bool
	Workers        int
	Logger         *slog.Logger
}

// picker bundles the per-base-path components.
type picker struct {
	basePath string
	opts     Options
	idx      *index.Index
	ign      *ignore.Matcher
	scan     *scanner.Scanner
	git      *gitstatus.Monitor
}

var (
	mu     sync.Mutex
	store  *frecency.Store
	active *picker
)

// InitDB opens (or creates) the frecency database. Returns false when a
// database is already open; that is not an error.
func InitDB(dbPath string, create bool, logger *slog.Logger) (bool, error) {
	if dbPath == "" {
		return false, fmt.Errorf("%w: empty db path", ErrInvalidArgument)
	}

	mu.Lock()
	defer mu.Unlock()

	if store != nil {
		return false, nil
	}
	s, err := frecency.Open(dbPath, create, logger)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInit, err)
	}
	store = s
	return true, nil
}

// DestroyDB closes the frecency database and detaches it from the engine.
func DestroyDB() error {
	mu.Lock()
	defer mu.Unlock()

	if store == nil {
		return nil
	}
	err := store.Close()
	store = nil
	return err
}

// InitFilePicker canonicalizes basePath, builds the component stack, and
// starts the initial scan plus the background git monitor. Returns false
// when a picker is already active (call CleanupFilePicker first). Any fatal
// startup error leaves the engine uninitialized.
func InitFilePicker(basePath string, opts Options) (bool, error) {
	if basePath == "" {
		return false, fmt.Errorf("%w: empty base path", ErrInvalidArgument)
	}

	mu.Lock()
	defer mu.Unlock()

	if active != nil {
		return false, nil
	}

	p, err := buildPicker(basePath, opts)
	if err != nil {
		return false, err
	}
	active = p
	return true, nil
}

// buildPicker constructs and starts a picker. Caller holds the lock.
func buildPicker(basePath string, opts Options) (*picker, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving base path: %v", ErrInit, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: base path missing: %v", ErrInit, err)
	}
	info, err := os.Stat(canonical)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: base path is not a directory: %s", ErrInit, canonical)
	}

	workdir, err := gitstatus.DiscoverWorkdir(canonical)
	if err != nil {
		// git being unavailable is not fatal; statuses simply stay clean
		logger.Warn("git discovery failed, continuing without status", "error", err)
		workdir = ""
	}

	idx := index.NewIndex(canonical)
	matcher := ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:        canonical,
		CustomPatterns: opts.CustomPatterns,
		IncludeHidden:  opts.IncludeHidden,
		FollowSymlinks: opts.FollowSymlinks,
	})

	var rescore index.ScoreFunc
	if store != nil {
		rescore = store.ScoresFor
	}
	monitor := gitstatus.New(workdir, idx, rescore, logger)

	var scoreSource scanner.ScoreSource
	if store != nil {
		scoreSource = store
	}
	scan := scanner.New(scanner.Config{
		Index:    idx,
		Ignore:   matcher,
		Frecency: scoreSource,
		Git:      monitor,
		GitDir:   gitstatus.GitDir(workdir),
		Logger:   logger,
		Workers:  opts.Workers,
	})
	if err := scan.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	monitor.StartBackgroundMonitor()

	p := &picker{
		basePath: canonical,
		opts:     opts,
		idx:      idx,
		ign:      matcher,
		scan:     scan,
		git:      monitor,
	}

	// prune frecency records for paths that stayed absent after the scan
	if store != nil {
		frec := store
		go func() {
			if scan.WaitForInitialScan(time.Minute) {
				pruned := frec.Prune(func(path string) bool {
					_, ok := idx.LookupByPath(path)
					return ok
				})
				if pruned > 0 {
					logger.Info("pruned stale frecency records", "count", pruned)
				}
			}
		}()
	}

	return p, nil
}

// CleanupFilePicker tears down the active picker: watcher, scanner, and git
// monitor. Idempotent and safe during shutdown. Returns true when a picker
// was actually torn down.
func CleanupFilePicker() bool {
	mu.Lock()
	p := active
	active = nil
	mu.Unlock()

	if p == nil {
		return false
	}
	p.scan.Stop()
	p.git.StopBackgroundMonitor()
	return true
}

// RestartIndexInPath swaps the engine to a new base path: a clean shutdown
// of the active picker followed by a fresh init, which is the defined
// re-initialization semantics.
func RestartIndexInPath(newBase string) error {
	if newBase == "" {
		return fmt.Errorf("%w: empty base path", ErrInvalidArgument)
	}
	if _, err := os.Stat(newBase); err != nil {
		return fmt.Errorf("%w: path does not exist: %s", ErrInvalidArgument, newBase)
	}

	mu.Lock()
	defer mu.Unlock()

	opts := Options{}
	if active != nil {
		opts = active.opts
		p := active
		active = nil
		p.scan.Stop()
		p.git.StopBackgroundMonitor()
	}

	p, err := buildPicker(newBase, opts)
	if err != nil {
		return err
	}
	active = p
	return nil
}

// current returns the active picker or ErrNotInitialized.
func current() (*picker, error) {
	mu.Lock()
	defer mu.Unlock()
	if active == nil {
		return nil, ErrNotInitialized
	}
	return active, nil
}

// FuzzySearchFiles runs one query against a point-in-time snapshot of the
// index. currentFile optionally names the buffer the host has open; it is
// marked transiently and ranked down by a fixed penalty, so a close competing
// match ranks above it. Without such a competitor it can still rank first.
func FuzzySearchFiles(query string, maxResults, maxThreads int, currentFile string) (search.Result, error) {
	if maxResults < 0 {
		return search.Result{}, fmt.Errorf("%w: negative max results", ErrInvalidArgument)
	}
	if maxThreads < 0 {
		return search.Result{}, fmt.Errorf("%w: negative thread count", ErrInvalidArgument)
	}

	p, err := current()
	if err != nil {
		return search.Result{}, err
	}

	if currentFile != "" {
		if abs, err := filepath.Abs(currentFile); err == nil {
			currentFile = abs
		}
	}
	p.idx.SetCurrentFile(currentFile)

	snap := p.idx.Snapshot()
	return search.Search(snap, query, maxResults, maxThreads), nil
}

// TrackAccess records one access event for the path and refreshes that
// entry's frecency scores in place.
func TrackAccess(absolutePath string) error {
	if absolutePath == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}

	mu.Lock()
	frec := store
	p := active
	mu.Unlock()

	if frec == nil {
		return fmt.Errorf("%w: frecency db not initialized", ErrNotInitialized)
	}

	if abs, err := filepath.Abs(absolutePath); err == nil {
		absolutePath = abs
	}
	frec.RecordAccess(absolutePath)

	if p != nil {
		p.idx.RescorePath(absolutePath, frec.ScoresFor)
	}
	return nil
}

// RefreshGitStatus re-enumerates git status and applies it to the index,
// returning the number of entries whose status changed.
func RefreshGitStatus() (int, error) {
	p, err := current()
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return p.git.Refresh(ctx)
}

// ScanFiles triggers a background delta rescan.
func ScanFiles() error {
	p, err := current()
	if err != nil {
		return err
	}
	p.scan.Rescan()
	return nil
}

// CancelScan requests cooperative cancellation of an in-flight scan.
func CancelScan() (bool, error) {
	p, err := current()
	if err != nil {
		return false, err
	}
	return p.scan.CancelScan(), nil
}

// GetScanProgress returns the scan counters.
func GetScanProgress() (scanner.Progress, error) {
	p, err := current()
	if err != nil {
		return scanner.Progress{}, err
	}
	return p.scan.Progress(), nil
}

// IsScanning reports whether a scan is in flight.
func IsScanning() (bool, error) {
	p, err := current()
	if err != nil {
		return false, err
	}
	return p.scan.IsScanning(), nil
}

// WaitForInitialScan blocks until the initial scan completes or timeoutMs
// elapses (default 5000). The timeout never aborts the scan.
func WaitForInitialScan(timeoutMs int) (bool, error) {
	p, err := current()
	if err != nil {
		return false, err
	}

	timeout := defaultWaitTimeout
	if timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}
	return p.scan.WaitForInitialScan(timeout), nil
}

// StopBackgroundMonitor stops the git polling loop. The watcher keeps
// feeding index updates.
func StopBackgroundMonitor() (bool, error) {
	p, err := current()
	if err != nil {
		return false, err
	}
	return p.git.StopBackgroundMonitor(), nil
}

// CachedFiles returns every indexed entry sorted by relative path.
func CachedFiles() ([]index.FileEntry, error) {
	p, err := current()
	if err != nil {
		return nil, err
	}
	return p.idx.All(), nil
}

// Index exposes the active index for the listing surface.
func Index() (*index.Index, error) {
	p, err := current()
	if err != nil {
		return nil, err
	}
	return p.idx, nil
}

// MatchedPositions returns the matched rune indices of the query inside the
// entry's relative path, computed on demand for UI highlighting.
func MatchedPositions(relativePath, query string) []int {
	return search.MatchedPositions(query, relativePath)
}

// FrecencyDropped reports how many access events were discarded since init.
func FrecencyDropped() int64 {
	mu.Lock()
	defer mu.Unlock()
	if store == nil {
		return 0
	}
	return store.DroppedEvents()
}
