package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexandro/fastpick-mcp/ignore"
	"github.com/lexandro/fastpick-mcp/index"
	"github.com/lexandro/fastpick-mcp/watcher"
)

// rescanPathThreshold: a debounced batch touching more paths than this is
// cheaper to handle as a full delta rescan than per-path.
const rescanPathThreshold = 50

// ScoreSource seeds and refreshes frecency scores for indexed entries.
type ScoreSource interface {
	ScoresFor(absolutePath string, modTime int64, status index.GitStatus) (access, modification, total int64)
}

// GitSource is the scanner's view of the git monitor.
type GitSource interface {
	// ReadStatuses enumerates the worktree without touching the index;
	// (nil, nil) means "not a repository".
	ReadStatuses(ctx context.Context) (map[string]index.GitStatus, error)
	// Notify requests a background status refresh.
	Notify()
}

// Config wires a Scanner to its collaborators.
type Config struct {
	Index    *index.Index
	Ignore   *ignore.Matcher
	Frecency ScoreSource // may be nil
	Git      GitSource   // may be nil
	GitDir   string      // git bookkeeping dir for the watcher, "" when none
	Logger   *slog.Logger
	Workers  int // walk parallelism, default 4
}

// Progress is the transient scan state exposed to callers. ScannedFiles
// counts indexed regular files only; ignored entries never increment it.
type Progress struct {
	ScannedFiles int64  `json:"scanned_files_count"`
	IsScanning   bool   `json:"is_scanning"`
	SkippedDirs  int64  `json:"skipped_dirs,omitempty"`
	Err          string `json:"error,omitempty"`
}

// Scanner populates the Index from the filesystem and keeps it consistent:
// one initial scan, then debounced watcher events, with delta rescans as the
// recovery path. All index mutations funnel through here or through the git
// monitor's serialized apply, never both at once for the same concern.
type Scanner struct {
	idx     *index.Index
	ign     *ignore.Matcher
	frec    ScoreSource
	git     GitSource
	gitDir  string
	logger  *slog.Logger
	workers int

	scanning     atomic.Bool
	scannedCount atomic.Int64
	skippedDirs  atomic.Int64
	errMsg       atomic.Value // string

	gen        atomic.Uint64
	ctx        context.Context
	cancel     context.CancelFunc
	scanCancel atomic.Value // context.CancelFunc for the in-flight scan

	fsWatcher   *watcher.Watcher
	initialDone chan struct{}
	initialOnce sync.Once
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// New creates a scanner. Call Start to begin the initial scan.
func New(cfg Config) *Scanner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	s := &Scanner{
		idx:         cfg.Index,
		ign:         cfg.Ignore,
		frec:        cfg.Frecency,
		git:         cfg.Git,
		gitDir:      cfg.GitDir,
		logger:      logger,
		workers:     workers,
		initialDone: make(chan struct{}),
	}
	s.errMsg.Store("")
	return s
}

// Start attaches the filesystem watcher and launches the initial scan in the
// background. A watcher that cannot attach is fatal: without it the index
// would silently go stale.
func (s *Scanner) Start() error {
	basePath := s.idx.BasePath()
	if _, err := os.Stat(basePath); err != nil {
		return fmt.Errorf("base path unavailable: %w", err)
	}

	fsWatcher, err := watcher.NewWatcher(basePath, s.gitDir, s.ign, s.logger)
	if err != nil {
		return fmt.Errorf("attaching watcher: %w", err)
	}
	s.fsWatcher = fsWatcher

	s.ctx, s.cancel = context.WithCancel(context.Background())

	go fsWatcher.Start()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.runScan()
		s.initialOnce.Do(func() { close(s.initialDone) })
	}()
	go s.eventLoop()

	return nil
}

// Rescan triggers a delta scan in the background. A scan already in flight
// absorbs the request.
func (s *Scanner) Rescan() {
	if s.scanning.Load() {
		s.logger.Debug("scan already in progress, skipping rescan trigger")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runScan()
	}()
}

// CancelScan requests cooperative cancellation of the in-flight scan.
// Returns true when a scan was running.
func (s *Scanner) CancelScan() bool {
	if cancel, ok := s.scanCancel.Load().(context.CancelFunc); ok && cancel != nil {
		cancel()
		return s.scanning.Load()
	}
	return false
}

// Progress returns the current scan counters.
func (s *Scanner) Progress() Progress {
	errMsg, _ := s.errMsg.Load().(string)
	return Progress{
		ScannedFiles: s.scannedCount.Load(),
		IsScanning:   s.scanning.Load(),
		SkippedDirs:  s.skippedDirs.Load(),
		Err:          errMsg,
	}
}

// IsScanning reports whether a scan is in flight.
func (s *Scanner) IsScanning() bool {
	return s.scanning.Load()
}

// WaitForInitialScan blocks until the initial scan finishes or the timeout
// elapses. Returns true when the scan completed. The scan itself is never
// aborted by the timeout.
func (s *Scanner) WaitForInitialScan(timeout time.Duration) bool {
	select {
	case <-s.initialDone:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Stop drains the watcher and waits for background work to settle.
// Idempotent.
func (s *Scanner) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.fsWatcher != nil {
			s.fsWatcher.Close()
		}
		s.wg.Wait()
	})
}

// runScan performs one full pass: parallel walk marking the current
// generation, sweep of vanished entries, git decoration, rescore. The walk
// and the initial git enumeration run concurrently and join before entries
// are decorated, because git status does its own tree traversal.
func (s *Scanner) runScan() {
	if !s.scanning.CompareAndSwap(false, true) {
		return
	}
	defer s.scanning.Store(false)

	s.scannedCount.Store(0)
	s.errMsg.Store("")

	gen := s.gen.Add(1)
	ctx, cancel := context.WithCancel(s.ctx)
	s.scanCancel.Store(cancel)
	defer cancel()

	var statuses map[string]index.GitStatus
	var gitErr error
	gitDone := make(chan struct{})
	go func() {
		defer close(gitDone)
		if s.git != nil {
			statuses, gitErr = s.git.ReadStatuses(ctx)
		}
	}()

	start := time.Now()
	walkErr := s.walk(ctx, gen)
	<-gitDone

	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) {
			s.logger.Info("scan cancelled", "scanned", s.scannedCount.Load())
		} else {
			s.logger.Error("scan failed", "error", walkErr)
			s.errMsg.Store(walkErr.Error())
		}
		return // an incomplete walk must not sweep surviving entries
	}

	removed := s.idx.Sweep(gen)

	if s.git != nil && gitErr == nil {
		s.idx.ApplyGitStatuses(statuses)
	}
	if s.frec != nil {
		s.idx.Rescore(s.frec.ScoresFor)
	}

	s.logger.Info("scan complete",
		"files", s.scannedCount.Load(),
		"removed", removed,
		"skippedDirs", s.skippedDirs.Load(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// walk traverses the base path with a bounded worker pool. Directories are
// the unit of work: each worker drains one directory and hands subdirectories
// to idle workers, processing them inline when the pool is saturated.
func (s *Scanner) walk(ctx context.Context, gen uint64) error {
	basePath := s.idx.BasePath()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	if err := s.walkDir(ctx, g, basePath, gen, true); err != nil {
		g.Wait()
		return err
	}
	return g.Wait()
}

func (s *Scanner) walkDir(ctx context.Context, g *errgroup.Group, dir string, gen uint64, isRoot bool) error {
	// cancellation is observed at directory boundaries
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if isRoot {
			return fmt.Errorf("reading base path: %w", err)
		}
		s.skippedDirs.Add(1)
		s.logger.Warn("skipping unreadable directory", "dir", dir, "error", err)
		return nil
	}

	for _, dirEntry := range dirEntries {
		path := filepath.Join(dir, dirEntry.Name())
		entryType := dirEntry.Type()

		if entryType&fs.ModeSymlink != 0 {
			if !s.ign.FollowSymlinks() {
				continue
			}
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.IsDir() {
				s.enqueueDir(ctx, g, path, gen)
				continue
			}
			entryType = info.Mode().Type()
		}

		if entryType.IsDir() {
			if s.ign.ShouldIgnoreDir(path) {
				continue
			}
			s.enqueueDir(ctx, g, path, gen)
			continue
		}

		if !entryType.IsRegular() {
			continue
		}
		if s.ign.ShouldIgnore(path) {
			continue
		}

		info, err := dirEntry.Info()
		if err != nil {
			continue
		}
		s.indexFile(path, info, gen)
	}
	return nil
}

func (s *Scanner) enqueueDir(ctx context.Context, g *errgroup.Group, dir string, gen uint64) {
	spawned := g.TryGo(func() error {
		return s.walkDir(ctx, g, dir, gen, false)
	})
	if !spawned {
		// pool saturated: process in the current worker
		if err := s.walkDir(ctx, g, dir, gen, false); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("walk error", "dir", dir, "error", err)
		}
	}
}

// indexFile inserts a newly discovered file or marks an existing one as seen
// by the current generation, refreshing its stat fields.
func (s *Scanner) indexFile(path string, info fs.FileInfo, gen uint64) {
	modTime := info.ModTime().Unix()
	accessTime := atimeOf(info)

	if s.idx.MarkSeen(path, gen) {
		s.idx.Touch(path, info.Size(), modTime, accessTime)
		s.scannedCount.Add(1)
		return
	}

	relPath, err := filepath.Rel(s.idx.BasePath(), path)
	if err != nil {
		return
	}
	entry := index.NewFileEntry(path, filepath.ToSlash(relPath), info.Size(), modTime, accessTime)
	if s.frec != nil {
		entry.AccessFrecencyScore, entry.ModificationFrecencyScore, entry.TotalFrecencyScore =
			s.frec.ScoresFor(path, modTime, entry.GitStatus)
	}

	if _, err := s.idx.Insert(entry); err != nil {
		// lost a race with the event loop for the same path; mark it instead
		s.idx.MarkSeen(path, gen)
		s.idx.Touch(path, info.Size(), modTime, accessTime)
	} else {
		s.idx.MarkSeen(path, gen)
	}
	s.scannedCount.Add(1)
}

// eventLoop applies debounced watcher batches to the index.
func (s *Scanner) eventLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case batch, ok := <-s.fsWatcher.Events():
			if !ok {
				return
			}
			s.applyBatch(batch)
		}
	}
}

func (s *Scanner) applyBatch(batch []watcher.DebouncedEvent) {
	gitStateChanged := false
	touched := 0

	for _, event := range batch {
		switch event.Op {
		case watcher.OpIgnoreFile:
			// the walk policy itself changed; everything needs re-evaluation
			s.logger.Info("ignore definition changed, rescanning", "path", event.Path)
			s.ign.Reload()
			s.Rescan()
			return
		case watcher.OpGitState:
			gitStateChanged = true
		}
	}

	affected := 0
	for _, event := range batch {
		switch event.Op {
		case watcher.OpGitState, watcher.OpIgnoreFile:
			continue
		}

		affected++
		if affected > rescanPathThreshold {
			s.logger.Info("event burst exceeds threshold, rescanning", "paths", len(batch))
			s.Rescan()
			return
		}

		if s.applyEvent(event) {
			touched++
		}
	}

	if s.git != nil && (gitStateChanged || touched > 0) {
		s.git.Notify()
	}
}

// applyEvent translates one debounced event into index mutations. The final
// filesystem state wins: the event op is only a hint, a stat decides.
func (s *Scanner) applyEvent(event watcher.DebouncedEvent) bool {
	path := event.Path

	info, err := os.Stat(path)
	if err != nil {
		// gone: remove the file, or the whole subtree if it was a directory
		if s.idx.Remove(path) {
			return true
		}
		return s.idx.RemoveDir(path) > 0
	}

	if info.IsDir() {
		// a directory appeared wholesale (rename in, unpacked archive);
		// its files produced no individual events, so rescan
		s.Rescan()
		return false
	}
	if !info.Mode().IsRegular() || s.ign.ShouldIgnore(path) {
		return false
	}

	modTime := info.ModTime().Unix()
	accessTime := atimeOf(info)
	if s.idx.Touch(path, info.Size(), modTime, accessTime) {
		if s.frec != nil {
			s.idx.RescorePath(path, s.frec.ScoresFor)
		}
		return true
	}

	relPath, err := filepath.Rel(s.idx.BasePath(), path)
	if err != nil {
		return false
	}
	entry := index.NewFileEntry(path, filepath.ToSlash(relPath), info.Size(), modTime, accessTime)
	if s.frec != nil {
		entry.AccessFrecencyScore, entry.ModificationFrecencyScore, entry.TotalFrecencyScore =
			s.frec.ScoresFor(path, modTime, entry.GitStatus)
	}
	if _, err := s.idx.Insert(entry); err != nil {
		s.logger.Debug("insert raced with scan", "path", path)
		return false
	}
	// stamp the current generation so an in-flight sweep keeps the entry
	s.idx.MarkSeen(path, s.gen.Load())
	return true
}
