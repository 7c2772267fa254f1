package gitstatus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lexandro/fastpick-mcp/index"
)

// ErrGitUnavailable marks a refresh that could not enumerate status: git is
// missing, or the repository is in a transient state (rebase lockfile).
// Prior statuses stay in place and the monitor retries on its next tick.
var ErrGitUnavailable = errors.New("git unavailable")

const (
	pollInterval = 5 * time.Second

	// refresh retry budget: small and bounded, backoff doubles each attempt
	retryAttempts = 3
	retryBaseWait = 200 * time.Millisecond
)

// DiscoverWorkdir locates the git worktree root containing basePath.
// Returns "" (and no error) when the path is not inside a repository.
func DiscoverWorkdir(basePath string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = basePath
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", nil // not a repository
		}
		return "", fmt.Errorf("%w: %v", ErrGitUnavailable, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// GitDir returns the bookkeeping directory for a worktree root, or "" when
// workdir is empty.
func GitDir(workdir string) string {
	if workdir == "" {
		return ""
	}
	return filepath.Join(workdir, ".git")
}

// Monitor resolves per-file git status and feeds it into the Index. Refreshes
// run against the monitor's own subprocess output and apply through the
// single index writer path, so they never race incremental scanner updates.
type Monitor struct {
	workdir string
	idx     *index.Index
	rescore index.ScoreFunc
	logger  *slog.Logger

	kick     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// New creates a monitor for the given worktree root. workdir may be empty
// when the base path is not inside a repository; every entry is then clean.
// rescore is applied after each status pass because modification frecency
// depends on the dirty state.
func New(workdir string, idx *index.Index, rescore index.ScoreFunc, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Monitor{
		workdir: workdir,
		idx:     idx,
		rescore: rescore,
		logger:  logger,
		kick:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// Workdir returns the discovered worktree root ("" when none).
func (m *Monitor) Workdir() string {
	return m.workdir
}

// Refresh enumerates git status and applies it to the index in one
// serialized pass. Returns the number of entries whose status changed.
func (m *Monitor) Refresh(ctx context.Context) (int, error) {
	var statuses map[string]index.GitStatus

	if m.workdir != "" {
		var err error
		statuses, err = m.readStatuses(ctx)
		if err != nil {
			return 0, err
		}
	}

	// resolve against a stable path list outside the lock, then apply once
	resolved := make(map[string]index.GitStatus)
	for _, pair := range m.idx.ForGitRefresh() {
		if status, ok := statuses[pair.Path]; ok {
			resolved[pair.Path] = status
		}
	}

	changed := m.idx.ApplyGitStatuses(resolved)
	if m.rescore != nil {
		m.idx.Rescore(m.rescore)
	}
	return changed, nil
}

// ReadStatuses enumerates the worktree without touching the index. The
// scanner uses this to decorate entries while an initial scan is assembling.
func (m *Monitor) ReadStatuses(ctx context.Context) (map[string]index.GitStatus, error) {
	if m.workdir == "" {
		return nil, nil
	}
	return m.readStatuses(ctx)
}

func (m *Monitor) readStatuses(ctx context.Context) (map[string]index.GitStatus, error) {
	wait := retryBaseWait
	var lastErr error

	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}

		cmd := exec.CommandContext(ctx, "git", "status",
			"--porcelain=v2", "--untracked-files=all", "--ignored=matching", "-z")
		cmd.Dir = m.workdir
		output, err := cmd.Output()
		if err == nil {
			return parsePorcelainV2(output, m.workdir), nil
		}
		lastErr = err
		m.logger.Debug("git status failed", "attempt", attempt+1, "error", err)
	}

	return nil, fmt.Errorf("%w: %v", ErrGitUnavailable, lastErr)
}

// StartBackgroundMonitor launches the refresh loop: it re-evaluates on
// Notify() kicks from the scanner and on a slow poll as a safety net against
// missed events. Safe to call once; subsequent calls are no-ops.
func (m *Monitor) StartBackgroundMonitor() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run()
}

func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-m.kick:
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		changed, err := m.Refresh(ctx)
		cancel()
		if err != nil {
			// transient: keep prior statuses, retry next tick
			m.logger.Debug("background git refresh failed", "error", err)
			continue
		}
		if changed > 0 {
			m.logger.Debug("git statuses updated", "changed", changed)
		}
	}
}

// Notify requests an out-of-band refresh, coalescing with any pending kick.
func (m *Monitor) Notify() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// StopBackgroundMonitor stops the refresh loop. Returns true if a running
// monitor was stopped. Idempotent.
func (m *Monitor) StopBackgroundMonitor() bool {
	m.mu.Lock()
	wasStarted := m.started
	m.mu.Unlock()

	stopped := false
	m.stopOnce.Do(func() {
		close(m.stop)
		stopped = true
	})
	m.wg.Wait()
	return wasStarted && stopped
}
