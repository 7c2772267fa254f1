package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	gitignore "github.com/denormal/go-gitignore"
)

// Matcher decides whether a path is excluded from indexing. It combines the
// hidden-file policy, the .gitignore chain (nested .gitignore files,
// .git/info/exclude, the global excludes file), default patterns, and custom
// CLI patterns.
// Thread-safe: Reload() takes the write lock, the Should* methods take the
// read lock.
type Matcher struct {
	mu             sync.RWMutex
	rootDir        string
	includeHidden  bool
	followSymlinks bool
	customPatterns []string

	repoIgnore    gitignore.GitIgnore // nested .gitignore chain under rootDir
	excludeIgnore gitignore.GitIgnore // <gitdir>/info/exclude
	globalIgnore  gitignore.GitIgnore // core.excludesFile default location
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir        string
	CustomPatterns []string
	IncludeHidden  bool // index dotfiles and dotdirs (off by default)
	FollowSymlinks bool // traverse symlinked directories (off by default)
}

// NewMatcher creates a matcher rooted at options.RootDir.
func NewMatcher(options MatcherOptions) *Matcher {
	m := &Matcher{
		rootDir:        options.RootDir,
		includeHidden:  options.IncludeHidden,
		followSymlinks: options.FollowSymlinks,
		customPatterns: options.CustomPatterns,
	}
	m.loadIgnoreFiles()
	return m
}

// FollowSymlinks reports whether symlinked directories should be traversed.
func (m *Matcher) FollowSymlinks() bool {
	return m.followSymlinks
}

// RootDir returns the directory the matcher is rooted at.
func (m *Matcher) RootDir() string {
	return m.rootDir
}

// ShouldIgnore returns true if the given absolute path is excluded from
// indexing.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil || strings.HasPrefix(relativePath, "..") {
		return true
	}
	relativePath = filepath.ToSlash(relativePath)
	if relativePath == "." {
		return false
	}

	if !m.includeHidden && hasHiddenComponent(relativePath) {
		return true
	}
	if matchesDefaultPatterns(relativePath) {
		return true
	}

	// gitignore matchers need to know whether the path is a directory; the
	// path may already be gone (watcher remove events), so stat best-effort.
	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}

	for _, gi := range []gitignore.GitIgnore{m.repoIgnore, m.excludeIgnore, m.globalIgnore} {
		if gi == nil {
			continue
		}
		if match := gi.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesCustomPatterns(relativePath)
}

// ShouldIgnoreDir returns true if a directory should be skipped entirely
// during traversal.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	name := filepath.Base(absolutePath)

	// always skipped, no lock needed
	switch name {
	case ".git", ".svn", ".hg", "node_modules", "__pycache__":
		return true
	}

	return m.ShouldIgnore(absolutePath)
}

// Reload re-reads every ignore source from disk. Called when the watcher
// detects a change to an ignore definition file.
func (m *Matcher) Reload() {
	m.loadIgnoreFiles()
}

func (m *Matcher) loadIgnoreFiles() {
	repo, err := gitignore.NewRepository(m.rootDir)
	if err != nil {
		repo = nil
	}

	var exclude gitignore.GitIgnore
	if gitDir := findGitDir(m.rootDir); gitDir != "" {
		exclude = loadIgnoreFile(filepath.Join(gitDir, "info", "exclude"), m.rootDir)
	}

	global := loadIgnoreFile(globalExcludesPath(), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.repoIgnore = repo
	m.excludeIgnore = exclude
	m.globalIgnore = global
}

func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	for _, pattern := range m.customPatterns {
		if matched, err := filepath.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(pattern, filepath.Base(relativePath)); err == nil && matched {
			return true
		}
	}
	return false
}

// hasHiddenComponent reports whether any path segment is dot-prefixed.
func hasHiddenComponent(relativePath string) bool {
	for _, part := range strings.Split(relativePath, "/") {
		if len(part) > 1 && part[0] == '.' {
			return true
		}
	}
	return false
}

// findGitDir walks upward from dir looking for a .git directory.
func findGitDir(dir string) string {
	for {
		candidate := filepath.Join(dir, ".git")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// globalExcludesPath returns the default location of the global git excludes
// file (core.excludesFile is not consulted; the XDG default covers the
// overwhelmingly common setup).
func globalExcludesPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "git", "ignore")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "git", "ignore")
}

// loadIgnoreFile reads an ignore file into a matcher, returning nil when the
// file does not exist.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	if filePath == "" {
		return nil
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
