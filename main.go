package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/lexandro/fastpick-mcp/engine"
	"github.com/lexandro/fastpick-mcp/register"
	"github.com/lexandro/fastpick-mcp/server"
	"github.com/lexandro/fastpick-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// excludePatterns is a repeatable CLI flag for custom ignore patterns.
type excludePatterns []string

func (e *excludePatterns) String() string { return strings.Join(*e, ", ") }
func (e *excludePatterns) Set(value string) error {
	*e = append(*e, value)
	return nil
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "register" {
		register.Run("fastpick", os.Args[2:])
		return
	}

	var rootDir string
	var dbPath string
	var workers int
	var includeHidden bool
	var followSymlinks bool
	var logLevel string
	var logFile string
	var excludes excludePatterns

	flag.StringVar(&rootDir, "root", "", "Base directory to index (default: current working directory)")
	flag.StringVar(&dbPath, "db", "", "Frecency database directory (default: ~/.local/share/fastpick)")
	flag.Var(&excludes, "exclude", "Extra ignore pattern (repeatable)")
	flag.IntVar(&workers, "workers", 4, "Scan parallelism")
	flag.BoolVar(&includeHidden, "include-hidden", false, "Index dotfiles and dotdirs")
	flag.BoolVar(&followSymlinks, "follow-symlinks", false, "Traverse symlinked directories")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	flag.Parse()

	if rootDir == "" {
		var err error
		rootDir, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
	}
	rootDir, _ = filepath.Abs(rootDir)

	if dbPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dbPath = filepath.Join(home, ".local", "share", "fastpick")
		}
	}

	// stdout carries the MCP stdio protocol; logs go to a file or stderr
	logger := setupLogger(logLevel, logFile)

	logger.Info("starting fastpick-mcp",
		"root", rootDir,
		"db", dbPath,
		"workers", workers,
	)
	startTime := time.Now()

	if dbPath != "" {
		if _, err := engine.InitDB(dbPath, true, logger); err != nil {
			logger.Warn("frecency db unavailable, ranking without access history", "error", err)
		}
	}

	if _, err := engine.InitFilePicker(rootDir, engine.Options{
		CustomPatterns: excludes,
		IncludeHidden:  includeHidden,
		FollowSymlinks: followSymlinks,
		Workers:        workers,
		Logger:         logger,
	}); err != nil {
		logger.Error("failed to initialize file picker", "error", err)
		os.Exit(1)
	}
	defer shutdown(logger)

	// a shell session killed mid-scan must still flush frecency state
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down on signal", "signal", sig)
		shutdown(logger)
		os.Exit(0)
	}()

	mcpServer := server.Setup(
		&tools.SearchHandler{Logger: logger},
		&tools.FilesHandler{Logger: logger},
		&tools.AccessHandler{Logger: logger},
		&tools.StatusHandler{StartTime: startTime, RootDir: rootDir, Logger: logger},
		&tools.RescanHandler{Logger: logger},
		&tools.GitRefreshHandler{Logger: logger},
	)

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Error("MCP server error", "error", err)
		shutdown(logger)
		os.Exit(1)
	}
}

// shutdown tears the engine down; safe to call more than once.
func shutdown(logger *slog.Logger) {
	engine.CleanupFilePicker()
	if err := engine.DestroyDB(); err != nil {
		logger.Warn("closing frecency db", "error", err)
	}
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
