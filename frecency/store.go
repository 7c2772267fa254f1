package frecency

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// schemaVersion is stored in PRAGMA user_version. A database written by
	// a newer build starts from empty rather than guessing at the format.
	schemaVersion = 1

	// maxEvents bounds the per-record access history; overflow evicts oldest.
	maxEvents = 32

	// flushDelay is the quiet period before buffered writes hit disk.
	flushDelay = 2 * time.Second

	// pruneTTL is how long a record survives after its path left the index.
	pruneTTL = 90 * 24 * time.Hour
)

type record struct {
	events   []int64 // access timestamps, oldest first, monotonic
	lastSeen int64
}

// Store persists per-file access history and derives frecency boosts. All
// reads are served from memory; writes are buffered and flushed on a
// debounced schedule, so losing the last couple of seconds on a hard crash
// is acceptable by design.
type Store struct {
	mu      sync.Mutex
	db      *sql.DB
	records map[string]*record
	dirty   map[string]struct{}
	timer   *time.Timer
	closed  bool

	dropped atomic.Int64
	logger  *slog.Logger
	now     func() time.Time
}

// Open loads the store from the database directory at dbPath. With create set
// the directory is created when missing; otherwise a missing directory is an
// error. An unwritable path fails loudly.
func Open(dbPath string, create bool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if create {
		if err := os.MkdirAll(dbPath, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("db directory missing: %w", err)
	}

	dbFile := filepath.Join(dbPath, "frecency.db")
	db, err := sql.Open("sqlite3", dbFile+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening frecency db: %w", err)
	}

	s := &Store{
		db:      db,
		records: make(map[string]*record),
		dirty:   make(map[string]struct{}),
		logger:  logger,
		now:     time.Now,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.loadAll(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if version > schemaVersion {
		s.logger.Warn("frecency db written by a newer version, starting from empty",
			"found", version, "supported", schemaVersion)
		if _, err := s.db.Exec("DROP TABLE IF EXISTS records"); err != nil {
			return fmt.Errorf("resetting frecency db: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS records (
		path TEXT PRIMARY KEY,
		events BLOB NOT NULL,
		last_seen INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("creating frecency schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("writing schema version: %w", err)
	}
	return nil
}

func (s *Store) loadAll() error {
	rows, err := s.db.Query("SELECT path, events, last_seen FROM records")
	if err != nil {
		return fmt.Errorf("loading frecency records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		var blob []byte
		var lastSeen int64
		if err := rows.Scan(&path, &blob, &lastSeen); err != nil {
			return fmt.Errorf("scanning frecency record: %w", err)
		}
		s.records[path] = &record{events: decodeEvents(blob), lastSeen: lastSeen}
	}
	return rows.Err()
}

// RecordAccess appends an access event for the path. It never fails: when the
// store is closed the event is dropped and counted.
func (s *Store) RecordAccess(absolutePath string) {
	now := s.now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.dropped.Add(1)
		return
	}

	rec, ok := s.records[absolutePath]
	if !ok {
		rec = &record{}
		s.records[absolutePath] = rec
	}

	// keep the sequence monotonic even if the wall clock stepped back
	if n := len(rec.events); n > 0 && now < rec.events[n-1] {
		now = rec.events[n-1]
	}
	rec.events = append(rec.events, now)
	if len(rec.events) > maxEvents {
		rec.events = rec.events[len(rec.events)-maxEvents:]
	}
	rec.lastSeen = now

	s.dirty[absolutePath] = struct{}{}
	s.scheduleFlushLocked()
}

func (s *Store) scheduleFlushLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(flushDelay, func() {
		if err := s.Flush(); err != nil {
			s.logger.Warn("frecency flush failed, retrying on next write", "error", err)
		}
	})
}

// Flush writes all dirty records to disk. Failed records stay dirty and are
// retried on the next flush.
func (s *Store) Flush() error {
	s.mu.Lock()
	if s.closed || len(s.dirty) == 0 {
		s.mu.Unlock()
		return nil
	}
	type pending struct {
		path string
		rec  record
	}
	batch := make([]pending, 0, len(s.dirty))
	for path := range s.dirty {
		if rec, ok := s.records[path]; ok {
			batch = append(batch, pending{path: path, rec: *rec})
		}
	}
	s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting flush transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO records (path, events, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET events = excluded.events, last_seen = excluded.last_seen`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing flush statement: %w", err)
	}
	for _, p := range batch {
		if _, err := stmt.Exec(p.path, encodeEvents(p.rec.events), p.rec.lastSeen); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("writing frecency record: %w", err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing flush: %w", err)
	}

	s.mu.Lock()
	for _, p := range batch {
		delete(s.dirty, p.path)
	}
	s.mu.Unlock()
	return nil
}

// Prune drops records whose path is absent from the index and whose last
// access is older than the TTL. Called after the initial scan settles.
func (s *Store) Prune(isIndexed func(absolutePath string) bool) int {
	cutoff := s.now().Add(-pruneTTL).Unix()

	s.mu.Lock()
	var stale []string
	for path, rec := range s.records {
		if rec.lastSeen < cutoff && !isIndexed(path) {
			stale = append(stale, path)
		}
	}
	for _, path := range stale {
		delete(s.records, path)
		delete(s.dirty, path)
	}
	s.mu.Unlock()

	for _, path := range stale {
		if _, err := s.db.Exec("DELETE FROM records WHERE path = ?", path); err != nil {
			s.logger.Warn("failed to prune frecency record", "path", path, "error", err)
		}
	}
	return len(stale)
}

// DroppedEvents returns the number of access events discarded because the
// store was closed.
func (s *Store) DroppedEvents() int64 {
	return s.dropped.Load()
}

// Close flushes pending writes and releases the database handle.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		s.logger.Warn("final frecency flush failed", "error", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	return s.db.Close()
}

func encodeEvents(events []int64) []byte {
	buf := make([]byte, 8*len(events))
	for i, e := range events {
		binary.BigEndian.PutUint64(buf[i*8:], uint64(e))
	}
	return buf
}

func decodeEvents(blob []byte) []int64 {
	events := make([]int64, 0, len(blob)/8)
	for i := 0; i+8 <= len(blob); i += 8 {
		events = append(events, int64(binary.BigEndian.Uint64(blob[i:])))
	}
	return events
}
