// Package tracker persists per-command token savings in a local SQLite
// database.
//
// DESIGN: The tracker sits on the hook hot path, so recording is
// fire-and-forget: failures are logged and swallowed, never returned to the
// compress path. A corrupt database file is deleted and recreated on open
// rather than surfaced; stats are an amenity, not a dependency.
package tracker

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/monitoring"
	"github.com/ppgranger/token-saver/internal/tokens"
)

// DBFileName is the database file inside the data directory.
const DBFileName = "savings.db"

// commandMaxLen bounds the stored command text.
const commandMaxLen = 500

// busyTimeout is how long SQLite waits on a locked database before erroring.
// Concurrent hook invocations from parallel tool calls share one file.
const busyTimeout = 10 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS savings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp REAL NOT NULL,
	session_id TEXT NOT NULL,
	command TEXT NOT NULL,
	processor TEXT NOT NULL,
	original_size INTEGER NOT NULL,
	compressed_size INTEGER NOT NULL,
	platform TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	first_seen REAL NOT NULL,
	last_seen REAL NOT NULL,
	total_original INTEGER DEFAULT 0,
	total_compressed INTEGER DEFAULT 0,
	command_count INTEGER DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_savings_session ON savings(session_id);
CREATE INDEX IF NOT EXISTS idx_savings_timestamp ON savings(timestamp);
`

// SessionStats aggregates one session's recorded savings. Sizes are in
// characters; Ratio is the saved percentage rounded to one decimal.
type SessionStats struct {
	Commands   int     `json:"commands"`
	Original   int64   `json:"original"`
	Compressed int64   `json:"compressed"`
	Saved      int64   `json:"saved"`
	Ratio      float64 `json:"ratio"`
}

// LifetimeStats aggregates savings across all recorded sessions.
type LifetimeStats struct {
	Sessions   int     `json:"sessions"`
	Commands   int     `json:"commands"`
	Original   int64   `json:"original"`
	Compressed int64   `json:"compressed"`
	Saved      int64   `json:"saved"`
	Ratio      float64 `json:"ratio"`
}

// ProcessorStats ranks a processor by total characters saved.
type ProcessorStats struct {
	Processor string `json:"processor"`
	Count     int    `json:"count"`
	Saved     int64  `json:"saved"`
}

// Options tunes a Tracker. Zero values fall back to env/config defaults.
type Options struct {
	SessionID     string // "" -> TOKEN_SAVER_SESSION env, else random
	PruneDays     int    // <=0 -> 90
	CharsPerToken int    // <=0 -> 4
}

// Tracker is a SQLite-backed savings store. Safe for concurrent use.
type Tracker struct {
	mu            sync.Mutex
	db            *sql.DB
	path          string
	sessionID     string
	charsPerToken int
	log           *monitoring.Logger
}

// SessionID returns the ambient session identifier: TOKEN_SAVER_SESSION if
// set (hooks inherit it from the host agent), otherwise a short random one.
func SessionID() string {
	if sid := os.Getenv("TOKEN_SAVER_SESSION"); sid != "" {
		return sid
	}
	return uuid.NewString()[:12]
}

// Open opens (or creates) the savings database at path and prunes expired
// rows. A file that cannot be opened or initialized is deleted and recreated
// once before giving up.
func Open(path string, opts Options, log *monitoring.Logger) (*Tracker, error) {
	if log == nil {
		log = monitoring.Nop()
	}
	if opts.SessionID == "" {
		opts.SessionID = SessionID()
	}
	if opts.PruneDays <= 0 {
		opts.PruneDays = 90
	}
	if opts.CharsPerToken <= 0 {
		opts.CharsPerToken = 4
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("tracker: create data dir: %w", err)
	}

	db, err := openDB(path)
	if err == nil {
		_, err = db.Exec(schema)
	}
	if err != nil {
		// Corrupt or otherwise unusable file: start fresh.
		if db != nil {
			db.Close()
		}
		removeDatabase(path)
		db, err = openDB(path)
		if err != nil {
			return nil, fmt.Errorf("tracker: open database: %w", err)
		}
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("tracker: init schema: %w", err)
		}
		log.Warn().Str("path", path).Msg("savings database recreated after open failure")
	}

	t := &Tracker{
		db:            db,
		path:          path,
		sessionID:     opts.SessionID,
		charsPerToken: opts.CharsPerToken,
		log:           log.WithComponent("tracker"),
	}
	t.prune(opts.PruneDays)
	return t, nil
}

// OpenDefault opens the database in the standard data directory with
// thresholds taken from cfg.
func OpenDefault(cfg *config.Config, log *monitoring.Logger) (*Tracker, error) {
	path := filepath.Join(config.DataDir(), DBFileName)
	return Open(path, Options{
		PruneDays:     cfg.DBPruneDays,
		CharsPerToken: cfg.CharsPerToken,
	}, log)
}

func openDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Single connection: the mutex already serializes writers, and one
	// connection keeps WAL checkpointing predictable.
	db.SetMaxOpenConns(1)
	return db, nil
}

func removeDatabase(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}

// Session returns the tracker's session identifier.
func (t *Tracker) Session() string { return t.sessionID }

// RecordSaving stores one compression event and folds it into the session
// row, in a single transaction. Errors are logged, never returned.
func (t *Tracker) RecordSaving(command, processor string, originalSize, compressedSize int, platform string) {
	if len(command) > commandMaxLen {
		command = command[:commandMaxLen]
	}
	now := unixSeconds()

	t.mu.Lock()
	defer t.mu.Unlock()

	tx, err := t.db.Begin()
	if err != nil {
		t.log.Error().Err(err).Msg("record saving: begin failed")
		return
	}
	if _, err := tx.Exec(
		`INSERT INTO savings (timestamp, session_id, command, processor,
		 original_size, compressed_size, platform) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		now, t.sessionID, command, processor, originalSize, compressedSize, platform,
	); err != nil {
		_ = tx.Rollback()
		t.log.Error().Err(err).Msg("record saving: insert failed")
		return
	}
	if _, err := tx.Exec(
		`INSERT INTO sessions (session_id, first_seen, last_seen,
		 total_original, total_compressed, command_count)
		 VALUES (?, ?, ?, ?, ?, 1)
		 ON CONFLICT(session_id) DO UPDATE SET
		 	last_seen = ?,
		 	total_original = total_original + ?,
		 	total_compressed = total_compressed + ?,
		 	command_count = command_count + 1`,
		t.sessionID, now, now, originalSize, compressedSize,
		now, originalSize, compressedSize,
	); err != nil {
		_ = tx.Rollback()
		t.log.Error().Err(err).Msg("record saving: session upsert failed")
		return
	}
	if err := tx.Commit(); err != nil {
		t.log.Error().Err(err).Msg("record saving: commit failed")
	}
}

// SessionStats returns stats for the given session, or the tracker's own
// session when sessionID is empty. A missing session yields zeros.
func (t *Tracker) SessionStats(sessionID string) SessionStats {
	if sessionID == "" {
		sessionID = t.sessionID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var s SessionStats
	err := t.db.QueryRow(
		`SELECT command_count, total_original, total_compressed
		 FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&s.Commands, &s.Original, &s.Compressed)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			t.log.Error().Err(err).Msg("session stats query failed")
		}
		return SessionStats{}
	}
	s.Saved = s.Original - s.Compressed
	s.Ratio = savedRatio(s.Original, s.Saved)
	return s
}

// LifetimeStats returns stats aggregated across all sessions.
func (t *Tracker) LifetimeStats() LifetimeStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var s LifetimeStats
	err := t.db.QueryRow(
		`SELECT COUNT(*),
		 	COALESCE(SUM(total_original), 0),
		 	COALESCE(SUM(total_compressed), 0),
		 	COALESCE(SUM(command_count), 0)
		 FROM sessions`,
	).Scan(&s.Sessions, &s.Original, &s.Compressed, &s.Commands)
	if err != nil {
		t.log.Error().Err(err).Msg("lifetime stats query failed")
		return LifetimeStats{}
	}
	s.Saved = s.Original - s.Compressed
	s.Ratio = savedRatio(s.Original, s.Saved)
	return s
}

// TopProcessors returns up to limit processors ordered by total characters
// saved, best first.
func (t *Tracker) TopProcessors(limit int) []ProcessorStats {
	if limit <= 0 {
		limit = 5
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.db.Query(
		`SELECT processor, COUNT(*), SUM(original_size - compressed_size) AS total_saved
		 FROM savings GROUP BY processor ORDER BY total_saved DESC LIMIT ?`, limit)
	if err != nil {
		t.log.Error().Err(err).Msg("top processors query failed")
		return nil
	}
	defer rows.Close()

	var out []ProcessorStats
	for rows.Next() {
		var p ProcessorStats
		if err := rows.Scan(&p.Processor, &p.Count, &p.Saved); err != nil {
			t.log.Error().Err(err).Msg("top processors scan failed")
			return out
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		t.log.Error().Err(err).Msg("top processors iteration failed")
	}
	return out
}

// prune drops savings and sessions older than the retention window.
func (t *Tracker) prune(days int) {
	cutoff := unixSeconds() - float64(days)*86400

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.db.Exec(`DELETE FROM savings WHERE timestamp < ?`, cutoff); err != nil {
		t.log.Error().Err(err).Msg("prune savings failed")
		return
	}
	if _, err := t.db.Exec(`DELETE FROM sessions WHERE last_seen < ?`, cutoff); err != nil {
		t.log.Error().Err(err).Msg("prune sessions failed")
	}
}

// FormatStatsMessage renders the one-line summary shown at session start:
//
//	[token-saver] Lifetime: 42 cmds, 1.2k tokens saved (61.0%) | Session: ...
func (t *Tracker) FormatStatsMessage() string {
	lifetime := t.LifetimeStats()
	session := t.SessionStats("")

	est := tokens.NewEstimator(t.charsPerToken)
	parts := []string{"[token-saver]"}

	if lifetime.Commands > 0 {
		parts = append(parts, fmt.Sprintf("Lifetime: %d cmds, %s saved (%.1f%%)",
			lifetime.Commands, tokens.Format(est.FromChars(int(lifetime.Saved))), lifetime.Ratio))
	}
	if session.Commands > 0 {
		parts = append(parts, fmt.Sprintf("Session: %d cmds, %s saved (%.1f%%)",
			session.Commands, tokens.Format(est.FromChars(int(session.Saved))), session.Ratio))
	}
	if lifetime.Commands == 0 {
		parts = append(parts, "Ready. No compressions recorded yet.")
	}

	return strings.Join(parts, " | ")
}

// Close releases the database handle.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.db.Close()
}

func savedRatio(original, saved int64) float64 {
	if original <= 0 {
		return 0
	}
	return math.Round(float64(saved)/float64(original)*1000) / 10
}

func unixSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
