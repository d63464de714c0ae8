package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// DB provides SQLite-based storage for link records across crawl sessions.
// Each run gets a fresh session ID so the same database file can hold the
// history of many crawls without runs clobbering each other.
type DB struct {
	db        *sql.DB
	dbPath    string
	sessionID string
}

// dbFileName is the database file created under the chosen directory.
const dbFileName = "linkextractor.db"

// OpenDB opens or creates the session database under dbDir and starts a
// new session row for this run.
func OpenDB(ctx context.Context, dbDir, seed string) (*DB, error) {
	if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFileName)
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close() //nolint:errcheck // open failed, close is best effort
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	d := &DB{
		db:        db,
		dbPath:    dbPath,
		sessionID: uuid.NewString(),
	}
	if err := d.createTables(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // open failed, close is best effort
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := d.insertSession(ctx, seed); err != nil {
		_ = db.Close() //nolint:errcheck // open failed, close is best effort
		return nil, err
	}
	return d, nil
}

// SessionID returns this run's session identifier.
func (d *DB) SessionID() string {
	return d.sessionID
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) createTables(ctx context.Context) error {
	schema := `
	-- One row per crawl run.
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		seed_url TEXT NOT NULL,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- One row per distinct link found in a session.
	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		url TEXT NOT NULL,
		source_url TEXT,
		content_hash TEXT,
		found_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(session_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_links_session ON links(session_id);
	CREATE INDEX IF NOT EXISTS idx_links_url ON links(url);
	`
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

func (d *DB) insertSession(ctx context.Context, seed string) error {
	_, err := d.db.ExecContext(ctx,
		"INSERT INTO sessions (id, seed_url) VALUES (?, ?)",
		d.sessionID, seed,
	)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// InsertLink stores one link record for the current session. Duplicate
// links within a session are ignored.
func (d *DB) InsertLink(ctx context.Context, rec Record) error {
	query := `
	INSERT INTO links (session_id, url, source_url, content_hash)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(session_id, url) DO NOTHING
	`
	if _, err := d.db.ExecContext(ctx, query,
		d.sessionID, rec.URL, rec.Source, rec.ContentHash,
	); err != nil {
		return fmt.Errorf("failed to insert link: %w", err)
	}
	return nil
}

// LinkCount returns how many links the current session has stored.
func (d *DB) LinkCount(ctx context.Context) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM links WHERE session_id = ?", d.sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return n, nil
}

// Links returns the current session's links in insertion order.
func (d *DB) Links(ctx context.Context) ([]Record, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT url, source_url, content_hash FROM links WHERE session_id = ? ORDER BY id",
		d.sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	var recs []Record
	for rows.Next() {
		var rec Record
		var source, hash sql.NullString
		if err := rows.Scan(&rec.URL, &source, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		rec.Source = source.String
		rec.ContentHash = hash.String
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
