// Package democore is a reference ShellCore implementation (spec.md §6):
// in-memory aliases, functions, storage, environment, and directory stack,
// plus a SQLite-backed command history, grounded on davidolrik-overseer's
// internal/db package (schema-and-WAL-mode shape, not its schema itself).
// It exists for the demo CLI and for tests; a real host is free to back
// ShellCore however it likes.
package democore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// History is a SQLite-backed, append-only log of executed lines, indexed
// from the most recent entry backward (spec.md §3, "HistoryAt(index)").
type History struct {
	conn *sql.DB
}

// OpenHistory opens or creates the history database at path, enabling WAL
// mode for concurrent readers the way overseer's internal/db does.
func OpenHistory(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("democore: create history directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("democore: open history database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("democore: enable WAL mode: %w", err)
	}
	h := &History{conn: conn}
	if err := h.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return h, nil
}

func (h *History) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS history_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		line TEXT NOT NULL,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := h.conn.Exec(schema)
	return err
}

// Close closes the underlying database, checkpointing the WAL first.
func (h *History) Close() error {
	h.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return h.conn.Close()
}

// Append records a new history line.
func (h *History) Append(line string) error {
	_, err := h.conn.Exec(`INSERT INTO history_lines (line) VALUES (?)`, line)
	return err
}

// At returns the index-th most recent line (0 = most recent), matching
// spec.md's ExecHistory indexing convention.
func (h *History) At(index int) (string, bool) {
	if index < 0 {
		return "", false
	}
	row := h.conn.QueryRow(
		`SELECT line FROM history_lines ORDER BY id DESC LIMIT 1 OFFSET ?`, index,
	)
	var line string
	if err := row.Scan(&line); err != nil {
		return "", false
	}
	return line, true
}
