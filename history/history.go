// Package history keeps a local journal of committed batches. Each
// successful save writes one row, so the user can see what went to the
// spreadsheet and when, even after the session's ledger is cleared.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"
)

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Commit history table
-- One row per successful save to the spreadsheet store
CREATE TABLE IF NOT EXISTS commit_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    spreadsheet_id TEXT NOT NULL,
    item_count INTEGER NOT NULL,
    total_amount TEXT NOT NULL,        -- decimal string, no float rounding
    committed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_commit_history_sheet
    ON commit_history(spreadsheet_id);
`

// Commit is one committed batch.
type Commit struct {
	ID            int64
	SpreadsheetID string
	ItemCount     int
	TotalAmount   decimal.Decimal
	CommittedAt   time.Time
}

// Journal records committed batches in SQLite.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at dbPath.
func Open(dbPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL", dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	j := &Journal{db: db}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return j, nil
}

// NewJournal wraps an existing database handle. Used by tests to inject a
// mock; the schema is assumed present.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Record writes one commit row.
func (j *Journal) Record(spreadsheetID string, itemCount int, totalAmount decimal.Decimal) error {
	_, err := j.db.Exec(
		`INSERT INTO commit_history (spreadsheet_id, item_count, total_amount) VALUES (?, ?, ?)`,
		spreadsheetID, itemCount, totalAmount.String(),
	)
	if err != nil {
		return fmt.Errorf("recording commit: %w", err)
	}
	return nil
}

// Recent returns up to limit commits, newest first.
func (j *Journal) Recent(limit int) ([]Commit, error) {
	rows, err := j.db.Query(
		`SELECT id, spreadsheet_id, item_count, total_amount, committed_at
		 FROM commit_history ORDER BY committed_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying commits: %w", err)
	}
	defer rows.Close()

	var commits []Commit
	for rows.Next() {
		var (
			c      Commit
			amount string
		)
		if err := rows.Scan(&c.ID, &c.SpreadsheetID, &c.ItemCount, &amount, &c.CommittedAt); err != nil {
			return nil, fmt.Errorf("scanning commit: %w", err)
		}
		c.TotalAmount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parsing stored amount %q: %w", amount, err)
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}
