package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// WorkLogDBName is the SQLite work-log database inside the data directory.
const WorkLogDBName = "worklog.db"

const workLogSchema = `
CREATE TABLE IF NOT EXISTS work_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	date          TEXT NOT NULL,
	block         INTEGER,
	task_id       INTEGER,
	actual_bucket TEXT NOT NULL,
	actual_title  TEXT NOT NULL,
	notes         TEXT,
	logged_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_work_log_date ON work_log(date);
`

// SQLiteWorkLog stores work-log entries in a SQLite table.
type SQLiteWorkLog struct {
	db *sql.DB
}

// OpenSQLiteWorkLog opens (creating if needed) basePath/worklog.db.
func OpenSQLiteWorkLog(basePath string) (*SQLiteWorkLog, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(basePath, WorkLogDBName))
	if err != nil {
		return nil, fmt.Errorf("failed to open work log database: %w", err)
	}
	return NewSQLiteWorkLog(db)
}

// NewSQLiteWorkLog wraps an open database and ensures the schema exists.
func NewSQLiteWorkLog(db *sql.DB) (*SQLiteWorkLog, error) {
	if _, err := db.Exec(workLogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize work log schema: %w", err)
	}
	return &SQLiteWorkLog{db: db}, nil
}

// Append inserts one entry.
func (l *SQLiteWorkLog) Append(entry models.WorkLogEntry) error {
	if entry.Date == "" {
		return fmt.Errorf("appending work log: entry date must not be empty")
	}
	var block, taskID sql.NullInt64
	if entry.Block != nil {
		block = sql.NullInt64{Int64: int64(*entry.Block), Valid: true}
	}
	if entry.TaskID != nil {
		taskID = sql.NullInt64{Int64: int64(*entry.TaskID), Valid: true}
	}
	var notes sql.NullString
	if entry.Notes != "" {
		notes = sql.NullString{String: entry.Notes, Valid: true}
	}

	_, err := l.db.Exec(
		"INSERT INTO work_log (date, block, task_id, actual_bucket, actual_title, notes, logged_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		entry.Date, block, taskID, entry.ActualBucket, entry.ActualTitle, notes, entry.LoggedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append work log entry: %w", err)
	}
	return nil
}

// Read returns the entries whose date matches filter in insertion order.
func (l *SQLiteWorkLog) Read(filter models.WorkLogFilter) ([]models.WorkLogEntry, error) {
	query := "SELECT date, block, task_id, actual_bucket, actual_title, notes, logged_at FROM work_log WHERE 1=1"
	args := []any{}
	if filter.Since != "" {
		query += " AND date >= ?"
		args = append(args, filter.Since)
	}
	if filter.Until != "" {
		query += " AND date <= ?"
		args = append(args, filter.Until)
	}
	query += " ORDER BY date ASC, id ASC"

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read work log: %w", err)
	}
	defer rows.Close()

	var out []models.WorkLogEntry
	for rows.Next() {
		var (
			e        models.WorkLogEntry
			block    sql.NullInt64
			taskID   sql.NullInt64
			notes    sql.NullString
			loggedAt string
		)
		if err := rows.Scan(&e.Date, &block, &taskID, &e.ActualBucket, &e.ActualTitle, &notes, &loggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work log entry: %w", err)
		}
		if block.Valid {
			n := int(block.Int64)
			e.Block = &n
		}
		if taskID.Valid {
			n := int(taskID.Int64)
			e.TaskID = &n
		}
		e.Notes = notes.String
		if ts, err := time.Parse(time.RFC3339Nano, loggedAt); err == nil {
			e.LoggedAt = ts
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read work log: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (l *SQLiteWorkLog) Close() error {
	return l.db.Close()
}
