package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"photoPreProcessor/gallery"
	"photoPreProcessor/postgres"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB wraps sqlx.DB to add custom methods. Queries are written with '?'
// placeholders and rebound for the driver in use.
type DB struct {
	*sqlx.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS keyword_history (
	keyword TEXT PRIMARY KEY,
	uses INTEGER NOT NULL DEFAULT 0,
	last_used TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS copyright_history (
	notice TEXT PRIMARY KEY,
	uses INTEGER NOT NULL DEFAULT 0,
	last_used TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS applied (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL,
	path TEXT NOT NULL,
	renamed_to TEXT NOT NULL DEFAULT '',
	params TEXT NOT NULL DEFAULT '[]',
	error TEXT NOT NULL DEFAULT '',
	applied_at TEXT NOT NULL
);`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS keyword_history (
	keyword TEXT PRIMARY KEY,
	uses INTEGER NOT NULL DEFAULT 0,
	last_used TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS copyright_history (
	notice TEXT PRIMARY KEY,
	uses INTEGER NOT NULL DEFAULT 0,
	last_used TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS applied (
	id SERIAL PRIMARY KEY,
	job_id TEXT NOT NULL,
	path TEXT NOT NULL,
	renamed_to TEXT NOT NULL DEFAULT '',
	params TEXT NOT NULL DEFAULT '[]',
	error TEXT NOT NULL DEFAULT '',
	applied_at TEXT NOT NULL
);`

func openAndInitDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	sqlDB, err := sqlx.Open("sqlite", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	// SQLite works best with single connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &DB{DB: sqlDB}, nil
}

func openPostgresDB(dsn string) (*DB, error) {
	sqlDB, err := postgres.Open(dsn)
	if err != nil {
		return nil, err
	}
	db := sqlx.NewDb(sqlDB, "postgres")
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db}, nil
}

// openHistoryDB opens the store selected by the config.
func openHistoryDB(cfg Config) (*DB, error) {
	if cfg.DBDriver == "postgres" {
		return openPostgresDB(cfg.PostgresDSN)
	}
	return openAndInitDB(cfg.DBPath)
}

func (db *DB) clearDBTables() error {
	for _, table := range []string{"keyword_history", "copyright_history", "applied"} {
		if _, err := db.Exec(`DELETE FROM ` + table); err != nil {
			return err
		}
	}
	return nil
}

// HistoryRow is one remembered keyword or copyright notice.
type HistoryRow struct {
	Value    string `db:"value" json:"value"`
	Uses     int64  `db:"uses" json:"uses"`
	LastUsed string `db:"last_used" json:"lastUsed"`
}

func (db *DB) recordKeyword(keyword string) error {
	return db.recordHistory("keyword_history", "keyword", keyword)
}

func (db *DB) recordCopyright(notice string) error {
	return db.recordHistory("copyright_history", "notice", notice)
}

func (db *DB) recordHistory(table, column, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	// Upsert so that a value has exactly one row.
	_, err := db.Exec(db.Rebind(`INSERT INTO `+table+` (`+column+`, uses, last_used) VALUES (?, 1, ?)
ON CONFLICT(`+column+`) DO UPDATE SET
  uses=`+table+`.uses + 1,
  last_used=excluded.last_used`), value, time.Now().Format(time.RFC3339))
	return err
}

func (db *DB) listKeywords(offset, limit int64) ([]HistoryRow, error) {
	return db.listHistory("keyword_history", "keyword", offset, limit)
}

func (db *DB) listCopyrights(offset, limit int64) ([]HistoryRow, error) {
	return db.listHistory("copyright_history", "notice", offset, limit)
}

func (db *DB) listHistory(table, column string, offset, limit int64) ([]HistoryRow, error) {
	out := []HistoryRow{}
	err := db.Select(&out, db.Rebind(`SELECT `+column+` AS value, uses, last_used FROM `+table+` ORDER BY uses DESC, `+column+` LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AppliedRow logs one file touched by an apply job.
type AppliedRow struct {
	ID        int64           `json:"id"`
	JobID     string          `json:"jobId"`
	Path      string          `json:"path"`
	RenamedTo string          `json:"renamedTo,omitempty"`
	Params    []gallery.Param `json:"params"`
	Error     string          `json:"error,omitempty"`
	AppliedAt string          `json:"appliedAt"`
}

// appliedRecord is the column layout of the applied table. Params are
// stored as a JSON array.
type appliedRecord struct {
	ID        int64  `db:"id"`
	JobID     string `db:"job_id"`
	Path      string `db:"path"`
	RenamedTo string `db:"renamed_to"`
	Params    string `db:"params"`
	Error     string `db:"error"`
	AppliedAt string `db:"applied_at"`
}

func (db *DB) insertApplied(r AppliedRow) error {
	params, err := json.Marshal(r.Params)
	if err != nil {
		return err
	}
	_, err = db.NamedExec(`INSERT INTO applied (job_id, path, renamed_to, params, error, applied_at)
VALUES (:job_id, :path, :renamed_to, :params, :error, :applied_at)`, appliedRecord{
		JobID:     r.JobID,
		Path:      r.Path,
		RenamedTo: r.RenamedTo,
		Params:    string(params),
		Error:     r.Error,
		AppliedAt: time.Now().Format(time.RFC3339),
	})
	return err
}

func (db *DB) listApplied(jobID string) ([]AppliedRow, error) {
	var recs []appliedRecord
	if err := db.Select(&recs, db.Rebind(`SELECT id, job_id, path, renamed_to, params, error, applied_at FROM applied WHERE job_id = ? ORDER BY id`), jobID); err != nil {
		return nil, err
	}
	out := make([]AppliedRow, 0, len(recs))
	for _, rec := range recs {
		r := AppliedRow{ID: rec.ID, JobID: rec.JobID, Path: rec.Path, RenamedTo: rec.RenamedTo, Error: rec.Error, AppliedAt: rec.AppliedAt}
		if err := json.Unmarshal([]byte(rec.Params), &r.Params); err != nil {
			return nil, fmt.Errorf("corrupt params for applied row %d: %w", rec.ID, err)
		}
		out = append(out, r)
	}
	return out, nil
}
