package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gateprobe/internal/storage"
	"gateprobe/internal/storage/models"
	perrors "gateprobe/pkg/errors"
	_ "github.com/mattn/go-sqlite3"
)

// dbHandle is the common interface between *sql.DB and *sql.Tx.
type dbHandle interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB implements the Storage interface using SQLite
type DB struct {
	db *sql.DB
}

var _ storage.Storage = (*DB)(nil)

// New creates a new SQLite storage instance
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The probe writes from a single goroutine; one connection avoids
	// SQLITE_BUSY between the attempt insert and the run update.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &DB{db: db}

	// Run migrations
	if err := runMigrations(store); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) handle() dbHandle { return d.db }

// ─── Run operations ─────────────────────────────────────────────────────────

const runColumns = `id, host, port, mode, repeat, attempts, succeeded, started_at, finished_at`

func (d *DB) CreateRun(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (id, host, port, mode, repeat, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := d.handle().ExecContext(ctx, query,
		run.ID, run.Host, run.Port, run.Mode, run.Repeat, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (d *DB) FinishRun(ctx context.Context, run *models.Run) error {
	if run.FinishedAt == nil {
		now := time.Now()
		run.FinishedAt = &now
	}
	query := `UPDATE runs SET attempts = ?, succeeded = ?, finished_at = ? WHERE id = ?`
	result, err := d.handle().ExecContext(ctx, query, run.Attempts, run.Succeeded, run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", perrors.ErrRunNotFound, run.ID)
	}
	return nil
}

func (d *DB) GetRun(ctx context.Context, idOrPrefix string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id LIKE ? ORDER BY started_at DESC LIMIT 2`
	runs, err := queryRuns(ctx, d.handle(), query, idOrPrefix+"%")
	if err != nil {
		return nil, err
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", perrors.ErrRunNotFound, idOrPrefix)
	case 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
	}
}

func (d *DB) GetRecentRuns(ctx context.Context, filter storage.RunFilter) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	args := []interface{}{}

	if filter.Host != nil {
		query += " AND host = ?"
		args = append(args, *filter.Host)
	}
	if filter.Port != nil {
		query += " AND port = ?"
		args = append(args, *filter.Port)
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return queryRuns(ctx, d.handle(), query, args...)
}

func queryRuns(ctx context.Context, h dbHandle, query string, args ...interface{}) ([]*models.Run, error) {
	rows, err := h.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run := &models.Run{}
		err := rows.Scan(
			&run.ID, &run.Host, &run.Port, &run.Mode, &run.Repeat,
			&run.Attempts, &run.Succeeded, &run.StartedAt, &run.FinishedAt,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ─── Attempt operations ─────────────────────────────────────────────────────

// RecordAttempt stores one iteration and bumps the owning run's counters in
// the same transaction.
func (d *DB) RecordAttempt(ctx context.Context, attempt *models.Attempt) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := recordAttempt(ctx, tx, attempt); err != nil {
		return err
	}

	succeeded := 0
	if attempt.Success {
		succeeded = 1
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE runs SET attempts = attempts + 1, succeeded = succeeded + ? WHERE id = ?`,
		succeeded, attempt.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run counters: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", perrors.ErrRunNotFound, attempt.RunID)
	}

	return tx.Commit()
}

func recordAttempt(ctx context.Context, h dbHandle, attempt *models.Attempt) error {
	query := `
		INSERT INTO attempts (run_id, iteration, success, connect_ms, error_kind, error_message, response_hex, tested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if attempt.TestedAt.IsZero() {
		attempt.TestedAt = time.Now()
	}
	result, err := h.ExecContext(ctx, query,
		attempt.RunID, attempt.Iteration, attempt.Success, attempt.ConnectMS,
		attempt.ErrorKind, attempt.ErrorMessage, attempt.ResponseHex, attempt.TestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	attempt.ID = id
	return nil
}

func (d *DB) GetAttempts(ctx context.Context, runID string) ([]*models.Attempt, error) {
	query := `
		SELECT id, run_id, iteration, success, connect_ms, error_kind, error_message, response_hex, tested_at
		FROM attempts
		WHERE run_id = ?
		ORDER BY iteration ASC
	`
	rows, err := d.handle().QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*models.Attempt
	for rows.Next() {
		attempt := &models.Attempt{}
		err := rows.Scan(
			&attempt.ID, &attempt.RunID, &attempt.Iteration, &attempt.Success, &attempt.ConnectMS,
			&attempt.ErrorKind, &attempt.ErrorMessage, &attempt.ResponseHex, &attempt.TestedAt,
		)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}
