package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pipeline/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateDeal stores a new deal and returns it with its id and timestamps.
func (r *SQLiteRepository) CreateDeal(ctx context.Context, d core.Deal) (core.Deal, error) {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return core.Deal{}, err
	}
	now := r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO deals (client_name, value, stage, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ClientName, d.Value, d.Stage, d.Notes, now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return core.Deal{}, fmt.Errorf("insert deal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Deal{}, fmt.Errorf("deal id: %w", err)
	}
	d.ID = id
	d.CreatedAt, d.UpdatedAt = now, now

	slog.InfoContext(ctx, "Deal saved to SQLite", "id", id, "client", d.ClientName, "stage", d.Stage)
	return d, nil
}

// GetDeal returns a deal by id, or core.ErrDealNotFound.
func (r *SQLiteRepository) GetDeal(ctx context.Context, id int64) (core.Deal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, client_name, value, stage, notes, created_at, updated_at FROM deals WHERE id = ?`, id)
	d, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Deal{}, core.ErrDealNotFound
	}
	if err != nil {
		return core.Deal{}, fmt.Errorf("get deal %d: %w", id, err)
	}
	return d, nil
}

// ListDeals returns every deal, oldest first.
func (r *SQLiteRepository) ListDeals(ctx context.Context) ([]core.Deal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, client_name, value, stage, notes, created_at, updated_at FROM deals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	out := make([]core.Deal, 0)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDealStage moves a deal to stage.
func (r *SQLiteRepository) UpdateDealStage(ctx context.Context, id int64, stage string) (core.Deal, error) {
	now := r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE deals SET stage = ?, updated_at = ? WHERE id = ?`, stage, now.Format(timeLayout), id)
	if err != nil {
		return core.Deal{}, fmt.Errorf("update deal %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Deal{}, core.ErrDealNotFound
	}
	return r.GetDeal(ctx, id)
}

// DeleteDeal removes a deal, or returns core.ErrDealNotFound.
func (r *SQLiteRepository) DeleteDeal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete deal %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete deal %d: %w", id, err)
	}
	if n == 0 {
		return core.ErrDealNotFound
	}
	slog.InfoContext(ctx, "Deal deleted", "id", id)
	return nil
}

// RecordImport appends a batch load to the import log.
func (r *SQLiteRepository) RecordImport(ctx context.Context, rec core.ImportRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pipeline_imports (batch_id, source, content_key, record_count, raw_total, weighted_total, loaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.BatchID, rec.Source, rec.Key, rec.Records, rec.RawTotal, rec.WeightedTotal, rec.LoadedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record import %s: %w", rec.BatchID, err)
	}
	return nil
}

// ListImports returns the most recent imports first. A limit of 0 or less
// returns all of them.
func (r *SQLiteRepository) ListImports(ctx context.Context, limit int) ([]core.ImportRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT batch_id, source, content_key, record_count, raw_total, weighted_total, loaded_at
		 FROM pipeline_imports ORDER BY loaded_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	out := make([]core.ImportRecord, 0)
	for rows.Next() {
		var (
			rec      core.ImportRecord
			loadedAt string
		)
		if err := rows.Scan(&rec.BatchID, &rec.Source, &rec.Key, &rec.Records, &rec.RawTotal, &rec.WeightedTotal, &loadedAt); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		if rec.LoadedAt, err = time.Parse(timeLayout, loadedAt); err != nil {
			return nil, fmt.Errorf("parse import time: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeal(s scanner) (core.Deal, error) {
	var (
		d                core.Deal
		created, updated string
	)
	if err := s.Scan(&d.ID, &d.ClientName, &d.Value, &d.Stage, &d.Notes, &created, &updated); err != nil {
		return core.Deal{}, err
	}
	var err error
	if d.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.Deal{}, fmt.Errorf("parse created_at: %w", err)
	}
	if d.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return core.Deal{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return d, nil
}
