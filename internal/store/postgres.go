package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
)

// Pool is the subset of *pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// pgSchema runs as one simple-protocol batch.
const pgSchema = `CREATE TABLE IF NOT EXISTS birthdays (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	full_name TEXT NOT NULL,
	birth_date TEXT NOT NULL,
	telegram_username TEXT,
	event_type TEXT DEFAULT 'birthday',
	event_name TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE birthdays ADD COLUMN IF NOT EXISTS telegram_username TEXT;
ALTER TABLE birthdays ADD COLUMN IF NOT EXISTS event_type TEXT DEFAULT 'birthday';
ALTER TABLE birthdays ADD COLUMN IF NOT EXISTS event_name TEXT;
CREATE INDEX IF NOT EXISTS birthdays_user_id_idx ON birthdays (user_id);`

const (
	pgSelect = `SELECT id, user_id, full_name, birth_date,
COALESCE(telegram_username, ''), COALESCE(event_type, ''), COALESCE(event_name, ''), created_at
FROM birthdays`

	pgInsert = `INSERT INTO birthdays (user_id, full_name, birth_date, telegram_username, event_type, event_name)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''))
RETURNING id`

	pgUpdate = `UPDATE birthdays
SET full_name=$1, birth_date=$2, telegram_username=NULLIF($3, ''), event_type=$4, event_name=NULLIF($5, '')
WHERE id=$6 AND user_id=$7`

	pgDelete = `DELETE FROM birthdays WHERE id=$1 AND user_id=$2`
)

// PostgresStore keeps records in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool Pool
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}
	s, err := NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool and migrates the schema.
func NewPostgresStore(ctx context.Context, pool Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreMigrate, err)
	}
	slog.Info(config.MsgStoreOpened,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyDriver, config.DriverPostgres)
	return &PostgresStore{pool: pool}, nil
}

// Add inserts rec and returns its id.
func (s *PostgresStore) Add(ctx context.Context, rec engine.Record) (int64, error) {
	name, date, handle, category, label := columns(rec)

	var id int64
	err := s.pool.QueryRow(ctx, pgInsert, rec.OwnerID, name, date, handle, category, label).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	logChange(config.MsgRecordAdded, id, rec.OwnerID)
	return id, nil
}

// List returns the owner's records ordered by month and day.
func (s *PostgresStore) List(ctx context.Context, owner int64) ([]engine.Record, error) {
	records, err := s.query(ctx, pgSelect+` WHERE user_id=$1`, owner)
	if err != nil {
		return nil, err
	}
	sortByMonthDay(records)
	return records, nil
}

// Get returns one record of the owner.
func (s *PostgresStore) Get(ctx context.Context, id, owner int64) (engine.Record, error) {
	r, err := scanPgRow(s.pool.QueryRow(ctx, pgSelect+` WHERE id=$1 AND user_id=$2`, id, owner))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return engine.Record{}, ErrNotFound
	case err != nil:
		return engine.Record{}, fmt.Errorf("%s: %w", config.ErrStoreScan, err)
	}
	return r.record(), nil
}

// Update rewrites every mutable column of rec.
func (s *PostgresStore) Update(ctx context.Context, rec engine.Record) error {
	name, date, handle, category, label := columns(rec)
	tag, err := s.pool.Exec(ctx, pgUpdate, name, date, handle, category, label, rec.ID, rec.OwnerID)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	logChange(config.MsgRecordUpdated, rec.ID, rec.OwnerID)
	return nil
}

// Delete removes one record of the owner.
func (s *PostgresStore) Delete(ctx context.Context, id, owner int64) error {
	tag, err := s.pool.Exec(ctx, pgDelete, id, owner)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	logChange(config.MsgRecordDeleted, id, owner)
	return nil
}

// AllRecords returns every record of every owner.
func (s *PostgresStore) AllRecords(ctx context.Context) ([]engine.Record, error) {
	return s.query(ctx, pgSelect+` ORDER BY id`)
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]engine.Record, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	defer rows.Close()

	var records []engine.Record
	for rows.Next() {
		r, err := scanPgRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrStoreScan, err)
		}
		records = append(records, r.record())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	return records, nil
}

func scanPgRow(sc pgx.Row) (row, error) {
	var r row
	err := sc.Scan(&r.id, &r.owner, &r.name, &r.date, &r.handle, &r.category, &r.label, &r.createdAt)
	return r, err
}
