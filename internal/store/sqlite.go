package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" database/sql driver
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
)

const sqliteDriverName = "sqlite3"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS birthdays (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	full_name TEXT NOT NULL,
	birth_date TEXT NOT NULL,
	telegram_username TEXT,
	event_type TEXT DEFAULT 'birthday',
	event_name TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// sqliteMigrations are added to databases created by older bot versions.
var sqliteMigrations = []struct{ column, ddl string }{
	{"telegram_username", `ALTER TABLE birthdays ADD COLUMN telegram_username TEXT`},
	{"event_type", `ALTER TABLE birthdays ADD COLUMN event_type TEXT DEFAULT 'birthday'`},
	{"event_name", `ALTER TABLE birthdays ADD COLUMN event_name TEXT`},
}

const (
	sqliteSelect = `SELECT id, user_id, full_name, birth_date,
COALESCE(telegram_username, ''), COALESCE(event_type, ''), COALESCE(event_name, ''), created_at
FROM birthdays`

	sqliteInsert = `INSERT INTO birthdays (user_id, full_name, birth_date, telegram_username, event_type, event_name)
VALUES (?, ?, ?, NULLIF(?, ''), ?, NULLIF(?, ''))`

	sqliteUpdate = `UPDATE birthdays
SET full_name = ?, birth_date = ?, telegram_username = NULLIF(?, ''), event_type = ?, event_name = NULLIF(?, '')
WHERE id = ? AND user_id = ?`

	sqliteDelete = `DELETE FROM birthdays WHERE id = ? AND user_id = ?`
)

// SQLiteStore keeps records in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and brings its
// schema up to date.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = config.DefaultSQLitePath
	}
	db, err := sql.Open(sqliteDriverName, path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}
	// One connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Info(config.MsgStoreOpened,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyDriver, config.DriverSQLite,
		config.LogKeyFile, path)
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreMigrate, err)
	}

	existing, err := s.columnNames(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreMigrate, err)
	}

	for _, m := range sqliteMigrations {
		if existing[m.column] {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.ddl); err != nil {
			return fmt.Errorf("%s: %w", config.ErrStoreMigrate, err)
		}
		slog.Info(config.MsgStoreMigrated,
			config.LogKeyComponent, config.CompStore,
			config.LogKeyColumn, m.column)
	}
	return nil
}

func (s *SQLiteStore) columnNames(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(birthdays)`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}

// Add inserts rec and returns its id.
func (s *SQLiteStore) Add(ctx context.Context, rec engine.Record) (int64, error) {
	name, date, handle, category, label := columns(rec)
	res, err := s.db.ExecContext(ctx, sqliteInsert, rec.OwnerID, name, date, handle, category, label)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	logChange(config.MsgRecordAdded, id, rec.OwnerID)
	return id, nil
}

// List returns the owner's records ordered by month and day.
func (s *SQLiteStore) List(ctx context.Context, owner int64) ([]engine.Record, error) {
	records, err := s.query(ctx, sqliteSelect+` WHERE user_id = ?`, owner)
	if err != nil {
		return nil, err
	}
	sortByMonthDay(records)
	return records, nil
}

// Get returns one record of the owner.
func (s *SQLiteStore) Get(ctx context.Context, id, owner int64) (engine.Record, error) {
	r, err := scanSQLRow(s.db.QueryRowContext(ctx, sqliteSelect+` WHERE id = ? AND user_id = ?`, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Record{}, ErrNotFound
	}
	if err != nil {
		return engine.Record{}, fmt.Errorf("%s: %w", config.ErrStoreScan, err)
	}
	return r.record(), nil
}

// Update rewrites every mutable column of rec.
func (s *SQLiteStore) Update(ctx context.Context, rec engine.Record) error {
	name, date, handle, category, label := columns(rec)
	res, err := s.db.ExecContext(ctx, sqliteUpdate, name, date, handle, category, label, rec.ID, rec.OwnerID)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	logChange(config.MsgRecordUpdated, rec.ID, rec.OwnerID)
	return nil
}

// Delete removes one record of the owner.
func (s *SQLiteStore) Delete(ctx context.Context, id, owner int64) error {
	res, err := s.db.ExecContext(ctx, sqliteDelete, id, owner)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	logChange(config.MsgRecordDeleted, id, owner)
	return nil
}

// AllRecords returns every record of every owner.
func (s *SQLiteStore) AllRecords(ctx context.Context) ([]engine.Record, error) {
	return s.query(ctx, sqliteSelect+` ORDER BY id`)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]engine.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	defer func() { _ = rows.Close() }()

	var records []engine.Record
	for rows.Next() {
		r, err := scanSQLRow(rows)
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

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLRow(sc sqlScanner) (row, error) {
	var (
		r       row
		created sql.NullTime
	)
	err := sc.Scan(&r.id, &r.owner, &r.name, &r.date, &r.handle, &r.category, &r.label, &created)
	if created.Valid {
		r.createdAt = created.Time
	}
	return r, err
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
