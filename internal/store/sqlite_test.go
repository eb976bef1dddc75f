package store_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
	"github.com/tartampluch/go-birthday-bot/internal/store"
)

func openTemp(t *testing.T) (*store.SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "birthdays.db")
	s, err := store.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSQLiteStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	ann := engine.Record{
		OwnerID:       42,
		SubjectName:   "Анна",
		Date:          engine.CalendarDate{Year: 1990, Month: time.December, Day: 1},
		Category:      engine.CategoryBirthday,
		ContactHandle: "@anna",
	}
	newYear := engine.Record{
		OwnerID:     42,
		SubjectName: "Новый год",
		Label:       "Новый год",
		Date:        engine.CalendarDate{Year: config.SentinelYear, Month: time.January, Day: 1},
		Category:    engine.CategoryHoliday,
	}
	stranger := engine.Record{
		OwnerID:     7,
		SubjectName: "Bob",
		Date:        engine.CalendarDate{Year: 1985, Month: time.May, Day: 5},
		Category:    engine.CategoryBirthday,
	}

	annID, err := s.Add(ctx, ann)
	require.NoError(t, err)
	_, err = s.Add(ctx, newYear)
	require.NoError(t, err)
	_, err = s.Add(ctx, stranger)
	require.NoError(t, err)

	t.Run("List is scoped and ordered by month/day", func(t *testing.T) {
		list, err := s.List(ctx, 42)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Новый год", list[0].Title())
		assert.Equal(t, engine.CategoryHoliday, list[0].Category)
		assert.False(t, list[0].Date.YearKnown())
		assert.Equal(t, "anna", list[1].ContactHandle, "handle is stored without @")
		assert.False(t, list[1].CreatedAt.IsZero())
	})

	t.Run("Get by another owner is not found", func(t *testing.T) {
		_, err := s.Get(ctx, annID, 7)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		rec, err := s.Get(ctx, annID, 42)
		require.NoError(t, err)
		rec.SubjectName = "Анна Петрова"
		rec.Date = engine.CalendarDate{Year: 1991, Month: time.February, Day: 29}
		rec.ContactHandle = ""
		require.NoError(t, s.Update(ctx, rec))

		got, err := s.Get(ctx, annID, 42)
		require.NoError(t, err)
		assert.Equal(t, "Анна Петрова", got.SubjectName)
		assert.Equal(t, "1991-02-29", got.Date.String())
		assert.Empty(t, got.ContactHandle)
	})

	t.Run("Update missing row", func(t *testing.T) {
		err := s.Update(ctx, engine.Record{ID: 999, OwnerID: 42, SubjectName: "x", Category: engine.CategoryOther})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("AllRecords spans owners", func(t *testing.T) {
		all, err := s.AllRecords(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("Delete", func(t *testing.T) {
		assert.ErrorIs(t, s.Delete(ctx, annID, 7), store.ErrNotFound)
		require.NoError(t, s.Delete(ctx, annID, 42))
		assert.ErrorIs(t, s.Delete(ctx, annID, 42), store.ErrNotFound)

		list, err := s.List(ctx, 42)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

// Databases created by the first bot version only had the birthday columns.
func TestSQLiteStore_MigratesLegacySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE birthdays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		full_name TEXT NOT NULL,
		birth_date TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO birthdays (user_id, full_name, birth_date) VALUES (42, 'Иван', '1980-07-15')`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	s, err := store.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	all, err := s.AllRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, engine.CategoryBirthday, all[0].Category)
	assert.Equal(t, "Иван", all[0].SubjectName)
	assert.Equal(t, engine.CalendarDate{Year: 1980, Month: time.July, Day: 15}, all[0].Date)

	_, err = s.Add(context.Background(), engine.Record{
		OwnerID:     42,
		SubjectName: "Встреча",
		Label:       "Встреча выпускников",
		Category:    engine.CategoryOther,
		Date:        engine.CalendarDate{Year: config.SentinelYear, Month: time.June, Day: 20},
	})
	require.NoError(t, err)
}

// A corrupted date must reach the calculator instead of failing the bulk read.
func TestSQLiteStore_MalformedDateSurvivesRead(t *testing.T) {
	s, path := openTemp(t)

	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO birthdays (user_id, full_name, birth_date) VALUES (1, 'Broken', 'not-a-date'), (1, 'Feb30', '1990-02-30')`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	all, err := s.AllRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].Date.Valid())
	assert.False(t, all[1].Date.Valid())

	_, err = engine.DaysUntilNextOccurrence(time.Now(), all[1].Date)
	assert.ErrorIs(t, err, engine.ErrInvalidDate)
}

func TestOpen_Drivers(t *testing.T) {
	t.Run("SQLite", func(t *testing.T) {
		s, err := store.Open(context.Background(), "SQLite", filepath.Join(t.TempDir(), "x.db"))
		require.NoError(t, err)
		assert.IsType(t, &store.SQLiteStore{}, s)
		require.NoError(t, s.Close())
	})

	t.Run("Unsupported", func(t *testing.T) {
		s, err := store.Open(context.Background(), "mysql", "dsn")
		require.Error(t, err)
		assert.Nil(t, s)
		assert.Contains(t, err.Error(), config.ErrDriverUnsupport)
	})
}
