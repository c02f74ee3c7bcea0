// Package testdb opens an isolated in-memory SQLite database with the library
// schema for repository and service tests.
package testdb

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  is_staff INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS books (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  author TEXT NOT NULL,
  cover TEXT,
  daily_fee NUMERIC NOT NULL,
  inventory INTEGER NOT NULL DEFAULT 0 CHECK (inventory >= 0),
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS borrowings (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  borrow_date DATE NOT NULL,
  expected_return_date DATE NOT NULL,
  actual_return_date DATE,
  created_at DATETIME,
  updated_at DATETIME,
  CHECK (expected_return_date >= borrow_date)
);`,
	`CREATE TABLE IF NOT EXISTS borrowing_books (
  borrowing_id TEXT NOT NULL REFERENCES borrowings(id) ON DELETE CASCADE,
  book_id TEXT NOT NULL REFERENCES books(id) ON DELETE RESTRICT,
  title TEXT NOT NULL,
  daily_fee NUMERIC NOT NULL,
  PRIMARY KEY (borrowing_id, book_id)
);`,
	`CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  borrowing_id TEXT NOT NULL REFERENCES borrowings(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  session_url TEXT NOT NULL DEFAULT '',
  session_id TEXT UNIQUE,
  money_to_pay NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (borrowing_id, type),
  CHECK (status <> 'paid' OR money_to_pay > 0)
);`,
}

// Open returns a fresh in-memory database behind a single connection, so
// transactions run one after another. Tests that need statements to actually
// race on a row use Postgres (build tag db).
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}
