package migrate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("expected shipped migrations to validate: %v", err)
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Book ISBN!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_book_isbn.sql") {
		t.Fatalf("unexpected migration path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if !strings.Contains(string(data), "-- +goose Up") {
		t.Fatalf("missing goose header in %s", data)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "create_books.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestCreateSQLMigrationRefusesExistingVersion(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	clock = func() time.Time { return fixed }
	t.Cleanup(func() { clock = time.Now })

	path, err := CreateSQLMigration(dir, "add_book_isbn")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20260105090000_add_book_isbn.sql" {
		t.Fatalf("unexpected file name %s", filepath.Base(path))
	}
	if _, err := CreateSQLMigration(dir, "Add Book ISBN"); !errors.Is(err, ErrMigrationExists) {
		t.Fatalf("expected ErrMigrationExists, got %v", err)
	}
	if _, err := CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected error for a name without usable characters")
	}
}

func TestValidateDirReportsEveryBadFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"create_books.sql":                   "-- +goose Up\n-- +goose Down\n",
		"20260105085900_create_users.sql":    "-- +goose Up\nSELECT 1;\n",
		"20260105090000_create_payments.sql": "-- +goose Up\n-- +goose Down\n",
		"20260105090000_duplicate.sql":       "-- +goose Up\n-- +goose Down\n",
		"20260105090100_reversed.sql":        "-- +goose Down\n-- +goose Up\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	err := ValidateDir(dir)
	if got := len(multierr.Errors(err)); got != 4 {
		t.Fatalf("expected 4 problems, got %d: %v", got, err)
	}
}

func TestValidateDirRequiresMigrations(t *testing.T) {
	if err := ValidateDir(t.TempDir()); !errors.Is(err, ErrNoMigrations) {
		t.Fatalf("expected ErrNoMigrations, got %v", err)
	}
}
