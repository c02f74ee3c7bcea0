package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

	// ErrMigrationExists is returned when the generated file name is already taken.
	ErrMigrationExists = errors.New("migration already exists")

	clock = time.Now
)

const sqlTemplate = `-- +goose Up
-- +goose StatementBegin
-- library schema change: %[1]s
SELECT 1;
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert library schema change: %[1]s
SELECT 1;
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<name>.sql with a runnable
// no-op Up and Down section.
func CreateSQLMigration(dir string, name string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("migrations dir is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create migrations dir %q: %w", dir, err)
	}

	filename := fmt.Sprintf("%s_%s.sql", clock().UTC().Format(versionLayout), slug)
	fullpath := filepath.Join(dir, filename)

	f, err := os.OpenFile(fullpath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrMigrationExists, fullpath)
		}
		return "", fmt.Errorf("create migration %q: %w", fullpath, err)
	}
	if _, err := fmt.Fprintf(f, sqlTemplate, slug); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

// migrationSlug lowercases name and keeps only [a-z0-9_].
func migrationSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nameSanitizeRe.ReplaceAllString(slug, "_")
	return strings.Trim(slug, "_")
}
