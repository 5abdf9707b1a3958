package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

// Every stock and dispatch table is tenant scoped, so new migrations start from
// that shape.
const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- tenant tables: tenant_id uuid NOT NULL, indexes lead with tenant_id
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<version>_<name>.sql. The version is the current
// UTC timestamp, bumped past the newest existing migration so files always sort
// after what is already in dir. A name already used in dir is rejected.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createSQLMigration(dir, name, time.Now().UTC())
}

func createSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := sanitizeMigrationName(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	latest, err := latestVersion(dir, safe)
	if err != nil {
		return "", err
	}
	version := now.Truncate(time.Second)
	if !latest.IsZero() && !version.After(latest) {
		version = latest.Add(time.Second)
	}

	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version.Format(versionLayout), safe))
	if err := os.WriteFile(fullpath, []byte(fmt.Sprintf(migrationTemplate, safe)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

func sanitizeMigrationName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}

// latestVersion returns the newest version in dir and fails when name is taken.
func latestVersion(dir, name string) (time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}, fmt.Errorf("read dir %q: %w", dir, err)
	}
	var latest time.Time
	for _, e := range entries {
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		if strings.TrimSuffix(strings.TrimPrefix(e.Name(), m[1]+"_"), ".sql") == name {
			return time.Time{}, fmt.Errorf("migration %q already exists as %s", name, e.Name())
		}
		v, err := time.Parse(versionLayout, m[1])
		if err != nil {
			continue
		}
		if v.After(latest) {
			latest = v
		}
	}
	return latest, nil
}
