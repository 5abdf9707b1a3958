package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCreateSQLMigrationSortsAfterExistingVersions(t *testing.T) {
	dir := t.TempDir()
	existing := "20261020120000_create_dispatch.sql"
	if err := os.WriteFile(filepath.Join(dir, existing), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("seed migration: %v", err)
	}

	// clock behind the newest file
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	path, err := createSQLMigration(dir, "add rider shifts", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if got := filepath.Base(path); got != "20261020120001_add_rider_shifts.sql" {
		t.Fatalf("unexpected filename %s", got)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if !strings.Contains(string(body), "tenant_id uuid NOT NULL") {
		t.Fatalf("expected tenant scoped template, got %s", body)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestCreateSQLMigrationRejectsReusedName(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	if _, err := createSQLMigration(dir, "batch_cost_history", now); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := createSQLMigration(dir, "Batch Cost History", now.Add(time.Hour)); err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
	if _, err := createSQLMigration(dir, "!!!", now); err == nil {
		t.Fatal("expected empty sanitized name to be rejected")
	}
}
