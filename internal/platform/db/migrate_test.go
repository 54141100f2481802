package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMigrations_OrderAndFiltering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "002_consultations.sql", "CREATE TABLE consultations (id UUID);")
	writeFile(t, dir, "001_users.sql", "CREATE TABLE users (id UUID);")
	writeFile(t, dir, "notes.txt", "not a migration")
	writeFile(t, dir, "README.sql", "no numeric prefix")

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Errorf("migrations out of order: %v, %v", migrations[0].Version, migrations[1].Version)
	}
	if migrations[0].Name != "001_users.sql" {
		t.Errorf("first migration = %s, want 001_users.sql", migrations[0].Name)
	}
	if migrations[1].SQL == "" {
		t.Error("migration SQL not loaded")
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	m := NewMigrator(nil, "/nonexistent/migrations")
	if _, err := m.LoadMigrations(); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
