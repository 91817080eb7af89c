package database

import (
	"path/filepath"
	"testing"
)

func TestMigrate(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "nested", "wall.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	v, err := db.Version()
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if v != 1 {
		t.Errorf("Version() = %d, want 1", v)
	}

	for _, table := range []string{"movie_status", "reviews", "field_overrides"} {
		var name string
		err := db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	if err := db.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("re-Migrate() error = %v", err)
	}
}

func TestMemoryDatabase(t *testing.T) {
	db, err := New(MemoryPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
}
