package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListMigrationsOrdersSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_rates.sql", "0001_init.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Version != "0001_init" || got[1].Version != "0002_rates" {
		t.Fatalf("unexpected migrations: %+v", got)
	}
	if got[0].Path != filepath.Join(dir, "0001_init.sql") {
		t.Fatalf("unexpected path: %s", got[0].Path)
	}
}

func TestListMigrationsMissingDir(t *testing.T) {
	if _, err := listMigrations(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}
