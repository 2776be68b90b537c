package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewDB(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesDirectoryAndSchema", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "data", "usage.db")
		db, err := NewDB(ctx, path)
		if err != nil {
			t.Fatalf("NewDB failed: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("Expected database file to exist: %v", err)
		}

		var name string
		err = db.SQL.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'execution_metrics'").Scan(&name)
		if err != nil {
			t.Fatalf("Expected execution_metrics table: %v", err)
		}
	})

	t.Run("ReopenIsIdempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "usage.db")
		for i := 0; i < 2; i++ {
			db, err := NewDB(ctx, path)
			if err != nil {
				t.Fatalf("Open #%d failed: %v", i+1, err)
			}
			if err := db.Close(); err != nil {
				t.Fatalf("Close #%d failed: %v", i+1, err)
			}
		}
	})

	t.Run("ConnectionUsableAfterMigrations", func(t *testing.T) {
		db, err := NewDB(ctx, filepath.Join(t.TempDir(), "usage.db"))
		if err != nil {
			t.Fatalf("NewDB failed: %v", err)
		}
		defer db.Close()

		_, err = db.SQL.ExecContext(ctx,
			"INSERT INTO execution_metrics (agent_name, timestamp) VALUES ('DatePlanner', '2026-01-01 00:00:00')")
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	})
}
