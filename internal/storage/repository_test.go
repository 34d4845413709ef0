package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "spesevoce.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	if _, ok, err := repo.Get(ctx, "expenses"); ok || err != nil {
		t.Fatalf("fresh db: ok=%v err=%v", ok, err)
	}
	if err := repo.Set(ctx, "expenses", `[{"id":"a"}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set(ctx, "expenses", `[]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := repo.Set(ctx, "spreadsheetId", "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	v, ok, err := repo.Get(ctx, "expenses")
	if err != nil || !ok || v != "[]" {
		t.Fatalf("Get = %q,%v,%v", v, ok, err)
	}
	keys, err := repo.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if diff := cmp.Diff([]string{"expenses", "spreadsheetId"}, keys); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}

	if err := repo.Remove(ctx, "expenses"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "expenses"); ok {
		t.Fatal("expenses should be removed")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	for i := 0; i < 2; i++ {
		version, err := RunMigrations(path)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if version != 1 {
			t.Fatalf("run %d: version = %d, want 1", i, version)
		}
	}
}
