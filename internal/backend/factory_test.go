package backend

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spesevoce/internal/config"
	"spesevoce/internal/log"
	"spesevoce/internal/services"
	"spesevoce/internal/sheets"
	"spesevoce/internal/sheets/memory"
)

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		StorageBackend:       "memory",
		SheetsEnabled:        true,
		SheetsLayout:         "grid",
		GoogleSpreadsheetID:  "abc",
		GoogleOAuthTokenJSON: `{"access_token":"t"}`,
		ClassifierTimeout:    3 * time.Second,
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Storage != MemoryStorage || cfg.SheetsLayout != "grid" || cfg.SpreadsheetID != "abc" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}
	if cfg.Auth.OAuthTokenJSON != app.GoogleOAuthTokenJSON {
		t.Errorf("auth token not carried over")
	}

	if _, err := FromAppConfig(&config.Config{StorageBackend: "sheets"}); err == nil {
		t.Error("FromAppConfig() accepted an unknown storage backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) error = nil")
	}
}

func TestCreateBackendLocalOnly(t *testing.T) {
	b, err := NewFactory(nil).CreateBackend(context.Background(), Config{Storage: MemoryStorage})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer b.Cleanup()

	if b.Remote != nil || b.Container != nil {
		t.Error("remote wired although sheets are disabled")
	}
	if b.Classifier.Remote() {
		t.Error("classifier is remote without an API key")
	}

	rec, err := b.Pipeline.ProcessTranscript(context.Background(), "такси 12 евро")
	if err != nil {
		t.Fatalf("ProcessTranscript() error = %v", err)
	}
	if rec.Category != "Транспорт" {
		t.Errorf("Category = %q, want Транспорт", rec.Category)
	}
	if _, err := b.Sync.Upload(context.Background()); !errors.Is(err, services.ErrSyncDisabled) {
		t.Errorf("Upload() error = %v, want ErrSyncDisabled", err)
	}
}

func TestCreateBackendWithMirror(t *testing.T) {
	api := memory.New()
	api.Seed("sheet-1")

	b, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Storage:       MemoryStorage,
		SheetsEnabled: true,
		SheetsLayout:  sheets.LayoutRows,
		SheetNaming:   sheets.NamingFixed,
		SheetName:     "Expenses",
		SpreadsheetID: "sheet-1",
		SheetsAPI:     api,
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer b.Cleanup()

	if b.Remote == nil || b.Remote.Layout() != sheets.LayoutRows {
		t.Fatalf("Remote = %v, want rows layout", b.Remote)
	}
	if _, err := b.Pipeline.ProcessTranscript(context.Background(), "кофе 3 евро"); err != nil {
		t.Fatalf("ProcessTranscript() error = %v", err)
	}
	if got := api.Cell("sheet-1", "Expenses", 1, 2); got == nil {
		t.Error("record was not mirrored into the spreadsheet")
	}
}

func TestCreateBackendErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "taxonomy.yaml")
	if err := os.WriteFile(bad, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown storage", Config{Storage: "sheets"}},
		{"sqlite without path", Config{Storage: SQLiteStorage}},
		{"unknown layout", Config{Storage: MemoryStorage, SheetsEnabled: true, SheetsLayout: "columns", SheetsAPI: memory.New()}},
		{"empty taxonomy file", Config{Storage: MemoryStorage, TaxonomyFile: bad}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFactory(nil).CreateBackend(context.Background(), tt.cfg); err == nil {
				t.Error("CreateBackend() error = nil")
			}
		})
	}
}

func TestCreateBackendSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "spesevoce.db")
	b, err := NewFactory(nil).CreateBackend(context.Background(), Config{Storage: SQLiteStorage, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if _, err := b.Pipeline.ProcessTranscript(context.Background(), "хлеб 2 евро"); err != nil {
		t.Fatalf("ProcessTranscript() error = %v", err)
	}
	if err := b.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	reopened, err := NewFactory(nil).CreateBackend(context.Background(), Config{Storage: SQLiteStorage, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Cleanup()
	if got := reopened.Records.Load(context.Background()); len(got) != 1 {
		t.Errorf("Load() after reopen = %d records, want 1", len(got))
	}
}

func TestCreateBackendTagsComponents(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Component: log.ComponentApp, Handler: slog.NewTextHandler(&buf, nil)})

	b, err := NewFactory(logger).CreateBackend(context.Background(), Config{Storage: MemoryStorage})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer b.Cleanup()
	b.Records.Load(context.Background())

	tests := []struct {
		msg       string
		component string
	}{
		{"Initialized memory storage", "component=backend"},
		{"Records loaded", "component=records"},
	}
	lines := strings.Split(buf.String(), "\n")
	for _, tt := range tests {
		var line string
		for _, l := range lines {
			if strings.Contains(l, `msg="`+tt.msg+`"`) {
				line = l
			}
		}
		if line == "" {
			t.Fatalf("no %q line in:\n%s", tt.msg, buf.String())
		}
		if !strings.Contains(line, tt.component) || strings.Count(line, "component=") != 1 {
			t.Errorf("%q line = %s, want exactly one %s", tt.msg, line, tt.component)
		}
	}
}
