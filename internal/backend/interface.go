package backend

import (
	"context"
	"time"

	"spesevoce/internal/auth"
	"spesevoce/internal/cache"
	"spesevoce/internal/classifier"
	"spesevoce/internal/core"
	"spesevoce/internal/kv"
	"spesevoce/internal/records"
	"spesevoce/internal/services"
	"spesevoce/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Backend is everything the entry points need, wired from one Config.
type Backend struct {
	Taxonomy   core.Taxonomy
	Classifier *classifier.Classifier
	KV         kv.Store
	Records    *records.Store
	Pipeline   *services.ExpenseService
	Sync       *services.SyncService

	// Remote is nil when the spreadsheet mirror is disabled.
	Remote    sheets.Sync
	Container *sheets.Container
	Caches    *cache.Manager

	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}

// Config holds configuration for backend creation
type Config struct {
	Storage      StorageType
	SQLiteDBPath string

	SheetsEnabled bool
	SheetsLayout  string
	SheetNaming   string
	SheetName     string
	SheetLocale   string
	SpreadsheetID string
	Auth          auth.Config
	// SheetsAPI replaces the Google client when set.
	SheetsAPI sheets.Spreadsheet

	GeminiAPIKey      string
	GeminiModel       string
	ClassifierTimeout time.Duration
	EnforceTaxonomy   bool
	TaxonomyFile      string

	Location *time.Location
}

// StorageType selects the local kv.Store.
type StorageType string

const (
	SQLiteStorage StorageType = "sqlite"
	MemoryStorage StorageType = "memory"
)

// String implements fmt.Stringer
func (st StorageType) String() string {
	return string(st)
}

// IsValid returns true if the storage type is valid
func (st StorageType) IsValid() bool {
	switch st {
	case SQLiteStorage, MemoryStorage:
		return true
	default:
		return false
	}
}
