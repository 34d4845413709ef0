package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spesevoce/internal/auth"
	"spesevoce/internal/cache"
	"spesevoce/internal/classifier"
	"spesevoce/internal/core"
	"spesevoce/internal/kv"
	"spesevoce/internal/log"
	"spesevoce/internal/records"
	"spesevoce/internal/services"
	"spesevoce/internal/sheets"
	gsheet "spesevoce/internal/sheets/google"
	"spesevoce/internal/storage"
)

const cacheCleanupInterval = 5 * time.Minute

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend. The record store is not
// loaded yet; callers run Records.Load once they are ready to hit the
// network.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tax := core.DefaultTaxonomy()
	if config.TaxonomyFile != "" {
		loaded, err := core.LoadTaxonomyFile(config.TaxonomyFile)
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
		tax = loaded
		f.logger.Info("Loaded taxonomy file", "path", config.TaxonomyFile, log.FieldCount, len(tax))
	}

	b := &Backend{Taxonomy: tax}
	var cleanups []func() error

	store, closeStore, err := f.createStore(config)
	if err != nil {
		return nil, err
	}
	b.KV = store
	cleanups = append(cleanups, closeStore)

	b.Classifier = f.createClassifier(ctx, config, tax)

	// Typed nils must not leak into the optional interfaces below.
	var (
		mirror    records.Mirror
		recreator services.Recreator
	)
	if config.SheetsEnabled {
		b.Caches = cache.NewManager(f.logger)
		remote, container, err := f.createSync(ctx, config, tax, store, b.Caches)
		if err != nil {
			closeStore()
			return nil, err
		}
		b.Remote, b.Container = remote, container
		mirror, recreator = remote, container
		b.Caches.StartCleanup(cacheCleanupInterval)
		cleanups = append(cleanups, func() error { b.Caches.Stop(); return nil })
	} else {
		f.logger.Info("Spreadsheet mirror disabled")
	}

	b.Records = records.New(store, records.Options{
		Mirror:   mirror,
		Logger:   f.logger.WithComponent(log.ComponentRecords),
		Location: config.Location,
	})
	b.Pipeline = services.NewExpenseService(b.Classifier, b.Records, recreator, f.logger)
	b.Sync = services.NewSyncService(b.Remote, b.Records, recreator, f.logger)

	b.Cleanup = func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			errs = append(errs, cleanups[i]())
		}
		return errors.Join(errs...)
	}
	return b, nil
}

func (f *DefaultFactory) createStore(config Config) (kv.Store, func() error, error) {
	switch config.Storage {
	case SQLiteStorage:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite storage", "db_path", config.SQLiteDBPath)
		return repo, repo.Close, nil
	case MemoryStorage:
		f.logger.Info("Initialized memory storage")
		m := kv.NewMemory()
		return m, m.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported storage backend: %s", config.Storage)
}

func (f *DefaultFactory) createClassifier(ctx context.Context, config Config, tax core.Taxonomy) *classifier.Classifier {
	var gen classifier.Generator
	if config.GeminiAPIKey != "" {
		g, err := classifier.NewGemini(ctx, config.GeminiAPIKey, config.GeminiModel)
		if err != nil {
			f.logger.Warn("Gemini unavailable, using fallback parser only", log.FieldError, err)
		} else {
			gen = g
		}
	}
	c := classifier.New(gen, classifier.Options{
		Timeout:         config.ClassifierTimeout,
		Taxonomy:        tax,
		EnforceTaxonomy: config.EnforceTaxonomy,
		Location:        config.Location,
		Logger:          f.logger.WithComponent(log.ComponentClassifier),
	})
	f.logger.Info("Initialized classifier", "remote", c.Remote())
	return c
}

func (f *DefaultFactory) createSync(ctx context.Context, config Config, tax core.Taxonomy, store kv.Store, caches *cache.Manager) (sheets.Sync, *sheets.Container, error) {
	api := config.SheetsAPI
	if api == nil {
		creds, err := auth.New(ctx, config.Auth)
		if err != nil {
			return nil, nil, fmt.Errorf("load Google credentials: %w", err)
		}
		client, err := gsheet.New(ctx, creds, gsheet.Options{Logger: f.logger, Cache: caches})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		api = client
	}

	sheetsLogger := f.logger.WithComponent(log.ComponentSheets)
	container := sheets.NewContainer(api, store, config.SpreadsheetID, "", sheetsLogger)
	remote, err := sheets.New(config.SheetsLayout, api, container, sheets.Options{
		Naming:   sheets.NewNaming(config.SheetNaming, config.SheetName, config.SheetLocale, config.Location),
		Taxonomy: tax,
		Logger:   sheetsLogger,
	})
	if err != nil {
		return nil, nil, err
	}
	f.logger.Info("Initialized spreadsheet mirror",
		"layout", remote.Layout(),
		log.FieldSpreadsheetID, config.SpreadsheetID)
	return remote, container, nil
}
