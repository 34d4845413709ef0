package sheets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"spesevoce/internal/kv"
	"spesevoce/internal/log"
)

// DefaultSpreadsheetTitle names spreadsheets created on demand.
const DefaultSpreadsheetTitle = "Spese vocali"

// Container owns the id of the spreadsheet the mirror writes to. The id is
// persisted under kv.KeySpreadsheetID and seeded from configuration.
type Container struct {
	api        Spreadsheet
	store      kv.Store
	seed       string
	title      string
	firstSheet string
	logger     *log.Logger

	mu    sync.RWMutex
	id    string
	group singleflight.Group
}

func NewContainer(api Spreadsheet, store kv.Store, seedID, firstSheet string, logger *log.Logger) *Container {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentSheets)
	}
	return &Container{
		api:        api,
		store:      store,
		seed:       seedID,
		title:      DefaultSpreadsheetTitle,
		firstSheet: firstSheet,
		logger:     logger,
	}
}

// ID returns the current spreadsheet id. With none saved or configured it
// reports ErrContainerNotFound, which drives the same recreate path as a
// deleted spreadsheet.
func (c *Container) ID(ctx context.Context) (string, error) {
	c.mu.RLock()
	id := c.id
	c.mu.RUnlock()
	if id != "" {
		return id, nil
	}

	saved, ok, err := c.store.Get(ctx, kv.KeySpreadsheetID)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to read saved spreadsheet id", log.FieldError, err)
	}
	switch {
	case ok && saved != "":
		id = saved
	case c.seed != "":
		id = c.seed
	default:
		return "", fmt.Errorf("%w: no spreadsheet configured", ErrContainerNotFound)
	}

	c.mu.Lock()
	if c.id == "" {
		c.id = id
	}
	id = c.id
	c.mu.Unlock()
	return id, nil
}

// Probe fetches sheet metadata, which doubles as the existence check.
func (c *Container) Probe(ctx context.Context) (string, []SheetInfo, error) {
	id, err := c.ID(ctx)
	if err != nil {
		return "", nil, err
	}
	sheets, err := c.api.Sheets(ctx, id)
	if err != nil {
		return id, nil, err
	}
	return id, sheets, nil
}

// Recreate creates a fresh spreadsheet and saves its id. Concurrent callers
// share one creation.
func (c *Container) Recreate(ctx context.Context) (string, error) {
	v, err, _ := c.group.Do("recreate", func() (any, error) {
		id, err := c.api.CreateSpreadsheet(ctx, c.title, c.firstSheet)
		if err != nil {
			return "", fmt.Errorf("create spreadsheet: %w", err)
		}
		c.mu.Lock()
		c.id = id
		c.mu.Unlock()
		if err := c.store.Set(ctx, kv.KeySpreadsheetID, id); err != nil {
			c.logger.WarnContext(ctx, "Failed to save spreadsheet id", log.FieldSpreadsheetID, id, log.FieldError, err)
		}
		c.logger.InfoContext(ctx, "Spreadsheet created", log.FieldSpreadsheetID, id)
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Use switches to an existing spreadsheet id and saves it.
func (c *Container) Use(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("empty spreadsheet id")
	}
	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
	return c.store.Set(ctx, kv.KeySpreadsheetID, id)
}
