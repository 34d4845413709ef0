package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"spesevoce/internal/core"
	"spesevoce/internal/log"
)

const (
	LayoutRows = "rows"
	LayoutGrid = "grid"
)

// Options configure a Sync strategy.
type Options struct {
	Naming   Naming
	Taxonomy core.Taxonomy
	Logger   *log.Logger
	Now      func() time.Time
}

// New returns the Sync strategy for layout.
func New(layout string, api Spreadsheet, c *Container, opts Options) (Sync, error) {
	switch layout {
	case LayoutRows, "":
		return NewRowSync(api, c, opts), nil
	case LayoutGrid:
		return NewGridSync(api, c, opts), nil
	}
	return nil, fmt.Errorf("unknown sheets layout %q", layout)
}

// engine holds what both layouts share: the port, the container, sheet
// naming, the per-spreadsheet write queue and creation dedup.
type engine struct {
	api       Spreadsheet
	container *Container
	naming    Naming
	tax       core.Taxonomy
	queue     *writeQueue
	group     singleflight.Group
	logger    *log.Logger
	now       func() time.Time
}

func newEngine(api Spreadsheet, c *Container, opts Options) engine {
	e := engine{
		api:       api,
		container: c,
		naming:    opts.Naming,
		tax:       opts.Taxonomy,
		queue:     newWriteQueue(),
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if e.naming.pattern == nil {
		e.naming = NewNaming(e.naming.Mode, e.naming.Fixed, e.naming.Locale, e.naming.Location)
	}
	if e.tax == nil {
		e.tax = core.DefaultTaxonomy()
	}
	if e.logger == nil {
		e.logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentSheets)
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// SheetName resolves the destination sheet of r.
func (e *engine) SheetName(r core.Record) string {
	return e.naming.SheetName(r)
}

type sheetInit struct {
	rows, cols int
	build      func(ctx context.Context, id, sheet string) error
}

// ensure creates sheet in spreadsheet id unless it is already listed in
// known. Concurrent ensures of one sheet share a single creation, and a
// lost creation race ("already exists") counts as success.
func (e *engine) ensure(ctx context.Context, id string, known []SheetInfo, sheet string, init sheetInit) error {
	if hasSheet(known, sheet) {
		return nil
	}
	_, err, _ := e.group.Do(id+"\x00"+sheet, func() (any, error) {
		current, err := e.api.Sheets(ctx, id)
		if err != nil {
			return nil, err
		}
		if hasSheet(current, sheet) {
			return nil, nil
		}
		if _, err := e.api.AddSheet(ctx, id, sheet, init.rows, init.cols); err != nil {
			if errors.Is(err, ErrContainerExists) {
				return nil, nil
			}
			return nil, fmt.Errorf("add sheet %q: %w", sheet, err)
		}
		if err := init.build(ctx, id, sheet); err != nil {
			return nil, fmt.Errorf("initialize sheet %q: %w", sheet, err)
		}
		e.logger.InfoContext(ctx, "Sheet created", log.FieldSpreadsheetID, id, log.FieldSheet, sheet)
		return nil, nil
	})
	return err
}

func (e *engine) ensureNamed(ctx context.Context, sheet string, init sheetInit) error {
	id, known, err := e.container.Probe(ctx)
	if err != nil {
		return err
	}
	return e.queue.Do(ctx, id, func(ctx context.Context) error {
		return e.ensure(ctx, id, known, sheet, init)
	})
}

// clearManaged blanks the given ranges of every managed sheet.
func (e *engine) clearManaged(ctx context.Context, id string, known []SheetInfo, ranges []string) error {
	return e.queue.Do(ctx, id, func(ctx context.Context) error {
		for _, sh := range e.naming.managed(known) {
			for _, rng := range ranges {
				if err := e.api.ClearRange(ctx, id, A1(sh.Title, rng)); err != nil {
					return fmt.Errorf("clear %s: %w", A1(sh.Title, rng), err)
				}
			}
		}
		return nil
	})
}

func hasSheet(sheets []SheetInfo, title string) bool {
	for _, s := range sheets {
		if s.Title == title {
			return true
		}
	}
	return false
}

func download(ctx context.Context, s Sync) ([]core.Record, error) {
	records, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	SortNewestFirst(records)
	return records, nil
}
