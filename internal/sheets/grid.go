package sheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"spesevoce/internal/core"
	"spesevoce/internal/log"
	"spesevoce/internal/sheets/projection"
)

// GrandTotalLabel heads the grand total row of a grid sheet.
const GrandTotalLabel = "Всего € :"

var ErrNoCell = errors.New("no grid cell for category")

// Header colours cycle through the blocks.
var blockPalette = []Color{
	{0.96, 0.70, 0.42}, {0.43, 0.62, 0.92}, {0.42, 0.78, 0.49}, {0.95, 0.80, 0.26},
	{0.70, 0.53, 0.87}, {0.30, 0.75, 0.75}, {0.93, 0.45, 0.60}, {0.60, 0.60, 0.60},
}

// GridSync keeps one running total per (category, subcategory) cell.
type GridSync struct {
	engine
	tpl projection.Template
}

var _ Sync = (*GridSync)(nil)

func NewGridSync(api Spreadsheet, c *Container, opts Options) *GridSync {
	e := newEngine(api, c, opts)
	return &GridSync{engine: e, tpl: projection.BuildTemplate(e.tax)}
}

func (g *GridSync) Layout() string { return LayoutGrid }

// Template exposes the grid layout in use.
func (g *GridSync) Template() projection.Template { return g.tpl }

func (g *GridSync) init() sheetInit {
	return sheetInit{rows: max(g.tpl.Rows(), 100), cols: max(g.tpl.Width(), 1), build: g.writeTemplate}
}

func (g *GridSync) writeTemplate(ctx context.Context, id, sheet string) error {
	var updates []CellUpdate
	sums := make([]string, 0, len(g.tpl.Blocks))
	for i, b := range g.tpl.Blocks {
		bg := blockPalette[i%len(blockPalette)]
		head := &CellFormat{Background: &bg, Foreground: &white, Bold: true, Center: true}
		updates = append(updates,
			CellUpdate{Row: 0, Col: b.Column, Value: b.Category, Format: head},
			CellUpdate{Row: 0, Col: b.TotalColumn(), Value: "∑", Format: head},
		)
		for j, sub := range b.Subcategories {
			updates = append(updates, CellUpdate{Row: 1 + j, Col: b.Column, Value: sub})
		}
		sum := b.SumCell()
		formula := "=0"
		if rng := b.TotalsRange(); rng != "" {
			formula = "=SUM(" + rng + ")"
		}
		updates = append(updates, CellUpdate{Row: sum.Row, Col: sum.Col, Value: formula, Format: &CellFormat{Bold: true}})
		sums = append(sums, sum.A1())
	}
	if len(sums) > 0 {
		row := g.tpl.GrandTotalRow()
		bold := &CellFormat{Bold: true}
		updates = append(updates,
			CellUpdate{Row: row, Col: 0, Value: GrandTotalLabel, Format: bold},
			CellUpdate{Row: row, Col: 1, Value: "=" + strings.Join(sums, "+"), Format: bold},
		)
	}
	return g.api.UpdateCells(ctx, id, sheet, updates)
}

func (g *GridSync) EnsureContainerExists(ctx context.Context, sheet string) error {
	return g.ensureNamed(ctx, sheet, g.init())
}

// AppendRecord adds r.Amount to the cell its category pair resolves to.
func (g *GridSync) AppendRecord(ctx context.Context, r core.Record) error {
	id, known, err := g.container.Probe(ctx)
	if err != nil {
		return err
	}
	return g.queue.Do(ctx, id, func(ctx context.Context) error {
		return g.appendLocked(ctx, id, known, r)
	})
}

func (g *GridSync) appendLocked(ctx context.Context, id string, known []SheetInfo, r core.Record) error {
	cell, err := g.project(ctx, r)
	if err != nil {
		return err
	}
	sheet := g.SheetName(r)
	if err := g.ensure(ctx, id, known, sheet, g.init()); err != nil {
		return err
	}
	return g.accumulate(ctx, id, sheet, cell, r.Amount)
}

func (g *GridSync) project(ctx context.Context, r core.Record) (projection.Cell, error) {
	res := g.tpl.Resolve(r.Category, r.Subcategory)
	if res.Guessed() {
		g.logger.WarnContext(ctx, "Category resolved by default fallback",
			log.FieldRecordID, r.ID,
			log.FieldPrimaryCategory, r.Category,
			log.FieldSecondaryCategory, r.Subcategory,
			log.FieldMatchKind, res.CategoryMatch.String()+"/"+res.SubcategoryMatch.String(),
			"resolved", res.Category+"/"+res.Subcategory)
	}
	cell, ok := g.tpl.LocateCell(res.Category, res.Subcategory)
	if !ok {
		return projection.Cell{}, fmt.Errorf("%w: %q/%q", ErrNoCell, r.Category, r.Subcategory)
	}
	return cell, nil
}

// AccumulateCell adds delta to the number in cell, serialized with every
// other mutation of the same spreadsheet.
func (g *GridSync) AccumulateCell(ctx context.Context, sheet string, cell projection.Cell, delta decimal.Decimal) error {
	id, err := g.container.ID(ctx)
	if err != nil {
		return err
	}
	return g.queue.Do(ctx, id, func(ctx context.Context) error {
		return g.accumulate(ctx, id, sheet, cell, delta)
	})
}

// accumulate is the bare read-modify-write; callers provide serialization.
func (g *GridSync) accumulate(ctx context.Context, id, sheet string, cell projection.Cell, delta decimal.Decimal) error {
	rng := A1(sheet, cell.A1())
	values, err := g.api.ReadRange(ctx, id, rng)
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	var current any
	if len(values) > 0 && len(values[0]) > 0 {
		current = values[0][0]
	}
	next := projection.ParseCellNumber(current).Add(delta)
	if err := g.api.WriteRange(ctx, id, rng, [][]any{{next.InexactFloat64()}}); err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	g.logger.DebugContext(ctx, "Cell accumulated", log.FieldSheet, sheet, log.FieldCell, cell.A1(), log.FieldAmount, next.String())
	return nil
}

// LoadAll returns one aggregate record per non-zero cell. Grid sheets keep
// only totals, so individual expenses cannot be recovered.
func (g *GridSync) LoadAll(ctx context.Context) ([]core.Record, error) {
	id, known, err := g.container.Probe(ctx)
	if err != nil {
		return nil, err
	}
	if len(g.tpl.Blocks) == 0 {
		return nil, nil
	}
	rng := "A1:" + projection.ColumnToLabel(g.tpl.Width()-1) + strconv.Itoa(g.tpl.Rows())
	var out []core.Record
	for _, sh := range g.naming.managed(known) {
		values, err := g.api.ReadRange(ctx, id, A1(sh.Title, rng))
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", sh.Title, err)
		}
		start, ok := g.naming.MonthStart(sh.Title)
		if !ok {
			start = g.now()
		}
		for _, b := range g.tpl.Blocks {
			for j, sub := range b.Subcategories {
				row, col := 1+j, b.TotalColumn()
				amount := projection.ParseCellNumber(valueAt(values, row, col))
				if amount.IsZero() {
					continue
				}
				cell := projection.Cell{Row: row, Col: col}
				out = append(out, core.Record{
					ID:        rowID(id, sh.Title, row*1000+col),
					Timestamp: start.UnixMilli(),
					Draft: core.Draft{
						Amount:      amount,
						Category:    b.Category,
						Subcategory: sub,
						Description: b.Category + " / " + sub,
						Date:        start.Format(core.DateLayout),
						Notes:       "total of " + A1(sh.Title, cell.A1()),
					}.Normalize(),
				})
			}
		}
	}
	return out, nil
}

// UploadAll zeroes every running total of the managed sheets, then
// accumulates records one by one. There is no rollback.
func (g *GridSync) UploadAll(ctx context.Context, records []core.Record) error {
	id, known, err := g.container.Probe(ctx)
	if err != nil {
		return err
	}
	var ranges []string
	for _, b := range g.tpl.Blocks {
		if rng := b.TotalsRange(); rng != "" {
			ranges = append(ranges, rng)
		}
	}
	if err := g.clearManaged(ctx, id, known, ranges); err != nil {
		return err
	}
	for i, r := range records {
		err := g.queue.Do(ctx, id, func(ctx context.Context) error {
			return g.appendLocked(ctx, id, known, r)
		})
		if err != nil {
			return fmt.Errorf("upload record %d of %d: %w", i+1, len(records), err)
		}
	}
	return nil
}

func (g *GridSync) DownloadAll(ctx context.Context) ([]core.Record, error) {
	return download(ctx, g)
}

func valueAt(values [][]any, row, col int) any {
	if row < 0 || row >= len(values) || col < 0 || col >= len(values[row]) {
		return nil
	}
	return values[row][col]
}
