package sheets

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spesevoce/internal/core"
	"spesevoce/internal/log"
	"spesevoce/internal/sheets/projection"
)

// Headers is the row layout, in column order.
var Headers = []string{
	"Date", "Time", "Category", "Description", "Amount", "Currency",
	"PaymentMethod", "Location", "Tags", "Priority", "Subcategory", "Timestamp",
}

const (
	colDate = iota
	colTime
	colCategory
	colDescription
	colAmount
	colCurrency
	colPaymentMethod
	colLocation
	colTags
	colPriority
	colSubcategory
	colTimestamp
)

var (
	headerBackground = Color{Red: 0.2, Green: 0.2, Blue: 0.2}
	white            = Color{Red: 1, Green: 1, Blue: 1}

	// Pastel row tints, picked by the category's taxonomy position.
	rowPalette = []Color{
		{0.99, 0.91, 0.85}, {0.85, 0.92, 0.99}, {0.88, 0.97, 0.88}, {0.99, 0.97, 0.84},
		{0.93, 0.88, 0.98}, {0.84, 0.97, 0.96}, {0.99, 0.88, 0.93}, {0.92, 0.92, 0.92},
		{0.96, 0.93, 0.86}, {0.87, 0.95, 0.91}, {0.95, 0.89, 0.89},
	}
)

func dataRange() string {
	return "A2:" + projection.ColumnToLabel(len(Headers)-1)
}

// RowSync writes one row per expense.
type RowSync struct {
	engine
}

var _ Sync = (*RowSync)(nil)

func NewRowSync(api Spreadsheet, c *Container, opts Options) *RowSync {
	return &RowSync{engine: newEngine(api, c, opts)}
}

func (s *RowSync) Layout() string { return LayoutRows }

func (s *RowSync) init() sheetInit {
	return sheetInit{rows: 1000, cols: len(Headers), build: s.writeHeader}
}

func (s *RowSync) writeHeader(ctx context.Context, id, sheet string) error {
	f := &CellFormat{Background: &headerBackground, Foreground: &white, Bold: true, Center: true}
	updates := make([]CellUpdate, len(Headers))
	for i, h := range Headers {
		updates[i] = CellUpdate{Row: 0, Col: i, Value: h, Format: f}
	}
	return s.api.UpdateCells(ctx, id, sheet, updates)
}

func (s *RowSync) EnsureContainerExists(ctx context.Context, sheet string) error {
	return s.ensureNamed(ctx, sheet, s.init())
}

// AppendRecord probes the spreadsheet, ensures the destination sheet and
// appends r as one row. A deleted spreadsheet yields ErrContainerNotFound.
func (s *RowSync) AppendRecord(ctx context.Context, r core.Record) error {
	id, known, err := s.container.Probe(ctx)
	if err != nil {
		return err
	}
	return s.queue.Do(ctx, id, func(ctx context.Context) error {
		return s.appendLocked(ctx, id, known, r)
	})
}

func (s *RowSync) appendLocked(ctx context.Context, id string, known []SheetInfo, r core.Record) error {
	sheet := s.SheetName(r)
	if err := s.ensure(ctx, id, known, sheet, s.init()); err != nil {
		return err
	}
	row, err := s.api.AppendRow(ctx, id, sheet, s.recordToRow(r))
	if err != nil {
		return fmt.Errorf("append row to %q: %w", sheet, err)
	}
	if err := s.api.UpdateCells(ctx, id, sheet, s.rowTint(row, r.Category)); err != nil {
		s.logger.WarnContext(ctx, "Failed to colour row", log.FieldSheet, sheet, log.FieldError, err)
	}
	return nil
}

func (s *RowSync) LoadAll(ctx context.Context) ([]core.Record, error) {
	id, known, err := s.container.Probe(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.Record
	for _, sh := range s.naming.managed(known) {
		values, err := s.api.ReadRange(ctx, id, A1(sh.Title, dataRange()))
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", sh.Title, err)
		}
		for i, row := range values {
			// Data starts on the second sheet row.
			if r, ok := s.parseRow(row, id, sh.Title, i+1); ok {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// UploadAll replaces the data rows of every managed sheet with records,
// appended one at a time in the given order. There is no rollback.
func (s *RowSync) UploadAll(ctx context.Context, records []core.Record) error {
	id, known, err := s.container.Probe(ctx)
	if err != nil {
		return err
	}
	if err := s.clearManaged(ctx, id, known, []string{dataRange()}); err != nil {
		return err
	}
	for i, r := range records {
		err := s.queue.Do(ctx, id, func(ctx context.Context) error {
			return s.appendLocked(ctx, id, known, r)
		})
		if err != nil {
			return fmt.Errorf("upload record %d of %d: %w", i+1, len(records), err)
		}
	}
	return nil
}

func (s *RowSync) DownloadAll(ctx context.Context) ([]core.Record, error) {
	return download(ctx, s)
}

func (s *RowSync) recordToRow(r core.Record) []any {
	clock := r.Draft.Time
	if clock == "" {
		clock = r.CreatedAt().In(s.naming.Location).Format("15:04")
	}
	return []any{
		r.Day(s.naming.Location),
		clock,
		r.Category,
		r.Description,
		r.Amount.InexactFloat64(),
		r.Currency,
		r.PaymentMethod,
		r.Location,
		strings.Join(r.Tags, ", "),
		string(r.Priority),
		r.Subcategory,
		r.Timestamp,
	}
}

// parseRow tolerates short rows; rows without a usable timestamp or date
// are skipped.
func (s *RowSync) parseRow(row []any, id, sheet string, index int) (core.Record, bool) {
	cells := make([]string, len(Headers))
	empty := true
	for i := range cells {
		if i < len(row) {
			cells[i] = cellString(row[i])
		}
		if cells[i] != "" {
			empty = false
		}
	}
	if empty {
		return core.Record{}, false
	}

	ts, ok := core.ParseMillis(cells[colTimestamp])
	if !ok {
		t, ok := s.parseDateTime(cells[colDate], cells[colTime])
		if !ok {
			return core.Record{}, false
		}
		ts = t.UnixMilli()
	}

	var tags []string
	for _, t := range strings.Split(cells[colTags], ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	var amount decimal.Decimal
	if colAmount < len(row) {
		amount = projection.ParseCellNumber(row[colAmount])
	}

	r := core.Record{
		ID:        rowID(id, sheet, index),
		Timestamp: ts,
		Draft: core.Draft{
			Amount:        amount,
			Currency:      cells[colCurrency],
			Category:      cells[colCategory],
			Subcategory:   cells[colSubcategory],
			Description:   cells[colDescription],
			Location:      cells[colLocation],
			Date:          cells[colDate],
			Time:          cells[colTime],
			PaymentMethod: cells[colPaymentMethod],
			Tags:          tags,
			Priority:      core.ParsePriority(cells[colPriority]),
		},
	}
	r.Draft = r.Draft.Normalize()
	return r, true
}

func (s *RowSync) parseDateTime(date, clock string) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}
	if clock != "" {
		if t, err := time.ParseInLocation(core.DateLayout+" 15:04", date+" "+clock, s.naming.Location); err == nil {
			return t, true
		}
	}
	t, err := time.ParseInLocation(core.DateLayout, date, s.naming.Location)
	return t, err == nil
}

func (s *RowSync) rowTint(row int, category string) []CellUpdate {
	c := rowPalette[paletteIndex(s.tax, category)]
	f := &CellFormat{Background: &c}
	updates := make([]CellUpdate, len(Headers))
	for i := range updates {
		updates[i] = CellUpdate{Row: row, Col: i, Format: f}
	}
	return updates
}

func paletteIndex(tax core.Taxonomy, category string) int {
	want := projection.Fold(category)
	for i, c := range tax {
		if projection.Fold(c.Name) == want {
			return i % len(rowPalette)
		}
	}
	h := fnv.New32a()
	h.Write([]byte(want))
	return int(h.Sum32() % uint32(len(rowPalette)))
}

// rowID derives a stable id from the row position, so reloading the same
// sheet yields the same ids.
func rowID(spreadsheetID, sheet string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(spreadsheetID+"/"+sheet+"/"+strconv.Itoa(index))).String()
}

// cellString renders an unformatted cell value without exponent notation.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
