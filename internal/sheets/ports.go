package sheets

import (
	"context"
	"errors"

	"spesevoce/internal/auth"
	"spesevoce/internal/core"
)

var (
	// ErrContainerNotFound means the spreadsheet itself is gone, typically
	// deleted by the user. Callers recreate it and retry once.
	ErrContainerNotFound = errors.New("spreadsheet not found")
	// ErrContainerExists is returned when adding a sheet whose title is taken.
	ErrContainerExists = errors.New("sheet already exists")
	// ErrMissingCredential is returned before any network call when there is
	// no valid token.
	ErrMissingCredential = auth.ErrMissingCredential
)

// Ports for outbound adapters.
type (
	SheetInfo struct {
		ID    int64
		Title string
		Index int
	}

	Color struct {
		Red, Green, Blue float64
	}

	// CellFormat is applied together with, or instead of, a value.
	CellFormat struct {
		Background *Color
		Foreground *Color
		Bold       bool
		Center     bool
	}

	// CellUpdate writes one cell. A string starting with "=" is a formula.
	// A nil Value with a Format only changes the formatting.
	CellUpdate struct {
		Row, Col int
		Value    any
		Format   *CellFormat
	}

	// Spreadsheet is the low-level remote API. A1 ranges are passed through
	// unchanged and must quote sheet titles (see A1).
	Spreadsheet interface {
		CreateSpreadsheet(ctx context.Context, title, firstSheet string) (id string, err error)
		Sheets(ctx context.Context, spreadsheetID string) ([]SheetInfo, error)
		AddSheet(ctx context.Context, spreadsheetID, title string, rows, cols int) (SheetInfo, error)
		UpdateCells(ctx context.Context, spreadsheetID, sheet string, updates []CellUpdate) error
		// AppendRow appends after the last non-empty row and returns its 0-based index.
		AppendRow(ctx context.Context, spreadsheetID, sheet string, values []any) (row int, err error)
		ReadRange(ctx context.Context, spreadsheetID, a1 string) ([][]any, error)
		WriteRange(ctx context.Context, spreadsheetID, a1 string, values [][]any) error
		ClearRange(ctx context.Context, spreadsheetID, a1 string) error
	}

	// Sync mirrors records into a spreadsheet using one layout.
	Sync interface {
		Layout() string
		SheetName(r core.Record) string
		EnsureContainerExists(ctx context.Context, sheetName string) error
		AppendRecord(ctx context.Context, r core.Record) error
		LoadAll(ctx context.Context) ([]core.Record, error)
		UploadAll(ctx context.Context, records []core.Record) error
		DownloadAll(ctx context.Context) ([]core.Record, error)
	}
)
