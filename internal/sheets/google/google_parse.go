package google

import (
	"fmt"
	"strings"

	gsheet "google.golang.org/api/sheets/v4"

	ports "spesevoce/internal/sheets"
)

func toSheetInfo(p *gsheet.SheetProperties) ports.SheetInfo {
	return ports.SheetInfo{ID: p.SheetId, Title: p.Title, Index: int(p.Index)}
}

// parseUpdatedRow reads the 0-based first row of a reply range such as
// "'май 2026'!A5:L5".
func parseUpdatedRow(rng string) (int, error) {
	_, g, err := ports.ParseA1(rng)
	if err != nil {
		return 0, fmt.Errorf("parse updated range %q: %w", rng, err)
	}
	if g.StartRow < 0 {
		return 0, fmt.Errorf("updated range %q has no row", rng)
	}
	return g.StartRow, nil
}

func toExtendedValue(v any) *gsheet.ExtendedValue {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if strings.HasPrefix(x, "=") {
			return &gsheet.ExtendedValue{FormulaValue: &x}
		}
		return &gsheet.ExtendedValue{StringValue: &x}
	case float64:
		return &gsheet.ExtendedValue{NumberValue: &x}
	case int:
		f := float64(x)
		return &gsheet.ExtendedValue{NumberValue: &f}
	case int64:
		f := float64(x)
		return &gsheet.ExtendedValue{NumberValue: &f}
	case bool:
		return &gsheet.ExtendedValue{BoolValue: &x}
	}
	s := fmt.Sprint(v)
	return &gsheet.ExtendedValue{StringValue: &s}
}

func toColor(c *ports.Color) *gsheet.Color {
	if c == nil {
		return nil
	}
	return &gsheet.Color{Red: c.Red, Green: c.Green, Blue: c.Blue}
}

func toCellFormat(f *ports.CellFormat) *gsheet.CellFormat {
	if f == nil {
		return nil
	}
	out := &gsheet.CellFormat{BackgroundColor: toColor(f.Background)}
	if f.Bold || f.Foreground != nil {
		out.TextFormat = &gsheet.TextFormat{Bold: f.Bold, ForegroundColor: toColor(f.Foreground)}
	}
	if f.Center {
		out.HorizontalAlignment = "CENTER"
	}
	return out
}

// toUpdateCellsRequest touches only the fields the update carries.
func toUpdateCellsRequest(sheetID int64, u ports.CellUpdate) *gsheet.UpdateCellsRequest {
	cell := &gsheet.CellData{
		UserEnteredValue:  toExtendedValue(u.Value),
		UserEnteredFormat: toCellFormat(u.Format),
	}
	var fields []string
	if cell.UserEnteredValue != nil {
		fields = append(fields, "userEnteredValue")
	}
	if cell.UserEnteredFormat != nil {
		fields = append(fields, "userEnteredFormat")
	}
	if len(fields) == 0 {
		return nil
	}
	return &gsheet.UpdateCellsRequest{
		Start: &gsheet.GridCoordinate{
			SheetId:     sheetID,
			RowIndex:    int64(u.Row),
			ColumnIndex: int64(u.Col),
			// Zero is a valid sheet id and index; without this it is omitted.
			ForceSendFields: []string{"SheetId", "RowIndex", "ColumnIndex"},
		},
		Rows:   []*gsheet.RowData{{Values: []*gsheet.CellData{cell}}},
		Fields: strings.Join(fields, ","),
	}
}
