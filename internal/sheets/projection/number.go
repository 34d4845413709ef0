package projection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"spesevoce/internal/core"
)

// ParseCellNumber reads a cell value as returned by the spreadsheet API:
// a JSON number, or a string with a comma or dot separator. Empty or
// unparseable cells are zero.
func ParseCellNumber(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case float64:
		return decimal.NewFromFloat(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case string:
		return parseSigned(x)
	default:
		return parseSigned(fmt.Sprint(x))
	}
}

// Cells may legitimately hold negative running totals after corrections,
// so the sign is handled here rather than by core.ParseAmount.
func parseSigned(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg, s = true, s[1:]
	}
	d, ok := core.ParseAmount(s)
	if !ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			d = decimal.NewFromFloat(f)
		} else {
			return decimal.Zero
		}
	}
	if neg {
		return d.Neg()
	}
	return d
}
