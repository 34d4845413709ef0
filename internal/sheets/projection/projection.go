// Package projection maps a (category, subcategory) pair onto a cell of the
// grid layout: one block of columns per category, one row per subcategory.
package projection

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"spesevoce/internal/core"
)

// BlockWidth is label, running total and an empty separator column.
const BlockWidth = 3

// First subcategory row; row 0 carries the category headers.
const firstSubRow = 1

// Cell is a 0-based grid coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// A1 renders the cell in spreadsheet notation, e.g. {Row: 2, Col: 1} -> "B3".
func (c Cell) A1() string {
	return ColumnToLabel(c.Col) + strconv.Itoa(c.Row+1)
}

// Block is one category's column block.
type Block struct {
	Category      string
	Subcategories []string
	Column        int
}

// LabelCell holds the category header.
func (b Block) LabelCell() Cell { return Cell{Row: 0, Col: b.Column} }

// TotalColumn holds the running totals of the subcategories.
func (b Block) TotalColumn() int { return b.Column + 1 }

// SumCell holds the =SUM over the block's totals.
func (b Block) SumCell() Cell {
	return Cell{Row: firstSubRow + len(b.Subcategories), Col: b.TotalColumn()}
}

// TotalsRange is the A1 range of the block's running totals, empty when the
// category has no subcategories.
func (b Block) TotalsRange() string {
	if len(b.Subcategories) == 0 {
		return ""
	}
	col := ColumnToLabel(b.TotalColumn())
	return col + strconv.Itoa(firstSubRow+1) + ":" + col + strconv.Itoa(firstSubRow+len(b.Subcategories))
}

type key struct{ category, subcategory string }

// Template is the grid laid out for one taxonomy.
type Template struct {
	Blocks []Block
	index  map[key]Cell
	cats   map[string]int
	height int
}

// BuildTemplate lays the taxonomy out left to right in iteration order,
// starting at column 0 with no gaps between blocks.
func BuildTemplate(tax core.Taxonomy) Template {
	t := Template{
		Blocks: make([]Block, 0, len(tax)),
		index:  make(map[key]Cell),
		cats:   make(map[string]int),
	}
	for i, c := range tax {
		b := Block{
			Category:      c.Name,
			Subcategories: append([]string(nil), c.Subcategories...),
			Column:        i * BlockWidth,
		}
		t.Blocks = append(t.Blocks, b)
		fc := Fold(c.Name)
		if _, dup := t.cats[fc]; !dup {
			t.cats[fc] = i
		}
		for j, s := range b.Subcategories {
			k := key{fc, Fold(s)}
			if _, dup := t.index[k]; dup {
				continue
			}
			t.index[k] = Cell{Row: firstSubRow + j, Col: b.TotalColumn()}
		}
		if len(b.Subcategories) > t.height {
			t.height = len(b.Subcategories)
		}
	}
	return t
}

// Width is the number of columns the template spans.
func (t Template) Width() int { return len(t.Blocks) * BlockWidth }

// GrandTotalRow sits below the tallest block's sum row.
func (t Template) GrandTotalRow() int { return firstSubRow + t.height + 1 }

// Rows is the number of rows the template spans.
func (t Template) Rows() int { return t.GrandTotalRow() + 1 }

// LocateCell finds the running-total cell of the pair. Inputs are trimmed and
// case-folded; anything but an exact match is not found.
func (t Template) LocateCell(category, subcategory string) (Cell, bool) {
	c, ok := t.index[key{Fold(category), Fold(subcategory)}]
	return c, ok
}

// Fold normalizes a label for comparison.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// ColumnToLabel is the bijective base-26 column name: 0 -> A, 25 -> Z, 26 -> AA.
func ColumnToLabel(i int) string {
	if i < 0 {
		return ""
	}
	var buf []byte
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		buf = append(buf, byte('A'+(n-1)%26))
	}
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	return string(buf)
}

// LabelToColumn is the inverse of ColumnToLabel; it returns -1 for anything
// that is not a run of letters.
func LabelToColumn(label string) int {
	if label == "" {
		return -1
	}
	n := 0
	for _, ch := range strings.ToUpper(label) {
		if ch < 'A' || ch > 'Z' {
			return -1
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1
}
