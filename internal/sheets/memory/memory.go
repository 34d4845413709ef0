// Package memory is an in-process spreadsheet used by tests and by
// SHEETS_ENABLED=false development setups that still want the sync paths.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"spesevoce/internal/auth"
	"spesevoce/internal/sheets"
)

type cellKey struct{ row, col int }

type sheet struct {
	info    sheets.SheetInfo
	cells   map[cellKey]any
	formats map[cellKey]sheets.CellFormat
}

type book struct {
	title  string
	sheets []*sheet
	nextID int64
}

// Store implements sheets.Spreadsheet in memory.
type Store struct {
	mu     sync.Mutex
	books  map[string]*book
	nextID int
	creds  auth.Provider

	// BeforeWrite, when set, runs before every WriteRange outside the lock.
	// Tests use it to interleave concurrent read-modify-write cycles.
	BeforeWrite func(a1 string)

	calls atomic.Int64
}

var _ sheets.Spreadsheet = (*Store)(nil)

func New() *Store {
	return &Store{books: make(map[string]*book)}
}

// WithCredentials makes every call check p first, like the Google client.
func (s *Store) WithCredentials(p auth.Provider) *Store {
	s.mu.Lock()
	s.creds = p
	s.mu.Unlock()
	return s
}

// Calls counts remote calls that passed the credential check.
func (s *Store) Calls() int64 { return s.calls.Load() }

func (s *Store) begin(ctx context.Context) error {
	s.mu.Lock()
	p := s.creds
	s.mu.Unlock()
	if p != nil {
		if _, err := p.Token(ctx); err != nil {
			return sheets.ErrMissingCredential
		}
	}
	s.calls.Add(1)
	return nil
}

func (s *Store) CreateSpreadsheet(ctx context.Context, title, firstSheet string) (string, error) {
	if err := s.begin(ctx); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := "mem-" + strconv.Itoa(s.nextID)
	b := &book{title: title}
	if firstSheet != "" {
		b.add(firstSheet)
	}
	s.books[id] = b
	return id, nil
}

// Seed registers an empty spreadsheet under a chosen id.
func (s *Store) Seed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[id] = &book{title: id}
}

// DeleteSpreadsheet simulates the user removing the whole spreadsheet.
func (s *Store) DeleteSpreadsheet(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.books, id)
}

// DeleteSheet simulates the user removing one sheet.
func (s *Store) DeleteSheet(id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return
	}
	for i, sh := range b.sheets {
		if sh.info.Title == title {
			b.sheets = append(b.sheets[:i], b.sheets[i+1:]...)
			return
		}
	}
}

func (s *Store) Sheets(ctx context.Context, id string) ([]sheets.SheetInfo, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.book(id)
	if err != nil {
		return nil, err
	}
	out := make([]sheets.SheetInfo, len(b.sheets))
	for i, sh := range b.sheets {
		out[i] = sh.info
	}
	return out, nil
}

func (s *Store) AddSheet(ctx context.Context, id, title string, _, _ int) (sheets.SheetInfo, error) {
	if err := s.begin(ctx); err != nil {
		return sheets.SheetInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.book(id)
	if err != nil {
		return sheets.SheetInfo{}, err
	}
	if b.find(title) != nil {
		return sheets.SheetInfo{}, fmt.Errorf("%w: %q", sheets.ErrContainerExists, title)
	}
	return b.add(title).info, nil
}

func (s *Store) UpdateCells(ctx context.Context, id, title string, updates []sheets.CellUpdate) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.sheet(id, title)
	if err != nil {
		return err
	}
	for _, u := range updates {
		k := cellKey{u.Row, u.Col}
		if u.Value != nil {
			sh.cells[k] = u.Value
		}
		if u.Format != nil {
			sh.formats[k] = *u.Format
		}
	}
	return nil
}

func (s *Store) AppendRow(ctx context.Context, id, title string, values []any) (int, error) {
	if err := s.begin(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.sheet(id, title)
	if err != nil {
		return 0, err
	}
	row := 0
	for k := range sh.cells {
		if k.row+1 > row {
			row = k.row + 1
		}
	}
	for col, v := range values {
		if v != nil && v != "" {
			sh.cells[cellKey{row, col}] = v
		}
	}
	return row, nil
}

func (s *Store) ReadRange(ctx context.Context, id, a1 string) ([][]any, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	title, g, err := sheets.ParseA1(a1)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.sheet(id, title)
	if err != nil {
		return nil, err
	}

	// Like the real API: rows relative to the range start, trailing empty
	// rows and cells trimmed.
	startRow, startCol := max(g.StartRow, 0), max(g.StartCol, 0)
	lastRow := -1
	for k := range sh.cells {
		if g.Contains(k.row, k.col) && k.row > lastRow {
			lastRow = k.row
		}
	}
	if lastRow < startRow {
		return nil, nil
	}
	out := make([][]any, lastRow-startRow+1)
	for k, v := range sh.cells {
		if !g.Contains(k.row, k.col) {
			continue
		}
		r, c := k.row-startRow, k.col-startCol
		for len(out[r]) <= c {
			out[r] = append(out[r], "")
		}
		out[r][c] = v
	}
	return out, nil
}

func (s *Store) WriteRange(ctx context.Context, id, a1 string, values [][]any) error {
	if hook := s.BeforeWrite; hook != nil {
		hook(a1)
	}
	if err := s.begin(ctx); err != nil {
		return err
	}
	title, g, err := sheets.ParseA1(a1)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.sheet(id, title)
	if err != nil {
		return err
	}
	for r, row := range values {
		for c, v := range row {
			sh.cells[cellKey{max(g.StartRow, 0) + r, max(g.StartCol, 0) + c}] = v
		}
	}
	return nil
}

func (s *Store) ClearRange(ctx context.Context, id, a1 string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	title, g, err := sheets.ParseA1(a1)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.sheet(id, title)
	if err != nil {
		return err
	}
	for k := range sh.cells {
		if g.Contains(k.row, k.col) {
			delete(sh.cells, k)
		}
	}
	return nil
}

// Cell returns the raw value at a 0-based position, for assertions.
func (s *Store) Cell(id, title string, row, col int) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.sheet(id, title)
	if err != nil {
		return nil
	}
	return sh.cells[cellKey{row, col}]
}

// Format returns the format applied at a 0-based position.
func (s *Store) Format(id, title string, row, col int) (sheets.CellFormat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.sheet(id, title)
	if err != nil {
		return sheets.CellFormat{}, false
	}
	f, ok := sh.formats[cellKey{row, col}]
	return f, ok
}

// Titles lists sheet titles of a spreadsheet in creation order.
func (s *Store) Titles(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil
	}
	out := make([]string, len(b.sheets))
	for i, sh := range b.sheets {
		out[i] = sh.info.Title
	}
	return out
}

// Spreadsheets lists known spreadsheet ids.
func (s *Store) Spreadsheets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.books))
	for id := range s.books {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) book(id string) (*book, error) {
	b, ok := s.books[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sheets.ErrContainerNotFound, id)
	}
	return b, nil
}

func (s *Store) sheet(id, title string) (*sheet, error) {
	b, err := s.book(id)
	if err != nil {
		return nil, err
	}
	sh := b.find(title)
	if sh == nil {
		return nil, fmt.Errorf("unable to parse range: %s", sheets.A1(title, ""))
	}
	return sh, nil
}

func (b *book) find(title string) *sheet {
	for _, sh := range b.sheets {
		if sh.info.Title == title {
			return sh
		}
	}
	return nil
}

func (b *book) add(title string) *sheet {
	sh := &sheet{
		info:    sheets.SheetInfo{ID: b.nextID, Title: title, Index: len(b.sheets)},
		cells:   make(map[cellKey]any),
		formats: make(map[cellKey]sheets.CellFormat),
	}
	b.nextID++
	b.sheets = append(b.sheets, sh)
	return sh
}
