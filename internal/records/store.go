// Package records keeps the local list of expenses, persists it as JSON under
// kv.KeyExpenses and mirrors additions to a remote spreadsheet.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spesevoce/internal/core"
	"spesevoce/internal/kv"
	"spesevoce/internal/log"
	"spesevoce/internal/sheets"
)

// Mirror is the part of sheets.Sync the store needs.
type Mirror interface {
	AppendRecord(ctx context.Context, r core.Record) error
	LoadAll(ctx context.Context) ([]core.Record, error)
}

type Options struct {
	// Mirror is optional; without it the store is local only.
	Mirror   Mirror
	Logger   *log.Logger
	Location *time.Location
	Now      func() time.Time
}

// Store is safe for concurrent use. Writers serialize on mu and publish a
// fresh slice; readers load the current slice without locking and must not
// modify it.
type Store struct {
	kv     kv.Store
	mirror Mirror
	logger *log.Logger
	loc    *time.Location
	now    func() time.Time

	mu   sync.Mutex
	list atomic.Pointer[[]core.Record]
}

func New(store kv.Store, opts Options) *Store {
	s := &Store{
		kv:     store,
		mirror: opts.Mirror,
		logger: opts.Logger,
		loc:    opts.Location,
		now:    opts.Now,
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentRecords)
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	empty := []core.Record{}
	s.list.Store(&empty)
	return s
}

// Records returns the current list, newest first.
func (s *Store) Records() []core.Record {
	return *s.list.Load()
}

// Load reads the persisted list and, with a mirror that keeps one row per
// expense, merges in the remote records. Failures on either side are logged
// and leave that side empty.
func (s *Store) Load(ctx context.Context) []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	local := s.readLocal(ctx)

	var merged []core.Record
	if s.mirror != nil && mergesOnLoad(s.mirror) {
		remote, err := s.mirror.LoadAll(ctx)
		switch {
		case errors.Is(err, sheets.ErrMissingCredential):
			s.logger.InfoContext(ctx, "No credential, loading local records only")
		case err != nil:
			s.logger.ErrorContext(ctx, "Failed to load remote records", log.FieldError, err)
		}
		merged = sheets.MergeWithLocal(local, remote)
	} else {
		merged = local
		sheets.SortNewestFirst(merged)
	}
	if merged == nil {
		merged = []core.Record{}
	}

	s.publish(ctx, merged)
	s.logger.InfoContext(ctx, "Records loaded", log.FieldCount, len(merged))
	return merged
}

// mergesOnLoad is false for the grid layout: its cells are per-month sums,
// not entries, and only an explicit download may replace local records with
// them.
func mergesOnLoad(m Mirror) bool {
	l, ok := m.(interface{ Layout() string })
	return !ok || l.Layout() != sheets.LayoutGrid
}

func (s *Store) readLocal(ctx context.Context) []core.Record {
	raw, ok, err := s.kv.Get(ctx, kv.KeyExpenses)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read stored records", log.FieldError, err)
		return nil
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []core.Record
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.logger.ErrorContext(ctx, "Stored records are corrupt, starting empty", log.FieldError, err)
		return nil
	}
	for i := range out {
		out[i].Draft = out[i].Draft.Normalize()
	}
	return out
}

// Add turns d into a record, stores it locally and then mirrors it. The
// returned error is nil or wraps sheets.ErrContainerNotFound; the record is
// stored either way.
func (s *Store) Add(ctx context.Context, d core.Draft) (core.Record, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return core.Record{}, fmt.Errorf("generate record id: %w", err)
	}
	r := core.Record{
		ID:        id.String(),
		Timestamp: s.now().UnixMilli(),
		Draft:     d.Normalize(),
	}

	s.mu.Lock()
	cur := s.Records()
	next := make([]core.Record, 0, len(cur)+1)
	next = append(next, r)
	next = append(next, cur...)
	s.publish(ctx, next)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Record added", log.NewFields().
		WithRecord(r.ID, r.Amount.String(), r.Currency, r.Category, r.Subcategory).ToSlice()...)

	return r, s.AppendRemote(context.WithoutCancel(ctx), r)
}

// AppendRemote mirrors r. Only a missing spreadsheet is reported, so the
// caller can recreate it and retry; everything else is logged.
func (s *Store) AppendRemote(ctx context.Context, r core.Record) error {
	if s.mirror == nil {
		return nil
	}
	err := s.mirror.AppendRecord(ctx, r)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sheets.ErrContainerNotFound):
		return fmt.Errorf("mirror record %s: %w", r.ID, err)
	case errors.Is(err, sheets.ErrMissingCredential):
		s.logger.InfoContext(ctx, "No credential, record kept locally only", log.FieldRecordID, r.ID)
	default:
		s.logger.ErrorContext(ctx, "Failed to mirror record", log.FieldRecordID, r.ID, log.FieldError, err)
	}
	return nil
}

// Remove deletes the record with id locally. The mirror is not touched.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.Records()
	next := make([]core.Record, 0, len(cur))
	for _, r := range cur {
		if r.ID != id {
			next = append(next, r)
		}
	}
	if len(next) == len(cur) {
		return false
	}
	s.publish(ctx, next)
	return true
}

// Clear drops every local record.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish(ctx, []core.Record{})
}

// ReplaceAll swaps the local list for records, as after a download.
func (s *Store) ReplaceAll(ctx context.Context, records []core.Record) {
	next := make([]core.Record, len(records))
	for i, r := range records {
		next[i] = r.Clone()
	}
	sheets.SortNewestFirst(next)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish(ctx, next)
}

// publish stores next as the current list and persists it. Callers hold mu.
func (s *Store) publish(ctx context.Context, next []core.Record) {
	s.list.Store(&next)
	b, err := json.Marshal(next)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode records", log.FieldError, err)
		return
	}
	if err := s.kv.Set(ctx, kv.KeyExpenses, string(b)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist records", log.FieldError, err)
	}
}

// TotalByCategory sums the amounts of category.
func (s *Store) TotalByCategory(category string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range s.Records() {
		if r.Category == category {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// TotalByCategoryAndDate sums category on one day (YYYY-MM-DD). Records
// without a date use their timestamp's day.
func (s *Store) TotalByCategoryAndDate(category, date string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range s.Records() {
		if r.Category == category && r.Day(s.loc) == date {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// Categories returns the distinct categories in use, sorted.
func (s *Store) Categories() []string {
	seen := make(map[string]struct{})
	for _, r := range s.Records() {
		seen[r.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// GroupByCategoryThenDate groups records by category (sorted), then by day
// (newest first). Records inside a day stay newest first.
func (s *Store) GroupByCategoryThenDate() []core.CategoryGroup {
	byCat := make(map[string]map[string][]core.Record)
	for _, r := range s.Records() {
		days, ok := byCat[r.Category]
		if !ok {
			days = make(map[string][]core.Record)
			byCat[r.Category] = days
		}
		day := r.Day(s.loc)
		days[day] = append(days[day], r)
	}

	out := make([]core.CategoryGroup, 0, len(byCat))
	for cat, days := range byCat {
		g := core.CategoryGroup{Category: cat, Total: decimal.Zero}
		for day, rs := range days {
			sheets.SortNewestFirst(rs)
			for _, r := range rs {
				g.Total = g.Total.Add(r.Amount)
			}
			g.Dates = append(g.Dates, core.DateGroup{Date: day, Records: rs})
		}
		sort.Slice(g.Dates, func(i, j int) bool { return g.Dates[i].Date > g.Dates[j].Date })
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
