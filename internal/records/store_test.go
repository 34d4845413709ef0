package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"spesevoce/internal/core"
	"spesevoce/internal/kv"
	"spesevoce/internal/sheets"
	"spesevoce/internal/sheets/memory"
)

type fakeMirror struct {
	mu        sync.Mutex
	appended  []core.Record
	appendErr error
	remote    []core.Record
	loadErr   error
}

func (m *fakeMirror) AppendRecord(_ context.Context, r core.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, r)
	return nil
}

func (m *fakeMirror) LoadAll(context.Context) ([]core.Record, error) {
	return m.remote, m.loadErr
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newStore(t *testing.T, m Mirror) (*Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	c := &clock{t: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}
	return New(mem, Options{Mirror: m, Location: time.UTC, Now: c.now}), mem
}

func draft(amount, category, desc string) core.Draft {
	return core.Draft{
		Amount:      decimal.RequireFromString(amount),
		Currency:    "EUR",
		Category:    category,
		Description: desc,
		Priority:    core.PriorityMedium,
	}
}

func descriptions(rs []core.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Description
	}
	return out
}

func TestAddPersistsThenMirrors(t *testing.T) {
	ctx := context.Background()
	m := &fakeMirror{}
	s, mem := newStore(t, m)

	r, err := s.Add(ctx, draft("4.5", "Еда", "coffee"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if r.ID == "" || r.Timestamp == 0 {
		t.Fatalf("id/timestamp not assigned: %+v", r)
	}
	if len(m.appended) != 1 || m.appended[0].ID != r.ID {
		t.Fatalf("mirror got %+v", m.appended)
	}

	raw, ok, _ := mem.Get(ctx, kv.KeyExpenses)
	if !ok {
		t.Fatal("records not persisted")
	}
	var stored []core.Record
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored JSON: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != r.ID || !stored[0].Amount.Equal(r.Amount) {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestAddNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, nil)
	for _, d := range []string{"a", "b", "c"} {
		if _, err := s.Add(ctx, draft("1", "Еда", d)); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff([]string{"c", "b", "a"}, descriptions(s.Records())); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}

func TestAddReportsOnlyMissingContainer(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"not found", fmt.Errorf("probe: %w", sheets.ErrContainerNotFound), true},
		{"no credential", sheets.ErrMissingCredential, false},
		{"other", errors.New("quota exceeded"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newStore(t, &fakeMirror{appendErr: tt.err})
			_, err := s.Add(ctx, draft("1", "Еда", "x"))
			if got := errors.Is(err, sheets.ErrContainerNotFound); got != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if len(s.Records()) != 1 {
				t.Fatal("record must be stored locally regardless of mirror errors")
			}
		})
	}
}

func TestAddIgnoresCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &fakeMirror{}
	s, _ := newStore(t, ctxMirror{m})
	if _, err := s.Add(ctx, draft("1", "Еда", "x")); err != nil {
		t.Fatal(err)
	}
	if len(m.appended) != 1 {
		t.Fatal("remote append should run on a detached context")
	}
}

// ctxMirror fails on a cancelled context like a real network client.
type ctxMirror struct{ *fakeMirror }

func (m ctxMirror) AppendRecord(ctx context.Context, r core.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.fakeMirror.AppendRecord(ctx, r)
}

func TestLoadMergesRemote(t *testing.T) {
	ctx := context.Background()
	local := []core.Record{
		{ID: "l1", Timestamp: 1000, Draft: draft("5", "Еда", "coffee")},
		{ID: "l2", Timestamp: 3000, Draft: draft("2", "Еда", "bread")},
	}
	raw, _ := json.Marshal(local)

	m := &fakeMirror{remote: []core.Record{
		{ID: "r1", Timestamp: 1000, Draft: draft("5.00", "Еда", "coffee")},
		{ID: "r2", Timestamp: 2000, Draft: draft("12", "Транспорт", "taxi")},
	}}
	s, mem := newStore(t, m)
	mem.Set(ctx, kv.KeyExpenses, string(raw))

	got := s.Load(ctx)
	if diff := cmp.Diff([]string{"bread", "taxi", "coffee"}, descriptions(got)); diff != "" {
		t.Fatalf("merged (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(descriptions(got), descriptions(s.Records())); diff != "" {
		t.Fatal("Load must publish the merged list")
	}

	// Reloading is idempotent: the merged list is now local.
	if again := s.Load(ctx); len(again) != 3 {
		t.Fatalf("reload = %d records", len(again))
	}
}

func TestLoadKeepsGridSumsOutOfHistory(t *testing.T) {
	ctx := context.Background()
	api := memory.New()
	api.Seed("sheet-1")
	store := kv.NewMemory()
	grid, err := sheets.New(sheets.LayoutGrid, api, sheets.NewContainer(api, store, "sheet-1", "", nil), sheets.Options{
		Naming: sheets.NewNaming(sheets.NamingMonth, "", sheets.LocaleRU, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	c := &clock{t: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}
	open := func() *Store {
		return New(store, Options{Mirror: grid, Location: time.UTC, Now: c.now})
	}

	s := open()
	s.Load(ctx)
	d := draft("5", "Еда", "кофе")
	d.Subcategory = "Кофейня"
	if _, err := s.Add(ctx, d); err != nil {
		t.Fatal(err)
	}
	remote, err := grid.LoadAll(ctx)
	if err != nil || len(remote) != 1 {
		t.Fatalf("grid holds %d sums, err %v", len(remote), err)
	}

	s.Load(ctx)
	restarted := open()
	restarted.Load(ctx)
	for name, st := range map[string]*Store{"reload": s, "restart": restarted} {
		if got := st.TotalByCategory("Еда"); !got.Equal(decimal.NewFromInt(5)) {
			t.Errorf("%s: total = %s, want 5", name, got)
		}
		if diff := cmp.Diff([]string{"кофе"}, descriptions(st.Records())); diff != "" {
			t.Errorf("%s: records (-want +got):\n%s", name, diff)
		}
	}
}

func TestLoadSurvivesFailures(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t, &fakeMirror{loadErr: sheets.ErrMissingCredential})
	mem.Set(ctx, kv.KeyExpenses, "{not json")
	if got := s.Load(ctx); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
	if s.Records() == nil {
		t.Fatal("Records should never be nil")
	}
}

func TestRemoveClearReplace(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, nil)
	a, _ := s.Add(ctx, draft("1", "Еда", "a"))
	s.Add(ctx, draft("2", "Еда", "b"))

	if !s.Remove(ctx, a.ID) || s.Remove(ctx, "missing") {
		t.Fatal("Remove result mismatch")
	}
	if diff := cmp.Diff([]string{"b"}, descriptions(s.Records())); diff != "" {
		t.Fatalf("after remove (-want +got):\n%s", diff)
	}

	s.ReplaceAll(ctx, []core.Record{
		{ID: "x", Timestamp: 1, Draft: draft("1", "Дом", "old")},
		{ID: "y", Timestamp: 5, Draft: draft("1", "Дом", "new")},
	})
	if diff := cmp.Diff([]string{"new", "old"}, descriptions(s.Records())); diff != "" {
		t.Fatalf("after replace (-want +got):\n%s", diff)
	}

	s.Clear(ctx)
	if len(s.Records()) != 0 {
		t.Fatal("Clear left records")
	}
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, nil)
	day := func(d int, h int) int64 { return time.Date(2026, 10, d, h, 0, 0, 0, time.UTC).UnixMilli() }
	withDate := draft("7", "Транспорт", "bus")
	withDate.Date = "2026-10-01"
	s.ReplaceAll(ctx, []core.Record{
		{ID: "1", Timestamp: day(14, 9), Draft: draft("4.5", "Еда", "coffee")},
		{ID: "2", Timestamp: day(14, 18), Draft: draft("20", "Еда", "dinner")},
		{ID: "3", Timestamp: day(15, 8), Draft: draft("3.2", "Еда", "croissant")},
		{ID: "4", Timestamp: day(15, 9), Draft: withDate},
	})

	if got := s.TotalByCategory("Еда"); !got.Equal(decimal.RequireFromString("27.7")) {
		t.Errorf("TotalByCategory = %s", got)
	}
	if got := s.TotalByCategoryAndDate("Еда", "2026-10-14"); !got.Equal(decimal.RequireFromString("24.5")) {
		t.Errorf("TotalByCategoryAndDate = %s", got)
	}
	if got := s.TotalByCategoryAndDate("Транспорт", "2026-10-01"); !got.Equal(decimal.NewFromInt(7)) {
		t.Errorf("explicit date total = %s", got)
	}
	if diff := cmp.Diff([]string{"Еда", "Транспорт"}, s.Categories()); diff != "" {
		t.Errorf("categories (-want +got):\n%s", diff)
	}

	groups := s.GroupByCategoryThenDate()
	if len(groups) != 2 || groups[0].Category != "Еда" {
		t.Fatalf("groups = %+v", groups)
	}
	food := groups[0]
	if len(food.Dates) != 2 || food.Dates[0].Date != "2026-10-15" || food.Dates[1].Date != "2026-10-14" {
		t.Fatalf("food dates = %+v", food.Dates)
	}
	if diff := cmp.Diff([]string{"dinner", "coffee"}, descriptions(food.Dates[1].Records)); diff != "" {
		t.Errorf("records in day (-want +got):\n%s", diff)
	}
	if !food.Total.Equal(decimal.RequireFromString("27.7")) {
		t.Errorf("group total = %s", food.Total)
	}
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, &fakeMirror{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(ctx, draft("1", "Еда", "x"))
			_ = s.Records()
		}()
	}
	wg.Wait()
	if len(s.Records()) != 50 {
		t.Fatalf("records = %d, want 50", len(s.Records()))
	}
}
