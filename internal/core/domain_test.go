package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDraftNormalize(t *testing.T) {
	q := -2.0
	d := Draft{
		Amount:   decimal.NewFromInt(-5),
		Currency: " usd ",
		Category: "  Еда ",
		Priority: "urgent",
		Quantity: &q,
	}.Normalize()

	if !d.Amount.IsZero() {
		t.Errorf("negative amount should clamp to zero, got %s", d.Amount)
	}
	if d.Currency != "USD" {
		t.Errorf("currency = %q, want USD", d.Currency)
	}
	if d.Category != "Еда" {
		t.Errorf("category = %q", d.Category)
	}
	if d.Priority != PriorityMedium {
		t.Errorf("priority = %q, want medium", d.Priority)
	}
	if d.Quantity != nil {
		t.Error("non-positive quantity should be dropped")
	}
	if d.Tags == nil {
		t.Error("tags should default to an empty list")
	}

	if got := (Draft{Currency: "euro"}).Normalize().Currency; got != DefaultCurrency {
		t.Errorf("bad currency should default, got %q", got)
	}
}

func TestDraftValidate(t *testing.T) {
	base := Draft{Amount: decimal.NewFromInt(3), Currency: "EUR", Category: "Еда", Priority: PriorityLow}
	tests := []struct {
		name string
		mut  func(*Draft)
		want error
	}{
		{"valid", func(*Draft) {}, nil},
		{"negative", func(d *Draft) { d.Amount = decimal.NewFromInt(-1) }, ErrNegativeAmount},
		{"currency", func(d *Draft) { d.Currency = "EU" }, ErrInvalidCurrency},
		{"category", func(d *Draft) { d.Category = " " }, ErrEmptyCategory},
		{"priority", func(d *Draft) { d.Priority = "x" }, ErrInvalidPriority},
		{"date", func(d *Draft) { d.Date = "15/10/2026" }, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			tt.mut(&d)
			if err := d.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRecordDayFallsBackToTimestamp(t *testing.T) {
	ts := time.Date(2026, 10, 15, 23, 30, 0, 0, time.UTC)
	r := Record{Timestamp: ts.UnixMilli()}
	if got := r.Day(time.UTC); got != "2026-10-15" {
		t.Fatalf("Day() = %q", got)
	}
	r.Date = "2026-01-02"
	if got := r.Day(time.UTC); got != "2026-01-02" {
		t.Fatalf("explicit date should win, got %q", got)
	}
}

func TestRecordSameEntry(t *testing.T) {
	a := Record{Timestamp: 1000, Draft: Draft{Amount: decimal.RequireFromString("5"), Description: "coffee"}}
	b := Record{ID: "other", Timestamp: 1000, Draft: Draft{Amount: decimal.RequireFromString("5.00"), Description: "coffee", Category: "x"}}
	if !a.SameEntry(b) {
		t.Fatal("records with equal timestamp, amount and description should match")
	}
	b.Description = "tea"
	if a.SameEntry(b) {
		t.Fatal("different description should not match")
	}
}

func TestParsePriority(t *testing.T) {
	if ParsePriority(" HIGH ") != PriorityHigh {
		t.Fatal("expected high")
	}
	if ParsePriority("") != PriorityMedium {
		t.Fatal("expected medium default")
	}
}
