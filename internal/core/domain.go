package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultCurrency is used whenever a record does not name one.
const DefaultCurrency = "EUR"

// DateLayout is the wire format of Record.Date.
const DateLayout = "2006-01-02"

type (
	Priority string

	// Draft is a candidate expense as produced by the classifier. It becomes a
	// Record once the store assigns an ID and a timestamp.
	Draft struct {
		Amount        decimal.Decimal `json:"amount"`
		Currency      string          `json:"currency"`
		Category      string          `json:"category"`
		Subcategory   string          `json:"subcategory"`
		Description   string          `json:"description,omitempty"`
		Location      string          `json:"location,omitempty"`
		Date          string          `json:"date,omitempty"`
		Time          string          `json:"time,omitempty"`
		PaymentMethod string          `json:"paymentMethod,omitempty"`
		Quantity      *float64        `json:"quantity,omitempty"`
		Unit          string          `json:"unit,omitempty"`
		Merchant      string          `json:"merchant,omitempty"`
		Tags          []string        `json:"tags"`
		Priority      Priority        `json:"priority"`
		IsRecurring   bool            `json:"isRecurring"`
		Notes         string          `json:"notes,omitempty"`
	}

	// Record is one normalized expense entry.
	Record struct {
		ID        string `json:"id"`
		Timestamp int64  `json:"timestamp"` // ms since epoch
		Draft
	}
)

var (
	ErrNegativeAmount   = errors.New("negative amount")
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrEmptyCategory    = errors.New("empty category")
	ErrMissingTimestamp = errors.New("missing timestamp")
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority maps free text onto a priority, defaulting to medium.
func ParsePriority(s string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p.Valid() {
		return p
	}
	return PriorityMedium
}

// Normalize fills defaults and clamps values that would break invariants.
// It never fails.
func (d Draft) Normalize() Draft {
	if d.Amount.IsNegative() {
		d.Amount = decimal.Zero
	}
	d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	if len(d.Currency) != 3 {
		d.Currency = DefaultCurrency
	}
	d.Category = strings.TrimSpace(d.Category)
	d.Subcategory = strings.TrimSpace(d.Subcategory)
	d.Description = strings.TrimSpace(d.Description)
	if !d.Priority.Valid() {
		d.Priority = PriorityMedium
	}
	if d.Quantity != nil && *d.Quantity <= 0 {
		d.Quantity = nil
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d
}

func (d Draft) Validate() error {
	if d.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if len(d.Currency) != 3 {
		return ErrInvalidCurrency
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if !d.Priority.Valid() {
		return ErrInvalidPriority
	}
	if d.Date != "" {
		if _, err := time.Parse(DateLayout, d.Date); err != nil {
			return ErrInvalidDate
		}
	}
	if d.Quantity != nil && *d.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func (r Record) Validate() error {
	if r.Timestamp <= 0 {
		return ErrMissingTimestamp
	}
	return r.Draft.Validate()
}

// CreatedAt returns the creation instant of the record.
func (r Record) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Day returns the record's date field, or the date derived from its
// timestamp in loc when the field is empty.
func (r Record) Day(loc *time.Location) string {
	if r.Date != "" {
		return r.Date
	}
	if loc == nil {
		loc = time.Local
	}
	return r.CreatedAt().In(loc).Format(DateLayout)
}

// Clone returns a deep copy; the tags slice is not shared.
func (r Record) Clone() Record {
	out := r
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	if r.Quantity != nil {
		q := *r.Quantity
		out.Quantity = &q
	}
	return out
}

// SameEntry is the cross-store identity used when reconciling: two records
// describe the same expense when timestamp, amount and description match.
func (r Record) SameEntry(o Record) bool {
	return r.Timestamp == o.Timestamp &&
		r.Amount.Equal(o.Amount) &&
		r.Description == o.Description
}
