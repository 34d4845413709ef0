package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spesevoce/internal/core"
)

var (
	currencyCode = regexp.MustCompile(`^[A-Za-z]{3}$`)
	clockTime    = regexp.MustCompile(`^(\d{1,2}:\d{2})(:\d{2})?$`)
)

// decode turns a JSON object into a draft, filling absent fields from the
// transcript and now. A malformed amount, currency or category is a
// *ParseError; any other malformed field falls back to its default and is
// named in ignored.
func decode(raw, text string, now time.Time) (d core.Draft, ignored []string, err error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return core.Draft{}, nil, &ParseError{Reason: err.Error()}
	}
	opt := func(name string) {
		ignored = append(ignored, name)
	}

	d = core.Draft{
		Amount:        decimal.Zero,
		Currency:      detectCurrency(text),
		Description:   strings.TrimSpace(text),
		Date:          now.Format(core.DateLayout),
		Time:          now.Format("15:04"),
		Location:      optionalString(fields, "location", opt),
		PaymentMethod: optionalString(fields, "paymentMethod", opt),
		Unit:          optionalString(fields, "unit", opt),
		Merchant:      optionalString(fields, "merchant", opt),
		Notes:         optionalString(fields, "notes", opt),
		Tags:          []string{},
		Priority:      core.PriorityMedium,
	}

	amount, err := required[decimal.Decimal](fields, "amount")
	if err != nil {
		return core.Draft{}, nil, err
	}
	if amount != nil {
		if amount.IsNegative() {
			return core.Draft{}, nil, &ParseError{Field: "amount", Reason: "must not be negative"}
		}
		d.Amount = *amount
	}

	currency, err := required[string](fields, "currency")
	if err != nil {
		return core.Draft{}, nil, err
	}
	if v := str(currency); v != "" {
		if !currencyCode.MatchString(v) {
			return core.Draft{}, nil, &ParseError{Field: "currency", Reason: "not a 3-letter code"}
		}
		d.Currency = strings.ToUpper(v)
	}

	category, err := required[string](fields, "category")
	if err != nil {
		return core.Draft{}, nil, err
	}
	d.Category = str(category)
	d.Subcategory = optionalString(fields, "subcategory", opt)
	if d.Category == "" {
		d.Category, d.Subcategory = detectCategory(text)
	}

	if v := optionalString(fields, "description", opt); v != "" {
		d.Description = v
	}
	if v := optionalString(fields, "date", opt); v != "" {
		if _, err := time.Parse(core.DateLayout, v); err != nil {
			opt("date")
		} else {
			d.Date = v
		}
	}
	if v := optionalString(fields, "time", opt); v != "" {
		if m := clockTime.FindStringSubmatch(v); m == nil {
			opt("time")
		} else {
			d.Time = m[1]
		}
	}
	if v := optionalString(fields, "priority", opt); v != "" {
		if p := core.Priority(strings.ToLower(v)); !p.Valid() {
			opt("priority")
		} else {
			d.Priority = p
		}
	}
	if q := optional[float64](fields, "quantity", opt); q != nil {
		if *q <= 0 {
			opt("quantity")
		} else {
			d.Quantity = q
		}
	}
	if tags := optional[[]string](fields, "tags", opt); tags != nil {
		for _, t := range *tags {
			if t = strings.TrimSpace(t); t != "" {
				d.Tags = append(d.Tags, t)
			}
		}
	}
	if b := optional[bool](fields, "isRecurring", opt); b != nil {
		d.IsRecurring = *b
	}

	sort.Strings(ignored)
	return d, ignored, nil
}

// required decodes fields[name]; nil means absent or null.
func required[T any](fields map[string]json.RawMessage, name string) (*T, error) {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &ParseError{Field: name, Reason: "expected " + typeErr.Type.String()}
		}
		return nil, &ParseError{Field: name, Reason: err.Error()}
	}
	return v, nil
}

// optional is required for fields that may be dropped: a malformed value is
// reported through bad and decodes as absent.
func optional[T any](fields map[string]json.RawMessage, name string, bad func(string)) *T {
	v, err := required[T](fields, name)
	if err != nil {
		bad(name)
		return nil
	}
	return v
}

func optionalString(fields map[string]json.RawMessage, name string, bad func(string)) string {
	return str(optional[string](fields, name, bad))
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
