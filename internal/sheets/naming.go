package sheets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"spesevoce/internal/core"
)

const (
	NamingMonth = "month"
	NamingFixed = "fixed"

	LocaleRU = "ru"
	LocaleEN = "en"
)

var monthNames = map[string][12]string{
	LocaleRU: {"январь", "февраль", "март", "апрель", "май", "июнь", "июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь"},
	LocaleEN: {"january", "february", "march", "april", "may", "june", "july", "august", "september", "october", "november", "december"},
}

// Naming decides which sheet a record lands in and which sheets belong to
// the mirror.
type Naming struct {
	Mode     string
	Fixed    string
	Locale   string
	Location *time.Location

	pattern *regexp.Regexp
}

func NewNaming(mode, fixed, locale string, loc *time.Location) Naming {
	if mode != NamingFixed {
		mode = NamingMonth
	}
	if _, ok := monthNames[locale]; !ok {
		locale = LocaleRU
	}
	if loc == nil {
		loc = time.Local
	}
	if strings.TrimSpace(fixed) == "" {
		fixed = "Expenses"
	}
	names := monthNames[locale]
	return Naming{
		Mode:     mode,
		Fixed:    fixed,
		Locale:   locale,
		Location: loc,
		pattern:  regexp.MustCompile(`^(` + strings.Join(names[:], "|") + `) (\d{4})$`),
	}
}

// SheetName is "октябрь 2026" for month naming, from the record timestamp.
func (n Naming) SheetName(r core.Record) string {
	if n.Mode == NamingFixed {
		return n.Fixed
	}
	return n.MonthSheet(r.CreatedAt().In(n.Location))
}

func (n Naming) MonthSheet(t time.Time) string {
	return fmt.Sprintf("%s %d", monthNames[n.Locale][t.Month()-1], t.Year())
}

// Matches reports whether title is a sheet managed by this naming.
func (n Naming) Matches(title string) bool {
	if n.Mode == NamingFixed {
		return title == n.Fixed
	}
	return n.pattern.MatchString(title)
}

// MonthStart returns the first instant of the month a month sheet covers.
func (n Naming) MonthStart(title string) (time.Time, bool) {
	if n.Mode == NamingFixed {
		return time.Time{}, false
	}
	m := n.pattern.FindStringSubmatch(title)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[2])
	for i, name := range monthNames[n.Locale] {
		if name == m[1] {
			return time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, n.Location), true
		}
	}
	return time.Time{}, false
}

func (n Naming) managed(sheets []SheetInfo) []SheetInfo {
	var out []SheetInfo
	for _, s := range sheets {
		if n.Matches(s.Title) {
			out = append(out, s)
		}
	}
	return out
}
