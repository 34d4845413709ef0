package classifier

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spesevoce/internal/core"
)

// Category names the fallback parser can produce.
const (
	categoryFood      = "Еда"
	categoryTransport = "Транспорт"
	categoryCatchAll  = "Всякая всячина"
)

var amountPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d{2})?)\s*(евро|euro|eur|рубл|руб|rub|доллар|dollar|usd|фунт|pound|gbp)`)

type keywordRule struct {
	category    string
	subcategory string
	words       []string
}

// Checked in order; the first rule with a matching word wins.
var categoryRules = []keywordRule{
	{categoryFood, core.FallbackSubcategory, []string{"еда", "обед", "ужин", "завтрак", "кафе", "ресторан", "кофе", "food", "lunch", "dinner", "breakfast", "cafe", "restaurant", "coffee"}},
	{categoryTransport, core.FallbackSubcategory, []string{"транспорт", "такси", "метро", "автобус", "transport", "taxi", "metro", "bus"}},
	{categoryCatchAll, "Развлечение", []string{"развлечени", "кино", "театр", "entertainment", "cinema", "theater"}},
	{categoryCatchAll, core.FallbackSubcategory, []string{"покупки", "магазин", "shopping", "store", "shop"}},
}

var currencyRules = []struct {
	code  string
	words []string
}{
	{"EUR", []string{"евро", "euro", "eur", "€"}},
	{"USD", []string{"доллар", "dollar", "usd", "$"}},
	{"RUB", []string{"рубл", "руб", "rub", "₽"}},
	{"GBP", []string{"фунт", "pound", "gbp", "£"}},
}

// Fallback is the deterministic, network-free parser. It is total: any input,
// including the empty string, yields a valid draft.
func Fallback(text string, now time.Time) core.Draft {
	amount := decimal.Zero
	if m := amountPattern.FindStringSubmatch(text); m != nil {
		if v, ok := core.ParseAmount(m[1]); ok {
			amount = v
		}
	}
	category, subcategory := detectCategory(text)
	return core.Draft{
		Amount:      amount,
		Currency:    detectCurrency(text),
		Category:    category,
		Subcategory: subcategory,
		Description: strings.TrimSpace(text),
		Date:        now.Format(core.DateLayout),
		Time:        now.Format("15:04"),
		Tags:        []string{},
		Priority:    core.PriorityMedium,
	}
}

func detectCurrency(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range currencyRules {
		for _, w := range rule.words {
			if strings.Contains(lower, w) {
				return rule.code
			}
		}
	}
	return core.DefaultCurrency
}

func detectCategory(text string) (string, string) {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, w := range rule.words {
			if strings.Contains(lower, w) {
				return rule.category, rule.subcategory
			}
		}
	}
	return categoryCatchAll, core.FallbackSubcategory
}
