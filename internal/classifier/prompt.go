package classifier

import (
	"fmt"
	"strings"

	"spesevoce/internal/core"
)

const fieldsPrompt = `Return a JSON object with these fields:
{
  "amount": number,
  "currency": string (3-letter ISO code),
  "category": string,
  "subcategory": string,
  "description": string (brief description of the expense),
  "location": string (city, store or restaurant if mentioned),
  "date": string (YYYY-MM-DD, today is %s),
  "time": string (HH:MM, now is %s),
  "paymentMethod": string (cash, card, mobile if mentioned),
  "quantity": number (if several items are mentioned),
  "unit": string (pieces, kg, liters if mentioned),
  "merchant": string (store or restaurant name if mentioned),
  "tags": array of strings (relevant keywords),
  "priority": "low" | "medium" | "high",
  "isRecurring": boolean (true for subscriptions and regular payments),
  "notes": string (any other relevant information)
}
`

// BuildPrompt renders the instruction sent to the model for one transcript.
// With enforce set the model must pick from tax; otherwise it may name a
// category freely from the description.
func BuildPrompt(text string, tax core.Taxonomy, enforce bool, date, clock string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this expense text: %q\n\n", text)
	fmt.Fprintf(&b, fieldsPrompt, date, clock)
	b.WriteString("\n")

	if enforce && len(tax) > 0 {
		b.WriteString("Allowed categories and their subcategories:\n")
		for _, c := range tax {
			fmt.Fprintf(&b, "- %s: %s\n", c.Name, strings.Join(c.Subcategories, ", "))
		}
		b.WriteString("\nChoose the most appropriate category and subcategory from the list above.\n")
		b.WriteString("If you are not sure, pick the closest match.\n")
	} else {
		b.WriteString("Choose a short category and subcategory that describe the expense.\n")
	}

	b.WriteString("If a field is not mentioned or unclear, use null.\n")
	b.WriteString("Return ONLY raw JSON, without Markdown fences.\n")
	return b.String()
}
