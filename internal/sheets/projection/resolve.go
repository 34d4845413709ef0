package projection

import "strings"

// MatchKind says how confidently a label was mapped onto the taxonomy.
type MatchKind int

const (
	ExactMatch MatchKind = iota
	FuzzyMatch
	DefaultFallback
)

func (k MatchKind) String() string {
	switch k {
	case ExactMatch:
		return "exact"
	case FuzzyMatch:
		return "fuzzy"
	case DefaultFallback:
		return "default"
	}
	return "unknown"
}

// Resolution is a pair that exists in the template, tagged per component.
type Resolution struct {
	Category         string
	Subcategory      string
	CategoryMatch    MatchKind
	SubcategoryMatch MatchKind
}

// Guessed reports whether either component fell through to the default.
func (r Resolution) Guessed() bool {
	return r.CategoryMatch == DefaultFallback || r.SubcategoryMatch == DefaultFallback
}

// Resolve maps free-form labels onto the taxonomy in three stages: folded
// exact match, substring containment in either direction, then the first
// entry. The subcategory is resolved within the chosen category. Resolve
// never fails; an empty template yields an empty DefaultFallback pair.
func (t Template) Resolve(category, subcategory string) Resolution {
	res := Resolution{CategoryMatch: DefaultFallback, SubcategoryMatch: DefaultFallback}
	if len(t.Blocks) == 0 {
		return res
	}

	names := make([]string, len(t.Blocks))
	for i, b := range t.Blocks {
		names[i] = b.Category
	}
	ci, kind := pick(names, category)
	block := t.Blocks[ci]
	res.Category, res.CategoryMatch = block.Category, kind

	if len(block.Subcategories) == 0 {
		return res
	}
	si, kind := pick(block.Subcategories, subcategory)
	res.Subcategory, res.SubcategoryMatch = block.Subcategories[si], kind
	return res
}

func pick(options []string, want string) (int, MatchKind) {
	w := Fold(want)
	if w == "" {
		return 0, DefaultFallback
	}
	for i, o := range options {
		if Fold(o) == w {
			return i, ExactMatch
		}
	}
	for i, o := range options {
		f := Fold(o)
		if f != "" && (strings.Contains(f, w) || strings.Contains(w, f)) {
			return i, FuzzyMatch
		}
	}
	return 0, DefaultFallback
}
