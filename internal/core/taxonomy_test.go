package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadTaxonomyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	content := `
- name: Еда
  subcategories: [Магаз, " Рестораны ", Магаз, ""]
- name: ""
  subcategories: [Ignored]
- name: Транспорт
  subcategories:
    - Такси
- name: Еда
  subcategories: [Duplicate]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadTaxonomyFile(path)
	if err != nil {
		t.Fatalf("LoadTaxonomyFile: %v", err)
	}
	want := Taxonomy{
		{Name: "Еда", Subcategories: []string{"Магаз", "Рестораны"}},
		{Name: "Транспорт", Subcategories: []string{"Такси"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("taxonomy mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTaxonomyFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTaxonomyFile(path); !errors.Is(err, ErrEmptyTaxonomy) {
		t.Fatalf("expected ErrEmptyTaxonomy, got %v", err)
	}
}

func TestDefaultTaxonomyShape(t *testing.T) {
	tax := DefaultTaxonomy()
	if tax[0].Name != "Еда" || tax[0].Subcategories[0] != "Магаз" {
		t.Fatalf("unexpected head of taxonomy: %+v", tax[0])
	}
	if _, ok := tax.Lookup("Транспорт"); !ok {
		t.Fatal("Транспорт should exist")
	}
	if tax.MaxSubcategories() != 16 {
		t.Fatalf("MaxSubcategories = %d", tax.MaxSubcategories())
	}
	subs := tax.AllSubcategories()
	seen := map[string]bool{}
	for _, s := range subs {
		if seen[s] {
			t.Fatalf("duplicate subcategory %q", s)
		}
		seen[s] = true
	}
}
