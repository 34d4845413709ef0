package core

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is one taxonomy entry with its ordered subcategories.
type Category struct {
	Name          string   `yaml:"name" json:"name"`
	Subcategories []string `yaml:"subcategories" json:"subcategories"`
}

// Taxonomy is the fixed category -> subcategory vocabulary. Order matters:
// it drives the spreadsheet template layout and the default fallbacks.
type Taxonomy []Category

// FallbackSubcategory is assigned by the fallback parser when nothing better is known.
const FallbackSubcategory = "Прочее"

var ErrEmptyTaxonomy = errors.New("taxonomy has no categories")

// DefaultTaxonomy returns the built-in vocabulary.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		{Name: "Еда", Subcategories: []string{"Магаз", "Рестораны", "Рынок", "Кофейня", "Фастфуд", "Доставка", "Кондитерская", "Кафе", "Супермаркет", "Продукты"}},
		{Name: "Транспорт", Subcategories: []string{"Такси", "Шеринг", "Общественный", "Авиа", "Метро", "Автобус", "Поезд", "Троллейбус", "Самокат", "Велосипед", "Парковка"}},
		{Name: "Услуги", Subcategories: []string{"Жилье", "Комиссии, банки", "Туризм", "Парикмахерская", "Веб сервисы", "Курсы яхтинга", "Обустройство дома", "Мобильная связь", "Интернет", "Страхование", "Образование", "Медицина", "Ремонт", "Прачечная", "Уборка"}},
		{Name: "Всякая всячина", Subcategories: []string{"Одежда/обувь", "Развлечение", "Налоги", "Благотворительность", "Экскурсия", "Страховка", "Техника", "Подарки", "Книги", "Игрушки", "Хобби", "Спорт", "Питомцы", "Аксессуары", "Косметика", "Украшения"}},
		{Name: "Здоровье", Subcategories: []string{"Аптека", "Врач", "Стоматолог", "Анализы", "Массаж", "Фитнес", "Медстраховка"}},
		{Name: "Образование", Subcategories: []string{"Курсы", "Книги", "Онлайн-обучение", "Тренинги", "Школа", "Университет"}},
		{Name: "Дом", Subcategories: []string{"Аренда", "Коммуналка", "Ремонт", "Мебель", "Техника", "Декор", "Интернет"}},
		{Name: "Дети", Subcategories: []string{"Игрушки", "Одежда", "Кружки", "Секция", "Школа", "Питание"}},
		{Name: "Путешествия", Subcategories: []string{"Авиабилеты", "Отель", "Экскурсии", "Трансфер", "Страховка", "Питание"}},
		{Name: "Авто", Subcategories: []string{"Бензин", "Мойка", "Шиномонтаж", "Ремонт", "Страховка", "Парковка"}},
		{Name: "Питомцы", Subcategories: []string{"Корм", "Ветклиника", "Игрушки", "Аксессуары"}},
	}
}

// LoadTaxonomyFile reads a YAML list of categories:
//
//	- name: Еда
//	  subcategories: [Магаз, Рестораны]
func LoadTaxonomyFile(path string) (Taxonomy, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	var t Taxonomy
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy file %s: %w", path, err)
	}
	t = t.clean()
	if len(t) == 0 {
		return nil, ErrEmptyTaxonomy
	}
	return t, nil
}

// clean trims names, drops blanks and duplicate subcategories, preserving order.
func (t Taxonomy) clean() Taxonomy {
	out := make(Taxonomy, 0, len(t))
	seenCat := map[string]struct{}{}
	for _, c := range t {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		if _, ok := seenCat[name]; ok {
			continue
		}
		seenCat[name] = struct{}{}
		seen := map[string]struct{}{}
		subs := make([]string, 0, len(c.Subcategories))
		for _, s := range c.Subcategories {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			subs = append(subs, s)
		}
		out = append(out, Category{Name: name, Subcategories: subs})
	}
	return out
}

// Names returns the category names in taxonomy order.
func (t Taxonomy) Names() []string {
	out := make([]string, len(t))
	for i, c := range t {
		out[i] = c.Name
	}
	return out
}

// Lookup returns the category with exactly the given name.
func (t Taxonomy) Lookup(name string) (Category, bool) {
	for _, c := range t {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// AllSubcategories returns every subcategory once, in first-seen order.
func (t Taxonomy) AllSubcategories() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, c := range t {
		for _, s := range c.Subcategories {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// MaxSubcategories is the length of the longest subcategory list.
func (t Taxonomy) MaxSubcategories() int {
	m := 0
	for _, c := range t {
		if len(c.Subcategories) > m {
			m = len(c.Subcategories)
		}
	}
	return m
}
