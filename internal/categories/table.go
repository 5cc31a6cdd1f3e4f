// Package categories holds the optional reference table that maps a bank
// feed's transaction_category to the subcategories the model may choose from.
package categories

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Entry is one row of the reference table.
type Entry struct {
	// TrueLayerCategory is the provider category as it appears in
	// transaction_category, e.g. "PURCHASE".
	TrueLayerCategory string `mapstructure:"truelayer_category"`
	Subcategory       string `mapstructure:"subcategory"`
	// Prompt is optional guidance for choosing this subcategory.
	Prompt string `mapstructure:"prompt"`
}

// Table is an immutable set of entries. A nil *Table has no entries.
type Table struct {
	entries []Entry
}

// New builds a table, dropping rows without a TrueLayerCategory.
func New(entries []Entry) *Table {
	t := &Table{}
	for _, e := range entries {
		e.TrueLayerCategory = strings.TrimSpace(e.TrueLayerCategory)
		e.Subcategory = strings.TrimSpace(e.Subcategory)
		if e.TrueLayerCategory == "" {
			continue
		}
		t.entries = append(t.entries, e)
	}
	return t
}

// Load reads a table from a YAML, JSON or TOML file with a top-level
// "categories" list.
func Load(path string) (*Table, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("categories: reading %s: %w", path, err)
	}

	var entries []Entry
	if err := v.UnmarshalKey("categories", &entries); err != nil {
		return nil, fmt.Errorf("categories: decoding %s: %w", path, err)
	}

	t := New(entries)
	if t.Len() == 0 {
		return nil, fmt.Errorf("categories: %s has no entries", path)
	}
	return t, nil
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Match returns the entries whose TrueLayerCategory contains category,
// ignoring case.
func (t *Table) Match(category string) []Entry {
	category = strings.ToLower(strings.TrimSpace(category))
	if t == nil || category == "" {
		return nil
	}

	var out []Entry
	for _, e := range t.entries {
		if strings.Contains(strings.ToLower(e.TrueLayerCategory), category) {
			out = append(out, e)
		}
	}
	return out
}

// Subcategories returns the non-empty subcategories allowed for category.
func (t *Table) Subcategories(category string) []string {
	var out []string
	for _, e := range t.Match(category) {
		if e.Subcategory != "" {
			out = append(out, e.Subcategory)
		}
	}
	return out
}

// Hints renders guidance for the given transaction categories, one block per
// distinct category that has at least one subcategory. It returns "" when
// nothing matches.
func (t *Table) Hints(categories []string) string {
	var b strings.Builder
	seen := make(map[string]bool)

	for _, category := range categories {
		key := strings.ToUpper(strings.TrimSpace(category))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		var subs []string
		var notes []string
		for _, e := range t.Match(category) {
			if e.Subcategory == "" {
				continue
			}
			subs = append(subs, e.Subcategory)
			if e.Prompt != "" {
				notes = append(notes, fmt.Sprintf("    - %s: %s", e.Subcategory, e.Prompt))
			}
		}
		if len(subs) == 0 {
			continue
		}

		if b.Len() == 0 {
			b.WriteString("Preferred subcategories by transaction_category:\n")
		}
		fmt.Fprintf(&b, "- %s: %s\n", key, strings.Join(subs, ", "))
		for _, n := range notes {
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}
