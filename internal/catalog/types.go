package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Category is one of the five fixed classification labels.
type Category string

const (
	Income    Category = "INCOME"
	Expense   Category = "EXPENSE"
	Asset     Category = "ASSET"
	Liability Category = "LIABILITY"
	Equity    Category = "EQUITY"
)

// ErrUnknownCategory is returned when a label is not one of the fixed five.
var ErrUnknownCategory = errors.New("unknown category")

var allCategories = []Category{Income, Expense, Asset, Liability, Equity}

// AllCategories returns the fixed category set in display order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c is a member of the fixed set.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts a label in any case ("asset", "Asset", "ASSET").
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
	return c, nil
}

// Level is a difficulty tier between MinLevel and MaxLevel.
type Level int

const (
	MinLevel Level = 1
	MaxLevel Level = 4
)

// Valid reports whether l is one of the four tiers.
func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// CategoryConfig is display metadata for a category.
type CategoryConfig struct {
	ID    Category `json:"id" yaml:"id"`
	Label string   `json:"label" yaml:"label"`
	Color string   `json:"color" yaml:"color"`
}

// LevelConfig is display metadata for a level.
type LevelConfig struct {
	Level       Level  `json:"level" yaml:"level"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Color       string `json:"color" yaml:"color"`
	Dual        bool   `json:"dual" yaml:"dual"`
}

// FinancialItem is a single quiz question. Levels 1-3 carry Category,
// the dual level carries exactly two distinct MultiCategories.
type FinancialItem struct {
	ID              string     `json:"id" yaml:"id"`
	Name            string     `json:"name" yaml:"name"`
	Level           Level      `json:"level" yaml:"level"`
	Category        Category   `json:"category,omitempty" yaml:"category,omitempty"`
	MultiCategories []Category `json:"multi_categories,omitempty" yaml:"multi_categories,omitempty"`
	Explanation     string     `json:"explanation" yaml:"explanation"`
}

// CorrectCategories returns the answer as an ordered list.
func (i FinancialItem) CorrectCategories() []Category {
	if len(i.MultiCategories) > 0 {
		out := make([]Category, len(i.MultiCategories))
		copy(out, i.MultiCategories)
		return out
	}
	if i.Category == "" {
		return nil
	}
	return []Category{i.Category}
}

// IsDual reports whether the item expects two categories.
func (i FinancialItem) IsDual() bool {
	return len(i.MultiCategories) > 0
}
