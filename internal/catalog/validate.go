package catalog

import (
	"errors"
	"fmt"
)

// ErrInvalidBank wraps every item bank validation failure.
var ErrInvalidBank = errors.New("invalid item bank")

func validate(doc document) error {
	if len(doc.Categories) != len(allCategories) {
		return fmt.Errorf("%w: expected %d categories, got %d", ErrInvalidBank, len(allCategories), len(doc.Categories))
	}
	seenCat := make(map[Category]bool, len(doc.Categories))
	for _, c := range doc.Categories {
		if !c.ID.Valid() {
			return fmt.Errorf("%w: category %q is not one of the fixed set", ErrInvalidBank, c.ID)
		}
		if seenCat[c.ID] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidBank, c.ID)
		}
		seenCat[c.ID] = true
	}

	dual := make(map[Level]bool, len(doc.Levels))
	for _, l := range doc.Levels {
		if !l.Level.Valid() {
			return fmt.Errorf("%w: level %d out of range", ErrInvalidBank, l.Level)
		}
		if _, dup := dual[l.Level]; dup {
			return fmt.Errorf("%w: duplicate level %d", ErrInvalidBank, l.Level)
		}
		dual[l.Level] = l.Dual
	}
	if len(dual) != int(MaxLevel) {
		return fmt.Errorf("%w: expected %d levels, got %d", ErrInvalidBank, MaxLevel, len(dual))
	}

	seenID := make(map[string]bool, len(doc.Items))
	for _, item := range doc.Items {
		if item.ID == "" {
			return fmt.Errorf("%w: item without id", ErrInvalidBank)
		}
		if seenID[item.ID] {
			return fmt.Errorf("%w: duplicate item id %q", ErrInvalidBank, item.ID)
		}
		seenID[item.ID] = true

		isDual, ok := dual[item.Level]
		if !ok {
			return fmt.Errorf("%w: item %s has unknown level %d", ErrInvalidBank, item.ID, item.Level)
		}
		if err := validateItem(item, isDual); err != nil {
			return fmt.Errorf("%w: item %s: %v", ErrInvalidBank, item.ID, err)
		}
	}
	return nil
}

func validateItem(item FinancialItem, dual bool) error {
	if item.Name == "" {
		return errors.New("missing name")
	}
	if !dual {
		if len(item.MultiCategories) > 0 {
			return errors.New("multi categories on a single-category level")
		}
		if !item.Category.Valid() {
			return fmt.Errorf("category %q is not valid", item.Category)
		}
		return nil
	}

	if item.Category != "" {
		return errors.New("single category on the dual level")
	}
	if len(item.MultiCategories) != 2 {
		return fmt.Errorf("expected 2 multi categories, got %d", len(item.MultiCategories))
	}
	for _, c := range item.MultiCategories {
		if !c.Valid() {
			return fmt.Errorf("category %q is not valid", c)
		}
	}
	if item.MultiCategories[0] == item.MultiCategories[1] {
		return errors.New("multi categories must be distinct")
	}
	return nil
}
