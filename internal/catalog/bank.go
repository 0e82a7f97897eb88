package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed data/bank.yaml
var defaultBank []byte

// document is the on-disk YAML layout.
type document struct {
	Categories []CategoryConfig `yaml:"categories"`
	Levels     []LevelConfig    `yaml:"levels"`
	Items      []FinancialItem  `yaml:"items"`
}

// Bank is the read-only item bank plus level and category metadata.
// It is built once at startup and never mutated afterwards, so it is
// safe for concurrent use without locking.
type Bank struct {
	items      []FinancialItem
	byID       map[string]FinancialItem
	byLevel    map[Level][]FinancialItem
	levels     []LevelConfig
	categories []CategoryConfig
}

// Default parses the bank compiled into the binary.
func Default() (*Bank, error) {
	return Parse(defaultBank)
}

// LoadFile parses a bank from a YAML file on disk.
func LoadFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item bank: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML item bank.
func Parse(data []byte) (*Bank, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode item bank: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	b := &Bank{
		items:      doc.Items,
		byID:       make(map[string]FinancialItem, len(doc.Items)),
		byLevel:    make(map[Level][]FinancialItem),
		levels:     doc.Levels,
		categories: doc.Categories,
	}
	for _, item := range doc.Items {
		b.byID[item.ID] = item
		b.byLevel[item.Level] = append(b.byLevel[item.Level], item)
	}
	sort.Slice(b.levels, func(i, j int) bool { return b.levels[i].Level < b.levels[j].Level })
	return b, nil
}

// Items returns a copy of every item in bank order.
func (b *Bank) Items() []FinancialItem {
	out := make([]FinancialItem, len(b.items))
	copy(out, b.items)
	return out
}

// ItemsForLevel returns a copy of the items at level l in bank order.
func (b *Bank) ItemsForLevel(l Level) []FinancialItem {
	src := b.byLevel[l]
	out := make([]FinancialItem, len(src))
	copy(out, src)
	return out
}

// Item looks up an item by id.
func (b *Bank) Item(id string) (FinancialItem, bool) {
	item, ok := b.byID[id]
	return item, ok
}

// Levels returns level metadata ordered by level.
func (b *Bank) Levels() []LevelConfig {
	out := make([]LevelConfig, len(b.levels))
	copy(out, b.levels)
	return out
}

// Level returns the metadata for l.
func (b *Bank) Level(l Level) (LevelConfig, bool) {
	for _, cfg := range b.levels {
		if cfg.Level == l {
			return cfg, true
		}
	}
	return LevelConfig{}, false
}

// IsDual reports whether level l expects two categories per item.
func (b *Bank) IsDual(l Level) bool {
	cfg, ok := b.Level(l)
	return ok && cfg.Dual
}

// Categories returns category metadata in display order.
func (b *Bank) Categories() []CategoryConfig {
	out := make([]CategoryConfig, len(b.categories))
	copy(out, b.categories)
	return out
}

// Label returns the display label of c, falling back to the raw id.
func (b *Bank) Label(c Category) string {
	for _, cfg := range b.categories {
		if cfg.ID == c {
			return cfg.Label
		}
	}
	return string(c)
}

// Labels maps a list of categories to their display labels.
func (b *Bank) Labels(cs []Category) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, b.Label(c))
	}
	return out
}
