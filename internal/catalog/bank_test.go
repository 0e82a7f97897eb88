package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBankLoads(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)

	assert.Len(t, bank.Items(), 51)
	assert.Len(t, bank.ItemsForLevel(1), 15)
	assert.Len(t, bank.ItemsForLevel(2), 15)
	assert.Len(t, bank.ItemsForLevel(3), 15)
	assert.Len(t, bank.ItemsForLevel(4), 6)
	assert.Len(t, bank.Categories(), 5)
	assert.Len(t, bank.Levels(), 4)

	assert.True(t, bank.IsDual(4))
	assert.False(t, bank.IsDual(1))

	lvl, ok := bank.Level(4)
	require.True(t, ok)
	assert.Equal(t, "Expert", lvl.Name)
	assert.Equal(t, "Items with dual financial classifications.", lvl.Description)
}

func TestDefaultBankItemShapes(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)

	for _, item := range bank.Items() {
		if item.Level == 4 {
			assert.Empty(t, item.Category, item.ID)
			require.Len(t, item.MultiCategories, 2, item.ID)
			assert.NotEqual(t, item.MultiCategories[0], item.MultiCategories[1], item.ID)
			continue
		}
		assert.True(t, item.Category.Valid(), item.ID)
		assert.Empty(t, item.MultiCategories, item.ID)
	}

	item, ok := bank.Item("L4_3")
	require.True(t, ok)
	assert.Equal(t, []Category{Asset, Liability}, item.CorrectCategories())
}

func TestItemsForLevelReturnsCopy(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)

	items := bank.ItemsForLevel(1)
	items[0].Name = "mutated"

	again := bank.ItemsForLevel(1)
	assert.NotEqual(t, "mutated", again[0].Name)
}

func TestLabels(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "Liability", bank.Label(Liability))
	assert.Equal(t, []string{"Expense", "Asset"}, bank.Labels([]Category{Expense, Asset}))
	assert.Equal(t, "BOGUS", bank.Label("BOGUS"))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" asset ")
	require.NoError(t, err)
	assert.Equal(t, Asset, c)

	_, err = ParseCategory("revenue")
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}

const header = `
categories:
  - {id: INCOME, label: Income}
  - {id: EXPENSE, label: Expense}
  - {id: ASSET, label: Asset}
  - {id: LIABILITY, label: Liability}
  - {id: EQUITY, label: Equity}
levels:
  - {level: 1, name: Beginner}
  - {level: 2, name: Intermediate}
  - {level: 3, name: Pro}
  - {level: 4, name: Expert, dual: true}
`

func TestParseRejectsInvalidItems(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `
items:
  - {id: A, level: 1, name: x, category: ASSET}
  - {id: A, level: 1, name: y, category: ASSET}
`,
		"dual level with single category": `
items:
  - {id: A, level: 4, name: x, category: ASSET, multi_categories: [ASSET, EXPENSE]}
`,
		"dual level with one multi category": `
items:
  - {id: A, level: 4, name: x, multi_categories: [ASSET]}
`,
		"dual level with repeated category": `
items:
  - {id: A, level: 4, name: x, multi_categories: [ASSET, ASSET]}
`,
		"single level with multi categories": `
items:
  - {id: A, level: 2, name: x, category: ASSET, multi_categories: [ASSET, EXPENSE]}
`,
		"unknown label": `
items:
  - {id: A, level: 1, name: x, category: REVENUE}
`,
		"unknown level": `
items:
  - {id: A, level: 7, name: x, category: ASSET}
`,
	}

	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(header + items))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidBank))
		})
	}
}

func TestParseAcceptsMinimalBank(t *testing.T) {
	bank, err := Parse([]byte(header + `
items:
  - {id: A, level: 1, name: x, category: ASSET}
  - {id: B, level: 4, name: y, multi_categories: [INCOME, LIABILITY]}
`))
	require.NoError(t, err)
	assert.Len(t, bank.Items(), 2)
	assert.Empty(t, bank.ItemsForLevel(3))
}
