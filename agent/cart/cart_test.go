package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "item-1|no_variant", UnitKey("item-1", nil))
	assert.Equal(t, "item-1|no_variant", UnitKey("item-1", &ItemVariation{ID: "   "}))
	assert.Equal(t, "item-1|v1", UnitKey("item-1", &ItemVariation{ID: "v1", Name: "Full"}))
}

func TestAddNewItem(t *testing.T) {
	t.Parallel()

	c := Add(New(), "item-1", "Masala Dosa", Unit{Quantity: 2, BasePrice: 120})

	require.Len(t, c.Items, 1)
	require.Len(t, c.Items[0].Units, 1)
	assert.Equal(t, "Masala Dosa", c.Items[0].Title)
	assert.Equal(t, "item-1|no_variant", c.Items[0].Units[0].Key)
	assert.Equal(t, 2, c.Items[0].Units[0].Quantity)
}

func TestAddMergesSameKey(t *testing.T) {
	t.Parallel()

	c := Add(New(), "item-1", "Masala Dosa", Unit{Quantity: 2, BasePrice: 120})
	c = Add(c, "item-1", "Masala Dosa", Unit{Quantity: 3, BasePrice: 999})

	require.Len(t, c.Items, 1)
	require.Len(t, c.Items[0].Units, 1)
	assert.Equal(t, 5, c.Items[0].Units[0].Quantity)
	// price from the existing unit wins on merge
	assert.Equal(t, 120.0, c.Items[0].Units[0].BasePrice)
}

func TestAddDistinctVariationsNeverMerge(t *testing.T) {
	t.Parallel()

	full := &ItemVariation{ID: "v-full", Name: "Full", Price: "180"}
	half := &ItemVariation{ID: "v-half", Name: "Half", Price: "100"}

	c := Add(New(), "item-1", "Biryani", Unit{Quantity: 1, BasePrice: 180, Variation: full})
	c = Add(c, "item-1", "Biryani", Unit{Quantity: 2, BasePrice: 100, Variation: half})

	require.Len(t, c.Items, 1)
	require.Len(t, c.Items[0].Units, 2)
	assert.Equal(t, "item-1|v-full", c.Items[0].Units[0].Key)
	assert.Equal(t, "item-1|v-half", c.Items[0].Units[1].Key)
}

func TestAddBlankVariationIDTreatedAsNoVariant(t *testing.T) {
	t.Parallel()

	c := Add(New(), "item-1", "Chai", Unit{Quantity: 1, Variation: &ItemVariation{ID: "  "}})
	c = Add(c, "item-1", "Chai", Unit{Quantity: 1})

	require.Len(t, c.Items, 1)
	require.Len(t, c.Items[0].Units, 1)
	assert.Equal(t, 2, c.Items[0].Units[0].Quantity)
	assert.Nil(t, c.Items[0].Units[0].Variation)
}

func TestAddPreservesOrder(t *testing.T) {
	t.Parallel()

	c := Add(New(), "item-1", "Dosa", Unit{Quantity: 1})
	c = Add(c, "item-2", "Idli", Unit{Quantity: 1})
	c = Add(c, "item-3", "Vada", Unit{Quantity: 1})
	c = Add(c, "item-2", "Idli", Unit{Quantity: 4})

	require.Len(t, c.Items, 3)
	assert.Equal(t, "item-1", c.Items[0].ItemID)
	assert.Equal(t, "item-2", c.Items[1].ItemID)
	assert.Equal(t, "item-3", c.Items[2].ItemID)
	assert.Equal(t, 5, c.Items[1].Units[0].Quantity)
}

func TestAddDoesNotAliasInput(t *testing.T) {
	t.Parallel()

	before := Add(New(), "item-1", "Dosa", Unit{Quantity: 1})
	after := Add(before, "item-1", "Dosa", Unit{Quantity: 1})

	assert.Equal(t, 1, before.Items[0].Units[0].Quantity)
	assert.Equal(t, 2, after.Items[0].Units[0].Quantity)
}

func TestRemoveReduced(t *testing.T) {
	t.Parallel()

	c := Add(New(), "item-1", "Dosa", Unit{Quantity: 5})
	c, outcome := Remove(c, "item-1", Unit{Quantity: 2})

	assert.Equal(t, OutcomeReduced, outcome)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Units[0].Quantity)
}

func TestRemoveExactQuantityDropsUnitAndItem(t *testing.T) {
	t.Parallel()

	v := &ItemVariation{ID: "v1", Name: "Full"}
	c := Add(New(), "item-1", "Biryani", Unit{Quantity: 2, Variation: v})
	c, outcome := Remove(c, "item-1", Unit{Quantity: 2, Variation: v})

	assert.Equal(t, OutcomeRemoved, outcome)
	assert.Empty(t, c.Items)
}

func TestRemoveKeepsOtherVariants(t *testing.T) {
	t.Parallel()

	full := &ItemVariation{ID: "v-full"}
	half := &ItemVariation{ID: "v-half"}
	c := Add(New(), "item-1", "Biryani", Unit{Quantity: 1, Variation: full})
	c = Add(c, "item-1", "Biryani", Unit{Quantity: 2, Variation: half})

	c, outcome := Remove(c, "item-1", Unit{Quantity: 1, Variation: full})

	assert.Equal(t, OutcomeRemoved, outcome)
	require.Len(t, c.Items, 1)
	require.Len(t, c.Items[0].Units, 1)
	assert.Equal(t, "item-1|v-half", c.Items[0].Units[0].Key)
}

func TestRemoveInsufficientQuantityLeavesCartUntouched(t *testing.T) {
	t.Parallel()

	c := Add(New(), "item-1", "Dosa", Unit{Quantity: 2})
	after, outcome := Remove(c, "item-1", Unit{Quantity: 3})

	assert.Equal(t, OutcomeInsufficientQuantity, outcome)
	assert.Equal(t, c, after)
	assert.Equal(t, 2, after.Items[0].Units[0].Quantity)
}

func TestRemoveItemNotFound(t *testing.T) {
	t.Parallel()

	c := Add(New(), "item-1", "Dosa", Unit{Quantity: 2})
	after, outcome := Remove(c, "item-9", Unit{Quantity: 1})

	assert.Equal(t, OutcomeItemNotFound, outcome)
	assert.Equal(t, c, after)
}

func TestRemoveVariantNotFound(t *testing.T) {
	t.Parallel()

	c := Add(New(), "item-1", "Biryani", Unit{Quantity: 2, Variation: &ItemVariation{ID: "v-full"}})
	after, outcome := Remove(c, "item-1", Unit{Quantity: 1, Variation: &ItemVariation{ID: "v-half"}})

	assert.Equal(t, OutcomeVariantNotFound, outcome)
	assert.Equal(t, c, after)
}

func TestTotalQuantity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, TotalQuantity(New()))

	c := Add(New(), "item-1", "Dosa", Unit{Quantity: 2})
	c = Add(c, "item-2", "Idli", Unit{Quantity: 3, Variation: &ItemVariation{ID: "v1"}})
	c = Add(c, "item-2", "Idli", Unit{Quantity: 1, Variation: &ItemVariation{ID: "v2"}})

	assert.Equal(t, 6, TotalQuantity(c))
}

func TestFindUnit(t *testing.T) {
	t.Parallel()

	c := Add(New(), "item-1", "Dosa", Unit{Quantity: 2})

	unit, ok := FindUnit(c, "item-1", "item-1|no_variant")
	require.True(t, ok)
	assert.Equal(t, 2, unit.Quantity)

	_, ok = FindUnit(c, "item-1", "item-1|v1")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	t.Parallel()

	assert.True(t, IsEmpty(Clear()))
	assert.False(t, IsEmpty(Add(New(), "item-1", "Dosa", Unit{Quantity: 2})))
}

func TestOutcomeMessages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Reduced Dosa quantity by 2", OutcomeMessage(OutcomeReduced, "Dosa", 2, 5))
	assert.Equal(t, "Removed Dosa from cart", OutcomeMessage(OutcomeRemoved, "Dosa", 2, 2))
	assert.Equal(t, "Item Dosa not found in cart.", OutcomeMessage(OutcomeItemNotFound, "Dosa", 1, 0))
	assert.Equal(t, "Variant of Dosa not found in cart.", OutcomeMessage(OutcomeVariantNotFound, "Dosa", 1, 0))
	assert.Equal(t, "Cannot remove 3 Dosa. Only 2 available.", OutcomeMessage(OutcomeInsufficientQuantity, "Dosa", 3, 2))
}
