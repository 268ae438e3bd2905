package lineitems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizedLine(key string, qty, unit *float64, total float64) NormalizedLine {
	return NormalizedLine{
		GroupKey:    key,
		ItemID:      sptr("item-1"),
		ProductID:   "prod-1",
		Description: "Consulting",
		Quantity:    qty,
		UnitAmount:  unit,
		TotalAmount: total,
	}
}

func TestGroupMergesByKey(t *testing.T) {
	lines := []NormalizedLine{
		normalizedLine("k", fptr(10), fptr(50), 500),
		normalizedLine("k", fptr(4), fptr(25), 100),
	}

	grouped := Group(lines)
	require.Equal(t, 1, grouped.Len())

	g, ok := grouped.Get("k")
	require.True(t, ok)
	require.NotNil(t, g.Item)
	// The first valid quantity sticks; amounts accumulate.
	assert.Equal(t, 10.0, *g.Item.Quantity)
	assert.Equal(t, 75.0, *g.Item.UnitAmount)
	assert.Equal(t, 600.0, g.TotalAmount)
}

func TestGroupFirstLineMissingAmountSeedsComment(t *testing.T) {
	lines := []NormalizedLine{
		normalizedLine("k", nil, fptr(50), 500),
	}

	g, ok := Group(lines).Get("k")
	require.True(t, ok)
	assert.Nil(t, g.Item)
	assert.Equal(t, 500.0, g.TotalAmount)
	assert.Equal(t, "Consulting", g.Description)
}

func TestGroupAdoptsQuantityIntoCommentSeed(t *testing.T) {
	lines := []NormalizedLine{
		normalizedLine("k", nil, fptr(50), 500),
		normalizedLine("k", fptr(3), fptr(20), 60),
	}

	g, ok := Group(lines).Get("k")
	require.True(t, ok)
	require.NotNil(t, g.Item)
	assert.Equal(t, "item-1", g.Item.ID)
	assert.Equal(t, 3.0, *g.Item.Quantity)
	assert.Equal(t, 20.0, *g.Item.UnitAmount)
	assert.Equal(t, 560.0, g.TotalAmount)
}

func TestGroupSkipsFollowupMissingAmounts(t *testing.T) {
	lines := []NormalizedLine{
		normalizedLine("k", fptr(10), fptr(50), 500),
		normalizedLine("k", nil, fptr(25), 100),
		normalizedLine("k", fptr(2), nil, 100),
	}

	g, ok := Group(lines).Get("k")
	require.True(t, ok)
	assert.Equal(t, 10.0, *g.Item.Quantity)
	assert.Equal(t, 50.0, *g.Item.UnitAmount)
	assert.Equal(t, 500.0, g.TotalAmount)
}

func TestGroupPreservesInsertionOrder(t *testing.T) {
	lines := []NormalizedLine{
		normalizedLine("b", fptr(1), fptr(10), 10),
		normalizedLine("a", fptr(1), fptr(20), 20),
		normalizedLine("b", fptr(2), fptr(10), 20),
		normalizedLine("c", fptr(1), fptr(5), 5),
	}

	grouped := Group(lines)
	assert.Equal(t, []string{"b", "a", "c"}, grouped.Keys())
}
