package lineitems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/models"
)

func groupedLine(productID, itemID, description string, unit *float64, total float64) *GroupedLine {
	g := &GroupedLine{TotalAmount: total, Description: description, ProductID: productID}
	if itemID != "" {
		g.Item = &models.OutputItem{ID: itemID, Quantity: fptr(1), UnitAmount: unit}
	}
	return g
}

func mapOf(lines ...*GroupedLine) *OrderedMap[*GroupedLine] {
	m := NewOrderedMap[*GroupedLine]()
	for i, g := range lines {
		m.Set(g.Description+"#"+string(rune('a'+i)), g)
	}
	return m
}

func TestArrangeSortsBucketsDescending(t *testing.T) {
	grouped := mapOf(
		groupedLine("p-cheap", "i-1", "Storage", fptr(5), 5),
		groupedLine("p-mid", "i-2", "Support", fptr(40), 40),
		groupedLine("p-dear", "i-3", "Consulting", fptr(120), 120),
	)

	out := Arrange(grouped, &models.Invoice{})

	require.Len(t, out, 3)
	assert.Equal(t, "Consulting", out[0].Description)
	assert.Equal(t, "Support", out[1].Description)
	assert.Equal(t, "Storage", out[2].Description)
}

func TestArrangeBucketsStayContiguous(t *testing.T) {
	grouped := mapOf(
		groupedLine("p-a", "i-1", "Tier low", fptr(10), 10),
		groupedLine("p-b", "i-2", "Other", fptr(50), 50),
		groupedLine("p-a", "i-3", "Tier high", fptr(100), 100),
	)

	out := Arrange(grouped, &models.Invoice{})

	require.Len(t, out, 3)
	// Bucket p-a sorts internally (high before low) and its top price
	// ranks the whole bucket ahead of p-b.
	assert.Equal(t, "Tier high", out[0].Description)
	assert.Equal(t, "Tier low", out[1].Description)
	assert.Equal(t, "Other", out[2].Description)
}

func TestArrangeMissingUnitAmountSortsLast(t *testing.T) {
	grouped := mapOf(
		groupedLine("p-a", "", "No item", nil, 30),
		groupedLine("p-b", "i-1", "Priced", fptr(20), 20),
	)

	out := Arrange(grouped, &models.Invoice{})

	require.Len(t, out, 2)
	assert.Equal(t, "Priced", out[0].Description)
	assert.Equal(t, "No item", out[1].Description)
}

func TestArrangeMergesPriceIncreasesByItemID(t *testing.T) {
	grouped := mapOf(
		groupedLine("p-a", "i-1", "Consulting", fptr(100), 1000),
		groupedLine("p-b", "i-9", "Price increase Q1", fptr(5), 50),
		groupedLine("p-c", "i-9", "PRICE INCREASE Q2", fptr(7), 70),
	)

	out := Arrange(grouped, &models.Invoice{})

	require.Len(t, out, 2)
	assert.Equal(t, "Consulting", out[0].Description)

	// The bucket is sorted by unit amount before the merge, so the
	// highest-priced entry seeds the merged row.
	merged := out[1]
	assert.Equal(t, "PRICE INCREASE Q2", merged.Description)
	require.NotNil(t, merged.Item)
	assert.Equal(t, "i-9", merged.Item.ID)
	assert.Equal(t, 12.0, *merged.Item.UnitAmount)
	assert.Equal(t, 120.0, merged.TotalAmount)
}

func TestArrangeDropsPriceIncreaseWithoutItem(t *testing.T) {
	grouped := mapOf(
		groupedLine("p-a", "i-1", "Consulting", fptr(100), 1000),
		groupedLine("p-b", "", "Price increase orphan", nil, 50),
	)

	out := Arrange(grouped, &models.Invoice{})

	require.Len(t, out, 1)
	assert.Equal(t, "Consulting", out[0].Description)
}

func TestArrangePurchaseOrderBanner(t *testing.T) {
	grouped := mapOf(groupedLine("p-a", "i-1", "Consulting", fptr(100), 1000))

	out := Arrange(grouped, &models.Invoice{PONumber: "  PO-1001 "})

	require.Len(t, out, 2)
	// Banner keeps the stored value untrimmed; trimming only gates presence.
	assert.Equal(t, "  PO-1001 ", out[1].Description)
	assert.Equal(t, 0.0, out[1].TotalAmount)
	assert.Nil(t, out[1].Item)

	out = Arrange(grouped, &models.Invoice{PONumber: "   "})
	assert.Len(t, out, 1)
}

func TestArrangeCommentLines(t *testing.T) {
	grouped := mapOf(groupedLine("p-a", "i-1", "Consulting", fptr(100), 1000))
	invoice := &models.Invoice{
		PONumber: "PO-7",
		LineItems: []models.LineItem{
			{Description: "Thanks for your business"},
			{Description: "hidden note", Suppressed: true},
			{Description: "has product", ProductID: sptr("p-a")},
		},
	}

	out := Arrange(grouped, invoice)

	require.Len(t, out, 3)
	assert.Equal(t, "PO-7", out[1].Description)
	assert.Equal(t, "Thanks for your business", out[2].Description)
	assert.Equal(t, 0.0, out[2].TotalAmount)
	assert.Nil(t, out[2].Item)
}
