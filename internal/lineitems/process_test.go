package lineitems

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/models"
)

// Full-invoice scenario covering adjustment overrides, group merging,
// price-increase segregation, product bucket ordering and comment lines.
func TestProcessFullInvoice(t *testing.T) {
	consulting := &models.Product{
		ID:   "prod-consult",
		Item: &models.AccountingItem{ID: "row-1", ProviderEntityID: sptr("item-consult")},
	}
	storage := &models.Product{
		ID:   "prod-storage",
		Item: &models.AccountingItem{ID: "row-2", ProviderEntityID: sptr("item-storage")},
	}

	invoice := &models.Invoice{
		PONumber: "PO-1001",
		LineItems: []models.LineItem{
			// Two consulting lines sharing a group key. The adjustment on
			// the first rewrites its amounts before merging.
			{
				ProductID:   sptr("prod-consult"),
				Description: "Consulting",
				Quantity:    fptr(10),
				UnitAmount:  sptr("50"),
				TotalAmount: sptr("500"),
				Product:     consulting,
				Adjustments: []models.Adjustment{
					{ID: "old", Quantity: fptr(10), UnitPrice: sptr("50"), TotalAmount: sptr("500"),
						CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
					{ID: "new", Quantity: fptr(8), UnitPrice: sptr("60"), TotalAmount: sptr("480"),
						CreatedAt: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)},
				},
			},
			{
				ProductID:   sptr("prod-consult"),
				Description: "Consulting",
				Quantity:    fptr(2),
				UnitAmount:  sptr("40"),
				TotalAmount: sptr("80"),
				Product:     consulting,
			},
			// Cheaper product sorts behind consulting.
			{
				ProductID:   sptr("prod-storage"),
				Description: "Storage",
				Quantity:    fptr(4),
				UnitAmount:  sptr("25"),
				TotalAmount: sptr("100"),
				Product:     storage,
			},
			// Segregated behind regular items.
			{
				ProductID:   sptr("prod-storage"),
				Description: "Price increase 2026",
				Quantity:    fptr(1),
				UnitAmount:  sptr("3"),
				TotalAmount: sptr("3"),
				Product:     storage,
			},
			// Comment and suppressed lines.
			{Description: "Thanks for your business"},
			{Description: "internal note", Suppressed: true},
			{ProductID: sptr("prod-storage"), Description: "dropped", Suppressed: true, Product: storage},
		},
	}

	out := Process(invoice, false)

	require.Len(t, out, 5)

	// Consulting group: adjusted first line merged with the second.
	c := out[0]
	assert.Equal(t, "Consulting", c.Description)
	require.NotNil(t, c.Item)
	assert.Equal(t, "item-consult", c.Item.ID)
	assert.Equal(t, 8.0, *c.Item.Quantity)
	assert.Equal(t, 100.0, *c.Item.UnitAmount)
	assert.Equal(t, 560.0, c.TotalAmount)

	s := out[1]
	assert.Equal(t, "Storage", s.Description)
	assert.Equal(t, 100.0, s.TotalAmount)

	pi := out[2]
	assert.Equal(t, "Price increase 2026", pi.Description)
	require.NotNil(t, pi.Item)
	assert.Equal(t, "item-storage", pi.Item.ID)
	assert.Equal(t, 3.0, pi.TotalAmount)

	assert.Equal(t, "PO-1001", out[3].Description)
	assert.Equal(t, 0.0, out[3].TotalAmount)
	assert.Equal(t, "Thanks for your business", out[4].Description)
}
