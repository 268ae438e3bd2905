package lineitems

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/models"
)

func sptr(s string) *string { return &s }

func fptr(f float64) *float64 { return &f }

func productWithItem(platformID, providerID string) *models.Product {
	return &models.Product{
		ID: "prod-1",
		Item: &models.AccountingItem{
			ID:               "item-row-1",
			PlatformID:       sptr(platformID),
			ProviderEntityID: sptr(providerID),
		},
	}
}

func TestNormalizeBaseValues(t *testing.T) {
	line := models.LineItem{
		ProductID:   sptr("prod-1"),
		Description: "Consulting",
		Quantity:    fptr(10),
		UnitAmount:  sptr("50.25"),
		TotalAmount: sptr("502.50"),
		Product:     productWithItem("plat-1", "prov-1"),
	}

	n := Normalize(line, false)

	require.NotNil(t, n.Quantity)
	assert.Equal(t, 10.0, *n.Quantity)
	require.NotNil(t, n.UnitAmount)
	assert.Equal(t, 50.25, *n.UnitAmount)
	assert.Equal(t, 502.50, n.TotalAmount)
	assert.Equal(t, "prov-1", *n.ItemID)
}

func TestNormalizeNilTotalDefaultsToZero(t *testing.T) {
	line := models.LineItem{
		ProductID:   sptr("prod-1"),
		Description: "Consulting",
		Quantity:    fptr(1),
		UnitAmount:  sptr("50"),
	}

	n := Normalize(line, false)

	assert.Equal(t, 0.0, n.TotalAmount)
}

func TestNormalizeMalformedAmountBecomesNaN(t *testing.T) {
	line := models.LineItem{
		ProductID:   sptr("prod-1"),
		Description: "Consulting",
		Quantity:    fptr(1),
		UnitAmount:  sptr("not-a-number"),
		TotalAmount: sptr("also-bad"),
	}

	n := Normalize(line, false)

	require.NotNil(t, n.UnitAmount)
	assert.True(t, math.IsNaN(*n.UnitAmount))
	assert.True(t, math.IsNaN(n.TotalAmount))
}

func TestNormalizeLatestAdjustmentOverrides(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	line := models.LineItem{
		ProductID:   sptr("prod-1"),
		Description: "Consulting",
		Quantity:    fptr(10),
		UnitAmount:  sptr("50"),
		TotalAmount: sptr("500"),
		Adjustments: []models.Adjustment{
			{ID: "adj-2", Quantity: fptr(8), UnitPrice: sptr("45"), TotalAmount: sptr("360"), CreatedAt: base.Add(time.Hour)},
			{ID: "adj-1", Quantity: fptr(9), UnitPrice: sptr("48"), TotalAmount: sptr("432"), CreatedAt: base},
			{ID: "adj-3", Quantity: fptr(7), UnitPrice: sptr("40"), TotalAmount: sptr("280"), CreatedAt: base.Add(2 * time.Hour)},
		},
	}

	n := Normalize(line, false)

	require.NotNil(t, n.Quantity)
	assert.Equal(t, 7.0, *n.Quantity)
	require.NotNil(t, n.UnitAmount)
	assert.Equal(t, 40.0, *n.UnitAmount)
	assert.Equal(t, 280.0, n.TotalAmount)
}

func TestNormalizeEqualTimestampsKeepFirst(t *testing.T) {
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	line := models.LineItem{
		ProductID:   sptr("prod-1"),
		Description: "Consulting",
		Adjustments: []models.Adjustment{
			{ID: "adj-a", Quantity: fptr(5), UnitPrice: sptr("10"), TotalAmount: sptr("50"), CreatedAt: when},
			{ID: "adj-b", Quantity: fptr(6), UnitPrice: sptr("12"), TotalAmount: sptr("72"), CreatedAt: when},
		},
	}

	n := Normalize(line, false)

	require.NotNil(t, n.Quantity)
	assert.Equal(t, 5.0, *n.Quantity)
	assert.Equal(t, 50.0, n.TotalAmount)
}

func TestNormalizeAdjustmentMissingTotalIsNaN(t *testing.T) {
	line := models.LineItem{
		ProductID:   sptr("prod-1"),
		Description: "Consulting",
		TotalAmount: sptr("500"),
		Adjustments: []models.Adjustment{
			{ID: "adj-1", Quantity: fptr(5), UnitPrice: sptr("10"), CreatedAt: time.Now()},
		},
	}

	n := Normalize(line, false)

	assert.True(t, math.IsNaN(n.TotalAmount))
}

func TestNormalizeItemIDSelection(t *testing.T) {
	line := models.LineItem{
		ProductID:   sptr("prod-1"),
		Description: "Consulting",
		Product:     productWithItem("plat-1", "prov-1"),
	}

	platform := Normalize(line, true)
	require.NotNil(t, platform.ItemID)
	assert.Equal(t, "plat-1", *platform.ItemID)

	provider := Normalize(line, false)
	require.NotNil(t, provider.ItemID)
	assert.Equal(t, "prov-1", *provider.ItemID)

	line.Product = nil
	bare := Normalize(line, false)
	assert.Nil(t, bare.ItemID)
}

func TestNormalizeGroupKey(t *testing.T) {
	line := models.LineItem{
		ProductID:    sptr("prod-1"),
		DepartmentID: sptr("dept-9"),
		Description:  "Consulting",
		Product:      productWithItem("plat-1", "prov-1"),
	}

	n := Normalize(line, false)
	assert.Equal(t, "prov-1||Consulting||dept-9", n.GroupKey)

	line.Product = nil
	line.DepartmentID = nil
	n = Normalize(line, false)
	assert.Equal(t, "||Consulting||", n.GroupKey)
}
