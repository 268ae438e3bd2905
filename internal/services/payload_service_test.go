package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/models"
)

func payloadInvoice() *models.Invoice {
	provID := "prov-cust-1"
	platID := "plat-cust-1"
	return &models.Invoice{
		ID:             "inv-1",
		OrganizationID: "org-1",
		DocumentNumber: "INV-42",
		DueDate:        "2026-04-15",
		IssueDate:      "2026-03-15",
		Customer: &models.Customer{
			ID:   "cust-1",
			Name: "Acme Customer",
			Accounting: &models.AccountingCustomer{
				ID:               "acct-1",
				Name:             "Acme Customer",
				CurrencyCode:     "USD",
				ProviderEntityID: &provID,
				PlatformID:       &platID,
			},
		},
	}
}

func TestBuildUsesProviderCustomerID(t *testing.T) {
	svc := NewPayloadService()
	org := &models.Organization{ID: "org-1", Platform: models.PlatformWave, AccessToken: "t"}

	payload, _, err := svc.Build(org, payloadInvoice())
	require.NoError(t, err)
	assert.Equal(t, "prov-cust-1", payload.CustomerID)
	assert.Equal(t, "INV-42", payload.DocumentNumber)
	assert.Equal(t, "USD", payload.CurrencyCode)
}

func TestBuildUsesPlatformCustomerIDForDynamics(t *testing.T) {
	svc := NewPayloadService()
	org := &models.Organization{ID: "org-1", Platform: models.PlatformDynamics365, AccessToken: "t"}

	payload, _, err := svc.Build(org, payloadInvoice())
	require.NoError(t, err)
	assert.Equal(t, "plat-cust-1", payload.CustomerID)
}

func TestBuildRequiresAccountingCustomer(t *testing.T) {
	svc := NewPayloadService()
	org := &models.Organization{ID: "org-1", Platform: models.PlatformWave}
	invoice := payloadInvoice()
	invoice.Customer.Accounting = nil

	_, _, err := svc.Build(org, invoice)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInternalError, apperrors.CodeOf(err))
}

func TestBuildOmitsEmptyAdditionalFields(t *testing.T) {
	svc := NewPayloadService()
	org := &models.Organization{ID: "org-1", Platform: models.PlatformWave}

	payload, _, err := svc.Build(org, payloadInvoice())
	require.NoError(t, err)
	assert.Nil(t, payload.AdditionalFields)
}

func TestBuildAdditionalFieldsWithAddressTypeDefault(t *testing.T) {
	svc := NewPayloadService()
	org := &models.Organization{ID: "org-1", Platform: models.PlatformWave}
	invoice := payloadInvoice()
	city := "Berlin"
	billing := "billing"
	invoice.Customer.Accounting.Email = "ap@acme.test"
	invoice.Customer.Accounting.Addresses = []models.Address{
		{Type: &billing, City: &city},
		{City: &city},
	}

	payload, _, err := svc.Build(org, invoice)
	require.NoError(t, err)
	require.NotNil(t, payload.AdditionalFields)
	assert.Equal(t, "ap@acme.test", payload.AdditionalFields.BillingEmail)
	require.Len(t, payload.AdditionalFields.Addresses, 2)
	assert.Equal(t, "billing", payload.AdditionalFields.Addresses[0].Type)
	assert.Equal(t, "unknown", payload.AdditionalFields.Addresses[1].Type)
}

func TestBuildCustomFields(t *testing.T) {
	svc := NewPayloadService()
	org := &models.Organization{ID: "org-1", Platform: models.PlatformDynamics365}
	invoice := payloadInvoice()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	terms := 30
	invoice.PeriodStartDate = &start
	invoice.PeriodEndDate = &end
	invoice.PaymentTerms = &terms

	_, custom, err := svc.Build(org, invoice)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01T00:00:00Z", custom.ContractStartDate)
	assert.Equal(t, "2026-12-31T00:00:00Z", custom.ContractEndDate)
	require.NotNil(t, custom.PaymentTerms)
	assert.Equal(t, 30, *custom.PaymentTerms)
}

func TestBuildProcessesLineItems(t *testing.T) {
	svc := NewPayloadService()
	org := &models.Organization{ID: "org-1", Platform: models.PlatformWave}
	invoice := payloadInvoice()
	productID := "prod-1"
	itemID := "item-1"
	qty := 2.0
	unit := "50"
	total := "100"
	invoice.LineItems = []models.LineItem{{
		ID:          "li-1",
		ProductID:   &productID,
		Description: "Consulting",
		Quantity:    &qty,
		UnitAmount:  &unit,
		TotalAmount: &total,
		Product: &models.Product{
			ID:   productID,
			Name: "Consulting",
			Item: &models.AccountingItem{ID: "acct-item-1", ProviderEntityID: &itemID},
		},
	}}

	payload, _, err := svc.Build(org, invoice)
	require.NoError(t, err)
	require.Len(t, payload.LineItems, 1)
	require.NotNil(t, payload.LineItems[0].Item)
	assert.Equal(t, "item-1", payload.LineItems[0].Item.ID)
	assert.Equal(t, 100.0, payload.LineItems[0].TotalAmount)
}

func TestBuildDirectCreateUsesPlatformItemIDs(t *testing.T) {
	svc := NewPayloadService()
	org := &models.Organization{ID: "org-1", Platform: models.PlatformWave, DirectCreate: true}
	invoice := payloadInvoice()
	productID := "prod-1"
	provItemID := "prov-item-1"
	platItemID := "plat-item-1"
	qty := 1.0
	unit := "10"
	total := "10"
	invoice.LineItems = []models.LineItem{{
		ID:          "li-1",
		ProductID:   &productID,
		Description: "Consulting",
		Quantity:    &qty,
		UnitAmount:  &unit,
		TotalAmount: &total,
		Product: &models.Product{
			ID:   productID,
			Name: "Consulting",
			Item: &models.AccountingItem{ID: "acct-item-1", ProviderEntityID: &provItemID, PlatformID: &platItemID},
		},
	}}

	payload, _, err := svc.Build(org, invoice)
	require.NoError(t, err)
	require.Len(t, payload.LineItems, 1)
	require.NotNil(t, payload.LineItems[0].Item)
	assert.Equal(t, "plat-item-1", payload.LineItems[0].Item.ID)
	// The customer reference still follows the platform rule, not the
	// direct-create override.
	assert.Equal(t, "prov-cust-1", payload.CustomerID)
}
