package services

import (
	"time"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/lineitems"
	"billing-backend/internal/models"
)

// PayloadService assembles the platform-facing invoice payload from the
// billing invoice: the processed line items, the customer reference in the
// right id namespace, and the optional metadata side channels.
type PayloadService struct{}

func NewPayloadService() *PayloadService {
	return &PayloadService{}
}

// Build returns the invoice payload and the contract custom fields.
func (s *PayloadService) Build(org *models.Organization, invoice *models.Invoice) (*models.InvoiceToSync, *models.CustomFields, error) {
	if invoice.Customer == nil || invoice.Customer.Accounting == nil {
		return nil, nil, apperrors.Internal(apperrors.CodeInternalError,
			"invoice %s has no reconciled accounting customer", invoice.ID)
	}
	accounting := invoice.Customer.Accounting

	// The customer reference follows the platform's id namespace, while
	// line items switch namespaces on the direct-create override.
	customerID := accounting.ProviderEntityID
	if org.UsePlatformValues() {
		customerID = accounting.PlatformID
	}

	payload := &models.InvoiceToSync{
		CustomerID:     deref(customerID),
		DueDate:        invoice.DueDate,
		IssueDate:      invoice.IssueDate,
		CurrencyCode:   accounting.CurrencyCode,
		DocumentNumber: invoice.DocumentNumber,
		LineItems:      lineitems.Process(invoice, org.DirectCreate),
	}

	if extra := buildAdditionalFields(accounting); !extra.Empty() {
		payload.AdditionalFields = extra
	}

	custom := &models.CustomFields{
		ContractStartDate: formatContractDate(invoice.PeriodStartDate),
		ContractEndDate:   formatContractDate(invoice.PeriodEndDate),
		PaymentTerms:      invoice.PaymentTerms,
	}

	return payload, custom, nil
}

func buildAdditionalFields(accounting *models.AccountingCustomer) *models.AdditionalFields {
	extra := &models.AdditionalFields{BillingEmail: accounting.Email}

	for _, addr := range accounting.Addresses {
		addressType := "unknown"
		if addr.Type != nil {
			addressType = *addr.Type
		}
		extra.Addresses = append(extra.Addresses, models.PayloadAddress{
			Type:       addressType,
			Address1:   addr.Address1,
			Address2:   addr.Address2,
			City:       addr.City,
			Country:    addr.Country,
			PostalCode: addr.PostalCode,
			Region:     addr.Region,
		})
	}

	return extra
}

func formatContractDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
