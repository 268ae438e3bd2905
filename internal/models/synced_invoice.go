package models

import "time"

// Email delivery states tracked on a synced invoice.
const (
	EmailStatusSent   = "SENT"
	EmailStatusFailed = "FAILED_TO_SEND"
)

// SyncedInvoice is the canonical row persisted after an invoice has been
// created on an accounting platform, keyed by (organization, provider id).
type SyncedInvoice struct {
	ID               string        `json:"id"`
	OrganizationID   string        `json:"organization_id"`
	ProviderEntityID string        `json:"provider_entity_id"`
	PlatformID       string        `json:"platform_id"`
	CustomerID       *string       `json:"customer_id"`
	AccountID        *string       `json:"account_id"`
	SubsidiaryID     *string       `json:"subsidiary_id"`
	Status           InvoiceStatus `json:"status"`
	Memo             *string       `json:"memo"`
	IssueDate        string        `json:"issue_date"`
	DueDate          string        `json:"due_date"`
	CurrencyCode     string        `json:"currency_code"`
	DocumentNumber   string        `json:"document_number"`
	TotalAmount      *float64      `json:"total_amount"`
	TaxAmount        *float64      `json:"tax_amount"`
	SubTotal         *float64      `json:"sub_total"`
	AmountDue        *float64      `json:"amount_due"`
	TotalDiscount    *float64      `json:"total_discount"`
	PDFLink          *string       `json:"pdf_link"`
	PaymentLink      *string       `json:"payment_link"`
	EmailStatus      *string       `json:"email_status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// FirstCreation reports whether the upsert that produced this row inserted
// it (created and updated timestamps equal) rather than updating it.
func (s *SyncedInvoice) FirstCreation() bool {
	return s.CreatedAt.Equal(s.UpdatedAt)
}

// SyncedLineItem is a persisted line of a synced invoice. The set is
// replaced wholesale whenever the invoice is first created.
type SyncedLineItem struct {
	ID                 string   `json:"id"`
	SyncedInvoiceID    string   `json:"synced_invoice_id"`
	PlatformID         *string  `json:"platform_id"`
	ProviderEntityID   *string  `json:"provider_entity_id"`
	AccountID          *string  `json:"account_id"`
	ItemID             *string  `json:"item_id"`
	TaxRateID          *string  `json:"tax_rate_id"`
	Description        *string  `json:"description"`
	Quantity           *float64 `json:"quantity"`
	TotalAmount        *float64 `json:"total_amount"`
	SubTotal           *float64 `json:"sub_total"`
	UnitAmount         *float64 `json:"unit_amount"`
	TaxAmount          *float64 `json:"tax_amount"`
	DiscountAmount     *float64 `json:"discount_amount"`
	DiscountPercentage *float64 `json:"discount_percentage"`
}
