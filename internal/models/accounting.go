package models

// InvoiceStatus is the canonical status an accounting platform's invoice
// state is mapped onto.
type InvoiceStatus string

const (
	StatusDraft         InvoiceStatus = "draft"
	StatusSubmitted     InvoiceStatus = "submitted"
	StatusOpen          InvoiceStatus = "open"
	StatusPaid          InvoiceStatus = "paid"
	StatusPartiallyPaid InvoiceStatus = "partially_paid"
	StatusVoid          InvoiceStatus = "void"
	StatusUnknown       InvoiceStatus = "unknown"
)

// AccountingInvoice is the canonical invoice shape returned by every
// platform connector after creation or fetch.
type AccountingInvoice struct {
	ID             string                `json:"id"`
	PlatformID     string                `json:"platform_id"`
	AccountID      *string               `json:"account_id"`
	SubsidiaryID   *string               `json:"subsidiary_id"`
	CustomerID     string                `json:"customer_id"`
	DueDate        string                `json:"due_date"`
	IssueDate      string                `json:"issue_date"`
	Status         InvoiceStatus         `json:"status"`
	CurrencyCode   string                `json:"currency_code"`
	DocumentNumber string                `json:"document_number"`
	Memo           *string               `json:"memo"`
	AmountDue      *float64              `json:"amount_due"`
	SubTotal       *float64              `json:"sub_total"`
	TaxAmount      *float64              `json:"tax_amount"`
	TotalAmount    *float64              `json:"total_amount"`
	TotalDiscount  *float64              `json:"total_discount"`
	LineItems      []AccountingLineItem  `json:"line_items"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
	PlatformData   map[string]any        `json:"platform_data,omitempty"`
}

// AccountingLineItem is a created invoice line as echoed back by a platform.
type AccountingLineItem struct {
	PlatformID         *string  `json:"platform_id"`
	AccountID          *string  `json:"account_id"`
	ItemID             *string  `json:"item_id"`
	TaxRateID          *string  `json:"tax_rate_id"`
	Description        *string  `json:"description"`
	Quantity           *float64 `json:"quantity"`
	Amount             *float64 `json:"amount"`
	SubTotal           *float64 `json:"sub_total"`
	UnitAmount         *float64 `json:"unit_amount"`
	TaxAmount          *float64 `json:"tax_amount"`
	DiscountAmount     *float64 `json:"discount_amount"`
	DiscountPercentage *float64 `json:"discount_percentage"`
}
