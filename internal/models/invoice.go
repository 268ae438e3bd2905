package models

import "time"

// Invoice is the billing-side invoice loaded for a sync run, with its line
// items, adjustments and customer preloaded. It is an immutable snapshot;
// nothing in this struct is written back.
type Invoice struct {
	ID              string     `json:"id"`
	OrganizationID  string     `json:"organization_id"`
	CustomerID      string     `json:"customer_id"`
	DocumentNumber  string     `json:"document_number"`
	PONumber        string     `json:"po_number"`
	DueDate         string     `json:"due_date"`
	IssueDate       string     `json:"issue_date"`
	PeriodStartDate *time.Time `json:"period_start_date"`
	PeriodEndDate   *time.Time `json:"period_end_date"`
	PaymentTerms    *int       `json:"payment_terms"`
	LineItems       []LineItem `json:"line_items"`
	Customer        *Customer  `json:"customer"`
}

// LineItem is a raw billing line item. Decimal columns are carried as
// nullable strings and parsed during normalization.
type LineItem struct {
	ID           string       `json:"id"`
	Suppressed   bool         `json:"suppressed"`
	ProductID    *string      `json:"product_id"`
	DepartmentID *string      `json:"department_id"`
	Description  string       `json:"description"`
	CommentLine  bool         `json:"comment_line"`
	Quantity     *float64     `json:"quantity"`
	UnitAmount   *string      `json:"unit_amount"`
	TotalAmount  *string      `json:"total_amount"`
	Product      *Product     `json:"product"`
	Adjustments  []Adjustment `json:"adjustments"`
}

// Adjustment overrides a line item's quantity, unit price and total. Only
// the most recently created adjustment is authoritative.
type Adjustment struct {
	ID          string    `json:"id"`
	Quantity    *float64  `json:"quantity"`
	UnitPrice   *string   `json:"unit_price"`
	TotalAmount *string   `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product links a billing line item to an accounting item.
type Product struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Item *AccountingItem `json:"item"`
}

// AccountingItem is the reconciled accounting-platform item for a product.
// PlatformID and ProviderEntityID are the two external id namespaces.
type AccountingItem struct {
	ID               string  `json:"id"`
	PlatformID       *string `json:"platform_id"`
	ProviderEntityID *string `json:"provider_entity_id"`
}
