package models

// InvoiceToSync is the invoice creation payload submitted to an accounting
// platform. Optional keys are omitted entirely when empty to satisfy the
// strict schemas of downstream connectors.
type InvoiceToSync struct {
	CustomerID       string            `json:"customer_id"`
	DueDate          string            `json:"due_date"`
	IssueDate        string            `json:"issue_date"`
	CurrencyCode     string            `json:"currency_code"`
	DocumentNumber   string            `json:"document_number,omitempty"`
	LineItems        []OutputLine      `json:"line_items"`
	AdditionalFields *AdditionalFields `json:"additional_fields,omitempty"`
}

// OutputLine is one submitted invoice line: an item line when Item is set,
// a comment-only line (zero amount, description only) otherwise.
type OutputLine struct {
	Item        *OutputItem `json:"item,omitempty"`
	TotalAmount float64     `json:"total_amount"`
	Description string      `json:"description"`
}

// OutputItem carries the resolved accounting item reference for a line.
type OutputItem struct {
	ID         string   `json:"id"`
	Quantity   *float64 `json:"quantity,omitempty"`
	UnitAmount *float64 `json:"unit_amount,omitempty"`
}

// AdditionalFields holds optional invoice metadata some platforms accept.
type AdditionalFields struct {
	BillingEmail string           `json:"billing_email,omitempty"`
	Addresses    []PayloadAddress `json:"addresses,omitempty"`
}

// Empty reports whether the struct carries nothing worth serializing.
func (f *AdditionalFields) Empty() bool {
	return f.BillingEmail == "" && len(f.Addresses) == 0
}

// PayloadAddress is an address coerced to the connector's fixed shape.
// Type always carries a value; everything else stays nullable.
type PayloadAddress struct {
	Type       string  `json:"type"`
	Address1   *string `json:"address1"`
	Address2   *string `json:"address2"`
	City       *string `json:"city"`
	Country    *string `json:"country"`
	PostalCode *string `json:"postal_code"`
	Region     *string `json:"region"`
}

// CustomFields is the contract-deferral side channel consumed only by
// platforms that defer revenue over the contract period.
type CustomFields struct {
	ContractStartDate string `json:"contract_start_date,omitempty"`
	ContractEndDate   string `json:"contract_end_date,omitempty"`
	PaymentTerms      *int   `json:"payment_terms,omitempty"`
}
