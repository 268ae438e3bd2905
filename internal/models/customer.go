package models

// Customer is the billing-side customer attached to an invoice, reconciled
// against an accounting-platform customer.
type Customer struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Accounting *AccountingCustomer `json:"accounting"`
}

// AccountingCustomer mirrors the platform's customer record, including the
// two external id namespaces and billing addresses.
type AccountingCustomer struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	CurrencyCode     string    `json:"currency_code"`
	PlatformID       *string   `json:"platform_id"`
	ProviderEntityID *string   `json:"provider_entity_id"`
	Addresses        []Address `json:"addresses"`
}

// Address is a customer address row.
type Address struct {
	Type       *string `json:"type"`
	Address1   *string `json:"address1"`
	Address2   *string `json:"address2"`
	City       *string `json:"city"`
	Country    *string `json:"country"`
	PostalCode *string `json:"postal_code"`
	Region     *string `json:"region"`
}
