// Package uac talks to the accounting platforms. A Connector hides whether
// invoices are created through the aggregator's async REST API or directly
// against a platform (Wave GraphQL, Dynamics 365 OData).
package uac

import (
	"context"

	"billing-backend/internal/models"
)

// CreateResult is what a connector hands back after submitting an invoice.
// Direct platforms return the created invoice synchronously and a job whose
// id is the invoice id. The aggregator returns only the async job.
type CreateResult struct {
	Job     *models.AsyncJob
	Invoice *models.AccountingInvoice
}

// Connector is the full surface of one accounting platform: invoice
// creation plus the post-creation operations the email and action flows
// need. Variants that lack an operation return a typed error (actions) or
// empty values (links) so callers can fall back.
type Connector interface {
	CreateInvoice(ctx context.Context, org *models.Organization, payload *models.InvoiceToSync, custom *models.CustomFields) (*CreateResult, error)
	FetchPDF(ctx context.Context, org *models.Organization, invoice *models.SyncedInvoice) (string, error)
	GetPaymentLink(ctx context.Context, org *models.Organization, invoice *models.SyncedInvoice) (*string, error)
	PerformAction(ctx context.Context, org *models.Organization, invoiceID, action string) error
}

// TokenPersister saves refreshed platform tokens and returns the updated
// organization. Implemented by the organization repository.
type TokenPersister interface {
	UpdateTokens(ctx context.Context, organizationID, accessToken, refreshToken string, expiresIn int) (*models.Organization, error)
}
