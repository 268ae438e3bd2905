package uac

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"billing-backend/internal/config"
	"billing-backend/internal/models"
)

// QuickBooksClient handles QuickBooks Online organizations. Invoice
// creation and PDF links go through the aggregator; the hosted payment
// link is read from the QuickBooks API directly using the per-organization
// bearer tokens minted by the token source.
type QuickBooksClient struct {
	baseURL    string
	tokens     *TokenSource
	generic    *GenericClient
	httpClient *http.Client
}

func NewQuickBooksClient(cfg *config.Config, tokens *TokenSource, generic *GenericClient) *QuickBooksClient {
	return &QuickBooksClient{
		baseURL:    cfg.QuickBooks.BaseURL,
		tokens:     tokens,
		generic:    generic,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateInvoice delegates to the aggregator.
func (c *QuickBooksClient) CreateInvoice(ctx context.Context, org *models.Organization, payload *models.InvoiceToSync, custom *models.CustomFields) (*CreateResult, error) {
	return c.generic.CreateInvoice(ctx, org, payload, custom)
}

// FetchPDF delegates to the aggregator.
func (c *QuickBooksClient) FetchPDF(ctx context.Context, org *models.Organization, invoice *models.SyncedInvoice) (string, error) {
	return c.generic.FetchPDF(ctx, org, invoice)
}

// GetPaymentLink returns the hosted payment page URL for the invoice.
func (c *QuickBooksClient) GetPaymentLink(ctx context.Context, org *models.Organization, invoice *models.SyncedInvoice) (*string, error) {
	link, err := c.PaymentLink(ctx, org, invoice.PlatformID)
	if err != nil {
		return nil, err
	}
	if link == "" {
		return nil, nil
	}
	return &link, nil
}

// PerformAction delegates to the aggregator, which rejects every action.
func (c *QuickBooksClient) PerformAction(ctx context.Context, org *models.Organization, invoiceID, action string) error {
	return c.generic.PerformAction(ctx, org, invoiceID, action)
}

// PaymentLink returns the hosted payment page URL for an invoice.
func (c *QuickBooksClient) PaymentLink(ctx context.Context, org *models.Organization, platformInvoiceID string) (string, error) {
	token, err := c.tokens.AccessToken(ctx, org)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v3/company/%s/invoice/%s?minorversion=62&include=invoiceLink",
		c.baseURL, org.RealmID, platformInvoiceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("payment link fetch returned %d: %s", resp.StatusCode, raw)
	}

	var out struct {
		Invoice struct {
			InvoiceLink string `json:"InvoiceLink"`
		} `json:"Invoice"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	return out.Invoice.InvoiceLink, nil
}
