package uac

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/config"
	"billing-backend/internal/models"
)

// GenericClient talks to the accounting aggregator's unified REST API.
// Every organization authorizes the aggregator once; invoice creation is
// submitted in async mode and tracked via the returned job.
type GenericClient struct {
	baseURL    string
	authHeader string
	version    string
	httpClient *http.Client
}

func NewGenericClient(cfg *config.Config) *GenericClient {
	creds := cfg.Aggregator.ClientID + ":" + cfg.Aggregator.ClientSecret
	return &GenericClient{
		baseURL:    cfg.Aggregator.BaseURL,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(creds)),
		version:    cfg.Aggregator.Version,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type createInvoiceRequest struct {
	ResponseMode string                `json:"response_mode"`
	Invoice      *models.InvoiceToSync `json:"invoice"`
}

type createInvoiceResponse struct {
	AsyncResponse *models.AsyncJob `json:"async_response"`
}

type connectionCredentials struct {
	Credential struct {
		AccessToken string `json:"access_token"`
	} `json:"credential"`
}

type invoicePDFResponse struct {
	Invoice struct {
		PDFLink string `json:"pdf_link"`
	} `json:"invoice"`
}

// CreateInvoice submits an invoice in async mode and returns the job that
// tracks its creation on the platform.
func (c *GenericClient) CreateInvoice(ctx context.Context, org *models.Organization, payload *models.InvoiceToSync, _ *models.CustomFields) (*CreateResult, error) {
	url := fmt.Sprintf("%s/versioned/accounting/invoices?access_token=%s", c.baseURL, org.AccessToken)

	body := createInvoiceRequest{ResponseMode: "async", Invoice: payload}
	var resp createInvoiceResponse
	if err := c.do(ctx, http.MethodPost, url, body, &resp); err != nil {
		return nil, err
	}

	return &CreateResult{Job: resp.AsyncResponse}, nil
}

// FetchConnectionCredentials exchanges the stored aggregator token for a
// short-lived platform bearer token.
func (c *GenericClient) FetchConnectionCredentials(ctx context.Context, accessToken, connectionID string) (string, error) {
	url := fmt.Sprintf("%s/versioned/connections/credentials?access_token=%s", c.baseURL, accessToken)

	body := map[string]any{
		"credential": map[string]string{"type": "oauth"},
		"connection": map[string]string{"id": connectionID},
	}
	var resp connectionCredentials
	if err := c.do(ctx, http.MethodGet, url, body, &resp); err != nil {
		return "", err
	}
	return resp.Credential.AccessToken, nil
}

// InvoicePDFLink fetches the rendered PDF location for a platform invoice.
func (c *GenericClient) InvoicePDFLink(ctx context.Context, accessToken, invoiceID string) (string, error) {
	url := fmt.Sprintf("%s/versioned/accounting/invoices/%s/pdf?access_token=%s", c.baseURL, invoiceID, accessToken)

	var resp invoicePDFResponse
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return "", err
	}
	return resp.Invoice.PDFLink, nil
}

// FetchPDF returns the aggregator-rendered PDF link for a synced invoice.
func (c *GenericClient) FetchPDF(ctx context.Context, org *models.Organization, invoice *models.SyncedInvoice) (string, error) {
	return c.InvoicePDFLink(ctx, org.AccessToken, invoice.ProviderEntityID)
}

// GetPaymentLink is not offered by the aggregator.
func (c *GenericClient) GetPaymentLink(_ context.Context, _ *models.Organization, _ *models.SyncedInvoice) (*string, error) {
	return nil, nil
}

// PerformAction is not offered by the aggregator.
func (c *GenericClient) PerformAction(_ context.Context, org *models.Organization, _, action string) error {
	return apperrors.BadRequest(apperrors.CodeInvalidAction,
		"Action %s is not supported for platform %s", action, org.Platform)
}

func (c *GenericClient) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")
	if c.version != "" {
		req.Header.Set("X-Rutter-Version", c.version)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return apperrors.New(resp.StatusCode, apperrors.CodeInvoiceCreationFailed, extractAPIError(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// extractAPIError digs an error message out of the payload shapes the
// aggregator and platforms answer with.
func extractAPIError(raw []byte) string {
	var envelope struct {
		Error        json.RawMessage `json:"error"`
		Message      string          `json:"message"`
		ErrorMessage string          `json:"error_message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return string(raw)
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	if envelope.ErrorMessage != "" {
		return envelope.ErrorMessage
	}
	if len(envelope.Error) > 0 {
		var nested struct {
			Message      string `json:"message"`
			ErrorMessage string `json:"error_message"`
		}
		if json.Unmarshal(envelope.Error, &nested) == nil {
			if nested.Message != "" {
				return nested.Message
			}
			if nested.ErrorMessage != "" {
				return nested.ErrorMessage
			}
		}
		var plain string
		if json.Unmarshal(envelope.Error, &plain) == nil && plain != "" {
			return plain
		}
		return string(envelope.Error)
	}
	return string(raw)
}
