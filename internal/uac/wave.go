package uac

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/config"
	"billing-backend/internal/models"
)

// WaveClient creates and sends invoices directly through Wave's public
// GraphQL API using the organization's own OAuth tokens.
type WaveClient struct {
	graphQLURL   string
	baseURL      string
	clientID     string
	clientSecret string
	redirectURI  string
	sendMethod   string
	tokens       TokenPersister
	generic      *GenericClient
	httpClient   *http.Client
}

func NewWaveClient(cfg *config.Config, tokens TokenPersister, generic *GenericClient) *WaveClient {
	return &WaveClient{
		graphQLURL:   cfg.Wave.GraphQLURL,
		baseURL:      cfg.Wave.BaseURL,
		clientID:     cfg.Wave.ClientID,
		clientSecret: cfg.Wave.ClientSecret,
		redirectURI:  cfg.Wave.RedirectURI,
		sendMethod:   cfg.Wave.SendMethod,
		tokens:       tokens,
		generic:      generic,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

const invoiceCreateMutation = `
mutation ($input: InvoiceCreateInput!) {
  invoiceCreate(input: $input) {
    didSucceed
    inputErrors { message code path }
    invoice {
      id
      createdAt
      modifiedAt
      pdfUrl
      viewUrl
      status
      invoiceNumber
      invoiceDate
      poNumber
      customer { id name }
      currency { code }
      dueDate
      amountDue { minorUnitValue }
      amountPaid { minorUnitValue }
      taxTotal { minorUnitValue }
      total { minorUnitValue }
      memo
      items {
        product { id name }
        description
        quantity
        unitPrice
        subtotal { minorUnitValue }
        total { minorUnitValue }
        account { id name }
      }
    }
  }
}`

const invoiceSendMutation = `
mutation ($input: InvoiceSendInput!) {
  invoiceSend(input: $input) {
    didSucceed
    inputErrors { message path code }
  }
}`

const invoiceMarkSentMutation = `
mutation ($input: InvoiceMarkSentInput!) {
  invoiceMarkSent(input: $input) {
    didSucceed
    inputErrors { message path code }
  }
}`

type waveMoney struct {
	MinorUnitValue json.Number `json:"minorUnitValue"`
}

type waveInvoice struct {
	ID            string     `json:"id"`
	CreatedAt     string     `json:"createdAt"`
	ModifiedAt    string     `json:"modifiedAt"`
	PDFURL        string     `json:"pdfUrl"`
	Status        string     `json:"status"`
	InvoiceNumber string     `json:"invoiceNumber"`
	InvoiceDate   string     `json:"invoiceDate"`
	DueDate       string     `json:"dueDate"`
	Memo          *string    `json:"memo"`
	Customer      *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"customer"`
	Currency *struct {
		Code string `json:"code"`
	} `json:"currency"`
	AmountDue     *waveMoney `json:"amountDue"`
	Subtotal      *waveMoney `json:"subtotal"`
	TaxTotal      *waveMoney `json:"taxTotal"`
	Total         *waveMoney `json:"total"`
	DiscountTotal *waveMoney `json:"discountTotal"`
	Items         []struct {
		Product *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"product"`
		Description string     `json:"description"`
		Quantity    *float64   `json:"quantity"`
		UnitPrice   *float64   `json:"unitPrice"`
		Subtotal    *waveMoney `json:"subtotal"`
		Total       *waveMoney `json:"total"`
		Account     *struct {
			ID string `json:"id"`
		} `json:"account"`
	} `json:"items"`
}

type waveMutationResult struct {
	DidSucceed  bool `json:"didSucceed"`
	InputErrors []struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Path    string `json:"path"`
	} `json:"inputErrors"`
	Invoice *waveInvoice `json:"invoice"`
}

// CreateInvoice saves the invoice in Wave with SAVED status and returns it
// in the canonical shape. The job handle reuses the invoice id since the
// creation is synchronous.
func (c *WaveClient) CreateInvoice(ctx context.Context, org *models.Organization, payload *models.InvoiceToSync, _ *models.CustomFields) (*CreateResult, error) {
	items := make([]map[string]any, 0, len(payload.LineItems))
	for _, line := range payload.LineItems {
		if line.Item == nil {
			continue
		}
		quantity := line.Item.Quantity
		// Wave rejects zero quantities.
		if quantity != nil && *quantity == 0 {
			one := 1.0
			quantity = &one
		}
		items = append(items, map[string]any{
			"productId":   line.Item.ID,
			"quantity":    quantity,
			"unitPrice":   line.Item.UnitAmount,
			"description": line.Description,
		})
	}

	variables := map[string]any{
		"input": map[string]any{
			"businessId":    org.BusinessID,
			"customerId":    payload.CustomerID,
			"dueDate":       toGraphQLDate(payload.DueDate),
			"invoiceDate":   toGraphQLDate(payload.IssueDate),
			"currency":      payload.CurrencyCode,
			"invoiceNumber": payload.DocumentNumber,
			"poNumber":      "",
			"status":        "SAVED",
			"items":         items,
		},
	}

	var out struct {
		InvoiceCreate waveMutationResult `json:"invoiceCreate"`
	}
	if err := c.postGraphQL(ctx, org, invoiceCreateMutation, variables, &out); err != nil {
		return nil, err
	}

	result := out.InvoiceCreate
	if !result.DidSucceed || result.Invoice == nil {
		return nil, apperrors.Internal(apperrors.CodeInvoiceCreationFailed, "%s", joinWaveInputErrors(result.InputErrors))
	}

	invoice := formatWaveInvoice(result.Invoice)
	return &CreateResult{
		Job:     &models.AsyncJob{ID: invoice.ID},
		Invoice: invoice,
	}, nil
}

// SendInvoice emails the invoice to the recipient through Wave with the
// PDF attached.
func (c *WaveClient) SendInvoice(ctx context.Context, org *models.Organization, invoiceID string, to string) error {
	variables := map[string]any{
		"input": map[string]any{
			"invoiceId": invoiceID,
			"to":        to,
			"attachPDF": true,
		},
	}

	var out struct {
		InvoiceSend waveMutationResult `json:"invoiceSend"`
	}
	if err := c.postGraphQL(ctx, org, invoiceSendMutation, variables, &out); err != nil {
		return err
	}
	if !out.InvoiceSend.DidSucceed {
		return apperrors.Internal(apperrors.CodeFailedToSendEmail, "%s", joinWaveInputErrors(out.InvoiceSend.InputErrors))
	}
	return nil
}

// MarkInvoiceSent flags the invoice as sent without emailing it.
func (c *WaveClient) MarkInvoiceSent(ctx context.Context, org *models.Organization, invoiceID string) error {
	variables := map[string]any{
		"input": map[string]any{
			"invoiceId":  invoiceID,
			"sendMethod": c.sendMethod,
		},
	}

	var out struct {
		InvoiceMarkSent waveMutationResult `json:"invoiceMarkSent"`
	}
	if err := c.postGraphQL(ctx, org, invoiceMarkSentMutation, variables, &out); err != nil {
		return err
	}
	if !out.InvoiceMarkSent.DidSucceed {
		return apperrors.Internal(apperrors.CodeInvoiceCreationFailed, "%s", joinWaveInputErrors(out.InvoiceMarkSent.InputErrors))
	}
	return nil
}

// FetchPDF goes through the aggregator; Wave does not expose a stable PDF
// link for invoices created over GraphQL.
func (c *WaveClient) FetchPDF(ctx context.Context, org *models.Organization, invoice *models.SyncedInvoice) (string, error) {
	return c.generic.FetchPDF(ctx, org, invoice)
}

// GetPaymentLink is not offered by Wave.
func (c *WaveClient) GetPaymentLink(_ context.Context, _ *models.Organization, _ *models.SyncedInvoice) (*string, error) {
	return nil, nil
}

// PerformAction supports marking an invoice sent. Everything else Wave
// handles implicitly at creation time.
func (c *WaveClient) PerformAction(ctx context.Context, org *models.Organization, invoiceID, action string) error {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "mark_sent":
		return c.MarkInvoiceSent(ctx, org, invoiceID)
	default:
		return apperrors.BadRequest(apperrors.CodeInvalidAction,
			"Action %s is not supported for platform %s", action, org.Platform)
	}
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
	Locations json.RawMessage `json:"locations"`
}

// postGraphQL posts a query with the organization's bearer token. When the
// response carries an UNAUTHENTICATED error the token is refreshed through
// the OAuth endpoint and the request retried exactly once.
func (c *WaveClient) postGraphQL(ctx context.Context, org *models.Organization, query string, variables map[string]any, out any) error {
	return c.post(ctx, org, query, variables, out, true)
}

func (c *WaveClient) post(ctx context.Context, org *models.Organization, query string, variables map[string]any, out any, allowRefresh bool) error {
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphQLURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+org.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		if allowRefresh && hasUnauthenticated(envelope.Errors) {
			log.Printf("[Wave] access token expired for organization %s, refreshing", org.ID)
			refreshed, err := c.refreshAuthToken(ctx, org)
			if err != nil {
				return fmt.Errorf("refresh token: %w", err)
			}
			return c.post(ctx, refreshed, query, variables, out, false)
		}
		return errors.New("graphql errors: " + joinGraphQLErrors(envelope.Errors))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

func hasUnauthenticated(errs []graphQLError) bool {
	for _, e := range errs {
		if e.Extensions.Code == "UNAUTHENTICATED" {
			return true
		}
	}
	return false
}

func joinGraphQLErrors(errs []graphQLError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("Message: %s, Code: %s", e.Message, e.Extensions.Code))
	}
	return strings.Join(parts, "; ")
}

func joinWaveInputErrors(errs []struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Path    string `json:"path"`
}) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s (Code: %s, Path: %s)", e.Message, e.Code, e.Path))
	}
	return strings.Join(parts, ", ")
}

// refreshAuthToken exchanges the stored refresh token for new credentials
// and persists them before retrying.
func (c *WaveClient) refreshAuthToken(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	if org.RefreshToken == "" {
		return nil, errors.New("organization has no refresh token, reconnect the accounting platform")
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {org.RefreshToken},
		"grant_type":    {"refresh_token"},
		"redirect_uri":  {c.redirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token refresh returned %d: %s", resp.StatusCode, raw)
	}

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, errors.New("token refresh returned no access token")
	}

	return c.tokens.UpdateTokens(ctx, org.ID, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresIn)
}

func formatWaveInvoice(inv *waveInvoice) *models.AccountingInvoice {
	out := &models.AccountingInvoice{
		ID:             inv.ID,
		PlatformID:     inv.ID,
		DueDate:        toISODate(inv.DueDate),
		IssueDate:      toISODate(inv.InvoiceDate),
		Status:         mapWaveStatus(inv.Status),
		DocumentNumber: inv.InvoiceNumber,
		Memo:           inv.Memo,
		AmountDue:      fromMinorUnits(inv.AmountDue),
		SubTotal:       fromMinorUnits(inv.Subtotal),
		TaxAmount:      fromMinorUnits(inv.TaxTotal),
		TotalAmount:    fromMinorUnits(inv.Total),
		TotalDiscount:  fromMinorUnits(inv.DiscountTotal),
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.ModifiedAt,
		PlatformData:   map[string]any{},
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	if inv.Currency != nil {
		out.CurrencyCode = inv.Currency.Code
	}

	for _, item := range inv.Items {
		line := models.AccountingLineItem{
			Description: strPtr(item.Description),
			Quantity:    item.Quantity,
			Amount:      fromMinorUnits(item.Total),
			SubTotal:    fromMinorUnits(item.Subtotal),
			UnitAmount:  item.UnitPrice,
		}
		if item.Product != nil {
			line.PlatformID = strPtr(item.Product.ID)
			line.ItemID = strPtr(item.Product.ID)
		}
		if item.Account != nil {
			line.AccountID = strPtr(item.Account.ID)
		}
		out.LineItems = append(out.LineItems, line)
	}

	return out
}

func mapWaveStatus(status string) models.InvoiceStatus {
	switch status {
	case "DRAFT":
		return models.StatusDraft
	case "OVERDUE", "SAVED", "SENT", "UNPAID", "VIEWED":
		return models.StatusOpen
	case "PAID":
		return models.StatusPaid
	case "PARTIAL":
		return models.StatusPartiallyPaid
	default:
		return models.StatusUnknown
	}
}

func fromMinorUnits(m *waveMoney) *float64 {
	if m == nil {
		return nil
	}
	v, err := m.MinorUnitValue.Float64()
	if err != nil {
		return nil
	}
	major := v / 100
	return &major
}

// toGraphQLDate coerces stored date strings into the YYYY-MM-DD form the
// GraphQL schema requires.
func toGraphQLDate(date string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if parsed, err := time.Parse(layout, date); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return date
}

// toISODate widens a platform date to RFC 3339 for storage.
func toISODate(date string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, date); err == nil {
			return parsed.UTC().Format(time.RFC3339)
		}
	}
	return date
}

func strPtr(s string) *string {
	return &s
}
