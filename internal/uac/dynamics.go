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
	"regexp"
	"strings"
	"time"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/config"
	"billing-backend/internal/models"
)

// DynamicsClient creates invoices against Dynamics 365 Business Central.
// Creation is two-phase: the header first, then one request per line.
// Posting, sending and cancelling go through OData bound actions.
type DynamicsClient struct {
	baseURL    string
	tokens     *TokenSource
	httpClient *http.Client
}

func NewDynamicsClient(cfg *config.Config, tokens *TokenSource) *DynamicsClient {
	return &DynamicsClient{
		baseURL:    cfg.Dynamics.BaseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Bound actions accepted on sales invoices. "draft" is valid but performs
// no call since a created invoice starts as a draft.
var dynamicsBoundActions = map[string]string{
	"cancel":      "cancel",
	"post":        "post",
	"send":        "send",
	"postandsend": "postAndSend",
}

var dynamicsStatusMapping = map[string]models.InvoiceStatus{
	"Draft":     models.StatusDraft,
	"In Review": models.StatusSubmitted,
	"Open":      models.StatusOpen,
	"Paid":      models.StatusPaid,
	"Canceled":  models.StatusVoid,
}

// apiRoot picks the API surface: organizations with contract deferrals use
// the deferral extension endpoints, everyone else the standard v2.0 API.
func (c *DynamicsClient) apiRoot(org *models.Organization) string {
	if org.ContractDeferrals {
		return fmt.Sprintf("%s/v2.0/%s/api/ttl/ediapi/v2.0/companies(%s)", c.baseURL, org.EnvironmentID, org.BusinessID)
	}
	return fmt.Sprintf("%s/v2.0/%s/api/v2.0/companies(%s)", c.baseURL, org.EnvironmentID, org.BusinessID)
}

// standardRoot is the plain v2.0 surface, used for fetches and actions
// regardless of the deferral extension.
func (c *DynamicsClient) standardRoot(org *models.Organization) string {
	return fmt.Sprintf("%s/v2.0/%s/api/v2.0/companies(%s)", c.baseURL, org.EnvironmentID, org.BusinessID)
}

type dynamicsInvoice struct {
	ID                      string   `json:"id"`
	Number                  string   `json:"number"`
	CustomerID              string   `json:"customerId"`
	InvoiceDate             string   `json:"invoiceDate"`
	DueDate                 string   `json:"dueDate"`
	Status                  string   `json:"status"`
	CurrencyCode            string   `json:"currencyCode"`
	RemainingAmount         *float64 `json:"remainingAmount"`
	DiscountAmount          *float64 `json:"discountAmount"`
	TotalAmountExcludingTax *float64 `json:"totalAmountExcludingTax"`
	TotalTaxAmount          *float64 `json:"totalTaxAmount"`
	TotalAmountIncludingTax *float64 `json:"totalAmountIncludingTax"`
	LastModifiedDateTime    string   `json:"lastModifiedDateTime"`
}

type dynamicsInvoiceLine struct {
	ETag               string   `json:"@odata.etag"`
	ItemID             *string  `json:"itemId"`
	AccountID          *string  `json:"accountId"`
	TaxCode            *string  `json:"taxCode"`
	Description        string   `json:"description"`
	Quantity           *float64 `json:"quantity"`
	UnitPrice          *float64 `json:"unitPrice"`
	AmountExcludingTax *float64 `json:"amountExcludingTax"`
	AmountIncludingTax *float64 `json:"amountIncludingTax"`
	TotalTaxAmount     *float64 `json:"totalTaxAmount"`
	DiscountAmount     *float64 `json:"discountAmount"`
	DiscountPercent    *float64 `json:"discountPercent"`
}

// CreateInvoice creates the header, posts each line, runs the "post"
// action and returns the refetched invoice in canonical form.
func (c *DynamicsClient) CreateInvoice(ctx context.Context, org *models.Organization, payload *models.InvoiceToSync, custom *models.CustomFields) (*CreateResult, error) {
	if len(payload.LineItems) == 0 {
		return nil, errors.New("no line items provided for the invoice")
	}

	header, err := buildDynamicsHeader(org, payload, custom)
	if err != nil {
		return nil, err
	}

	var created dynamicsInvoice
	if err := c.do(ctx, org, http.MethodPost, c.apiRoot(org)+"/salesInvoices", header, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, errors.New("failed to create sales invoice in Dynamics")
	}

	deferralCode, err := c.fetchDeferralCode(ctx, org, custom)
	if err != nil {
		return nil, err
	}

	linesURL := c.apiRoot(org) + fmt.Sprintf("/salesInvoices(%s)/salesInvoiceLines", created.ID)
	for _, line := range payload.LineItems {
		lineType := "Item"
		code := deferralCode
		if line.Item == nil {
			lineType = "Comment"
			code = ""
		}
		linePayload, err := buildDynamicsLine(org, lineType, line, code)
		if err != nil {
			return nil, err
		}
		var createdLine struct {
			ID string `json:"id"`
		}
		if err := c.do(ctx, org, http.MethodPost, linesURL, linePayload, &createdLine); err != nil {
			return nil, err
		}
		if createdLine.ID == "" {
			return nil, errors.New("failed to create sales invoice line in Dynamics")
		}
	}

	if err := c.PerformAction(ctx, org, created.ID, "post"); err != nil {
		return nil, err
	}

	invoice, err := c.FetchInvoice(ctx, org, created.ID)
	if err != nil {
		return nil, err
	}

	return &CreateResult{
		Job:     &models.AsyncJob{ID: invoice.ID},
		Invoice: invoice,
	}, nil
}

// PerformAction runs a bound action on a sales invoice. Draft is a no-op;
// anything outside the known set is rejected as INVALID_ACTION.
func (c *DynamicsClient) PerformAction(ctx context.Context, org *models.Organization, invoiceID, action string) error {
	normalized := strings.ToLower(action)
	if normalized == "draft" {
		log.Printf("[Dynamics] draft action for invoice %s, nothing to do", invoiceID)
		return nil
	}

	bound, ok := dynamicsBoundActions[normalized]
	if !ok {
		return apperrors.BadRequest(apperrors.CodeInvalidAction, "Unsupported invoice action: '%s'", action)
	}

	url := c.standardRoot(org) + fmt.Sprintf("/salesInvoices(%s)/Microsoft.NAV.%s", invoiceID, bound)
	return c.do(ctx, org, http.MethodPost, url, map[string]any{}, nil)
}

// FetchInvoice returns the invoice with its lines in canonical form.
func (c *DynamicsClient) FetchInvoice(ctx context.Context, org *models.Organization, invoiceID string) (*models.AccountingInvoice, error) {
	var invoice dynamicsInvoice
	url := c.standardRoot(org) + fmt.Sprintf("/salesInvoices(%s)", invoiceID)
	if err := c.do(ctx, org, http.MethodGet, url, nil, &invoice); err != nil {
		return nil, err
	}
	if invoice.ID == "" {
		return nil, errors.New("failed to fetch sales invoice from Dynamics")
	}

	var lines struct {
		Value []dynamicsInvoiceLine `json:"value"`
	}
	linesURL := c.standardRoot(org) + fmt.Sprintf("/salesInvoices(%s)/salesInvoiceLines", invoiceID)
	if err := c.do(ctx, org, http.MethodGet, linesURL, nil, &lines); err != nil {
		return nil, err
	}

	return formatDynamicsInvoice(&invoice, lines.Value), nil
}

// FetchPDF returns no link: Dynamics serves PDF bytes, not a hosted URL.
// Callers download them with FetchPDFContent and host the file themselves.
func (c *DynamicsClient) FetchPDF(_ context.Context, _ *models.Organization, invoice *models.SyncedInvoice) (string, error) {
	return "", fmt.Errorf("dynamics has no hosted pdf link for invoice %s", invoice.ID)
}

// GetPaymentLink is not offered by Dynamics.
func (c *DynamicsClient) GetPaymentLink(_ context.Context, _ *models.Organization, _ *models.SyncedInvoice) (*string, error) {
	return nil, nil
}

// FetchPDFContent downloads the rendered invoice PDF.
func (c *DynamicsClient) FetchPDFContent(ctx context.Context, org *models.Organization, invoiceID string) ([]byte, error) {
	token, err := c.tokens.AccessToken(ctx, org)
	if err != nil {
		return nil, err
	}

	url := c.standardRoot(org) + fmt.Sprintf("/salesInvoices(%s)/pdfDocument/(%s)/content", invoiceID, invoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("pdf fetch returned %d: %s", resp.StatusCode, raw)
	}
	return io.ReadAll(resp.Body)
}

// fetchDeferralCode resolves the revenue deferral code matching the
// contract length in months. Organizations without contract deferrals get
// an empty code.
func (c *DynamicsClient) fetchDeferralCode(ctx context.Context, org *models.Organization, custom *models.CustomFields) (string, error) {
	if !org.ContractDeferrals {
		return "", nil
	}
	if custom == nil || custom.ContractStartDate == "" || custom.ContractEndDate == "" {
		return "", errors.New("custom fields 'contract_start_date' and 'contract_end_date' are required to fetch deferral code")
	}

	months, err := contractMonths(custom.ContractStartDate, custom.ContractEndDate)
	if err != nil {
		return "", err
	}
	if months <= 0 {
		return "", errors.New("invalid contract period, start date must be before end date")
	}
	target := fmt.Sprintf("%dM DEFER", months)

	var templates struct {
		Value []struct {
			DeferralCode string `json:"deferralCode"`
		} `json:"value"`
	}
	if err := c.do(ctx, org, http.MethodGet, c.apiRoot(org)+"/deferralTemplates", nil, &templates); err != nil {
		return "", err
	}
	if len(templates.Value) == 0 {
		return "", errors.New("no deferral template found in Dynamics")
	}

	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(target) + `\b`)
	for _, tpl := range templates.Value {
		if pattern.MatchString(tpl.DeferralCode) {
			return tpl.DeferralCode, nil
		}
	}
	return "", fmt.Errorf("no deferral code found for period of %d months", months)
}

// contractMonths counts whole months between the contract dates. A partial
// trailing month counts only when the end day reaches the start day.
func contractMonths(start, end string) (int, error) {
	startDate, err := parseFlexibleDate(start)
	if err != nil {
		return 0, fmt.Errorf("parse contract start date: %w", err)
	}
	endDate, err := parseFlexibleDate(end)
	if err != nil {
		return 0, fmt.Errorf("parse contract end date: %w", err)
	}

	months := (endDate.Year()-startDate.Year())*12 + int(endDate.Month()) - int(startDate.Month())
	if endDate.Day() >= startDate.Day() {
		months++
	}
	return months, nil
}

func buildDynamicsHeader(org *models.Organization, payload *models.InvoiceToSync, custom *models.CustomFields) (map[string]any, error) {
	if payload.IssueDate == "" || payload.DueDate == "" || payload.CustomerID == "" {
		return nil, errors.New("invoice data must include issue_date, due_date, and customer_id")
	}
	if org.ContractDeferrals && (custom == nil || custom.ContractStartDate == "" || custom.ContractEndDate == "") {
		return nil, errors.New("custom fields 'contract_start_date' and 'contract_end_date' are required for contract deferral organizations")
	}

	issueDate, err := parseFlexibleDate(payload.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("parse issue date: %w", err)
	}

	// Dynamics rejects posting dates in the past.
	invoiceDate := issueDate
	if today := time.Now().UTC(); today.After(invoiceDate) {
		invoiceDate = today
	}
	invoiceDateStr := invoiceDate.Format("2006-01-02")

	header := map[string]any{
		"postingDate": invoiceDateStr,
		"invoiceDate": invoiceDateStr,
		"customerId":  payload.CustomerID,
	}
	if custom != nil && custom.PaymentTerms != nil {
		header["dueDate"] = invoiceDate.AddDate(0, 0, *custom.PaymentTerms).Format("2006-01-02")
	}
	if org.ContractDeferrals {
		startDate, err := parseFlexibleDate(custom.ContractStartDate)
		if err != nil {
			return nil, fmt.Errorf("parse contract start date: %w", err)
		}
		endDate, err := parseFlexibleDate(custom.ContractEndDate)
		if err != nil {
			return nil, fmt.Errorf("parse contract end date: %w", err)
		}
		header["contractStartDate"] = startDate.Format("2006-01-02")
		header["contractEndDate"] = endDate.Format("2006-01-02")
	}
	return header, nil
}

func buildDynamicsLine(org *models.Organization, lineType string, line models.OutputLine, deferralCode string) (map[string]any, error) {
	if lineType != "Item" && lineType != "Comment" {
		return nil, fmt.Errorf("invalid line type: %s, expected 'Item' or 'Comment'", lineType)
	}
	if lineType == "Item" {
		if line.Item == nil || line.Item.Quantity == nil || *line.Item.Quantity == 0 ||
			line.Item.UnitAmount == nil || *line.Item.UnitAmount == 0 {
			return nil, errors.New("item line type requires item data with quantity and unit amount")
		}
	}
	if lineType == "Comment" && deferralCode != "" {
		return nil, errors.New("deferral code should not be provided for comment line type")
	}

	payload := map[string]any{"lineType": lineType}
	if lineType == "Item" {
		payload["quantity"] = *line.Item.Quantity
		payload["unitPrice"] = *line.Item.UnitAmount
		payload["itemId"] = line.Item.ID
	}
	if org.ContractDeferrals {
		payload["slgDescription"] = line.Description
		payload["deferralCode"] = deferralCode
	} else {
		payload["description"] = line.Description
	}
	return payload, nil
}

func formatDynamicsInvoice(inv *dynamicsInvoice, lines []dynamicsInvoiceLine) *models.AccountingInvoice {
	status, ok := dynamicsStatusMapping[inv.Status]
	if !ok {
		status = models.StatusUnknown
	}

	out := &models.AccountingInvoice{
		ID:             inv.ID,
		PlatformID:     inv.ID,
		CustomerID:     inv.CustomerID,
		IssueDate:      toISODate(inv.InvoiceDate),
		DueDate:        toISODate(inv.DueDate),
		Status:         status,
		CurrencyCode:   inv.CurrencyCode,
		DocumentNumber: inv.Number,
		AmountDue:      inv.RemainingAmount,
		TotalDiscount:  inv.DiscountAmount,
		SubTotal:       inv.TotalAmountExcludingTax,
		TaxAmount:      inv.TotalTaxAmount,
		TotalAmount:    inv.TotalAmountIncludingTax,
		CreatedAt:      toISODate(inv.LastModifiedDateTime),
		UpdatedAt:      toISODate(inv.LastModifiedDateTime),
		PlatformData:   map[string]any{},
	}

	for _, line := range lines {
		desc := line.Description
		out.LineItems = append(out.LineItems, models.AccountingLineItem{
			PlatformID:         strPtr(line.ETag),
			AccountID:          line.AccountID,
			ItemID:             line.ItemID,
			TaxRateID:          line.TaxCode,
			Description:        &desc,
			Quantity:           line.Quantity,
			Amount:             line.AmountIncludingTax,
			SubTotal:           line.AmountExcludingTax,
			UnitAmount:         line.UnitPrice,
			TaxAmount:          line.TotalTaxAmount,
			DiscountAmount:     line.DiscountAmount,
			DiscountPercentage: line.DiscountPercent,
		})
	}

	return out
}

func (c *DynamicsClient) do(ctx context.Context, org *models.Organization, method, url string, body, out any) error {
	token, err := c.tokens.AccessToken(ctx, org)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
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

	if resp.StatusCode >= 400 {
		return apperrors.New(resp.StatusCode, apperrors.CodeInvoiceCreationFailed, extractAPIError(raw))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func parseFlexibleDate(date string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if parsed, err := time.Parse(layout, date); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", date)
}
