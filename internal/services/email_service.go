package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/config"
	"billing-backend/internal/metrics"
	"billing-backend/internal/models"
	"billing-backend/internal/pdfgen"
	"billing-backend/internal/repositories"
	"billing-backend/internal/uac"
)

// EmailService delivers the customer-facing invoice email after a sync:
// resolves the recipient, collects the PDF and payment links, renders the
// message and records the delivery outcome on the invoice.
type EmailService struct {
	synced     *repositories.SyncedInvoiceRepository
	connectors ConnectorResolver
	wave       *uac.WaveClient
	dynamics   *uac.DynamicsClient
	payments   *PaymentLinkService
	uploader   *pdfgen.Uploader

	serviceURL       string
	reminderURL      string
	defaultRecipient string
	httpClient       *http.Client
}

func NewEmailService(
	cfg *config.Config,
	synced *repositories.SyncedInvoiceRepository,
	connectors ConnectorResolver,
	wave *uac.WaveClient,
	dynamics *uac.DynamicsClient,
	payments *PaymentLinkService,
	uploader *pdfgen.Uploader,
) *EmailService {
	return &EmailService{
		synced:           synced,
		connectors:       connectors,
		wave:             wave,
		dynamics:         dynamics,
		payments:         payments,
		uploader:         uploader,
		serviceURL:       cfg.Email.ServiceURL,
		reminderURL:      cfg.Email.ReminderURL,
		defaultRecipient: cfg.Email.DefaultRecipient,
		httpClient:       &http.Client{Timeout: 30 * time.Second},
	}
}

type emailAttachment struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

type emailMessage struct {
	To          string            `json:"to"`
	Subject     string            `json:"subject"`
	HTML        string            `json:"html"`
	Attachments []emailAttachment `json:"attachments"`
	InvoiceID   string            `json:"invoice_id"`
	DueDate     string            `json:"due_date"`
	Type        string            `json:"type"`
}

type reminderRequest struct {
	OrganizationID string            `json:"organization_id"`
	ID             string            `json:"id"`
	ReminderType   string            `json:"reminder_type"`
	To             string            `json:"to"`
	Subject        string            `json:"subject"`
	Attachments    []emailAttachment `json:"attachments"`
	DueDate        string            `json:"due_date"`
}

// SendInvoiceEmail emails the invoice to its customer. Any failure is
// recorded as FAILED_TO_SEND on the invoice before being returned.
func (s *EmailService) SendInvoiceEmail(ctx context.Context, invoice *models.SyncedInvoice, org *models.Organization) error {
	if err := s.send(ctx, invoice, org); err != nil {
		metrics.InvoiceEmailsTotal.WithLabelValues(models.EmailStatusFailed).Inc()
		if updateErr := s.synced.UpdateEmailStatus(ctx, invoice.ID, models.EmailStatusFailed); updateErr != nil {
			log.Printf("[Email] failed to record email failure for invoice %s: %v", invoice.ID, updateErr)
		}
		return err
	}
	metrics.InvoiceEmailsTotal.WithLabelValues(models.EmailStatusSent).Inc()
	return nil
}

func (s *EmailService) send(ctx context.Context, invoice *models.SyncedInvoice, org *models.Organization) error {
	connector, err := s.connectors.ForOrganization(org)
	if err != nil {
		return err
	}

	// Dynamics can email on our behalf through its own send action.
	if org.ExternalEmailSend && org.Platform == models.PlatformDynamics365 {
		return connector.PerformAction(ctx, org, invoice.PlatformID, "send")
	}

	customer, err := s.lookupCustomer(ctx, invoice)
	if err != nil {
		return err
	}

	to := customer.Email
	if to == "" {
		to = s.defaultRecipient
	}
	if to == "" {
		return apperrors.BadRequest(apperrors.CodeNoEmail,
			"No email address found for customer %s, cannot send email", customer.Name)
	}

	pdfLink, err := s.resolvePDFLink(ctx, connector, invoice, org, customer)
	if err != nil {
		return err
	}

	paymentLink := s.resolvePaymentLink(ctx, connector, invoice, org, customer)

	if err := s.synced.UpdateLinks(ctx, invoice.ID, &pdfLink, paymentLink); err != nil {
		log.Printf("[Email] failed to store links for invoice %s: %v", invoice.ID, err)
	}

	message := emailMessage{
		To:      to,
		Subject: fmt.Sprintf("%s Invoice: %s", customer.Name, invoice.DocumentNumber),
		HTML:    renderInvoiceEmail(invoice, customer, paymentLink),
		Attachments: []emailAttachment{{
			Filename: attachmentFilename(customer.Name, invoice.IssueDate),
			Path:     pdfLink,
		}},
		InvoiceID: invoice.ProviderEntityID,
		DueDate:   invoice.DueDate,
		Type:      "invoice",
	}

	if org.ExternalEmailSend {
		if org.Platform != models.PlatformWave {
			return fmt.Errorf("platform %s does not support sending emails directly", org.Platform)
		}
		if err := s.wave.SendInvoice(ctx, org, invoice.ProviderEntityID, to); err != nil {
			return err
		}
	} else {
		url := fmt.Sprintf("%s/sendMessage/%s", s.serviceURL, org.ID)
		if err := s.post(ctx, url, message); err != nil {
			return err
		}
	}

	if err := s.synced.UpdateEmailStatus(ctx, invoice.ID, models.EmailStatusSent); err != nil {
		log.Printf("[Email] failed to record email success for invoice %s: %v", invoice.ID, err)
	}
	log.Printf("[Email] sent invoice %s to %s", invoice.ID, to)

	s.scheduleReminder(ctx, invoice, org, to, customer.Name, pdfLink)
	return nil
}

func (s *EmailService) lookupCustomer(ctx context.Context, invoice *models.SyncedInvoice) (*models.AccountingCustomer, error) {
	if invoice.CustomerID == nil {
		return nil, apperrors.NotFound("Invoice %s has no accounting customer, cannot send email", invoice.ID)
	}
	customer, err := s.synced.CustomerByID(ctx, *invoice.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperrors.NotFound(
			"The accounting customer with id %s not found in the database, cannot send email", *invoice.CustomerID)
	}
	return customer, nil
}

// resolvePDFLink asks the platform connector for a hosted PDF link and
// falls back to uploading a rendered copy of our own.
func (s *EmailService) resolvePDFLink(ctx context.Context, connector uac.Connector, invoice *models.SyncedInvoice, org *models.Organization, customer *models.AccountingCustomer) (string, error) {
	if invoice.PDFLink != nil && *invoice.PDFLink != "" {
		return *invoice.PDFLink, nil
	}

	link, err := connector.FetchPDF(ctx, org, invoice)
	if err == nil && link != "" {
		return link, nil
	}
	if err == nil {
		err = fmt.Errorf("platform returned no pdf link")
	}
	log.Printf("[Email] pdf fetch failed for invoice %s, rendering fallback: %v", invoice.ID, err)

	if s.uploader == nil {
		return "", fmt.Errorf("failed to fetch PDF for invoice %s: %w", invoice.ID, err)
	}

	pdf, renderErr := s.fallbackPDF(ctx, invoice, org, customer)
	if renderErr != nil {
		return "", fmt.Errorf("failed to render fallback PDF for invoice %s: %w", invoice.ID, renderErr)
	}
	uploaded, uploadErr := s.uploader.Upload(ctx, org.ID, invoice.ID, pdf)
	if uploadErr != nil {
		return "", fmt.Errorf("failed to upload fallback PDF for invoice %s: %w", invoice.ID, uploadErr)
	}
	return uploaded, nil
}

// fallbackPDF prefers the platform's rendered document where one can be
// downloaded, otherwise renders a copy locally.
func (s *EmailService) fallbackPDF(ctx context.Context, invoice *models.SyncedInvoice, org *models.Organization, customer *models.AccountingCustomer) ([]byte, error) {
	if org.Platform == models.PlatformDynamics365 {
		pdf, err := s.dynamics.FetchPDFContent(ctx, org, invoice.PlatformID)
		if err == nil {
			return pdf, nil
		}
		log.Printf("[Email] dynamics pdf download failed for invoice %s, rendering locally: %v", invoice.ID, err)
	}
	return pdfgen.Render(invoice, customer, nil)
}

// resolvePaymentLink is best effort: platforms with a hosted link serve it
// through the connector, everything else gets a Razorpay link when configured.
func (s *EmailService) resolvePaymentLink(ctx context.Context, connector uac.Connector, invoice *models.SyncedInvoice, org *models.Organization, customer *models.AccountingCustomer) *string {
	link, err := connector.GetPaymentLink(ctx, org, invoice)
	if err != nil {
		log.Printf("[Email] payment link fetch failed for invoice %s: %v", invoice.ID, err)
		return nil
	}
	if link != nil && *link != "" {
		return link
	}

	if s.payments != nil && s.payments.Enabled() {
		created, err := s.payments.CreateLink(invoice, customer)
		if err != nil {
			log.Printf("[Email] razorpay link creation failed for invoice %s: %v", invoice.ID, err)
			return nil
		}
		return &created
	}
	return nil
}

func (s *EmailService) scheduleReminder(ctx context.Context, invoice *models.SyncedInvoice, org *models.Organization, to, customerName, pdfLink string) {
	if s.reminderURL == "" {
		return
	}
	reminder := reminderRequest{
		OrganizationID: org.ID,
		ID:             invoice.ID,
		ReminderType:   "invoice",
		To:             to,
		Subject:        fmt.Sprintf("Reminder: Payment due for %s Invoice: %s", customerName, invoice.DocumentNumber),
		Attachments: []emailAttachment{{
			Filename: attachmentFilename(customerName, invoice.IssueDate),
			Path:     pdfLink,
		}},
		DueDate: invoice.DueDate,
	}
	if err := s.post(ctx, s.reminderURL+"/schedule_reminders", reminder); err != nil {
		log.Printf("[Email] reminder scheduling failed for invoice %s: %v", invoice.ID, err)
		return
	}
	log.Printf("[Email] reminder scheduled for invoice %s", invoice.ID)
}

func (s *EmailService) post(ctx context.Context, url string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("email service returned %d", resp.StatusCode)
	}
	return nil
}

func attachmentFilename(customerName, issueDate string) string {
	formatted := issueDate
	if parsed, err := time.Parse(time.RFC3339, issueDate); err == nil {
		formatted = parsed.Format("01/02/2006")
	} else if parsed, err := time.Parse("2006-01-02", issueDate); err == nil {
		formatted = parsed.Format("01/02/2006")
	}
	return fmt.Sprintf("%s_%s.pdf", customerName, formatted)
}

func renderInvoiceEmail(invoice *models.SyncedInvoice, customer *models.AccountingCustomer, paymentLink *string) string {
	amount := ""
	if invoice.TotalAmount != nil {
		amount = fmt.Sprintf("%.2f", *invoice.TotalAmount)
	}

	dueDate := invoice.DueDate
	if parsed, err := time.Parse(time.RFC3339, invoice.DueDate); err == nil {
		dueDate = parsed.Format("January 2, 2006")
	} else if parsed, err := time.Parse("2006-01-02", invoice.DueDate); err == nil {
		dueDate = parsed.Format("January 2, 2006")
	}

	payButton := ""
	if paymentLink != nil && *paymentLink != "" {
		payButton = fmt.Sprintf(`<div style="text-align: center; margin: 35px 0;"><a href="%s" style="display: inline-block; background-color: #464EB8; color: white; padding: 16px 40px; text-decoration: none; border-radius: 6px; font-weight: 500; font-size: 16px;">Review and Pay</a></div>`, *paymentLink)
	}

	return fmt.Sprintf(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s Invoice %s</title></head><body style="margin: 0; padding: 0; font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #f8fafc;"><div style="max-width: 600px; margin: 20px auto; background-color: #ffffff; border-radius: 8px; overflow: hidden;"><div style="padding: 40px 30px;"><p style="color: #1f2937; font-size: 16px; font-weight: 500;">Dear %s,</p><div style="background-color: #f3f4f6; border-radius: 6px; padding: 20px; margin-bottom: 25px; text-align: center;"><p style="color: #4b5563; font-size: 16px; margin: 0 0 8px 0;">Amount Due</p><h2 style="color: #1f2937; font-size: 32px; margin: 0; font-weight: 600;">$%s</h2></div><div style="margin-bottom: 30px; text-align: center;"><p style="color: #4b5563; font-size: 16px; margin: 0;">Due Date</p><p style="color: #1f2937; font-size: 20px; font-weight: 600; margin: 5px 0 0 0;">%s</p></div>%s</div></div></body></html>`,
		customer.Name, invoice.DocumentNumber, customer.Name, amount, dueDate, payButton)
}
