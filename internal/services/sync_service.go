package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/jobs"
	"billing-backend/internal/metrics"
	"billing-backend/internal/models"
	"billing-backend/internal/repositories"
	"billing-backend/internal/uac"
)

// OrganizationStore is the slice of the organization repository the sync
// needs.
type OrganizationStore interface {
	GetByID(ctx context.Context, id string) (*models.Organization, error)
}

// InvoiceStore loads billing invoices with their sync graph preloaded.
type InvoiceStore interface {
	GetForSync(ctx context.Context, invoiceID string) (*models.Invoice, error)
}

// SyncedInvoiceStore persists invoices after platform creation.
type SyncedInvoiceStore interface {
	Upsert(ctx context.Context, p repositories.UpsertParams) (*models.SyncedInvoice, error)
	ReplaceLineItems(ctx context.Context, syncedInvoiceID string, lines []models.AccountingLineItem) error
	ExistsByDocumentNumber(ctx context.Context, organizationID, documentNumber string) (bool, error)
}

// ConnectorResolver picks the platform connector for an organization.
type ConnectorResolver interface {
	ForOrganization(org *models.Organization) (uac.Connector, error)
}

// EmailSender delivers the invoice email after a successful sync.
type EmailSender interface {
	SendInvoiceEmail(ctx context.Context, invoice *models.SyncedInvoice, org *models.Organization) error
}

// SyncResult is the response of a completed sync call.
type SyncResult struct {
	Message string                `json:"message"`
	Invoice *models.SyncedInvoice `json:"invoice"`
	Job     *models.AsyncJob      `json:"job"`
}

// SyncService runs the invoice sync state machine: validate, create on the
// platform, persist, email, and track the whole run in the job store.
type SyncService struct {
	orgs       OrganizationStore
	invoices   InvoiceStore
	synced     SyncedInvoiceStore
	connectors ConnectorResolver
	payloads   *PayloadService
	email      EmailSender
	jobStore   jobs.Store
	hub        *jobs.Hub
}

func NewSyncService(
	orgs OrganizationStore,
	invoices InvoiceStore,
	synced SyncedInvoiceStore,
	connectors ConnectorResolver,
	payloads *PayloadService,
	email EmailSender,
	jobStore jobs.Store,
	hub *jobs.Hub,
) *SyncService {
	return &SyncService{
		orgs:       orgs,
		invoices:   invoices,
		synced:     synced,
		connectors: connectors,
		payloads:   payloads,
		email:      email,
		jobStore:   jobStore,
		hub:        hub,
	}
}

// Sync creates the invoice on the organization's accounting platform. The
// direct platforms run the whole pipeline synchronously; the aggregator
// path returns once the async job is registered.
func (s *SyncService) Sync(ctx context.Context, organizationID, invoiceID string) (*SyncResult, error) {
	log.Printf("[Sync] begin invoice creation in accounting for %s", invoiceID)
	start := time.Now()

	org, invoice, err := s.validate(ctx, organizationID, invoiceID)
	if err != nil {
		return nil, err
	}
	defer func() {
		metrics.InvoiceSyncDuration.WithLabelValues(string(org.Platform)).Observe(time.Since(start).Seconds())
	}()

	payload, custom, err := s.payloads.Build(org, invoice)
	if err != nil {
		return nil, err
	}

	connector, err := s.connectors.ForOrganization(org)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInvoiceCreationFailed, "%s", err.Error())
	}

	result, err := connector.CreateInvoice(ctx, org, payload, custom)
	if err != nil {
		metrics.InvoiceSyncsTotal.WithLabelValues(string(org.Platform), "error").Inc()
		return nil, err
	}
	if result == nil || result.Job == nil || result.Job.ID == "" {
		metrics.InvoiceSyncsTotal.WithLabelValues(string(org.Platform), "error").Inc()
		return nil, apperrors.Internal(apperrors.CodeInvoiceCreationFailed,
			"Failed to create invoice in the accounting system")
	}
	metrics.InvoiceSyncsTotal.WithLabelValues(string(org.Platform), "created").Inc()

	job := result.Job
	s.putJob(ctx, models.JobMetadata{
		JobID:          job.ID,
		OrganizationID: org.ID,
		Status:         models.JobProcessing,
		ResponseURL:    job.ResponseURL,
		ResponseBody:   result.Invoice,
	})

	var synced *models.SyncedInvoice
	if result.Invoice != nil {
		synced, err = s.persist(ctx, org, job, result.Invoice)
		if err != nil {
			return nil, err
		}

		if err := s.sendEmail(ctx, org, job, synced); err != nil {
			return nil, err
		}

		// Terminal success carries no response body; the caller already
		// has the invoice in the sync response.
		s.putJob(ctx, models.JobMetadata{
			JobID:          job.ID,
			OrganizationID: org.ID,
			Status:         models.JobSuccess,
			ResponseURL:    job.ResponseURL,
		})
	}

	return &SyncResult{
		Message: "Invoice created successfully",
		Invoice: synced,
		Job:     job,
	}, nil
}

func (s *SyncService) validate(ctx context.Context, organizationID, invoiceID string) (*models.Organization, *models.Invoice, error) {
	org, err := s.orgs.GetByID(ctx, organizationID)
	if err != nil {
		return nil, nil, err
	}
	if org == nil {
		return nil, nil, apperrors.NotFound("Organization with id %s not found", organizationID)
	}

	invoice, err := s.invoices.GetForSync(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	if invoice == nil {
		return nil, nil, apperrors.NotFound("Invoice with id %s not found", invoiceID)
	}

	if org.AccessToken == "" {
		return nil, nil, apperrors.BadRequest(apperrors.CodeNoAccessToken,
			"The organization has no accounting platform access token, connect an accounting platform first")
	}

	if org.RequiresDocumentNumber() {
		if strings.TrimSpace(invoice.DocumentNumber) == "" {
			return nil, nil, apperrors.BadRequest(apperrors.CodeDocumentNumberRequired,
				"Document number is required for invoice with id %s", invoiceID)
		}

		exists, err := s.synced.ExistsByDocumentNumber(ctx, invoice.OrganizationID, invoice.DocumentNumber)
		if err != nil {
			return nil, nil, err
		}
		if exists {
			return nil, nil, apperrors.BadRequest(apperrors.CodeDuplicateDocumentNumber,
				"An invoice with document number %s already exists in the platform", invoice.DocumentNumber)
		}
	}

	return org, invoice, nil
}

// persist upserts the created invoice and, on first creation, replaces its
// stored line set. Failures flip the job to failed with INTERNAL_ERROR.
func (s *SyncService) persist(ctx context.Context, org *models.Organization, job *models.AsyncJob, invoice *models.AccountingInvoice) (*models.SyncedInvoice, error) {
	synced, err := s.synced.Upsert(ctx, repositories.UpsertParams{
		Invoice:        invoice,
		OrganizationID: org.ID,
	})
	if err == nil && synced.FirstCreation() {
		err = s.synced.ReplaceLineItems(ctx, synced.ID, invoice.LineItems)
	}
	if err != nil {
		message := fmt.Sprintf("Invoice created in accounting platform, but failed to update locally : %s", err.Error())
		s.failJob(ctx, org.ID, job, apperrors.CodeInternalError, message)
		return nil, apperrors.Internal(apperrors.CodeInternalError, "%s", message)
	}

	log.Printf("[Sync] stored synced invoice %s", synced.ID)
	return synced, nil
}

// sendEmail delivers the customer email. A failure marks the job failed
// with FAILED_TO_SEND_EMAIL but the platform invoice stays created.
func (s *SyncService) sendEmail(ctx context.Context, org *models.Organization, job *models.AsyncJob, synced *models.SyncedInvoice) error {
	if err := s.email.SendInvoiceEmail(ctx, synced, org); err != nil {
		message := fmt.Sprintf("Invoice created in accounting platform, but failed to send email : %s", err.Error())
		s.failJob(ctx, org.ID, job, apperrors.CodeFailedToSendEmail, message)
		return apperrors.Internal(apperrors.CodeFailedToSendEmail, "%s", message)
	}
	return nil
}

func (s *SyncService) putJob(ctx context.Context, meta models.JobMetadata) {
	if err := s.jobStore.Put(ctx, meta); err != nil {
		log.Printf("[Sync] failed to store job %s: %v", meta.JobID, err)
	}
	if s.hub != nil {
		s.hub.Publish(meta)
	}
}

func (s *SyncService) failJob(ctx context.Context, organizationID string, job *models.AsyncJob, code, message string) {
	s.putJob(ctx, models.JobMetadata{
		JobID:          job.ID,
		OrganizationID: organizationID,
		Status:         models.JobFailed,
		ResponseURL:    job.ResponseURL,
		ResponseBody:   models.JobError{ErrorCode: code, ErrorMessage: message},
	})
}
