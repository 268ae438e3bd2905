package services

import (
	"context"
	"log"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/models"
	"billing-backend/internal/repositories"
)

// ApprovalStore is the approval persistence surface used by the service.
type ApprovalStore interface {
	List(ctx context.Context, organizationID string, status *models.ApprovalStatus, objectType *models.ApprovalObjectType) ([]models.Approval, error)
	GetByID(ctx context.Context, id string) (*models.Approval, error)
	Create(ctx context.Context, organizationID string, objectType models.ApprovalObjectType, invoiceID *string) (*models.Approval, error)
	UpdateStatus(ctx context.Context, id string, status models.ApprovalStatus) (*models.Approval, error)
	Delete(ctx context.Context, id string) error
}

// InvoiceSyncer triggers an invoice sync for an organization.
type InvoiceSyncer interface {
	Sync(ctx context.Context, organizationID, invoiceID string) (*SyncResult, error)
}

// ApprovalService manages approval records and kicks off the invoice
// sync when an invoice approval flips to APPROVED.
type ApprovalService struct {
	approvals ApprovalStore
	syncer    InvoiceSyncer
}

func NewApprovalService(approvals *repositories.ApprovalRepository, syncer InvoiceSyncer) *ApprovalService {
	return &ApprovalService{approvals: approvals, syncer: syncer}
}

// ApprovalResult carries the updated approval plus the sync outcome when
// an invoice sync was triggered by the update.
type ApprovalResult struct {
	Approval *models.Approval      `json:"approval"`
	Invoice  *models.SyncedInvoice `json:"invoice,omitempty"`
	Job      *models.AsyncJob      `json:"job,omitempty"`
}

func (s *ApprovalService) List(ctx context.Context, organizationID string, status *models.ApprovalStatus, objectType *models.ApprovalObjectType) ([]models.Approval, error) {
	return s.approvals.List(ctx, organizationID, status, objectType)
}

func (s *ApprovalService) GetByID(ctx context.Context, id string) (*models.Approval, error) {
	approval, err := s.approvals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if approval == nil {
		return nil, apperrors.NotFound("This approval object with id %s does not exist", id)
	}
	return approval, nil
}

// Create registers a pending approval for the given object.
func (s *ApprovalService) Create(ctx context.Context, organizationID string, objectType models.ApprovalObjectType, invoiceID *string) (*models.Approval, error) {
	if objectType == models.ApprovalObjectInvoice && invoiceID == nil {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidInput,
			"The invoice_id is missing from the payload, cannot create approval")
	}
	approval, err := s.approvals.Create(ctx, organizationID, objectType, invoiceID)
	if err != nil {
		return nil, err
	}
	log.Printf("[Approval] created approval %s for organization %s", approval.ID, organizationID)
	return approval, nil
}

// Update transitions the approval status. Flipping an invoice approval
// to APPROVED first syncs the invoice and only records the new status
// once the sync has been accepted.
func (s *ApprovalService) Update(ctx context.Context, organizationID, approvalID string, status models.ApprovalStatus) (*ApprovalResult, error) {
	approval, err := s.approvals.GetByID(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	if approval == nil {
		return nil, apperrors.NotFound("This approval object with id %s does not exist", approvalID)
	}

	result := &ApprovalResult{Approval: approval}

	if approval.Status != models.ApprovalApproved && status == models.ApprovalApproved &&
		approval.ObjectType == models.ApprovalObjectInvoice {
		if approval.InvoiceID == nil {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidInput,
				"The invoice_id is missing from the approval object, cannot approve")
		}

		log.Printf("[Approval] approval %s approved, syncing invoice %s", approvalID, *approval.InvoiceID)
		syncResult, err := s.syncer.Sync(ctx, organizationID, *approval.InvoiceID)
		if err != nil {
			return nil, err
		}
		result.Invoice = syncResult.Invoice
		result.Job = syncResult.Job
	}

	updated, err := s.approvals.UpdateStatus(ctx, approvalID, status)
	if err != nil {
		return nil, err
	}
	result.Approval = updated
	return result, nil
}

func (s *ApprovalService) Delete(ctx context.Context, id string) error {
	return s.approvals.Delete(ctx, id)
}
