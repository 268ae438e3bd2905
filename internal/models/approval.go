package models

import "time"

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

type ApprovalObjectType string

const (
	ApprovalObjectInvoice           ApprovalObjectType = "INVOICE"
	ApprovalObjectInvoiceAdjustment ApprovalObjectType = "INVOICE_ADJUSTMENT"
)

// Approval gates an object (currently invoices) behind a manual review
// step. Approving an invoice approval kicks off the accounting sync.
type Approval struct {
	ID             string             `json:"approval_id"`
	OrganizationID string             `json:"organization_id"`
	ObjectType     ApprovalObjectType `json:"object_type"`
	InvoiceID      *string            `json:"invoice_id"`
	Status         ApprovalStatus     `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}
