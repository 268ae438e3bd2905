package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/models"
)

type fakeApprovalStore struct {
	approval *models.Approval
	updated  *models.ApprovalStatus
}

func (f *fakeApprovalStore) List(_ context.Context, _ string, _ *models.ApprovalStatus, _ *models.ApprovalObjectType) ([]models.Approval, error) {
	return nil, nil
}

func (f *fakeApprovalStore) GetByID(_ context.Context, _ string) (*models.Approval, error) {
	return f.approval, nil
}

func (f *fakeApprovalStore) Create(_ context.Context, organizationID string, objectType models.ApprovalObjectType, invoiceID *string) (*models.Approval, error) {
	return &models.Approval{ID: "appr-1", OrganizationID: organizationID, ObjectType: objectType, InvoiceID: invoiceID, Status: models.ApprovalPending}, nil
}

func (f *fakeApprovalStore) UpdateStatus(_ context.Context, _ string, status models.ApprovalStatus) (*models.Approval, error) {
	f.updated = &status
	updated := *f.approval
	updated.Status = status
	return &updated, nil
}

func (f *fakeApprovalStore) Delete(_ context.Context, _ string) error { return nil }

type fakeSyncer struct {
	called bool
	result *SyncResult
	err    error
}

func (f *fakeSyncer) Sync(_ context.Context, _, _ string) (*SyncResult, error) {
	f.called = true
	return f.result, f.err
}

func pendingInvoiceApproval() *models.Approval {
	invoiceID := "inv-1"
	return &models.Approval{
		ID:             "appr-1",
		OrganizationID: "org-1",
		ObjectType:     models.ApprovalObjectInvoice,
		InvoiceID:      &invoiceID,
		Status:         models.ApprovalPending,
	}
}

func TestApproveInvoiceTriggersSync(t *testing.T) {
	store := &fakeApprovalStore{approval: pendingInvoiceApproval()}
	syncer := &fakeSyncer{result: &SyncResult{Job: &models.AsyncJob{ID: "job-1"}}}
	svc := &ApprovalService{approvals: store, syncer: syncer}

	result, err := svc.Update(context.Background(), "org-1", "appr-1", models.ApprovalApproved)
	require.NoError(t, err)
	assert.True(t, syncer.called)
	require.NotNil(t, result.Job)
	assert.Equal(t, "job-1", result.Job.ID)
	assert.Equal(t, models.ApprovalApproved, result.Approval.Status)
}

func TestRejectDoesNotSync(t *testing.T) {
	store := &fakeApprovalStore{approval: pendingInvoiceApproval()}
	syncer := &fakeSyncer{}
	svc := &ApprovalService{approvals: store, syncer: syncer}

	result, err := svc.Update(context.Background(), "org-1", "appr-1", models.ApprovalRejected)
	require.NoError(t, err)
	assert.False(t, syncer.called)
	assert.Equal(t, models.ApprovalRejected, result.Approval.Status)
}

func TestApproveAlreadyApprovedInvoiceDoesNotResync(t *testing.T) {
	approval := pendingInvoiceApproval()
	approval.Status = models.ApprovalApproved
	store := &fakeApprovalStore{approval: approval}
	syncer := &fakeSyncer{}
	svc := &ApprovalService{approvals: store, syncer: syncer}

	_, err := svc.Update(context.Background(), "org-1", "appr-1", models.ApprovalApproved)
	require.NoError(t, err)
	assert.False(t, syncer.called)
}

func TestApproveMissingApproval(t *testing.T) {
	svc := &ApprovalService{approvals: &fakeApprovalStore{}, syncer: &fakeSyncer{}}

	_, err := svc.Update(context.Background(), "org-1", "missing", models.ApprovalApproved)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestApproveWithoutInvoiceID(t *testing.T) {
	approval := pendingInvoiceApproval()
	approval.InvoiceID = nil
	svc := &ApprovalService{approvals: &fakeApprovalStore{approval: approval}, syncer: &fakeSyncer{}}

	_, err := svc.Update(context.Background(), "org-1", "appr-1", models.ApprovalApproved)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
}

func TestCreateInvoiceApprovalRequiresInvoiceID(t *testing.T) {
	svc := &ApprovalService{approvals: &fakeApprovalStore{}, syncer: &fakeSyncer{}}

	_, err := svc.Create(context.Background(), "org-1", models.ApprovalObjectInvoice, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
}
