package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/jobs"
	"billing-backend/internal/models"
	"billing-backend/internal/repositories"
	"billing-backend/internal/uac"
)

type fakeOrgStore struct {
	org *models.Organization
	err error
}

func (f *fakeOrgStore) GetByID(_ context.Context, _ string) (*models.Organization, error) {
	return f.org, f.err
}

type fakeInvoiceStore struct {
	invoice *models.Invoice
	err     error
}

func (f *fakeInvoiceStore) GetForSync(_ context.Context, _ string) (*models.Invoice, error) {
	return f.invoice, f.err
}

type fakeSyncedStore struct {
	exists        bool
	upsertErr     error
	replaceErr    error
	firstCreation bool

	upserted      *repositories.UpsertParams
	replacedLines []models.AccountingLineItem
}

func (f *fakeSyncedStore) Upsert(_ context.Context, p repositories.UpsertParams) (*models.SyncedInvoice, error) {
	f.upserted = &p
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created
	if !f.firstCreation {
		updated = created.Add(time.Hour)
	}
	return &models.SyncedInvoice{
		ID:               "synced-1",
		OrganizationID:   p.OrganizationID,
		ProviderEntityID: p.Invoice.ID,
		PlatformID:       p.Invoice.PlatformID,
		DocumentNumber:   p.Invoice.DocumentNumber,
		CreatedAt:        created,
		UpdatedAt:        updated,
	}, nil
}

func (f *fakeSyncedStore) ReplaceLineItems(_ context.Context, _ string, lines []models.AccountingLineItem) error {
	f.replacedLines = lines
	return f.replaceErr
}

func (f *fakeSyncedStore) ExistsByDocumentNumber(_ context.Context, _, _ string) (bool, error) {
	return f.exists, nil
}

type fakeConnector struct {
	result *uac.CreateResult
	err    error
}

func (f *fakeConnector) CreateInvoice(_ context.Context, _ *models.Organization, _ *models.InvoiceToSync, _ *models.CustomFields) (*uac.CreateResult, error) {
	return f.result, f.err
}

func (f *fakeConnector) FetchPDF(_ context.Context, _ *models.Organization, _ *models.SyncedInvoice) (string, error) {
	return "", nil
}

func (f *fakeConnector) GetPaymentLink(_ context.Context, _ *models.Organization, _ *models.SyncedInvoice) (*string, error) {
	return nil, nil
}

func (f *fakeConnector) PerformAction(_ context.Context, _ *models.Organization, _ string, _ string) error {
	return nil
}

type fakeResolver struct {
	connector uac.Connector
	err       error
}

func (f *fakeResolver) ForOrganization(_ *models.Organization) (uac.Connector, error) {
	return f.connector, f.err
}

type fakeEmailSender struct {
	err    error
	called bool
}

func (f *fakeEmailSender) SendInvoiceEmail(_ context.Context, _ *models.SyncedInvoice, _ *models.Organization) error {
	f.called = true
	return f.err
}

func syncOrg() *models.Organization {
	return &models.Organization{
		ID:          "org-1",
		Name:        "Acme",
		Platform:    models.PlatformWave,
		AccessToken: "token",
	}
}

func syncInvoice() *models.Invoice {
	provID := "acct-cust-1"
	return &models.Invoice{
		ID:             "inv-1",
		OrganizationID: "org-1",
		DocumentNumber: "INV-100",
		DueDate:        "2026-04-01",
		IssueDate:      "2026-03-01",
		Customer: &models.Customer{
			ID:   "cust-1",
			Name: "Acme Customer",
			Accounting: &models.AccountingCustomer{
				ID:               "acct-1",
				Name:             "Acme Customer",
				Email:            "billing@acme.test",
				CurrencyCode:     "USD",
				ProviderEntityID: &provID,
			},
		},
	}
}

func createdInvoice() *models.AccountingInvoice {
	return &models.AccountingInvoice{
		ID:             "prov-inv-1",
		PlatformID:     "plat-inv-1",
		DocumentNumber: "INV-100",
		Status:         models.StatusOpen,
	}
}

type syncFixture struct {
	orgs      *fakeOrgStore
	invoices  *fakeInvoiceStore
	synced    *fakeSyncedStore
	connector *fakeConnector
	email     *fakeEmailSender
	jobStore  *jobs.MemoryStore
	svc       *SyncService
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		orgs:      &fakeOrgStore{org: syncOrg()},
		invoices:  &fakeInvoiceStore{invoice: syncInvoice()},
		synced:    &fakeSyncedStore{firstCreation: true},
		connector: &fakeConnector{},
		email:     &fakeEmailSender{},
		jobStore:  jobs.NewMemoryStore(),
	}
	f.svc = NewSyncService(
		f.orgs, f.invoices, f.synced,
		&fakeResolver{connector: f.connector},
		NewPayloadService(), f.email, f.jobStore, jobs.NewHub(),
	)
	return f
}

func TestSyncOrganizationNotFound(t *testing.T) {
	f := newSyncFixture()
	f.orgs.org = nil

	_, err := f.svc.Sync(context.Background(), "org-1", "inv-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}

func TestSyncInvoiceNotFound(t *testing.T) {
	f := newSyncFixture()
	f.invoices.invoice = nil

	_, err := f.svc.Sync(context.Background(), "org-1", "inv-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestSyncNoAccessToken(t *testing.T) {
	f := newSyncFixture()
	f.orgs.org.AccessToken = ""

	_, err := f.svc.Sync(context.Background(), "org-1", "inv-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNoAccessToken, apperrors.CodeOf(err))
}

func TestSyncDocumentNumberRequired(t *testing.T) {
	f := newSyncFixture()
	f.invoices.invoice.DocumentNumber = "   "

	_, err := f.svc.Sync(context.Background(), "org-1", "inv-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDocumentNumberRequired, apperrors.CodeOf(err))
}

func TestSyncDocumentNumberNotRequiredForDynamics(t *testing.T) {
	f := newSyncFixture()
	f.orgs.org.Platform = models.PlatformDynamics365
	f.invoices.invoice.DocumentNumber = ""
	f.connector.result = &uac.CreateResult{Job: &models.AsyncJob{ID: "job-1"}}

	_, err := f.svc.Sync(context.Background(), "org-1", "inv-1")
	require.NoError(t, err)
}

func TestSyncDuplicateDocumentNumber(t *testing.T) {
	f := newSyncFixture()
	f.synced.exists = true

	_, err := f.svc.Sync(context.Background(), "org-1", "inv-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDuplicateDocumentNumber, apperrors.CodeOf(err))
}

func TestSyncConnectorWithoutJobFails(t *testing.T) {
	f := newSyncFixture()
	f.connector.result = &uac.CreateResult{}

	_, err := f.svc.Sync(context.Background(), "org-1", "inv-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvoiceCreationFailed, apperrors.CodeOf(err))
}

func TestSyncAsyncPathRegistersProcessingJob(t *testing.T) {
	f := newSyncFixture()
	f.connector.result = &uac.CreateResult{
		Job: &models.AsyncJob{ID: "job-async", ResponseURL: "https://aggregator.test/jobs/job-async"},
	}

	result, err := f.svc.Sync(context.Background(), "org-1", "inv-1")
	require.NoError(t, err)
	require.NotNil(t, result.Job)
	assert.Equal(t, "job-async", result.Job.ID)
	assert.Nil(t, result.Invoice)
	assert.False(t, f.email.called)

	meta, err := f.jobStore.Get(context.Background(), "job-async")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, models.JobProcessing, meta.Status)
	assert.Equal(t, "https://aggregator.test/jobs/job-async", meta.ResponseURL)
}

func TestSyncDirectPathPersistsEmailsAndSucceeds(t *testing.T) {
	f := newSyncFixture()
	f.connector.result = &uac.CreateResult{
		Job:     &models.AsyncJob{ID: "job-direct"},
		Invoice: createdInvoice(),
	}

	result, err := f.svc.Sync(context.Background(), "org-1", "inv-1")
	require.NoError(t, err)
	require.NotNil(t, result.Invoice)
	assert.Equal(t, "synced-1", result.Invoice.ID)

	require.NotNil(t, f.synced.upserted)
	assert.Equal(t, "org-1", f.synced.upserted.OrganizationID)
	assert.True(t, f.email.called)

	meta, err := f.jobStore.Get(context.Background(), "job-direct")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, models.JobSuccess, meta.Status)
	assert.Nil(t, meta.ResponseBody)
}

func TestSyncSkipsLineReplacementOnResync(t *testing.T) {
	f := newSyncFixture()
	f.synced.firstCreation = false
	qty := 2.0
	inv := createdInvoice()
	inv.LineItems = []models.AccountingLineItem{{Quantity: &qty}}
	f.connector.result = &uac.CreateResult{
		Job:     &models.AsyncJob{ID: "job-resync"},
		Invoice: inv,
	}

	_, err := f.svc.Sync(context.Background(), "org-1", "inv-1")
	require.NoError(t, err)
	assert.Nil(t, f.synced.replacedLines)
}

func TestSyncPersistFailureFailsJob(t *testing.T) {
	f := newSyncFixture()
	f.synced.upsertErr = errors.New("database is down")
	f.connector.result = &uac.CreateResult{
		Job:     &models.AsyncJob{ID: "job-persist"},
		Invoice: createdInvoice(),
	}

	_, err := f.svc.Sync(context.Background(), "org-1", "inv-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInternalError, apperrors.CodeOf(err))
	assert.False(t, f.email.called)

	meta, getErr := f.jobStore.Get(context.Background(), "job-persist")
	require.NoError(t, getErr)
	require.NotNil(t, meta)
	assert.Equal(t, models.JobFailed, meta.Status)
	jobErr, ok := meta.ResponseBody.(models.JobError)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInternalError, jobErr.ErrorCode)
}

func TestSyncEmailFailureFailsJob(t *testing.T) {
	f := newSyncFixture()
	f.email.err = errors.New("smtp refused")
	f.connector.result = &uac.CreateResult{
		Job:     &models.AsyncJob{ID: "job-email"},
		Invoice: createdInvoice(),
	}

	_, err := f.svc.Sync(context.Background(), "org-1", "inv-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeFailedToSendEmail, apperrors.CodeOf(err))

	meta, getErr := f.jobStore.Get(context.Background(), "job-email")
	require.NoError(t, getErr)
	require.NotNil(t, meta)
	assert.Equal(t, models.JobFailed, meta.Status)
	jobErr, ok := meta.ResponseBody.(models.JobError)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeFailedToSendEmail, jobErr.ErrorCode)
}
