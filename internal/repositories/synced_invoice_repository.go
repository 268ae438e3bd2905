package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"billing-backend/internal/models"
)

type SyncedInvoiceRepository struct {
	DB *pgxpool.Pool
}

func NewSyncedInvoiceRepository(db *pgxpool.Pool) *SyncedInvoiceRepository {
	return &SyncedInvoiceRepository{DB: db}
}

// UpsertParams carries the platform invoice plus the relationship ids
// resolved during the sync run.
type UpsertParams struct {
	Invoice        *models.AccountingInvoice
	OrganizationID string
	CustomerID     *string
	PDFLink        *string
	PaymentLink    *string
}

// Upsert inserts or updates the synced invoice keyed by (organization,
// provider entity id) and returns the stored row. Created and updated
// timestamps distinguish a first creation from a re-sync.
func (r *SyncedInvoiceRepository) Upsert(ctx context.Context, p UpsertParams) (*models.SyncedInvoice, error) {
	customerID := p.CustomerID
	if customerID == nil {
		// Fall back to the accounting customer the platform references.
		resolved, err := r.customerIDByProviderEntity(ctx, p.Invoice.CustomerID)
		if err != nil {
			return nil, err
		}
		customerID = resolved
	}

	row := r.DB.QueryRow(ctx,
		`INSERT INTO synced_invoices(
            organization_id, provider_entity_id, platform_id, customer_id, account_id, subsidiary_id,
            status, memo, issue_date, due_date, currency_code, document_number,
            total_amount, tax_amount, sub_total, amount_due, total_discount, pdf_link, payment_link)
         VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
         ON CONFLICT (organization_id, provider_entity_id) DO UPDATE SET
            platform_id=EXCLUDED.platform_id,
            customer_id=EXCLUDED.customer_id,
            status=EXCLUDED.status,
            memo=EXCLUDED.memo,
            issue_date=EXCLUDED.issue_date,
            due_date=EXCLUDED.due_date,
            currency_code=EXCLUDED.currency_code,
            document_number=EXCLUDED.document_number,
            total_amount=EXCLUDED.total_amount,
            tax_amount=EXCLUDED.tax_amount,
            sub_total=EXCLUDED.sub_total,
            amount_due=EXCLUDED.amount_due,
            total_discount=EXCLUDED.total_discount,
            pdf_link=EXCLUDED.pdf_link,
            payment_link=EXCLUDED.payment_link,
            updated_at=CURRENT_TIMESTAMP
         RETURNING id, organization_id, provider_entity_id, platform_id, customer_id, status,
                   COALESCE(issue_date, ''), COALESCE(due_date, ''), COALESCE(currency_code, ''),
                   COALESCE(document_number, ''), total_amount, amount_due, pdf_link, payment_link,
                   email_status, created_at, updated_at`,
		p.OrganizationID, p.Invoice.ID, p.Invoice.PlatformID, customerID, p.Invoice.AccountID, p.Invoice.SubsidiaryID,
		p.Invoice.Status, p.Invoice.Memo, p.Invoice.IssueDate, p.Invoice.DueDate, p.Invoice.CurrencyCode, p.Invoice.DocumentNumber,
		p.Invoice.TotalAmount, p.Invoice.TaxAmount, p.Invoice.SubTotal, p.Invoice.AmountDue, p.Invoice.TotalDiscount,
		p.PDFLink, p.PaymentLink)

	var s models.SyncedInvoice
	err := row.Scan(&s.ID, &s.OrganizationID, &s.ProviderEntityID, &s.PlatformID, &s.CustomerID, &s.Status,
		&s.IssueDate, &s.DueDate, &s.CurrencyCode,
		&s.DocumentNumber, &s.TotalAmount, &s.AmountDue, &s.PDFLink, &s.PaymentLink,
		&s.EmailStatus, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ReplaceLineItems deletes and recreates the invoice's line set.
func (r *SyncedInvoiceRepository) ReplaceLineItems(ctx context.Context, syncedInvoiceID string, lines []models.AccountingLineItem) error {
	if len(lines) == 0 {
		return nil
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM synced_line_items WHERE synced_invoice_id=$1`, syncedInvoiceID); err != nil {
		return err
	}

	for _, line := range lines {
		_, err := tx.Exec(ctx,
			`INSERT INTO synced_line_items(
                synced_invoice_id, platform_id, provider_entity_id, account_id, item_id, tax_rate_id,
                description, quantity, total_amount, sub_total, unit_amount, tax_amount,
                discount_amount, discount_percentage)
             VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			syncedInvoiceID, line.PlatformID, line.ItemID, line.AccountID, line.ItemID, line.TaxRateID,
			line.Description, line.Quantity, line.Amount, line.SubTotal, line.UnitAmount, line.TaxAmount,
			line.DiscountAmount, line.DiscountPercentage)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ExistsByDocumentNumber reports whether the organization already synced an
// invoice with this document number.
func (r *SyncedInvoiceRepository) ExistsByDocumentNumber(ctx context.Context, organizationID, documentNumber string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM synced_invoices WHERE organization_id=$1 AND document_number=$2)`,
		organizationID, documentNumber).Scan(&exists)
	return exists, err
}

// GetByID returns the synced invoice or nil when no row matches.
func (r *SyncedInvoiceRepository) GetByID(ctx context.Context, id string) (*models.SyncedInvoice, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, organization_id, provider_entity_id, platform_id, customer_id, status,
                COALESCE(issue_date, ''), COALESCE(due_date, ''), COALESCE(currency_code, ''),
                COALESCE(document_number, ''), total_amount, amount_due, pdf_link, payment_link,
                email_status, created_at, updated_at
         FROM synced_invoices WHERE id=$1`, id)

	var s models.SyncedInvoice
	err := row.Scan(&s.ID, &s.OrganizationID, &s.ProviderEntityID, &s.PlatformID, &s.CustomerID, &s.Status,
		&s.IssueDate, &s.DueDate, &s.CurrencyCode,
		&s.DocumentNumber, &s.TotalAmount, &s.AmountDue, &s.PDFLink, &s.PaymentLink,
		&s.EmailStatus, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateEmailStatus records the outcome of the invoice email attempt.
func (r *SyncedInvoiceRepository) UpdateEmailStatus(ctx context.Context, id, status string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE synced_invoices SET email_status=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`, status, id)
	return err
}

// UpdateLinks stores the rendered PDF and payment page locations.
func (r *SyncedInvoiceRepository) UpdateLinks(ctx context.Context, id string, pdfLink, paymentLink *string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE synced_invoices SET pdf_link=COALESCE($1, pdf_link), payment_link=COALESCE($2, payment_link),
                updated_at=CURRENT_TIMESTAMP
         WHERE id=$3`, pdfLink, paymentLink, id)
	return err
}

func (r *SyncedInvoiceRepository) customerIDByProviderEntity(ctx context.Context, providerEntityID string) (*string, error) {
	if providerEntityID == "" {
		return nil, nil
	}
	var id string
	err := r.DB.QueryRow(ctx,
		`SELECT id FROM accounting_customers WHERE provider_entity_id=$1 LIMIT 1`, providerEntityID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// CustomerByID loads the accounting customer an invoice was billed to.
func (r *SyncedInvoiceRepository) CustomerByID(ctx context.Context, id string) (*models.AccountingCustomer, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(currency_code, ''),
                platform_id, provider_entity_id
         FROM accounting_customers WHERE id=$1`, id)

	var c models.AccountingCustomer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.CurrencyCode, &c.PlatformID, &c.ProviderEntityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
