package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"billing-backend/internal/models"
)

type ApprovalRepository struct {
	DB *pgxpool.Pool
}

func NewApprovalRepository(db *pgxpool.Pool) *ApprovalRepository {
	return &ApprovalRepository{DB: db}
}

// List returns approvals for an organization, optionally filtered by
// status and object type.
func (r *ApprovalRepository) List(ctx context.Context, organizationID string, status *models.ApprovalStatus, objectType *models.ApprovalObjectType) ([]models.Approval, error) {
	query := `SELECT id, organization_id, object_type, invoice_id, status, created_at, updated_at
              FROM approvals WHERE organization_id=$1`
	args := []any{organizationID}

	if status != nil {
		args = append(args, *status)
		query += ` AND status=$2`
	}
	if objectType != nil {
		args = append(args, *objectType)
		if status != nil {
			query += ` AND object_type=$3`
		} else {
			query += ` AND object_type=$2`
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var approvals []models.Approval
	for rows.Next() {
		var a models.Approval
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.ObjectType, &a.InvoiceID,
			&a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// GetByID returns the approval or nil when no row matches.
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*models.Approval, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, organization_id, object_type, invoice_id, status, created_at, updated_at
         FROM approvals WHERE id=$1`, id)

	var a models.Approval
	err := row.Scan(&a.ID, &a.OrganizationID, &a.ObjectType, &a.InvoiceID,
		&a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a pending approval and returns the stored row.
func (r *ApprovalRepository) Create(ctx context.Context, organizationID string, objectType models.ApprovalObjectType, invoiceID *string) (*models.Approval, error) {
	row := r.DB.QueryRow(ctx,
		`INSERT INTO approvals (organization_id, object_type, invoice_id, status)
         VALUES ($1, $2, $3, $4)
         RETURNING id, organization_id, object_type, invoice_id, status, created_at, updated_at`,
		organizationID, objectType, invoiceID, models.ApprovalPending)

	var a models.Approval
	if err := row.Scan(&a.ID, &a.OrganizationID, &a.ObjectType, &a.InvoiceID,
		&a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateStatus sets the approval status and returns the updated row.
func (r *ApprovalRepository) UpdateStatus(ctx context.Context, id string, status models.ApprovalStatus) (*models.Approval, error) {
	row := r.DB.QueryRow(ctx,
		`UPDATE approvals SET status=$2, updated_at=CURRENT_TIMESTAMP WHERE id=$1
         RETURNING id, organization_id, object_type, invoice_id, status, created_at, updated_at`,
		id, status)

	var a models.Approval
	err := row.Scan(&a.ID, &a.OrganizationID, &a.ObjectType, &a.InvoiceID,
		&a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ApprovalRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM approvals WHERE id=$1`, id)
	return err
}
