package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"billing-backend/internal/models"
)

type OrganizationRepository struct {
	DB *pgxpool.Pool
}

func NewOrganizationRepository(db *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{DB: db}
}

// GetByID returns the organization or nil when no row matches.
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, COALESCE(platform, ''), COALESCE(access_token, ''), COALESCE(refresh_token, ''),
                COALESCE(connection_id, ''), COALESCE(business_id, ''), COALESCE(environment_id, ''),
                COALESCE(realm_id, ''), direct_create, external_email_send, contract_deferrals
         FROM organizations WHERE id=$1`, id)

	var org models.Organization
	err := row.Scan(&org.ID, &org.Name, &org.Platform, &org.AccessToken, &org.RefreshToken,
		&org.ConnectionID, &org.BusinessID, &org.EnvironmentID,
		&org.RealmID, &org.DirectCreate, &org.ExternalEmailSend, &org.ContractDeferrals)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// UpdateTokens stores refreshed platform credentials and returns the
// updated organization.
func (r *OrganizationRepository) UpdateTokens(ctx context.Context, organizationID, accessToken, refreshToken string, expiresIn int) (*models.Organization, error) {
	_, err := r.DB.Exec(ctx,
		`UPDATE organizations
         SET access_token=$1, refresh_token=$2, token_expires_in=$3, updated_at=CURRENT_TIMESTAMP
         WHERE id=$4`,
		accessToken, refreshToken, expiresIn, organizationID)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, organizationID)
}
