package uac

import (
	"context"
	"fmt"
	"log"

	"billing-backend/internal/cache"
	"billing-backend/internal/models"
)

// TokenSource resolves short-lived platform bearer tokens for QuickBooks
// and Dynamics organizations, caching them per organization in the
// injected store so the credential exchange is not repeated on every call.
type TokenSource struct {
	generic *GenericClient
	tokens  cache.TokenStore
}

func NewTokenSource(generic *GenericClient, tokens cache.TokenStore) *TokenSource {
	return &TokenSource{generic: generic, tokens: tokens}
}

// AccessToken returns a valid bearer token for the organization, using the
// cached one when present.
func (t *TokenSource) AccessToken(ctx context.Context, org *models.Organization) (string, error) {
	if token, ok := t.tokens.GetToken(ctx, org.ID); ok {
		return token, nil
	}

	token, err := t.generic.FetchConnectionCredentials(ctx, org.AccessToken, org.ConnectionID)
	if err != nil {
		log.Printf("[UAC] credential exchange failed for organization %s: %v", org.ID, err)
		return "", fmt.Errorf("fetch access token for organization %s: %w", org.ID, err)
	}

	t.tokens.SetToken(ctx, org.ID, token)
	return token, nil
}

// Invalidate drops the cached token after a platform rejected it.
func (t *TokenSource) Invalidate(ctx context.Context, org *models.Organization) {
	t.tokens.InvalidateToken(ctx, org.ID)
}
