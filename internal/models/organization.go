package models

// Platform identifies the accounting platform an organization syncs to.
// The literal values match what the onboarding flow stores.
type Platform string

const (
	PlatformWave        Platform = "wave"
	PlatformQuickBooks  Platform = "QUICKBOOKS"
	PlatformDynamics365 Platform = "DYNAMICS365"
)

// Organization carries the accounting connection for one tenant: platform
// choice, credentials and the behavior flags that steer the sync.
type Organization struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Platform     Platform `json:"platform"`
	AccessToken  string   `json:"-"`
	RefreshToken string   `json:"-"`
	ConnectionID string   `json:"connection_id"`
	BusinessID   string   `json:"business_id"`
	// EnvironmentID is the Dynamics 365 environment name.
	EnvironmentID string `json:"environment_id"`
	// RealmID is the QuickBooks company id.
	RealmID string `json:"realm_id"`
	// DirectCreate routes invoice creation straight to the platform API
	// instead of the aggregator.
	DirectCreate bool `json:"direct_create"`
	// ExternalEmailSend delivers invoice emails through the platform
	// rather than the internal email service.
	ExternalEmailSend bool `json:"external_email_send"`
	// ContractDeferrals enables revenue deferral handling on Dynamics.
	ContractDeferrals bool `json:"contract_deferrals"`
}

// UsePlatformValues reports whether payloads reference entities by their
// platform-native ids instead of the aggregator's provider entity ids.
func (o *Organization) UsePlatformValues() bool {
	return o.Platform == PlatformDynamics365
}

// RequiresDocumentNumber reports whether a document number must be present
// before syncing. Dynamics assigns its own invoice numbers.
func (o *Organization) RequiresDocumentNumber() bool {
	return o.Platform != PlatformDynamics365
}
