package entities

// TenantProvider holds one tenant's ticket-tracker credentials. Written by
// the dashboard; read by the provider resolver.
type TenantProvider struct {
	// TenantID is the ID of the tenant that the configuration belongs to.
	TenantID string `json:"tenant_id" bson:"tenant_id"`

	// BaseURL is the tracker's base URL.
	BaseURL string `json:"base_url" bson:"base_url"`

	// Email is the account email used for authentication.
	Email string `json:"email" bson:"email"`

	// APIToken is the API token used for authentication.
	APIToken string `json:"api_token" bson:"api_token"`

	// ProjectKey is the project that tickets are created under.
	ProjectKey string `json:"project_key" bson:"project_key"`
}
