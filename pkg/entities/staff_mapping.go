package entities

// StaffMapping links a discord user to a provider account for one tenant.
// Unique per (tenant, discord user). Created and deleted via the dashboard.
type StaffMapping struct {
	// TenantID is the ID of the tenant that the mapping belongs to.
	TenantID string `json:"tenant_id" bson:"tenant_id"`

	// DiscordUserID is the ID of the staff member's discord user.
	DiscordUserID string `json:"discord_user_id" bson:"discord_user_id"`

	// ProviderAccountID is the staff member's account in the ticket provider.
	// It may be empty; claim flows then skip the provider-side assignment.
	ProviderAccountID string `json:"provider_account_id,omitempty" bson:"provider_account_id,omitempty"`

	// DisplayName is the name rendered on message surfaces.
	DisplayName string `json:"display_name,omitempty" bson:"display_name,omitempty"`
}
