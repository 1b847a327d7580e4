package entities

// TenantBot holds the gateway credentials for one tenant's bot. These rows
// are written by the dashboard; the bot only reads them.
type TenantBot struct {
	// TenantID is the ID of the tenant that owns the bot.
	TenantID string `json:"tenant_id" bson:"tenant_id"`

	// Token is the gateway token for the bot.
	Token string `json:"token" bson:"token"`

	// GuildID is the ID of the guild that the bot serves.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// Enabled is whether the bot should be connected.
	Enabled bool `json:"enabled" bson:"enabled"`
}
