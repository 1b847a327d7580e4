package entities

// Category is a ticket category that an end user can pick. The provider label
// is attached to tickets created under the category.
type Category struct {
	// Name is the display name of the category.
	Name string `json:"name" bson:"name"`

	// ProviderLabel is the label applied to provider tickets.
	ProviderLabel string `json:"provider_label" bson:"provider_label"`
}

// BotConfig is the per-tenant ticketing configuration. It is written by the
// setup wizard and the panel editor, and read by every flow.
type BotConfig struct {
	// TenantID is the ID of the tenant that the configuration belongs to.
	TenantID string `json:"tenant_id" bson:"tenant_id"`

	// TicketChannelID is the channel that the ticket panel lives in.
	TicketChannelID string `json:"ticket_channel_id" bson:"ticket_channel_id"`

	// LogChannelID is the channel that staff log messages are posted in. It
	// is optional; without it no log messages are maintained.
	LogChannelID string `json:"log_channel_id,omitempty" bson:"log_channel_id,omitempty"`

	// PanelTitle is the title of the ticket panel message.
	PanelTitle string `json:"panel_title" bson:"panel_title"`

	// PanelDescription is the body of the ticket panel message.
	PanelDescription string `json:"panel_description" bson:"panel_description"`

	// PanelButtonLabel is the label on the panel's open-ticket button.
	PanelButtonLabel string `json:"panel_button_label" bson:"panel_button_label"`

	// PanelInfoLines are extra lines rendered under the panel description.
	PanelInfoLines []string `json:"panel_info_lines,omitempty" bson:"panel_info_lines,omitempty"`

	// DMOnCreate is whether the end user is DMed when their ticket is created.
	DMOnCreate bool `json:"dm_on_create" bson:"dm_on_create"`

	// DMOnUpdate is whether the end user's DM is refreshed on ticket updates.
	DMOnUpdate bool `json:"dm_on_update" bson:"dm_on_update"`

	// PanelMessageID is the ID of the currently posted panel message.
	PanelMessageID string `json:"panel_message_id,omitempty" bson:"panel_message_id,omitempty"`

	// Categories are the ticket categories offered to end users. Fed from the
	// dashboard's CMS integration.
	Categories []Category `json:"categories,omitempty" bson:"categories,omitempty"`

	// PrivateChannels is whether a private channel is created for a ticket
	// when staff claim it.
	PrivateChannels bool `json:"private_channels" bson:"private_channels"`
}

// CategoryByName returns the configured category with the given name.
func (c *BotConfig) CategoryByName(name string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return Category{}, false
}
