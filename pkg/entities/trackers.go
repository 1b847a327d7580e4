package entities

// TicketDMTracker records the one live DM message per (tenant, ticket, end
// user). It is replaced in place when the tracked message becomes
// inaccessible and the sync engine has to send a fresh DM.
type TicketDMTracker struct {
	// TenantID is the ID of the tenant that the ticket belongs to.
	TenantID string `json:"tenant_id" bson:"tenant_id"`

	// TicketID is the provider's ticket identifier.
	TicketID string `json:"ticket_id" bson:"ticket_id"`

	// EndUserID is the discord user the DM thread belongs to.
	EndUserID string `json:"end_user_id" bson:"end_user_id"`

	// DMChannelID is the DM channel the tracked message lives in.
	DMChannelID string `json:"dm_channel_id" bson:"dm_channel_id"`

	// DMMessageID is the tracked message.
	DMMessageID string `json:"dm_message_id" bson:"dm_message_id"`
}

// TicketLogMessage records the one staff log message per (tenant, ticket).
type TicketLogMessage struct {
	// TenantID is the ID of the tenant that the ticket belongs to.
	TenantID string `json:"tenant_id" bson:"tenant_id"`

	// TicketID is the provider's ticket identifier.
	TicketID string `json:"ticket_id" bson:"ticket_id"`

	// ChannelID is the log channel the message lives in.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// MessageID is the tracked message.
	MessageID string `json:"message_id" bson:"message_id"`

	// EndUserID is the discord user that created the ticket.
	EndUserID string `json:"end_user_id" bson:"end_user_id"`
}

// TicketChannel records the private channel created when staff claim a
// ticket. Deleted when the ticket is resolved.
type TicketChannel struct {
	// TenantID is the ID of the tenant that the ticket belongs to.
	TenantID string `json:"tenant_id" bson:"tenant_id"`

	// TicketID is the provider's ticket identifier.
	TicketID string `json:"ticket_id" bson:"ticket_id"`

	// ChannelID is the private channel.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// AssignedStaffID is the staff member the channel was created for.
	AssignedStaffID string `json:"assigned_staff_id" bson:"assigned_staff_id"`

	// EndUserID is the discord user that created the ticket.
	EndUserID string `json:"end_user_id" bson:"end_user_id"`
}
