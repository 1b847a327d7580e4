package entities

import "github.com/JoshuaLeonard91/ticketdesk/pkg/custom"

// TicketSummary is the persisted projection of a ticket's provider state that
// the message surfaces render from. It is the single source of truth for
// rendering; nothing ever reconstructs these fields from previously sent
// message text.
type TicketSummary struct {
	// TenantID is the ID of the tenant that the ticket belongs to.
	TenantID string `json:"tenant_id" bson:"tenant_id"`

	// TicketID is the provider's ticket identifier.
	TicketID string `json:"ticket_id" bson:"ticket_id"`

	// Status is the provider's workflow status name.
	Status string `json:"status" bson:"status"`

	// StatusCategory is the coarse projection of the status: new,
	// indeterminate or done.
	StatusCategory string `json:"status_category" bson:"status_category"`

	// Category is the ticket category the end user picked.
	Category string `json:"category" bson:"category"`

	// Priority is the provider priority name.
	Priority string `json:"priority" bson:"priority"`

	// Assignee is the display name of the staff member the ticket is
	// assigned to, if any.
	Assignee string `json:"assignee,omitempty" bson:"assignee,omitempty"`

	// CreatorID is the discord user that created the ticket.
	CreatorID string `json:"creator_id" bson:"creator_id"`

	// CreatorName is the username of the creator at creation time.
	CreatorName string `json:"creator_name" bson:"creator_name"`

	// CreatedAt is when the ticket was created.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}
