// Package ticketing defines the contract between the bot and the external
// ticket tracker, plus the Jira implementation of it. The tracker is the
// source of truth for ticket state; everything the bot renders is rebuilt
// from what this package returns.
package ticketing

import (
	"context"
	"time"
)

// Status categories are the coarse three-state projection of the provider's
// workflow status.
const (
	StatusCategoryNew           = "new"
	StatusCategoryIndeterminate = "indeterminate"
	StatusCategoryDone          = "done"
)

// Workflow state names used for transitions.
const (
	StateToDo       = "To Do"
	StateInProgress = "In Progress"
	StateDone       = "Done"
)

// Requester identifies the end user a ticket operation is performed for.
type Requester struct {
	// EndUserID is the discord user ID of the end user.
	EndUserID string

	// Username is the end user's username at the time of the operation.
	Username string
}

// CreateRequest is the input to CreateTicket.
type CreateRequest struct {
	Summary     string
	Description string
	Priority    string
	Labels      []string
	Requester   Requester
}

// Comment is a single entry in a ticket's conversation.
type Comment struct {
	Author  string
	Body    string
	Created time.Time
}

// Attachment is a file attached to a ticket.
type Attachment struct {
	Filename string
	URL      string
	Size     int
}

// Ticket is the provider-owned ticket entity as projected to the bot.
type Ticket struct {
	ID             string
	Summary        string
	Description    string
	Status         string
	StatusCategory string
	Priority       string
	Assignee       string
	Comments       []Comment
	Attachments    []Attachment
	Created        time.Time
}

// Done reports whether the ticket's status category is done.
func (t *Ticket) Done() bool {
	return t.StatusCategory == StatusCategoryDone
}

// Adapter is the uniform contract to the external ticket tracker.
//
// GetTicket verifies that requestingEndUserID owns the ticket before
// returning it; an ownership mismatch or an unknown ticket both return
// (nil, nil) so callers cannot distinguish them. Passing an empty
// requestingEndUserID skips the check and is reserved for staff paths.
type Adapter interface {
	CreateTicket(ctx context.Context, req CreateRequest) (ticketID string, err error)
	AddComment(ctx context.Context, ticketID, message string, requester Requester) error
	AssignTicket(ctx context.Context, ticketID, providerAccountID string) error
	TransitionTicket(ctx context.Context, ticketID, targetStateName string) error
	GetTicket(ctx context.Context, ticketID, requestingEndUserID string) (*Ticket, error)
	AddAttachment(ctx context.Context, ticketID string, data []byte, filename, contentType string) error
	GetAttachmentBuffer(ctx context.Context, url string) ([]byte, error)
}
