package main

import (
	"time"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/ephemeral"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/ticketing"
)

const (
	wizardTTL    = 10 * time.Minute
	selectionTTL = 15 * time.Minute
	cooldownTTL  = 30 * time.Minute

	stateSweepInterval = time.Minute
)

// WizardState is the in-flight setup wizard for one guild owner. It lives in
// memory only; an interrupted wizard simply expires and leaves the stored
// configuration untouched.
type WizardState struct {
	TenantID        string
	OwnerID         string
	TicketChannelID string
	LogChannelID    string
	DMOnCreate      bool
	DMOnUpdate      bool
	Step            int
}

// PanelSelection accumulates the category and severity picked from the panel
// select menus before the title/description modal opens.
type PanelSelection struct {
	TenantID string
	UserID   string
	Category string
	Severity ticketing.Severity
}

// AssignmentCooldown records who holds a ticket's claim. A different staff
// member cannot take the ticket over inside the window; the holder can always
// reassert and reset the clock.
type AssignmentCooldown struct {
	StaffID   string
	StaffName string
	ClaimedAt time.Time
}

func newWizardStore() *ephemeral.Store[WizardState] {
	return ephemeral.NewStore[WizardState](wizardTTL, stateSweepInterval)
}

func newSelectionStore() *ephemeral.Store[PanelSelection] {
	return ephemeral.NewStore[PanelSelection](selectionTTL, stateSweepInterval)
}

func newCooldownStore() *ephemeral.Store[AssignmentCooldown] {
	return ephemeral.NewStore[AssignmentCooldown](cooldownTTL, stateSweepInterval)
}

// wizardKey scopes wizard state to the tenant. Only one wizard can run per
// guild at a time.
func wizardKey(tenantID string) string { return tenantID }

// selectionKey scopes a panel selection to the user within the tenant.
func selectionKey(tenantID, userID string) string { return tenantID + "/" + userID }

// cooldownKey scopes the reassignment cooldown to the ticket within the
// tenant.
func cooldownKey(tenantID, ticketID string) string { return tenantID + "/" + ticketID }
