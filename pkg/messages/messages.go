// Package messages holds the user-facing strings that the bot replies with.
// Keeping them in one place stops the handlers drifting apart in tone.
package messages

const (
	// ErrUserErrorProcessing is the generic failure message shown to a user
	// when a handler errors. Details stay in the logs.
	ErrUserErrorProcessing = "Something went wrong processing that. Please try again in a moment."

	// ErrOwnerOnly is shown when a non-owner runs an owner-only command.
	ErrOwnerOnly = "Only the server owner can run this command."

	// ErrNotStaff is shown when a user without a staff mapping attempts a
	// staff action.
	ErrNotStaff = "You are not linked as staff for this server. Ask an admin to add you on the dashboard."

	// ErrNoProvider is shown when no ticket provider is configured for the
	// tenant.
	ErrNoProvider = "No ticket tracker is configured for this server yet. Configure one on the dashboard first."

	// ErrNoCategories is shown when the tenant has no ticket categories.
	ErrNoCategories = "No ticket categories are configured for this server. Add at least one on the dashboard first."

	// ErrNotConfigured is shown when ticketing has not been set up yet.
	ErrNotConfigured = "Ticketing has not been set up on this server yet. Run /setup first."

	// ErrWizardExpired is shown when a setup wizard step arrives after the
	// wizard state has been reclaimed.
	ErrWizardExpired = "This setup session has expired. Run /setup again to start over."

	// ErrSelectionExpired is shown when a panel continue arrives after the
	// selection state has been reclaimed.
	ErrSelectionExpired = "Your selection expired. Click the panel button again to start over."

	// ErrTicketCreateFailed is shown when the provider rejects a new ticket.
	ErrTicketCreateFailed = "Your ticket could not be created right now. Please try again shortly."

	// ErrTicketNotFound is shown when a referenced ticket cannot be fetched.
	ErrTicketNotFound = "That ticket could not be found."
)
