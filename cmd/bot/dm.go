package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/logging"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/messages"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/ticketing"
	"github.com/bwmarrin/discordgo"
)

// requireTicketOwner fetches the ticket with the acting user's ownership
// gate applied. A nil ticket with a nil error means the user does not own
// the ticket (or it no longer exists) and has already been answered.
func (a *App) requireTicketOwner(ctx context.Context, tenantID, ticketID string, gw Gateway, i *discordgo.InteractionCreate) (*ticketing.Ticket, *discordgo.User, error) {
	user := interactionUser(i)
	if user == nil {
		return nil, nil, fmt.Errorf("no acting user on dm interaction")
	}

	provider, ok := a.providers.Provider(ctx, tenantID)
	if !ok {
		return nil, nil, respondEphemeral(gw, i, messages.ErrNoProvider)
	}

	ticket, err := provider.GetTicket(ctx, ticketID, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("error fetching ticket: %w", err)
	} else if ticket == nil {
		return nil, nil, respondEphemeral(gw, i, messages.ErrTicketNotFound)
	}
	return ticket, user, nil
}

// dmReplyPrompt handles the Reply button under a ticket DM.
func (a *App) dmReplyPrompt(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	if err := gw.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: Command{Kind: CmdDMReplyModal, TenantID: cmd.TenantID, TicketID: cmd.TicketID}.CustomID(),
			Title:    "Reply to ticket " + cmd.TicketID,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  inputReply,
						Label:     "Your message",
						Style:     discordgo.TextInputParagraph,
						Required:  true,
						MinLength: 1,
						MaxLength: 2000,
					},
				}},
			},
		},
	}); err != nil {
		return fmt.Errorf("error opening reply modal: %w", err)
	}
	return nil
}

// dmReplySubmit forwards the reply to the provider as a comment and
// refreshes the surfaces.
func (a *App) dmReplySubmit(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	_, user, err := a.requireTicketOwner(ctx, cmd.TenantID, cmd.TicketID, gw, i)
	if err != nil || user == nil {
		return err
	}
	l = l.With(
		slog.String(logging.KeyTicket, cmd.TicketID),
		slog.String(logging.KeyUser, user.ID),
	)

	reply := strings.TrimSpace(modalValue(i, inputReply))
	if reply == "" {
		return respondEphemeral(gw, i, "Your reply was empty, nothing was sent.")
	}

	provider, _ := a.providers.Provider(ctx, cmd.TenantID)
	if err := provider.AddComment(ctx, cmd.TicketID, reply, ticketing.Requester{
		EndUserID: user.ID,
		Username:  user.Username,
	}); err != nil {
		TotalProviderCalls.WithLabelValues("comment", outcomeFailed).Inc()
		return fmt.Errorf("error adding reply: %w", err)
	}
	TotalProviderCalls.WithLabelValues("comment", outcomeOK).Inc()
	l.Info("Reply forwarded")

	if err := respondEphemeral(gw, i, "Reply sent."); err != nil {
		l.Debug("Error responding to reply", slog.String(logging.KeyError, err.Error()))
	}
	dismissLater(gw, i)

	a.spawn(func() {
		a.afterDMAction(context.Background(), l, cmd.TenantID, gw, cmd.TicketID, user.ID)
	})
	return nil
}

// dmClose lets the requester close their own ticket.
func (a *App) dmClose(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	_, user, err := a.requireTicketOwner(ctx, cmd.TenantID, cmd.TicketID, gw, i)
	if err != nil || user == nil {
		return err
	}
	l = l.With(
		slog.String(logging.KeyTicket, cmd.TicketID),
		slog.String(logging.KeyUser, user.ID),
	)

	provider, _ := a.providers.Provider(ctx, cmd.TenantID)
	if err := provider.TransitionTicket(ctx, cmd.TicketID, ticketing.StateDone); err != nil {
		TotalProviderCalls.WithLabelValues("resolve", outcomeFailed).Inc()
		return fmt.Errorf("error closing ticket: %w", err)
	}
	TotalProviderCalls.WithLabelValues("resolve", outcomeOK).Inc()

	if err := provider.AddComment(ctx, cmd.TicketID, "Closed by the requester.", ticketing.Requester{}); err != nil {
		l.Warn("Error commenting on close", slog.String(logging.KeyError, err.Error()))
	}
	l.Info("Ticket closed by requester")

	if err := respondEphemeral(gw, i, fmt.Sprintf("Ticket **%s** closed. You can reopen it from this message if needed.", cmd.TicketID)); err != nil {
		l.Debug("Error responding to close", slog.String(logging.KeyError, err.Error()))
	}
	dismissLater(gw, i)

	a.spawn(func() {
		a.afterDMAction(context.Background(), l, cmd.TenantID, gw, cmd.TicketID, user.ID)
	})
	return nil
}

// dmReopen lets the requester reopen their own closed ticket.
func (a *App) dmReopen(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	_, user, err := a.requireTicketOwner(ctx, cmd.TenantID, cmd.TicketID, gw, i)
	if err != nil || user == nil {
		return err
	}
	l = l.With(
		slog.String(logging.KeyTicket, cmd.TicketID),
		slog.String(logging.KeyUser, user.ID),
	)

	provider, _ := a.providers.Provider(ctx, cmd.TenantID)
	if err := provider.TransitionTicket(ctx, cmd.TicketID, ticketing.StateToDo); err != nil {
		TotalProviderCalls.WithLabelValues("reopen", outcomeFailed).Inc()
		return fmt.Errorf("error reopening ticket: %w", err)
	}
	TotalProviderCalls.WithLabelValues("reopen", outcomeOK).Inc()

	if err := provider.AddComment(ctx, cmd.TicketID, "Reopened by the requester.", ticketing.Requester{}); err != nil {
		l.Warn("Error commenting on reopen", slog.String(logging.KeyError, err.Error()))
	}
	l.Info("Ticket reopened by requester")

	if err := respondEphemeral(gw, i, fmt.Sprintf("Ticket **%s** reopened.", cmd.TicketID)); err != nil {
		l.Debug("Error responding to reopen", slog.String(logging.KeyError, err.Error()))
	}
	dismissLater(gw, i)

	a.spawn(func() {
		a.afterDMAction(context.Background(), l, cmd.TenantID, gw, cmd.TicketID, user.ID)
	})
	return nil
}

// afterDMAction refreshes the acting user's own DM regardless of the
// tenant's update-DM preference, then runs the normal surface sync.
func (a *App) afterDMAction(ctx context.Context, l *slog.Logger, tenantID string, gw Gateway, ticketID, endUserID string) {
	defer func() {
		if r := recover(); r != nil {
			l.Error("Panic in dm follow-up", slog.Any("panic", r))
		}
	}()

	provider, ok := a.providers.Provider(ctx, tenantID)
	if !ok {
		return
	}

	ticket, err := provider.GetTicket(ctx, ticketID, "")
	if err != nil || ticket == nil {
		if err != nil {
			l.Error("Error fetching ticket after dm action", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	sum, err := a.refreshSummary(ctx, tenantID, ticket)
	if err != nil {
		l.Error("Error refreshing summary after dm action", slog.String(logging.KeyError, err.Error()))
		return
	}

	a.ensureDM(ctx, l, gw, tenantID, ticketID, endUserID, sum, ticket)

	cfg, err := a.configs.GetBotConfig(ctx, tenantID)
	if err != nil || cfg == nil {
		return
	}
	if cfg.LogChannelID != "" {
		a.refreshLog(ctx, l, gw, cfg, sum, ticket)
	}
}
