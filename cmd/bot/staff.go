package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/entities"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/logging"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/messages"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/ticketing"
	"github.com/bwmarrin/discordgo"
)

// requireStaff resolves the acting user's staff mapping. A nil mapping with
// a nil error means the user is not staff; the caller has already been
// answered.
func (a *App) requireStaff(ctx context.Context, tenantID string, gw Gateway, i *discordgo.InteractionCreate) (*entities.StaffMapping, error) {
	user := interactionUser(i)
	if user == nil {
		return nil, fmt.Errorf("no acting user on staff interaction")
	}

	mapping, err := a.staff.GetStaffMapping(ctx, tenantID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting staff mapping: %w", err)
	} else if mapping == nil {
		return nil, respondEphemeral(gw, i, messages.ErrNotStaff)
	}
	return mapping, nil
}

// claimFromSlash handles /ticket claim with an explicit ticket identifier.
func (a *App) claimFromSlash(ctx context.Context, l *slog.Logger, tenantID string, gw Gateway, i *discordgo.InteractionCreate) error {
	opt, ok := subOptions(i)[TicketOptionName]
	if !ok {
		return fmt.Errorf("missing required option %s", TicketOptionName)
	}
	return a.claimTicket(ctx, l, tenantID, opt.StringValue(), gw, i)
}

// assignTicket handles the Claim button on a log message.
func (a *App) assignTicket(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	return a.claimTicket(ctx, l, cmd.TenantID, cmd.TicketID, gw, i)
}

// claimTicket assigns the ticket to the acting staff member, moves it to in
// progress and leaves a comment. Reassignment is guarded by a per-ticket
// cooldown: a different staff member cannot take the ticket over inside the
// window, while the current holder can always reassert. The slot is reserved
// before any provider call and rolled back if the provider rejects the claim.
func (a *App) claimTicket(ctx context.Context, l *slog.Logger, tenantID, ticketID string, gw Gateway, i *discordgo.InteractionCreate) error {
	mapping, err := a.requireStaff(ctx, tenantID, gw, i)
	if err != nil || mapping == nil {
		return err
	}
	l = l.With(
		slog.String(logging.KeyTicket, ticketID),
		slog.String(logging.KeyUser, mapping.DiscordUserID),
	)

	provider, ok := a.providers.Provider(ctx, tenantID)
	if !ok {
		return respondEphemeral(gw, i, messages.ErrNoProvider)
	}

	key := cooldownKey(tenantID, ticketID)
	var blocked AssignmentCooldown
	reserved := a.cooldowns.Update(key, func(cur AssignmentCooldown, ok bool) (AssignmentCooldown, bool) {
		if ok && cur.StaffID != mapping.DiscordUserID {
			blocked = cur
			return cur, false
		}
		return AssignmentCooldown{
			StaffID:   mapping.DiscordUserID,
			StaffName: mapping.DisplayName,
			ClaimedAt: time.Now(),
		}, true
	})
	if !reserved {
		return respondEphemeral(gw, i, fmt.Sprintf(
			"**%s** was claimed by %s recently. Try again in a little while.", ticketID, blocked.StaffName))
	}

	if err := a.performClaim(ctx, provider, ticketID, mapping); err != nil {
		// Give the slot back so a transient provider failure does not eat
		// the staff member's claim window.
		a.cooldowns.Delete(key)
		TotalProviderCalls.WithLabelValues("claim", outcomeFailed).Inc()
		return fmt.Errorf("error claiming ticket: %w", err)
	}
	TotalProviderCalls.WithLabelValues("claim", outcomeOK).Inc()
	l.Info("Ticket claimed")

	if err := respondEphemeral(gw, i, fmt.Sprintf("You claimed **%s**.", ticketID)); err != nil {
		l.Debug("Error responding to claim", slog.String(logging.KeyError, err.Error()))
	}
	dismissLater(gw, i)

	guildID := i.GuildID
	a.spawn(func() {
		bctx := context.Background()
		cfg, err := a.configs.GetBotConfig(bctx, tenantID)
		if err == nil && cfg != nil && cfg.PrivateChannels {
			a.ensureTicketChannel(bctx, l, gw, guildID, tenantID, ticketID, mapping)
		}
		a.syncSurfaces(bctx, l, tenantID, gw, ticketID)
	})

	return nil
}

func (a *App) performClaim(ctx context.Context, provider ticketing.Adapter, ticketID string, mapping *entities.StaffMapping) error {
	if mapping.ProviderAccountID != "" {
		if err := provider.AssignTicket(ctx, ticketID, mapping.ProviderAccountID); err != nil {
			return fmt.Errorf("error assigning ticket: %w", err)
		}
	}

	if err := provider.TransitionTicket(ctx, ticketID, ticketing.StateInProgress); err != nil {
		return fmt.Errorf("error transitioning ticket: %w", err)
	}

	if err := provider.AddComment(ctx, ticketID,
		fmt.Sprintf("Claimed by %s.", mapping.DisplayName), ticketing.Requester{}); err != nil {
		return fmt.Errorf("error commenting on ticket: %w", err)
	}
	return nil
}

// ensureTicketChannel creates the private working channel for a claimed
// ticket when the tenant has them enabled.
func (a *App) ensureTicketChannel(ctx context.Context, l *slog.Logger, gw Gateway, guildID, tenantID, ticketID string, mapping *entities.StaffMapping) {
	existing, err := a.trackers.GetTicketChannel(ctx, tenantID, ticketID)
	if err != nil {
		l.Error("Error getting ticket channel", slog.String(logging.KeyError, err.Error()))
		return
	}
	if existing != nil {
		return
	}

	sum, err := a.summaries.GetSummary(ctx, tenantID, ticketID)
	if err != nil || sum == nil {
		if err != nil {
			l.Error("Error getting summary for channel", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	ch, err := gw.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:  channelNameFor(ticketID),
		Type:  discordgo.ChannelTypeGuildText,
		Topic: fmt.Sprintf("Ticket %s, opened by %s", ticketID, sum.CreatorName),
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				ID:   guildID, // @everyone shares the guild id
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: discordgo.PermissionViewChannel,
			},
			{
				ID:    mapping.DiscordUserID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
			},
			{
				ID:    sum.CreatorID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
			},
		},
	})
	if err != nil {
		l.Error("Error creating ticket channel", slog.String(logging.KeyError, err.Error()))
		return
	}

	if err := a.trackers.SaveTicketChannel(ctx, &entities.TicketChannel{
		TenantID:        tenantID,
		TicketID:        ticketID,
		ChannelID:       ch.ID,
		AssignedStaffID: mapping.DiscordUserID,
		EndUserID:       sum.CreatorID,
	}); err != nil {
		l.Error("Error saving ticket channel", slog.String(logging.KeyError, err.Error()))
	}
}

// resolveTicket handles the Resolve button: the ticket moves to done, the
// private channel (if any) is removed and every surface re-renders.
func (a *App) resolveTicket(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	mapping, err := a.requireStaff(ctx, cmd.TenantID, gw, i)
	if err != nil || mapping == nil {
		return err
	}
	l = l.With(slog.String(logging.KeyTicket, cmd.TicketID))

	provider, ok := a.providers.Provider(ctx, cmd.TenantID)
	if !ok {
		return respondEphemeral(gw, i, messages.ErrNoProvider)
	}

	if err := provider.TransitionTicket(ctx, cmd.TicketID, ticketing.StateDone); err != nil {
		TotalProviderCalls.WithLabelValues("resolve", outcomeFailed).Inc()
		return fmt.Errorf("error resolving ticket: %w", err)
	}
	TotalProviderCalls.WithLabelValues("resolve", outcomeOK).Inc()

	if err := provider.AddComment(ctx, cmd.TicketID,
		fmt.Sprintf("Resolved by %s.", mapping.DisplayName), ticketing.Requester{}); err != nil {
		l.Warn("Error commenting on resolve", slog.String(logging.KeyError, err.Error()))
	}
	l.Info("Ticket resolved")

	if err := respondEphemeral(gw, i, fmt.Sprintf("Ticket **%s** resolved.", cmd.TicketID)); err != nil {
		l.Debug("Error responding to resolve", slog.String(logging.KeyError, err.Error()))
	}
	dismissLater(gw, i)

	a.spawn(func() {
		bctx := context.Background()
		a.removeTicketChannel(bctx, l, gw, cmd.TenantID, cmd.TicketID)
		a.syncSurfaces(bctx, l, cmd.TenantID, gw, cmd.TicketID)
	})

	return nil
}

// reopenTicket handles the Reopen button on a log message.
func (a *App) reopenTicket(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	mapping, err := a.requireStaff(ctx, cmd.TenantID, gw, i)
	if err != nil || mapping == nil {
		return err
	}
	l = l.With(slog.String(logging.KeyTicket, cmd.TicketID))

	provider, ok := a.providers.Provider(ctx, cmd.TenantID)
	if !ok {
		return respondEphemeral(gw, i, messages.ErrNoProvider)
	}

	if err := provider.TransitionTicket(ctx, cmd.TicketID, ticketing.StateToDo); err != nil {
		TotalProviderCalls.WithLabelValues("reopen", outcomeFailed).Inc()
		return fmt.Errorf("error reopening ticket: %w", err)
	}
	TotalProviderCalls.WithLabelValues("reopen", outcomeOK).Inc()

	if err := provider.AddComment(ctx, cmd.TicketID,
		fmt.Sprintf("Reopened by %s.", mapping.DisplayName), ticketing.Requester{}); err != nil {
		l.Warn("Error commenting on reopen", slog.String(logging.KeyError, err.Error()))
	}
	l.Info("Ticket reopened")

	if err := respondEphemeral(gw, i, fmt.Sprintf("Ticket **%s** reopened.", cmd.TicketID)); err != nil {
		l.Debug("Error responding to reopen", slog.String(logging.KeyError, err.Error()))
	}
	dismissLater(gw, i)

	a.spawn(func() {
		a.syncSurfaces(context.Background(), l, cmd.TenantID, gw, cmd.TicketID)
	})

	return nil
}

// removeTicketChannel deletes the private working channel for a ticket if
// one was created. The tracker row goes regardless so a stale channel id is
// never reused.
func (a *App) removeTicketChannel(ctx context.Context, l *slog.Logger, gw Gateway, tenantID, ticketID string) {
	tc, err := a.trackers.GetTicketChannel(ctx, tenantID, ticketID)
	if err != nil {
		l.Error("Error getting ticket channel", slog.String(logging.KeyError, err.Error()))
		return
	}
	if tc == nil {
		return
	}

	if _, err := gw.ChannelDelete(tc.ChannelID); err != nil && !isRESTError(err, discordgo.ErrCodeUnknownChannel) {
		l.Warn("Error deleting ticket channel", slog.String(logging.KeyError, err.Error()))
	}

	if err := a.trackers.DeleteTicketChannel(ctx, tenantID, ticketID); err != nil {
		l.Error("Error deleting ticket channel tracker", slog.String(logging.KeyError, err.Error()))
	}
}

// channelNameFor derives a discord-safe channel name from a ticket id.
func channelNameFor(ticketID string) string {
	name := make([]rune, 0, len(ticketID)+7)
	name = append(name, []rune("ticket-")...)
	for _, r := range ticketID {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			name = append(name, r)
		case r >= 'A' && r <= 'Z':
			name = append(name, r+('a'-'A'))
		default:
			name = append(name, '-')
		}
	}
	return string(name)
}
