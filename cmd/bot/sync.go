package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/custom"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/entities"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/logging"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/ticketing"
	"github.com/bwmarrin/discordgo"
)

const (
	surfaceDM  = "dm"
	surfaceLog = "log"
)

// syncSurfaces re-renders every message surface for a ticket from provider
// state: the staff log message and, when the tenant sends update DMs, every
// tracked end-user DM. Staff actions and webhook deliveries both land here,
// so the two paths cannot drift apart.
func (a *App) syncSurfaces(ctx context.Context, l *slog.Logger, tenantID string, gw Gateway, ticketID string) {
	cfg, err := a.configs.GetBotConfig(ctx, tenantID)
	if err != nil || cfg == nil {
		if err != nil {
			l.Error("Error getting config for sync", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	provider, ok := a.providers.Provider(ctx, tenantID)
	if !ok {
		return
	}

	ticket, err := provider.GetTicket(ctx, ticketID, "")
	if err != nil {
		l.Error("Error fetching ticket for sync",
			slog.String(logging.KeyTicket, ticketID),
			slog.String(logging.KeyError, err.Error()))
		return
	} else if ticket == nil {
		return
	}

	sum, err := a.refreshSummary(ctx, tenantID, ticket)
	if err != nil {
		l.Error("Error refreshing summary",
			slog.String(logging.KeyTicket, ticketID),
			slog.String(logging.KeyError, err.Error()))
		return
	}

	if cfg.LogChannelID != "" {
		a.refreshLog(ctx, l, gw, cfg, sum, ticket)
	}

	if cfg.DMOnUpdate {
		trackers, err := a.trackers.ListDMTrackers(ctx, tenantID, ticketID)
		if err != nil {
			l.Error("Error listing dm trackers",
				slog.String(logging.KeyTicket, ticketID),
				slog.String(logging.KeyError, err.Error()))
			return
		}
		for _, tr := range trackers {
			a.refreshDM(ctx, l, gw, tr, sum, ticket)
		}
	}
}

// refreshSummary folds the provider's view of the ticket into the persisted
// summary and returns it. The summary is the single source the renderers
// read; rendered text is never parsed back.
func (a *App) refreshSummary(ctx context.Context, tenantID string, ticket *ticketing.Ticket) (*entities.TicketSummary, error) {
	sum, err := a.summaries.GetSummary(ctx, tenantID, ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting summary: %w", err)
	}
	if sum == nil {
		// A ticket created outside the bot (dashboard, tracker UI) gets a
		// summary on first contact.
		sum = &entities.TicketSummary{
			TenantID: tenantID,
			TicketID: ticket.ID,
			Priority: ticket.Priority,
		}
	}

	sum.Status = ticket.Status
	sum.StatusCategory = ticket.StatusCategory
	sum.Assignee = ticket.Assignee
	if sum.CreatedAt.Time().IsZero() {
		sum.CreatedAt = custom.Datetime(ticket.Created)
	}

	if err := a.summaries.SaveSummary(ctx, sum); err != nil {
		return nil, fmt.Errorf("error saving summary: %w", err)
	}
	return sum, nil
}

// refreshDM edits a tracked end-user DM in place. When the tracked message
// is gone it opens a fresh DM channel, sends a new message and upserts the
// tracker, so the next refresh edits again.
func (a *App) refreshDM(ctx context.Context, l *slog.Logger, gw Gateway, tr *entities.TicketDMTracker, sum *entities.TicketSummary, ticket *ticketing.Ticket) {
	content := renderDM(sum, ticket)
	components := dmComponents(tr.TenantID, tr.TicketID, ticket.Done())

	err := editMessage(gw, tr.DMChannelID, tr.DMMessageID, content, components)
	if err == nil {
		TotalSyncRefreshes.WithLabelValues(surfaceDM, outcomeOK).Inc()
		return
	}
	if !isUnknownMessage(err) && !isRESTError(err, discordgo.ErrCodeUnknownChannel) {
		TotalSyncRefreshes.WithLabelValues(surfaceDM, outcomeFailed).Inc()
		l.Error("Error editing ticket dm",
			slog.String(logging.KeyTicket, tr.TicketID),
			slog.String(logging.KeyError, err.Error()))
		return
	}

	// The user deleted the DM or the channel is stale. Recreate and re-point
	// the tracker at the replacement.
	ch, err := gw.UserChannelCreate(tr.EndUserID)
	if err != nil {
		TotalSyncRefreshes.WithLabelValues(surfaceDM, outcomeFailed).Inc()
		l.Error("Error opening dm channel",
			slog.String(logging.KeyUser, tr.EndUserID),
			slog.String(logging.KeyError, err.Error()))
		return
	}

	msg, err := sendMessage(gw, ch.ID, content, components)
	if err != nil {
		TotalSyncRefreshes.WithLabelValues(surfaceDM, outcomeFailed).Inc()
		l.Error("Error sending replacement dm",
			slog.String(logging.KeyTicket, tr.TicketID),
			slog.String(logging.KeyError, err.Error()))
		return
	}

	tr.DMChannelID = ch.ID
	tr.DMMessageID = msg.ID
	if err := a.trackers.SaveDMTracker(ctx, tr); err != nil {
		l.Error("Error saving dm tracker",
			slog.String(logging.KeyTicket, tr.TicketID),
			slog.String(logging.KeyError, err.Error()))
		return
	}
	TotalSyncRefreshes.WithLabelValues(surfaceDM, outcomeHealed).Inc()
}

// ensureDM creates the first tracked DM for a ticket, or refreshes the
// existing one. Used on ticket creation and on DM-surface actions where no
// tracker may exist yet.
func (a *App) ensureDM(ctx context.Context, l *slog.Logger, gw Gateway, tenantID, ticketID, endUserID string, sum *entities.TicketSummary, ticket *ticketing.Ticket) {
	tr, err := a.trackers.GetDMTracker(ctx, tenantID, ticketID, endUserID)
	if err != nil {
		l.Error("Error getting dm tracker",
			slog.String(logging.KeyTicket, ticketID),
			slog.String(logging.KeyError, err.Error()))
		return
	}
	if tr != nil {
		a.refreshDM(ctx, l, gw, tr, sum, ticket)
		return
	}

	ch, err := gw.UserChannelCreate(endUserID)
	if err != nil {
		TotalSyncRefreshes.WithLabelValues(surfaceDM, outcomeFailed).Inc()
		l.Warn("Could not open dm channel, user may have dms disabled",
			slog.String(logging.KeyUser, endUserID),
			slog.String(logging.KeyError, err.Error()))
		return
	}

	msg, err := sendMessage(gw, ch.ID, renderDM(sum, ticket), dmComponents(tenantID, ticketID, ticket.Done()))
	if err != nil {
		TotalSyncRefreshes.WithLabelValues(surfaceDM, outcomeFailed).Inc()
		l.Warn("Could not send ticket dm",
			slog.String(logging.KeyUser, endUserID),
			slog.String(logging.KeyError, err.Error()))
		return
	}

	if err := a.trackers.SaveDMTracker(ctx, &entities.TicketDMTracker{
		TenantID:    tenantID,
		TicketID:    ticketID,
		EndUserID:   endUserID,
		DMChannelID: ch.ID,
		DMMessageID: msg.ID,
	}); err != nil {
		l.Error("Error saving dm tracker",
			slog.String(logging.KeyTicket, ticketID),
			slog.String(logging.KeyError, err.Error()))
		return
	}
	TotalSyncRefreshes.WithLabelValues(surfaceDM, outcomeOK).Inc()
}

// refreshLog edits the staff log message in place, creating it on first
// contact and recreating it when it has been deleted.
func (a *App) refreshLog(ctx context.Context, l *slog.Logger, gw Gateway, cfg *entities.BotConfig, sum *entities.TicketSummary, ticket *ticketing.Ticket) {
	content := renderLog(sum, ticket)
	components := logComponents(cfg.TenantID, ticket.ID, ticket.Done())

	lm, err := a.trackers.GetLogMessage(ctx, cfg.TenantID, ticket.ID)
	if err != nil {
		l.Error("Error getting log tracker",
			slog.String(logging.KeyTicket, ticket.ID),
			slog.String(logging.KeyError, err.Error()))
		return
	}

	if lm != nil {
		err = editMessage(gw, lm.ChannelID, lm.MessageID, content, components)
		if err == nil {
			TotalSyncRefreshes.WithLabelValues(surfaceLog, outcomeOK).Inc()
			return
		}
		if !isUnknownMessage(err) && !isRESTError(err, discordgo.ErrCodeUnknownChannel) {
			TotalSyncRefreshes.WithLabelValues(surfaceLog, outcomeFailed).Inc()
			l.Error("Error editing log message",
				slog.String(logging.KeyTicket, ticket.ID),
				slog.String(logging.KeyError, err.Error()))
			return
		}
	}

	msg, err := sendMessage(gw, cfg.LogChannelID, content, components)
	if err != nil {
		TotalSyncRefreshes.WithLabelValues(surfaceLog, outcomeFailed).Inc()
		l.Error("Error sending log message",
			slog.String(logging.KeyTicket, ticket.ID),
			slog.String(logging.KeyError, err.Error()))
		return
	}

	save := &entities.TicketLogMessage{
		TenantID:  cfg.TenantID,
		TicketID:  ticket.ID,
		ChannelID: cfg.LogChannelID,
		MessageID: msg.ID,
		EndUserID: sum.CreatorID,
	}
	if err := a.trackers.SaveLogMessage(ctx, save); err != nil {
		l.Error("Error saving log tracker",
			slog.String(logging.KeyTicket, ticket.ID),
			slog.String(logging.KeyError, err.Error()))
		return
	}
	if lm != nil {
		TotalSyncRefreshes.WithLabelValues(surfaceLog, outcomeHealed).Inc()
	} else {
		TotalSyncRefreshes.WithLabelValues(surfaceLog, outcomeOK).Inc()
	}
}
