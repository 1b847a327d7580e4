package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/custom"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/entities"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/logging"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/messages"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/ticketing"
	"github.com/bwmarrin/discordgo"
)

const (
	titleMinLen       = 5
	titleMaxLen       = 100
	descriptionMinLen = 10
	descriptionMaxLen = 4000

	// maxAttachmentUpload caps each forwarded attachment.
	maxAttachmentUpload = 8 << 20
)

// createFromSlash handles /ticket create: everything arrives as options, and
// attachments are only possible on this entry path because modals cannot
// carry files.
func (a *App) createFromSlash(ctx context.Context, l *slog.Logger, tenantID string, gw Gateway, i *discordgo.InteractionCreate) error {
	opts := subOptions(i)

	required := []string{CategoryOptionName, SeverityOptionName, TitleOptionName, DescriptionOptionName}
	for _, name := range required {
		if _, ok := opts[name]; !ok {
			return fmt.Errorf("missing required option %s", name)
		}
	}

	severity, err := ticketing.ParseSeverity(opts[SeverityOptionName].StringValue())
	if err != nil {
		return respondEphemeral(gw, i, "Unknown severity. Pick one of the offered values.")
	}

	_, err = a.createTicket(ctx, l, tenantID, gw, i, createInput{
		Category:    opts[CategoryOptionName].StringValue(),
		Severity:    severity,
		Title:       strings.TrimSpace(opts[TitleOptionName].StringValue()),
		Description: strings.TrimSpace(opts[DescriptionOptionName].StringValue()),
		Attachments: resolvedAttachments(i),
	})
	return err
}

// createFromModal handles the detail modal submitted from the panel flow.
// Category and severity come from the stored panel selection.
func (a *App) createFromModal(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	if user == nil {
		return fmt.Errorf("no acting user on create modal")
	}

	sel, ok := a.selections.Get(selectionKey(cmd.TenantID, user.ID))
	if !ok {
		return respondEphemeral(gw, i, messages.ErrSelectionExpired)
	}

	ticketID, err := a.createTicket(ctx, l, cmd.TenantID, gw, i, createInput{
		Category:    sel.Category,
		Severity:    sel.Severity,
		Title:       strings.TrimSpace(modalValue(i, inputTitle)),
		Description: strings.TrimSpace(modalValue(i, inputDescription)),
	})
	if err == nil && ticketID != "" {
		a.selections.Delete(selectionKey(cmd.TenantID, user.ID))
	}
	return err
}

type createInput struct {
	Category    string
	Severity    ticketing.Severity
	Title       string
	Description string
	Attachments []*discordgo.MessageAttachment
}

// createTicket is the shared creation path behind both entry points. The
// returned ticket identifier is empty when the request was rejected before
// reaching the provider.
func (a *App) createTicket(ctx context.Context, l *slog.Logger, tenantID string, gw Gateway, i *discordgo.InteractionCreate, in createInput) (string, error) {
	user := interactionUser(i)
	if user == nil {
		return "", fmt.Errorf("no acting user on create")
	}
	l = l.With(slog.String(logging.KeyUser, user.ID))

	cfg, err := a.configs.GetBotConfig(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("error getting config: %w", err)
	} else if cfg == nil {
		return "", respondEphemeral(gw, i, messages.ErrNotConfigured)
	} else if len(cfg.Categories) == 0 {
		return "", respondEphemeral(gw, i, messages.ErrNoCategories)
	}

	category, ok := cfg.CategoryByName(in.Category)
	if !ok {
		return "", respondEphemeral(gw, i, fmt.Sprintf("Unknown category %q. The panel shows the available ones.", in.Category))
	}

	if len(in.Title) < titleMinLen || len(in.Title) > titleMaxLen {
		return "", respondEphemeral(gw, i, fmt.Sprintf("The title must be between %d and %d characters.", titleMinLen, titleMaxLen))
	}
	if len(in.Description) < descriptionMinLen || len(in.Description) > descriptionMaxLen {
		return "", respondEphemeral(gw, i, fmt.Sprintf("The description must be between %d and %d characters.", descriptionMinLen, descriptionMaxLen))
	}

	provider, ok := a.providers.Provider(ctx, tenantID)
	if !ok {
		return "", respondEphemeral(gw, i, messages.ErrNoProvider)
	}

	ticketID, err := provider.CreateTicket(ctx, ticketing.CreateRequest{
		Summary:     in.Title,
		Description: in.Description,
		Priority:    in.Severity.PriorityName(),
		Labels:      []string{in.Severity.Label(), category.ProviderLabel},
		Requester: ticketing.Requester{
			EndUserID: user.ID,
			Username:  user.Username,
		},
	})
	if err != nil {
		TotalProviderCalls.WithLabelValues("create", outcomeFailed).Inc()
		l.Error("Error creating ticket", slog.String(logging.KeyError, err.Error()))
		return "", respondEphemeral(gw, i, messages.ErrTicketCreateFailed)
	}
	TotalProviderCalls.WithLabelValues("create", outcomeOK).Inc()
	l = l.With(slog.String(logging.KeyTicket, ticketID))
	l.Info("Ticket created")

	sum := &entities.TicketSummary{
		TenantID:       tenantID,
		TicketID:       ticketID,
		Status:         ticketing.StateToDo,
		StatusCategory: ticketing.StatusCategoryNew,
		Category:       category.Name,
		Priority:       string(in.Severity),
		CreatorID:      user.ID,
		CreatorName:    user.Username,
		CreatedAt:      custom.Now(),
	}
	if err := a.summaries.SaveSummary(ctx, sum); err != nil {
		l.Error("Error saving summary", slog.String(logging.KeyError, err.Error()))
	}

	if err := respondEphemeral(gw, i, fmt.Sprintf("Ticket **%s** created. You will hear back from the team soon.", ticketID)); err != nil {
		return ticketID, err
	}
	dismissLater(gw, i)

	// The ticket exists; everything past this point is best effort and must
	// not fail the interaction.
	attachments := in.Attachments
	a.spawn(func() {
		a.afterCreate(context.Background(), l, tenantID, gw, cfg, sum, provider, attachments)
	})

	return ticketID, nil
}

// afterCreate forwards attachments and brings up the DM and log surfaces for
// a freshly created ticket.
func (a *App) afterCreate(ctx context.Context, l *slog.Logger, tenantID string, gw Gateway, cfg *entities.BotConfig, sum *entities.TicketSummary, provider ticketing.Adapter, attachments []*discordgo.MessageAttachment) {
	defer func() {
		if r := recover(); r != nil {
			l.Error("Panic in post-create tasks", slog.Any("panic", r))
		}
	}()

	for _, att := range attachments {
		a.forwardAttachment(ctx, l, provider, sum.TicketID, att)
	}

	ticket, err := provider.GetTicket(ctx, sum.TicketID, "")
	if err != nil || ticket == nil {
		if err != nil {
			l.Error("Error fetching new ticket", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	if cfg.DMOnCreate {
		a.ensureDM(ctx, l, gw, tenantID, sum.TicketID, sum.CreatorID, sum, ticket)
	}
	if cfg.LogChannelID != "" {
		a.refreshLog(ctx, l, gw, cfg, sum, ticket)
	}
}

// forwardAttachment downloads one discord attachment and re-uploads it to
// the provider. Failures are logged and skipped; the ticket already exists.
func (a *App) forwardAttachment(ctx context.Context, l *slog.Logger, provider ticketing.Adapter, ticketID string, att *discordgo.MessageAttachment) {
	if att.Size > maxAttachmentUpload {
		l.Warn("Skipping oversized attachment",
			slog.String("filename", att.Filename),
			slog.Int("size", att.Size))
		return
	}

	data, err := downloadAttachment(ctx, att.URL)
	if err != nil {
		l.Warn("Error downloading attachment",
			slog.String("filename", att.Filename),
			slog.String(logging.KeyError, err.Error()))
		return
	}

	if err := provider.AddAttachment(ctx, ticketID, data, att.Filename, att.ContentType); err != nil {
		TotalProviderCalls.WithLabelValues("attach", outcomeFailed).Inc()
		l.Warn("Error uploading attachment",
			slog.String("filename", att.Filename),
			slog.String(logging.KeyError, err.Error()))
		return
	}
	TotalProviderCalls.WithLabelValues("attach", outcomeOK).Inc()
}

func downloadAttachment(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating attachment request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d downloading attachment", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentUpload+1))
	if err != nil {
		return nil, fmt.Errorf("error reading attachment body: %w", err)
	}
	if len(data) > maxAttachmentUpload {
		return nil, fmt.Errorf("attachment exceeds %d bytes", maxAttachmentUpload)
	}
	return data, nil
}
