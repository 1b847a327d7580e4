package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/logging"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// CommandKind is the closed set of component/modal commands the bot handles.
// Custom identifiers on the wire are colon-delimited strings; they are
// decoded into a Command exactly once, here, and raw identifier strings never
// reach the handlers.
type CommandKind string

const (
	CmdSetupChannel    CommandKind = "setup_channel"
	CmdSetupLog        CommandKind = "setup_log"
	CmdSetupLogSkip    CommandKind = "setup_log_skip"
	CmdSetupToggleDMC  CommandKind = "setup_dm_create"
	CmdSetupToggleDMU  CommandKind = "setup_dm_update"
	CmdSetupConfirm    CommandKind = "setup_confirm"
	CmdSetupCancel     CommandKind = "setup_cancel"
	CmdPanelOpen       CommandKind = "panel_open"
	CmdPanelCategory   CommandKind = "panel_category"
	CmdPanelSeverity   CommandKind = "panel_severity"
	CmdPanelContinue   CommandKind = "panel_continue"
	CmdPanelEditModal  CommandKind = "panel_edit_modal"
	CmdCreateModal     CommandKind = "create_modal"
	CmdTicketAssign    CommandKind = "ticket_assign"
	CmdTicketResolve   CommandKind = "ticket_resolve"
	CmdTicketReopen    CommandKind = "ticket_reopen"
	CmdDMReply         CommandKind = "dm_reply"
	CmdDMReplyModal    CommandKind = "dm_reply_modal"
	CmdDMClose         CommandKind = "dm_close"
	CmdDMReopen        CommandKind = "dm_reopen"
)

// withTicket lists the kinds whose identifier carries a ticket ID after the
// tenant segment.
var withTicket = map[CommandKind]bool{
	CmdTicketAssign:  true,
	CmdTicketResolve: true,
	CmdTicketReopen:  true,
	CmdDMReply:       true,
	CmdDMReplyModal:  true,
	CmdDMClose:       true,
	CmdDMReopen:      true,
}

var knownKinds = map[CommandKind]bool{
	CmdSetupChannel: true, CmdSetupLog: true, CmdSetupLogSkip: true,
	CmdSetupToggleDMC: true, CmdSetupToggleDMU: true, CmdSetupConfirm: true,
	CmdSetupCancel: true, CmdPanelOpen: true, CmdPanelCategory: true,
	CmdPanelSeverity: true, CmdPanelContinue: true, CmdPanelEditModal: true,
	CmdCreateModal: true, CmdTicketAssign: true, CmdTicketResolve: true,
	CmdTicketReopen: true, CmdDMReply: true, CmdDMReplyModal: true,
	CmdDMClose: true, CmdDMReopen: true,
}

// Command is a decoded component or modal interaction.
type Command struct {
	Kind     CommandKind
	TenantID string

	// TicketID is set for ticket-scoped kinds. Ticket identifiers may
	// themselves contain colons; the remainder of the identifier is joined
	// back together.
	TicketID string
}

// CustomID encodes the command back into its wire identifier.
func (c Command) CustomID() string {
	if withTicket[c.Kind] {
		return string(c.Kind) + ":" + c.TenantID + ":" + c.TicketID
	}
	return string(c.Kind) + ":" + c.TenantID
}

// ParseCustomID decodes a colon-delimited custom identifier. The verb is
// matched exactly on the first segment; there is no prefix or substring
// matching, so verbs can never shadow each other.
func ParseCustomID(raw string) (Command, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return Command{}, fmt.Errorf("malformed custom id %q", raw)
	}

	kind := CommandKind(parts[0])
	if !knownKinds[kind] {
		return Command{}, fmt.Errorf("unknown verb %q", parts[0])
	}

	cmd := Command{
		Kind:     kind,
		TenantID: parts[1],
	}

	if withTicket[kind] {
		if len(parts) < 3 || parts[2] == "" {
			return Command{}, fmt.Errorf("missing ticket id in %q", raw)
		}
		cmd.TicketID = strings.Join(parts[2:], ":")
	} else if len(parts) > 2 {
		return Command{}, fmt.Errorf("trailing segments in %q", raw)
	}

	return cmd, nil
}

// handleInteraction is the single dispatch point for every inbound
// interaction on every tenant session.
func (a *App) handleInteraction(tenantID string, gw Gateway, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	corr := uuid.NewString()
	l := a.With(
		slog.String(logging.KeyTenant, tenantID),
		slog.String("correlation_id", corr),
	)

	verb := interactionVerb(i)
	TotalInteractions.WithLabelValues(verb).Inc()
	start := time.Now()
	defer func() {
		InteractionDuration.WithLabelValues(verb).Observe(time.Since(start).Seconds())
	}()

	var err error
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		err = a.handleSlash(ctx, l, tenantID, gw, i)
	case discordgo.InteractionMessageComponent:
		err = a.handleComponent(ctx, l, tenantID, gw, i, i.MessageComponentData().CustomID)
	case discordgo.InteractionModalSubmit:
		err = a.handleModal(ctx, l, tenantID, gw, i, i.ModalSubmitData().CustomID)
	default:
		return
	}

	if err != nil {
		l.Error("Error handling interaction",
			slog.String("verb", verb),
			slog.String(logging.KeyError, err.Error()))
		if respErr := respondError(gw, i); respErr != nil {
			l.Debug("Error responding to interaction", slog.String(logging.KeyError, respErr.Error()))
		}
	}
}

func (a *App) handleSlash(ctx context.Context, l *slog.Logger, tenantID string, gw Gateway, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	switch data.Name {
	case TicketCmdName:
		if len(data.Options) == 0 {
			return fmt.Errorf("missing subcommand on %s", data.Name)
		}
		switch data.Options[0].Name {
		case CreateSubCmdName:
			return a.createFromSlash(ctx, l, tenantID, gw, i)
		case ClaimSubCmdName:
			return a.claimFromSlash(ctx, l, tenantID, gw, i)
		default:
			return fmt.Errorf("unhandled sub command %s", data.Options[0].Name)
		}
	case SetupCmdName:
		return a.startWizard(ctx, l, tenantID, gw, i)
	case PanelCmdName:
		if len(data.Options) == 0 {
			return fmt.Errorf("missing subcommand on %s", data.Name)
		}
		switch data.Options[0].Name {
		case PanelEditSubCmdName:
			return a.panelEditPrompt(ctx, l, tenantID, gw, i)
		case PanelRefreshSubCmdName:
			return a.panelRefresh(ctx, l, tenantID, gw, i)
		default:
			return fmt.Errorf("unhandled sub command %s", data.Options[0].Name)
		}
	default:
		return fmt.Errorf("no controller found for command %s", data.Name)
	}
}

func (a *App) handleComponent(ctx context.Context, l *slog.Logger, tenantID string, gw Gateway, i *discordgo.InteractionCreate, rawID string) error {
	cmd, err := ParseCustomID(rawID)
	if err != nil {
		return fmt.Errorf("error decoding component id: %w", err)
	}
	if cmd.TenantID != tenantID {
		return fmt.Errorf("component id tenant %s does not match session tenant %s", cmd.TenantID, tenantID)
	}

	switch cmd.Kind {
	case CmdSetupChannel, CmdSetupLog, CmdSetupLogSkip, CmdSetupToggleDMC, CmdSetupToggleDMU, CmdSetupConfirm, CmdSetupCancel:
		return a.advanceWizard(ctx, l, cmd, gw, i)
	case CmdPanelOpen:
		return a.panelOpen(ctx, l, cmd, gw, i)
	case CmdPanelCategory, CmdPanelSeverity:
		return a.panelSelect(ctx, l, cmd, gw, i)
	case CmdPanelContinue:
		return a.panelContinue(ctx, l, cmd, gw, i)
	case CmdTicketAssign:
		return a.assignTicket(ctx, l, cmd, gw, i)
	case CmdTicketResolve:
		return a.resolveTicket(ctx, l, cmd, gw, i)
	case CmdTicketReopen:
		return a.reopenTicket(ctx, l, cmd, gw, i)
	case CmdDMReply:
		return a.dmReplyPrompt(ctx, l, cmd, gw, i)
	case CmdDMClose:
		return a.dmClose(ctx, l, cmd, gw, i)
	case CmdDMReopen:
		return a.dmReopen(ctx, l, cmd, gw, i)
	default:
		return fmt.Errorf("unhandled component kind %s", cmd.Kind)
	}
}

func (a *App) handleModal(ctx context.Context, l *slog.Logger, tenantID string, gw Gateway, i *discordgo.InteractionCreate, rawID string) error {
	cmd, err := ParseCustomID(rawID)
	if err != nil {
		return fmt.Errorf("error decoding modal id: %w", err)
	}
	if cmd.TenantID != tenantID {
		return fmt.Errorf("modal id tenant %s does not match session tenant %s", cmd.TenantID, tenantID)
	}

	switch cmd.Kind {
	case CmdCreateModal:
		return a.createFromModal(ctx, l, cmd, gw, i)
	case CmdPanelEditModal:
		return a.panelEditSubmit(ctx, l, cmd, gw, i)
	case CmdDMReplyModal:
		return a.dmReplySubmit(ctx, l, cmd, gw, i)
	default:
		return fmt.Errorf("unhandled modal kind %s", cmd.Kind)
	}
}

// interactionVerb extracts a low-cardinality label for metrics.
func interactionVerb(i *discordgo.InteractionCreate) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		if len(data.Options) > 0 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
			return data.Name + "_" + data.Options[0].Name
		}
		return data.Name
	case discordgo.InteractionMessageComponent:
		return verbOf(i.MessageComponentData().CustomID)
	case discordgo.InteractionModalSubmit:
		return verbOf(i.ModalSubmitData().CustomID)
	default:
		return "unknown"
	}
}

func verbOf(customID string) string {
	verb, _, ok := strings.Cut(customID, ":")
	if !ok || !knownKinds[CommandKind(verb)] {
		return "unknown"
	}
	return verb
}
