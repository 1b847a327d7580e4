package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/entities"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/logging"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/messages"
	"github.com/bwmarrin/discordgo"
)

// Wizard steps. The whole wizard lives in one ephemeral message that is
// edited in place as the owner advances.
const (
	wizardStepTicketChannel = iota
	wizardStepLogChannel
	wizardStepNotifications
)

// startWizard begins the setup wizard. Only the guild owner may run it, and
// an abandoned wizard simply expires without touching stored configuration.
func (a *App) startWizard(ctx context.Context, l *slog.Logger, tenantID string, gw Gateway, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	if user == nil {
		return fmt.Errorf("no acting user on setup interaction")
	}

	guild, err := gw.Guild(i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild %s: %w", i.GuildID, err)
	}
	if guild.OwnerID != user.ID {
		l.Info("Setup rejected for non-owner", slog.String(logging.KeyUser, user.ID))
		return respondEphemeral(gw, i, messages.ErrOwnerOnly)
	}

	st := WizardState{
		TenantID:   tenantID,
		OwnerID:    user.ID,
		DMOnCreate: true,
		DMOnUpdate: true,
		Step:       wizardStepTicketChannel,
	}
	a.wizards.Put(wizardKey(tenantID), st)

	content, components := wizardStepView(st)
	return respondEphemeral(gw, i, content, components...)
}

// advanceWizard applies one wizard interaction and re-renders the message.
func (a *App) advanceWizard(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	st, ok := a.wizards.Get(wizardKey(cmd.TenantID))
	if !ok {
		return respondUpdate(gw, i, messages.ErrWizardExpired, nil)
	}

	user := interactionUser(i)
	if user == nil || user.ID != st.OwnerID {
		return respondEphemeral(gw, i, messages.ErrOwnerOnly)
	}

	switch cmd.Kind {
	case CmdSetupChannel:
		st.TicketChannelID = componentValue(i)
		st.Step = wizardStepLogChannel
	case CmdSetupLog:
		st.LogChannelID = componentValue(i)
		st.Step = wizardStepNotifications
	case CmdSetupLogSkip:
		st.LogChannelID = ""
		st.Step = wizardStepNotifications
	case CmdSetupToggleDMC:
		st.DMOnCreate = !st.DMOnCreate
	case CmdSetupToggleDMU:
		st.DMOnUpdate = !st.DMOnUpdate
	case CmdSetupCancel:
		a.wizards.Delete(wizardKey(cmd.TenantID))
		return respondUpdate(gw, i, "Setup cancelled. Nothing was changed.", nil)
	case CmdSetupConfirm:
		return a.finishWizard(ctx, l, st, gw, i)
	default:
		return fmt.Errorf("unhandled wizard command %s", cmd.Kind)
	}

	a.wizards.Put(wizardKey(cmd.TenantID), st)
	content, components := wizardStepView(st)
	return respondUpdate(gw, i, content, components)
}

// finishWizard posts the panel and then persists the configuration. The
// panel is posted first so a failure leaves the stored configuration
// untouched and the wizard open for a retry.
func (a *App) finishWizard(ctx context.Context, l *slog.Logger, st WizardState, gw Gateway, i *discordgo.InteractionCreate) error {
	existing, err := a.configs.GetBotConfig(ctx, st.TenantID)
	if err != nil {
		return fmt.Errorf("error getting existing config: %w", err)
	}

	cfg := &entities.BotConfig{
		TenantID:         st.TenantID,
		TicketChannelID:  st.TicketChannelID,
		LogChannelID:     st.LogChannelID,
		DMOnCreate:       st.DMOnCreate,
		DMOnUpdate:       st.DMOnUpdate,
		PanelTitle:       defaultPanelTitle,
		PanelDescription: defaultPanelDescription,
		PanelButtonLabel: defaultPanelButtonLabel,
	}
	if existing != nil {
		// Re-running setup keeps the dashboard-managed pieces and the
		// panel text.
		cfg.Categories = existing.Categories
		cfg.PrivateChannels = existing.PrivateChannels
		cfg.PanelTitle = existing.PanelTitle
		cfg.PanelDescription = existing.PanelDescription
		cfg.PanelButtonLabel = existing.PanelButtonLabel
		cfg.PanelInfoLines = existing.PanelInfoLines
	}

	msg, err := a.postPanel(gw, cfg)
	if err != nil {
		l.Error("Error posting panel during setup", slog.String(logging.KeyError, err.Error()))
		content, components := wizardStepView(st)
		return respondUpdate(gw, i, "Could not post the panel to the selected channel. Check the bot's permissions and try again.\n\n"+content, components)
	}
	cfg.PanelMessageID = msg.ID

	if err := a.configs.SaveBotConfig(ctx, cfg); err != nil {
		// Roll the panel back so a half-applied setup leaves no trace.
		if delErr := gw.ChannelMessageDelete(cfg.TicketChannelID, msg.ID); delErr != nil {
			l.Warn("Error removing panel after failed config save", slog.String(logging.KeyError, delErr.Error()))
		}
		return fmt.Errorf("error saving config: %w", err)
	}

	// Re-running setup replaces the panel; take the old one down best-effort.
	if existing != nil && existing.PanelMessageID != "" {
		if err := gw.ChannelMessageDelete(existing.TicketChannelID, existing.PanelMessageID); err != nil && !isUnknownMessage(err) && !isRESTError(err, discordgo.ErrCodeUnknownChannel) {
			l.Warn("Error removing previous panel", slog.String(logging.KeyError, err.Error()))
		}
	}

	a.wizards.Delete(wizardKey(st.TenantID))
	l.Info("Setup completed", slog.String("ticket_channel", cfg.TicketChannelID))
	return respondUpdate(gw, i, fmt.Sprintf("Setup complete. The ticket panel has been posted in <#%s>.", cfg.TicketChannelID), nil)
}

// wizardStepView renders the wizard message for the current step.
func wizardStepView(st WizardState) (string, []discordgo.MessageComponent) {
	switch st.Step {
	case wizardStepTicketChannel:
		return "**Setup (1/3)**\nPick the channel where the ticket panel should live.",
			[]discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						MenuType:     discordgo.ChannelSelectMenu,
						CustomID:     Command{Kind: CmdSetupChannel, TenantID: st.TenantID}.CustomID(),
						Placeholder:  "Ticket panel channel",
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					},
				}},
				wizardNavRow(st, false),
			}
	case wizardStepLogChannel:
		return "**Setup (2/3)**\nPick a staff channel for ticket log messages, or skip to go without one.",
			[]discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						MenuType:     discordgo.ChannelSelectMenu,
						CustomID:     Command{Kind: CmdSetupLog, TenantID: st.TenantID}.CustomID(),
						Placeholder:  "Staff log channel",
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Skip",
						Style:    discordgo.SecondaryButton,
						CustomID: Command{Kind: CmdSetupLogSkip, TenantID: st.TenantID}.CustomID(),
					},
				}},
				wizardNavRow(st, false),
			}
	default:
		logLine := "no log channel"
		if st.LogChannelID != "" {
			logLine = fmt.Sprintf("log channel <#%s>", st.LogChannelID)
		}
		content := fmt.Sprintf(
			"**Setup (3/3)**\nPanel in <#%s>, %s.\nChoose when users get a DM about their tickets, then confirm.",
			st.TicketChannelID, logLine,
		)
		return content, []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "DM on create: " + onOff(st.DMOnCreate),
					Style:    discordgo.SecondaryButton,
					CustomID: Command{Kind: CmdSetupToggleDMC, TenantID: st.TenantID}.CustomID(),
				},
				discordgo.Button{
					Label:    "DM on update: " + onOff(st.DMOnUpdate),
					Style:    discordgo.SecondaryButton,
					CustomID: Command{Kind: CmdSetupToggleDMU, TenantID: st.TenantID}.CustomID(),
				},
			}},
			wizardNavRow(st, true),
		}
	}
}

func wizardNavRow(st WizardState, confirmable bool) discordgo.MessageComponent {
	row := discordgo.ActionsRow{}
	if confirmable {
		row.Components = append(row.Components, discordgo.Button{
			Label:    "Confirm",
			Style:    discordgo.SuccessButton,
			CustomID: Command{Kind: CmdSetupConfirm, TenantID: st.TenantID}.CustomID(),
		})
	}
	row.Components = append(row.Components, discordgo.Button{
		Label:    "Cancel",
		Style:    discordgo.DangerButton,
		CustomID: Command{Kind: CmdSetupCancel, TenantID: st.TenantID}.CustomID(),
	})
	return row
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
