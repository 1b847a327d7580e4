package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/entities"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/messages"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/ticketing"
	"github.com/bwmarrin/discordgo"
)

const (
	defaultPanelTitle       = "Support Tickets"
	defaultPanelDescription = "Need help? Open a ticket and the team will get back to you."
	defaultPanelButtonLabel = "Open a ticket"
)

// Text input identifiers inside the create and panel-edit modals.
const (
	inputTitle       = "title"
	inputDescription = "description"
	inputButtonLabel = "button_label"
	inputInfoLines   = "info_lines"
	inputReply       = "reply"
)

// postPanel posts the persistent panel message to the configured ticket
// channel.
func (a *App) postPanel(gw Gateway, cfg *entities.BotConfig) (*discordgo.Message, error) {
	msg, err := gw.ChannelMessageSendComplex(cfg.TicketChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{panelEmbed(cfg)},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    cfg.PanelButtonLabel,
					Style:    discordgo.PrimaryButton,
					CustomID: Command{Kind: CmdPanelOpen, TenantID: cfg.TenantID}.CustomID(),
				},
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error posting panel message: %w", err)
	}
	return msg, nil
}

func panelEmbed(cfg *entities.BotConfig) *discordgo.MessageEmbed {
	desc := cfg.PanelDescription
	if len(cfg.PanelInfoLines) > 0 {
		desc += "\n\n" + strings.Join(cfg.PanelInfoLines, "\n")
	}
	return &discordgo.MessageEmbed{
		Title:       cfg.PanelTitle,
		Description: desc,
		Color:       0x5865f2,
	}
}

// panelOpen handles the panel button: it opens the ephemeral picker for
// category and severity.
func (a *App) panelOpen(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	cfg, err := a.configs.GetBotConfig(ctx, cmd.TenantID)
	if err != nil {
		return fmt.Errorf("error getting config: %w", err)
	} else if cfg == nil {
		return respondEphemeral(gw, i, messages.ErrNotConfigured)
	} else if len(cfg.Categories) == 0 {
		return respondEphemeral(gw, i, messages.ErrNoCategories)
	}

	user := interactionUser(i)
	if user == nil {
		return fmt.Errorf("no acting user on panel interaction")
	}

	a.selections.Put(selectionKey(cmd.TenantID, user.ID), PanelSelection{
		TenantID: cmd.TenantID,
		UserID:   user.ID,
	})

	return respondEphemeral(gw, i,
		"Pick a category and a severity, then continue to describe the issue.",
		pickerComponents(cmd.TenantID, cfg)...,
	)
}

func pickerComponents(tenantID string, cfg *entities.BotConfig) []discordgo.MessageComponent {
	catOpts := make([]discordgo.SelectMenuOption, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		catOpts = append(catOpts, discordgo.SelectMenuOption{Label: c.Name, Value: c.Name})
	}

	sevOpts := make([]discordgo.SelectMenuOption, 0, len(ticketing.Severities()))
	for _, s := range ticketing.Severities() {
		sevOpts = append(sevOpts, discordgo.SelectMenuOption{Label: string(s), Value: string(s)})
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    Command{Kind: CmdPanelCategory, TenantID: tenantID}.CustomID(),
				Placeholder: "Category",
				Options:     catOpts,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    Command{Kind: CmdPanelSeverity, TenantID: tenantID}.CustomID(),
				Placeholder: "Severity",
				Options:     sevOpts,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Continue",
				Style:    discordgo.SuccessButton,
				CustomID: Command{Kind: CmdPanelContinue, TenantID: tenantID}.CustomID(),
			},
		}},
	}
}

// panelSelect records one of the two picker selections.
func (a *App) panelSelect(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	if user == nil {
		return fmt.Errorf("no acting user on panel interaction")
	}

	value := componentValue(i)
	updated := a.selections.Update(selectionKey(cmd.TenantID, user.ID), func(cur PanelSelection, ok bool) (PanelSelection, bool) {
		if !ok {
			return cur, false
		}
		switch cmd.Kind {
		case CmdPanelCategory:
			cur.Category = value
		case CmdPanelSeverity:
			if s, err := ticketing.ParseSeverity(value); err == nil {
				cur.Severity = s
			}
		}
		return cur, true
	})
	if !updated {
		return respondUpdate(gw, i, messages.ErrSelectionExpired, nil)
	}

	return ackUpdate(gw, i)
}

// panelContinue opens the detail modal once both picks are in.
func (a *App) panelContinue(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	if user == nil {
		return fmt.Errorf("no acting user on panel interaction")
	}

	sel, ok := a.selections.Get(selectionKey(cmd.TenantID, user.ID))
	if !ok {
		return respondUpdate(gw, i, messages.ErrSelectionExpired, nil)
	}
	if sel.Category == "" || sel.Severity == "" {
		return respondEphemeral(gw, i, "Pick both a category and a severity before continuing.")
	}

	if err := gw.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: Command{Kind: CmdCreateModal, TenantID: cmd.TenantID}.CustomID(),
			Title:    "Describe the issue",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  inputTitle,
						Label:     "Title",
						Style:     discordgo.TextInputShort,
						Required:  true,
						MinLength: titleMinLen,
						MaxLength: titleMaxLen,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  inputDescription,
						Label:     "Description",
						Style:     discordgo.TextInputParagraph,
						Required:  true,
						MinLength: descriptionMinLen,
						MaxLength: descriptionMaxLen,
					},
				}},
			},
		},
	}); err != nil {
		return fmt.Errorf("error opening detail modal: %w", err)
	}
	return nil
}

// panelEditPrompt handles /panel edit: an owner-only modal over the panel
// text.
func (a *App) panelEditPrompt(ctx context.Context, l *slog.Logger, tenantID string, gw Gateway, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	if user == nil {
		return fmt.Errorf("no acting user on panel interaction")
	}

	guild, err := gw.Guild(i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild %s: %w", i.GuildID, err)
	}
	if guild.OwnerID != user.ID {
		return respondEphemeral(gw, i, messages.ErrOwnerOnly)
	}

	cfg, err := a.configs.GetBotConfig(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("error getting config: %w", err)
	} else if cfg == nil {
		return respondEphemeral(gw, i, messages.ErrNotConfigured)
	}

	if err := gw.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: Command{Kind: CmdPanelEditModal, TenantID: tenantID}.CustomID(),
			Title:    "Edit ticket panel",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  inputTitle,
						Label:     "Panel title",
						Style:     discordgo.TextInputShort,
						Required:  true,
						MaxLength: 100,
						Value:     cfg.PanelTitle,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  inputDescription,
						Label:     "Panel description",
						Style:     discordgo.TextInputParagraph,
						Required:  true,
						MaxLength: 1000,
						Value:     cfg.PanelDescription,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  inputButtonLabel,
						Label:     "Button label",
						Style:     discordgo.TextInputShort,
						Required:  true,
						MaxLength: 80,
						Value:     cfg.PanelButtonLabel,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    inputInfoLines,
						Label:       "Info lines (one per line)",
						Style:       discordgo.TextInputParagraph,
						Required:    false,
						MaxLength:   1000,
						Value:       strings.Join(cfg.PanelInfoLines, "\n"),
						Placeholder: "Extra lines shown under the description",
					},
				}},
			},
		},
	}); err != nil {
		return fmt.Errorf("error opening panel edit modal: %w", err)
	}
	return nil
}

// panelEditSubmit persists the edited panel text and updates the live panel
// message in place.
func (a *App) panelEditSubmit(ctx context.Context, l *slog.Logger, cmd Command, gw Gateway, i *discordgo.InteractionCreate) error {
	cfg, err := a.configs.GetBotConfig(ctx, cmd.TenantID)
	if err != nil {
		return fmt.Errorf("error getting config: %w", err)
	} else if cfg == nil {
		return respondEphemeral(gw, i, messages.ErrNotConfigured)
	}

	cfg.PanelTitle = strings.TrimSpace(modalValue(i, inputTitle))
	cfg.PanelDescription = strings.TrimSpace(modalValue(i, inputDescription))
	cfg.PanelButtonLabel = strings.TrimSpace(modalValue(i, inputButtonLabel))
	cfg.PanelInfoLines = splitLines(modalValue(i, inputInfoLines))

	if err := a.refreshPanelMessage(l, gw, cfg); err != nil {
		return err
	}

	if err := a.configs.SaveBotConfig(ctx, cfg); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	if err := respondEphemeral(gw, i, "Panel updated."); err != nil {
		return err
	}
	dismissLater(gw, i)
	return nil
}

// panelRefresh handles /panel refresh: an owner-only repair that edits or
// reposts the panel message.
func (a *App) panelRefresh(ctx context.Context, l *slog.Logger, tenantID string, gw Gateway, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	if user == nil {
		return fmt.Errorf("no acting user on panel interaction")
	}

	guild, err := gw.Guild(i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild %s: %w", i.GuildID, err)
	}
	if guild.OwnerID != user.ID {
		return respondEphemeral(gw, i, messages.ErrOwnerOnly)
	}

	cfg, err := a.configs.GetBotConfig(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("error getting config: %w", err)
	} else if cfg == nil {
		return respondEphemeral(gw, i, messages.ErrNotConfigured)
	}

	if err := a.refreshPanelMessage(l, gw, cfg); err != nil {
		return err
	}

	if err := a.configs.SaveBotConfig(ctx, cfg); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	if err := respondEphemeral(gw, i, "Panel refreshed."); err != nil {
		return err
	}
	dismissLater(gw, i)
	return nil
}

// refreshPanelMessage edits the panel in place, reposting it when the old
// message no longer exists. cfg.PanelMessageID is updated on repost; the
// caller persists cfg.
func (a *App) refreshPanelMessage(l *slog.Logger, gw Gateway, cfg *entities.BotConfig) error {
	if cfg.PanelMessageID != "" {
		embeds := []*discordgo.MessageEmbed{panelEmbed(cfg)}
		components := []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    cfg.PanelButtonLabel,
					Style:    discordgo.PrimaryButton,
					CustomID: Command{Kind: CmdPanelOpen, TenantID: cfg.TenantID}.CustomID(),
				},
			}},
		}
		_, err := gw.ChannelMessageEditComplex(&discordgo.MessageEdit{
			ID:         cfg.PanelMessageID,
			Channel:    cfg.TicketChannelID,
			Embeds:     &embeds,
			Components: &components,
		})
		if err == nil {
			return nil
		}
		if !isUnknownMessage(err) && !isRESTError(err, discordgo.ErrCodeUnknownChannel) {
			return fmt.Errorf("error editing panel message: %w", err)
		}
		l.Info("Panel message missing, reposting", slog.String("message_id", cfg.PanelMessageID))
	}

	msg, err := a.postPanel(gw, cfg)
	if err != nil {
		return err
	}
	cfg.PanelMessageID = msg.ID
	return nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
