package main

import (
	"fmt"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/ticketing"
	"github.com/bwmarrin/discordgo"
)

const (
	TicketCmdName    = "ticket"
	CreateSubCmdName = "create"
	ClaimSubCmdName  = "claim"

	SetupCmdName = "setup"

	PanelCmdName           = "panel"
	PanelEditSubCmdName    = "edit"
	PanelRefreshSubCmdName = "refresh"

	CategoryOptionName    = "category"
	SeverityOptionName    = "severity"
	TitleOptionName       = "title"
	DescriptionOptionName = "description"
	TicketOptionName      = "ticket"

	maxAttachmentOptions = 5
)

// commandSet returns the guild application commands registered on every
// tenant session when it reports ready.
func commandSet() []*discordgo.ApplicationCommand {
	severityChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(ticketing.Severities()))
	for _, s := range ticketing.Severities() {
		severityChoices = append(severityChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  string(s),
			Value: string(s),
		})
	}

	createOpts := []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        CategoryOptionName,
			Description: "Category of the issue",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        SeverityOptionName,
			Description: "How severe is the issue",
			Required:    true,
			Choices:     severityChoices,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        TitleOptionName,
			Description: "Short summary of the issue",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        DescriptionOptionName,
			Description: "Full description of the issue",
			Required:    true,
		},
	}
	for n := 1; n <= maxAttachmentOptions; n++ {
		createOpts = append(createOpts, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionAttachment,
			Name:        fmt.Sprintf("attachment%d", n),
			Description: "File to attach to the ticket",
			Required:    false,
		})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        TicketCmdName,
			Description: "Support ticket commands",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        CreateSubCmdName,
					Description: "Open a new support ticket",
					Options:     createOpts,
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        ClaimSubCmdName,
					Description: "Claim a ticket as staff",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        TicketOptionName,
							Description: "Ticket identifier to claim",
							Required:    true,
						},
					},
				},
			},
		},
		{
			Name:        SetupCmdName,
			Description: "Configure the support bot for this server",
		},
		{
			Name:        PanelCmdName,
			Description: "Manage the ticket panel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        PanelEditSubCmdName,
					Description: "Edit the panel text",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        PanelRefreshSubCmdName,
					Description: "Repost or repair the panel message",
				},
			},
		},
	}
}
