package main

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Gateway is the slice of the discord session that the bot uses. It exists so
// the flows and sync engines can be exercised against a fake transport;
// *discordgo.Session satisfies it.
type Gateway interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()

	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	GatewayBot(options ...discordgo.RequestOption) (*discordgo.GatewayBotResponse, error)
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)

	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error

	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// dialDiscord opens a discord session for the token. The session is not yet
// connected; the manager wires handlers before calling Open.
func dialDiscord(token string) (Gateway, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAllWithoutPrivileged | discordgo.IntentsGuildMembers)

	return dg, nil
}

// isUnknownMessage reports whether err is the REST error for a message that
// no longer exists. The sync engines treat it as the signal to recreate.
func isUnknownMessage(err error) bool {
	return isRESTError(err, discordgo.ErrCodeUnknownMessage)
}

func isRESTError(err error, code int) bool {
	restErr := new(discordgo.RESTError)
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return false
	}
	return restErr.Message.Code == code
}
