package main

import (
	"fmt"
	"time"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/messages"
	"github.com/bwmarrin/discordgo"
)

const ephemeralDismissAfter = 15 * time.Second

// interactionUser returns the acting user for an interaction regardless of
// whether it arrived from a guild channel or a direct message.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// respondEphemeral replies to the interaction with a message only the acting
// user can see.
func respondEphemeral(gw Gateway, i *discordgo.InteractionCreate, content string, components ...discordgo.MessageComponent) error {
	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
	if len(components) > 0 {
		resp.Data.Components = components
	}
	if err := gw.InteractionRespond(i.Interaction, resp); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}

// respondError sends the generic failure message. Detail stays in the logs.
func respondError(gw Gateway, i *discordgo.InteractionCreate) error {
	return respondEphemeral(gw, i, messages.ErrUserErrorProcessing)
}

// respondUpdate edits the message the component interaction came from in
// place rather than posting a new one.
func respondUpdate(gw Gateway, i *discordgo.InteractionCreate, content string, components []discordgo.MessageComponent) error {
	if err := gw.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
		},
	}); err != nil {
		return fmt.Errorf("error updating interaction message: %w", err)
	}
	return nil
}

// ackUpdate acknowledges a component interaction without changing the
// message it came from.
func ackUpdate(gw Gateway, i *discordgo.InteractionCreate) error {
	if err := gw.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		return fmt.Errorf("error acknowledging interaction: %w", err)
	}
	return nil
}

// dismissLater deletes the ephemeral interaction response after a short
// delay so confirmations do not linger.
func dismissLater(gw Gateway, i *discordgo.InteractionCreate) {
	interaction := i.Interaction
	time.AfterFunc(ephemeralDismissAfter, func() {
		// Best effort. The user may already have dismissed it.
		_ = gw.InteractionResponseDelete(interaction)
	})
}

// sendMessage sends a plain content message with a component row.
func sendMessage(gw Gateway, channelID, content string, components []discordgo.MessageComponent) (*discordgo.Message, error) {
	msg, err := gw.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    content,
		Components: components,
	})
	if err != nil {
		return nil, fmt.Errorf("error sending message: %w", err)
	}
	return msg, nil
}

// editMessage replaces the content and components of an existing message.
func editMessage(gw Gateway, channelID, messageID, content string, components []discordgo.MessageComponent) error {
	_, err := gw.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Content:    &content,
		Components: &components,
	})
	if err != nil {
		return fmt.Errorf("error editing message: %w", err)
	}
	return nil
}

// subOptions flattens the options of the first subcommand into a lookup map.
func subOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	data := i.ApplicationCommandData()
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	if len(data.Options) == 0 {
		return out
	}
	for _, opt := range data.Options[0].Options {
		out[opt.Name] = opt
	}
	return out
}

// resolvedAttachments collects the attachments supplied on the create
// subcommand, in option order.
func resolvedAttachments(i *discordgo.InteractionCreate) []*discordgo.MessageAttachment {
	data := i.ApplicationCommandData()
	if data.Resolved == nil || len(data.Resolved.Attachments) == 0 {
		return nil
	}
	var out []*discordgo.MessageAttachment
	for n := 1; n <= maxAttachmentOptions; n++ {
		opt, ok := subOptions(i)[fmt.Sprintf("attachment%d", n)]
		if !ok {
			continue
		}
		if att, ok := data.Resolved.Attachments[opt.Value.(string)]; ok {
			out = append(out, att)
		}
	}
	return out
}

// modalValue pulls the value of a text input out of a modal submission by
// its component custom identifier.
func modalValue(i *discordgo.InteractionCreate, customID string) string {
	data := i.ModalSubmitData()
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if ti, ok := c.(*discordgo.TextInput); ok && ti.CustomID == customID {
				return ti.Value
			}
		}
	}
	return ""
}

// componentValue returns the first selected value of a select menu
// interaction, or the empty string when nothing was selected.
func componentValue(i *discordgo.InteractionCreate) string {
	data := i.MessageComponentData()
	if len(data.Values) == 0 {
		return ""
	}
	return data.Values[0]
}
