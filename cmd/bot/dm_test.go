package main

import (
	"context"
	"testing"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/messages"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/ticketing"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

func TestDMReplyAppendsComment(t *testing.T) {
	ta := newTestApp(t)
	ta.defaultConfig(t)
	ticketID := seedTicket(t, ta)
	ctx := context.Background()
	l := testLogger(t)

	cmd := Command{Kind: CmdDMReplyModal, TenantID: testTenant, TicketID: ticketID}
	i := modalInteraction(cmd.CustomID(), nil, map[string]string{inputReply: "Any update on this?"})
	i.Interaction.GuildID = ""
	i.Interaction.User = &discordgo.User{ID: "user-1", Username: "alice"}

	require.NoError(t, ta.app.dmReplySubmit(ctx, l, cmd, ta.gw, i))

	ticket, err := ta.adapter.GetTicket(ctx, ticketID, "")
	require.NoError(t, err)
	require.NotEmpty(t, ticket.Comments)
	last := ticket.Comments[len(ticket.Comments)-1]
	require.Equal(t, "alice", last.Author)
	require.Equal(t, "Any update on this?", last.Body)
	require.Equal(t, "Reply sent.", ta.gw.lastResponse(t).Data.Content)

	// The user's own DM reflects the new comment.
	tr, err := ta.trackers.GetDMTracker(ctx, testTenant, ticketID, "user-1")
	require.NoError(t, err)
	edited := false
	for _, e := range ta.gw.edits {
		if e.ID == tr.DMMessageID {
			edited = true
		}
	}
	require.True(t, edited)
}

func TestDMReplyRejectsNonOwner(t *testing.T) {
	ta := newTestApp(t)
	ta.defaultConfig(t)
	ticketID := seedTicket(t, ta)
	l := testLogger(t)

	commentsBefore := ta.adapter.commentCalls
	cmd := Command{Kind: CmdDMReplyModal, TenantID: testTenant, TicketID: ticketID}
	i := modalInteraction(cmd.CustomID(), nil, map[string]string{inputReply: "let me in"})
	i.Interaction.GuildID = ""
	i.Interaction.User = &discordgo.User{ID: "intruder", Username: "mallory"}

	require.NoError(t, ta.app.dmReplySubmit(context.Background(), l, cmd, ta.gw, i))

	require.Equal(t, messages.ErrTicketNotFound, ta.gw.lastResponse(t).Data.Content)
	require.Equal(t, commentsBefore, ta.adapter.commentCalls)
}

func TestDMCloseAndReopen(t *testing.T) {
	ta := newTestApp(t)
	cfg := ta.defaultConfig(t)
	ticketID := seedTicket(t, ta)
	ctx := context.Background()
	l := testLogger(t)
	user := &discordgo.User{ID: "user-1", Username: "alice"}

	// The requester's own DM refreshes even with update DMs switched off.
	cfg.DMOnUpdate = false
	require.NoError(t, ta.configs.SaveBotConfig(ctx, cfg))

	closeCmd := Command{Kind: CmdDMClose, TenantID: testTenant, TicketID: ticketID}
	require.NoError(t, ta.app.dmClose(ctx, l, closeCmd, ta.gw, dmComponentInteraction(closeCmd.CustomID(), user)))

	ticket, err := ta.adapter.GetTicket(ctx, ticketID, "")
	require.NoError(t, err)
	require.Equal(t, ticketing.StateDone, ticket.Status)

	tr, err := ta.trackers.GetDMTracker(ctx, testTenant, ticketID, "user-1")
	require.NoError(t, err)
	edited := false
	for _, e := range ta.gw.edits {
		if e.ID == tr.DMMessageID {
			edited = true
		}
	}
	require.True(t, edited, "the requester's DM refreshes on their own action")

	reopenCmd := Command{Kind: CmdDMReopen, TenantID: testTenant, TicketID: ticketID}
	require.NoError(t, ta.app.dmReopen(ctx, l, reopenCmd, ta.gw, dmComponentInteraction(reopenCmd.CustomID(), user)))

	ticket, err = ta.adapter.GetTicket(ctx, ticketID, "")
	require.NoError(t, err)
	require.Equal(t, ticketing.StateToDo, ticket.Status)
}

func TestDMReplyEmptyIsNotForwarded(t *testing.T) {
	ta := newTestApp(t)
	ta.defaultConfig(t)
	ticketID := seedTicket(t, ta)
	l := testLogger(t)

	commentsBefore := ta.adapter.commentCalls
	cmd := Command{Kind: CmdDMReplyModal, TenantID: testTenant, TicketID: ticketID}
	i := modalInteraction(cmd.CustomID(), nil, map[string]string{inputReply: "   "})
	i.Interaction.GuildID = ""
	i.Interaction.User = &discordgo.User{ID: "user-1", Username: "alice"}

	require.NoError(t, ta.app.dmReplySubmit(context.Background(), l, cmd, ta.gw, i))

	require.Equal(t, commentsBefore, ta.adapter.commentCalls)
	require.Contains(t, ta.gw.lastResponse(t).Data.Content, "empty")
}
