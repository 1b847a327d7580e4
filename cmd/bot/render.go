package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/entities"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/ticketing"
	"github.com/bwmarrin/discordgo"
)

// transcriptBound caps the rendered transcript so the full message, header
// lines included, stays under the discord message limit.
const transcriptBound = 1400

// descriptionBound caps the description excerpt on the staff log message.
const descriptionBound = 200

const omissionMarker = "*(earlier messages omitted)*"

const commentTimeLayout = "02 Jan 2006 15:04"

// renderTranscript renders the comment history newest-last, dropping the
// oldest comments first when the rendered text would exceed the bound. When
// anything is dropped the transcript opens with an omission marker.
func renderTranscript(comments []ticketing.Comment) string {
	if len(comments) == 0 {
		return "*No messages yet.*"
	}

	lines := make([]string, 0, len(comments))
	for _, c := range comments {
		body := strings.TrimSpace(c.Body)
		if c.Created.IsZero() {
			lines = append(lines, fmt.Sprintf("**%s**: %s", c.Author, body))
			continue
		}
		lines = append(lines, fmt.Sprintf("**%s** (%s): %s", c.Author, c.Created.Format(commentTimeLayout), body))
	}

	// Keep the newest lines that fit.
	budget := transcriptBound - len(omissionMarker) - 1
	total := 0
	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		needed := len(lines[i]) + 1
		if total+needed > budget {
			break
		}
		total += needed
		start = i
	}

	if start == 0 {
		return strings.Join(lines, "\n")
	}
	if start == len(lines) {
		// Even the newest comment alone is too large; hard-truncate it on a
		// rune boundary.
		last := lines[len(lines)-1]
		if len(last) > budget {
			cut := budget
			for cut > 0 && !utf8.RuneStart(last[cut]) {
				cut--
			}
			last = last[:cut]
		}
		return omissionMarker + "\n" + last
	}
	return omissionMarker + "\n" + strings.Join(lines[start:], "\n")
}

func statusMarker(statusCategory string) string {
	switch statusCategory {
	case ticketing.StatusCategoryDone:
		return "✅"
	case ticketing.StatusCategoryIndeterminate:
		return "🔧"
	default:
		return "🆕"
	}
}

// renderDM renders the end-user mirror of a ticket.
func renderDM(s *entities.TicketSummary, t *ticketing.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s **Ticket %s** | %s\n", statusMarker(t.StatusCategory), t.ID, t.Status)
	fmt.Fprintf(&b, "**Category:** %s | **Severity:** %s\n", s.Category, s.Priority)
	fmt.Fprintf(&b, "**Opened:** %s\n\n", s.CreatedAt.Time().Format(commentTimeLayout))
	b.WriteString(renderTranscript(t.Comments))
	b.WriteString("\n\n*Use the buttons below to reply or close this ticket.*")
	return b.String()
}

// renderLog renders the staff-facing log message for a ticket.
func renderLog(s *entities.TicketSummary, t *ticketing.Ticket) string {
	assignee := s.Assignee
	if assignee == "" {
		assignee = "Unassigned"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s **Ticket %s** | %s\n", statusMarker(t.StatusCategory), t.ID, t.Status)
	fmt.Fprintf(&b, "**Opened by:** %s (<@%s>)\n", s.CreatorName, s.CreatorID)
	fmt.Fprintf(&b, "**Category:** %s | **Severity:** %s | **Assignee:** %s\n", s.Category, s.Priority, assignee)
	fmt.Fprintf(&b, "**Opened:** %s\n", s.CreatedAt.Time().Format(commentTimeLayout))
	if desc := strings.Join(strings.Fields(t.Description), " "); desc != "" {
		fmt.Fprintf(&b, "> %s\n", excerpt(desc, descriptionBound))
	}
	if len(t.Attachments) > 0 {
		names := make([]string, 0, len(t.Attachments))
		for _, at := range t.Attachments {
			names = append(names, at.Filename)
		}
		fmt.Fprintf(&b, "**Attachments:** %s\n", strings.Join(names, ", "))
	}
	b.WriteString("\n")
	b.WriteString(renderTranscript(t.Comments))
	return b.String()
}

// excerpt shortens s to at most n runes, marking the cut.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// dmComponents builds the button row under the end-user DM.
func dmComponents(tenantID, ticketID string, done bool) []discordgo.MessageComponent {
	row := discordgo.ActionsRow{}
	if done {
		row.Components = append(row.Components, discordgo.Button{
			Label:    "Reopen",
			Style:    discordgo.SecondaryButton,
			CustomID: Command{Kind: CmdDMReopen, TenantID: tenantID, TicketID: ticketID}.CustomID(),
		})
	} else {
		row.Components = append(row.Components,
			discordgo.Button{
				Label:    "Reply",
				Style:    discordgo.PrimaryButton,
				CustomID: Command{Kind: CmdDMReply, TenantID: tenantID, TicketID: ticketID}.CustomID(),
			},
			discordgo.Button{
				Label:    "Close",
				Style:    discordgo.DangerButton,
				CustomID: Command{Kind: CmdDMClose, TenantID: tenantID, TicketID: ticketID}.CustomID(),
			},
		)
	}
	return []discordgo.MessageComponent{row}
}

// logComponents builds the button row under the staff log message.
func logComponents(tenantID, ticketID string, done bool) []discordgo.MessageComponent {
	row := discordgo.ActionsRow{}
	if done {
		row.Components = append(row.Components, discordgo.Button{
			Label:    "Reopen",
			Style:    discordgo.SecondaryButton,
			CustomID: Command{Kind: CmdTicketReopen, TenantID: tenantID, TicketID: ticketID}.CustomID(),
		})
	} else {
		row.Components = append(row.Components,
			discordgo.Button{
				Label:    "Claim",
				Style:    discordgo.PrimaryButton,
				CustomID: Command{Kind: CmdTicketAssign, TenantID: tenantID, TicketID: ticketID}.CustomID(),
			},
			discordgo.Button{
				Label:    "Resolve",
				Style:    discordgo.SuccessButton,
				CustomID: Command{Kind: CmdTicketResolve, TenantID: tenantID, TicketID: ticketID}.CustomID(),
			},
		)
	}
	return []discordgo.MessageComponent{row}
}
