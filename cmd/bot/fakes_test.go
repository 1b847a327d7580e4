package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/entities"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/ticketing"
	"github.com/bwmarrin/discordgo"
)

// fakeGateway records every outbound discord call so tests can assert on
// what the tenant's users would actually see.
type fakeGateway struct {
	mu sync.Mutex

	guildOwnerID string

	nextID int

	sent      []*discordgo.Message
	edits     []*discordgo.MessageEdit
	deleted   []string
	responses []*discordgo.InteractionResponse

	dmChannels      map[string]string // user id -> channel id
	createdChannels []discordgo.GuildChannelCreateData

	// editErr, when set, is returned for edits of the given message id.
	editErr map[string]error
	// sendErr, when set, fails sends to the given channel id.
	sendErr map[string]error
	// dmErr, when set, fails opening a DM with the given user id.
	dmErr map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		guildOwnerID: "owner-1",
		dmChannels:   make(map[string]string),
		editErr:      make(map[string]error),
		sendErr:      make(map[string]error),
		dmErr:        make(map[string]error),
	}
}

func unknownMessageErr() error {
	return &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage}}
}

func (f *fakeGateway) id(prefix string) string {
	f.nextID++
	return prefix + "-" + strconv.Itoa(f.nextID)
}

func (f *fakeGateway) Open() error  { return nil }
func (f *fakeGateway) Close() error { return nil }

func (f *fakeGateway) AddHandler(handler interface{}) func() { return func() {} }

func (f *fakeGateway) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	return cmd, nil
}

func (f *fakeGateway) GatewayBot(options ...discordgo.RequestOption) (*discordgo.GatewayBotResponse, error) {
	return &discordgo.GatewayBotResponse{}, nil
}

func (f *fakeGateway) Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error) {
	return &discordgo.Guild{ID: guildID, OwnerID: f.guildOwnerID}, nil
}

func (f *fakeGateway) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdChannels = append(f.createdChannels, data)
	return &discordgo.Channel{ID: f.id("chan"), Name: data.Name}, nil
}

func (f *fakeGateway) ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID)
	return &discordgo.Channel{ID: channelID}, nil
}

func (f *fakeGateway) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeGateway) InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error {
	return nil
}

func (f *fakeGateway) ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (f *fakeGateway) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.sendErr[channelID]; ok {
		return nil, err
	}
	msg := &discordgo.Message{
		ID:        f.id("msg"),
		ChannelID: channelID,
		Content:   data.Content,
		Embeds:    data.Embeds,
	}
	f.sent = append(f.sent, msg)
	return msg, nil
}

func (f *fakeGateway) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.editErr[m.ID]; ok {
		return nil, err
	}
	f.edits = append(f.edits, m)
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func (f *fakeGateway) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeGateway) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.dmErr[recipientID]; ok {
		return nil, err
	}
	if ch, ok := f.dmChannels[recipientID]; ok {
		return &discordgo.Channel{ID: ch, Type: discordgo.ChannelTypeDM}, nil
	}
	ch := f.id("dm")
	f.dmChannels[recipientID] = ch
	return &discordgo.Channel{ID: ch, Type: discordgo.ChannelTypeDM}, nil
}

// lastResponse returns the most recent interaction response.
func (f *fakeGateway) lastResponse(t *testing.T) *discordgo.InteractionResponse {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		t.Fatal("no interaction responses recorded")
	}
	return f.responses[len(f.responses)-1]
}

// fakeAdapter is an in-memory ticket provider.
type fakeAdapter struct {
	mu sync.Mutex

	nextKey int
	tickets map[string]*ticketing.Ticket
	// requester label per ticket, mirroring the provider-side ownership gate.
	requesters map[string]string

	createErr     error
	transitionErr error

	lastCreate ticketing.CreateRequest

	createCalls     int
	assignCalls     int
	transitionCalls int
	commentCalls    int
	attachCalls     int
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		tickets:    make(map[string]*ticketing.Ticket),
		requesters: make(map[string]string),
	}
}

func (f *fakeAdapter) CreateTicket(ctx context.Context, req ticketing.CreateRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastCreate = req
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextKey++
	key := fmt.Sprintf("TD-%d", f.nextKey)
	f.tickets[key] = &ticketing.Ticket{
		ID:             key,
		Summary:        req.Summary,
		Description:    req.Description,
		Status:         ticketing.StateToDo,
		StatusCategory: ticketing.StatusCategoryNew,
		Priority:       req.Priority,
		Created:        time.Now(),
	}
	f.requesters[key] = req.Requester.EndUserID
	return key, nil
}

func (f *fakeAdapter) AddComment(ctx context.Context, ticketID, message string, requester ticketing.Requester) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commentCalls++
	t, ok := f.tickets[ticketID]
	if !ok {
		return fmt.Errorf("no ticket %s", ticketID)
	}
	author := requester.Username
	if author == "" {
		author = "bot"
	}
	t.Comments = append(t.Comments, ticketing.Comment{
		Author:  author,
		Body:    message,
		Created: time.Now(),
	})
	return nil
}

func (f *fakeAdapter) AssignTicket(ctx context.Context, ticketID, providerAccountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignCalls++
	t, ok := f.tickets[ticketID]
	if !ok {
		return fmt.Errorf("no ticket %s", ticketID)
	}
	t.Assignee = providerAccountID
	return nil
}

func (f *fakeAdapter) TransitionTicket(ctx context.Context, ticketID, targetStateName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitionCalls++
	if f.transitionErr != nil {
		return f.transitionErr
	}
	t, ok := f.tickets[ticketID]
	if !ok {
		return fmt.Errorf("no ticket %s", ticketID)
	}
	t.Status = targetStateName
	switch targetStateName {
	case ticketing.StateDone:
		t.StatusCategory = ticketing.StatusCategoryDone
	case ticketing.StateInProgress:
		t.StatusCategory = ticketing.StatusCategoryIndeterminate
	default:
		t.StatusCategory = ticketing.StatusCategoryNew
	}
	return nil
}

func (f *fakeAdapter) GetTicket(ctx context.Context, ticketID, requestingEndUserID string) (*ticketing.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[ticketID]
	if !ok {
		return nil, nil
	}
	if requestingEndUserID != "" && f.requesters[ticketID] != requestingEndUserID {
		return nil, nil
	}
	cp := *t
	cp.Comments = append([]ticketing.Comment(nil), t.Comments...)
	return &cp, nil
}

func (f *fakeAdapter) AddAttachment(ctx context.Context, ticketID string, data []byte, filename, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachCalls++
	return nil
}

func (f *fakeAdapter) GetAttachmentBuffer(ctx context.Context, url string) ([]byte, error) {
	return nil, nil
}

// In-memory data access fakes.

type fakeConfigs struct {
	mu      sync.Mutex
	byID    map[string]*entities.BotConfig
	saveErr error
}

func newFakeConfigs() *fakeConfigs {
	return &fakeConfigs{byID: make(map[string]*entities.BotConfig)}
}

func (f *fakeConfigs) GetBotConfig(ctx context.Context, tenantID string) (*entities.BotConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.byID[tenantID]
	if !ok {
		return nil, nil
	}
	cp := *cfg
	return &cp, nil
}

func (f *fakeConfigs) SaveBotConfig(ctx context.Context, cfg *entities.BotConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *cfg
	f.byID[cfg.TenantID] = &cp
	return nil
}

type fakeStaff struct {
	mu   sync.Mutex
	byID map[string]*entities.StaffMapping // tenant/user
}

func newFakeStaff() *fakeStaff {
	return &fakeStaff{byID: make(map[string]*entities.StaffMapping)}
}

func (f *fakeStaff) add(m *entities.StaffMapping) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[m.TenantID+"/"+m.DiscordUserID] = m
}

func (f *fakeStaff) GetStaffMapping(ctx context.Context, tenantID, discordUserID string) (*entities.StaffMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[tenantID+"/"+discordUserID], nil
}

func (f *fakeStaff) DeleteStaffMapping(ctx context.Context, tenantID, discordUserID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, tenantID+"/"+discordUserID)
	return nil
}

type fakeTrackers struct {
	mu       sync.Mutex
	dms      map[string]*entities.TicketDMTracker  // tenant/ticket/user
	logs     map[string]*entities.TicketLogMessage // tenant/ticket
	channels map[string]*entities.TicketChannel    // tenant/ticket
}

func newFakeTrackers() *fakeTrackers {
	return &fakeTrackers{
		dms:      make(map[string]*entities.TicketDMTracker),
		logs:     make(map[string]*entities.TicketLogMessage),
		channels: make(map[string]*entities.TicketChannel),
	}
}

func (f *fakeTrackers) GetDMTracker(ctx context.Context, tenantID, ticketID, endUserID string) (*entities.TicketDMTracker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tr, ok := f.dms[tenantID+"/"+ticketID+"/"+endUserID]
	if !ok {
		return nil, nil
	}
	cp := *tr
	return &cp, nil
}

func (f *fakeTrackers) SaveDMTracker(ctx context.Context, tr *entities.TicketDMTracker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *tr
	f.dms[tr.TenantID+"/"+tr.TicketID+"/"+tr.EndUserID] = &cp
	return nil
}

func (f *fakeTrackers) ListDMTrackers(ctx context.Context, tenantID, ticketID string) ([]*entities.TicketDMTracker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.TicketDMTracker
	for _, tr := range f.dms {
		if tr.TenantID == tenantID && tr.TicketID == ticketID {
			cp := *tr
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTrackers) GetLogMessage(ctx context.Context, tenantID, ticketID string) (*entities.TicketLogMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lm, ok := f.logs[tenantID+"/"+ticketID]
	if !ok {
		return nil, nil
	}
	cp := *lm
	return &cp, nil
}

func (f *fakeTrackers) SaveLogMessage(ctx context.Context, lm *entities.TicketLogMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *lm
	f.logs[lm.TenantID+"/"+lm.TicketID] = &cp
	return nil
}

func (f *fakeTrackers) GetTicketChannel(ctx context.Context, tenantID, ticketID string) (*entities.TicketChannel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tc, ok := f.channels[tenantID+"/"+ticketID]
	if !ok {
		return nil, nil
	}
	cp := *tc
	return &cp, nil
}

func (f *fakeTrackers) SaveTicketChannel(ctx context.Context, tc *entities.TicketChannel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *tc
	f.channels[tc.TenantID+"/"+tc.TicketID] = &cp
	return nil
}

func (f *fakeTrackers) DeleteTicketChannel(ctx context.Context, tenantID, ticketID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.channels, tenantID+"/"+ticketID)
	return nil
}

type fakeSummaries struct {
	mu   sync.Mutex
	byID map[string]*entities.TicketSummary // tenant/ticket
}

func newFakeSummaries() *fakeSummaries {
	return &fakeSummaries{byID: make(map[string]*entities.TicketSummary)}
}

func (f *fakeSummaries) GetSummary(ctx context.Context, tenantID, ticketID string) (*entities.TicketSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[tenantID+"/"+ticketID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSummaries) SaveSummary(ctx context.Context, s *entities.TicketSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.byID[s.TenantID+"/"+s.TicketID] = &cp
	return nil
}

type fakeProviders struct {
	mu   sync.Mutex
	byID map[string]*entities.TenantProvider
}

func newFakeProviders() *fakeProviders {
	return &fakeProviders{byID: make(map[string]*entities.TenantProvider)}
}

func (f *fakeProviders) GetTenantProvider(ctx context.Context, tenantID string) (*entities.TenantProvider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[tenantID], nil
}

// testApp bundles an App wired onto fakes.
type testApp struct {
	app *App

	gw        *fakeGateway
	adapter   *fakeAdapter
	configs   *fakeConfigs
	staff     *fakeStaff
	trackers  *fakeTrackers
	summaries *fakeSummaries
}

const testTenant = "tenant-1"

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	ta := &testApp{
		gw:        newFakeGateway(),
		adapter:   newFakeAdapter(),
		configs:   newFakeConfigs(),
		staff:     newFakeStaff(),
		trackers:  newFakeTrackers(),
		summaries: newFakeSummaries(),
	}

	a := NewApp(slog.New(slog.NewTextHandler(testWriter{t}, nil)), nil)
	a.configs = ta.configs
	a.staff = ta.staff
	a.trackers = ta.trackers
	a.summaries = ta.summaries
	a.creds = newFakeProviders()
	a.providers = ticketing.NewResolver(testTenant, ta.adapter, nil)
	a.wizards = newWizardStore()
	a.selections = newSelectionStore()
	a.cooldowns = newCooldownStore()
	a.run = func(fn func()) { fn() }
	t.Cleanup(func() {
		a.wizards.Close()
		a.selections.Close()
		a.cooldowns.Close()
	})

	ta.app = a
	return ta
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// defaultConfig seeds a usable tenant configuration.
func (ta *testApp) defaultConfig(t *testing.T) *entities.BotConfig {
	t.Helper()
	cfg := &entities.BotConfig{
		TenantID:         testTenant,
		TicketChannelID:  "ticket-chan",
		LogChannelID:     "log-chan",
		PanelTitle:       defaultPanelTitle,
		PanelDescription: defaultPanelDescription,
		PanelButtonLabel: defaultPanelButtonLabel,
		DMOnCreate:       true,
		DMOnUpdate:       true,
		Categories: []entities.Category{
			{Name: "Billing", ProviderLabel: "category-billing"},
			{Name: "Bug", ProviderLabel: "category-bug"},
		},
	}
	if err := ta.configs.SaveBotConfig(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	return cfg
}

// Interaction builders.

func guildUser(id, name string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id, Username: name}}
}

func slashInteraction(sub string, member *discordgo.Member, opts []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "guild-1",
		Member:  member,
		Data: discordgo.ApplicationCommandInteractionData{
			Name: TicketCmdName,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{
					Name:    sub,
					Type:    discordgo.ApplicationCommandOptionSubCommand,
					Options: opts,
				},
			},
		},
	}}
}

func componentInteraction(customID string, member *discordgo.Member, values ...string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionMessageComponent,
		GuildID: "guild-1",
		Member:  member,
		Data: discordgo.MessageComponentInteractionData{
			CustomID: customID,
			Values:   values,
		},
	}}
}

func dmComponentInteraction(customID string, user *discordgo.User) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionMessageComponent,
		User: user,
		Data: discordgo.MessageComponentInteractionData{CustomID: customID},
	}}
}

func modalInteraction(customID string, member *discordgo.Member, fields map[string]string) *discordgo.InteractionCreate {
	var rows []discordgo.MessageComponent
	for id, value := range fields {
		rows = append(rows, &discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: id, Value: value},
		}})
	}
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionModalSubmit,
		GuildID: "guild-1",
		Member:  member,
		Data: discordgo.ModalSubmitInteractionData{
			CustomID:   customID,
			Components: rows,
		},
	}}
}

func strOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}
