package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/entities"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/messages"
	"github.com/stretchr/testify/require"
)

func TestWizardHappyPath(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	l := testLogger(t)
	owner := guildUser("owner-1", "owner")

	// Existing config with dashboard-managed categories that setup must not
	// clobber.
	require.NoError(t, ta.configs.SaveBotConfig(ctx, &entities.BotConfig{
		TenantID:   testTenant,
		Categories: []entities.Category{{Name: "Billing", ProviderLabel: "category-billing"}},
	}))

	require.NoError(t, ta.app.startWizard(ctx, l, testTenant, ta.gw, componentInteraction("ignored:x", owner)))

	_, ok := ta.app.wizards.Get(wizardKey(testTenant))
	require.True(t, ok, "wizard state must exist after start")

	// Step 1: pick the ticket channel.
	cmd := Command{Kind: CmdSetupChannel, TenantID: testTenant}
	require.NoError(t, ta.app.advanceWizard(ctx, l, cmd, ta.gw, componentInteraction(cmd.CustomID(), owner, "chan-1")))

	// Step 2: pick the log channel.
	cmd = Command{Kind: CmdSetupLog, TenantID: testTenant}
	require.NoError(t, ta.app.advanceWizard(ctx, l, cmd, ta.gw, componentInteraction(cmd.CustomID(), owner, "log-1")))

	// Step 3: turn update DMs off, then confirm.
	cmd = Command{Kind: CmdSetupToggleDMU, TenantID: testTenant}
	require.NoError(t, ta.app.advanceWizard(ctx, l, cmd, ta.gw, componentInteraction(cmd.CustomID(), owner)))

	cmd = Command{Kind: CmdSetupConfirm, TenantID: testTenant}
	require.NoError(t, ta.app.advanceWizard(ctx, l, cmd, ta.gw, componentInteraction(cmd.CustomID(), owner)))

	cfg, err := ta.configs.GetBotConfig(ctx, testTenant)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "chan-1", cfg.TicketChannelID)
	require.Equal(t, "log-1", cfg.LogChannelID)
	require.True(t, cfg.DMOnCreate)
	require.False(t, cfg.DMOnUpdate)
	require.NotEmpty(t, cfg.PanelMessageID, "the posted panel must be tracked")
	require.Len(t, cfg.Categories, 1, "setup must keep dashboard-managed categories")

	require.Len(t, ta.gw.sent, 1, "exactly one panel message must be posted")
	require.Equal(t, "chan-1", ta.gw.sent[0].ChannelID)

	_, ok = ta.app.wizards.Get(wizardKey(testTenant))
	require.False(t, ok, "wizard state must be cleared after confirm")
}

func TestWizardRejectsNonOwner(t *testing.T) {
	ta := newTestApp(t)
	l := testLogger(t)

	err := ta.app.startWizard(context.Background(), l, testTenant, ta.gw, componentInteraction("x:y", guildUser("someone-else", "user")))
	require.NoError(t, err)

	resp := ta.gw.lastResponse(t)
	require.Equal(t, messages.ErrOwnerOnly, resp.Data.Content)

	_, ok := ta.app.wizards.Get(wizardKey(testTenant))
	require.False(t, ok, "no wizard state for a rejected start")
}

func TestWizardExpiredConfirm(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	l := testLogger(t)
	owner := guildUser("owner-1", "owner")

	require.NoError(t, ta.app.startWizard(ctx, l, testTenant, ta.gw, componentInteraction("x:y", owner)))

	// Let the wizard state age out.
	base := time.Now()
	ta.app.wizards.SetClock(func() time.Time { return base.Add(wizardTTL + time.Minute) })

	cmd := Command{Kind: CmdSetupConfirm, TenantID: testTenant}
	require.NoError(t, ta.app.advanceWizard(ctx, l, cmd, ta.gw, componentInteraction(cmd.CustomID(), owner)))

	resp := ta.gw.lastResponse(t)
	require.Equal(t, messages.ErrWizardExpired, resp.Data.Content)

	cfg, err := ta.configs.GetBotConfig(ctx, testTenant)
	require.NoError(t, err)
	require.Nil(t, cfg, "an expired wizard must not write configuration")
}

func TestWizardRollsBackPanelOnSaveFailure(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	l := testLogger(t)
	owner := guildUser("owner-1", "owner")

	require.NoError(t, ta.app.startWizard(ctx, l, testTenant, ta.gw, componentInteraction("x:y", owner)))

	cmd := Command{Kind: CmdSetupChannel, TenantID: testTenant}
	require.NoError(t, ta.app.advanceWizard(ctx, l, cmd, ta.gw, componentInteraction(cmd.CustomID(), owner, "chan-1")))
	cmd = Command{Kind: CmdSetupLogSkip, TenantID: testTenant}
	require.NoError(t, ta.app.advanceWizard(ctx, l, cmd, ta.gw, componentInteraction(cmd.CustomID(), owner)))

	ta.configs.saveErr = errors.New("write failed")

	cmd = Command{Kind: CmdSetupConfirm, TenantID: testTenant}
	err := ta.app.advanceWizard(ctx, l, cmd, ta.gw, componentInteraction(cmd.CustomID(), owner))
	require.Error(t, err)

	require.Len(t, ta.gw.sent, 1)
	require.Contains(t, ta.gw.deleted, ta.gw.sent[0].ID, "the posted panel must be rolled back when the save fails")
}

func TestWizardRerunReplacesOldPanel(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	l := testLogger(t)
	owner := guildUser("owner-1", "owner")

	require.NoError(t, ta.configs.SaveBotConfig(ctx, &entities.BotConfig{
		TenantID:        testTenant,
		TicketChannelID: "old-chan",
		PanelMessageID:  "old-panel",
	}))

	require.NoError(t, ta.app.startWizard(ctx, l, testTenant, ta.gw, componentInteraction("x:y", owner)))
	cmd := Command{Kind: CmdSetupChannel, TenantID: testTenant}
	require.NoError(t, ta.app.advanceWizard(ctx, l, cmd, ta.gw, componentInteraction(cmd.CustomID(), owner, "new-chan")))
	cmd = Command{Kind: CmdSetupLogSkip, TenantID: testTenant}
	require.NoError(t, ta.app.advanceWizard(ctx, l, cmd, ta.gw, componentInteraction(cmd.CustomID(), owner)))
	cmd = Command{Kind: CmdSetupConfirm, TenantID: testTenant}
	require.NoError(t, ta.app.advanceWizard(ctx, l, cmd, ta.gw, componentInteraction(cmd.CustomID(), owner)))

	require.Contains(t, ta.gw.deleted, "old-panel", "the previous panel must be taken down")

	cfg, err := ta.configs.GetBotConfig(ctx, testTenant)
	require.NoError(t, err)
	require.Equal(t, "new-chan", cfg.TicketChannelID)
	require.NotEqual(t, "old-panel", cfg.PanelMessageID)
}

func TestWizardCancelLeavesNoTrace(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	l := testLogger(t)
	owner := guildUser("owner-1", "owner")

	require.NoError(t, ta.app.startWizard(ctx, l, testTenant, ta.gw, componentInteraction("x:y", owner)))

	cmd := Command{Kind: CmdSetupCancel, TenantID: testTenant}
	require.NoError(t, ta.app.advanceWizard(ctx, l, cmd, ta.gw, componentInteraction(cmd.CustomID(), owner)))

	_, ok := ta.app.wizards.Get(wizardKey(testTenant))
	require.False(t, ok)

	cfg, err := ta.configs.GetBotConfig(ctx, testTenant)
	require.NoError(t, err)
	require.Nil(t, cfg)
	require.Empty(t, ta.gw.sent)
}
