package tracking

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadscope/audit-cli/internal/model"
	"github.com/leadscope/audit-cli/internal/store"
)

func newTestManager(t *testing.T) (*Manager, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "tracking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return NewManager(st, "https://t.leadscope.example"), st
}

func seedLeadWithEmail(t *testing.T, m *Manager, st store.Store) (*model.Lead, *model.GeneratedEmail) {
	t.Helper()
	ctx := context.Background()
	lead, err := st.CreateLead(ctx, &model.Lead{
		Email:        "owner@acme.example",
		WebsiteURL:   "https://acme.example",
		BusinessType: model.BusinessTypeSingleOperator,
		TotalScore:   26,
		LeadScore:    74,
	})
	require.NoError(t, err)

	email, err := m.CreateEmail(ctx, lead.ID, "", "Your site audit", "body")
	require.NoError(t, err)
	require.NotEmpty(t, email.TrackingCode)
	return lead, email
}

func TestManager_MarkSent_ContactsLead(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()
	lead, email := seedLeadWithEmail(t, m, st)

	require.NoError(t, m.MarkSent(ctx, email))

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusContacted, got.Status)
	assert.NotNil(t, got.EmailSentAt)

	sent, err := st.GetEmailByCode(ctx, email.TrackingCode)
	require.NoError(t, err)
	assert.True(t, sent.Sent)
}

func TestManager_RecordEvent_OpenSetsFlagsOnly(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()
	lead, email := seedLeadWithEmail(t, m, st)
	require.NoError(t, m.MarkSent(ctx, email))

	require.NoError(t, m.RecordEvent(ctx, email.TrackingCode, model.EventOpen, "Mozilla/5.0", "203.0.113.9"))

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	// Pixel opens never advance the state machine.
	assert.Equal(t, model.LeadStatusContacted, got.Status)
	assert.NotNil(t, got.EmailOpenedAt)

	opened, err := st.GetEmailByCode(ctx, email.TrackingCode)
	require.NoError(t, err)
	assert.True(t, opened.Opened)
}

func TestManager_RecordEvent_ClickPromotesToInterested(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()
	lead, email := seedLeadWithEmail(t, m, st)
	require.NoError(t, m.MarkSent(ctx, email))

	require.NoError(t, m.RecordEvent(ctx, email.TrackingCode, model.EventClick, "Mozilla/5.0", "203.0.113.9"))

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusInterested, got.Status)
	assert.NotNil(t, got.EmailClickedAt)
}

func TestManager_RecordEvent_ClickNeverRegresses(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()
	lead, email := seedLeadWithEmail(t, m, st)
	require.NoError(t, m.MarkSent(ctx, email))

	_, err := st.ConvertLead(ctx, lead.ID, "deal-1", model.ConversionSources())
	require.NoError(t, err)

	// A late click replay on a converted lead stamps timestamps but leaves
	// the status untouched.
	require.NoError(t, m.RecordEvent(ctx, email.TrackingCode, model.EventClick, "", ""))

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusConverted, got.Status)
}

func TestManager_RecordEvent_ConvertFromNew(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()
	lead, email := seedLeadWithEmail(t, m, st)

	require.NoError(t, m.RecordEvent(ctx, email.TrackingCode, model.EventConvert, "", ""))

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusConverted, got.Status)
}

func TestManager_CreateEmail_EmbedsTrackingLinks(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()
	_, email := seedLeadWithEmail(t, m, st)

	stored, err := st.GetEmailByCode(ctx, email.TrackingCode)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Contains(t, stored.Body, "https://t.leadscope.example/t/c/"+email.TrackingCode)
	assert.Contains(t, stored.Body, "https://t.leadscope.example/t/o/"+email.TrackingCode+".gif")
}

func TestManager_RecordEvent_UnknownCodeIsSilent(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()

	const code = "0123456789abcdef0123456789abcdef"
	err := m.RecordEvent(ctx, code, model.EventOpen, "curl/8.0", "198.51.100.1")
	assert.NoError(t, err)

	// A code nothing minted leaves no trace in the event log.
	events, err := st.ListTrackingEvents(ctx, code)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestManager_RecordEvent_AppendsOnePerHit(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()
	_, email := seedLeadWithEmail(t, m, st)

	require.NoError(t, m.RecordEvent(ctx, email.TrackingCode, model.EventOpen, "Mozilla/5.0", ""))
	require.NoError(t, m.RecordEvent(ctx, email.TrackingCode, model.EventClick, "Mozilla/5.0", ""))

	events, err := st.ListTrackingEvents(ctx, email.TrackingCode)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventOpen, events[0].Type)
	assert.Equal(t, model.EventClick, events[1].Type)
}

func TestManager_RecordEvent_CompletedCampaignCodeIsExpired(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()

	lead, err := st.CreateLead(ctx, &model.Lead{
		Email:        "owner@acme.example",
		WebsiteURL:   "https://acme.example",
		BusinessType: model.BusinessTypeSingleOperator,
		TotalScore:   26,
		LeadScore:    74,
	})
	require.NoError(t, err)

	camp, err := st.CreateCampaign(ctx, "spring-push")
	require.NoError(t, err)
	email, err := m.CreateEmail(ctx, lead.ID, camp.ID, "Your site audit", "body")
	require.NoError(t, err)
	require.NoError(t, m.MarkSent(ctx, email))
	require.NoError(t, st.UpdateCampaignStatus(ctx, camp.ID, model.CampaignStatusCompleted))

	// A click after the campaign wraps up is dropped whole: no event row,
	// no click stamp, no status change.
	require.NoError(t, m.RecordEvent(ctx, email.TrackingCode, model.EventClick, "Mozilla/5.0", "203.0.113.9"))

	events, err := st.ListTrackingEvents(ctx, email.TrackingCode)
	require.NoError(t, err)
	assert.Empty(t, events)

	stale, err := st.GetEmailByCode(ctx, email.TrackingCode)
	require.NoError(t, err)
	assert.False(t, stale.Clicked)

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusContacted, got.Status)
}

func TestManager_RecordEvent_RejectsUnknownType(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.RecordEvent(context.Background(), "whatever", model.EventType("unsubscribe"), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestManager_RecordEvent_RepeatOpenKeepsFirstTimestamp(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()
	_, email := seedLeadWithEmail(t, m, st)

	require.NoError(t, m.RecordEvent(ctx, email.TrackingCode, model.EventOpen, "", ""))

	first, err := st.GetEmailByCode(ctx, email.TrackingCode)
	require.NoError(t, err)
	require.NotNil(t, first.OpenedAt)

	require.NoError(t, m.RecordEvent(ctx, email.TrackingCode, model.EventOpen, "", ""))

	second, err := st.GetEmailByCode(ctx, email.TrackingCode)
	require.NoError(t, err)
	assert.True(t, second.OpenedAt.Equal(*first.OpenedAt))
}
