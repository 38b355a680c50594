package tracking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadscope/audit-cli/internal/model"
	"github.com/leadscope/audit-cli/internal/store"
)

// Manager mints tracked emails and applies event effects. Effects are
// idempotent: timestamps are first-write-wins in the store and status
// changes are guarded conditional updates, so replayed or out-of-order
// events degrade to no-ops.
type Manager struct {
	store   store.Store
	baseURL string
}

// NewManager builds a Manager. baseURL is the public address the tracking
// endpoints are served from; minted emails embed links under it.
func NewManager(st store.Store, baseURL string) *Manager {
	return &Manager{store: st, baseURL: strings.TrimRight(baseURL, "/")}
}

// CreateEmail mints a tracking code, embeds the tracked links in the body,
// and persists the email for a lead.
func (m *Manager) CreateEmail(ctx context.Context, leadID, campaignID, subject, body string) (*model.GeneratedEmail, error) {
	code, err := NewCode()
	if err != nil {
		return nil, err
	}

	email, err := m.store.CreateEmail(ctx, &model.GeneratedEmail{
		LeadID:       leadID,
		CampaignID:   campaignID,
		Subject:      subject,
		Body:         m.withTracking(body, code),
		TrackingCode: code,
	})
	if err != nil {
		return nil, eris.Wrap(err, "tracking: create email")
	}
	return email, nil
}

// withTracking appends the tracked report link and the open pixel. The
// pixel only renders in HTML clients; plain-text readers see the link.
func (m *Manager) withTracking(body, code string) string {
	var b strings.Builder
	b.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nView your full report: %s/t/c/%s\n", m.baseURL, code)
	fmt.Fprintf(&b, "<img src=\"%s/t/o/%s.gif\" width=\"1\" height=\"1\" alt=\"\">\n", m.baseURL, code)
	return b.String()
}

// MarkSent stamps the send time on both the email and its lead, and moves
// a new lead to contacted.
func (m *Manager) MarkSent(ctx context.Context, email *model.GeneratedEmail) error {
	now := time.Now().UTC()
	if err := m.store.MarkEmailSent(ctx, email.ID, now); err != nil {
		return eris.Wrap(err, "tracking: mark email sent")
	}
	if err := m.store.MarkLeadEmailSent(ctx, email.LeadID, now); err != nil {
		return eris.Wrap(err, "tracking: mark lead emailed")
	}

	applied, err := m.store.TransitionLead(ctx, email.LeadID, model.LeadStatusContacted,
		[]model.LeadStatus{model.LeadStatusNew})
	if err != nil {
		return eris.Wrap(err, "tracking: transition lead on send")
	}
	if !applied {
		zap.L().Debug("lead already past contacted", zap.String("lead_id", email.LeadID))
	}
	return nil
}

// RecordEvent resolves the code, appends the event, and applies its effect.
// Unknown and expired codes are logged and dropped without a trace, so
// probing the tracking endpoints writes nothing; the caller still serves
// its generic response.
func (m *Manager) RecordEvent(ctx context.Context, code string, eventType model.EventType, userAgent, remoteAddr string) error {
	if !model.ValidEventType(eventType) {
		return eris.Errorf("tracking: unknown event type: %s", eventType)
	}

	email, err := m.store.GetEmailByCode(ctx, code)
	if err != nil {
		return eris.Wrap(err, "tracking: resolve code")
	}
	if email == nil {
		zap.L().Warn("tracking event for unknown code",
			zap.String("code", code),
			zap.String("type", string(eventType)),
			zap.String("remote_addr", remoteAddr),
		)
		return nil
	}

	expired, err := m.codeExpired(ctx, email)
	if err != nil {
		return err
	}
	if expired {
		zap.L().Warn("tracking event for expired code",
			zap.String("code", code),
			zap.String("campaign_id", email.CampaignID),
			zap.String("type", string(eventType)),
		)
		return nil
	}

	now := time.Now().UTC()
	if err := m.store.InsertTrackingEvent(ctx, &model.TrackingEvent{
		TrackingCode: code,
		Type:         eventType,
		UserAgent:    userAgent,
		RemoteAddr:   remoteAddr,
		OccurredAt:   now,
	}); err != nil {
		return eris.Wrap(err, "tracking: append event")
	}

	switch eventType {
	case model.EventOpen:
		return m.applyOpen(ctx, email, now)
	case model.EventClick:
		return m.applyClick(ctx, email, now)
	case model.EventConvert:
		return m.applyConvert(ctx, email)
	}
	return nil
}

// codeExpired reports whether the email's campaign has completed. Codes
// outlive campaigns in mailboxes, so late hits are dropped rather than
// recorded.
func (m *Manager) codeExpired(ctx context.Context, email *model.GeneratedEmail) (bool, error) {
	if email.CampaignID == "" {
		return false, nil
	}
	camp, err := m.store.GetCampaign(ctx, email.CampaignID)
	if err != nil {
		return false, eris.Wrap(err, "tracking: resolve campaign")
	}
	return camp.Status == model.CampaignStatusCompleted, nil
}

// applyOpen stamps open timestamps only. Opens never change lead status:
// mail clients prefetch pixels, so an open is too weak a signal to act on.
func (m *Manager) applyOpen(ctx context.Context, email *model.GeneratedEmail, at time.Time) error {
	if err := m.store.MarkEmailOpened(ctx, email.TrackingCode, at); err != nil {
		return eris.Wrap(err, "tracking: apply open")
	}
	if err := m.store.MarkLeadOpened(ctx, email.LeadID, at); err != nil {
		return eris.Wrap(err, "tracking: apply open to lead")
	}
	return nil
}

func (m *Manager) applyClick(ctx context.Context, email *model.GeneratedEmail, at time.Time) error {
	if err := m.store.MarkEmailClicked(ctx, email.TrackingCode, at); err != nil {
		return eris.Wrap(err, "tracking: apply click")
	}
	if err := m.store.MarkLeadClicked(ctx, email.LeadID, at); err != nil {
		return eris.Wrap(err, "tracking: apply click to lead")
	}

	applied, err := m.store.TransitionLead(ctx, email.LeadID, model.LeadStatusInterested, model.ClickSources())
	if err != nil {
		return eris.Wrap(err, "tracking: promote lead on click")
	}
	if !applied {
		zap.L().Debug("click did not change lead status", zap.String("lead_id", email.LeadID))
	}
	return nil
}

func (m *Manager) applyConvert(ctx context.Context, email *model.GeneratedEmail) error {
	applied, err := m.store.TransitionLead(ctx, email.LeadID, model.LeadStatusConverted, model.ConversionSources())
	if err != nil {
		return eris.Wrap(err, "tracking: convert lead")
	}
	if !applied {
		zap.L().Debug("convert event on settled lead", zap.String("lead_id", email.LeadID))
	}
	return nil
}
