package store

import (
	"context"
	"time"

	"github.com/leadscope/audit-cli/internal/model"
)

// AnalysisFilter specifies criteria for listing analyses.
type AnalysisFilter struct {
	Status model.AnalysisStatus `json:"status,omitempty"`
	URL    string               `json:"url,omitempty"`
	Limit  int                  `json:"limit,omitempty"`
	Offset int                  `json:"offset,omitempty"`
}

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status     model.LeadStatus `json:"status,omitempty"`
	CampaignID string           `json:"campaign_id,omitempty"`
	MinScore   int              `json:"min_score,omitempty"`
	Limit      int              `json:"limit,omitempty"`
	Offset     int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the audit pipeline.
type Store interface {
	// Analyses
	CreateAnalysis(ctx context.Context, req model.AuditRequest) (*model.Analysis, error)
	StartAnalysis(ctx context.Context, analysisID string) error
	CompleteAnalysis(ctx context.Context, analysisID string, result *model.AuditResult) error
	FailAnalysis(ctx context.Context, analysisID string, cause string) error
	GetAnalysis(ctx context.Context, analysisID string) (*model.Analysis, error)
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error)

	// Leads
	// CreateLead upserts by contact email and returns the stored row; when
	// the email already exists the returned lead carries the existing id.
	CreateLead(ctx context.Context, lead *model.Lead) (*model.Lead, error)
	GetLead(ctx context.Context, leadID string) (*model.Lead, error)
	GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	// TransitionLead applies a guarded status change: the row is updated
	// only if its current status is in sources. Returns whether a row
	// changed; a false result is a legal no-op, not an error.
	TransitionLead(ctx context.Context, leadID string, to model.LeadStatus, sources []model.LeadStatus) (bool, error)
	// ConvertLead is TransitionLead to converted plus recording the
	// conversion reference, under the same guard.
	ConvertLead(ctx context.Context, leadID string, conversionRef string, sources []model.LeadStatus) (bool, error)
	// MarkLeadEmailSent / Opened / Clicked stamp the lead's email
	// lifecycle timestamps first-write-wins: an already-set timestamp
	// is never overwritten.
	MarkLeadEmailSent(ctx context.Context, leadID string, at time.Time) error
	MarkLeadOpened(ctx context.Context, leadID string, at time.Time) error
	MarkLeadClicked(ctx context.Context, leadID string, at time.Time) error

	// Campaigns
	CreateCampaign(ctx context.Context, name string) (*model.Campaign, error)
	GetCampaign(ctx context.Context, campaignID string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context) ([]model.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, campaignID string, status model.CampaignStatus) error
	// GetCampaignStats derives the counters from the email table at read
	// time; nothing increments stored counts.
	GetCampaignStats(ctx context.Context, campaignID string) (*model.CampaignStats, error)

	// Generated emails and tracking
	CreateEmail(ctx context.Context, email *model.GeneratedEmail) (*model.GeneratedEmail, error)
	// GetEmailByCode returns (nil, nil) when no email carries the code.
	GetEmailByCode(ctx context.Context, trackingCode string) (*model.GeneratedEmail, error)
	MarkEmailSent(ctx context.Context, emailID string, at time.Time) error
	MarkEmailOpened(ctx context.Context, trackingCode string, at time.Time) error
	MarkEmailClicked(ctx context.Context, trackingCode string, at time.Time) error
	InsertTrackingEvent(ctx context.Context, event *model.TrackingEvent) error
	ListTrackingEvents(ctx context.Context, trackingCode string) ([]model.TrackingEvent, error)

	// Dashboard
	GetDashboardSummary(ctx context.Context, recentLimit int) (*model.DashboardSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
