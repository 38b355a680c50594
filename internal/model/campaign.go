package model

import "time"

// CampaignStatus is the campaign lifecycle state.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// Campaign groups generated outbound emails. Its counters are derived on
// read from the email and lead tables; they are reporting output, not
// stored truth.
type Campaign struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    CampaignStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CampaignStats holds the derived aggregate counters for one campaign.
type CampaignStats struct {
	CampaignID string `json:"campaign_id"`
	Sent       int    `json:"sent"`
	Opened     int    `json:"opened"`
	Clicked    int    `json:"clicked"`
	Converted  int    `json:"converted"`
}

// GeneratedEmail is one outbound email generated for a lead. The tracking
// code is the immutable join key to tracking events; open/click flags and
// timestamps are first-write-wins.
type GeneratedEmail struct {
	ID           string     `json:"id"`
	LeadID       string     `json:"lead_id"`
	CampaignID   string     `json:"campaign_id,omitempty"`
	Subject      string     `json:"subject"`
	Body         string     `json:"body"`
	TrackingCode string     `json:"tracking_code"`
	Sent         bool       `json:"sent"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	Opened       bool       `json:"opened"`
	OpenedAt     *time.Time `json:"opened_at,omitempty"`
	Clicked      bool       `json:"clicked"`
	ClickedAt    *time.Time `json:"clicked_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// EventType classifies a tracking event.
type EventType string

const (
	EventOpen    EventType = "open"
	EventClick   EventType = "click"
	EventConvert EventType = "convert"
)

// ValidEventType reports whether et is a known tracking event type.
func ValidEventType(et EventType) bool {
	switch et {
	case EventOpen, EventClick, EventConvert:
		return true
	}
	return false
}

// TrackingEvent is one append-only log entry. Every occurrence is recorded,
// including repeats of events whose effect was already applied.
type TrackingEvent struct {
	ID           string    `json:"id"`
	TrackingCode string    `json:"tracking_code"`
	Type         EventType `json:"type"`
	UserAgent    string    `json:"user_agent,omitempty"`
	RemoteAddr   string    `json:"remote_addr,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// DashboardSummary aggregates pending work for the admin dashboard.
// Buckets map category labels to urgency: critical→critical, poor→high,
// average→medium, good/excellent→low.
type DashboardSummary struct {
	PendingTotal    int        `json:"pending_total"`
	PendingCritical int        `json:"pending_critical"`
	PendingHigh     int        `json:"pending_high"`
	PendingMedium   int        `json:"pending_medium"`
	PendingLow      int        `json:"pending_low"`
	RecentAnalyses  []Analysis `json:"recent_analyses"`
}
