package model

import "time"

// LeadStatus is the lead's position in the outreach state machine.
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusContacted  LeadStatus = "contacted"
	LeadStatusInterested LeadStatus = "interested"
	LeadStatusConverted  LeadStatus = "converted"
	LeadStatusRejected   LeadStatus = "rejected"
)

// leadTransitions is the authoritative set of legal status transitions.
// Terminal states have no outgoing edges; nothing transitions back to new.
var leadTransitions = map[LeadStatus][]LeadStatus{
	LeadStatusNew:        {LeadStatusContacted, LeadStatusInterested, LeadStatusRejected},
	LeadStatusContacted:  {LeadStatusInterested, LeadStatusConverted, LeadStatusRejected},
	LeadStatusInterested: {LeadStatusConverted, LeadStatusRejected},
	LeadStatusConverted:  nil,
	LeadStatusRejected:   nil,
}

// New leads may also be converted directly by a manual admin action, which
// drives any non-terminal state to converted. That path is expressed by
// ConversionSources rather than by widening the event-driven table above.

// CanTransition reports whether moving from one status to another is legal.
// Self-transitions are not legal; callers treat them as replay no-ops.
func (s LeadStatus) CanTransition(to LeadStatus) bool {
	for _, t := range leadTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing transitions.
func (s LeadStatus) Terminal() bool {
	return len(leadTransitions[s]) == 0
}

// TransitionSources returns every status from which `to` is directly
// reachable. The store uses this set as the guard in its conditional
// update so that out-of-order event delivery degrades to a silent no-op.
func TransitionSources(to LeadStatus) []LeadStatus {
	var sources []LeadStatus
	for _, from := range []LeadStatus{LeadStatusNew, LeadStatusContacted, LeadStatusInterested, LeadStatusConverted, LeadStatusRejected} {
		if from.CanTransition(to) {
			sources = append(sources, from)
		}
	}
	return sources
}

// ConversionSources is the guard set for the manual admin convert action:
// any non-terminal state may be driven to converted.
func ConversionSources() []LeadStatus {
	return []LeadStatus{LeadStatusNew, LeadStatusContacted, LeadStatusInterested}
}

// ClickSources is the guard set for click-driven interest: a click promotes
// new or contacted leads but never regresses an interested one.
func ClickSources() []LeadStatus {
	return []LeadStatus{LeadStatusNew, LeadStatusContacted}
}

// Lead is a prospective customer record created when an analysis completes
// with an associated contact. Leads are never physically deleted; their
// lifecycle is expressed through status transitions only.
type Lead struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name,omitempty"`
	WebsiteURL   string       `json:"website_url"`
	BusinessType BusinessType `json:"business_type"`
	AnalysisID   string       `json:"analysis_id"`
	TotalScore   int          `json:"total_score"`
	// LeadScore is the sales-priority score: low audit totals mean more
	// room to sell, so it is the inverse of the audit total.
	LeadScore int        `json:"lead_score"`
	Status    LeadStatus `json:"status"`
	CampaignID string    `json:"campaign_id,omitempty"`

	// Email lifecycle flags, first-write-wins.
	EmailSentAt    *time.Time `json:"email_sent_at,omitempty"`
	EmailOpenedAt  *time.Time `json:"email_opened_at,omitempty"`
	EmailClickedAt *time.Time `json:"email_clicked_at,omitempty"`

	// ConversionRef links a converted lead to the commercial record created
	// by the admin action that converted it.
	ConversionRef string `json:"conversion_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
