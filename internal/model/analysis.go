package model

import "time"

// AnalysisStatus represents the current state of an audit run.
type AnalysisStatus string

const (
	AnalysisStatusPending   AnalysisStatus = "pending"
	AnalysisStatusRunning   AnalysisStatus = "running"
	AnalysisStatusCompleted AnalysisStatus = "completed"
	AnalysisStatusFailed    AnalysisStatus = "failed"
)

// Category score caps. The six clamped categories sum to at most 100.
const (
	MaxSpeedScore    = 20
	MaxMobileScore   = 15
	MaxSecurityScore = 10
	MaxSEOScore      = 20
	MaxGEOScore      = 15
	MaxDesignScore   = 20
)

// CategoryScores holds the six clamped category scores. Total is always the
// arithmetic sum of the six values, never computed independently.
type CategoryScores struct {
	Speed    int `json:"speed"`
	Mobile   int `json:"mobile"`
	Security int `json:"security"`
	SEO      int `json:"seo"`
	GEO      int `json:"geo"`
	Design   int `json:"design"`
	Total    int `json:"total"`
}

// ScoreLabel buckets a total score for triage and reporting.
type ScoreLabel string

const (
	LabelCritical  ScoreLabel = "critical"
	LabelPoor      ScoreLabel = "poor"
	LabelAverage   ScoreLabel = "average"
	LabelGood      ScoreLabel = "good"
	LabelExcellent ScoreLabel = "excellent"
)

// LabelForTotal derives the category label from the total score only.
// Band lower bounds are inclusive.
func LabelForTotal(total int) ScoreLabel {
	switch {
	case total <= 30:
		return LabelCritical
	case total <= 50:
		return LabelPoor
	case total <= 70:
		return LabelAverage
	case total <= 85:
		return LabelGood
	default:
		return LabelExcellent
	}
}

// Analysis is one audit run: the request, the collected signals, and the
// derived result. Immutable once it reaches a terminal status; a re-run
// creates a new Analysis that supersedes this one.
type Analysis struct {
	ID        string         `json:"id"`
	Request   AuditRequest   `json:"request"`
	Status    AnalysisStatus `json:"status"`
	Result    *AuditResult   `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// AuditResult holds the completed output of an analysis run.
type AuditResult struct {
	Signals        SignalBundle    `json:"signals"`
	Scores         CategoryScores  `json:"scores"`
	Label          ScoreLabel      `json:"label"`
	Findings       []Finding       `json:"findings"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	DurationMS     int64           `json:"duration_ms"`
}
