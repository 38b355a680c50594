package model

import "sort"

// Severity classifies how urgent a finding is.
type Severity string

const (
	SeverityCritical    Severity = "critical"
	SeverityWarning     Severity = "warning"
	SeverityOpportunity Severity = "opportunity"
)

// Finding is one prioritized, human-readable issue derived from signals.
// Findings are owned by their analysis and are never stored independently.
type Finding struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"`
	Priority    int      `json:"priority"` // 1-10, higher is more urgent
}

// SortFindings orders findings by priority descending. The sort is stable
// so that equal priorities keep rule-declaration order and repeated runs on
// the same signals produce identical, diffable output.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Priority > findings[j].Priority
	})
}
