package model

// PackageTier is the recommended commercial offering.
type PackageTier string

const (
	TierBasic      PackageTier = "basic"
	TierPremium    PackageTier = "premium"
	TierEnterprise PackageTier = "enterprise"
)

// Recommendation maps one analysis to a commercial package. Immutable once
// computed; re-running the analysis supersedes it rather than editing it.
type Recommendation struct {
	Tier         PackageTier `json:"tier"`
	Confidence   float64     `json:"confidence"`
	Rationale    string      `json:"rationale"`
	MatchedNeeds []string    `json:"matched_needs,omitempty"`
	// Rule is the name of the chain rule that fired, for audit.
	Rule string `json:"rule"`
}
