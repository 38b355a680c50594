// Package recommend maps an audit result to a commercial package tier via
// an ordered chain of business rules.
package recommend

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadscope/audit-cli/internal/model"
)

// Input is the decision surface for one recommendation.
type Input struct {
	TotalScore       int
	BusinessType     model.BusinessType
	HasBookingSystem bool
	// Operators is the estimated operator headcount; zero means unknown.
	Operators int
}

// Rule is one (predicate, outcome) pair in the chain. Rules are evaluated
// top to bottom and the first match wins, so order carries meaning: a rule
// may only assume the predicates above it did not match.
type Rule struct {
	Name         string
	Matches      func(in Input) bool
	Tier         model.PackageTier
	Confidence   float64
	Rationale    string
	MatchedNeeds []string
}

// Chain is the ordered rule set. The ordering is intentional and not
// monotonic in score: a low-scoring lead that already runs a booking system
// is steered to premium rather than basic, because replacing working
// infrastructure is a different sales motion than replacing none.
var Chain = []Rule{
	{
		Name:       "large-operator-count",
		Matches:    func(in Input) bool { return in.Operators >= 10 },
		Tier:       model.TierEnterprise,
		Confidence: 0.9,
		Rationale:  "Ten or more operators need multi-seat scheduling and central administration.",
		MatchedNeeds: []string{
			"multi-seat administration",
			"role-based access",
			"consolidated reporting",
		},
	},
	{
		Name: "agency-with-booking",
		Matches: func(in Input) bool {
			return in.BusinessType == model.BusinessTypeAgency && in.HasBookingSystem
		},
		Tier:       model.TierEnterprise,
		Confidence: 0.85,
		Rationale:  "An agency already running online booking outgrows the standard integrations.",
		MatchedNeeds: []string{
			"booking system migration",
			"custom integrations",
		},
	},
	{
		Name:       "agency",
		Matches:    func(in Input) bool { return in.BusinessType == model.BusinessTypeAgency },
		Tier:       model.TierPremium,
		Confidence: 0.8,
		Rationale:  "Agencies need multi-location pages and staff management beyond the basic package.",
		MatchedNeeds: []string{
			"multi-location presence",
			"staff profiles",
		},
	},
	{
		Name:       "multi-operator",
		Matches:    func(in Input) bool { return in.BusinessType == model.BusinessTypeMultiOperator },
		Tier:       model.TierPremium,
		Confidence: 0.8,
		Rationale:  "Multiple operators need shared calendars and per-operator booking.",
		MatchedNeeds: []string{
			"shared calendar",
			"per-operator booking",
		},
	},
	{
		Name: "established-with-booking",
		Matches: func(in Input) bool {
			return in.TotalScore >= 40 && in.HasBookingSystem
		},
		Tier:       model.TierPremium,
		Confidence: 0.75,
		Rationale:  "A working site with existing booking warrants an upgrade path, not a rebuild.",
		MatchedNeeds: []string{
			"booking system upgrade",
			"conversion optimization",
		},
	},
	{
		Name: "single-operator-weak-site",
		Matches: func(in Input) bool {
			return in.BusinessType == model.BusinessTypeSingleOperator && in.TotalScore < 50
		},
		Tier:       model.TierBasic,
		Confidence: 0.8,
		Rationale:  "A single operator with a weak site is best served by the essentials first.",
		MatchedNeeds: []string{
			"modern website",
			"online booking",
		},
	},
	{
		Name:       "default",
		Matches:    func(Input) bool { return true },
		Tier:       model.TierPremium,
		Confidence: 0.6,
		Rationale:  "Standard recommendation for established businesses.",
		MatchedNeeds: []string{
			"growth features",
		},
	},
}

// Validate checks that the chain terminates in a catch-all rule. A chain
// that can fall through is a configuration error to be caught at startup
// and in tests, never at request time.
func Validate(chain []Rule) error {
	if len(chain) == 0 {
		return eris.New("recommend: empty rule chain")
	}
	// Per-rule checks run first so a nil predicate is reported, not invoked.
	for i, r := range chain {
		if r.Matches == nil {
			return eris.Errorf("recommend: rule %d (%s) has no predicate", i, r.Name)
		}
		if r.Tier == "" {
			return eris.Errorf("recommend: rule %d (%s) has no tier", i, r.Name)
		}
	}
	last := chain[len(chain)-1]
	if !last.Matches(Input{}) || !last.Matches(Input{TotalScore: 100, Operators: 5}) {
		return eris.Errorf("recommend: last rule %q is not a catch-all", last.Name)
	}
	return nil
}

// Recommend walks the chain and returns the outcome of the first matching
// rule. Validate guarantees the walk cannot fall through.
func Recommend(in Input) *model.Recommendation {
	for _, r := range Chain {
		if !r.Matches(in) {
			continue
		}
		zap.L().Debug("recommend: rule matched",
			zap.String("rule", r.Name),
			zap.String("tier", string(r.Tier)),
			zap.Int("total_score", in.TotalScore),
			zap.String("business_type", string(in.BusinessType)),
		)
		return &model.Recommendation{
			Tier:         r.Tier,
			Confidence:   r.Confidence,
			Rationale:    r.Rationale,
			MatchedNeeds: r.MatchedNeeds,
			Rule:         r.Name,
		}
	}
	// Unreachable with a validated chain.
	return nil
}
