package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadscope/audit-cli/internal/model"
)

func TestValidate_ChainHasCatchAll(t *testing.T) {
	require.NoError(t, Validate(Chain))
}

func TestValidate_RejectsChainWithoutCatchAll(t *testing.T) {
	chain := []Rule{
		{
			Name:    "score-gate",
			Matches: func(in Input) bool { return in.TotalScore >= 40 },
			Tier:    model.TierPremium,
		},
	}
	err := Validate(chain)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catch-all")
}

func TestValidate_RejectsEmptyChain(t *testing.T) {
	require.Error(t, Validate(nil))
}

func TestValidate_RejectsNilPredicateWithoutPanicking(t *testing.T) {
	chain := []Rule{
		{
			Name:    "score-gate",
			Matches: func(in Input) bool { return in.TotalScore >= 40 },
			Tier:    model.TierPremium,
		},
		{
			Name: "default",
			Tier: model.TierBasic,
		},
	}
	// The nil predicate sits in last position; it must be reported as a
	// configuration error, not invoked by the catch-all check.
	err := Validate(chain)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no predicate")
}

func TestRecommend_RuleOrder(t *testing.T) {
	tests := []struct {
		name     string
		in       Input
		wantTier model.PackageTier
		wantRule string
	}{
		{
			name:     "operator count dominates everything",
			in:       Input{TotalScore: 95, BusinessType: model.BusinessTypeSingleOperator, Operators: 10},
			wantTier: model.TierEnterprise,
			wantRule: "large-operator-count",
		},
		{
			name:     "agency with booking is enterprise",
			in:       Input{TotalScore: 12, BusinessType: model.BusinessTypeAgency, HasBookingSystem: true},
			wantTier: model.TierEnterprise,
			wantRule: "agency-with-booking",
		},
		{
			name:     "agency without booking is premium at any score",
			in:       Input{TotalScore: 3, BusinessType: model.BusinessTypeAgency},
			wantTier: model.TierPremium,
			wantRule: "agency",
		},
		{
			name:     "multi operator is premium",
			in:       Input{TotalScore: 55, BusinessType: model.BusinessTypeMultiOperator},
			wantTier: model.TierPremium,
			wantRule: "multi-operator",
		},
		{
			name:     "booking special case fires before the basic rule",
			in:       Input{TotalScore: 45, BusinessType: model.BusinessTypeSingleOperator, HasBookingSystem: true},
			wantTier: model.TierPremium,
			wantRule: "established-with-booking",
		},
		{
			name:     "weak single operator without booking gets basic",
			in:       Input{TotalScore: 25, BusinessType: model.BusinessTypeSingleOperator},
			wantTier: model.TierBasic,
			wantRule: "single-operator-weak-site",
		},
		{
			name:     "strong single operator falls to the default",
			in:       Input{TotalScore: 72, BusinessType: model.BusinessTypeSingleOperator},
			wantTier: model.TierPremium,
			wantRule: "default",
		},
		{
			name:     "low-score booking below 40 still reaches basic",
			in:       Input{TotalScore: 38, BusinessType: model.BusinessTypeSingleOperator, HasBookingSystem: true},
			wantTier: model.TierBasic,
			wantRule: "single-operator-weak-site",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommend(tt.in)
			require.NotNil(t, rec)
			assert.Equal(t, tt.wantTier, rec.Tier)
			assert.Equal(t, tt.wantRule, rec.Rule)
			assert.NotEmpty(t, rec.Rationale)
			assert.Greater(t, rec.Confidence, 0.0)
		})
	}
}

// The non-monotonic pair from the scoring contract: 45 points with booking
// outranks 45 points without, even though the site is "better" in neither.
func TestRecommend_NonMonotonicBookingCase(t *testing.T) {
	withBooking := Recommend(Input{TotalScore: 45, BusinessType: model.BusinessTypeSingleOperator, HasBookingSystem: true})
	withoutBooking := Recommend(Input{TotalScore: 45, BusinessType: model.BusinessTypeSingleOperator})

	assert.Equal(t, model.TierPremium, withBooking.Tier)
	assert.Equal(t, model.TierBasic, withoutBooking.Tier)
}

func TestRecommend_ReferenceCase(t *testing.T) {
	// Total 26, single operator, no booking system: basic.
	rec := Recommend(Input{TotalScore: 26, BusinessType: model.BusinessTypeSingleOperator})
	require.NotNil(t, rec)
	assert.Equal(t, model.TierBasic, rec.Tier)
}
