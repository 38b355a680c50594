package outreach

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadscope/audit-cli/internal/model"
)

func sampleAnalysis() *model.Analysis {
	return &model.Analysis{
		ID:     "an-1",
		Status: model.AnalysisStatusCompleted,
		Result: &model.AuditResult{
			Scores: model.CategoryScores{Total: 26},
			Label:  model.LabelCritical,
			Findings: []model.Finding{
				{Title: "No HTTPS", Impact: "Browsers flag your site as not secure.", Priority: 10},
				{Title: "Not mobile friendly", Impact: "Most local searches happen on phones.", Priority: 9},
				{Title: "Missing page title", Impact: "Search engines cannot rank the page.", Priority: 8},
				{Title: "No contact form", Impact: "Visitors have no way to reach you.", Priority: 7},
				{Title: "No booking system", Impact: "Customers cannot book outside opening hours.", Priority: 6},
				{Title: "Missing alt text", Impact: "Images are invisible to search engines.", Priority: 3},
			},
			Recommendation: &model.Recommendation{
				Tier:      model.TierBasic,
				Rationale: "A focused rebuild covers everything a single-chair shop needs.",
			},
		},
	}
}

func TestCompose(t *testing.T) {
	lead := &model.Lead{
		Name:       "Sam Doe",
		WebsiteURL: "https://fadefactory.example",
	}

	email, err := Compose(lead, sampleAnalysis())
	require.NoError(t, err)

	assert.Equal(t, "Your website scored 26/100 - here's what we found", email.Subject)
	assert.True(t, strings.HasPrefix(email.Body, "Hi Sam,"), email.Body)
	assert.Contains(t, email.Body, "https://fadefactory.example")
	assert.Contains(t, email.Body, "No HTTPS")
	assert.Contains(t, email.Body, "Basic package")
	// Only the top five findings make the email.
	assert.NotContains(t, email.Body, "Missing alt text")
}

func TestCompose_NoContactName(t *testing.T) {
	lead := &model.Lead{WebsiteURL: "https://fadefactory.example"}

	email, err := Compose(lead, sampleAnalysis())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(email.Body, "Hi there,"), email.Body)
}

func TestCompose_NoResult(t *testing.T) {
	lead := &model.Lead{WebsiteURL: "https://fadefactory.example"}

	_, err := Compose(lead, &model.Analysis{Status: model.AnalysisStatusFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no result")
}
