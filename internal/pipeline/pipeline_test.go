package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadscope/audit-cli/internal/model"
	"github.com/leadscope/audit-cli/internal/store"
)

// stubCollector returns a canned bundle or error and counts invocations.
type stubCollector struct {
	mu     sync.Mutex
	bundle *model.SignalBundle
	err    error
	calls  int
}

func (s *stubCollector) Collect(ctx context.Context, rawURL string) (*model.SignalBundle, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	b := *s.bundle
	return &b, nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestAnalyzer(t *testing.T, st store.Store, col *stubCollector) *Analyzer {
	t.Helper()
	a, err := New(st, col, 5*time.Second)
	require.NoError(t, err)
	return a
}

// healthyBundle exercises most positive signals.
func healthyBundle() *model.SignalBundle {
	lt := 1.2
	alt := 0.9
	return &model.SignalBundle{
		LoadTimeSeconds:     &lt,
		UsesCompression:     true,
		UsesCaching:         true,
		HasViewportMeta:     true,
		MobileFriendly:      true,
		HasResponsiveImages: true,
		HTTPS:               true,
		ValidCertificate:    true,
		HasHSTS:             true,
		HasTitle:            true,
		TitleLength:         45,
		HasMetaDescription:  true,
		H1Count:             1,
		HasSitemap:          true,
		HasRobotsTxt:        true,
		ImageAltCoverage:    &alt,
		HasStructuredData:   true,
		HasFAQSection:       true,
		MentionsLocation:    true,
		MentionsPricing:     true,
		HasOpeningHours:     true,
		HasContactForm:      true,
		HasPhoneNumber:      true,
		HasEmailAddress:     true,
		HasSocialLinks:      true,
	}
}

func TestRun_CompletesAndStoresResult(t *testing.T) {
	st := newTestStore(t)
	col := &stubCollector{bundle: healthyBundle()}
	a := newTestAnalyzer(t, st, col)

	analysis, err := a.Run(context.Background(), model.AuditRequest{
		URL:          "https://fadefactory.example",
		BusinessType: model.BusinessTypeSingleOperator,
	})
	require.NoError(t, err)
	require.NotNil(t, analysis.Result)
	assert.Equal(t, model.AnalysisStatusCompleted, analysis.Status)

	stored, err := st.GetAnalysis(context.Background(), analysis.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Result)
	assert.Equal(t, model.AnalysisStatusCompleted, stored.Status)
	assert.Equal(t, analysis.Result.Scores.Total, stored.Result.Scores.Total)
	assert.Equal(t, model.LabelForTotal(stored.Result.Scores.Total), stored.Result.Label)
	require.NotNil(t, stored.Result.Recommendation)
	assert.NotEmpty(t, stored.Result.Recommendation.Rule)
	assert.Equal(t, 1, col.calls)
}

func TestRun_EmptySignalsYieldCriticalWithFindings(t *testing.T) {
	st := newTestStore(t)
	col := &stubCollector{bundle: &model.SignalBundle{}}
	a := newTestAnalyzer(t, st, col)

	analysis, err := a.Run(context.Background(), model.AuditRequest{
		URL:          "https://bare.example",
		BusinessType: model.BusinessTypeSingleOperator,
	})
	require.NoError(t, err)
	require.NotNil(t, analysis.Result)

	assert.Equal(t, model.LabelCritical, analysis.Result.Label)
	assert.NotEmpty(t, analysis.Result.Findings, "missing signals must surface findings")
}

func TestRun_CreatesLeadWithInverseScore(t *testing.T) {
	st := newTestStore(t)
	col := &stubCollector{bundle: &model.SignalBundle{}}
	a := newTestAnalyzer(t, st, col)

	analysis, err := a.Run(context.Background(), model.AuditRequest{
		URL:          "https://bare.example",
		BusinessType: model.BusinessTypeSingleOperator,
		ContactEmail: "owner@bare.example",
		ContactName:  "Sam Doe",
	})
	require.NoError(t, err)

	lead, err := st.GetLeadByEmail(context.Background(), "owner@bare.example")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, analysis.ID, lead.AnalysisID)
	assert.Equal(t, analysis.Result.Scores.Total, lead.TotalScore)
	assert.Equal(t, 100-analysis.Result.Scores.Total, lead.LeadScore)
	assert.Equal(t, model.LeadStatusNew, lead.Status)
}

func TestRun_RerunRefreshesExistingLead(t *testing.T) {
	st := newTestStore(t)
	col := &stubCollector{bundle: &model.SignalBundle{}}
	a := newTestAnalyzer(t, st, col)

	req := model.AuditRequest{
		URL:          "https://bare.example",
		BusinessType: model.BusinessTypeSingleOperator,
		ContactEmail: "owner@bare.example",
	}
	first, err := a.Run(context.Background(), req)
	require.NoError(t, err)

	col.bundle = healthyBundle()
	second, err := a.Run(context.Background(), req)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	lead, err := st.GetLeadByEmail(context.Background(), "owner@bare.example")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, second.ID, lead.AnalysisID, "re-run points the lead at the newer analysis")
	assert.Equal(t, second.Result.Scores.Total, lead.TotalScore)
}

func TestRun_CollectorFailureMarksFailed(t *testing.T) {
	st := newTestStore(t)
	col := &stubCollector{err: eris.New("connection refused")}
	a := newTestAnalyzer(t, st, col)

	_, err := a.Run(context.Background(), model.AuditRequest{
		URL:          "https://unreachable.example",
		BusinessType: model.BusinessTypeSingleOperator,
	})
	require.Error(t, err)

	analyses, listErr := st.ListAnalyses(context.Background(), store.AnalysisFilter{})
	require.NoError(t, listErr)
	require.Len(t, analyses, 1)
	assert.Equal(t, model.AnalysisStatusFailed, analyses[0].Status)
	assert.Contains(t, analyses[0].Error, "connection refused")
	assert.Nil(t, analyses[0].Result)
}

func TestRun_InvalidRequestLeavesNoTrace(t *testing.T) {
	st := newTestStore(t)
	col := &stubCollector{bundle: &model.SignalBundle{}}
	a := newTestAnalyzer(t, st, col)

	cases := []model.AuditRequest{
		{URL: "", BusinessType: model.BusinessTypeAgency},
		{URL: "https://ok.example", BusinessType: "franchise"},
		{URL: "https://ok.example", BusinessType: model.BusinessTypeAgency, ContactEmail: "not-an-email"},
		{URL: "https://ok.example", BusinessType: model.BusinessTypeAgency, EstimatedOperators: -1},
	}
	for _, req := range cases {
		_, err := a.Run(context.Background(), req)
		assert.Error(t, err)
	}

	analyses, err := st.ListAnalyses(context.Background(), store.AnalysisFilter{})
	require.NoError(t, err)
	assert.Empty(t, analyses)
	assert.Equal(t, 0, col.calls)
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     model.AuditRequest
		wantErr string
	}{
		{
			name: "valid minimal",
			req:  model.AuditRequest{URL: "fadefactory.example", BusinessType: model.BusinessTypeSingleOperator},
		},
		{
			name: "valid with contact",
			req: model.AuditRequest{
				URL:          "https://fadefactory.example",
				BusinessType: model.BusinessTypeMultiOperator,
				ContactEmail: "owner@fadefactory.example",
			},
		},
		{
			name:    "blank url",
			req:     model.AuditRequest{URL: "   ", BusinessType: model.BusinessTypeAgency},
			wantErr: "url is required",
		},
		{
			name:    "no host",
			req:     model.AuditRequest{URL: "https://", BusinessType: model.BusinessTypeAgency},
			wantErr: "invalid url",
		},
		{
			name:    "unknown business type",
			req:     model.AuditRequest{URL: "https://ok.example", BusinessType: "co-op"},
			wantErr: "unknown business type",
		},
		{
			name: "bad email",
			req: model.AuditRequest{
				URL:          "https://ok.example",
				BusinessType: model.BusinessTypeAgency,
				ContactEmail: "owner at example",
			},
			wantErr: "invalid contact email",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunBatch_PreservesOrderAndIsolatesFailures(t *testing.T) {
	st := newTestStore(t)
	col := &stubCollector{bundle: &model.SignalBundle{}}
	a := newTestAnalyzer(t, st, col)

	reqs := []model.AuditRequest{
		{URL: "https://one.example", BusinessType: model.BusinessTypeSingleOperator},
		{URL: "", BusinessType: model.BusinessTypeSingleOperator}, // invalid
		{URL: "https://three.example", BusinessType: model.BusinessTypeAgency},
		{URL: "https://four.example", BusinessType: model.BusinessTypeMultiOperator},
	}

	outcomes := a.RunBatch(context.Background(), reqs, 2)
	require.Len(t, outcomes, 4)

	assert.NoError(t, outcomes[0].Err)
	assert.Error(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err)
	assert.NoError(t, outcomes[3].Err)

	for i, out := range outcomes {
		assert.Equal(t, reqs[i].URL, out.Request.URL)
	}

	analyses, err := st.ListAnalyses(context.Background(), store.AnalysisFilter{})
	require.NoError(t, err)
	assert.Len(t, analyses, 3)
}

func TestRunBatch_ZeroConcurrencyClampsToOne(t *testing.T) {
	st := newTestStore(t)
	col := &stubCollector{bundle: &model.SignalBundle{}}
	a := newTestAnalyzer(t, st, col)

	outcomes := a.RunBatch(context.Background(), []model.AuditRequest{
		{URL: "https://solo.example", BusinessType: model.BusinessTypeSingleOperator},
	}, 0)
	require.Len(t, outcomes, 1)
	assert.NoError(t, outcomes[0].Err)
}
