package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadscope/audit-cli/internal/model"
	"github.com/leadscope/audit-cli/internal/pipeline"
	"github.com/leadscope/audit-cli/internal/store"
	"github.com/leadscope/audit-cli/internal/tracking"
)

type stubCollector struct {
	bundle *model.SignalBundle
}

func (s *stubCollector) Collect(ctx context.Context, rawURL string) (*model.SignalBundle, error) {
	b := *s.bundle
	return &b, nil
}

func newTestEnv(t *testing.T) *auditEnv {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	analyzer, err := pipeline.New(st, &stubCollector{bundle: &model.SignalBundle{}}, 5*time.Second)
	require.NoError(t, err)

	return &auditEnv{
		Store:    st,
		Analyzer: analyzer,
		Tracker:  tracking.NewManager(st, "http://localhost:8080"),
	}
}

func newTestServer(t *testing.T, env *auditEnv) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newRouter(context.Background(), env, "https://leadscope.example"))
	t.Cleanup(srv.Close)
	return srv
}

// seedTrackedLead creates a lead with a sent tracked email and returns both.
func seedTrackedLead(t *testing.T, env *auditEnv) (*model.Lead, *model.GeneratedEmail) {
	t.Helper()
	ctx := context.Background()

	lead, err := env.Store.CreateLead(ctx, &model.Lead{
		Email:        "owner@fadefactory.example",
		WebsiteURL:   "https://fadefactory.example",
		BusinessType: model.BusinessTypeSingleOperator,
		TotalScore:   26,
		LeadScore:    74,
		Status:       model.LeadStatusNew,
	})
	require.NoError(t, err)

	email, err := env.Tracker.CreateEmail(ctx, lead.ID, "", "subject", "body")
	require.NoError(t, err)
	require.NoError(t, env.Tracker.MarkSent(ctx, email))
	return lead, email
}

func TestServerHealth(t *testing.T) {
	srv := newTestServer(t, newTestEnv(t))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestWebhookAnalyze_AcceptsAndRuns(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)

	payload := `{"url":"https://fadefactory.example","business_type":"single_operator"}`
	resp, err := http.Post(srv.URL+"/webhook/analyze", "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		analyses, listErr := env.Store.ListAnalyses(context.Background(), store.AnalysisFilter{
			Status: model.AnalysisStatusCompleted,
		})
		return listErr == nil && len(analyses) == 1
	}, 5*time.Second, 20*time.Millisecond, "async audit should complete")
}

func TestWebhookAnalyze_RejectsBadInput(t *testing.T) {
	srv := newTestServer(t, newTestEnv(t))

	cases := []string{
		`not json`,
		`{"url":"","business_type":"single_operator"}`,
		`{"url":"https://ok.example","business_type":"franchise"}`,
	}
	for _, payload := range cases {
		resp, err := http.Post(srv.URL+"/webhook/analyze", "application/json", bytes.NewBufferString(payload))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, payload)
	}
}

func TestTrackingPixel_AlwaysServesGIF(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)

	// Unknown code still gets the pixel.
	resp, err := http.Get(srv.URL + "/t/o/deadbeefdeadbeefdeadbeefdeadbeef.gif")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/gif", resp.Header.Get("Content-Type"))
}

func TestTrackingPixel_MarksOpen(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	lead, email := seedTrackedLead(t, env)

	resp, err := http.Get(srv.URL + "/t/o/" + email.TrackingCode + ".gif")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := env.Store.GetEmailByCode(context.Background(), email.TrackingCode)
	require.NoError(t, err)
	assert.True(t, got.Opened)

	// Opens never advance the lead past contacted.
	updated, err := env.Store.GetLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusContacted, updated.Status)
}

func TestTrackingClick_PromotesAndRedirects(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	lead, email := seedTrackedLead(t, env)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	resp, err := client.Get(srv.URL + "/t/c/" + email.TrackingCode)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://leadscope.example", resp.Header.Get("Location"))

	updated, err := env.Store.GetLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusInterested, updated.Status)
}

func TestTrackingClick_RedirectTargetValidation(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	// Valid absolute target is honored.
	resp, err := client.Get(srv.URL + "/t/c/unknowncode?u=https%3A%2F%2Ffadefactory.example%2Fbook")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://fadefactory.example/book", resp.Header.Get("Location"))

	// Non-http schemes fall back to the landing page.
	resp, err = client.Get(srv.URL + "/t/c/unknowncode?u=javascript%3Aalert(1)")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://leadscope.example", resp.Header.Get("Location"))
}

func TestTrackingConvert_DrivesLeadConverted(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	lead, email := seedTrackedLead(t, env)

	resp, err := http.Post(srv.URL+"/t/v/"+email.TrackingCode, "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	updated, err := env.Store.GetLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusConverted, updated.Status)
}

func TestAPILeadConvert_SecondCallConflicts(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	lead, _ := seedTrackedLead(t, env)

	body := bytes.NewBufferString(`{"ref":"deal-42"}`)
	resp, err := http.Post(srv.URL+"/api/leads/"+lead.ID+"/convert", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/leads/"+lead.ID+"/convert", "application/json", bytes.NewBufferString(`{"ref":"deal-43"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	updated, getErr := env.Store.GetLead(context.Background(), lead.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "deal-42", updated.ConversionRef, "first conversion reference wins")
}

func TestAPILeadReject(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	lead, _ := seedTrackedLead(t, env)

	resp, err := http.Post(srv.URL+"/api/leads/"+lead.ID+"/reject", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	updated, err := env.Store.GetLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusRejected, updated.Status)
}

func TestAPILeadsList_FiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	seedTrackedLead(t, env) // contacted after MarkSent

	resp, err := http.Get(srv.URL + "/api/leads?status=contacted")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var leads []model.Lead
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&leads))
	require.Len(t, leads, 1)
	assert.Equal(t, "owner@fadefactory.example", leads[0].Email)
}

func TestAPICampaignLifecycle(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)

	resp, err := http.Post(srv.URL+"/api/campaigns", "application/json", bytes.NewBufferString(`{"name":"spring-barbers"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var campaign model.Campaign
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&campaign))
	resp.Body.Close()
	assert.Equal(t, model.CampaignStatusDraft, campaign.Status)

	resp, err = http.Get(srv.URL + "/api/campaigns/" + campaign.ID + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats model.CampaignStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Zero(t, stats.Sent)
}

func TestAPISummary(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)

	_, err := env.Store.CreateLead(context.Background(), &model.Lead{
		Email:        "new@bare.example",
		WebsiteURL:   "https://bare.example",
		BusinessType: model.BusinessTypeSingleOperator,
		TotalScore:   20,
		LeadScore:    80,
		Status:       model.LeadStatusNew,
	})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary model.DashboardSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 1, summary.PendingTotal)
	assert.Equal(t, 1, summary.PendingCritical)
}
