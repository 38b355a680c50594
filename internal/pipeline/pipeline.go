// Package pipeline orchestrates one audit run: collect signals for the
// requested URL, score them, derive findings and a package recommendation,
// persist the result, and upsert a lead when the request carries a contact.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadscope/audit-cli/internal/collector"
	"github.com/leadscope/audit-cli/internal/model"
	"github.com/leadscope/audit-cli/internal/recommend"
	"github.com/leadscope/audit-cli/internal/scoring"
	"github.com/leadscope/audit-cli/internal/store"
)

// Analyzer runs audits end to end.
type Analyzer struct {
	store     store.Store
	collector collector.Collector
	timeout   time.Duration
}

// New creates an Analyzer. The recommendation chain is validated here so a
// malformed chain fails at startup rather than on the first matching lead.
func New(st store.Store, col collector.Collector, collectTimeout time.Duration) (*Analyzer, error) {
	if err := recommend.Validate(recommend.Chain); err != nil {
		return nil, eris.Wrap(err, "pipeline: recommendation chain")
	}
	if collectTimeout <= 0 {
		collectTimeout = 30 * time.Second
	}
	return &Analyzer{store: st, collector: col, timeout: collectTimeout}, nil
}

// Run executes a full audit for one request. The analysis record moves
// pending -> running -> completed, or to failed with the cause recorded;
// it never ends in a partial state. The returned Analysis carries the
// result on success.
func (a *Analyzer) Run(ctx context.Context, req model.AuditRequest) (*model.Analysis, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("url", req.URL))
	log.Info("pipeline: starting audit")

	analysis, err := a.store.CreateAnalysis(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create analysis")
	}
	if err := a.store.StartAnalysis(ctx, analysis.ID); err != nil {
		return nil, eris.Wrap(err, "pipeline: start analysis")
	}

	start := time.Now()

	collectCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	bundle, err := a.collector.Collect(collectCtx, req.URL)
	if err != nil {
		a.fail(ctx, analysis.ID, err)
		return nil, eris.Wrapf(err, "pipeline: collect %s", req.URL)
	}

	scores := scoring.Score(bundle)
	result := &model.AuditResult{
		Signals:  *bundle,
		Scores:   scores,
		Label:    model.LabelForTotal(scores.Total),
		Findings: scoring.Findings(bundle),
		Recommendation: recommend.Recommend(recommend.Input{
			TotalScore:       scores.Total,
			BusinessType:     req.BusinessType,
			HasBookingSystem: bundle.HasBookingSystem,
			Operators:        req.EstimatedOperators,
		}),
		DurationMS: time.Since(start).Milliseconds(),
	}

	if err := a.store.CompleteAnalysis(ctx, analysis.ID, result); err != nil {
		return nil, eris.Wrap(err, "pipeline: complete analysis")
	}
	analysis.Status = model.AnalysisStatusCompleted
	analysis.Result = result

	log.Info("pipeline: audit complete",
		zap.String("analysis_id", analysis.ID),
		zap.Int("total_score", scores.Total),
		zap.String("label", string(result.Label)),
		zap.Int("findings", len(result.Findings)),
		zap.Int64("duration_ms", result.DurationMS),
	)

	if req.ContactEmail != "" {
		if _, err := a.upsertLead(ctx, analysis.ID, req, result); err != nil {
			// The audit itself succeeded; surface the lead failure without
			// discarding the result.
			log.Error("pipeline: lead upsert failed", zap.Error(err))
			return analysis, err
		}
	}

	return analysis, nil
}

// fail records the failure cause. A failed status write is only logged; the
// original error is what the caller needs to see.
func (a *Analyzer) fail(ctx context.Context, analysisID string, cause error) {
	if err := a.store.FailAnalysis(ctx, analysisID, cause.Error()); err != nil {
		zap.L().Warn("pipeline: failed to record analysis failure",
			zap.String("analysis_id", analysisID), zap.Error(err))
	}
}

// upsertLead creates or refreshes the lead for the request's contact. The
// sales-priority score is the inverse of the audit total: the worse the
// site, the hotter the lead.
func (a *Analyzer) upsertLead(ctx context.Context, analysisID string, req model.AuditRequest, result *model.AuditResult) (*model.Lead, error) {
	lead := &model.Lead{
		Email:        req.ContactEmail,
		Name:         req.ContactName,
		WebsiteURL:   req.URL,
		BusinessType: req.BusinessType,
		AnalysisID:   analysisID,
		TotalScore:   result.Scores.Total,
		LeadScore:    100 - result.Scores.Total,
		Status:       model.LeadStatusNew,
		CampaignID:   req.CampaignID,
	}
	saved, err := a.store.CreateLead(ctx, lead)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: upsert lead %s", req.ContactEmail)
	}
	zap.L().Info("pipeline: lead upserted",
		zap.String("lead_id", saved.ID),
		zap.String("email", saved.Email),
		zap.Int("lead_score", saved.LeadScore),
	)
	return saved, nil
}
