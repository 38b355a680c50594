package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/leadscope/audit-cli/internal/db"
	"github.com/leadscope/audit-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot tracking and lead paths.
var preparedStatements = map[string]string{
	"get_email_by_code":  `SELECT id, lead_id, campaign_id, subject, body, tracking_code, sent, sent_at, opened, opened_at, clicked, clicked_at, created_at FROM generated_emails WHERE tracking_code = $1`,
	"mark_email_opened":  `UPDATE generated_emails SET opened = TRUE, opened_at = COALESCE(opened_at, $1) WHERE tracking_code = $2`,
	"mark_email_clicked": `UPDATE generated_emails SET clicked = TRUE, clicked_at = COALESCE(clicked_at, $1) WHERE tracking_code = $2`,
	"insert_event":       `INSERT INTO tracking_events (id, tracking_code, type, user_agent, remote_addr, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_analysis":       `SELECT id, request, status, result, error, created_at, updated_at FROM analyses WHERE id = $1`,
	"transition_lead":    `UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3 AND status = ANY($4)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests and by the lead
// importer, which needs COPY access alongside store operations.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need direct
// query access (e.g., bulk lead import).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	request    JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	result     JSONB,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	contact_email    TEXT NOT NULL UNIQUE,
	contact_name     TEXT,
	website_url      TEXT NOT NULL,
	business_type    TEXT NOT NULL,
	analysis_id      TEXT REFERENCES analyses(id),
	total_score      INTEGER NOT NULL DEFAULT 0,
	lead_score       INTEGER NOT NULL DEFAULT 0,
	status           TEXT NOT NULL DEFAULT 'new',
	campaign_id      TEXT,
	email_sent_at    TIMESTAMPTZ,
	email_opened_at  TIMESTAMPTZ,
	email_clicked_at TIMESTAMPTZ,
	conversion_ref   TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaigns (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'draft',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS generated_emails (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id       TEXT NOT NULL REFERENCES leads(id),
	campaign_id   TEXT REFERENCES campaigns(id),
	subject       TEXT NOT NULL,
	body          TEXT NOT NULL,
	tracking_code TEXT NOT NULL UNIQUE,
	sent          BOOLEAN NOT NULL DEFAULT FALSE,
	sent_at       TIMESTAMPTZ,
	opened        BOOLEAN NOT NULL DEFAULT FALSE,
	opened_at     TIMESTAMPTZ,
	clicked       BOOLEAN NOT NULL DEFAULT FALSE,
	clicked_at    TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tracking_events (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	tracking_code TEXT NOT NULL,
	type          TEXT NOT NULL,
	user_agent    TEXT,
	remote_addr   TEXT,
	occurred_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(status);
CREATE INDEX IF NOT EXISTS idx_analyses_url ON analyses((request->>'url'));
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_campaign ON leads(campaign_id);
CREATE INDEX IF NOT EXISTS idx_emails_tracking_code ON generated_emails(tracking_code);
CREATE INDEX IF NOT EXISTS idx_emails_campaign ON generated_emails(campaign_id);
CREATE INDEX IF NOT EXISTS idx_events_tracking_code ON tracking_events(tracking_code);
CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON tracking_events(occurred_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateAnalysis(ctx context.Context, req model.AuditRequest) (*model.Analysis, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal request")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analyses (id, request, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, reqJSON, string(model.AnalysisStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert analysis")
	}

	return &model.Analysis{
		ID:        id,
		Request:   req,
		Status:    model.AnalysisStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) StartAnalysis(ctx context.Context, analysisID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET status = $1, updated_at = $2 WHERE id = $3`,
		string(model.AnalysisStatusRunning), time.Now().UTC(), analysisID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: start analysis %s", analysisID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("analysis not found: %s", analysisID)
	}
	return nil
}

func (s *PostgresStore) CompleteAnalysis(ctx context.Context, analysisID string, result *model.AuditResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.AnalysisStatusCompleted), time.Now().UTC(), analysisID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete analysis %s", analysisID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("analysis not found: %s", analysisID)
	}
	return nil
}

func (s *PostgresStore) FailAnalysis(ctx context.Context, analysisID string, cause string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.AnalysisStatusFailed), cause, time.Now().UTC(), analysisID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail analysis %s", analysisID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("analysis not found: %s", analysisID)
	}
	return nil
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, analysisID string) (*model.Analysis, error) {
	var a model.Analysis
	var reqJSON []byte
	var resultNull *[]byte
	var errNull *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, request, status, result, error, created_at, updated_at FROM analyses WHERE id = $1`,
		analysisID,
	).Scan(&a.ID, &reqJSON, &a.Status, &resultNull, &errNull, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get analysis %s", analysisID)
	}

	if err := json.Unmarshal(reqJSON, &a.Request); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal request")
	}
	if resultNull != nil {
		a.Result = &model.AuditResult{}
		if err := json.Unmarshal(*resultNull, a.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	if errNull != nil {
		a.Error = *errNull
	}
	return &a, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error) {
	query := `SELECT id, request, status, result, error, created_at, updated_at FROM analyses WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.URL != "" {
		query += fmt.Sprintf(` AND request->>'url' = $%d`, argIdx)
		args = append(args, filter.URL)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		var a model.Analysis
		var reqJSON []byte
		var resultNull *[]byte
		var errNull *string

		if err := rows.Scan(&a.ID, &reqJSON, &a.Status, &resultNull, &errNull, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		if err := json.Unmarshal(reqJSON, &a.Request); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal request")
		}
		if resultNull != nil {
			a.Result = &model.AuditResult{}
			if err := json.Unmarshal(*resultNull, a.Result); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal result")
			}
		}
		if errNull != nil {
			a.Error = *errNull
		}
		analyses = append(analyses, a)
	}
	return analyses, eris.Wrap(rows.Err(), "postgres: list analyses iterate")
}

const leadColumns = `id, contact_email, contact_name, website_url, business_type, analysis_id,
	total_score, lead_score, status, campaign_id,
	email_sent_at, email_opened_at, email_clicked_at, conversion_ref,
	created_at, updated_at`

func (s *PostgresStore) CreateLead(ctx context.Context, lead *model.Lead) (*model.Lead, error) {
	created := *lead
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	if created.Status == "" {
		created.Status = model.LeadStatusNew
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	// RETURNING yields the stored row; on conflict that keeps the existing
	// id rather than the freshly minted one.
	row := s.pool.QueryRow(ctx,
		`INSERT INTO leads
		 (id, contact_email, contact_name, website_url, business_type, analysis_id,
		  total_score, lead_score, status, campaign_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (contact_email) DO UPDATE SET
		   website_url = $4, business_type = $5, analysis_id = $6,
		   total_score = $7, lead_score = $8, updated_at = $12
		 RETURNING `+leadColumns,
		created.ID, created.Email, nullString(created.Name), created.WebsiteURL,
		string(created.BusinessType), nullString(created.AnalysisID),
		created.TotalScore, created.LeadScore, string(created.Status),
		nullString(created.CampaignID), now, now,
	)
	stored, err := scanLead(row)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert lead")
	}
	return stored, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, leadID string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, leadID)
	lead, err := scanLead(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", leadID)
	}
	return lead, nil
}

func (s *PostgresStore) GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE contact_email = $1`, email)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get lead by email")
	}
	return lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.CampaignID != "" {
		query += fmt.Sprintf(` AND campaign_id = $%d`, argIdx)
		args = append(args, filter.CampaignID)
		argIdx++
	}
	if filter.MinScore > 0 {
		query += fmt.Sprintf(` AND lead_score >= $%d`, argIdx)
		args = append(args, filter.MinScore)
		argIdx++
	}
	query += ` ORDER BY lead_score DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) TransitionLead(ctx context.Context, leadID string, to model.LeadStatus, sources []model.LeadStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3 AND status = ANY($4)`,
		string(to), time.Now().UTC(), leadID, statusStrings(sources),
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: transition lead %s to %s", leadID, to)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ConvertLead(ctx context.Context, leadID string, conversionRef string, sources []model.LeadStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1, conversion_ref = $2, updated_at = $3 WHERE id = $4 AND status = ANY($5)`,
		string(model.LeadStatusConverted), conversionRef, time.Now().UTC(), leadID, statusStrings(sources),
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: convert lead %s", leadID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) MarkLeadEmailSent(ctx context.Context, leadID string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE leads SET email_sent_at = COALESCE(email_sent_at, $1), updated_at = $2 WHERE id = $3`,
		at.UTC(), time.Now().UTC(), leadID,
	)
	return eris.Wrapf(err, "postgres: mark lead emailed %s", leadID)
}

func (s *PostgresStore) MarkLeadOpened(ctx context.Context, leadID string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE leads SET email_opened_at = COALESCE(email_opened_at, $1), updated_at = $2 WHERE id = $3`,
		at.UTC(), time.Now().UTC(), leadID,
	)
	return eris.Wrapf(err, "postgres: mark lead opened %s", leadID)
}

func (s *PostgresStore) MarkLeadClicked(ctx context.Context, leadID string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE leads SET email_clicked_at = COALESCE(email_clicked_at, $1), updated_at = $2 WHERE id = $3`,
		at.UTC(), time.Now().UTC(), leadID,
	)
	return eris.Wrapf(err, "postgres: mark lead clicked %s", leadID)
}

func (s *PostgresStore) CreateCampaign(ctx context.Context, name string) (*model.Campaign, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO campaigns (id, name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, name, string(model.CampaignStatusDraft), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert campaign")
	}

	return &model.Campaign{
		ID:        id,
		Name:      name,
		Status:    model.CampaignStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) GetCampaign(ctx context.Context, campaignID string) (*model.Campaign, error) {
	var c model.Campaign
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, status, created_at, updated_at FROM campaigns WHERE id = $1`,
		campaignID,
	).Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get campaign %s", campaignID)
	}
	return &c, nil
}

func (s *PostgresStore) ListCampaigns(ctx context.Context) ([]model.Campaign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, status, created_at, updated_at FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list campaigns")
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		var c model.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan campaign")
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, eris.Wrap(rows.Err(), "postgres: list campaigns iterate")
}

func (s *PostgresStore) UpdateCampaignStatus(ctx context.Context, campaignID string, status model.CampaignStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE campaigns SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), campaignID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update campaign status %s", campaignID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("campaign not found: %s", campaignID)
	}
	return nil
}

func (s *PostgresStore) GetCampaignStats(ctx context.Context, campaignID string) (*model.CampaignStats, error) {
	stats := model.CampaignStats{CampaignID: campaignID}
	err := s.pool.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE e.sent),
		   COUNT(*) FILTER (WHERE e.opened),
		   COUNT(*) FILTER (WHERE e.clicked),
		   COUNT(*) FILTER (WHERE l.status = 'converted')
		 FROM generated_emails e
		 LEFT JOIN leads l ON l.id = e.lead_id
		 WHERE e.campaign_id = $1`,
		campaignID,
	).Scan(&stats.Sent, &stats.Opened, &stats.Clicked, &stats.Converted)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: campaign stats %s", campaignID)
	}
	return &stats, nil
}

func (s *PostgresStore) CreateEmail(ctx context.Context, email *model.GeneratedEmail) (*model.GeneratedEmail, error) {
	created := *email
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	created.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO generated_emails
		 (id, lead_id, campaign_id, subject, body, tracking_code, sent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		created.ID, created.LeadID, nullString(created.CampaignID),
		created.Subject, created.Body, created.TrackingCode, created.Sent, created.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert email")
	}
	return &created, nil
}

func (s *PostgresStore) GetEmailByCode(ctx context.Context, trackingCode string) (*model.GeneratedEmail, error) {
	var e model.GeneratedEmail
	var campaign *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, lead_id, campaign_id, subject, body, tracking_code,
		        sent, sent_at, opened, opened_at, clicked, clicked_at, created_at
		 FROM generated_emails WHERE tracking_code = $1`,
		trackingCode,
	).Scan(&e.ID, &e.LeadID, &campaign, &e.Subject, &e.Body, &e.TrackingCode,
		&e.Sent, &e.SentAt, &e.Opened, &e.OpenedAt, &e.Clicked, &e.ClickedAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get email by code")
	}
	if campaign != nil {
		e.CampaignID = *campaign
	}
	return &e, nil
}

func (s *PostgresStore) MarkEmailSent(ctx context.Context, emailID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE generated_emails SET sent = TRUE, sent_at = COALESCE(sent_at, $1) WHERE id = $2`,
		at.UTC(), emailID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark email sent %s", emailID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("email not found: %s", emailID)
	}
	return nil
}

func (s *PostgresStore) MarkEmailOpened(ctx context.Context, trackingCode string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE generated_emails SET opened = TRUE, opened_at = COALESCE(opened_at, $1) WHERE tracking_code = $2`,
		at.UTC(), trackingCode,
	)
	return eris.Wrap(err, "postgres: mark email opened")
}

func (s *PostgresStore) MarkEmailClicked(ctx context.Context, trackingCode string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE generated_emails SET clicked = TRUE, clicked_at = COALESCE(clicked_at, $1) WHERE tracking_code = $2`,
		at.UTC(), trackingCode,
	)
	return eris.Wrap(err, "postgres: mark email clicked")
}

func (s *PostgresStore) InsertTrackingEvent(ctx context.Context, event *model.TrackingEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tracking_events (id, tracking_code, type, user_agent, remote_addr, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.TrackingCode, string(event.Type),
		nullString(event.UserAgent), nullString(event.RemoteAddr), event.OccurredAt,
	)
	return eris.Wrap(err, "postgres: insert tracking event")
}

func (s *PostgresStore) ListTrackingEvents(ctx context.Context, trackingCode string) ([]model.TrackingEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tracking_code, type, user_agent, remote_addr, occurred_at
		 FROM tracking_events WHERE tracking_code = $1 ORDER BY occurred_at`,
		trackingCode,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tracking events")
	}
	defer rows.Close()

	var events []model.TrackingEvent
	for rows.Next() {
		var e model.TrackingEvent
		var ua, addr *string
		if err := rows.Scan(&e.ID, &e.TrackingCode, &e.Type, &ua, &addr, &e.OccurredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tracking event")
		}
		if ua != nil {
			e.UserAgent = *ua
		}
		if addr != nil {
			e.RemoteAddr = *addr
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "postgres: list tracking events iterate")
}

func (s *PostgresStore) GetDashboardSummary(ctx context.Context, recentLimit int) (*model.DashboardSummary, error) {
	var summary model.DashboardSummary

	// Bucket new leads by their audit total. The label derivation lives in
	// model.LabelForTotal, so fetch scores and bucket here rather than
	// duplicating the band boundaries in SQL.
	rows, err := s.pool.Query(ctx, `SELECT total_score FROM leads WHERE status = 'new'`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: dashboard pending leads")
	}
	defer rows.Close()

	for rows.Next() {
		var total int
		if err := rows.Scan(&total); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pending lead")
		}
		summary.PendingTotal++
		switch model.LabelForTotal(total) {
		case model.LabelCritical:
			summary.PendingCritical++
		case model.LabelPoor:
			summary.PendingHigh++
		case model.LabelAverage:
			summary.PendingMedium++
		default:
			summary.PendingLow++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: dashboard pending iterate")
	}

	if recentLimit <= 0 {
		recentLimit = 10
	}
	recent, err := s.ListAnalyses(ctx, AnalysisFilter{Limit: recentLimit})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: dashboard recent analyses")
	}
	summary.RecentAnalyses = recent

	return &summary, nil
}

// scanLead reads a lead row in leadColumns order.
func scanLead(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	var name, analysisID, campaignID, conversionRef *string

	err := row.Scan(&l.ID, &l.Email, &name, &l.WebsiteURL, &l.BusinessType, &analysisID,
		&l.TotalScore, &l.LeadScore, &l.Status, &campaignID,
		&l.EmailSentAt, &l.EmailOpenedAt, &l.EmailClickedAt, &conversionRef,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if name != nil {
		l.Name = *name
	}
	if analysisID != nil {
		l.AnalysisID = *analysisID
	}
	if campaignID != nil {
		l.CampaignID = *campaignID
	}
	if conversionRef != nil {
		l.ConversionRef = *conversionRef
	}
	return &l, nil
}

func statusStrings(statuses []model.LeadStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
