package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/leadscope/audit-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It exists for
// local development and single-operator installs; the conditional updates
// carry the same guard semantics as the Postgres store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	request    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	result     TEXT,
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS leads (
	id               TEXT PRIMARY KEY,
	contact_email    TEXT NOT NULL UNIQUE,
	contact_name     TEXT,
	website_url      TEXT NOT NULL,
	business_type    TEXT NOT NULL,
	analysis_id      TEXT REFERENCES analyses(id),
	total_score      INTEGER NOT NULL DEFAULT 0,
	lead_score       INTEGER NOT NULL DEFAULT 0,
	status           TEXT NOT NULL DEFAULT 'new',
	campaign_id      TEXT,
	email_sent_at    DATETIME,
	email_opened_at  DATETIME,
	email_clicked_at DATETIME,
	conversion_ref   TEXT,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS campaigns (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'draft',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS generated_emails (
	id            TEXT PRIMARY KEY,
	lead_id       TEXT NOT NULL REFERENCES leads(id),
	campaign_id   TEXT REFERENCES campaigns(id),
	subject       TEXT NOT NULL,
	body          TEXT NOT NULL,
	tracking_code TEXT NOT NULL UNIQUE,
	sent          INTEGER NOT NULL DEFAULT 0,
	sent_at       DATETIME,
	opened        INTEGER NOT NULL DEFAULT 0,
	opened_at     DATETIME,
	clicked       INTEGER NOT NULL DEFAULT 0,
	clicked_at    DATETIME,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tracking_events (
	id            TEXT PRIMARY KEY,
	tracking_code TEXT NOT NULL,
	type          TEXT NOT NULL,
	user_agent    TEXT,
	remote_addr   TEXT,
	occurred_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(status);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_campaign ON leads(campaign_id);
CREATE INDEX IF NOT EXISTS idx_emails_tracking_code ON generated_emails(tracking_code);
CREATE INDEX IF NOT EXISTS idx_events_tracking_code ON tracking_events(tracking_code);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateAnalysis(ctx context.Context, req model.AuditRequest) (*model.Analysis, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal request")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, request, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(reqJSON), string(model.AnalysisStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert analysis")
	}

	return &model.Analysis{
		ID:        id,
		Request:   req,
		Status:    model.AnalysisStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) StartAnalysis(ctx context.Context, analysisID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status = ?, updated_at = ? WHERE id = ?`,
		string(model.AnalysisStatusRunning), time.Now().UTC(), analysisID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: start analysis %s", analysisID)
	}
	return checkRowsAffected(res, "analysis", analysisID)
}

func (s *SQLiteStore) CompleteAnalysis(ctx context.Context, analysisID string, result *model.AuditResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.AnalysisStatusCompleted), time.Now().UTC(), analysisID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete analysis %s", analysisID)
	}
	return checkRowsAffected(res, "analysis", analysisID)
}

func (s *SQLiteStore) FailAnalysis(ctx context.Context, analysisID string, cause string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.AnalysisStatusFailed), cause, time.Now().UTC(), analysisID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail analysis %s", analysisID)
	}
	return checkRowsAffected(res, "analysis", analysisID)
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, analysisID string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, request, status, result, error, created_at, updated_at FROM analyses WHERE id = ?`,
		analysisID,
	)
	return scanAnalysis(row)
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error) {
	query := `SELECT id, request, status, result, error, created_at, updated_at FROM analyses WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.URL != "" {
		query += ` AND json_extract(request, '$.url') = ?`
		args = append(args, filter.URL)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	return analyses, eris.Wrap(rows.Err(), "sqlite: list analyses iterate")
}

const sqliteLeadColumns = `id, contact_email, contact_name, website_url, business_type, analysis_id,
	total_score, lead_score, status, campaign_id,
	email_sent_at, email_opened_at, email_clicked_at, conversion_ref,
	created_at, updated_at`

func (s *SQLiteStore) CreateLead(ctx context.Context, lead *model.Lead) (*model.Lead, error) {
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads
		 (id, contact_email, contact_name, website_url, business_type, analysis_id,
		  total_score, lead_score, status, campaign_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (contact_email) DO UPDATE SET
		   website_url = excluded.website_url, business_type = excluded.business_type,
		   analysis_id = excluded.analysis_id, total_score = excluded.total_score,
		   lead_score = excluded.lead_score, updated_at = excluded.updated_at`,
		created.ID, created.Email, sqlNull(created.Name), created.WebsiteURL,
		string(created.BusinessType), sqlNull(created.AnalysisID),
		created.TotalScore, created.LeadScore, string(created.Status),
		sqlNull(created.CampaignID), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert lead")
	}

	// On conflict the existing row keeps its id, so the minted one may not
	// be the stored one. Re-read by email to return what is actually there.
	stored, err := s.GetLeadByEmail(ctx, created.Email)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, eris.Errorf("sqlite: lead vanished after upsert: %s", created.Email)
	}
	return stored, nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, leadID string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteLeadColumns+` FROM leads WHERE id = ?`, leadID)
	lead, err := scanSQLiteLead(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("lead not found: %s", leadID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lead %s", leadID)
	}
	return lead, nil
}

func (s *SQLiteStore) GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteLeadColumns+` FROM leads WHERE contact_email = ?`, email)
	lead, err := scanSQLiteLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get lead by email")
	}
	return lead, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + sqliteLeadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.CampaignID != "" {
		query += ` AND campaign_id = ?`
		args = append(args, filter.CampaignID)
	}
	if filter.MinScore > 0 {
		query += ` AND lead_score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY lead_score DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) TransitionLead(ctx context.Context, leadID string, to model.LeadStatus, sources []model.LeadStatus) (bool, error) {
	placeholders, args := statusArgs(sources)
	args = append([]any{string(to), time.Now().UTC(), leadID}, args...)

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, updated_at = ? WHERE id = ? AND status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: transition lead %s to %s", leadID, to)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ConvertLead(ctx context.Context, leadID string, conversionRef string, sources []model.LeadStatus) (bool, error) {
	placeholders, args := statusArgs(sources)
	args = append([]any{string(model.LeadStatusConverted), conversionRef, time.Now().UTC(), leadID}, args...)

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, conversion_ref = ?, updated_at = ? WHERE id = ? AND status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: convert lead %s", leadID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) MarkLeadEmailSent(ctx context.Context, leadID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE leads SET email_sent_at = COALESCE(email_sent_at, ?), updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), leadID,
	)
	return eris.Wrapf(err, "sqlite: mark lead emailed %s", leadID)
}

func (s *SQLiteStore) MarkLeadOpened(ctx context.Context, leadID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE leads SET email_opened_at = COALESCE(email_opened_at, ?), updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), leadID,
	)
	return eris.Wrapf(err, "sqlite: mark lead opened %s", leadID)
}

func (s *SQLiteStore) MarkLeadClicked(ctx context.Context, leadID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE leads SET email_clicked_at = COALESCE(email_clicked_at, ?), updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), leadID,
	)
	return eris.Wrapf(err, "sqlite: mark lead clicked %s", leadID)
}

func (s *SQLiteStore) CreateCampaign(ctx context.Context, name string) (*model.Campaign, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, string(model.CampaignStatusDraft), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert campaign")
	}

	return &model.Campaign{
		ID:        id,
		Name:      name,
		Status:    model.CampaignStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetCampaign(ctx context.Context, campaignID string) (*model.Campaign, error) {
	var c model.Campaign
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, status, created_at, updated_at FROM campaigns WHERE id = ?`,
		campaignID,
	).Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get campaign %s", campaignID)
	}
	return &c, nil
}

func (s *SQLiteStore) ListCampaigns(ctx context.Context) ([]model.Campaign, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, status, created_at, updated_at FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list campaigns")
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		var c model.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan campaign")
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, eris.Wrap(rows.Err(), "sqlite: list campaigns iterate")
}

func (s *SQLiteStore) UpdateCampaignStatus(ctx context.Context, campaignID string, status model.CampaignStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE campaigns SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), campaignID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update campaign status %s", campaignID)
	}
	return checkRowsAffected(res, "campaign", campaignID)
}

func (s *SQLiteStore) GetCampaignStats(ctx context.Context, campaignID string) (*model.CampaignStats, error) {
	stats := model.CampaignStats{CampaignID: campaignID}
	err := s.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN e.sent THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN e.opened THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN e.clicked THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN l.status = 'converted' THEN 1 ELSE 0 END), 0)
		 FROM generated_emails e
		 LEFT JOIN leads l ON l.id = e.lead_id
		 WHERE e.campaign_id = ?`,
		campaignID,
	).Scan(&stats.Sent, &stats.Opened, &stats.Clicked, &stats.Converted)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: campaign stats %s", campaignID)
	}
	return &stats, nil
}

func (s *SQLiteStore) CreateEmail(ctx context.Context, email *model.GeneratedEmail) (*model.GeneratedEmail, error) {
	created := *email
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	created.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generated_emails
		 (id, lead_id, campaign_id, subject, body, tracking_code, sent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.LeadID, sqlNull(created.CampaignID),
		created.Subject, created.Body, created.TrackingCode, created.Sent, created.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert email")
	}
	return &created, nil
}

func (s *SQLiteStore) GetEmailByCode(ctx context.Context, trackingCode string) (*model.GeneratedEmail, error) {
	var e model.GeneratedEmail
	var campaign sql.NullString
	var sentAt, openedAt, clickedAt sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT id, lead_id, campaign_id, subject, body, tracking_code,
		        sent, sent_at, opened, opened_at, clicked, clicked_at, created_at
		 FROM generated_emails WHERE tracking_code = ?`,
		trackingCode,
	).Scan(&e.ID, &e.LeadID, &campaign, &e.Subject, &e.Body, &e.TrackingCode,
		&e.Sent, &sentAt, &e.Opened, &openedAt, &e.Clicked, &clickedAt, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get email by code")
	}
	if campaign.Valid {
		e.CampaignID = campaign.String
	}
	if sentAt.Valid {
		t := sentAt.Time
		e.SentAt = &t
	}
	if openedAt.Valid {
		t := openedAt.Time
		e.OpenedAt = &t
	}
	if clickedAt.Valid {
		t := clickedAt.Time
		e.ClickedAt = &t
	}
	return &e, nil
}

func (s *SQLiteStore) MarkEmailSent(ctx context.Context, emailID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE generated_emails SET sent = 1, sent_at = COALESCE(sent_at, ?) WHERE id = ?`,
		at.UTC(), emailID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark email sent %s", emailID)
	}
	return checkRowsAffected(res, "email", emailID)
}

func (s *SQLiteStore) MarkEmailOpened(ctx context.Context, trackingCode string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE generated_emails SET opened = 1, opened_at = COALESCE(opened_at, ?) WHERE tracking_code = ?`,
		at.UTC(), trackingCode,
	)
	return eris.Wrap(err, "sqlite: mark email opened")
}

func (s *SQLiteStore) MarkEmailClicked(ctx context.Context, trackingCode string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE generated_emails SET clicked = 1, clicked_at = COALESCE(clicked_at, ?) WHERE tracking_code = ?`,
		at.UTC(), trackingCode,
	)
	return eris.Wrap(err, "sqlite: mark email clicked")
}

func (s *SQLiteStore) InsertTrackingEvent(ctx context.Context, event *model.TrackingEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracking_events (id, tracking_code, type, user_agent, remote_addr, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.TrackingCode, string(event.Type),
		sqlNull(event.UserAgent), sqlNull(event.RemoteAddr), event.OccurredAt,
	)
	return eris.Wrap(err, "sqlite: insert tracking event")
}

func (s *SQLiteStore) ListTrackingEvents(ctx context.Context, trackingCode string) ([]model.TrackingEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tracking_code, type, user_agent, remote_addr, occurred_at
		 FROM tracking_events WHERE tracking_code = ? ORDER BY occurred_at`,
		trackingCode,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tracking events")
	}
	defer rows.Close()

	var events []model.TrackingEvent
	for rows.Next() {
		var e model.TrackingEvent
		var ua, addr sql.NullString
		if err := rows.Scan(&e.ID, &e.TrackingCode, &e.Type, &ua, &addr, &e.OccurredAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tracking event")
		}
		if ua.Valid {
			e.UserAgent = ua.String
		}
		if addr.Valid {
			e.RemoteAddr = addr.String
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: list tracking events iterate")
}

func (s *SQLiteStore) GetDashboardSummary(ctx context.Context, recentLimit int) (*model.DashboardSummary, error) {
	var summary model.DashboardSummary

	rows, err := s.db.QueryContext(ctx, `SELECT total_score FROM leads WHERE status = 'new'`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: dashboard pending leads")
	}
	defer rows.Close()

	for rows.Next() {
		var total int
		if err := rows.Scan(&total); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pending lead")
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
		return nil, eris.Wrap(err, "sqlite: dashboard pending iterate")
	}

	if recentLimit <= 0 {
		recentLimit = 10
	}
	recent, err := s.ListAnalyses(ctx, AnalysisFilter{Limit: recentLimit})
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: dashboard recent analyses")
	}
	summary.RecentAnalyses = recent

	return &summary, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scannable) (*model.Analysis, error) {
	var a model.Analysis
	var reqJSON string
	var resultJSON, errMsg sql.NullString

	err := row.Scan(&a.ID, &reqJSON, &a.Status, &resultJSON, &errMsg, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("analysis not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan analysis")
	}

	if err := json.Unmarshal([]byte(reqJSON), &a.Request); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal request")
	}
	if resultJSON.Valid {
		a.Result = &model.AuditResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), a.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	if errMsg.Valid {
		a.Error = errMsg.String
	}
	return &a, nil
}

func scanSQLiteLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var name, analysisID, campaignID, conversionRef sql.NullString
	var sentAt, openedAt, clickedAt sql.NullTime

	err := row.Scan(&l.ID, &l.Email, &name, &l.WebsiteURL, &l.BusinessType, &analysisID,
		&l.TotalScore, &l.LeadScore, &l.Status, &campaignID,
		&sentAt, &openedAt, &clickedAt, &conversionRef,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if name.Valid {
		l.Name = name.String
	}
	if analysisID.Valid {
		l.AnalysisID = analysisID.String
	}
	if campaignID.Valid {
		l.CampaignID = campaignID.String
	}
	if conversionRef.Valid {
		l.ConversionRef = conversionRef.String
	}
	if sentAt.Valid {
		t := sentAt.Time
		l.EmailSentAt = &t
	}
	if openedAt.Valid {
		t := openedAt.Time
		l.EmailOpenedAt = &t
	}
	if clickedAt.Valid {
		t := clickedAt.Time
		l.EmailClickedAt = &t
	}
	return &l, nil
}

func statusArgs(statuses []model.LeadStatus) (string, []any) {
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	return strings.Join(placeholders, ", "), args
}

func sqlNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}
