package pipeline

import (
	"net/mail"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/leadscope/audit-cli/internal/model"
)

// ValidateRequest rejects a request before any analysis record is created.
// A rejected request leaves no trace in the store.
func ValidateRequest(req model.AuditRequest) error {
	if strings.TrimSpace(req.URL) == "" {
		return eris.New("pipeline: url is required")
	}
	if u, err := url.Parse(normalizeScheme(req.URL)); err != nil || u.Host == "" {
		return eris.Errorf("pipeline: invalid url %q", req.URL)
	}
	if !model.ValidBusinessType(req.BusinessType) {
		return eris.Errorf("pipeline: unknown business type %q", req.BusinessType)
	}
	if req.ContactEmail != "" {
		if _, err := mail.ParseAddress(req.ContactEmail); err != nil {
			return eris.Errorf("pipeline: invalid contact email %q", req.ContactEmail)
		}
	}
	if req.EstimatedOperators < 0 {
		return eris.New("pipeline: estimated operators must not be negative")
	}
	return nil
}

func normalizeScheme(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}
