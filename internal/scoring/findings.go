package scoring

import "github.com/leadscope/audit-cli/internal/model"

// findingRule is one pure predicate over the signal bundle. When the
// predicate holds, exactly one finding with the fixed severity and priority
// is emitted. Rules must be total: a nil optional metric fails closed into
// its own rule rather than being skipped.
type findingRule struct {
	finding model.Finding
	matches func(b *model.SignalBundle) bool
}

// findingRules is evaluated in declaration order; the stable priority sort
// in Findings keeps that order for equal priorities, so output is
// deterministic between runs.
var findingRules = []findingRule{
	{
		finding: model.Finding{
			ID:          "security-no-https",
			Severity:    model.SeverityCritical,
			Category:    "security",
			Title:       "Site is served over plain HTTP",
			Description: "The website does not use HTTPS. Browsers mark it as not secure and search engines demote it.",
			Impact:      "Visitors are warned away before they ever see the offer.",
			Priority:    10,
		},
		matches: func(b *model.SignalBundle) bool { return !b.HTTPS },
	},
	{
		finding: model.Finding{
			ID:          "security-invalid-certificate",
			Severity:    model.SeverityCritical,
			Category:    "security",
			Title:       "TLS certificate is invalid or expired",
			Description: "The certificate presented by the site failed validation.",
			Impact:      "Full-page browser warnings block nearly all traffic.",
			Priority:    10,
		},
		matches: func(b *model.SignalBundle) bool { return b.HTTPS && !b.ValidCertificate },
	},
	{
		finding: model.Finding{
			ID:          "security-mixed-content",
			Severity:    model.SeverityCritical,
			Category:    "security",
			Title:       "Page loads mixed (insecure) content",
			Description: "Resources are embedded over plain HTTP on an HTTPS page.",
			Impact:      "Browsers block or flag the insecure resources, breaking the page.",
			Priority:    9,
		},
		matches: func(b *model.SignalBundle) bool { return b.MixedContent },
	},
	{
		finding: model.Finding{
			ID:          "speed-very-slow",
			Severity:    model.SeverityCritical,
			Category:    "speed",
			Title:       "Page takes more than 5 seconds to load",
			Description: "Measured load time exceeds five seconds.",
			Impact:      "More than half of mobile visitors abandon before the page renders.",
			Priority:    9,
		},
		matches: func(b *model.SignalBundle) bool {
			return b.LoadTimeSeconds != nil && *b.LoadTimeSeconds > 5.0
		},
	},
	{
		finding: model.Finding{
			ID:          "mobile-no-viewport",
			Severity:    model.SeverityCritical,
			Category:    "mobile",
			Title:       "No viewport meta tag",
			Description: "The page has no responsive viewport declaration.",
			Impact:      "Phones render the desktop layout; mobile rankings suffer.",
			Priority:    8,
		},
		matches: func(b *model.SignalBundle) bool { return !b.HasViewportMeta },
	},
	{
		finding: model.Finding{
			ID:          "seo-missing-title",
			Severity:    model.SeverityCritical,
			Category:    "seo",
			Title:       "Page has no title tag",
			Description: "The document title is missing or empty.",
			Impact:      "Search results show a bare URL instead of the business name.",
			Priority:    8,
		},
		matches: func(b *model.SignalBundle) bool { return !b.HasTitle },
	},
	{
		finding: model.Finding{
			ID:          "speed-slow",
			Severity:    model.SeverityWarning,
			Category:    "speed",
			Title:       "Page takes more than 3 seconds to load",
			Description: "Measured load time is between three and five seconds.",
			Impact:      "Bounce rate climbs sharply past the three-second mark.",
			Priority:    7,
		},
		matches: func(b *model.SignalBundle) bool {
			return b.LoadTimeSeconds != nil && *b.LoadTimeSeconds > 3.0 && *b.LoadTimeSeconds <= 5.0
		},
	},
	{
		finding: model.Finding{
			ID:          "mobile-not-friendly",
			Severity:    model.SeverityWarning,
			Category:    "mobile",
			Title:       "Layout is not mobile friendly",
			Description: "Content does not adapt to small screens.",
			Impact:      "Mobile visitors pinch-zoom or leave; most local traffic is mobile.",
			Priority:    7,
		},
		matches: func(b *model.SignalBundle) bool { return b.HasViewportMeta && !b.MobileFriendly },
	},
	{
		finding: model.Finding{
			ID:          "seo-missing-meta-description",
			Severity:    model.SeverityWarning,
			Category:    "seo",
			Title:       "No meta description",
			Description: "The page has no meta description tag.",
			Impact:      "Search engines improvise a snippet, usually a poor one.",
			Priority:    6,
		},
		matches: func(b *model.SignalBundle) bool { return !b.HasMetaDescription },
	},
	{
		finding: model.Finding{
			ID:          "design-no-contact-form",
			Severity:    model.SeverityWarning,
			Category:    "design",
			Title:       "No contact form found",
			Description: "Visitors have no on-page way to send an inquiry.",
			Impact:      "Every inquiry costs a context switch to phone or email.",
			Priority:    6,
		},
		matches: func(b *model.SignalBundle) bool { return !b.HasContactForm },
	},
	{
		finding: model.Finding{
			ID:          "geo-no-structured-data",
			Severity:    model.SeverityOpportunity,
			Category:    "geo",
			Title:       "No structured data markup",
			Description: "The page carries no schema.org or JSON-LD markup.",
			Impact:      "AI assistants and rich results cannot describe the business.",
			Priority:    6,
		},
		matches: func(b *model.SignalBundle) bool { return !b.HasStructuredData },
	},
	{
		finding: model.Finding{
			ID:          "seo-bad-h1",
			Severity:    model.SeverityWarning,
			Category:    "seo",
			Title:       "Page does not have exactly one H1",
			Description: "The page has zero or multiple H1 headings.",
			Impact:      "Topic signals get diluted across competing headings.",
			Priority:    5,
		},
		matches: func(b *model.SignalBundle) bool { return b.H1Count != 1 },
	},
	{
		finding: model.Finding{
			ID:          "design-no-booking",
			Severity:    model.SeverityOpportunity,
			Category:    "design",
			Title:       "No online booking option",
			Description: "There is no booking or appointment widget on the site.",
			Impact:      "After-hours prospects cannot commit while intent is high.",
			Priority:    5,
		},
		matches: func(b *model.SignalBundle) bool { return !b.HasBookingSystem },
	},
	{
		finding: model.Finding{
			ID:          "geo-no-faq",
			Severity:    model.SeverityOpportunity,
			Category:    "geo",
			Title:       "No FAQ section",
			Description: "The site answers no common questions in a dedicated section.",
			Impact:      "Answer-engine queries get served by competitors instead.",
			Priority:    4,
		},
		matches: func(b *model.SignalBundle) bool { return !b.HasFAQSection },
	},
	{
		finding: model.Finding{
			ID:          "speed-not-measured",
			Severity:    model.SeverityOpportunity,
			Category:    "speed",
			Title:       "Load time could not be measured",
			Description: "No timing signal was captured for this page.",
			Impact:      "Performance problems may be hiding behind the missing measurement.",
			Priority:    3,
		},
		matches: func(b *model.SignalBundle) bool { return b.LoadTimeSeconds == nil },
	},
	{
		finding: model.Finding{
			ID:          "geo-no-local-signals",
			Severity:    model.SeverityOpportunity,
			Category:    "geo",
			Title:       "No locality mentions",
			Description: "The page never names the service area or city.",
			Impact:      "Local search and map placements stay out of reach.",
			Priority:    3,
		},
		matches: func(b *model.SignalBundle) bool { return !b.MentionsLocation },
	},
	{
		finding: model.Finding{
			ID:          "seo-no-sitemap",
			Severity:    model.SeverityOpportunity,
			Category:    "seo",
			Title:       "No sitemap.xml",
			Description: "The site publishes no sitemap.",
			Impact:      "Deep pages get crawled late or not at all.",
			Priority:    3,
		},
		matches: func(b *model.SignalBundle) bool { return !b.HasSitemap },
	},
	{
		finding: model.Finding{
			ID:          "seo-alt-coverage-unknown",
			Severity:    model.SeverityOpportunity,
			Category:    "seo",
			Title:       "Image alt-text coverage unknown",
			Description: "Alt-text coverage could not be determined for this page.",
			Impact:      "Accessibility and image-search potential are unverified.",
			Priority:    2,
		},
		matches: func(b *model.SignalBundle) bool { return b.ImageAltCoverage == nil },
	},
	{
		finding: model.Finding{
			ID:          "security-no-hsts",
			Severity:    model.SeverityOpportunity,
			Category:    "security",
			Title:       "No HSTS header",
			Description: "Strict-Transport-Security is not set.",
			Impact:      "First visits remain downgradable to plain HTTP.",
			Priority:    2,
		},
		matches: func(b *model.SignalBundle) bool { return b.HTTPS && !b.HasHSTS },
	},
}

// Findings evaluates every rule against the bundle and returns the emitted
// findings sorted by priority descending, declaration order for ties.
func Findings(b *model.SignalBundle) []model.Finding {
	var out []model.Finding
	for _, r := range findingRules {
		if r.matches(b) {
			out = append(out, r.finding)
		}
	}
	model.SortFindings(out)
	return out
}
