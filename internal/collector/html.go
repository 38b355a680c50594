package collector

import (
	"regexp"
	"strings"

	"github.com/leadscope/audit-cli/internal/model"
)

var phonePattern = regexp.MustCompile(`\(?\d{3}\)?[\s.-]\d{3}[\s.-]\d{4}`)

// applyContentSignals derives mobile, SEO, GEO, and contact signals from
// the homepage HTML. All checks are substring heuristics over the raw
// markup; this is an outreach qualifier, not a rendering engine.
func applyContentSignals(bundle *model.SignalBundle, html string) {
	lower := strings.ToLower(html)

	// Mobile.
	bundle.HasViewportMeta = strings.Contains(lower, `name="viewport"`) ||
		strings.Contains(lower, `name='viewport'`)
	bundle.HasResponsiveImages = strings.Contains(lower, "srcset=") ||
		strings.Contains(lower, "<picture")
	bundle.MobileFriendly = bundle.HasViewportMeta &&
		(strings.Contains(lower, "@media") || bundle.HasResponsiveImages)

	// Security: an https page pulling http subresources.
	if bundle.HTTPS {
		bundle.MixedContent = strings.Contains(lower, `src="http://`) ||
			strings.Contains(lower, `src='http://`)
	}

	// SEO.
	title := extractBetween(lower, "<title>", "</title>")
	bundle.HasTitle = strings.TrimSpace(title) != ""
	bundle.TitleLength = len(strings.TrimSpace(title))
	bundle.HasMetaDescription = strings.Contains(lower, `name="description"`) ||
		strings.Contains(lower, `name='description'`)
	bundle.H1Count = strings.Count(lower, "<h1")
	bundle.ImageAltCoverage = altCoverage(lower)

	// GEO.
	bundle.HasStructuredData = strings.Contains(lower, "application/ld+json") ||
		strings.Contains(lower, `itemtype="http`)
	bundle.HasFAQSection = strings.Contains(lower, "faq") ||
		strings.Contains(lower, "frequently asked")
	bundle.MentionsLocation = strings.Contains(lower, "address") ||
		strings.Contains(lower, "directions") ||
		strings.Contains(lower, "find us")
	bundle.MentionsPricing = strings.Contains(lower, "pricing") ||
		strings.Contains(lower, "price") ||
		strings.Contains(lower, "$")
	bundle.HasOpeningHours = strings.Contains(lower, "opening hours") ||
		strings.Contains(lower, "open hours") ||
		strings.Contains(lower, "mon-fri") ||
		strings.Contains(lower, "openinghoursspecification")

	// Contact channels.
	bundle.HasContactForm = strings.Contains(lower, "<form")
	bundle.HasPhoneNumber = strings.Contains(lower, `href="tel:`) ||
		strings.Contains(lower, `href='tel:`) ||
		phonePattern.MatchString(html)
	bundle.HasEmailAddress = strings.Contains(lower, "mailto:")
	bundle.HasSocialLinks = strings.Contains(lower, "facebook.com") ||
		strings.Contains(lower, "instagram.com") ||
		strings.Contains(lower, "linkedin.com") ||
		strings.Contains(lower, "twitter.com") ||
		strings.Contains(lower, "x.com/")
	bundle.HasBookingSystem = strings.Contains(lower, "calendly") ||
		strings.Contains(lower, "booksy") ||
		strings.Contains(lower, "acuityscheduling") ||
		strings.Contains(lower, "book now") ||
		strings.Contains(lower, "book online") ||
		strings.Contains(lower, "book an appointment")
}

// altCoverage returns the share of img tags carrying an alt attribute.
// A page with no images has full coverage. Returns nil only when the
// markup could not be inspected at all.
func altCoverage(lower string) *float64 {
	if lower == "" {
		return nil
	}

	var total, withAlt int
	rest := lower
	for {
		idx := strings.Index(rest, "<img")
		if idx == -1 {
			break
		}
		rest = rest[idx+4:]
		end := strings.Index(rest, ">")
		if end == -1 {
			break
		}
		total++
		if strings.Contains(rest[:end], "alt=") {
			withAlt++
		}
		rest = rest[end+1:]
	}

	coverage := 1.0
	if total > 0 {
		coverage = float64(withAlt) / float64(total)
	}
	return &coverage
}

func extractBetween(s, open, close string) string {
	start := strings.Index(s, open)
	if start == -1 {
		return ""
	}
	start += len(open)
	end := strings.Index(s[start:], close)
	if end == -1 {
		return ""
	}
	return s[start : start+end]
}
