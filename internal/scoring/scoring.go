// Package scoring turns a collected signal bundle into category scores,
// a total, and a prioritized finding list.
package scoring

import (
	"go.uber.org/zap"

	"github.com/leadscope/audit-cli/internal/model"
)

// Score computes the six clamped category scores and their sum. The total
// is always the arithmetic sum of the clamped categories so the two numbers
// cannot drift apart under future rule changes.
func Score(b *model.SignalBundle) model.CategoryScores {
	s := model.CategoryScores{
		Speed:    scoreSpeed(b),
		Mobile:   scoreMobile(b),
		Security: scoreSecurity(b),
		SEO:      scoreSEO(b),
		GEO:      scoreGEO(b),
		Design:   scoreDesign(b),
	}
	s.Total = s.Speed + s.Mobile + s.Security + s.SEO + s.GEO + s.Design

	zap.L().Debug("scoring: bundle scored",
		zap.Int("speed", s.Speed),
		zap.Int("mobile", s.Mobile),
		zap.Int("security", s.Security),
		zap.Int("seo", s.SEO),
		zap.Int("geo", s.GEO),
		zap.Int("design", s.Design),
		zap.Int("total", s.Total),
	)
	return s
}

// clamp bounds a raw category sum to [0, max]. Clamping is a hard
// invariant: no category may go negative or exceed its cap.
func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func scoreSpeed(b *model.SignalBundle) int {
	var pts int
	if b.LoadTimeSeconds != nil {
		switch lt := *b.LoadTimeSeconds; {
		case lt <= 1.5:
			pts += 12
		case lt <= 3.0:
			pts += 8
		case lt <= 5.0:
			pts += 5
		}
	}
	if b.UsesCompression {
		pts += 4
	}
	if b.UsesCaching {
		pts += 4
	}
	return clamp(pts, model.MaxSpeedScore)
}

func scoreMobile(b *model.SignalBundle) int {
	var pts int
	if b.HasViewportMeta {
		pts += 6
	}
	if b.MobileFriendly {
		pts += 6
	}
	if b.HasResponsiveImages {
		pts += 3
	}
	return clamp(pts, model.MaxMobileScore)
}

func scoreSecurity(b *model.SignalBundle) int {
	var pts int
	if b.HTTPS {
		pts += 4
	}
	if b.ValidCertificate {
		pts += 3
	}
	if !b.MixedContent {
		pts += 2
	}
	if b.HasHSTS {
		pts += 1
	}
	return clamp(pts, model.MaxSecurityScore)
}

func scoreSEO(b *model.SignalBundle) int {
	var pts int
	if b.HasTitle {
		pts += 4
		if b.TitleLength >= 30 && b.TitleLength <= 60 {
			pts += 2
		}
	}
	if b.HasMetaDescription {
		pts += 4
	}
	if b.H1Count == 1 {
		pts += 3
	}
	if b.HasSitemap {
		pts += 3
	}
	if b.HasRobotsTxt {
		pts += 2
	}
	if b.ImageAltCoverage != nil && *b.ImageAltCoverage >= 0.8 {
		pts += 2
	}
	return clamp(pts, model.MaxSEOScore)
}

func scoreGEO(b *model.SignalBundle) int {
	var pts int
	if b.HasStructuredData {
		pts += 5
	}
	if b.HasFAQSection {
		pts += 4
	}
	if b.MentionsLocation {
		pts += 3
	}
	if b.MentionsPricing {
		pts += 2
	}
	if b.HasOpeningHours {
		pts += 1
	}
	return clamp(pts, model.MaxGEOScore)
}

func scoreDesign(b *model.SignalBundle) int {
	var pts int
	if b.HasContactForm {
		pts += 5
	}
	if b.HasPhoneNumber {
		pts += 4
	}
	if b.HasEmailAddress {
		pts += 3
	}
	if b.HasSocialLinks {
		pts += 3
	}
	if b.HasBookingSystem {
		pts += 5
	}
	return clamp(pts, model.MaxDesignScore)
}
