package model

// BusinessType classifies the prospect's operating model. The recommendation
// rules branch on it, so unknown values are rejected at intake.
type BusinessType string

const (
	BusinessTypeSingleOperator BusinessType = "single_operator"
	BusinessTypeMultiOperator  BusinessType = "multi_operator"
	BusinessTypeAgency         BusinessType = "agency"
)

// ValidBusinessType reports whether bt is one of the known classifications.
func ValidBusinessType(bt BusinessType) bool {
	switch bt {
	case BusinessTypeSingleOperator, BusinessTypeMultiOperator, BusinessTypeAgency:
		return true
	}
	return false
}

// SignalBundle holds the normalized technical facts collected for one URL.
// It has no identity of its own; it belongs to the analysis run that
// requested it and is immutable once collected. Measured metrics that may
// be unavailable are pointers so that absence stays distinguishable from
// zero.
type SignalBundle struct {
	// Speed.
	LoadTimeSeconds *float64 `json:"load_time_seconds,omitempty"`
	PageSizeBytes   int64    `json:"page_size_bytes"`
	UsesCompression bool     `json:"uses_compression"`
	UsesCaching     bool     `json:"uses_caching"`

	// Mobile.
	HasViewportMeta     bool `json:"has_viewport_meta"`
	MobileFriendly      bool `json:"mobile_friendly"`
	HasResponsiveImages bool `json:"has_responsive_images"`

	// Security.
	HTTPS            bool `json:"https"`
	ValidCertificate bool `json:"valid_certificate"`
	MixedContent     bool `json:"mixed_content"`
	HasHSTS          bool `json:"has_hsts"`

	// SEO.
	HasTitle           bool     `json:"has_title"`
	TitleLength        int      `json:"title_length"`
	HasMetaDescription bool     `json:"has_meta_description"`
	H1Count            int      `json:"h1_count"`
	HasSitemap         bool     `json:"has_sitemap"`
	HasRobotsTxt       bool     `json:"has_robots_txt"`
	ImageAltCoverage   *float64 `json:"image_alt_coverage,omitempty"` // 0.0-1.0

	// GEO (AI-engine optimization).
	HasStructuredData bool `json:"has_structured_data"`
	HasFAQSection     bool `json:"has_faq_section"`
	MentionsLocation  bool `json:"mentions_location"`
	MentionsPricing   bool `json:"mentions_pricing"`
	HasOpeningHours   bool `json:"has_opening_hours"`

	// Design / contact channels.
	HasContactForm   bool `json:"has_contact_form"`
	HasPhoneNumber   bool `json:"has_phone_number"`
	HasEmailAddress  bool `json:"has_email_address"`
	HasSocialLinks   bool `json:"has_social_links"`
	HasBookingSystem bool `json:"has_booking_system"`
}

// AuditRequest is the validated input to one analysis run.
type AuditRequest struct {
	URL          string       `json:"url"`
	BusinessType BusinessType `json:"business_type"`
	ContactEmail string       `json:"contact_email,omitempty"`
	ContactName  string       `json:"contact_name,omitempty"`
	// EstimatedOperators is an optional headcount estimate supplied by the
	// caller; zero means unknown.
	EstimatedOperators int    `json:"estimated_operators,omitempty"`
	CampaignID         string `json:"campaign_id,omitempty"`
}
