// Package outreach renders the outbound audit email for a lead from its
// analysis result.
package outreach

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/leadscope/audit-cli/internal/model"
)

// maxFindingsInEmail caps the issue list so the email stays scannable.
const maxFindingsInEmail = 5

// Email is a rendered subject/body pair ready for the tracking layer.
type Email struct {
	Subject string
	Body    string
}

// Compose renders the outreach email for a lead. The analysis must be
// completed; the body leads with the score, lists the top findings by
// priority, and closes with the recommended package. The tracking layer
// appends its own links when it mints a code for the email.
func Compose(lead *model.Lead, analysis *model.Analysis) (*Email, error) {
	if analysis == nil || analysis.Result == nil {
		return nil, eris.New("outreach: analysis has no result")
	}
	result := analysis.Result

	subject := fmt.Sprintf("Your website scored %d/100 - here's what we found", result.Scores.Total)

	greeting := "Hi there"
	if lead.Name != "" {
		greeting = "Hi " + firstName(lead.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s,\n\n", greeting)
	fmt.Fprintf(&b, "We ran a full audit of %s and it scored %d out of 100 (%s).\n\n",
		lead.WebsiteURL, result.Scores.Total, labelPhrase(result.Label))

	findings := result.Findings
	if len(findings) > 0 {
		b.WriteString("The biggest issues we found:\n\n")
		n := len(findings)
		if n > maxFindingsInEmail {
			n = maxFindingsInEmail
		}
		for _, f := range findings[:n] {
			fmt.Fprintf(&b, "- %s: %s\n", f.Title, f.Impact)
		}
		b.WriteString("\n")
	}

	if rec := result.Recommendation; rec != nil {
		fmt.Fprintf(&b, "Based on your setup, our %s package is the best fit. %s\n\n",
			capitalize(string(rec.Tier)), rec.Rationale)
	}

	b.WriteString("Reply to this email or book a call and we'll walk you through the full report.\n")

	return &Email{Subject: subject, Body: b.String()}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func firstName(full string) string {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return full
	}
	return parts[0]
}

func labelPhrase(label model.ScoreLabel) string {
	switch label {
	case model.LabelCritical:
		return "critical - it's actively costing you customers"
	case model.LabelPoor:
		return "below average for your market"
	case model.LabelAverage:
		return "about average, with clear room to stand out"
	case model.LabelGood:
		return "good, with a few gaps left"
	default:
		return "excellent"
	}
}
