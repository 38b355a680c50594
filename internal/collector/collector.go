// Package collector gathers the technical signal bundle for a website.
// It probes the homepage, robots.txt, and sitemap.xml, and derives content
// signals from the fetched HTML.
package collector

import (
	"context"
	"time"

	"github.com/leadscope/audit-cli/internal/model"
)

// Collector produces a signal bundle for a URL.
type Collector interface {
	Collect(ctx context.Context, rawURL string) (*model.SignalBundle, error)
}

// Options tunes the HTTP collector.
type Options struct {
	Timeout        time.Duration
	UserAgent      string
	MaxBodyBytes   int64
	RequestsPerSec float64
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = "Mozilla/5.0 (compatible; AuditBot/1.0)"
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 512 * 1024
	}
	if o.RequestsPerSec <= 0 {
		o.RequestsPerSec = 2
	}
	return o
}
