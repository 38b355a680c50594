package collector

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/leadscope/audit-cli/internal/model"
	"github.com/leadscope/audit-cli/internal/resilience"
)

// HTTPCollector implements Collector over plain HTTP probing.
type HTTPCollector struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxBody   int64
	retry     resilience.RetryConfig
}

// NewHTTP creates an HTTPCollector with the given options.
func NewHTTP(opts Options) *HTTPCollector {
	opts = opts.withDefaults()
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("collector", "fetch_homepage")

	return &HTTPCollector{
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
		retry:     retry,
	}
}

type fetchResult struct {
	resp    *http.Response
	body    []byte
	elapsed time.Duration
}

// Collect probes the URL and derives the full signal bundle. A site that
// cannot be fetched at all is an error; the caller records the analysis as
// failed rather than scoring partial data.
func (c *HTTPCollector) Collect(ctx context.Context, rawURL string) (*model.SignalBundle, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "collector: parse url")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "collector: rate limit wait")
	}

	fetched, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*fetchResult, error) {
		return c.fetchHomepage(ctx, target)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "collector: fetch %s", target)
	}

	bundle := &model.SignalBundle{}
	c.applyTransportSignals(bundle, fetched)
	applyContentSignals(bundle, string(fetched.body))

	// robots.txt and sitemap.xml in parallel, as two cheap HEAD probes.
	base := baseURL(fetched.resp.Request.URL)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		bundle.HasRobotsTxt = c.checkExists(ctx, base+"/robots.txt")
	}()
	go func() {
		defer wg.Done()
		bundle.HasSitemap = c.checkExists(ctx, base+"/sitemap.xml")
	}()
	wg.Wait()

	zap.L().Debug("collector: signals gathered",
		zap.String("url", target),
		zap.Float64("load_seconds", fetched.elapsed.Seconds()),
		zap.Int64("page_bytes", bundle.PageSizeBytes),
	)
	return bundle, nil
}

func (c *HTTPCollector) fetchHomepage(ctx context.Context, target string) (*fetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}
	elapsed := time.Since(start)

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("status %d from %s", resp.StatusCode, target), resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("status %d from %s", resp.StatusCode, target)
	}

	return &fetchResult{resp: resp, body: body, elapsed: elapsed}, nil
}

// applyTransportSignals fills everything observable from the response
// itself: timing, size, security headers, compression, caching.
func (c *HTTPCollector) applyTransportSignals(bundle *model.SignalBundle, fetched *fetchResult) {
	loadSecs := fetched.elapsed.Seconds()
	bundle.LoadTimeSeconds = &loadSecs
	bundle.PageSizeBytes = int64(len(fetched.body))

	resp := fetched.resp
	finalURL := resp.Request.URL

	bundle.HTTPS = finalURL.Scheme == "https"
	// The client verifies certificates during the handshake, so reaching
	// this point over TLS implies a valid chain.
	bundle.ValidCertificate = resp.TLS != nil
	bundle.HasHSTS = resp.Header.Get("Strict-Transport-Security") != ""

	bundle.UsesCompression = resp.Uncompressed || resp.Header.Get("Content-Encoding") != ""

	cacheControl := strings.ToLower(resp.Header.Get("Cache-Control"))
	bundle.UsesCaching = strings.Contains(cacheControl, "max-age") ||
		strings.Contains(cacheControl, "public") ||
		resp.Header.Get("ETag") != "" ||
		resp.Header.Get("Expires") != ""
}

func (c *HTTPCollector) checkExists(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func normalizeURL(raw string) (string, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", eris.Errorf("no host in url: %s", raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

func baseURL(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
