package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"talabat-menusync/parser"
)

const (
	// Responses shorter than this are almost certainly error pages, not
	// menus; they trigger a retry rather than an immediate abort.
	minDocumentBytes = 1000

	// Small pause after the warm-up request so the session looks less like
	// a burst of automation.
	warmupDelay = 500 * time.Millisecond
)

// FetchOptions configures one Fetcher. The timeout bounds each individual
// attempt; there is no overall deadline across retries — callers needing a
// hard ceiling wrap Fetch with their own context.
type FetchOptions struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	UserAgent  string
}

// Fetcher retrieves restaurant pages with session warm-up, retry with
// exponential backoff, and heuristic blocked-page detection.
type Fetcher struct {
	client  *resty.Client
	opts    FetchOptions
	metrics *Metrics
}

// NewFetcher builds a fetcher with a cookie-jar session and a browser-like
// transport.
func NewFetcher(opts FetchOptions, metrics *Metrics) *Fetcher {
	client := resty.New()
	if jar, err := cookiejar.New(nil); err == nil {
		client.SetCookieJar(jar)
	}
	client.SetTimeout(opts.Timeout)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	return &Fetcher{
		client:  client,
		opts:    opts,
		metrics: metrics,
	}
}

// HTTPClient exposes the underlying client so callers and tests can swap the
// transport.
func (f *Fetcher) HTTPClient() *resty.Client {
	return f.client
}

// Fetch retrieves the page at rawURL and returns its HTML. It fails with
// *BlockedError when the embedded-data marker is absent (non-retryable) and
// with *TransportError once retries are exhausted. The sink receives the
// response body only on failure paths, never on success.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, sink *parser.DebugSink) (string, error) {
	root := siteRoot(rawURL)
	headers := browserHeaders(f.opts.UserAgent)

	f.warmUp(ctx, root, headers)

	attempts := f.opts.MaxRetries + 1
	var lastErr error
	var lastBody string

	for attempt := 1; attempt <= attempts; attempt++ {
		req := f.client.R().SetContext(ctx).SetHeaders(headers)
		if attempt > 1 && root != "" {
			req.SetHeader("Referer", root)
		}

		f.metrics.IncRequest("attempt")
		start := time.Now()
		resp, err := req.Get(rawURL)
		f.metrics.ObserveDuration(time.Since(start))

		switch {
		case err != nil:
			lastErr = err
		case !resp.IsSuccess():
			lastErr = fmt.Errorf("http status %d", resp.StatusCode())
			lastBody = resp.String()
		default:
			html := resp.String()
			if len(html) < minDocumentBytes {
				lastErr = fmt.Errorf("response too short (%d bytes), likely an error page", len(html))
				lastBody = html
				break
			}
			if reason, challenge, blocked := detectBlocked(html); blocked {
				sink.Write(html)
				f.metrics.IncBlocked()
				f.metrics.IncError("blocked")
				return "", &BlockedError{
					Reason:    reason,
					Challenge: challenge,
					DebugPath: sink.Location(),
				}
			}
			return html, nil
		}

		if attempt < attempts {
			delay := f.opts.Backoff * time.Duration(1<<(attempt-1))
			f.metrics.IncRetries()
			slog.Warn("fetch attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", attempts),
				slog.Duration("retry_in", delay),
				slog.Any("error", lastErr),
			)
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = attempts
			case <-time.After(delay):
			}
		}
	}

	if lastBody != "" {
		sink.Write(lastBody)
	}
	f.metrics.IncError("transport")
	return "", &TransportError{Attempts: attempts, Err: lastErr}
}

// warmUp visits the site root to acquire cookies and look browser-like.
// Failures here are ignored; the warm-up is best effort only.
func (f *Fetcher) warmUp(ctx context.Context, root string, headers map[string]string) {
	if root == "" {
		return
	}
	f.metrics.IncRequest("warmup")
	if _, err := f.client.R().SetContext(ctx).SetHeaders(headers).Get(root); err != nil {
		slog.Debug("warm-up request failed", slog.String("url", root), slog.Any("error", err))
	}
	select {
	case <-ctx.Done():
	case <-time.After(warmupDelay):
	}
}

// detectBlocked reports whether the document is missing the embedded-data
// marker and, if so, whether it carries challenge/denial signatures.
func detectBlocked(html string) (reason string, challenge bool, blocked bool) {
	low := strings.ToLower(html)
	if strings.Contains(low, strings.ToLower(parser.NextDataMarker)) {
		return "", false, false
	}
	switch {
	case strings.Contains(low, "cdn-cgi/challenge-platform"),
		strings.Contains(low, "cf-ray"),
		strings.Contains(low, "cloudflare"),
		strings.Contains(low, "challenge"):
		return "cloudflare challenge page detected (no " + parser.NextDataMarker + ")", true, true
	case strings.Contains(low, "access denied"):
		return "access denied page detected", true, true
	default:
		return parser.NextDataMarker + " not found in html", false, true
	}
}

// browserHeaders is the realistic header set sent on every attempt.
func browserHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":                userAgent,
		"Accept-Language":           "en-US,en;q=0.9,ar;q=0.8",
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Cache-Control":             "max-age=0",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Connection":                "keep-alive",
	}
}

// siteRoot derives scheme://host/ from a page URL, or "" when unparseable.
func siteRoot(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}
