package source

// sheet.go downloads a shared spreadsheet as CSV.
//
// The share link is rewritten to its CSV export form and fetched over HTTP.
// Redirects are followed by hand so their number can be capped; the export
// endpoint usually answers with one or two hops to a content host. Every
// attempt waits on a rate limiter, and transient failures (network errors,
// 429, 5xx) are retried with exponential backoff until the overall deadline.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Stas2664/x2-backend/internal/core"
	"golang.org/x/time/rate"
)

// SheetOptions bounds the fetch. Zero values take the defaults below.
type SheetOptions struct {
	Timeout      time.Duration // Deadline for the whole fetch, retries included
	Retries      int           // Extra attempts after the first
	MaxRedirects int
	MaxBodySize  int64
	Rate         float64 // Requests per second
	Client       *http.Client
	Logger       *slog.Logger
}

const (
	DefaultFetchTimeout  = 30 * time.Second
	DefaultFetchRetries  = 3
	DefaultMaxRedirects  = 10
	DefaultFetchRate     = 2.0
	DefaultMaxSheetBytes = DefaultMaxFileSize
)

func (o SheetOptions) withDefaults() SheetOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultFetchTimeout
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = DefaultMaxRedirects
	}
	if o.MaxBodySize <= 0 {
		o.MaxBodySize = DefaultMaxSheetBytes
	}
	if o.Rate <= 0 {
		o.Rate = DefaultFetchRate
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// SheetSource fetches a spreadsheet share link as CSV.
type SheetSource struct {
	shareURL  string
	exportURL string
	opts      SheetOptions
	client    *http.Client
	limiter   *rate.Limiter
}

// NewSheetSource validates shareURL and derives its export URL.
func NewSheetSource(shareURL string, opts SheetOptions) (*SheetSource, error) {
	shareURL = strings.TrimSpace(shareURL)
	if shareURL == "" {
		return nil, fmt.Errorf("%w: sheet url is required", core.ErrUnsupportedSource)
	}

	u, err := url.Parse(shareURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid sheet url %q", core.ErrUnsupportedSource, shareURL)
	}

	opts = opts.withDefaults()

	// Redirects are followed in fetchOnce.
	client := &http.Client{}
	if opts.Client != nil {
		c := *opts.Client
		client = &c
	}
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &SheetSource{
		shareURL:  shareURL,
		exportURL: ExportURL(shareURL),
		opts:      opts,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(opts.Rate), 1),
	}, nil
}

// ExportURL derives the CSV export URL of a share link. Everything from
// "/edit" on becomes "/export?format=csv"; links that already point at an
// export are kept; anything else gets the export query parameters appended.
func ExportURL(shareURL string) string {
	if i := strings.Index(shareURL, "/edit"); i >= 0 {
		return shareURL[:i] + "/export?format=csv"
	}
	if strings.Contains(shareURL, "/export") {
		return shareURL
	}
	sep := "?"
	if strings.Contains(shareURL, "?") {
		sep = "&"
	}
	return shareURL + sep + "export=download&format=csv"
}

func (s *SheetSource) Describe() string {
	return s.shareURL
}

// ExportURL returns the URL actually fetched.
func (s *SheetSource) ExportURL() string {
	return s.exportURL
}

func (s *SheetSource) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	body, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return core.Tokenize(DecodeText(body)), nil
}

// Fetch downloads the CSV export. Errors wrap core.ErrFetch.
func (s *SheetSource) Fetch(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= s.opts.Retries+1; attempt++ {
		if attempt > 1 {
			wait := exponentialBackoff(attempt - 1)
			s.opts.Logger.Warn("retrying sheet fetch",
				"url", s.exportURL,
				"attempt", attempt,
				"backoff", wait,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w (last error: %v)", core.ErrFetch, ctx.Err(), lastErr)
			case <-time.After(wait):
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", core.ErrFetch, err)
		}

		body, err := s.fetchOnce(ctx)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var te *transientError
		if !errors.As(err, &te) || ctx.Err() != nil {
			break
		}
	}

	if ctx.Err() != nil && !errors.Is(lastErr, ctx.Err()) {
		return nil, fmt.Errorf("%w: %w (last error: %v)", core.ErrFetch, ctx.Err(), lastErr)
	}
	return nil, fmt.Errorf("%w: %w", core.ErrFetch, lastErr)
}

// fetchOnce performs one attempt, following redirects up to MaxRedirects.
func (s *SheetSource) fetchOnce(ctx context.Context) ([]byte, error) {
	target := s.exportURL

	for hops := 0; ; hops++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "text/csv,*/*")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, &transientError{err: err}
		}

		if isRedirect(resp.StatusCode) {
			loc := resp.Header.Get("Location")
			drain(resp)
			if loc == "" {
				return nil, fmt.Errorf("redirect %d without location", resp.StatusCode)
			}
			if hops >= s.opts.MaxRedirects {
				return nil, fmt.Errorf("stopped after %d redirects", s.opts.MaxRedirects)
			}
			next, err := resp.Request.URL.Parse(loc)
			if err != nil {
				return nil, fmt.Errorf("bad redirect location %q: %w", loc, err)
			}
			target = next.String()
			continue
		}

		return s.readBody(resp)
	}
}

func (s *SheetSource) readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		drain(resp)
		return nil, &transientError{err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp)
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.opts.MaxBodySize+1))
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > s.opts.MaxBodySize {
		return nil, fmt.Errorf("file too large: body exceeds %d bytes", s.opts.MaxBodySize)
	}
	return body, nil
}

// transientError marks a failure worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// exponentialBackoff calculates backoff duration: 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func isRedirect(code int) bool {
	return code >= 300 && code < 400 && code != http.StatusNotModified
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}
