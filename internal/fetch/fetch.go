// Package fetch retrieves release data over HTTP.
//
// Every failure is classified as either a *TransportError (no response was
// received) or an *HTTPError (the server answered with status >= 400).
// Callers decide what to do with each; in particular the proxy fallback
// lives in the update orchestrator, not here.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultUserAgent = "git-update"
	DefaultTimeout   = 30 * time.Second

	// maxDiagnosticBody caps how much of an error body is kept.
	maxDiagnosticBody = 4 << 10
	// maxDiagnosticText caps how much of the body is shown in Error.
	maxDiagnosticText = 300
)

// TransportError reports a request that produced no response at all.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError reports a response with status >= 400. Body holds the start of
// the response body for diagnostics.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("request %s: status %d", e.URL, e.StatusCode)
	if detail := diagnosticText(e.Body); detail != "" {
		msg += ": " + detail
	}
	return msg
}

// diagnosticText collapses whitespace in an error body and shortens it to
// one readable line.
func diagnosticText(body string) string {
	text := strings.Join(strings.Fields(body), " ")
	if len(text) > maxDiagnosticText {
		text = text[:maxDiagnosticText] + "..."
	}
	return text
}

// ProgressFunc receives the number of bytes written so far and the total
// size, or -1 when the server did not announce one.
type ProgressFunc func(written, total int64)

// Fetcher performs GET requests through an optional proxy.
type Fetcher struct {
	httpClient *http.Client
	proxy      *url.URL
	userAgent  string
	timeout    time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client. A client set this way is used
// as is; WithProxy has no effect on it.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = client
	}
}

// WithProxy routes every request through the given proxy.
func WithProxy(proxy *url.URL) Option {
	return func(f *Fetcher) {
		f.proxy = proxy
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithTimeout bounds each Get call. Downloads are bounded only by the
// caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.httpClient == nil {
		f.httpClient = &http.Client{Transport: newTransport(f.proxy)}
	}
	return f
}

func newTransport(proxy *url.URL) *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		base = &http.Transport{}
	}
	t := base.Clone()
	if proxy != nil {
		t.Proxy = http.ProxyURL(proxy)
	} else {
		t.Proxy = nil
	}
	return t
}

// Get fetches rawURL and returns the whole body of a successful response.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	resp, err := f.do(ctx, rawURL, "*/*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// Download streams a successful response for rawURL into dest and returns
// the number of bytes written. A partially written file is removed.
func (f *Fetcher) Download(ctx context.Context, rawURL, dest string, progress ProgressFunc) (int64, error) {
	resp, err := f.do(ctx, rawURL, "application/octet-stream")
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	//nolint:gosec // G304: destination is chosen by the caller, not the server
	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	w := &progressWriter{w: out, total: resp.ContentLength, progress: progress}
	n, copyErr := io.Copy(w, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(dest)
		return n, &TransportError{URL: rawURL, Err: fmt.Errorf("read body: %w", copyErr)}
	}
	if closeErr != nil {
		_ = os.Remove(dest)
		return n, fmt.Errorf("close %s: %w", dest, closeErr)
	}
	return n, nil
}

func (f *Fetcher) do(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticBody))
		return nil, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

type progressWriter struct {
	w        io.Writer
	written  int64
	total    int64
	progress ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.progress != nil {
		p.progress(p.written, p.total)
	}
	return n, err
}
