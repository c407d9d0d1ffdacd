package httpclient

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"github.com/Origamihase/wien-oepnv/internal/urlcheck"
	"github.com/rs/zerolog"
)

// SecureFetcherConfig holds resource budgets for the secure fetcher.
type SecureFetcherConfig struct {
	RequestTimeout      time.Duration
	ReadTimeout         time.Duration
	MaxResponseBytes    int64
	MaxRedirects        int
	AllowedContentTypes []string
	UserAgent           string
}

// DefaultSecureFetcherConfig returns default fetcher configuration
func DefaultSecureFetcherConfig() SecureFetcherConfig {
	return SecureFetcherConfig{
		RequestTimeout:   20 * time.Second,
		ReadTimeout:      20 * time.Second,
		MaxResponseBytes: 10 * 1024 * 1024,
		MaxRedirects:     MaxRedirects,
		UserAgent:        "wien-oepnv/1.0",
	}
}

// SecureFetcher composes URL validation, connection pinning, the bounded
// reader and the redirect guard into the single fetch operation every
// provider goes through. No outbound request leaves this package unvalidated.
type SecureFetcher struct {
	config        SecureFetcherConfig
	validator     *urlcheck.Validator
	baseTransport *http.Transport
	interceptors  []RequestInterceptor
	logger        zerolog.Logger
}

// FetchInput holds parameters for one fetch.
type FetchInput struct {
	URL     string
	Method  string
	Params  map[string]string
	Headers map[string]string
	Body    []byte

	// Timeout overrides the configured request timeout when positive.
	Timeout time.Duration
}

// fetchAttempt is the mutable state of one fetch as it moves across
// redirect hops. It never outlives the Fetch call.
type fetchAttempt struct {
	current *url.URL
	method  string
	headers http.Header
	body    []byte
	hops    int
}

// Fetch validates the URL once, then drives the request/redirect loop until
// a terminal response, a limit violation, or an unsafe hop. The returned
// bytes are the fully drained, size- and time-bounded body.
func (f *SecureFetcher) Fetch(ctx context.Context, input FetchInput) ([]byte, error) {
	validated, err := f.validator.Validate(ctx, input.URL)
	if err != nil {
		return nil, WrapError(err, "pre-flight validation failed")
	}

	parsed, err := url.Parse(validated)
	if err != nil {
		return nil, WrapError(err, "validated URL does not parse")
	}
	f.mergeParams(parsed, input.Params)

	timeout := f.config.RequestTimeout
	if input.Timeout > 0 {
		timeout = input.Timeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attempt := &fetchAttempt{
		current: parsed,
		method:  input.Method,
		headers: f.buildHeaders(input.Headers),
		body:    input.Body,
	}
	if attempt.method == "" {
		attempt.method = http.MethodGet
	}

	maxRedirects := f.config.MaxRedirects
	if maxRedirects <= 0 || maxRedirects > MaxRedirects {
		maxRedirects = MaxRedirects
	}

	for {
		body, redirected, err := f.doHop(fetchCtx, attempt, attempt.hops == 0)
		if err != nil {
			return nil, err
		}
		if !redirected {
			return body, nil
		}
		attempt.hops++
		if attempt.hops > maxRedirects {
			return nil, NewError("redirect limit exceeded")
		}
	}
}

// doHop performs one request. It returns redirected=true when the attempt
// state has been advanced to the next hop.
func (f *SecureFetcher) doHop(ctx context.Context, attempt *fetchAttempt, firstHop bool) ([]byte, bool, error) {
	pinned, transport, err := f.pinTransport(ctx, attempt.current)
	if err != nil {
		return nil, false, err
	}

	var bodyReader io.Reader
	if len(attempt.body) > 0 {
		bodyReader = bytes.NewReader(attempt.body)
	}

	req, err := http.NewRequestWithContext(ctx, attempt.method, attempt.current.String(), bodyReader)
	if err != nil {
		return nil, false, WrapError(err, "failed to create request")
	}
	for name, values := range attempt.headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	if firstHop {
		for _, interceptor := range f.interceptors {
			if err := interceptor.Intercept(req); err != nil {
				return nil, false, WrapError(err, "request interceptor failed")
			}
		}
	}

	var remoteAddr string
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Conn != nil {
				remoteAddr = info.Conn.RemoteAddr().String()
			}
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// The guard loop owns redirects; the client must never follow one.
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, false, WrapError(err, "request failed")
	}

	if isRedirectStatus(resp.StatusCode) && resp.Header.Get("Location") != "" {
		err := f.followRedirect(ctx, attempt, resp, req)
		return nil, err == nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, false, NewHTTPError(resp.StatusCode, attempt.current.String())
	}

	if err := f.checkContentType(resp, attempt.current.String()); err != nil {
		return nil, false, err
	}

	data, err := ReadBounded(resp, f.config.MaxResponseBytes, f.config.ReadTimeout, attempt.current.String())
	if err != nil {
		return nil, false, err
	}

	// The payload is discarded unless the socket's peer is still the address
	// validation approved; silent re-resolution by an intermediate layer
	// must not pay off.
	if err := VerifyPeer(remoteAddr, pinned, f.validator.SkipsIPChecks()); err != nil {
		return nil, false, err
	}

	return data, false, nil
}

// followRedirect re-validates the target, applies the per-status method and
// body rules, and strips credentials whenever the hop crosses a security
// boundary. On success the attempt points at the next hop.
func (f *SecureFetcher) followRedirect(ctx context.Context, attempt *fetchAttempt, resp *http.Response, req *http.Request) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()

	location, err := resp.Location()
	if err != nil {
		return NewUnsafeRedirectError("", "missing or invalid Location")
	}

	validated, err := f.validator.Validate(ctx, location.String())
	if err != nil {
		return NewUnsafeRedirectError(location.String(), "target failed validation")
	}
	next, err := url.Parse(validated)
	if err != nil {
		return NewUnsafeRedirectError(location.String(), "target does not parse")
	}

	method, keepBody := redirectMethod(resp.StatusCode, attempt.method)
	if !keepBody {
		attempt.body = nil
		attempt.headers.Del("Content-Type")
		attempt.headers.Del("Content-Length")
	}
	attempt.method = method

	if crossesSecurityBoundary(attempt.current, next) {
		removed := stripSensitiveHeaders(attempt.headers)
		attempt.headers.Del("Cookie")
		attempt.headers.Del("Authorization")
		stripSensitiveQuery(next)
		f.logger.Debug().
			Int("status", resp.StatusCode).
			Strs("stripped_headers", removed).
			Msg("Redirect crosses security boundary, credentials stripped")
	}

	attempt.current = next
	return nil
}

// pinTransport resolves and pins plaintext HTTP targets. HTTPS keeps the
// hostname for SNI and certificate validation and relies on the post-read
// peer check instead.
func (f *SecureFetcher) pinTransport(ctx context.Context, target *url.URL) (*ResolvedEndpoint, http.RoundTripper, error) {
	if target.Scheme != "http" || f.validator.SkipsIPChecks() {
		return nil, f.baseTransport, nil
	}

	addr, err := f.validator.ResolveSafe(ctx, target.Hostname())
	if err != nil {
		return nil, nil, WrapError(err, "pinning resolution failed")
	}

	port := target.Port()
	if port == "" {
		port = "80"
	}
	pinned := &ResolvedEndpoint{
		Hostname: target.Hostname(),
		PinnedIP: addr,
		Port:     port,
	}
	return pinned, newPinnedTransport(f.baseTransport, pinned), nil
}

func (f *SecureFetcher) mergeParams(u *url.URL, params map[string]string) {
	if len(params) == 0 {
		return
	}
	query := u.Query()
	for key, value := range params {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()
}

func (f *SecureFetcher) buildHeaders(headers map[string]string) http.Header {
	h := make(http.Header)
	for name, value := range headers {
		h.Set(name, value)
	}
	if f.config.UserAgent != "" {
		h.Set("User-Agent", f.config.UserAgent)
	}
	if h.Get("Accept") == "" {
		h.Set("Accept", "*/*")
	}
	return h
}

func (f *SecureFetcher) checkContentType(resp *http.Response, requestURL string) error {
	if len(f.config.AllowedContentTypes) == 0 {
		return nil
	}
	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	for _, allowed := range f.config.AllowedContentTypes {
		if strings.EqualFold(mediaType, allowed) {
			return nil
		}
	}
	return NewError("response content type is not allowed")
}
