package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/Origamihase/wien-oepnv/internal/urlcheck"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestFetcher builds a fetcher whose validator trusts the loopback test
// servers (the IP-safety check is what normally keeps them out).
func newTestFetcher(t *testing.T, cfg SecureFetcherConfig, serverURLs ...string) *SecureFetcher {
	t.Helper()

	ports := []int{80, 443}
	for _, raw := range serverURLs {
		parsed, err := url.Parse(raw)
		require.NoError(t, err)
		port, err := strconv.Atoi(parsed.Port())
		require.NoError(t, err)
		ports = append(ports, port)
	}

	validator := urlcheck.NewValidator(urlcheck.ValidatorConfig{
		AllowedPorts: ports,
		CheckDNS:     false,
		TrustProxy:   true,
	}, zerolog.Nop())

	fetcher, err := NewSecureFetcherBuilder(zerolog.Nop()).
		WithValidator(validator).
		WithConfig(cfg).
		Build()
	require.NoError(t, err)
	return fetcher
}

func TestFetch_RefusesLoopbackWithoutAnyConnection(t *testing.T) {
	// A listener that fails the test if anything ever connects.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	connected := make(chan struct{}, 1)
	go func() {
		if conn, err := listener.Accept(); err == nil {
			connected <- struct{}{}
			_ = conn.Close()
		}
	}()

	fetcher, err := NewSecureFetcherBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), FetchInput{
		URL: "http://" + listener.Addr().String() + "/",
	})
	require.Error(t, err)

	var unsafeErr *urlcheck.UnsafeURLError
	assert.ErrorAs(t, err, &unsafeErr)

	select {
	case <-connected:
		t.Fatal("validation must reject the URL before any socket is opened")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFetch_ReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wien-oepnv-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "full", r.URL.Query().Get("detail"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	cfg := DefaultSecureFetcherConfig()
	cfg.UserAgent = "wien-oepnv-test"
	fetcher := newTestFetcher(t, cfg, server.URL)

	body, err := fetcher.Fetch(context.Background(), FetchInput{
		URL:    server.URL,
		Params: map[string]string{"detail": "full"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"data":{}}`, string(body))
}

func TestFetch_ContentTypeAllowList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	cfg := DefaultSecureFetcherConfig()
	cfg.AllowedContentTypes = []string{"application/json", "application/rss+xml"}
	fetcher := newTestFetcher(t, cfg, server.URL)

	_, err := fetcher.Fetch(context.Background(), FetchInput{URL: server.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content type")
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, DefaultSecureFetcherConfig(), server.URL)

	_, err := fetcher.Fetch(context.Background(), FetchInput{URL: server.URL})
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
}

func TestFetch_SizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "20000000")
		_, _ = w.Write(make([]byte, 1024))
	}))
	defer server.Close()

	cfg := DefaultSecureFetcherConfig()
	cfg.MaxResponseBytes = 10 * 1024 * 1024
	fetcher := newTestFetcher(t, cfg, server.URL)

	_, err := fetcher.Fetch(context.Background(), FetchInput{URL: server.URL})
	require.Error(t, err)

	var sizeErr *SizeLimitError
	assert.ErrorAs(t, err, &sizeErr)
}

func TestFetch_QueryParamInterceptor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k-123", r.URL.Query().Get("apiKey"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	validatorCfg := urlcheck.ValidatorConfig{CheckDNS: false, TrustProxy: true, AllowedPorts: testPorts(t, server.URL)}
	fetcher, err := NewSecureFetcherBuilder(zerolog.Nop()).
		WithValidator(urlcheck.NewValidator(validatorCfg, zerolog.Nop())).
		WithInterceptor(&QueryParamInterceptor{Key: "apiKey", Value: "k-123"}).
		Build()
	require.NoError(t, err)

	body, err := fetcher.Fetch(context.Background(), FetchInput{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func testPorts(t *testing.T, serverURL string) []int {
	t.Helper()
	parsed, err := url.Parse(serverURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(parsed.Port())
	require.NoError(t, err)
	return []int{80, 443, port}
}
