package httpclient

import "net/http"

// RequestInterceptor decorates an outbound request before it is sent, e.g.
// to inject an upstream API key. Interceptors are composed into the fetcher
// instead of mutating a shared client, and they are re-applied only on hops
// that stay within the original security boundary.
type RequestInterceptor interface {
	Intercept(req *http.Request) error
}

// QueryParamInterceptor injects one fixed query parameter into the request.
type QueryParamInterceptor struct {
	Key   string
	Value string
}

// Intercept adds the parameter unless it is already present.
func (qpi *QueryParamInterceptor) Intercept(req *http.Request) error {
	query := req.URL.Query()
	if query.Get(qpi.Key) == "" {
		query.Set(qpi.Key, qpi.Value)
		req.URL.RawQuery = query.Encode()
	}
	return nil
}

// HeaderInterceptor sets one fixed header on the request.
type HeaderInterceptor struct {
	Name  string
	Value string
}

// Intercept sets the header.
func (hi *HeaderInterceptor) Intercept(req *http.Request) error {
	req.Header.Set(hi.Name, hi.Value)
	return nil
}
