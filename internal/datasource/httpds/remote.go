// Package httpds implements datasource.Source over HTTP(S), for exports
// published at a URL (a report server or a shared-drive download link). A
// request is made once per Open; there is no retry.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config configures a Remote.
type Config struct {
	// Timeout bounds the whole download. Zero means 60s.
	Timeout time.Duration

	// Headers are sent with every request, e.g. an Authorization header.
	Headers map[string]string

	// InsecureSkipVerify disables TLS certificate checks for internal hosts
	// with self-signed certificates.
	InsecureSkipVerify bool

	// Transport overrides the default transport; tests use it.
	Transport http.RoundTripper
}

// Remote downloads one URL.
type Remote struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// IsURL reports whether path should be fetched with a Remote.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// New returns a Remote for url.
func New(url string, cfg Config) (*Remote, error) {
	if !IsURL(url) {
		return nil, fmt.Errorf("httpds: %q is not an http(s) URL", url)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	tr := cfg.Transport
	if tr == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.InsecureSkipVerify {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in per source
		}
		tr = t
	}
	return &Remote{
		url:     url,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: cfg.Timeout, Transport: tr},
	}, nil
}

// Open issues a GET and returns the response body. Non-2xx responses are
// errors carrying the status and the start of the body.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpds: build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpds: get %s: %w", redact(r.url), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("httpds: get %s: status %s: %s", redact(r.url), resp.Status, strings.TrimSpace(string(b)))
	}
	return resp.Body, nil
}

// redact drops the query string, which often carries a signature.
func redact(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i] + "?…"
	}
	return u
}
