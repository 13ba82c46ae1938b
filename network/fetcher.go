package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cinesrc/cinesrc/constant"
)

// Fetcher is the capability drivers use to talk to sites and embed APIs.
// Implementations must honour ctx on every request and report the final,
// post-redirect URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts Options) (*Response, error)
}

// Options describes one request.
type Options struct {
	// BaseURL is joined with relative request URLs.
	BaseURL string
	// Query is merged into the request URL's query string.
	Query url.Values
	// Method defaults to GET, or POST when Form or Body is set.
	Method  string
	Headers map[string]string
	// Form is sent url-encoded. It takes precedence over Body.
	Form url.Values
	Body string
	// ReadHeaders restricts the response headers exposed to the caller.
	// All headers are exposed when empty.
	ReadHeaders []string
}

// Response is the full result of a request.
type Response struct {
	Body     []byte
	FinalURL string
	Status   int
	Headers  http.Header
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.URL, e.Status)
}

// BuildURL resolves rawURL against base and merges query into it.
func BuildURL(base, rawURL string, query url.Values) (string, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	if base != "" && !target.IsAbs() {
		b, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
		if err != nil {
			return "", fmt.Errorf("parse base url %q: %w", base, err)
		}
		target = b.ResolveReference(&url.URL{
			Path:     strings.TrimPrefix(target.Path, "/"),
			RawQuery: target.RawQuery,
		})
	}

	if !target.IsAbs() {
		return "", fmt.Errorf("url %q is not absolute", target.String())
	}

	if len(query) > 0 {
		q := target.Query()
		for k, values := range query {
			for _, v := range values {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}

	return target.String(), nil
}

// ResolveReference resolves ref, such as a protocol-relative iframe src,
// against base the way a browser would.
func ResolveReference(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}

// HTTPFetcher implements Fetcher over an *http.Client.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher wraps client. An empty userAgent falls back to constant.UserAgent.
func NewHTTPFetcher(client *http.Client, userAgent string) *HTTPFetcher {
	if client == nil {
		client = Client
	}
	if userAgent == "" {
		userAgent = constant.UserAgent
	}
	return &HTTPFetcher{client: client, userAgent: userAgent}
}

// Fetch performs the request described by opts.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := BuildURL(opts.BaseURL, rawURL, opts.Query)
	if err != nil {
		return nil, err
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case opts.Form != nil:
		body = strings.NewReader(opts.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case opts.Body != "":
		body = strings.NewReader(opts.Body)
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
		if body != nil {
			method = http.MethodPost
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: target, Status: resp.StatusCode}
	}

	return &Response{
		Body:     data,
		FinalURL: resp.Request.URL.String(),
		Status:   resp.StatusCode,
		Headers:  exposeHeaders(resp.Header, opts.ReadHeaders),
	}, nil
}

func exposeHeaders(h http.Header, names []string) http.Header {
	if len(names) == 0 {
		return h.Clone()
	}

	exposed := make(http.Header, len(names))
	for _, name := range names {
		if values := h.Values(name); len(values) > 0 {
			exposed[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
		}
	}
	return exposed
}
