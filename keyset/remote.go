package keyset

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/lestrrat-go/httpcc"

	"github.com/dpup/idtoken/errors"
	"github.com/dpup/idtoken/logging"
)

const defaultFetchTimeout = 10 * time.Second

// Conditional carries the validators from a previous fetch, used to issue a
// conditional GET so an unchanged key set is not re-transferred.
type Conditional struct {
	ETag         string
	LastModified string
}

// FetchResult pairs a fetched key set with the response metadata the cache
// needs to decide when the entry must be revalidated.
type FetchResult struct {
	// Keys decoded from the response body. Empty when NotModified is set.
	Keys []Key

	// NotModified is set when the server confirmed the conditional request's
	// cached content is still valid (HTTP 304).
	NotModified bool

	// MaxAge is the freshness window granted by the response's Cache-Control
	// header. Zero when the server granted none.
	MaxAge time.Duration

	// ETag and LastModified are the validators for the next conditional
	// request. Either may be empty.
	ETag         string
	LastModified string
}

// Fetcher is implemented by sources that can satisfy conditional requests.
// Cache requires one.
type Fetcher interface {
	Source

	// Fetch retrieves the key set, issuing a conditional request when cond
	// carries validators from a previous fetch.
	Fetch(ctx context.Context, cond Conditional) (*FetchResult, error)
}

// RemoteOption configures a Remote source.
type RemoteOption func(*Remote)

// WithURL points the source at a JWKS endpoint other than Google's.
func WithURL(url string) RemoteOption {
	return func(r *Remote) {
		if url != "" {
			r.url = url
		}
	}
}

// WithHTTPClient substitutes the HTTP client used for fetches.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *Remote) {
		if client != nil {
			r.client = client
		}
	}
}

// WithTimeout bounds each fetch. Elapsed timeouts surface as a FetchError.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRemote returns a Source that fetches Google's JWKS over HTTPS. Most
// callers should wrap it in a Cache; a bare Remote hits the network on every
// key lookup.
func NewRemote(opts ...RemoteOption) *Remote {
	r := &Remote{
		url:     GoogleCertsURL,
		client:  http.DefaultClient,
		timeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Remote fetches a JSON Web Key Set from a fixed HTTPS endpoint.
type Remote struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// Keys performs an unconditional fetch and returns the decoded keys.
func (r *Remote) Keys(ctx context.Context) ([]Key, error) {
	res, err := r.Fetch(ctx, Conditional{})
	if err != nil {
		return nil, err
	}
	return res.Keys, nil
}

// Fetch retrieves the key set. When cond carries validators the request is
// conditional and the server may answer 304, in which case the result has
// NotModified set and no keys.
func (r *Remote) Fetch(ctx context.Context, cond Conditional) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, &FetchError{URL: r.url, Err: err}
	}
	if cond.ETag != "" {
		req.Header.Set("If-None-Match", cond.ETag)
	}
	if cond.LastModified != "" {
		req.Header.Set("If-Modified-Since", cond.LastModified)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: r.url, Err: err}
	}
	defer resp.Body.Close()

	res := &FetchResult{
		MaxAge:       responseMaxAge(resp.Header),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}

	switch {
	case resp.StatusCode == http.StatusNotModified:
		res.NotModified = true
		logging.Debugw(ctx, "keyset: server confirmed cached keys are current", "url", r.url)
		return res, nil
	case resp.StatusCode != http.StatusOK:
		return nil, &FetchError{
			URL:    r.url,
			Status: resp.StatusCode,
			Err:    errors.Errorf("unexpected response status %q", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: r.url, Err: err}
	}
	keys, err := ParseJWKS(body)
	if err != nil {
		return nil, &FetchError{URL: r.url, Err: err}
	}
	res.Keys = keys

	logging.Debugw(ctx, "keyset: fetched keys", "url", r.url, "count", len(keys), "max_age", res.MaxAge)
	return res, nil
}

// responseMaxAge extracts the max-age freshness window from a Cache-Control
// header, if any.
func responseMaxAge(h http.Header) time.Duration {
	cc := h.Get("Cache-Control")
	if cc == "" {
		return 0
	}
	dir, err := httpcc.ParseResponse(cc)
	if err != nil {
		return 0
	}
	if maxAge, ok := dir.MaxAge(); ok {
		return time.Duration(maxAge) * time.Second
	}
	return 0
}
