package assetcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tellsiddh/collections/internal/utils"
)

// maxAssetBytes caps how much of a network response is captured.
const maxAssetBytes = 8 << 20

// ErrAssetTooLarge is returned for responses over maxAssetBytes. They are
// never truncated into the cache.
var ErrAssetTooLarge = errors.New("asset exceeds the size limit")

// Fetcher goes to the network for requests the cache cannot answer.
type Fetcher interface {
	Fetch(ctx context.Context, r *http.Request) (*Response, error)
}

// HandlerFetcher serves requests from a local handler, typically the
// embedded static file server. Its responses are always same-origin.
type HandlerFetcher struct {
	handler http.Handler
}

// NewHandlerFetcher wraps h.
func NewHandlerFetcher(h http.Handler) *HandlerFetcher {
	return &HandlerFetcher{handler: h}
}

func (f *HandlerFetcher) Fetch(ctx context.Context, r *http.Request) (*Response, error) {
	out := r.Clone(ctx)
	// Conditional headers would turn a 200 into a bodiless 304 we cannot cache.
	out.Header.Del("If-Modified-Since")
	out.Header.Del("If-None-Match")

	rec := newRecorder()
	f.handler.ServeHTTP(rec, out)

	return &Response{
		Status: rec.status(),
		Header: rec.header,
		Body:   rec.body.Bytes(),
		Type:   TypeBasic,
		URL:    out.URL.RequestURI(),
	}, nil
}

// HTTPFetcher fetches from a remote origin over the network.
type HTTPFetcher struct {
	origin *url.URL
	client *http.Client
}

// NewHTTPFetcher creates a fetcher for origin (scheme://host[:port]).
// A zero timeout leaves requests bounded only by their context.
func NewHTTPFetcher(origin string, timeout time.Duration) (*HTTPFetcher, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("invalid asset origin %q: %w", origin, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("asset origin %q must be absolute", origin)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	return &HTTPFetcher{
		origin: u,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, r *http.Request) (*Response, error) {
	target := *f.origin
	target.Path = f.origin.Path + r.URL.Path
	target.RawQuery = r.URL.RawQuery

	req, err := http.NewRequestWithContext(ctx, r.Method, target.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for _, h := range []string{"Accept", "Accept-Language", "User-Agent"} {
		if v := r.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network fetch failed: %w", err)
	}
	defer utils.Close(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxAssetBytes {
		return nil, fmt.Errorf("%s: %w", target.String(), ErrAssetTooLarge)
	}

	typ := TypeBasic
	if resp.Request != nil && resp.Request.URL.Host != f.origin.Host {
		typ = TypeCORS
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
		Type:   typ,
		URL:    target.String(),
	}, nil
}

// recorder is a minimal in-memory http.ResponseWriter.
type recorder struct {
	header http.Header
	body   bytes.Buffer
	code   int
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(code int) {
	if r.code == 0 {
		r.code = code
	}
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.code == 0 {
		r.code = http.StatusOK
	}
	return r.body.Write(b)
}

func (r *recorder) status() int {
	if r.code == 0 {
		return http.StatusOK
	}
	return r.code
}
