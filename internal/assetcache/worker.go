package assetcache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tellsiddh/collections/internal/logger"
)

const (
	// DefaultCacheName is the current generation identifier.
	DefaultCacheName = "my-collections-v1"
	// DefaultFallbackDocument is served to document requests when offline.
	DefaultFallbackDocument = "/index.html"
)

// DefaultManifest is the app shell installed into every new generation.
func DefaultManifest() []string {
	return []string{
		"/",
		"/index.html",
		"/save.html",
		"/app.js",
		"/manifest.json",
		"/icon-192.png",
		"/icon-512.png",
	}
}

// Options configures a Worker.
type Options struct {
	CacheName        string
	Manifest         []string
	FallbackDocument string
}

// Worker installs the app shell, evicts stale generations and answers
// requests cache-first with network fallback.
type Worker struct {
	storage  Storage
	fetcher  Fetcher
	logger   logger.Logger
	name     string
	manifest []string
	fallback string
}

// NewWorker creates a worker. Zero options fall back to the defaults.
func NewWorker(storage Storage, fetcher Fetcher, opts Options, log logger.Logger) *Worker {
	if opts.CacheName == "" {
		opts.CacheName = DefaultCacheName
	}
	if opts.Manifest == nil {
		opts.Manifest = DefaultManifest()
	}
	if opts.FallbackDocument == "" {
		opts.FallbackDocument = DefaultFallbackDocument
	}

	return &Worker{
		storage:  storage,
		fetcher:  fetcher,
		logger:   log,
		name:     opts.CacheName,
		manifest: opts.Manifest,
		fallback: opts.FallbackDocument,
	}
}

// CacheName returns the current generation identifier.
func (w *Worker) CacheName() string { return w.name }

// Manifest returns the asset paths installed by Install.
func (w *Worker) Manifest() []string {
	return append([]string(nil), w.manifest...)
}

// Install opens the current generation and populates it with the manifest.
//
// Population is all-or-nothing: every asset is fetched first and nothing is
// stored unless all of them answered with a 2xx status.
func (w *Worker) Install(ctx context.Context) error {
	w.logger.Info("installing asset cache",
		logger.String("cache", w.name),
		logger.Int("assets", len(w.manifest)))

	cache, err := w.storage.Open(ctx, w.name)
	if err != nil {
		return fmt.Errorf("failed to open cache %s: %w", w.name, err)
	}

	fetched := make(map[string]*Response, len(w.manifest))
	for _, path := range w.manifest {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, http.NoBody)
		if err != nil {
			return fmt.Errorf("invalid manifest entry %q: %w", path, err)
		}

		resp, err := w.fetcher.Fetch(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", path, err)
		}
		if !resp.OK() {
			return fmt.Errorf("failed to fetch %s: status %d", path, resp.Status)
		}
		fetched[KeyFor(req)] = resp
	}

	for key, resp := range fetched {
		if err := cache.Put(ctx, key, resp); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
	}

	w.logger.Info("cached all app shell assets",
		logger.String("cache", w.name),
		logger.Int("count", len(fetched)))
	return nil
}

// Activate deletes every generation except the current one and returns the
// names it removed.
func (w *Worker) Activate(ctx context.Context) ([]string, error) {
	w.logger.Info("activating asset cache", logger.String("cache", w.name))

	names, err := w.storage.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list caches: %w", err)
	}

	var deleted []string
	for _, name := range names {
		if name == w.name {
			continue
		}
		if _, err := w.storage.Delete(ctx, name); err != nil {
			return deleted, fmt.Errorf("failed to delete cache %s: %w", name, err)
		}
		w.logger.Info("deleted stale cache generation", logger.String("cache", name))
		deleted = append(deleted, name)
	}

	return deleted, nil
}

// Fetch answers r from the current generation, falling back to the network.
//
// Successful same-origin GET responses with status 200 are stored so later
// identical requests hit the cache. When the network fails, document
// requests get the cached fallback document; everything else gets the error.
func (w *Worker) Fetch(ctx context.Context, r *http.Request) (*Response, error) {
	key := KeyFor(r)

	cache, err := w.storage.Open(ctx, w.name)
	if err != nil {
		w.logger.Warn("asset cache unavailable, going to network",
			logger.String("cache", w.name),
			logger.Error(err))
		cache = nil
	}

	if cache != nil {
		resp, err := cache.Match(ctx, key)
		switch {
		case err == nil:
			w.logger.Debug("found in cache", logger.String("key", key))
			return resp, nil
		case !errors.Is(err, ErrNotFound):
			w.logger.Warn("cache lookup failed",
				logger.String("key", key),
				logger.Error(err))
		}
	}

	resp, err := w.fetcher.Fetch(ctx, r)
	if err != nil {
		w.logger.Warn("fetch failed", logger.String("key", key), logger.Error(err))
		if cache != nil && IsDocumentRequest(r) {
			if fb, fbErr := cache.Match(ctx, RequestKey(http.MethodGet, w.fallback)); fbErr == nil {
				return fb, nil
			}
		}
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}

	if cache == nil || r.Method != http.MethodGet || resp.Status != http.StatusOK || resp.Type != TypeBasic {
		return resp, nil
	}

	if err := cache.Put(ctx, key, resp.Clone()); err != nil {
		w.logger.Warn("failed to cache response",
			logger.String("key", key),
			logger.Error(err))
	}
	return resp, nil
}

// ServeHTTP adapts Fetch to an http.Handler.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	resp, err := w.Fetch(r.Context(), r)
	if err != nil {
		http.Error(rw, "asset unavailable", http.StatusBadGateway)
		return
	}

	for k, vs := range resp.Header {
		for _, v := range vs {
			rw.Header().Add(k, v)
		}
	}
	rw.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	if resp.FromCache {
		rw.Header().Set("X-Asset-Cache", "hit")
	} else {
		rw.Header().Set("X-Asset-Cache", "miss")
	}

	rw.WriteHeader(resp.Status)
	if r.Method != http.MethodHead {
		_, _ = rw.Write(resp.Body)
	}
}

// Status describes the cache generations and current entries.
type Status struct {
	Current     string   `json:"current"`
	Generations []string `json:"generations"`
	Entries     []string `json:"entries"`
}

// Status reports the state of the asset cache.
func (w *Worker) Status(ctx context.Context) (*Status, error) {
	names, err := w.storage.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list caches: %w", err)
	}

	st := &Status{Current: w.name, Generations: names, Entries: []string{}}

	ok, err := w.storage.Has(ctx, w.name)
	if err != nil || !ok {
		return st, err
	}
	cache, err := w.storage.Open(ctx, w.name)
	if err != nil {
		return nil, err
	}
	if st.Entries, err = cache.Keys(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

// IsDocumentRequest reports whether r is a top-level navigation.
func IsDocumentRequest(r *http.Request) bool {
	if dest := r.Header.Get("Sec-Fetch-Dest"); dest != "" {
		return dest == "document"
	}
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}
