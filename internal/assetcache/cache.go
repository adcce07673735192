// Package assetcache keeps the static app shell available offline.
//
// Assets are grouped into named cache generations. Exactly one generation
// is current; activating a worker deletes every other one.
package assetcache

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
)

// ErrNotFound is returned by Cache.Match on a miss.
var ErrNotFound = errors.New("no cached response")

// ResponseType mirrors the fetch response types relevant to caching.
type ResponseType string

const (
	TypeBasic  ResponseType = "basic"  // same origin
	TypeCORS   ResponseType = "cors"   // cross origin
	TypeOpaque ResponseType = "opaque" // cross origin, unreadable
)

// Response is a captured response body plus headers.
type Response struct {
	Status    int          `json:"status"`
	Header    http.Header  `json:"header"`
	Body      []byte       `json:"body"`
	Type      ResponseType `json:"type"`
	URL       string       `json:"url"`
	FromCache bool         `json:"-"`
}

// Clone returns a deep copy safe to store while the original is served.
func (r *Response) Clone() *Response {
	out := *r
	out.Header = r.Header.Clone()
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return &out
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Cache is one generation's entries, keyed by RequestKey.
type Cache interface {
	Match(ctx context.Context, key string) (*Response, error)
	Put(ctx context.Context, key string, resp *Response) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Storage holds every cache generation by name.
type Storage interface {
	// Open returns the named generation, creating it when absent.
	Open(ctx context.Context, name string) (Cache, error)
	Has(ctx context.Context, name string) (bool, error)
	// Keys lists generation names.
	Keys(ctx context.Context) ([]string, error)
	// Delete drops a generation and all its entries.
	Delete(ctx context.Context, name string) (bool, error)
}

// RequestKey identifies a request by method and origin-relative URL.
func RequestKey(method, requestURI string) string {
	if method == "" {
		method = http.MethodGet
	}
	return method + " " + requestURI
}

// KeyFor returns the cache key of r. HEAD shares the GET entry.
func KeyFor(r *http.Request) string {
	method := r.Method
	if method == http.MethodHead {
		method = http.MethodGet
	}
	return RequestKey(method, r.URL.RequestURI())
}

// MemoryStorage keeps generations in process memory.
type MemoryStorage struct {
	mu     sync.Mutex
	caches map[string]*memoryCache
}

// NewMemoryStorage creates an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{caches: make(map[string]*memoryCache)}
}

func (s *MemoryStorage) Open(_ context.Context, name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.caches[name]
	if !ok {
		c = &memoryCache{entries: make(map[string]*Response)}
		s.caches[name] = c
	}
	return c, nil
}

func (s *MemoryStorage) Has(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.caches[name]
	return ok, nil
}

func (s *MemoryStorage) Keys(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.caches[name]
	delete(s.caches, name)
	return ok, nil
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Response
}

func (c *memoryCache) Match(_ context.Context, key string) (*Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resp, ok := c.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := resp.Clone()
	out.FromCache = true
	return out, nil
}

func (c *memoryCache) Put(_ context.Context, key string, resp *Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = resp.Clone()
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

func (c *memoryCache) Keys(context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
