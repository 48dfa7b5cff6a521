// Package keyset caches remote JSON Web Key Sets.
//
// A Cache keeps one entry per key set URI and honors the HTTP caching
// headers of the issuer: Cache-Control max-age (or Expires) bounds
// freshness and the ETag makes refreshes conditional. Concurrent lookups
// of a URI that is not fresh share a single fetch.
package keyset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jwtkit/jwt"
	"github.com/jwtkit/jwt/logx"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

// ErrCacheInconsistency is returned when the issuer answers 304 Not Modified
// to a request the cache made without holding any key set for it.
var ErrCacheInconsistency = errors.New("keyset: not modified response without a cached key set")

// StatusError is returned for a response that is neither 200 nor 304.
type StatusError struct {
	URI        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("keyset: %s: unexpected status code: %d: body: %s", e.URI, e.StatusCode, e.Body)
}

// endpoint is the cached state of one URI. Only the fetch routine,
// holding mu, writes to it.
type endpoint struct {
	mu sync.Mutex

	set     *jwt.JWKS
	body    []byte
	etag    string
	expires time.Time

	signers    *jwt.Signers // built lazily from set.
	signersFor *jwt.JWKS
}

func (ep *endpoint) freshLocked(now time.Time) bool {
	return ep.set != nil && now.Before(ep.expires)
}

func (ep *endpoint) resetLocked() {
	ep.set, ep.body, ep.etag, ep.expires = nil, nil, "", time.Time{}
}

// Cache fetches and caches remote key sets. The zero value is not usable,
// see New.
type Cache struct {
	fetcher    Fetcher
	now        func() time.Time
	timeout    time.Duration
	logger     logx.Logger
	store      Store
	metrics    *metrics
	importOpts []jwt.ImportOption

	group singleflight.Group

	mu        sync.Mutex
	endpoints map[string]*endpoint
}

// Option configures a Cache.
type Option func(*Cache)

// WithTimeout bounds every fetch, including the shared store round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.timeout = d
	}
}

// WithClock replaces time.Now, useful for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets the logger, the process logger (logx.L) by default.
func WithLogger(l logx.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithStore adds a shared second tier, see Store.
func WithStore(s Store) Option {
	return func(c *Cache) {
		c.store = s
	}
}

// WithMeterProvider records the cache counters through "mp".
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Cache) {
		c.metrics = newMetrics(mp)
	}
}

// WithImportOptions sets how Signers turns a key set into a registry.
// By default keys that cannot be imported are skipped and logged.
func WithImportOptions(opts ...jwt.ImportOption) Option {
	return func(c *Cache) {
		c.importOpts = opts
	}
}

// New returns a Cache fetching through "fetcher".
// A nil fetcher means an HTTPFetcher over http.DefaultClient.
func New(fetcher Fetcher, opts ...Option) *Cache {
	if fetcher == nil {
		fetcher = &HTTPFetcher{}
	}

	c := &Cache{
		fetcher:   fetcher,
		now:       time.Now,
		endpoints: make(map[string]*endpoint),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.metrics == nil {
		c.metrics = newMetrics(nil)
	}
	if c.importOpts == nil {
		c.importOpts = []jwt.ImportOption{jwt.SkipInvalidKeys(func(k *jwt.JWK, err error) {
			c.log().Warn("skipping key", "kid", k.Kid, "kty", k.Kty, "error", err)
		})}
	}

	return c
}

func (c *Cache) log() logx.Logger {
	return logx.Or(c.logger)
}

func (c *Cache) endpoint(uri string) *endpoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	ep, ok := c.endpoints[uri]
	if !ok {
		ep = &endpoint{}
		c.endpoints[uri] = ep
	}

	return ep
}

// Get returns the key set served at "uri".
//
// A fresh cached set is returned without network access. Otherwise one
// conditional GET is made, shared by every concurrent caller for "uri":
// they all observe its result or its error. Errors leave the cached
// state untouched.
func (c *Cache) Get(ctx context.Context, uri string) (*jwt.JWKS, error) {
	ep := c.endpoint(uri)

	ep.mu.Lock()
	if ep.freshLocked(c.now()) {
		set := ep.set
		ep.mu.Unlock()
		c.metrics.hit(ctx, uri, "memory")
		return set, nil
	}
	ep.mu.Unlock()

	v, err, _ := c.group.Do(uri, func() (any, error) {
		return c.refresh(ctx, uri, ep)
	})
	if err != nil {
		c.metrics.failed(ctx, uri)
		return nil, err
	}

	return v.(*jwt.JWKS), nil
}

// Signers returns the registry built from the key set at "uri".
// The registry is rebuilt only when the key set changes.
func (c *Cache) Signers(ctx context.Context, uri string) (*jwt.Signers, error) {
	set, err := c.Get(ctx, uri)
	if err != nil {
		return nil, err
	}

	ep := c.endpoint(uri)
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if ep.signers != nil && ep.signersFor == set {
		return ep.signers, nil
	}

	signers, err := set.Signers(c.importOpts...)
	if err != nil {
		return nil, err
	}

	if ep.set == set {
		ep.signers, ep.signersFor = signers, set
	}

	return signers, nil
}

// Invalidate drops the cached key set of "uri", the next Get fetches it.
// Use it when a token names a "kid" the cached set does not know.
func (c *Cache) Invalidate(uri string) {
	ep := c.endpoint(uri)
	ep.mu.Lock()
	ep.resetLocked()
	ep.signers, ep.signersFor = nil, nil
	ep.mu.Unlock()
}

func (c *Cache) refresh(ctx context.Context, uri string, ep *endpoint) (*jwt.JWKS, error) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	// another flight may have completed since the caller looked.
	if ep.freshLocked(c.now()) {
		c.metrics.hit(ctx, uri, "memory")
		return ep.set, nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if set, ok := c.loadShared(ctx, uri, ep); ok {
		c.metrics.hit(ctx, uri, "store")
		return set, nil
	}

	header := make(http.Header)
	if ep.etag != "" {
		header.Set("If-None-Match", ep.etag)
	}

	sent := c.now()
	resp, err := c.fetcher.Fetch(ctx, uri, header)
	if err != nil {
		c.log().Warn("jwks fetch failed", "uri", uri, "error", err)
		return nil, fmt.Errorf("keyset: fetch %s: %w", uri, err)
	}
	c.metrics.fetched(ctx, uri, resp.StatusCode)

	expires, cacheable := expiresAt(resp.Header, sent)

	switch resp.StatusCode {
	case http.StatusNotModified:
		if ep.set == nil {
			return nil, fmt.Errorf("%w: %s", ErrCacheInconsistency, uri)
		}

		set := ep.set
		if !cacheable {
			c.log().Debug("jwks not cacheable, dropping entry", "uri", uri)
			ep.resetLocked()
			return set, nil
		}

		if etag := resp.Header.Get("ETag"); etag != "" {
			ep.etag = etag
		}
		ep.expires = expires
		c.saveShared(ctx, uri, ep)
		c.log().Debug("jwks not modified", "uri", uri, "expires", expires)
		return set, nil

	case http.StatusOK:
		set, err := jwt.ParseJWKS(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("keyset: %s: %w", uri, err)
		}

		if !cacheable {
			c.log().Debug("jwks not cacheable, dropping entry", "uri", uri)
			ep.resetLocked()
			return set, nil
		}

		ep.set = set
		ep.body = bytes.Clone(resp.Body)
		ep.etag = resp.Header.Get("ETag")
		ep.expires = expires
		c.saveShared(ctx, uri, ep)
		c.log().Info("jwks fetched", "uri", uri, "keys", len(set.Keys), "expires", expires)
		return set, nil

	default:
		return nil, &StatusError{URI: uri, StatusCode: resp.StatusCode, Body: resp.Body}
	}
}

// loadShared adopts the shared store's entry when it is fresh.
func (c *Cache) loadShared(ctx context.Context, uri string, ep *endpoint) (*jwt.JWKS, bool) {
	if c.store == nil {
		return nil, false
	}

	entry, err := c.store.Load(ctx, uri)
	if err != nil {
		if !errors.Is(err, ErrEntryNotFound) {
			c.log().Warn("jwks store load failed", "uri", uri, "error", err)
		}
		return nil, false
	}

	if !c.now().Before(entry.Expires) {
		return nil, false
	}

	set, err := jwt.ParseJWKS(entry.Body)
	if err != nil {
		c.log().Warn("jwks store entry is invalid", "uri", uri, "error", err)
		return nil, false
	}

	ep.set, ep.body, ep.etag, ep.expires = set, entry.Body, entry.ETag, entry.Expires
	return set, true
}

func (c *Cache) saveShared(ctx context.Context, uri string, ep *endpoint) {
	if c.store == nil || ep.body == nil {
		return
	}

	entry := &Entry{Body: ep.body, ETag: ep.etag, Expires: ep.expires}
	if err := c.store.Save(ctx, uri, entry); err != nil {
		c.log().Warn("jwks store save failed", "uri", uri, "error", err)
	}
}
