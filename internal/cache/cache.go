// Package cache implements the Map Cache (C5): a filesystem-backed store
// of serialized SiteMaps keyed by domain, with an in-memory LRU index
// bounding how many snapshots stay resident before the least-recently-used
// one is evicted from disk.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/webcortex/sitemap-engine/internal/cache/keys"
	"github.com/webcortex/sitemap-engine/internal/core/observability"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

// DefaultMaxEntries bounds how many cached maps live before LRU eviction
// kicks in, if the caller doesn't set Capacity.
const DefaultMaxEntries = 50

type entry struct {
	path         string
	cachedAt     time.Time
	ttl          time.Duration
	lastAccessed time.Time
}

func (e *entry) expired() bool {
	return time.Since(e.cachedAt) > e.ttl
}

// Cache is a map cache backed by the filesystem with LRU eviction.
type Cache struct {
	mu         sync.Mutex
	dir        string
	index      map[string]*entry
	lru        *lru.Cache[string, struct{}]
	defaultTTL time.Duration
	log        zerolog.Logger
}

// Config controls how a Cache is constructed.
type Config struct {
	Dir        string
	Capacity   int
	DefaultTTL time.Duration
	Logger     zerolog.Logger
}

// New creates a cache rooted at cfg.Dir, scanning it for existing
// .ctx files so previously cached maps are immediately available.
func New(cfg Config) (*Cache, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: creating dir %q: %w", cfg.Dir, err)
	}

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultMaxEntries
	}

	c := &Cache{
		dir:        cfg.Dir,
		index:      make(map[string]*entry),
		defaultTTL: cfg.DefaultTTL,
		log:        cfg.Logger,
	}

	evict, err := lru.NewWithEvict(capacity, func(domain string, _ struct{}) {
		c.removeLocked(domain, "lru")
	})
	if err != nil {
		return nil, fmt.Errorf("cache: building lru index: %w", err)
	}
	c.lru = evict

	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("cache: scanning dir: %w", err)
	}
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".ctx" {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		domain := domainFromFilename(de.Name())
		path := filepath.Join(cfg.Dir, de.Name())
		c.index[domain] = &entry{
			path:         path,
			cachedAt:     info.ModTime(),
			ttl:          cfg.DefaultTTL,
			lastAccessed: time.Now(),
		}
		c.lru.Add(domain, struct{}{})
	}

	c.log.Debug().Int("entries", len(c.index)).Str("dir", cfg.Dir).Msg("map cache initialized")
	return c, nil
}

func domainFromFilename(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

// Get returns the path to domain's cached snapshot if it exists and is
// still fresh, touching it for LRU purposes.
func (c *Cache) Get(domain string) (path string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.index[domain]
	if !found {
		observability.AddCacheMisses(domain, 1)
		return "", false
	}
	if e.expired() {
		observability.AddCacheMisses(domain, 1)
		return "", false
	}
	e.lastAccessed = time.Now()
	c.lru.Get(domain)
	observability.AddCacheHits(domain, 1)
	return e.path, true
}

// Put writes data as domain's cached snapshot; when adding it takes the
// cache over capacity, the least-recently-used entry is then evicted.
func (c *Cache) Put(domain string, data []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := filepath.Join(c.dir, keys.DomainFile(domain))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("cache: writing %q: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("cache: committing %q: %w", path, err)
	}

	c.index[domain] = &entry{
		path:         path,
		cachedAt:     time.Now(),
		ttl:          c.defaultTTL,
		lastAccessed: time.Now(),
	}
	c.lru.Add(domain, struct{}{})
	return path, nil
}

// CacheMap serializes m and stores it as domain's cached snapshot.
func (c *Cache) CacheMap(domain string, m *sitemap.SiteMap) (string, error) {
	return c.Put(domain, m.Serialize())
}

// LoadMap reads and deserializes domain's cached snapshot, returning
// ok=false if nothing fresh is cached.
func (c *Cache) LoadMap(domain string) (*sitemap.SiteMap, bool, error) {
	path, ok := c.Get(domain)
	if !ok {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: reading %q: %w", path, err)
	}
	m, err := sitemap.Deserialize(data)
	if err != nil {
		return nil, false, fmt.Errorf("cache: deserializing %q: %w", path, err)
	}
	return m, true, nil
}

// Invalidate removes domain's cache entry, if any.
func (c *Cache) Invalidate(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(domain, "invalidate")
	c.lru.Remove(domain)
}

func (c *Cache) removeLocked(domain, reason string) {
	e, found := c.index[domain]
	if !found {
		return
	}
	delete(c.index, domain)
	_ = os.Remove(e.path)
	observability.IncCacheEviction(reason)
}

// CleanupExpired removes every entry past its TTL.
func (c *Cache) CleanupExpired() {
	c.mu.Lock()
	var expired []string
	for domain, e := range c.index {
		if e.expired() {
			expired = append(expired, domain)
		}
	}
	c.mu.Unlock()

	for _, domain := range expired {
		c.Invalidate(domain)
	}
}

// Len returns the number of cached maps, including expired ones not yet
// swept by CleanupExpired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Dir returns the cache's root directory.
func (c *Cache) Dir() string { return c.dir }

// FillFunc produces a fresh SiteMap for domain, e.g. by compiling a crawl
// or pulling from the Registry.
type FillFunc func(ctx context.Context, domain string) (*sitemap.SiteMap, error)

// FillResult reports the outcome of warming one domain via FillMany.
type FillResult struct {
	Domain string
	Err    error
}

// FillMany concurrently warms the cache for every domain not already
// holding a fresh entry, bounding concurrency to workers (falling back to
// a sane default when workers <= 0). Domains are filled by calling fill;
// its result is stored via CacheMap unless fill returns an error.
func (c *Cache) FillMany(ctx context.Context, domains []string, workers int, fill FillFunc) []FillResult {
	if workers <= 0 {
		workers = 8
	}

	var toFill []string
	for _, d := range domains {
		if _, ok := c.Get(d); !ok {
			toFill = append(toFill, d)
		}
	}
	if len(toFill) == 0 {
		return nil
	}

	jobs := make(chan string, len(toFill))
	results := make(chan FillResult, len(toFill))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for domain := range jobs {
				select {
				case <-ctx.Done():
					results <- FillResult{Domain: domain, Err: ctx.Err()}
					continue
				default:
				}
				m, err := fill(ctx, domain)
				if err != nil {
					results <- FillResult{Domain: domain, Err: fmt.Errorf("fill %q: %w", domain, err)}
					continue
				}
				if _, err := c.CacheMap(domain, m); err != nil {
					results <- FillResult{Domain: domain, Err: err}
					continue
				}
				results <- FillResult{Domain: domain}
			}
		}()
	}
	for _, d := range toFill {
		jobs <- d
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]FillResult, 0, len(toFill))
	for r := range results {
		out = append(out, r)
	}
	return out
}
