package persistence

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/dfryer1193/goblog/blog/domain"
)

// RenderCacheTTL is how long rendered HTML is served before it is rebuilt.
const RenderCacheTTL = 12 * time.Hour

var _ domain.RenderCache = (*RenderCache)(nil)

type cachedPost struct {
	content    string
	lastUpdate time.Time
}

// RenderCache keeps the most recent HTML per post number for the lifetime of
// the process. Entries are never evicted; a stale entry is overwritten by the
// next successful render.
//
// A single mutex guards the whole map, so lookups for unrelated posts
// serialize. Renders run outside the lock.
type RenderCache struct {
	mu      sync.Mutex
	entries map[uint64]cachedPost

	group       singleflight.Group
	development bool
	now         func() time.Time
}

type RenderCacheOption func(*RenderCache)

// WithDevelopmentMode makes every lookup a miss so edited posts show up
// immediately. Rendered output is still stored.
func WithDevelopmentMode(enabled bool) RenderCacheOption {
	return func(c *RenderCache) {
		c.development = enabled
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RenderCacheOption {
	return func(c *RenderCache) {
		c.now = now
	}
}

func NewRenderCache(opts ...RenderCacheOption) *RenderCache {
	c := &RenderCache{
		entries: make(map[uint64]cachedPost),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RenderCache) GetOrRender(id domain.PostID, render func() (string, error)) (string, error) {
	if content, ok := c.lookup(id); ok {
		return content, nil
	}

	// Concurrent misses for one post share a single render.
	key := strconv.FormatUint(id.CacheKey(), 10)
	v, err, _ := c.group.Do(key, func() (any, error) {
		content, err := render()
		if err != nil {
			return "", err
		}
		c.store(id, content)
		return content, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Len returns the number of cached posts, fresh or stale.
func (c *RenderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *RenderCache) lookup(id domain.PostID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log.Debug().Int("entries", len(c.entries)).Str("postID", id.String()).Msg("Render cache lookup")

	if c.development {
		return "", false
	}
	entry, ok := c.entries[id.CacheKey()]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.lastUpdate) >= RenderCacheTTL {
		return "", false
	}
	return entry.content, true
}

func (c *RenderCache) store(id domain.PostID, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id.CacheKey()] = cachedPost{
		content:    content,
		lastUpdate: c.now(),
	}
}
