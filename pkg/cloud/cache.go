package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"gitlab.com/davidxarnold/cloudconsole/pkg/util"
)

// cacheEntry is the persisted form of one provider lookup.
type cacheEntry struct {
	Metadata
	Timestamp time.Time
}

// Cache holds provider metadata keyed by the node's full providerID, with a
// TTL and optional persistence under ~/.cloudconsole.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	path    string
	now     func() time.Time
}

// NewCache creates a cache with the given TTL. With useDisk the cache is
// loaded from, and written back to, the user's cache file.
func NewCache(ttl time.Duration, useDisk bool) *Cache {
	c := &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	if useDisk {
		c.path = defaultCachePath()
		c.load()
	}
	return c
}

func defaultCachePath() string {
	home, err := homedir.Dir()
	if err != nil {
		log.Debugf("failed to get home directory for cloud cache: %v", err)
		return ""
	}
	return filepath.Join(home, ".cloudconsole", "cloud-cache.json")
}

// Get returns unexpired metadata for providerID.
func (c *Cache) Get(providerID string) (*Metadata, bool) {
	c.mu.RLock()
	entry, ok := c.entries[providerID]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.Timestamp) > c.ttl {
		return nil, false
	}
	md := entry.Metadata
	return &md, true
}

// Set stores metadata for providerID and persists the cache when enabled.
func (c *Cache) Set(providerID string, md *Metadata) {
	c.mu.Lock()
	c.entries[providerID] = &cacheEntry{Metadata: *md, Timestamp: c.now()}
	c.mu.Unlock()

	if c.path != "" {
		if err := c.save(); err != nil {
			log.Debugf("failed to persist cloud cache: %v", err)
		}
	}
}

// GetOrFetch returns cached metadata when available, otherwise asks the
// provider named by the providerID scheme and caches the answer. Unknown
// providers and empty answers yield (nil, nil); empty answers are not cached.
func (c *Cache) GetOrFetch(ctx context.Context, providerID string) (*Metadata, error) {
	if md, ok := c.Get(providerID); ok {
		return md, nil
	}

	name, id := util.ParseProviderID(providerID)
	provider := LookupProvider(name)
	if provider == nil {
		log.Debugf("no cloud provider registered for %q", name)
		return nil, nil
	}

	md, err := provider.NodeMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s metadata for %s: %w", name, providerID, err)
	}
	if md == nil || md.IsZero() {
		return nil, nil
	}

	c.Set(providerID, md)
	return md, nil
}

func (c *Cache) load() {
	if c.path == "" {
		return
	}

	// #nosec G304 - path is computed from the home directory, not user input
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debugf("failed to read cloud cache from disk: %v", err)
		}
		return
	}

	var disk map[string]*cacheEntry
	if err := json.Unmarshal(data, &disk); err != nil {
		log.Debugf("failed to unmarshal cloud cache: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range disk {
		if entry != nil && c.now().Sub(entry.Timestamp) <= c.ttl {
			c.entries[key] = entry
		}
	}
	log.Debugf("loaded %d cloud cache entries from disk", len(c.entries))
}

func (c *Cache) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0750); err != nil {
		return err
	}

	c.mu.RLock()
	data, err := json.Marshal(c.entries)
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0600)
}
