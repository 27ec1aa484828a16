package cache

import (
	"errors"
	"time"
)

// Lookup outcomes reported to an observer
const (
	HitMemory = "memory"
	HitDisk   = "disk"
	Miss      = "miss"
)

// LayeredCache checks memory first and falls back to disk, promoting disk hits
type LayeredCache struct {
	memory  *MemoryCache
	disk    *DiskCache // nil when running memory-only
	observe func(outcome string)
}

// NewLayeredCache creates a memory+disk cache. An empty diskDir keeps the cache in memory only.
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	lc := &LayeredCache{memory: NewMemoryCache(memoryTTL, 10*time.Minute), observe: func(string) {}}
	if diskDir != "" {
		lc.disk = NewDiskCache(diskDir, diskTTL)
	}
	return lc
}

// Observe registers fn to be called with the outcome of every Get
func (c *LayeredCache) Observe(fn func(outcome string)) {
	if fn != nil {
		c.observe = fn
	}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		c.observe(HitMemory)
		return val, true
	}
	if c.disk == nil {
		c.observe(Miss)
		return nil, false
	}
	val, found := c.disk.Get(key)
	if !found {
		c.observe(Miss)
		return nil, false
	}
	_ = c.memory.Set(key, val, 0)
	c.observe(HitDisk)
	return val, true
}

func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	if c.disk == nil {
		return nil
	}
	return c.disk.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	err := c.memory.Delete(key)
	if c.disk != nil {
		err = errors.Join(err, c.disk.Delete(key))
	}
	return err
}

func (c *LayeredCache) Clear() error {
	err := c.memory.Clear()
	if c.disk != nil {
		err = errors.Join(err, c.disk.Clear())
	}
	return err
}

// Prune drops expired memory items and expired disk files
func (c *LayeredCache) Prune() (int, error) {
	c.memory.store.DeleteExpired()
	if c.disk == nil {
		return 0, nil
	}
	return c.disk.Prune()
}
