// fixedcount.go: a fixed-entry-count LRU cache, one of the two
// alternative cache implementations spec.md §1 names as out-of-scope
// experiments kept only at the level of their shared Get/Set contract.
// It is not wired into cmd/slabmemd.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package altcache

import (
	"github.com/agilira/slabmemd"
	"github.com/maypok86/otter"
)

// FixedCountCache evicts by entry count rather than by byte budget: every
// entry costs 1 regardless of its serialized size.
type FixedCountCache struct {
	cache otter.Cache[string, slabmemd.CacheValue]
}

// NewFixedCountCache builds a FixedCountCache holding at most maxEntries
// values.
func NewFixedCountCache(maxEntries int) (*FixedCountCache, error) {
	cache, err := otter.MustBuilder[string, slabmemd.CacheValue](maxEntries).
		Cost(func(_ string, _ slabmemd.CacheValue) uint32 { return 1 }).
		Build()
	if err != nil {
		return nil, slabmemd.NewConfigError("altcache: building fixed-count cache: %v", err)
	}
	return &FixedCountCache{cache: cache}, nil
}

// Get implements slabmemd.Cache.
func (c *FixedCountCache) Get(key string) (slabmemd.CacheValue, bool) {
	return c.cache.Get(key)
}

// Set implements slabmemd.Cache. It always admits the value; eviction by
// entry count happens inside otter.
func (c *FixedCountCache) Set(key string, value slabmemd.CacheValue) bool {
	return c.cache.Set(key, value)
}

// Close releases the underlying otter cache's background resources.
func (c *FixedCountCache) Close() {
	c.cache.Close()
}
