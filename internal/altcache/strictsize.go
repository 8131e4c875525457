// strictsize.go: a strict-byte-budget cache, the second alternative
// implementation spec.md §1 names as an out-of-scope experiment. As with
// FixedCountCache, it is kept only at the level of the shared Get/Set
// contract and is not wired into cmd/slabmemd.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package altcache

import (
	"github.com/agilira/slabmemd"
	"github.com/maypok86/otter"
)

// StrictSizeCache evicts to stay within a byte budget: every entry costs
// its serialized size, not a flat count.
type StrictSizeCache struct {
	cache otter.Cache[string, slabmemd.CacheValue]
}

// NewStrictSizeCache builds a StrictSizeCache bounded by maxBytes of
// serialized value data.
func NewStrictSizeCache(maxBytes int) (*StrictSizeCache, error) {
	cache, err := otter.MustBuilder[string, slabmemd.CacheValue](maxBytes).
		Cost(func(_ string, v slabmemd.CacheValue) uint32 { return uint32(v.SerializedSize()) }).
		Build()
	if err != nil {
		return nil, slabmemd.NewConfigError("altcache: building strict-size cache: %v", err)
	}
	return &StrictSizeCache{cache: cache}, nil
}

// Get implements slabmemd.Cache.
func (c *StrictSizeCache) Get(key string) (slabmemd.CacheValue, bool) {
	return c.cache.Get(key)
}

// Set implements slabmemd.Cache. A value larger than the entire budget
// is rejected by otter's admission policy rather than stored and
// immediately evicted.
func (c *StrictSizeCache) Set(key string, value slabmemd.CacheValue) bool {
	return c.cache.Set(key, value)
}

// Close releases the underlying otter cache's background resources.
func (c *StrictSizeCache) Close() {
	c.cache.Close()
}
