// slabcache.go: a single slab's key->slot map, LRU list, and the Cache
// contract (get/set) built on top of them.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package slabmemd

import (
	"container/list"
	"sync"
)

// Cache is the contract every cache implementation in this repository
// satisfies — the core SlabCache/SlabRouter, and the experimental
// variants in internal/altcache.
type Cache interface {
	Get(key string) (CacheValue, bool)
	Set(key string, value CacheValue) bool
}

// SlabCache is one slab's worth of cache: a Slab allocator, a KeyMap from
// key to slot, and an LRUList ordering live keys oldest-to-newest.
//
// Locking discipline: mapLock guards KeyMap and the LRU list together;
// each slot has its own mutex guarding its bytes. The order is always
// mapLock -> slot mutex, mapLock released before slot I/O, never the
// reverse.
type SlabCache struct {
	slab *Slab

	mapLock sync.Mutex
	keys    *keyMap
	lru     *list.List // of *keyEntry, front = oldest, back = newest

	log Logger
}

// keyEntry is the value stored in KeyMap: the slot holding the key's
// current value, and this key's position in the LRU list.
type keyEntry struct {
	key   string
	slot  slotRef
	lruEl *list.Element
}

// NewSlabCache creates a SlabCache for the given Slab.
func NewSlabCache(slab *Slab, log Logger) *SlabCache {
	if log == nil {
		log = NoopLogger()
	}
	return &SlabCache{
		slab: slab,
		keys: newKeyMap(),
		lru:  list.New(),
		log:  log,
	}
}

// SlotSize returns the fixed slot size of the underlying slab.
func (c *SlabCache) SlotSize() int { return c.slab.SlotSize() }

// Get implements Cache. It looks up key under mapLock, promotes it to
// the LRU tail, then deserializes the slot bytes under only the slot's
// own mutex.
func (c *SlabCache) Get(key string) (CacheValue, bool) {
	c.mapLock.Lock()
	entry, ok := c.keys.Get(key)
	if !ok {
		c.mapLock.Unlock()
		return CacheValue{}, false
	}

	mu := entry.slot.mu
	mu.Lock()
	c.lru.MoveToBack(entry.lruEl)
	c.mapLock.Unlock()

	value, err := deserializeValue(entry.slot.bytes(c.slab.SlotSize()))
	mu.Unlock()
	if err != nil {
		c.log.Error("slab cache: slot deserialization failed", "key", key, "err", err)
		return CacheValue{}, false
	}

	return value, true
}

// Set implements Cache. It returns false if value is too large for this
// slab's slot size, or if no slot could be obtained (the backing Slab's
// freelist and PagePool are both exhausted and the LRU has nothing to
// evict).
func (c *SlabCache) Set(key string, value CacheValue) bool {
	size := value.SerializedSize()
	if size > c.slab.SlotSize() {
		return false
	}

	c.mapLock.Lock()

	var ref slotRef
	entry, reused := c.keys.Get(key)
	switch {
	case reused:
		ref = entry.slot
		c.lru.Remove(entry.lruEl)
	default:
		if s, ok := c.slab.getSlot(); ok {
			ref = s
		} else if c.lru.Len() > 0 {
			victim := c.lru.Front()
			victimEntry := victim.Value.(*keyEntry)
			c.lru.Remove(victim)
			c.keys.Delete(victimEntry.key)
			ref = victimEntry.slot
		} else {
			c.mapLock.Unlock()
			return false
		}
		entry = &keyEntry{key: key}
	}

	mu := ref.mu
	mu.Lock()
	c.mapLock.Unlock()

	serializeValue(ref.bytes(c.slab.SlotSize()), value)
	mu.Unlock()

	c.mapLock.Lock()
	entry.slot = ref
	entry.lruEl = c.lru.PushBack(entry)
	c.keys.Put(key, entry)
	c.mapLock.Unlock()

	return true
}

// Len returns the number of live keys in this slab. Intended for tests
// and diagnostics.
func (c *SlabCache) Len() int {
	c.mapLock.Lock()
	defer c.mapLock.Unlock()
	return c.lru.Len()
}
