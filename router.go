// router.go: routes `set` to the smallest fitting slab and broadcasts
// `get` across all slabs.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package slabmemd

import (
	"context"
	"sort"
	"sync"
)

// SlabRouter owns every SlabCache and is the repository's top-level
// Cache. `set` is routed deterministically by size; `get` carries no
// size hint, so it fans out to every slab in parallel and returns the
// first hit.
//
// Cross-slab key collisions: a `set` never migrates an existing copy of
// a key out of a smaller or larger slab it may already live in — doing
// so would mean probing every other slab on every `set`. If the same key
// is set twice with values that land in different slabs, the older copy
// is left behind in its original slab. This is an accepted, documented
// hazard, not a bug: a stricter router would broadcast a delete before
// every install.
type SlabRouter struct {
	slabs []*SlabCache // ascending by slot size
	log   Logger
}

// DefaultSlabSizes returns the ten slot sizes this cache uses: 16*4^i
// bytes for i = 0..9 (16 B up to 4 MiB), ascending.
func DefaultSlabSizes() []int {
	sizes := make([]int, 10)
	size := 16
	for i := range sizes {
		sizes[i] = size
		size *= 4
	}
	return sizes
}

// NewSlabRouter builds one SlabCache per entry in slotSizes (which need
// not be sorted; NewSlabRouter sorts a copy) against the shared pool.
func NewSlabRouter(pool *PagePool, slotSizes []int, log Logger) *SlabRouter {
	if log == nil {
		log = NoopLogger()
	}

	sizes := append([]int(nil), slotSizes...)
	sort.Ints(sizes)

	slabs := make([]*SlabCache, len(sizes))
	for i, size := range sizes {
		slabs[i] = NewSlabCache(NewSlab(size, pool), log)
	}

	return &SlabRouter{slabs: slabs, log: log}
}

// Set picks the smallest slab whose slot size fits value's serialized
// size and delegates to it. It returns false if value is larger than
// every slab's slot size, or if the chosen slab refused the write
// (exhausted memory with nothing left to evict).
func (r *SlabRouter) Set(key string, value CacheValue) bool {
	size := value.SerializedSize()

	idx := sort.Search(len(r.slabs), func(i int) bool {
		return r.slabs[i].SlotSize() >= size
	})
	if idx == len(r.slabs) {
		r.log.Warn("router: value too large for any slab", "key", key, "size", size)
		return false
	}

	ok := r.slabs[idx].Set(key, value)
	if !ok {
		r.log.Debug("router: slab refused set", "key", key, "slot_size", r.slabs[idx].SlotSize())
	}
	return ok
}

// Get broadcasts to every slab in parallel and returns the first
// non-null result. Once one slab answers, the remaining lookups are
// cancelled cooperatively: a lookup already past its cancellation check
// runs to completion rather than being torn down mid-read.
func (r *SlabRouter) Get(key string) (CacheValue, bool) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		value CacheValue
		ok    bool
	}

	results := make(chan result, len(r.slabs))
	var wg sync.WaitGroup

	for _, slab := range r.slabs {
		wg.Add(1)
		go func(s *SlabCache) {
			defer wg.Done()

			if ctx.Err() != nil {
				return
			}

			value, ok := s.Get(key)

			if ctx.Err() != nil {
				return
			}

			if ok {
				select {
				case results <- result{value, true}:
				default:
				}
			}
		}(slab)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case res := <-results:
		cancel()
		return res.value, res.ok
	case <-done:
		select {
		case res := <-results:
			return res.value, res.ok
		default:
			return CacheValue{}, false
		}
	}
}

// Slabs returns the router's SlabCaches, ascending by slot size.
// Intended for tests and diagnostics.
func (r *SlabRouter) Slabs() []*SlabCache {
	return append([]*SlabCache(nil), r.slabs...)
}
