// Package slabmemd implements a slab-paged, in-memory key/value cache with
// per-slab LRU eviction, fronted by a subset of the memcached text
// protocol (see internal/protocol and internal/server).
//
// Architecture:
//
//	┌──────────────────────────────────────────────────────┐
//	│                      PagePool                        │
//	│   fixed pool of 16 MiB pages, handed out once         │
//	└───────────────────────┬────────────────────────────────┘
//	                        │ acquire()
//	            ┌───────────┴───────────┐
//	            ▼                       ▼
//	      ┌───────────┐           ┌───────────┐   ... 10 slabs
//	      │   Slab    │           │   Slab    │       (16B .. 4MiB,
//	      │ slot_size │           │ slot_size │        factor 4)
//	      └─────┬─────┘           └─────┬─────┘
//	            │ get_slot/put_slot     │
//	            ▼                       ▼
//	      ┌───────────┐           ┌───────────┐
//	      │ SlabCache │           │ SlabCache │
//	      │ KeyMap+LRU│           │ KeyMap+LRU│
//	      └─────┬─────┘           └─────┬─────┘
//	            └───────────┬───────────┘
//	                        ▼
//	                  ┌───────────┐
//	                  │SlabRouter │  set: by size, get: broadcast
//	                  └───────────┘
//
// A `set` installs a key in the smallest slab whose slot size fits the
// value's serialized size. An older copy of the same key in a different
// slab is not removed, so a key re-set with a value of a different size
// class can live in two slabs at once (see SlabRouter). Because
// `get` carries no size hint, SlabRouter broadcasts lookups to every slab
// in parallel and returns the first hit.
//
// Pages are permanent property of the first slab that acquires one; there
// is no cross-slab rebalancing. This is a deliberate simplification
// inherited from the design this cache implements, not an oversight.
package slabmemd
