// slab.go: per-slot-size allocator over pages handed out by a PagePool.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package slabmemd

import (
	"sync"

	"github.com/gammazero/deque"
)

// slotRef names a fixed-length region inside a page: [offset, offset+size),
// paired with the exclusive mutex that guards those bytes for the slot's
// entire lifetime. The mutex is allocated once, when the page is first
// split into slots, and travels with the slot through eviction and reuse.
type slotRef struct {
	page   *Page
	offset int
	mu     *sync.Mutex
}

func (s slotRef) bytes(size int) []byte {
	return s.page.Bytes[s.offset : s.offset+size]
}

// Slab is a per-slot-size allocator: it owns whichever pages it has
// acquired from a PagePool and maintains a freelist of slots cut from
// them. A slot returned by getSlot is owned by the caller until putSlot
// or until it is installed in a SlabCache's KeyMap.
type Slab struct {
	slotSize      int
	pool          *PagePool
	mu            sync.Mutex
	free          deque.Deque[slotRef]
	poolExhausted bool // sticky: once the backing pool is empty, stop asking
}

// NewSlab creates a Slab for a fixed slotSize backed by pool. PageSize
// must be an integer multiple of slotSize.
func NewSlab(slotSize int, pool *PagePool) *Slab {
	return &Slab{slotSize: slotSize, pool: pool}
}

// SlotSize returns the fixed slot size this slab serves.
func (s *Slab) SlotSize() int { return s.slotSize }

// getSlot returns a free slot, or the zero slotRef and false if none is
// available: the freelist is empty and the backing PagePool is (or has
// become) exhausted.
func (s *Slab) getSlot() (slotRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.free.Len() > 0 {
		return s.free.PopFront(), true
	}

	if s.poolExhausted {
		return slotRef{}, false
	}

	page := s.pool.Acquire()
	if page == nil {
		s.poolExhausted = true
		return slotRef{}, false
	}

	slotsPerPage := PageSize / s.slotSize
	for i := 0; i < slotsPerPage; i++ {
		s.free.PushBack(slotRef{page: page, offset: i * s.slotSize, mu: new(sync.Mutex)})
	}

	return s.free.PopFront(), true
}

// putSlot returns a slot to the freelist.
func (s *Slab) putSlot(ref slotRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.free.PushBack(ref)
}
