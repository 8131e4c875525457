// page.go: fixed-size pages and the pool that owns them.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package slabmemd

import (
	"sync"

	"github.com/gammazero/deque"
)

// PageSize is the fixed size of every page, in bytes (16 MiB).
const PageSize = 16 << 20

// Page is a contiguous mutable byte region of fixed size PageSize,
// created once at startup and never freed during the cache's lifetime.
// Identity equals address: a *Page belongs to at most one Slab once
// acquired.
type Page struct {
	Bytes []byte
}

func newPage() *Page {
	return &Page{Bytes: make([]byte, PageSize)}
}

// PagePool owns a fixed pool of equal-sized pages and hands them out
// once. There is no release: pages are permanent property of the first
// slab that acquires one.
type PagePool struct {
	mu    sync.Mutex
	free  deque.Deque[*Page]
	total int
}

// NewPagePool allocates floor(maxBytes/PageSize) pages up front. It
// returns a ConfigError if maxBytes is smaller than a single page.
func NewPagePool(maxBytes int64) (*PagePool, error) {
	if maxBytes < PageSize {
		return nil, NewConfigError("slabmemd: max_bytes %d is smaller than page size %d", maxBytes, PageSize)
	}

	count := int(maxBytes / PageSize)
	p := &PagePool{total: count}
	for i := 0; i < count; i++ {
		p.free.PushBack(newPage())
	}
	return p, nil
}

// Acquire returns a free page, or nil if the pool is exhausted. It is
// thread-safe and runs as a single O(1) critical section.
func (p *PagePool) Acquire() *Page {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.free.Len() == 0 {
		return nil
	}
	return p.free.PopFront()
}

// TotalPages returns the number of pages the pool was constructed with.
func (p *PagePool) TotalPages() int {
	return p.total
}

// Available returns the current number of unacquired pages. Intended for
// diagnostics only; the count can change the instant after it's read.
func (p *PagePool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free.Len()
}
