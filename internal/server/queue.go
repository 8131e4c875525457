// queue.go: bounded FIFO of connections awaiting service, shared between
// the acceptor and the worker pool.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package server

import (
	"net"
	"sync"

	"github.com/agilira/slabmemd/internal/protocol"
	"github.com/gammazero/deque"
)

// connState is a connection paired with the LineFramer reading it. The
// framer is created once per connection and travels with it through the
// queue so buffered-but-unconsumed bytes survive between request turns
// (spec §9: buffering must not lose bytes across commands).
type connState struct {
	conn   net.Conn
	framer *protocol.LineFramer
}

// connQueue is a bounded, concurrency-safe FIFO. push blocks while the
// queue is full; pop blocks while it is empty. Both unblock and fail once
// the queue is closed.
type connQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  deque.Deque[*connState]
	cap    int
	closed bool
}

func newConnQueue(capacity int) *connQueue {
	q := &connQueue{cap: capacity}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues s, blocking while the queue is at capacity. It returns
// false if the queue was (or became) closed before s could be enqueued.
func (q *connQueue) push(s *connState) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Len() >= q.cap && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return false
	}

	q.items.PushBack(s)
	q.cond.Signal()
	return true
}

// pop dequeues the next connection, blocking until one is available. It
// returns false once the queue is closed and empty.
func (q *connQueue) pop() (*connState, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Len() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.items.Len() == 0 {
		return nil, false
	}

	s := q.items.PopFront()
	q.cond.Signal()
	return s, true
}

// len returns the current queue depth. Advisory only.
func (q *connQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// closeQueue marks the queue closed and wakes every blocked push/pop.
func (q *connQueue) closeQueue() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// drain removes and returns every connection still parked in the queue.
// Used at shutdown, after workers have stopped, to close leftover
// connections.
func (q *connQueue) drain() []*connState {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*connState, 0, q.items.Len())
	for q.items.Len() > 0 {
		out = append(out, q.items.PopFront())
	}
	return out
}
