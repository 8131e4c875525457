// acceptor.go: non-blocking accept loop feeding a bounded worker pool.
//
// Go's net package already gives every blocking call its own goroutine
// rather than exposing a user-level readiness selector, so this is the
// idiomatic rendering of spec §4.7's "selector + bounded worker pool"
// design: one goroutine loops on Accept, a bounded queue stands in for
// the selector's readiness set, and a pool of worker goroutines runs one
// CommandDispatcher turn per pop. A connection is never in the queue and
// in a worker's hands at the same time, so it is never serviced by two
// workers concurrently — the analogue of clearing a channel's interest
// set before handing it to a worker.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/agilira/slabmemd"
	"github.com/agilira/slabmemd/internal/protocol"
)

// Acceptor accepts connections on a listener and dispatches them through
// a bounded pool of workers running CommandDispatcher turns.
type Acceptor struct {
	listener net.Listener
	cache    slabmemd.Cache
	log      slabmemd.Logger

	queue *connQueue
	core  int
	max   int

	running atomic.Int64
	wg      sync.WaitGroup
}

// NewAcceptor builds an Acceptor. queueCap bounds the number of
// connections waiting for a worker; core workers are started immediately,
// and up to max are started on demand as the queue backs up.
func NewAcceptor(listener net.Listener, cache slabmemd.Cache, queueCap, core, max int, log slabmemd.Logger) *Acceptor {
	if log == nil {
		log = slabmemd.NoopLogger()
	}
	if core < 1 {
		core = 1
	}
	if max < core {
		max = core
	}

	return &Acceptor{
		listener: listener,
		cache:    cache,
		log:      log,
		queue:    newConnQueue(queueCap),
		core:     core,
		max:      max,
	}
}

// Run accepts connections until the listener is closed or ctx is
// cancelled. It starts the core worker pool on entry and blocks until
// Accept fails (the caller is expected to close the listener to unblock
// it, per Service.Stop).
func (a *Acceptor) Run(ctx context.Context) {
	for i := 0; i < a.core; i++ {
		a.spawnWorker()
	}

	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			a.log.Warn("acceptor: accept failed", "err", err)
			continue
		}

		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}

		state := &connState{conn: conn, framer: protocol.NewLineFramer(conn)}
		if !a.queue.push(state) {
			conn.Close()
			return
		}

		a.maybeGrow()
	}
}

// maybeGrow starts one more worker if the queue is backing up and the
// pool hasn't reached max yet. Called both after a new accept and after
// a worker re-enqueues a connection, so a backlog built up entirely by
// pipelining on existing connections (no new accepts) can still grow
// the pool.
func (a *Acceptor) maybeGrow() {
	if a.queue.len() > 0 && a.running.Load() < int64(a.max) {
		a.spawnWorker()
	}
}

func (a *Acceptor) spawnWorker() {
	a.running.Add(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.running.Add(-1)
		a.workerLoop()
	}()
}

// workerLoop pops one connection at a time, runs exactly one
// CommandDispatcher turn, and re-enqueues the connection for its next
// turn unless that turn ended the connection.
func (a *Acceptor) workerLoop() {
	for {
		state, ok := a.queue.pop()
		if !ok {
			return
		}

		closeConn := protocol.HandleOnce(state.framer, state.conn, a.cache, a.log)
		if closeConn {
			state.conn.Close()
			continue
		}

		if !a.queue.push(state) {
			state.conn.Close()
			continue
		}
		a.maybeGrow()
	}
}

// closeQueue closes the work queue, unblocking any worker waiting on an
// empty queue and any accept loop blocked pushing into a full one.
func (a *Acceptor) closeQueue() {
	a.queue.closeQueue()
}

// wait returns a channel closed once every worker goroutine has exited.
func (a *Acceptor) wait() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	return done
}

// drainQueue removes and returns every connection still parked in the
// queue. Intended to be called after wait() so no worker is still
// touching those connections.
func (a *Acceptor) drainQueue() []*connState {
	return a.queue.drain()
}
