// service.go: the start/stop contract the cache is served through.
//
// Grounded on the pack's graceful-shutdown idiom (torua's cmd/node and
// cmd/coordinator main.go: signal.Notify + a bounded-context Shutdown),
// adapted from http.Server.Shutdown to this package's own Service, since
// there is no net/http server underneath a raw memcached-text listener.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package server

import (
	"context"
	"net"
	"time"

	"github.com/agilira/slabmemd"
)

// shutdownBudget bounds how long Stop waits for in-flight workers to
// finish their current turn before it closes the connections still parked
// in the queue. Connections a worker is still holding are not closed by
// Stop.
const shutdownBudget = time.Minute

// Service is the start/stop contract spec.md's collaborators expose the
// core through.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// TCPService listens on a TCP address and serves the memcached-text
// protocol against a slabmemd.Cache.
type TCPService struct {
	addr  string
	cache slabmemd.Cache
	log   slabmemd.Logger

	queueCap int
	core     int
	max      int

	listener net.Listener
	acceptor *Acceptor
}

// TCPServiceOption configures optional fields of a TCPService.
type TCPServiceOption func(*TCPService)

// WithLogger installs a Logger. The default is a no-op logger.
func WithLogger(log slabmemd.Logger) TCPServiceOption {
	return func(s *TCPService) { s.log = log }
}

// WithWorkerPool overrides the queue capacity and core/max worker counts.
// Zero values fall back to the package defaults.
func WithWorkerPool(queueCap, core, max int) TCPServiceOption {
	return func(s *TCPService) {
		s.queueCap = queueCap
		s.core = core
		s.max = max
	}
}

// NewTCPService builds a Service that will serve cache on addr once
// Start is called.
func NewTCPService(addr string, cache slabmemd.Cache, opts ...TCPServiceOption) *TCPService {
	s := &TCPService{
		addr:     addr,
		cache:    cache,
		log:      slabmemd.NoopLogger(),
		queueCap: 1024,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.queueCap == 0 {
		s.queueCap = 1024
	}
	if s.core == 0 {
		s.core = 1
	}
	if s.max == 0 {
		s.max = s.core
	}

	return s
}

// Start binds the listen address and runs the accept loop until Stop
// closes the listener. It returns once the listener is bound; the accept
// loop itself runs in its own goroutine. The loop checks ctx only when
// Accept returns an error, so cancelling ctx alone does not stop it.
func (s *TCPService) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return slabmemd.NewInternalError("server: listen failed", err)
	}

	s.listener = ln
	s.acceptor = NewAcceptor(ln, s.cache, s.queueCap, s.core, s.max, s.log)

	s.log.Info("server: listening", "addr", s.addr)
	go s.acceptor.Run(ctx)

	return nil
}

// Stop closes the listener (no new connections), closes the work queue
// (unblocking idle workers), waits up to shutdownBudget for in-flight
// workers to finish their current turn, then force-closes any
// connections still parked in the queue.
func (s *TCPService) Stop(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}

	_ = s.listener.Close()
	s.acceptor.closeQueue()

	deadline := time.NewTimer(shutdownBudget)
	defer deadline.Stop()

	select {
	case <-s.acceptor.wait():
	case <-deadline.C:
		s.log.Warn("server: shutdown budget exceeded, forcing close")
	case <-ctx.Done():
	}

	for _, conn := range s.acceptor.drainQueue() {
		conn.conn.Close()
	}

	s.log.Info("server: stopped")
	return nil
}
