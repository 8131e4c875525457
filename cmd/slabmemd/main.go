// cmd/slabmemd: the cache server's entry point. No flags: every size is
// fixed at compile time via slabmemd.DefaultConfig, overridable only
// through slabmemd.json or an embedder's SetGlobalConfig call (spec §6).
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/agilira/slabmemd"
	"github.com/agilira/slabmemd/internal/server"
)

func main() {
	logger := newStdLogger()

	config := slabmemd.LoadConfig()
	logger.Info("config loaded", "source", slabmemd.ConfigSource(), "addr", config.ListenAddr)

	pool, err := slabmemd.NewPagePool(config.MaxBytes)
	if err != nil {
		log.Fatalf("slabmemd: %v", err)
	}

	router := slabmemd.NewSlabRouter(pool, slabmemd.DefaultSlabSizes(), logger)

	core := maxInt(1, runtime.NumCPU()/2)
	max := maxInt(core, runtime.NumCPU())

	svc := server.NewTCPService(
		config.ListenAddr,
		router,
		server.WithLogger(logger),
		server.WithWorkerPool(config.WorkerQueueCapacity, core, max),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("slabmemd: %v", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Fatalf("slabmemd: shutdown: %v", err)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
