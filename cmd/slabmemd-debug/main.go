// cmd/slabmemd-debug: a small liveness probe and CPU profiler for a
// running slabmemd instance. Not part of the core; kept small since
// spec.md explicitly excludes CLI tooling detail, and exists only to
// exercise the teacher's runtime/pprof idiom (cmd/profiler/main.go)
// against this repository's own protocol.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"runtime/pprof"
	"time"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:11211", "address of the running slabmemd instance")
	profilePath := flag.String("cpuprofile", "", "write a CPU profile of this probe to this path")
	flag.Parse()

	if *profilePath != "" {
		f, err := os.Create(*profilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "slabmemd-debug: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "slabmemd-debug: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	key := fmt.Sprintf("slabmemd-debug-probe-%d", time.Now().UnixNano())

	if err := probe(*addr, key); err != nil {
		fmt.Fprintf(os.Stderr, "slabmemd-debug: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("slabmemd-debug: server is alive and answering get/set")
}

// probe opens one connection, stores a synthetic key, reads it back, and
// confirms the round trip to report liveness.
func probe(addr, key string) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	r := bufio.NewReader(conn)

	fmt.Fprintf(conn, "set %s 0 0 4\r\nping\r\n", key)
	stored, err := r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read set response: %w", err)
	}
	if stored != "STORED\r\n" {
		return fmt.Errorf("unexpected set response: %q", stored)
	}

	fmt.Fprintf(conn, "get %s\r\n", key)
	valueLine, err := r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read get response: %w", err)
	}
	if valueLine == "END\r\n" {
		return fmt.Errorf("probe key missing immediately after set")
	}

	// consume "ping\r\n" and the trailing "END\r\n"
	if _, err := r.ReadString('\n'); err != nil {
		return fmt.Errorf("read data line: %w", err)
	}
	if _, err := r.ReadString('\n'); err != nil {
		return fmt.Errorf("read terminator: %w", err)
	}

	return nil
}
