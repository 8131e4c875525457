// logger.go: the stdlib-backed Logger wired into the running server.
//
// The core's Logger interface is pluggable (see ../../logger.go); this
// binary backs it with the standard log package rather than a
// third-party structured logger, matching the teacher's own habit of
// never wiring one of its own to its Logger interface.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"log"
	"os"
	"time"
)

const shutdownGrace = time.Minute

type stdLogger struct {
	l *log.Logger
}

func newStdLogger() *stdLogger {
	return &stdLogger{l: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *stdLogger) log(level, msg string, fields ...interface{}) {
	s.l.Println(append([]interface{}{level, msg}, fields...)...)
}

func (s *stdLogger) Debug(msg string, fields ...interface{}) { s.log("DEBUG", msg, fields...) }
func (s *stdLogger) Info(msg string, fields ...interface{})  { s.log("INFO", msg, fields...) }
func (s *stdLogger) Warn(msg string, fields ...interface{})  { s.log("WARN", msg, fields...) }
func (s *stdLogger) Error(msg string, fields ...interface{}) { s.log("ERROR", msg, fields...) }
