// errors.go: error taxonomy for the slab cache and its protocol layer.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package slabmemd

import "fmt"

// ProtocolError represents a client-visible, recoverable request error:
// bad key, bad integers, wrong argument count. The dispatcher responds
// CLIENT_ERROR and keeps the connection open. An unknown verb is handled
// separately: the dispatcher responds ERROR and closes the connection.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return e.Msg }

// NewProtocolError builds a ProtocolError with a formatted message.
func NewProtocolError(format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...)}
}

// ConfigError represents an invalid construction-time configuration, such
// as a PagePool budget smaller than a single page. It is never exposed
// over the wire: it can only occur while building a Cache, before any
// connection exists.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// NewConfigError builds a ConfigError with a formatted message.
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// CapacityError represents a refusal to store a value: it was too large
// for the largest slab, or the owning slab had no memory left to evict
// into. The dispatcher responds NOT_STORED and keeps the connection open.
type CapacityError struct {
	Msg string
}

func (e *CapacityError) Error() string { return e.Msg }

// InternalError represents a fatal, client-visible failure: slot
// deserialization failure, an invariant violation, or I/O failure other
// than a clean peer close. The dispatcher responds SERVER_ERROR and then
// closes the connection.
type InternalError struct {
	Msg string
	Err error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *InternalError) Unwrap() error { return e.Err }

// NewInternalError wraps err (which may be nil) as an InternalError.
func NewInternalError(msg string, err error) *InternalError {
	return &InternalError{Msg: msg, Err: err}
}
