// framer.go: delimiter and fixed-length reads over a connection.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package protocol

import (
	"bufio"
	"errors"
	"io"

	"github.com/agilira/slabmemd"
)

// ErrPeerClosed is returned by LineFramer reads when the connection was
// closed cleanly (at a frame boundary or mid-frame). The dispatcher stops
// and closes the connection without writing a response.
var ErrPeerClosed = errors.New("protocol: peer closed connection")

// LineFramer reads delimiter-terminated fields and fixed-length payloads
// from a connection. It buffers internally (via bufio.Reader) but never
// reads past a delimiter it hasn't yet returned to the caller, so a
// second command on the same connection starts exactly where the last
// one left off.
type LineFramer struct {
	r *bufio.Reader
}

// NewLineFramer wraps r for delimited and fixed-length reads.
func NewLineFramer(r io.Reader) *LineFramer {
	return &LineFramer{r: bufio.NewReader(r)}
}

// ReadUntil returns all bytes read before the first occurrence of delim,
// not including delim itself. A byte sequence that partially matches
// delim and then diverges is a protocol violation (spec §4.5): e.g. a
// bare '\r' not followed by '\n' when delim is "\r\n".
func (f *LineFramer) ReadUntil(delim []byte) ([]byte, error) {
	var buf []byte
	matched := 0

	for {
		b, err := f.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, ErrPeerClosed
			}
			return nil, slabmemd.NewInternalError("protocol: read failed", err)
		}

		if b == delim[matched] {
			matched++
			if matched == len(delim) {
				return buf, nil
			}
			continue
		}

		if matched > 0 {
			return nil, slabmemd.NewProtocolError("partial delimiter followed by mismatch")
		}

		buf = append(buf, b)
	}
}

// ReadExact blocks until exactly n bytes have been read, returning them.
func (f *LineFramer) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(f.r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrPeerClosed
		}
		return nil, slabmemd.NewInternalError("protocol: read failed", err)
	}
	return buf, nil
}
