// dispatcher.go: parses one request per connection turn, invokes the
// cache, and writes the response.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package protocol

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/agilira/slabmemd"
)

var crlf = []byte("\r\n")

// HandleOnce services exactly one request on conn: it reads a 4-byte verb,
// dispatches to get or set, writes the response, and reports whether the
// connection must be closed (peer closed, unknown verb, or an internal
// failure). A CLIENT_ERROR response never closes the connection.
func HandleOnce(f *LineFramer, w io.Writer, cache slabmemd.Cache, log slabmemd.Logger) bool {
	if log == nil {
		log = slabmemd.NoopLogger()
	}

	header, err := f.ReadExact(4)
	if err != nil {
		if errors.Is(err, ErrPeerClosed) {
			return true
		}
		writeErrorLine(w, "SERVER_ERROR", err)
		return true
	}

	switch string(header) {
	case "get ":
		return handleGet(f, w, cache, log)
	case "set ":
		return handleSet(f, w, cache, log)
	default:
		writeLine(w, "ERROR\r\n")
		return true
	}
}

func handleGet(f *LineFramer, w io.Writer, cache slabmemd.Cache, log slabmemd.Logger) bool {
	keyBytes, err := f.ReadUntil(crlf)
	if closed, fatal := classifyReadErr(w, err); closed {
		return fatal
	}

	key := string(keyBytes)
	if verr := validateKey(key); verr != nil {
		writeErrorLine(w, "CLIENT_ERROR", verr)
		return false
	}

	value, ok := cache.Get(key)
	if !ok {
		writeLine(w, "END\r\n")
		return false
	}

	fmt.Fprintf(w, "VALUE %s %d %d\r\n", key, value.Flags, len(value.Data))
	w.Write(value.Data)
	writeLine(w, "\r\n")
	writeLine(w, "END\r\n")
	return false
}

func handleSet(f *LineFramer, w io.Writer, cache slabmemd.Cache, log slabmemd.Logger) bool {
	keyBytes, err := f.ReadUntil([]byte(" "))
	if closed, fatal := classifyReadErr(w, err); closed {
		return fatal
	}

	key := string(keyBytes)
	if verr := validateKey(key); verr != nil {
		writeErrorLine(w, "CLIENT_ERROR", verr)
		return false
	}

	restBytes, err := f.ReadUntil(crlf)
	if closed, fatal := classifyReadErr(w, err); closed {
		return fatal
	}

	fields := strings.Fields(string(restBytes))
	noreply := false
	if len(fields) == 4 && fields[3] == "noreply" {
		noreply = true
		fields = fields[:3]
	}
	if len(fields) != 3 {
		writeErrorLine(w, "CLIENT_ERROR", errors.New("wrong number of arguments"))
		return false
	}

	flags, e1 := strconv.ParseUint(fields[0], 10, 16)
	_, e2 := strconv.ParseInt(fields[1], 10, 64) // exptime: parsed, validated, ignored (spec §9)
	byteLen, e3 := strconv.ParseUint(fields[2], 10, 32)
	if e1 != nil || e2 != nil || e3 != nil {
		writeErrorLine(w, "CLIENT_ERROR", errors.New("bad command line format"))
		return false
	}

	payload, err := f.ReadExact(int(byteLen))
	if closed, fatal := classifyReadErr(w, err); closed {
		return fatal
	}

	trailer, err := f.ReadExact(2)
	if closed, fatal := classifyReadErr(w, err); closed {
		return fatal
	}
	if string(trailer) != "\r\n" {
		writeErrorLine(w, "CLIENT_ERROR", errors.New("bad data chunk"))
		return false
	}

	value := slabmemd.CacheValue{Flags: uint16(flags), Bytes: uint32(byteLen), Data: payload}
	ok := cache.Set(key, value)

	if noreply {
		return false
	}
	if ok {
		writeLine(w, "STORED\r\n")
	} else {
		writeLine(w, "NOT_STORED\r\n")
	}
	return false
}

// classifyReadErr translates a LineFramer error into a (shouldStop,
// fatal) pair: shouldStop is true whenever the caller must stop
// processing this command; fatal additionally means the connection must
// be closed (peer closed, or an internal I/O failure reported as
// SERVER_ERROR). A ProtocolError is reported as CLIENT_ERROR and is not
// fatal — the caller may continue serving the connection.
func classifyReadErr(w io.Writer, err error) (shouldStop, fatal bool) {
	if err == nil {
		return false, false
	}
	if errors.Is(err, ErrPeerClosed) {
		return true, true
	}

	var protoErr *slabmemd.ProtocolError
	if errors.As(err, &protoErr) {
		writeErrorLine(w, "CLIENT_ERROR", protoErr)
		return true, false
	}

	writeErrorLine(w, "SERVER_ERROR", err)
	return true, true
}

// validateKey enforces spec §4.6: 1..250 bytes, no spaces, no control
// characters.
func validateKey(key string) error {
	if len(key) == 0 || len(key) > 250 {
		return fmt.Errorf("key length %d out of range [1,250]", len(key))
	}
	for _, b := range []byte(key) {
		if b <= 0x20 || b == 0x7f {
			return errors.New("key contains space or control character")
		}
	}
	return nil
}

func writeLine(w io.Writer, s string) {
	_, _ = io.WriteString(w, s)
}

func writeErrorLine(w io.Writer, tag string, err error) {
	fmt.Fprintf(w, "%s %s\r\n", tag, err.Error())
}
