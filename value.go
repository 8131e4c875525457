// value.go: CacheValue and its fixed binary layout inside a slot.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package slabmemd

import (
	"bytes"
	"encoding/binary"
	"sync"
)

// headerSize is the serialized size of the flags+bytes header that
// precedes every value's payload inside a slot.
const headerSize = 6 // 2 bytes flags + 4 bytes length

// CacheValue is the opaque payload stored under a key: 16-bit flags
// (caller-defined, passed through unchanged), a byte count, and the
// payload itself.
type CacheValue struct {
	Flags uint16
	Bytes uint32
	Data  []byte
}

// SerializedSize returns 6 + len(Data), the number of bytes this value
// occupies once serialized into a slot.
func (v CacheValue) SerializedSize() int {
	return headerSize + len(v.Data)
}

// Equal reports whether two values are structurally identical.
func (v CacheValue) Equal(other CacheValue) bool {
	return v.Flags == other.Flags && v.Bytes == other.Bytes && bytes.Equal(v.Data, other.Data)
}

var headerPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

func getHeaderBuf() *bytes.Buffer {
	return headerPool.Get().(*bytes.Buffer)
}

func putHeaderBuf(buf *bytes.Buffer) {
	buf.Reset()
	headerPool.Put(buf)
}

// serializeValue writes v's 6-byte header followed by its payload into
// dst, which must be at least v.SerializedSize() bytes long (the caller
// is responsible for checking this against the owning slab's slot size
// before calling).
func serializeValue(dst []byte, v CacheValue) {
	buf := getHeaderBuf()
	defer putHeaderBuf(buf)

	var hdr [headerSize]byte
	binary.BigEndian.PutUint16(hdr[0:2], v.Flags)
	binary.BigEndian.PutUint32(hdr[2:6], v.Bytes)
	buf.Write(hdr[:])

	copy(dst, buf.Bytes())
	copy(dst[headerSize:], v.Data)
}

// deserializeValue reads a CacheValue out of a slot's bytes. src must be
// exactly the slot's full slot_size; only the first headerSize+bytes
// bytes (per the header's length field) are consulted. It returns an
// error if the embedded length would read past src — a malformed slot,
// which should never happen given invariant 1 of the data model.
func deserializeValue(src []byte) (CacheValue, error) {
	if len(src) < headerSize {
		return CacheValue{}, NewInternalError("slabmemd: slot shorter than header", nil)
	}

	flags := binary.BigEndian.Uint16(src[0:2])
	length := binary.BigEndian.Uint32(src[2:6])

	end := headerSize + int(length)
	if end > len(src) {
		return CacheValue{}, NewInternalError("slabmemd: slot value length exceeds slot size", nil)
	}

	data := make([]byte, length)
	copy(data, src[headerSize:end])

	return CacheValue{Flags: flags, Bytes: length, Data: data}, nil
}
