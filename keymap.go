// keymap.go: the hash table behind each SlabCache's KeyMap, keyed by a
// dolthub/maphash Hasher rather than Go's built-in map hashing.
//
// Copyright (c) 2025 AGILira
// SPDX-License-Identifier: MPL-2.0

package slabmemd

import "github.com/dolthub/maphash"

const (
	initialKeyMapBuckets = 16
	keyMapLoadFactor     = 4
)

// keyMap is a chained-bucket hash table from key to *keyEntry. It is not
// safe for concurrent use on its own — every call is made while the
// owning SlabCache's mapLock is held.
type keyMap struct {
	hasher  maphash.Hasher[string]
	buckets [][]*keyEntry
	count   int
}

func newKeyMap() *keyMap {
	return &keyMap{
		hasher:  maphash.NewHasher[string](),
		buckets: make([][]*keyEntry, initialKeyMapBuckets),
	}
}

func (m *keyMap) bucketIndex(key string) int {
	return int(m.hasher.Hash(key) % uint64(len(m.buckets)))
}

// Get returns the entry for key, if any.
func (m *keyMap) Get(key string) (*keyEntry, bool) {
	for _, e := range m.buckets[m.bucketIndex(key)] {
		if e.key == key {
			return e, true
		}
	}
	return nil, false
}

// Put installs entry under key, replacing any existing entry for the
// same key.
func (m *keyMap) Put(key string, entry *keyEntry) {
	idx := m.bucketIndex(key)
	for i, e := range m.buckets[idx] {
		if e.key == key {
			m.buckets[idx][i] = entry
			return
		}
	}

	m.buckets[idx] = append(m.buckets[idx], entry)
	m.count++
	if m.count > len(m.buckets)*keyMapLoadFactor {
		m.grow()
	}
}

// Delete removes key, if present.
func (m *keyMap) Delete(key string) {
	idx := m.bucketIndex(key)
	bucket := m.buckets[idx]
	for i, e := range bucket {
		if e.key == key {
			bucket[i] = bucket[len(bucket)-1]
			m.buckets[idx] = bucket[:len(bucket)-1]
			m.count--
			return
		}
	}
}

// Len returns the number of keys currently stored.
func (m *keyMap) Len() int { return m.count }

// grow doubles the bucket count and rehashes every entry into it. Called
// whenever the load factor is exceeded on insert.
func (m *keyMap) grow() {
	old := m.buckets
	m.buckets = make([][]*keyEntry, len(old)*2)
	for _, bucket := range old {
		for _, e := range bucket {
			idx := m.bucketIndex(e.key)
			m.buckets[idx] = append(m.buckets[idx], e)
		}
	}
}
