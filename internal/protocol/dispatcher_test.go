package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agilira/slabmemd"
)

// fakeCache is a minimal in-memory slabmemd.Cache for exercising the
// dispatcher without a real slab allocator.
type fakeCache struct {
	values map[string]slabmemd.CacheValue
	full   bool // when true, Set always fails (capacity exhausted)
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]slabmemd.CacheValue)}
}

func (c *fakeCache) Get(key string) (slabmemd.CacheValue, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *fakeCache) Set(key string, value slabmemd.CacheValue) bool {
	if c.full {
		return false
	}
	c.values[key] = value
	return true
}

func dispatch(t *testing.T, cache *fakeCache, request string) (response string, closed bool) {
	t.Helper()
	f := NewLineFramer(strings.NewReader(request))
	var out bytes.Buffer
	closed = HandleOnce(f, &out, cache, nil)
	return out.String(), closed
}

// TestDispatcher_GetHit covers the get half of E1: a stored value is
// returned as a VALUE line, the data, and END.
func TestDispatcher_GetHit(t *testing.T) {
	cache := newFakeCache()
	cache.values["foo"] = slabmemd.CacheValue{Flags: 9, Bytes: 3, Data: []byte("bar")}

	resp, closed := dispatch(t, cache, "get foo\r\n")
	if closed {
		t.Fatal("expected the connection to stay open")
	}
	want := "VALUE foo 9 3\r\nbar\r\nEND\r\n"
	if resp != want {
		t.Errorf("got %q, want %q", resp, want)
	}
}

// TestDispatcher_GetMiss covers E2.
func TestDispatcher_GetMiss(t *testing.T) {
	cache := newFakeCache()
	resp, closed := dispatch(t, cache, "get missing\r\n")
	if closed {
		t.Fatal("expected the connection to stay open")
	}
	if resp != "END\r\n" {
		t.Errorf("got %q, want END\\r\\n", resp)
	}
}

func TestDispatcher_SetThenGet(t *testing.T) {
	cache := newFakeCache()

	resp, closed := dispatch(t, cache, "set foo 0 0 3\r\nbar\r\n")
	if closed {
		t.Fatal("expected the connection to stay open")
	}
	if resp != "STORED\r\n" {
		t.Errorf("got %q, want STORED\\r\\n", resp)
	}

	got, ok := cache.Get("foo")
	if !ok || string(got.Data) != "bar" {
		t.Errorf("expected foo=bar to be stored, got %+v ok=%v", got, ok)
	}
}

// TestDispatcher_SetZeroByteValue covers E3.
func TestDispatcher_SetZeroByteValue(t *testing.T) {
	cache := newFakeCache()
	resp, closed := dispatch(t, cache, "set empty 0 0 0\r\n\r\n")
	if closed {
		t.Fatal("expected the connection to stay open")
	}
	if resp != "STORED\r\n" {
		t.Errorf("got %q, want STORED\\r\\n", resp)
	}
	got, ok := cache.Get("empty")
	if !ok || len(got.Data) != 0 {
		t.Errorf("expected a zero-length value to be stored, got %+v ok=%v", got, ok)
	}
}

func TestDispatcher_SetNotStoredWhenCacheFull(t *testing.T) {
	cache := newFakeCache()
	cache.full = true

	resp, closed := dispatch(t, cache, "set foo 0 0 3\r\nbar\r\n")
	if closed {
		t.Fatal("expected the connection to stay open")
	}
	if resp != "NOT_STORED\r\n" {
		t.Errorf("got %q, want NOT_STORED\\r\\n", resp)
	}
}

func TestDispatcher_SetNoreplySuppressesResponse(t *testing.T) {
	cache := newFakeCache()
	resp, closed := dispatch(t, cache, "set foo 0 0 3 noreply\r\nbar\r\n")
	if closed {
		t.Fatal("expected the connection to stay open")
	}
	if resp != "" {
		t.Errorf("expected no response with noreply, got %q", resp)
	}
	if _, ok := cache.Get("foo"); !ok {
		t.Error("expected the value to be stored despite noreply")
	}
}

func TestDispatcher_SetExptimeIsParsedAndIgnored(t *testing.T) {
	cache := newFakeCache()
	resp, closed := dispatch(t, cache, "set foo 0 12345 3\r\nbar\r\n")
	if closed {
		t.Fatal("expected the connection to stay open")
	}
	if resp != "STORED\r\n" {
		t.Errorf("got %q, want STORED\\r\\n", resp)
	}
}

// TestDispatcher_UnknownVerb covers E6.
func TestDispatcher_UnknownVerb(t *testing.T) {
	cache := newFakeCache()
	resp, closed := dispatch(t, cache, "frob\r\n")
	if !closed {
		t.Fatal("expected an unknown verb to close the connection")
	}
	if resp != "ERROR\r\n" {
		t.Errorf("got %q, want ERROR\\r\\n", resp)
	}
}

func TestDispatcher_GetRejectsInvalidKey(t *testing.T) {
	cache := newFakeCache()
	resp, closed := dispatch(t, cache, "get bad key\r\n")
	if closed {
		t.Fatal("expected a CLIENT_ERROR to keep the connection open")
	}
	if !strings.HasPrefix(resp, "CLIENT_ERROR") {
		t.Errorf("got %q, want a CLIENT_ERROR response", resp)
	}
}

func TestDispatcher_SetRejectsBadCommandLine(t *testing.T) {
	cache := newFakeCache()
	resp, closed := dispatch(t, cache, "set foo notanumber 0 3\r\nbar\r\n")
	if closed {
		t.Fatal("expected a CLIENT_ERROR to keep the connection open")
	}
	if !strings.HasPrefix(resp, "CLIENT_ERROR") {
		t.Errorf("got %q, want a CLIENT_ERROR response", resp)
	}
}

func TestDispatcher_SetRejectsBadTrailer(t *testing.T) {
	cache := newFakeCache()
	resp, closed := dispatch(t, cache, "set foo 0 0 3\r\nbarXX")
	if closed {
		t.Fatal("expected a CLIENT_ERROR to keep the connection open")
	}
	if !strings.HasPrefix(resp, "CLIENT_ERROR") {
		t.Errorf("got %q, want a CLIENT_ERROR response", resp)
	}
}

func TestDispatcher_PeerClosedBeforeVerbIsFatalWithNoResponse(t *testing.T) {
	cache := newFakeCache()
	resp, closed := dispatch(t, cache, "ge")
	if !closed {
		t.Fatal("expected a truncated verb to close the connection")
	}
	if resp != "" {
		t.Errorf("expected no response for a clean peer close, got %q", resp)
	}
}

func TestDispatcher_PipelinedRequestsShareOneFramer(t *testing.T) {
	cache := newFakeCache()
	f := NewLineFramer(strings.NewReader("set a 0 0 1\r\nx\r\nget a\r\n"))
	var out bytes.Buffer

	if closed := HandleOnce(f, &out, cache, nil); closed {
		t.Fatal("expected the connection to stay open after set")
	}
	if closed := HandleOnce(f, &out, cache, nil); closed {
		t.Fatal("expected the connection to stay open after get")
	}

	want := "STORED\r\nVALUE a 0 1\r\nx\r\nEND\r\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}
