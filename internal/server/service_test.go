package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/agilira/slabmemd"
)

// fakeCache is a minimal thread-safe slabmemd.Cache for end-to-end
// service tests, avoiding any dependency on the real slab allocator.
type fakeCache struct {
	mu     sync.Mutex
	values map[string]slabmemd.CacheValue
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]slabmemd.CacheValue)}
}

func (c *fakeCache) Get(key string) (slabmemd.CacheValue, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *fakeCache) Set(key string, value slabmemd.CacheValue) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return true
}

func startTestService(t *testing.T, cache slabmemd.Cache) (addr string, svc *TCPService) {
	t.Helper()
	svc = NewTCPService("127.0.0.1:0", cache, WithWorkerPool(8, 2, 4))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return svc.listener.Addr().String(), svc
}

// TestTCPService_SetThenGet exercises E1 over a real TCP round trip.
func TestTCPService_SetThenGet(t *testing.T) {
	addr, svc := startTestService(t, newFakeCache())
	defer svc.Stop(context.Background())

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "set foo 0 0 3\r\nbar\r\n")
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if line != "STORED\r\n" {
		t.Fatalf("got %q, want STORED\\r\\n", line)
	}

	fmt.Fprintf(conn, "get foo\r\n")
	var got []string
	for i := 0; i < 3; i++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString: %v", err)
		}
		got = append(got, line)
	}
	want := []string{"VALUE foo 0 3\r\n", "bar\r\n", "END\r\n"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

// TestTCPService_ConcurrentClients covers E7: many connections reading
// and writing distinct keys concurrently.
func TestTCPService_ConcurrentClients(t *testing.T) {
	addr, svc := startTestService(t, newFakeCache())
	defer svc.Stop(context.Background())

	const clients = 16
	var wg sync.WaitGroup
	wg.Add(clients)

	for i := 0; i < clients; i++ {
		go func(i int) {
			defer wg.Done()

			conn, err := net.Dial("tcp", addr)
			if err != nil {
				t.Errorf("Dial: %v", err)
				return
			}
			defer conn.Close()

			key := fmt.Sprintf("k%d", i)
			value := fmt.Sprintf("v%d", i)
			fmt.Fprintf(conn, "set %s 0 0 %d\r\n%s\r\n", key, len(value), value)

			reader := bufio.NewReader(conn)
			line, err := reader.ReadString('\n')
			if err != nil || line != "STORED\r\n" {
				t.Errorf("set %s: got %q, err %v", key, line, err)
				return
			}

			fmt.Fprintf(conn, "get %s\r\n", key)
			header, err := reader.ReadString('\n')
			if err != nil {
				t.Errorf("get %s: %v", key, err)
				return
			}
			want := fmt.Sprintf("VALUE %s 0 %d\r\n", key, len(value))
			if header != want {
				t.Errorf("get %s: got %q, want %q", key, header, want)
			}
		}(i)
	}

	wg.Wait()
}

func TestTCPService_PipelinedCommandsOnOneConnection(t *testing.T) {
	addr, svc := startTestService(t, newFakeCache())
	defer svc.Stop(context.Background())

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "set a 0 0 1\r\nx\r\nget a\r\n")

	reader := bufio.NewReader(conn)
	lines := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString: %v", err)
		}
		lines = append(lines, line)
	}

	want := []string{"STORED\r\n", "VALUE a 0 1\r\n", "x\r\n", "END\r\n"}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestTCPService_UnknownVerbClosesConnection(t *testing.T) {
	addr, svc := startTestService(t, newFakeCache())
	defer svc.Stop(context.Background())

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "frob\r\n")
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if line != "ERROR\r\n" {
		t.Fatalf("got %q, want ERROR\\r\\n", line)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("expected the server to close the connection after an unknown verb")
	}
}

func TestTCPService_StopRejectsNewConnections(t *testing.T) {
	addr, svc := startTestService(t, newFakeCache())

	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if _, err := net.Dial("tcp", addr); err == nil {
		t.Fatal("expected dialing a stopped service to fail")
	}
}

func TestTCPService_StopIsIdempotentWithoutStart(t *testing.T) {
	svc := NewTCPService("127.0.0.1:0", newFakeCache())
	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("Stop on an unstarted service: %v", err)
	}
}
