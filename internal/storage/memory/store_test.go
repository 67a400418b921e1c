package memory

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStore_SetGetDelete(t *testing.T) {
	s := New()

	s.Set("foo", []byte("bar"), 0)
	got, ok := s.Get("foo")
	if !ok || string(got) != "bar" {
		t.Fatalf("Get(foo) = (%q, %v), want (bar, true)", got, ok)
	}

	s.Set("foo", []byte("baz"), 0)
	got, _ = s.Get("foo")
	if string(got) != "baz" {
		t.Errorf("Get(foo) after overwrite = %q, want baz", got)
	}

	if n := s.Delete("foo"); n != 1 {
		t.Errorf("Delete(foo) = %d, want 1", n)
	}
	if n := s.Delete("foo"); n != 0 {
		t.Errorf("second Delete(foo) = %d, want 0", n)
	}
	if _, ok := s.Get("foo"); ok {
		t.Error("Get(foo) after Delete should report absent")
	}
}

func TestStore_DeleteMany(t *testing.T) {
	s := New()
	s.Set("a", []byte("1"), 0)
	s.Set("b", []byte("2"), 0)

	if n := s.Delete("a", "b", "c"); n != 2 {
		t.Errorf("Delete(a, b, c) = %d, want 2", n)
	}
}

func TestStore_LazyExpiry(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))

	s.Set("k", []byte("v"), time.Second)
	if got, ok := s.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("Get(k) before deadline = (%q, %v), want (v, true)", got, ok)
	}

	clock.Advance(999 * time.Millisecond)
	if _, ok := s.Get("k"); !ok {
		t.Fatal("Get(k) just before deadline should still hit")
	}

	clock.Advance(time.Millisecond)
	if _, ok := s.Get("k"); ok {
		t.Fatal("Get(k) at deadline should miss")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want expired entry removed on read", s.Len())
	}
}

func TestStore_ExpiredNotCountedByDelete(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))

	s.Set("k", []byte("v"), time.Second)
	clock.Advance(2 * time.Second)

	if n := s.Delete("k"); n != 0 {
		t.Errorf("Delete(expired) = %d, want 0", n)
	}
}

func TestStore_SetClearsExpiry(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))

	s.Set("k", []byte("v1"), time.Second)
	s.Set("k", []byte("v2"), 0)
	clock.Advance(time.Hour)

	if got, ok := s.Get("k"); !ok || string(got) != "v2" {
		t.Errorf("Get(k) = (%q, %v), want (v2, true)", got, ok)
	}
}

func TestStore_TTL(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))

	s.Set("persistent", []byte("x"), 0)
	s.Set("temp", []byte("y"), 10*time.Second)
	clock.Advance(4 * time.Second)

	if d, ok := s.TTL("persistent"); !ok || d != 0 {
		t.Errorf("TTL(persistent) = (%v, %v), want (0, true)", d, ok)
	}
	if d, ok := s.TTL("temp"); !ok || d != 6*time.Second {
		t.Errorf("TTL(temp) = (%v, %v), want (6s, true)", d, ok)
	}
	if _, ok := s.TTL("missing"); ok {
		t.Error("TTL(missing) should report absent")
	}
}

func TestStore_PurgeExpired(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))

	for i := 0; i < 10; i++ {
		ttl := time.Duration(0)
		if i%2 == 0 {
			ttl = time.Second
		}
		s.Set(strconv.Itoa(i), []byte("v"), ttl)
	}
	clock.Advance(time.Minute)

	if n := s.PurgeExpired(); n != 5 {
		t.Errorf("PurgeExpired() = %d, want 5", n)
	}
	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
}

func TestStore_RunSweeper(t *testing.T) {
	s := New()
	s.Set("k", []byte("v"), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Len() != 0 {
		t.Error("sweeper did not purge the expired key")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunSweeper did not stop after cancel")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := strconv.Itoa(j % 20)
				s.Set(key, []byte(strconv.Itoa(id)), 0)
				if v, ok := s.Get(key); ok && len(v) == 0 {
					t.Errorf("observed empty value for %s", key)
				}
				s.Delete(key)
			}
		}(i)
	}
	wg.Wait()
}
