package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func recvMessage(t *testing.T, sub *Subscriber) Message {
	t.Helper()
	select {
	case m, ok := <-sub.Messages():
		if !ok {
			t.Fatal("subscriber queue closed")
		}
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestPublish_NoSubscribers(t *testing.T) {
	s := New()
	if n := s.Publish("news", []byte("hello")); n != 0 {
		t.Errorf("Publish() = %d, want 0", n)
	}
	if st := s.Stats(); st.Channels != 0 {
		t.Errorf("Stats().Channels = %d, want 0", st.Channels)
	}
}

func TestPublish_DeliversToSubscribers(t *testing.T) {
	s := New()
	a := s.NewSubscriber()
	b := s.NewSubscriber()

	if counts := s.Subscribe(a, "news", "sports"); fmt.Sprint(counts) != "[1 2]" {
		t.Errorf("Subscribe() counts = %v, want [1 2]", counts)
	}
	s.Subscribe(b, "news")

	if n := s.Publish("news", []byte("hello")); n != 2 {
		t.Fatalf("Publish(news) = %d, want 2", n)
	}
	for _, sub := range []*Subscriber{a, b} {
		m := recvMessage(t, sub)
		if m.Channel != "news" || string(m.Payload) != "hello" {
			t.Errorf("message = %+v, want news/hello", m)
		}
	}

	if n := s.Publish("sports", []byte("goal")); n != 1 {
		t.Errorf("Publish(sports) = %d, want 1", n)
	}
	if n := numSub(s, "news"); n != 2 {
		t.Errorf("numSub(news) = %d, want 2", n)
	}
}

func TestUnsubscribe(t *testing.T) {
	s := New()
	sub := s.NewSubscriber()
	s.Subscribe(sub, "a", "b", "c")

	names, counts := s.Unsubscribe(sub, "b")
	if fmt.Sprint(names, counts) != "[b] [2]" {
		t.Errorf("Unsubscribe(b) = %v %v, want [b] [2]", names, counts)
	}
	if n := s.Publish("b", []byte("x")); n != 0 {
		t.Errorf("Publish(b) after unsubscribe = %d, want 0", n)
	}

	names, counts = s.Unsubscribe(sub)
	if fmt.Sprint(names, counts) != "[a c] [1 0]" {
		t.Errorf("Unsubscribe() = %v %v, want [a c] [1 0]", names, counts)
	}
	if st := s.Stats(); st.Channels != 0 || st.Subscriptions != 0 {
		t.Errorf("Stats() = %+v, want empty registry", st)
	}
}

func TestPublish_PrunesClosedSubscriber(t *testing.T) {
	s := New()
	live := s.NewSubscriber()
	stale := s.NewSubscriber()
	s.Subscribe(live, "ch")
	s.Subscribe(stale, "ch")

	stale.Close()
	stale.Close() // idempotent

	if n := s.Publish("ch", []byte("m")); n != 1 {
		t.Errorf("Publish() = %d, want 1", n)
	}
	if n := numSub(s, "ch"); n != 1 {
		t.Errorf("numSub() = %d, want stale subscriber pruned", n)
	}

	live.Close()
	s.Publish("ch", []byte("m"))
	if st := s.Stats(); st.Channels != 0 {
		t.Errorf("Stats().Channels = %d, want empty channel dropped", st.Channels)
	}
}

func TestPublish_FullQueueDropsMessage(t *testing.T) {
	s := New(WithSubscriberBuffer(1))
	sub := s.NewSubscriber()
	s.Subscribe(sub, "ch")

	if n := s.Publish("ch", []byte("1")); n != 1 {
		t.Fatalf("first Publish() = %d, want 1", n)
	}
	if n := s.Publish("ch", []byte("2")); n != 0 {
		t.Errorf("Publish() to full queue = %d, want 0", n)
	}
	if m := recvMessage(t, sub); string(m.Payload) != "1" {
		t.Errorf("payload = %q, want 1", m.Payload)
	}
	if n := numSub(s, "ch"); n != 1 {
		t.Error("a slow subscriber must not be pruned")
	}
}

func TestPublish_OrderPerChannel(t *testing.T) {
	s := New(WithSubscriberBuffer(1024))
	sub := s.NewSubscriber()
	s.Subscribe(sub, "ch")

	const publishers = 4
	const perPublisher = 100

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				s.Publish("ch", []byte(fmt.Sprintf("%d:%d", p, i)))
			}
		}(p)
	}
	wg.Wait()

	// Each publisher's own sequence must arrive in call order.
	last := make(map[int]int)
	for i := 0; i < publishers*perPublisher; i++ {
		m := recvMessage(t, sub)
		var p, seq int
		fmt.Sscanf(string(m.Payload), "%d:%d", &p, &seq)
		if prev, ok := last[p]; ok && seq != prev+1 {
			t.Fatalf("publisher %d: got seq %d after %d", p, seq, prev)
		}
		last[p] = seq
	}
}

func numSub(s *Store, channel string) int {
	r := s.pubsub
	r.mu.RLock()
	cs, ok := r.channels[channel]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.subs)
}
