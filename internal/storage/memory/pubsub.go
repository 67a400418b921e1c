package memory

import (
	"log/slog"
	"sort"
	"sync"
)

// Message is one published payload as seen by a subscriber.
type Message struct {
	Channel string
	Payload []byte
}

// Subscriber is the delivery endpoint of one connection. A connection
// creates one Subscriber and registers it on any number of channels.
type Subscriber struct {
	ch chan Message

	mu       sync.Mutex
	closed   bool
	channels map[string]struct{}
}

// NewSubscriber creates a subscriber with the store's queue length.
func (s *Store) NewSubscriber() *Subscriber {
	return &Subscriber{
		ch:       make(chan Message, s.subBuffer),
		channels: make(map[string]struct{}),
	}
}

// Messages returns the queue of delivered messages. It is closed by Close.
func (sub *Subscriber) Messages() <-chan Message {
	return sub.ch
}

// Count returns the number of channels the subscriber is registered on.
func (sub *Subscriber) Count() int {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return len(sub.channels)
}

// Channels returns the subscribed channel names in sorted order.
func (sub *Subscriber) Channels() []string {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	out := make([]string, 0, len(sub.channels))
	for c := range sub.channels {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Close stops delivery to the subscriber. Later publishes prune it.
func (sub *Subscriber) Close() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
}

type deliveryResult int

const (
	delivered deliveryResult = iota
	dropped
	gone
)

// deliver enqueues m without blocking.
func (sub *Subscriber) deliver(m Message) deliveryResult {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return gone
	}
	select {
	case sub.ch <- m:
		return delivered
	default:
		return dropped
	}
}

// channelSubs is the subscriber set of one channel. Its mutex serializes
// publishes to the channel.
type channelSubs struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

type registry struct {
	mu       sync.RWMutex
	channels map[string]*channelSubs
	logger   *slog.Logger
}

func newRegistry(logger *slog.Logger) *registry {
	return &registry{
		channels: make(map[string]*channelSubs),
		logger:   logger,
	}
}

// Subscribe registers sub on each channel and returns the subscriber's
// channel count after each registration, in argument order.
func (s *Store) Subscribe(sub *Subscriber, channels ...string) []int {
	r := s.pubsub
	counts := make([]int, 0, len(channels))

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range channels {
		cs, ok := r.channels[name]
		if !ok {
			cs = &channelSubs{subs: make(map[*Subscriber]struct{})}
			r.channels[name] = cs
		}
		cs.mu.Lock()
		cs.subs[sub] = struct{}{}
		cs.mu.Unlock()

		sub.mu.Lock()
		sub.channels[name] = struct{}{}
		counts = append(counts, len(sub.channels))
		sub.mu.Unlock()
	}
	return counts
}

// Unsubscribe removes sub from each channel and returns the subscriber's
// channel count after each removal. With no channels given it removes
// sub from every channel it is on, in sorted order; the returned names
// are the channels actually processed.
func (s *Store) Unsubscribe(sub *Subscriber, channels ...string) ([]string, []int) {
	if len(channels) == 0 {
		channels = sub.Channels()
	}
	r := s.pubsub
	counts := make([]int, 0, len(channels))

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range channels {
		if cs, ok := r.channels[name]; ok {
			cs.mu.Lock()
			delete(cs.subs, sub)
			empty := len(cs.subs) == 0
			cs.mu.Unlock()
			if empty {
				delete(r.channels, name)
			}
		}

		sub.mu.Lock()
		delete(sub.channels, name)
		counts = append(counts, len(sub.channels))
		sub.mu.Unlock()
	}
	return channels, counts
}

// Publish delivers payload to every current subscriber of channel and
// returns how many received it.
//
// Subscribers registered after the snapshot is taken do not receive the
// message. A closed subscriber is pruned; a subscriber whose queue is full
// misses this message.
func (s *Store) Publish(channel string, payload []byte) int {
	r := s.pubsub

	r.mu.RLock()
	cs, ok := r.channels[channel]
	r.mu.RUnlock()
	if !ok {
		return 0
	}

	msg := Message{Channel: channel, Payload: payload}
	received := 0
	pruned := false

	cs.mu.Lock()
	for sub := range cs.subs {
		switch sub.deliver(msg) {
		case delivered:
			received++
		case dropped:
			r.logger.Debug("subscriber queue full, message dropped", "channel", channel)
		case gone:
			delete(cs.subs, sub)
			pruned = true
		}
	}
	empty := len(cs.subs) == 0
	cs.mu.Unlock()

	if pruned && empty {
		r.dropIfEmpty(channel, cs)
	}
	return received
}

// dropIfEmpty removes cs from the registry if it is still registered
// under channel and still has no subscribers.
func (r *registry) dropIfEmpty(channel string, cs *channelSubs) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.channels[channel] != cs {
		return
	}
	cs.mu.Lock()
	empty := len(cs.subs) == 0
	cs.mu.Unlock()
	if empty {
		delete(r.channels, channel)
	}
}

func (r *registry) counts() (channels, subscriptions int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cs := range r.channels {
		cs.mu.Lock()
		subscriptions += len(cs.subs)
		cs.mu.Unlock()
	}
	return len(r.channels), subscriptions
}
