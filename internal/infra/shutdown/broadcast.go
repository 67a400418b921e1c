package shutdown

import "sync"

// Broadcast is a one-shot termination signal shared by many receivers.
// Firing it closes a channel, so every current and future receiver
// observes it.
type Broadcast struct {
	once sync.Once
	ch   chan struct{}
}

// NewBroadcast returns an unfired broadcast.
func NewBroadcast() *Broadcast {
	return &Broadcast{ch: make(chan struct{})}
}

// Fire signals every receiver. Calling it more than once is a no-op.
func (b *Broadcast) Fire() {
	b.once.Do(func() { close(b.ch) })
}

// Done returns a channel closed once the broadcast has fired.
func (b *Broadcast) Done() <-chan struct{} {
	return b.ch
}

// Subscribe returns a new per-receiver Shutdown handle.
func (b *Broadcast) Subscribe() *Shutdown {
	return &Shutdown{notify: b.ch}
}

// Shutdown is one handler's view of the broadcast. Its flag is owned by a
// single goroutine; once set it never reverts.
type Shutdown struct {
	notify     <-chan struct{}
	isShutdown bool
}

// Recv blocks until the broadcast fires and marks the handle shut down.
// It returns immediately if the handle is already shut down.
func (s *Shutdown) Recv() {
	if s.isShutdown {
		return
	}
	<-s.notify
	s.isShutdown = true
}

// IsShutdown reports the local flag without blocking.
func (s *Shutdown) IsShutdown() bool {
	return s.isShutdown
}

// Done returns the broadcast channel for use in select statements. Call
// Recv after it fires to record the shutdown locally.
func (s *Shutdown) Done() <-chan struct{} {
	return s.notify
}
