package shutdown

import (
	"context"
	"sync"
)

// Tracker counts outstanding completion tokens. Wait returns once every
// token handed out by Acquire has been released.
type Tracker struct {
	wg sync.WaitGroup
}

// Token is held by one unit of work and released when it finishes.
type Token struct {
	once sync.Once
	wg   *sync.WaitGroup
}

// Acquire hands out a new token.
func (t *Tracker) Acquire() *Token {
	t.wg.Add(1)
	return &Token{wg: &t.wg}
}

// Release gives the token back. Only the first call has an effect.
func (tk *Token) Release() {
	tk.once.Do(tk.wg.Done)
}

// Wait blocks until all tokens are released or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
