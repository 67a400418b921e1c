package connection

import (
	"sync"

	"github.com/yndnr/minikv/internal/protocol/frame"
)

// Result is the outcome of one ReadFrame call delivered by a Pump.
type Result struct {
	Frame frame.Frame
	Err   error
}

// Pump runs ReadFrame in its own goroutine and hands each result over an
// unbuffered channel, so a caller can select between the next request and
// other events. After an error result the pump stops reading.
type Pump struct {
	results chan Result
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// StartPump starts reading frames from c. While the pump runs it is the
// only reader of c.
func (c *Conn) StartPump() *Pump {
	p := &Pump{
		results: make(chan Result),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run(c)
	return p
}

func (p *Pump) run(c *Conn) {
	defer close(p.done)
	for {
		f, err := c.ReadFrame()
		select {
		case p.results <- Result{Frame: f, Err: err}:
		case <-p.stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// Frames returns the channel results are delivered on.
func (p *Pump) Frames() <-chan Result {
	return p.results
}

// Stop stops the pump and waits for its goroutine. A read blocked on the
// socket only returns once the connection is closed, so close it first.
func (p *Pump) Stop() {
	p.once.Do(func() { close(p.stop) })
	<-p.done
}
