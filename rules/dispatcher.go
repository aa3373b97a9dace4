package rules

import (
	"context"
	"log"
	"sync"
	"time"
)

// Dispatcher runs verifications off the request path. Trade placement and
// closure enqueue the challenge ID and return immediately; a small worker
// pool drains the queue and calls Engine.Verify, which serializes per
// challenge on its own.
//
// Tasks are best-effort by design: a full queue or a process shutdown drops
// work, and the periodic sweep (or the next trade) re-triggers verification
// on its normal cadence. No durable queue is needed.
type Dispatcher struct {
	engine  *Engine
	queue   chan string
	timeout time.Duration

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewDispatcher starts workers goroutines draining a queue of the given
// size. timeout bounds each verification.
func NewDispatcher(e *Engine, workers, queueSize int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	d := &Dispatcher{
		engine:  e,
		queue:   make(chan string, queueSize),
		timeout: timeout,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enqueue schedules a background verification for the challenge. Never
// blocks and never panics: if the queue is full or the dispatcher has shut
// down the task is dropped and left to the sweeper. The send happens under
// the mutex so Close cannot close the channel mid-send.
func (d *Dispatcher) Enqueue(challengeID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		log.Printf("rules: dispatcher closed, dropping %s (sweep will retry)", challengeID)
		return
	}
	select {
	case d.queue <- challengeID:
	default:
		log.Printf("rules: verify queue full, dropping %s (sweep will retry)", challengeID)
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for id := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if _, err := d.engine.Verify(ctx, id); err != nil {
			// Background failures are logged and never surfaced; the
			// triggering request already returned.
			log.Printf("rules: background verify %s: %v", id, err)
		}
		cancel()
	}
}

// Close stops accepting work and waits for in-flight verifications.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
