// Package workers runs tasks on a fixed set of goroutines. Tasks sharing a
// key always land on the same worker, so a call's turns run in arrival
// order while different calls run in parallel.
package workers

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrStopped is returned by Dispatch after Stop.
var ErrStopped = errors.New("worker pool stopped")

const (
	defaultWorkers   = 8
	defaultQueueSize = 100
)

type task struct {
	key string
	fn  func()
}

type Pool struct {
	queues []chan task
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewPool starts n workers, each with a queue of queueSize pending tasks.
// Non-positive values select the defaults.
func NewPool(n, queueSize int) *Pool {
	if n <= 0 {
		n = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	p := &Pool{queues: make([]chan task, n)}
	for i := range p.queues {
		q := make(chan task, queueSize)
		p.queues[i] = q
		p.wg.Add(1)
		go p.run(i, q)
	}
	return p
}

func (p *Pool) run(id int, q chan task) {
	defer p.wg.Done()
	for t := range q {
		p.exec(id, t)
	}
}

func (p *Pool) exec(id int, t task) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("component", "workers").
				Int("worker", id).
				Str("key", t.key).
				Interface("panic", r).
				Msg("task panicked")
		}
	}()
	log.Debug().Str("component", "workers").Int("worker", id).Str("key", t.key).Msg("processing task")
	t.fn()
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.queues)
}

// Dispatch queues fn on the worker owning key. It blocks while that
// worker's queue is full and gives up when ctx is done.
func (p *Pool) Dispatch(ctx context.Context, key string, fn func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.queues[Slot(key, len(p.queues))] <- task{key: key, fn: fn}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop rejects new tasks, drains the queued ones and waits for the
// workers to exit. It is safe to call more than once.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Slot maps key onto one of n workers with FNV-1a.
func Slot(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}
