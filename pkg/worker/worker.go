// Package worker runs blocking jobs, typically LLM calls, on a fixed number
// of goroutines behind a bounded queue. Submit never blocks: when the queue
// is full the job is rejected so callers can tell the player to try again.
// Every accepted job reports exactly one Result through its callback, panics
// included.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrQueueFull is returned by Submit when no queue slot is free.
	ErrQueueFull = errors.New("worker: queue full")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("worker: pool closed")
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 16
)

// Task is the unit of work. ctx is cancelled when the pool's parent context is.
type Task func(ctx context.Context) (string, error)

// Result is delivered to the Submit callback when a task finishes.
type Result struct {
	ID      string
	Value   string
	Err     error
	Wait    time.Duration // Time spent queued.
	Elapsed time.Duration // Time spent running.
}

// Observer receives pool lifecycle events. Implementations must be safe for
// concurrent use.
type Observer interface {
	JobRejected()
	JobStarted(wait time.Duration)
	JobFinished(elapsed time.Duration, err error)
}

// Options configures a Pool. Zero fields take defaults.
type Options struct {
	Workers   int
	QueueSize int
	Logger    *slog.Logger
	Observer  Observer
}

type job struct {
	id       string
	task     Task
	done     func(Result)
	enqueued time.Time
}

// Pool is a fixed-size worker pool with admission control.
type Pool struct {
	ctx      context.Context
	jobs     chan job
	g        errgroup.Group
	log      *slog.Logger
	observer Observer

	mu     sync.RWMutex
	closed bool

	inFlight atomic.Int64
}

// New starts a pool whose tasks run under ctx.
func New(ctx context.Context, opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = 0
	} else if opts.QueueSize == 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	p := &Pool{
		ctx:      ctx,
		jobs:     make(chan job, opts.QueueSize),
		log:      opts.Logger.With("component", "worker"),
		observer: opts.Observer,
	}

	for range opts.Workers {
		p.g.Go(func() error {
			for j := range p.jobs {
				p.run(j)
			}
			return nil
		})
	}

	return p
}

// Submit enqueues task and returns its job ID. done is called from a worker
// goroutine once the task finishes. Submit fails with ErrQueueFull or
// ErrClosed without calling done.
func (p *Pool) Submit(task Task, done func(Result)) (string, error) {
	j := job{
		id:       uuid.NewString(),
		task:     task,
		done:     done,
		enqueued: time.Now(),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return "", ErrClosed
	}

	select {
	case p.jobs <- j:
		return j.id, nil
	default:
		if p.observer != nil {
			p.observer.JobRejected()
		}
		p.log.Warn("job rejected, queue full", "queued", len(p.jobs))
		return "", ErrQueueFull
	}
}

// Queued returns the number of jobs waiting for a worker.
func (p *Pool) Queued() int { return len(p.jobs) }

// InFlight returns the number of jobs currently running.
func (p *Pool) InFlight() int { return int(p.inFlight.Load()) }

// Close stops accepting jobs, runs everything already queued, and waits for
// the workers to exit. It is safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	return p.g.Wait()
}

func (p *Pool) run(j job) {
	res := Result{ID: j.id, Wait: time.Since(j.enqueued)}

	p.inFlight.Add(1)
	if p.observer != nil {
		p.observer.JobStarted(res.Wait)
	}

	start := time.Now()
	res.Value, res.Err = p.safeRun(j)
	res.Elapsed = time.Since(start)

	p.inFlight.Add(-1)
	if p.observer != nil {
		p.observer.JobFinished(res.Elapsed, res.Err)
	}

	p.log.Debug("job finished", "id", j.id, "wait", res.Wait, "elapsed", res.Elapsed, "error", res.Err)

	if j.done != nil {
		j.done(res)
	}
}

func (p *Pool) safeRun(j job) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("job panicked", "id", j.id, "panic", r)
			err = fmt.Errorf("worker: task panicked: %v", r)
		}
	}()

	return j.task(p.ctx)
}
