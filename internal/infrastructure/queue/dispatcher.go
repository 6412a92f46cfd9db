package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marzelet/intern-registry/internal/api/metrics"
	"github.com/marzelet/intern-registry/internal/core/domain"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrStopped is returned for writes that were never run because the
// dispatcher stopped. It is retryable like any store outage.
var ErrStopped = fmt.Errorf("dispatcher stopped: %w", domain.ErrPersistenceUnavailable)

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Dispatcher routes writes to a fixed set of workers using consistent hashing
// on the key, so writes for one key run one at a time and in arrival order
// while different keys proceed concurrently.
//
// Stopping never abandons a write: a job already running reports its own
// result, and jobs still queued are answered with ErrStopped.
type Dispatcher struct {
	workers []chan job
	stopped chan struct{}
	mu      sync.RWMutex // guards closed; held for reading while enqueuing
	closed  bool
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan job, numWorkers),
		stopped: make(chan struct{}),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. The dispatcher stops accepting
// writes when ctx is cancelled; cancel it only once callers are drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(i, ch)
	}
	go func() {
		<-ctx.Done()
		d.mu.Lock()
		d.closed = true
		close(d.stopped)
		d.mu.Unlock()
	}()
}

// Do runs fn on the worker owning key and waits for its result. If ctx ends
// first, Do returns ctx.Err(); a job still queued is then skipped.
func (d *Dispatcher) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	idx := d.shardIndex(key)
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	if err := d.enqueue(ctx, idx, j); err != nil {
		return err
	}

	// Every enqueued job is answered, either by running it or by the drain.
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, idx int, j job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrStopped
	}

	select {
	case d.workers[idx] <- j:
		metrics.UpsertQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch chan job) {
	depth := metrics.UpsertQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case j := <-ch:
			depth.Dec()
			d.run(id, j)
		case <-d.stopped:
			// No sends happen after stopped is closed, so the buffer is final.
			for {
				select {
				case j := <-ch:
					depth.Dec()
					j.done <- ErrStopped
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) run(id int, j job) {
	if err := j.ctx.Err(); err != nil {
		j.done <- err
		return
	}
	start := time.Now()
	err := j.fn(j.ctx)
	metrics.UpsertDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		d.log.Debug().Err(err).Int("worker_id", id).Msg("serialised write failed")
	}
	j.done <- err
}
