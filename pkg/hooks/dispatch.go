package hooks

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 256
)

// DispatcherConfig configures the post-hook dispatcher.
type DispatcherConfig struct {
	// Registry supplies the post hooks to run for each job.
	Registry *Registry

	// NumWorkers is the number of background workers draining the queue.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel.
	QueueSize uint

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Dispatcher runs post hooks asynchronously so the gate returns to its
// caller immediately after a tool completes. Jobs for consecutive calls
// enter a single queue, so later calls' post hooks are scheduled after
// earlier ones; no further ordering is guaranteed once workers pick
// them up.
type Dispatcher struct {
	config *DispatcherConfig
	queue  chan *Context
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher and starts its worker goroutines.
func NewDispatcher(c *DispatcherConfig) (*Dispatcher, error) {
	if c.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	d := &Dispatcher{
		config: c,
		queue:  make(chan *Context, c.QueueSize),
		logger: c.Logger,
	}

	d.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go d.worker(i)
	}

	return d, nil
}

// Dispatch submits a completed call for post-hook processing and returns
// immediately. Returns true if enqueued, false if the queue is full and
// the job was dropped; a dropped job costs an audit record, never the
// operation itself.
func (d *Dispatcher) Dispatch(hc *Context) bool {
	select {
	case d.queue <- hc:
		d.logger.Debug("post hooks queued",
			zap.String("tool", hc.Call.Name),
			zap.String("session", hc.Call.SessionID),
		)
		return true
	default:
		d.logger.Error("post hook queue full, job dropped",
			zap.String("tool", hc.Call.Name),
			zap.String("session", hc.Call.SessionID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown and at the end of tests.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

// worker continuously pulls jobs off the queue and runs the registered
// post hooks against them.
func (d *Dispatcher) worker(id uint) {
	defer d.wg.Done()
	d.logger.Debug("post hook worker started", zap.Uint("worker_id", id))

	for hc := range d.queue {
		ctx := context.Background()
		for _, e := range d.config.Registry.postHooks() {
			d.config.Registry.runOnePost(ctx, e.hook, hc)
		}
	}

	d.logger.Debug("post hook worker stopped", zap.Uint("worker_id", id))
}
