package mail

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueFull is returned when the dispatcher cannot accept more work.
var ErrQueueFull = errors.New("mail queue is full")

// ErrDispatcherStopped is returned when submitting after Stop.
var ErrDispatcherStopped = errors.New("mail dispatcher stopped")

// Dispatcher delivers messages on a fixed pool of background workers.
// Submit never blocks; delivery failures are logged and dropped.
type Dispatcher struct {
	sender  Sender
	logger  *slog.Logger
	workers int
	timeout time.Duration

	queue chan Message
	wg    sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
	started bool
}

// NewDispatcher creates a dispatcher. Call Start before submitting.
func NewDispatcher(sender Sender, logger *slog.Logger, workers, queueSize int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Dispatcher{
		sender:  sender,
		logger:  logger,
		workers: workers,
		timeout: timeout,
		queue:   make(chan Message, queueSize),
	}
}

// Start launches the workers. It is a no-op when already started.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(i)
	}
	d.logger.Info("mail dispatcher started", "workers", d.workers, "queue_size", cap(d.queue))
}

// Submit enqueues a message for delivery.
func (d *Dispatcher) Submit(msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		d.logger.Warn("mail queue full, dropping message", "to", msg.To, "subject", msg.Subject)
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued messages to drain or ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("mail dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("mail dispatcher stop timed out", "pending", len(d.queue))
		return ctx.Err()
	}
}

func (d *Dispatcher) run(worker int) {
	defer d.wg.Done()

	for msg := range d.queue {
		d.deliver(worker, msg)
	}
}

func (d *Dispatcher) deliver(worker int, msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Error("failed to deliver email",
			"worker", worker,
			"to", msg.To,
			"subject", msg.Subject,
			"error", err,
		)
		return
	}
	d.logger.Info("email delivered", "worker", worker, "to", msg.To, "duration", time.Since(start))
}
