package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/senyabanana/bid-award/internal/metrics"
	"github.com/senyabanana/bid-award/internal/models"
	"github.com/senyabanana/bid-award/internal/utils"

	"golang.org/x/time/rate"
)

type options struct {
	queueSize      int
	workers        int
	rps            float64
	publishTimeout time.Duration
}

// Option configures a Dispatcher.
type Option func(*options)

// WithQueueSize sets how many notifications may wait for a worker.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithWorkers sets the number of delivery goroutines.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithRate caps publishes per second across all workers. Zero or less means unlimited.
func WithRate(rps float64) Option {
	return func(o *options) {
		o.rps = rps
	}
}

// WithPublishTimeout bounds a single delivery attempt.
func WithPublishTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.publishTimeout = d
		}
	}
}

// Dispatcher delivers committed notifications to the real-time channel from
// a bounded queue. Each notification gets exactly one delivery attempt and
// failures are only logged.
type Dispatcher struct {
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	opts        options
	limiter     *rate.Limiter

	mu     sync.RWMutex
	closed bool
	queue  chan models.Notification

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher and starts its workers. m may be nil.
func NewDispatcher(b Broadcaster, m *metrics.Metrics, opts ...Option) *Dispatcher {
	o := options{queueSize: 1024, workers: 4, publishTimeout: 2 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	limit := rate.Inf
	burst := o.workers
	if o.rps > 0 {
		limit = rate.Limit(o.rps)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		broadcaster: b,
		metrics:     m,
		opts:        o,
		limiter:     rate.NewLimiter(limit, burst),
		queue:       make(chan models.Notification, o.queueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
	for i := 0; i < o.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enqueue hands notifications to the workers without blocking and returns how
// many were accepted. When the queue is full the rest are dropped; their
// durable rows stay readable from the inbox.
func (d *Dispatcher) Enqueue(notifications []models.Notification) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	accepted := 0
	for _, n := range notifications {
		if d.closed {
			d.drop(n, "dispatcher closed")
			continue
		}
		select {
		case d.queue <- n:
			accepted++
		default:
			d.drop(n, "queue full")
		}
	}
	return accepted
}

func (d *Dispatcher) drop(n models.Notification, reason string) {
	d.metrics.NotificationDropped()
	utils.Warn("notification delivery dropped", map[string]any{
		"notification_id": n.ID,
		"user_id":         n.UserID,
		"reason":          reason,
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for n := range d.queue {
		if err := d.limiter.Wait(d.ctx); err != nil {
			d.drop(n, "shutting down")
			continue
		}
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n models.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		d.metrics.NotificationDelivery("failed")
		utils.Error("failed to encode notification", map[string]any{"notification_id": n.ID, "error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(d.ctx, d.opts.publishTimeout)
	defer cancel()

	if err := d.broadcaster.Broadcast(ctx, n.UserID, payload); err != nil {
		d.metrics.NotificationDelivery("failed")
		utils.Warn("notification delivery failed", map[string]any{
			"notification_id": n.ID,
			"user_id":         n.UserID,
			"error":           err.Error(),
		})
		return
	}
	d.metrics.NotificationDelivery("delivered")
}

// Close stops accepting work and waits for the queue to drain. If ctx ends
// first, pending deliveries are abandoned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
