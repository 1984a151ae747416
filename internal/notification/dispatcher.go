package notification

import (
	"context"
	"errors"
	"sync"

	"safaristay/internal/diagnostics"
	"safaristay/internal/metrics"
	"safaristay/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

var ErrDispatcherClosed = errors.New("notification dispatcher closed")

// Publisher hands an event to the delivery pipeline.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// DirectPublisher delivers in-process through a Sender.
type DirectPublisher struct {
	sender Sender
}

func NewDirectPublisher(sender Sender) *DirectPublisher {
	return &DirectPublisher{sender: sender}
}

func (p *DirectPublisher) Publish(ctx context.Context, ev Event) error {
	return p.sender.Send(ctx, ev)
}

type DispatcherOption func(*Dispatcher)

func WithRing(r *diagnostics.Ring) DispatcherOption {
	return func(d *Dispatcher) { d.ring = r }
}

func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// Dispatcher queues events and publishes them from background workers so
// callers never wait on delivery. A full queue drops the event.
type Dispatcher struct {
	pub     Publisher
	log     logrus.FieldLogger
	ring    *diagnostics.Ring
	metrics *metrics.Metrics
	workers int

	queue chan Event
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(pub Publisher, queueSize int, log logrus.FieldLogger, opts ...DispatcherOption) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &Dispatcher{
		pub:     pub,
		log:     logger.OrDiscard(log).WithField("component", "notification"),
		workers: 2,
		queue:   make(chan Event, queueSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

// Notify enqueues ev without blocking. It reports whether the event was
// accepted.
func (d *Dispatcher) Notify(ev Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.fail(ev, ErrDispatcherClosed, "dropped")
		return false
	}
	select {
	case d.queue <- ev:
		return true
	default:
		d.fail(ev, errors.New("queue full"), "dropped")
		return false
	}
}

// Close stops accepting events and waits for queued ones to be published or
// for ctx to expire.
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
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for ev := range d.queue {
		if err := d.pub.Publish(context.Background(), ev); err != nil {
			d.fail(ev, err, "failed")
			continue
		}
		d.metrics.IncNotification(ev.Type, "sent")
		d.log.WithFields(logrus.Fields{
			"type":       ev.Type,
			"booking_id": ev.BookingRef,
		}).Debug("notification_sent")
	}
}

func (d *Dispatcher) fail(ev Event, err error, outcome string) {
	d.metrics.IncNotification(ev.Type, outcome)
	fields := logrus.Fields{
		"type":       ev.Type,
		"booking_id": ev.BookingRef,
		"outcome":    outcome,
		"error":      err.Error(),
	}
	d.log.WithFields(fields).Warn("notification_failed")
	if d.ring != nil {
		d.ring.Record("notification", "warning", "notification_failed", fields)
	}
}
