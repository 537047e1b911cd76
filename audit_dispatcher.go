package portalflow

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples flow operations from sink latency. Events are
// queued on a bounded channel and delivered by a single goroutine. A full
// queue either discards the event or applies backpressure, per AuditConfig;
// discards are counted locally and mirrored into [MetricAuditDropped].
type auditDispatcher struct {
	sink       AuditSink
	queue      chan AuditEvent
	stop       chan struct{}
	wg         sync.WaitGroup
	metrics    *Metrics
	dropIfFull bool
	dropped    atomic.Uint64
	closed     atomic.Bool
	closeOnce  sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, metrics *Metrics) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		queue:      make(chan AuditEvent, buffer),
		stop:       make(chan struct{}),
		metrics:    metrics,
		dropIfFull: cfg.DropIfFull,
	}

	d.wg.Add(1)
	go d.deliver()

	return d
}

// deliver is the single consumer. Shutdown flushes whatever is already
// queued before returning.
func (d *auditDispatcher) deliver() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.stop:
			d.flush()
			return
		}
	}
}

func (d *auditDispatcher) flush() {
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit queues an event for asynchronous delivery. With DropIfFull set, a
// full queue discards the event and counts the loss; otherwise Emit blocks
// until space frees up, the context is canceled, or the dispatcher stops.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.dropped.Add(1)
			d.metrics.Inc(MetricAuditDropped)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// Close flushes queued events and stops the delivery goroutine. Close is
// idempotent; Emit after Close is a no-op.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.wg.Wait()
	})
}

// Dropped reports how many events were discarded because the queue was full.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
