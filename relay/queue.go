package relay

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/chainflow/token-relay/logging"
)

// ProcessFunc handles a single dequeued event. Returned errors are logged
// and the event is dropped, recovery relies on the backfill reconciler.
type ProcessFunc func(ctx context.Context, event *Event) error

// DispatchQueue serializes event processing. Any number of producers may
// call Enqueue concurrently, a single worker goroutine started by Run
// consumes the FIFO, so at most one event is in flight at any instant.
// The worker goroutine is the gate: while it is busy processing, queued
// events wait, and the funding account nonce is never touched concurrently.
type DispatchQueue struct {
	logger  logging.Logger
	process ProcessFunc

	mu      sync.Mutex
	pending []*Event
	notify  chan struct{}
}

func NewDispatchQueue(logger logging.Logger, process ProcessFunc) *DispatchQueue {
	return &DispatchQueue{
		logger:  logger,
		process: process,
		notify:  make(chan struct{}, 1),
	}
}

// Enqueue appends the event to the queue and wakes the worker. It never
// blocks and is safe to call from any goroutine.
func (q *DispatchQueue) Enqueue(event *Event) {
	q.mu.Lock()
	q.pending = append(q.pending, event)
	depth := len(q.pending)
	q.mu.Unlock()

	QueueSize.Set(float64(depth))
	q.logger.WithFields(logrus.Fields{
		"tx_hash":   event.TxHash,
		"log_index": event.LogIndex,
		"sender":    event.Sender,
		"queued":    depth,
	}).Warn("queued incoming transfer")

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *DispatchQueue) pop() *Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	event := q.pending[0]
	q.pending = q.pending[1:]
	QueueSize.Set(float64(len(q.pending)))
	return event
}

// Run consumes the queue until ctx is cancelled. Exactly one Run per queue.
func (q *DispatchQueue) Run(ctx context.Context) {
	q.logger.Info("starting dispatch queue worker")
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.notify:
			for {
				event := q.pop()
				if event == nil {
					break
				}
				q.processOne(ctx, event)
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

func (q *DispatchQueue) processOne(ctx context.Context, event *Event) {
	logger := q.logger.WithFields(logrus.Fields{
		"tx_hash":   event.TxHash,
		"log_index": event.LogIndex,
		"sender":    event.Sender,
		"amount":    event.Amount,
	})
	if err := q.process(ctx, event); err != nil {
		// Accepted-loss policy: the failed event is not retried and not
		// re-queued, it resurfaces only through the backfill reconciler if
		// no record was written. Operational alerting keys on this log and
		// on the dropped events counter.
		logger.WithError(err).Error("dropping failed transfer event")
		EventsDropped.WithLabelValues(dropReason(err)).Inc()
		return
	}
	EventsProcessed.Inc()
	logger.Info("relayed transfer processed")
}
