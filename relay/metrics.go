package relay

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "relay",
		Subsystem: "queue",
		Name:      "size",
		Help:      "Number of transfer events waiting in the dispatch queue.",
	})
	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "queue",
		Name:      "events_processed_total",
		Help:      "Number of transfer events relayed successfully end to end.",
	})
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "queue",
		Name:      "events_dropped_total",
		Help:      "Number of transfer events dropped after a processing failure, by failure class.",
	}, []string{"reason"})
	AmountDisbursed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "queue",
		Name:      "amount_disbursed_total",
		Help:      "Total disbursed amount in the smallest destination asset unit.",
	})
	BackfilledEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "backfill",
		Name:      "recovered_events_total",
		Help:      "Number of missed transfer events recovered by the backfill reconciler.",
	})
	LastBackfilledBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "relay",
		Subsystem: "backfill",
		Name:      "last_scanned_block",
		Help:      "Upper bound of the most recent backfill scan range.",
	})
)

func dropReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, ErrConfirmationTimeout):
		return "confirmation_timeout"
	case errors.Is(err, ErrSubmission):
		return "submission"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "other"
	}
}
