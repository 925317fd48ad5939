package cfgcli

import (
	"sync"
	"time"

	"github.com/TheSmallBoat/meshcfg/foundation"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meshcfg",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Configuration requests handed to the transport.",
		},
		[]string{"opcode", "result"},
	)
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meshcfg",
			Subsystem: "client",
			Name:      "events_total",
			Help:      "Events delivered to the bridge.",
		},
		[]string{"opcode", "type"},
	)
	droppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meshcfg",
			Subsystem: "client",
			Name:      "dropped_messages_total",
			Help:      "Inbound status messages dropped without an event.",
		},
		[]string{"reason"},
	)
	pendingTransactions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "meshcfg",
			Subsystem: "client",
			Name:      "pending_transactions",
			Help:      "Transactions waiting for a status reply.",
		},
	)
	roundTrip = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "meshcfg",
			Subsystem: "client",
			Name:      "round_trip_seconds",
			Help:      "Time from request registration to the matching status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"opcode"},
	)
	transactionPoolTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meshcfg",
			Subsystem: "client",
			Name:      "transaction_pool_total",
			Help:      "Transaction pool activity: new allocations, reuses and puts.",
		},
		[]string{"event"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestsTotal, eventsTotal, droppedTotal, pendingTransactions, roundTrip, transactionPoolTotal)
	})
}

func recordRequest(op foundation.OpCode, err error) {
	RegisterMetrics()
	result := "ok"
	if err != nil {
		result = "error"
	}
	requestsTotal.WithLabelValues(foundation.OpcodeName(op), result).Inc()
}

func recordEvent(ev Event) {
	RegisterMetrics()
	eventsTotal.WithLabelValues(foundation.OpcodeName(ev.Opcode), ev.Type.String()).Inc()
}

func recordDropped(reason string) {
	RegisterMetrics()
	droppedTotal.WithLabelValues(reason).Inc()
}

func recordRoundTrip(op foundation.OpCode, d time.Duration) {
	RegisterMetrics()
	roundTrip.WithLabelValues(foundation.OpcodeName(op)).Observe(d.Seconds())
}

func recordPool(event string) {
	RegisterMetrics()
	transactionPoolTotal.WithLabelValues(event).Inc()
}
