package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeScanned     = "scanned"
	OutcomeEmpty       = "empty"
	OutcomeSkipped     = "skipped"
	OutcomeCursorError = "cursor_error"
	OutcomeHeadError   = "head_error"
	OutcomeFetchError  = "fetch_error"
	OutcomeLedgerError = "ledger_error"
)

// Metrics holds the poller's collectors, partitioned by chain type.
type Metrics struct {
	TicksTotal       *prometheus.CounterVec
	EventsAdmitted   *prometheus.CounterVec
	EventsDuplicate  *prometheus.CounterVec
	HandlerErrors    *prometheus.CounterVec
	LastScannedBlock *prometheus.GaugeVec
	HeadBlock        *prometheus.GaugeVec
	TickDuration     *prometheus.HistogramVec
}

// NewMetrics registers every collector on reg. The process passes its own
// registry, which also carries the Go and process collectors and backs /metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TicksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "factory_indexer",
			Subsystem: "poller",
			Name:      "chain_ticks_total",
			Help:      "Per-chain tick results by outcome",
		}, []string{"chain", "outcome"}),

		EventsAdmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "factory_indexer",
			Subsystem: "ledger",
			Name:      "events_admitted_total",
			Help:      "Events admitted for the first time and dispatched",
		}, []string{"chain", "event"}),

		EventsDuplicate: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "factory_indexer",
			Subsystem: "ledger",
			Name:      "events_duplicate_total",
			Help:      "Events already present in the ledger",
		}, []string{"chain", "event"}),

		HandlerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "factory_indexer",
			Subsystem: "dispatch",
			Name:      "handler_errors_total",
			Help:      "Errors returned by the downstream event handler",
		}, []string{"chain", "event"}),

		LastScannedBlock: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "factory_indexer",
			Subsystem: "poller",
			Name:      "last_scanned_block",
			Help:      "Cursor value written at the end of the last successful scan",
		}, []string{"chain"}),

		HeadBlock: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "factory_indexer",
			Subsystem: "poller",
			Name:      "head_block",
			Help:      "Latest chain head observed",
		}, []string{"chain"}),

		TickDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "factory_indexer",
			Subsystem: "poller",
			Name:      "chain_tick_duration_seconds",
			Help:      "Per-chain tick processing duration",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"chain"}),
	}
}

func (m *Metrics) ObserveTick(chainType string, outcome string, started time.Time) {
	m.TicksTotal.WithLabelValues(chainType, outcome).Inc()
	m.TickDuration.WithLabelValues(chainType).Observe(time.Since(started).Seconds())
}
