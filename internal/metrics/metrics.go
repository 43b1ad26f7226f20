// Package metrics exposes Prometheus counters/gauges for the matching
// engine. It is purely observational: nothing here reads or writes
// book state, and a metrics-push failure is never fatal (spec
// §7 InternalError, non-fatal).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// OrdersAdmitted counts successfully admitted orders by symbol and
	// side.
	OrdersAdmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ironbook_orders_admitted_total",
		Help: "Orders that passed admission, by symbol and side.",
	}, []string{"symbol", "side"})

	// OrdersRejected counts admission failures, labelled by the
	// admission error's full message text.
	OrdersRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ironbook_orders_rejected_total",
		Help: "Orders rejected at admission, by reason.",
	}, []string{"reason"})

	// TradesMatched counts individual fills produced by the matching
	// engine, by symbol.
	TradesMatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ironbook_trades_matched_total",
		Help: "Fills produced by the matching engine, by symbol.",
	}, []string{"symbol"})

	// DurabilityFailures counts TradeLog append failures.
	DurabilityFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ironbook_durability_failures_total",
		Help: "TradeLog append failures.",
	})

	// AttachedSessions tracks the number of currently attached client
	// sessions.
	AttachedSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ironbook_attached_sessions",
		Help: "Number of client sessions currently attached to the broker.",
	})
)

// Registry returns a prometheus.Registerer with every metric above
// already registered, ready to back a /metrics handler.
func Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(OrdersAdmitted, OrdersRejected, TradesMatched, DurabilityFailures, AttachedSessions)
	return reg
}
