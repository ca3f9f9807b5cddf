// Package metrics exposes the process's Prometheus counters. Counters are
// package-level by convention; the HTTP handler is mounted by the server.
package metrics

import (
	"net/http"

	"github.com/VictoriaMetrics/metrics"
)

var (
	// SettlementsStarted counts settlement attempts accepted by the
	// in-flight guard.
	SettlementsStarted = metrics.NewCounter("shadow_settlements_started_total")

	// SettlementsSucceeded counts settlements that produced a verified
	// result.
	SettlementsSucceeded = metrics.NewCounter("shadow_settlements_succeeded_total")

	// SettlementsFailed counts settlements that ended in a typed error.
	SettlementsFailed = metrics.NewCounter("shadow_settlements_failed_total")

	// PollAttempts counts individual status polls across all settlements.
	PollAttempts = metrics.NewCounter("shadow_poll_attempts_total")

	// BidsEncrypted counts bid envelopes produced by the gateway.
	BidsEncrypted = metrics.NewCounter("shadow_bids_encrypted_total")
)

// Handler serves the Prometheus exposition format, including process
// metrics.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
}
