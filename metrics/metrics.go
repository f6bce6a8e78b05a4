// Package metrics holds the process-wide Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LedgerMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "ledger_mutations_total",
		Help:      "Committed ledger and registry mutations by operation.",
	}, []string{"operation"})

	ValidationConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "validation_conflicts_total",
		Help:      "Conflicts that rejected a mutation, by conflict code.",
	}, []string{"code"})

	AuditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "audit_failures_total",
		Help:      "Audit entries that could not be written.",
	})
)

func Handler() http.Handler { return promhttp.Handler() }
