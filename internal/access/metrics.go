// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package access

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// decisionsTotal counts authorization decisions by operation and outcome.
var decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "custos_access_decisions_total",
	Help: "Total number of authorization decisions",
}, []string{"operation", "outcome"})

func recordDecision(operation string, d Decision) {
	outcome := "deny"
	if d.Allowed {
		outcome = "allow"
	}
	decisionsTotal.WithLabelValues(operation, outcome).Inc()
}
