// Package metrics defines and registers all custom Prometheus metrics for the
// intern registry API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry via promauto
// when the package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "registry"

// ── Session metrics ───────────────────────────────────────────────────────────

// SignInsTotal counts sign-in attempts.
// Labels:
//   - role: "admin" or "submitter"
//   - result: "ok", "rejected" (bad credentials) or "error"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of sign-in attempts, by role and result.",
	},
	[]string{"role", "result"},
)

// ── Profile metrics ───────────────────────────────────────────────────────────

// ProfileUpsertsTotal counts profile writes.
// Label:
//   - result: "created", "updated", "invalid", "unavailable" or "error"
var ProfileUpsertsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_upserts_total",
		Help:      "Total number of profile upserts, by result.",
	},
	[]string{"result"},
)

// ConfirmationAnswersTotal counts resolved expert confirmations.
// Label:
//   - answer: "yes", "no" or "dismissed"
var ConfirmationAnswersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "confirmation_answers_total",
		Help:      "Total number of expert proficiency confirmations, by answer.",
	},
	[]string{"answer"},
)

// ExportsTotal counts completed exports.
// Label:
//   - channel: "http" or "cli"
var ExportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exports_total",
		Help:      "Total number of profile exports, by channel.",
	},
	[]string{"channel"},
)

// ── Dispatcher metrics ────────────────────────────────────────────────────────

// UpsertQueueDepth tracks the number of writes waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var UpsertQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "upsert_queue_depth",
		Help:      "Current number of profile writes pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// UpsertDuration measures how long a serialised write takes once dequeued.
var UpsertDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upsert_duration_seconds",
		Help:      "Duration of a profile write from dequeue to acknowledgement.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)
