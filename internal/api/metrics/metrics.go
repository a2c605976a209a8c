// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace gate. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors register with the default Prometheus registry on package init.
// Recorder adapts them to the narrow interfaces the core services accept.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

const namespace = "gate"

// ── Gate metrics ──────────────────────────────────────────────────────────────

// DecisionsTotal counts gate decisions.
// Labels:
//   - outcome: "allow" or "redirect"
//   - class: "public", "common", "role_exclusive", "unclassified"
var DecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_total",
		Help:      "Total number of gate decisions, by outcome and route class.",
	},
	[]string{"outcome", "class"},
)

// InvalidCredentialsTotal counts credentials the gate rejected and cleared.
// Label:
//   - reason: "malformed", "missing_role", "expired", "unknown_role"
var InvalidCredentialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invalid_credentials_total",
		Help:      "Total number of session credentials rejected and cleared by the gate.",
	},
	[]string{"reason"},
)

// CrossZoneTotal counts navigations into another role's zone.
// Label:
//   - role: the caller's role
var CrossZoneTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cross_zone_total",
		Help:      "Total number of cross-zone navigations corrected by the gate.",
	},
	[]string{"role"},
)

// ── Audit pipeline metrics ────────────────────────────────────────────────────

// AuditEventsDroppedTotal counts access events dropped because a worker queue was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of access events dropped because the audit queue was full.",
	},
)

// AuditQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of access events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditProcessingDuration measures how long a single access event takes to process.
// Label:
//   - kind: "invalid_credential" or "cross_zone"
var AuditProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_processing_duration_seconds",
		Help:      "Duration of access event processing from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)

// ── Profile metrics ───────────────────────────────────────────────────────────

// ProfileFetchTotal counts repository reads behind the profile cache.
// Label:
//   - result: "ok", "not_found", "error"
var ProfileFetchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_fetch_total",
		Help:      "Total number of profile repository reads, by result.",
	},
	[]string{"result"},
)

// ProfileCacheTotal counts profile cache lookups.
// Label:
//   - result: "hit", "miss", "error"
var ProfileCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_cache_total",
		Help:      "Total number of profile cache lookups, by result.",
	},
	[]string{"result"},
)

// Recorder writes to the package collectors.
type Recorder struct{}

func (Recorder) Decision(outcome domain.Outcome, class domain.RouteClass) {
	DecisionsTotal.WithLabelValues(string(outcome), string(class)).Inc()
}

func (Recorder) InvalidCredential(reason string) {
	InvalidCredentialsTotal.WithLabelValues(reason).Inc()
}

func (Recorder) CrossZone(role domain.Role) {
	CrossZoneTotal.WithLabelValues(string(role)).Inc()
}

func (Recorder) QueueDepth(workerID string, depth int) {
	AuditQueueDepth.WithLabelValues(workerID).Set(float64(depth))
}

func (Recorder) Dropped() {
	AuditEventsDroppedTotal.Inc()
}

func (Recorder) Processed(kind string, elapsed time.Duration) {
	AuditProcessingDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (Recorder) CacheResult(result string) {
	ProfileCacheTotal.WithLabelValues(result).Inc()
}

func (Recorder) FetchResult(result string) {
	ProfileFetchTotal.WithLabelValues(result).Inc()
}
