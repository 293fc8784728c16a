package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all campus events metrics
const namespace = "campus_events"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// RegistrationsTotal counts registration attempts by operation and outcome.
// Outcomes: success, forbidden_role, not_found, event_closed, event_full,
// already_registered, not_registered, error.
var RegistrationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration operations by outcome",
	},
	[]string{"operation", "outcome"},
)

// EventCapacityRejections counts registrations turned away at capacity,
// split out for alerting on consistently full events.
var EventCapacityRejections = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_capacity_rejections_total",
		Help:      "Total number of registrations rejected because the event was full",
	},
)

// EventsMarkedPast tracks rows flipped to past by the sweep job.
var EventsMarkedPast = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_marked_past_total",
		Help:      "Total number of events transitioned from upcoming to past by the sweep job",
	},
)

// SweepErrors counts sweep job failures.
var SweepErrors = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_sweep_errors_total",
		Help:      "Total number of past-event sweep job failures",
	},
)

// EmailsSent counts confirmation emails by delivery result.
var EmailsSent = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Total number of confirmation emails by result",
	},
	[]string{"result"},
)

// Init registers runtime collectors and sets version information.
func Init(version, commit, buildDate string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}

// RecordRegistration increments the outcome counter for one coordinator call.
func RecordRegistration(operation, outcome string) {
	RegistrationsTotal.WithLabelValues(operation, outcome).Inc()
	if operation == "register" && outcome == "event_full" {
		EventCapacityRejections.Inc()
	}
}
