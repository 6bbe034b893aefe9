// Package metrics provides Prometheus metrics for ddns6.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "ddns6"

var (
	// BuildInfo exposes the running version.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information, value is always 1.",
	}, []string{"version", "go_version"})

	// CyclesTotal counts reconciliation cycles by outcome.
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cycles_total",
		Help:      "Reconciliation cycles by outcome.",
	}, []string{"outcome"})

	// CycleDuration observes how long a cycle took, excluding the wait.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Duration of a reconciliation cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// ConsecutiveFailures is the number of unsuccessful cycles in a row.
	ConsecutiveFailures = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "consecutive_failures",
		Help:      "Cycles in a row that ended without a reachable candidate or with a failed write.",
	})

	// CandidatesDiscovered is the number of global addresses seen in the last cycle.
	CandidatesDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "candidates_discovered",
		Help:      "Global IPv6 addresses found on the interface in the last cycle.",
	})

	// AddressQueryErrorsTotal counts failed interface queries by kind.
	AddressQueryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "address_query_errors_total",
		Help:      "Failed interface address queries.",
	}, []string{"kind"})

	// ProbesTotal counts probes by result.
	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "probes_total",
		Help:      "Reachability probes by result.",
	}, []string{"result"})

	// RecordUpdatesTotal counts record writes by result.
	RecordUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "record_updates_total",
		Help:      "Record update attempts by result.",
	}, []string{"result"})

	// RecordInfo carries the published content as a label.
	RecordInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "record_info",
		Help:      "Currently published record, value is always 1.",
	}, []string{"name", "type", "content"})

	// ProviderAPIRequestsTotal counts provider API calls.
	ProviderAPIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "provider_api_requests_total",
		Help:      "Provider API requests by method and status code.",
	}, []string{"method", "code"})

	// ProviderAPIDuration observes provider API latency.
	ProviderAPIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "provider_api_duration_seconds",
		Help:      "Provider API request duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	// PropagationChecksTotal counts nameserver lookups after an update.
	PropagationChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "propagation_checks_total",
		Help:      "Post-update nameserver checks by result.",
	}, []string{"nameserver", "result"})
)

// SetBuildInfo records the build version.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// SetRecord replaces the published record info series.
func SetRecord(name, recordType, content string) {
	RecordInfo.Reset()
	RecordInfo.WithLabelValues(name, recordType, content).Set(1)
}

// ObserveProbe counts one probe result.
func ObserveProbe(reachable bool) {
	if reachable {
		ProbesTotal.WithLabelValues("reachable").Inc()
		return
	}
	ProbesTotal.WithLabelValues("unreachable").Inc()
}

// ObserveProviderRequest matches httputil.ObserveFunc. Status 0 is recorded as "error".
func ObserveProviderRequest(method string, status int, elapsed time.Duration) {
	code := "error"
	if status != 0 {
		code = strconv.Itoa(status)
	}
	ProviderAPIRequestsTotal.WithLabelValues(method, code).Inc()
	ProviderAPIDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
