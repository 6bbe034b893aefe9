package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetBuildInfo(t *testing.T) {
	// Reset metrics for testing
	BuildInfo.Reset()

	SetBuildInfo("v1.0.0", "go1.24")

	count := testutil.CollectAndCount(BuildInfo)
	if count != 1 {
		t.Errorf("expected 1 metric, got %d", count)
	}

	value := testutil.ToFloat64(BuildInfo.WithLabelValues("v1.0.0", "go1.24"))
	if value != 1 {
		t.Errorf("expected value 1, got %f", value)
	}
}

func TestSetRecord_ReplacesPreviousContent(t *testing.T) {
	RecordInfo.Reset()

	SetRecord("vpn.example.com", "AAAA", "2001:db8::1")
	SetRecord("vpn.example.com", "AAAA", "2001:db8::2")

	if count := testutil.CollectAndCount(RecordInfo); count != 1 {
		t.Errorf("expected 1 series, got %d", count)
	}
	if v := testutil.ToFloat64(RecordInfo.WithLabelValues("vpn.example.com", "AAAA", "2001:db8::2")); v != 1 {
		t.Errorf("expected current record series, got %f", v)
	}
}

func TestObserveProbe(t *testing.T) {
	ProbesTotal.Reset()

	ObserveProbe(true)
	ObserveProbe(false)
	ObserveProbe(false)

	if v := testutil.ToFloat64(ProbesTotal.WithLabelValues("reachable")); v != 1 {
		t.Errorf("expected 1 reachable, got %f", v)
	}
	if v := testutil.ToFloat64(ProbesTotal.WithLabelValues("unreachable")); v != 2 {
		t.Errorf("expected 2 unreachable, got %f", v)
	}
}

func TestObserveProviderRequest(t *testing.T) {
	ProviderAPIRequestsTotal.Reset()
	ProviderAPIDuration.Reset()

	ObserveProviderRequest("PUT", 200, 120*time.Millisecond)
	ObserveProviderRequest("GET", 0, time.Second)

	if v := testutil.ToFloat64(ProviderAPIRequestsTotal.WithLabelValues("PUT", "200")); v != 1 {
		t.Errorf("expected 1 PUT 200, got %f", v)
	}
	if v := testutil.ToFloat64(ProviderAPIRequestsTotal.WithLabelValues("GET", "error")); v != 1 {
		t.Errorf("expected 1 GET error, got %f", v)
	}
	if count := testutil.CollectAndCount(ProviderAPIDuration); count != 2 {
		t.Errorf("expected 2 histogram series, got %d", count)
	}
}

func TestCycleMetrics(t *testing.T) {
	CyclesTotal.Reset()

	CyclesTotal.WithLabelValues("updated").Inc()
	CyclesTotal.WithLabelValues("no_change").Add(3)
	CycleDuration.Observe(0.2)
	ConsecutiveFailures.Set(2)

	if v := testutil.ToFloat64(CyclesTotal.WithLabelValues("no_change")); v != 3 {
		t.Errorf("expected 3 no_change cycles, got %f", v)
	}
	if v := testutil.ToFloat64(ConsecutiveFailures); v != 2 {
		t.Errorf("expected 2 consecutive failures, got %f", v)
	}
}

func TestMetricNames(t *testing.T) {
	// Verify all metrics use the correct namespace prefix
	expectedPrefix := "ddns6_"

	metrics := []prometheus.Collector{
		BuildInfo,
		CyclesTotal,
		CycleDuration,
		ConsecutiveFailures,
		CandidatesDiscovered,
		AddressQueryErrorsTotal,
		ProbesTotal,
		RecordUpdatesTotal,
		RecordInfo,
		ProviderAPIRequestsTotal,
		ProviderAPIDuration,
		PropagationChecksTotal,
	}

	for _, m := range metrics {
		ch := make(chan *prometheus.Desc, 10)
		m.Describe(ch)
		close(ch)

		for desc := range ch {
			name := desc.String()
			if !strings.Contains(name, expectedPrefix) {
				t.Errorf("metric %s does not have expected prefix %s", name, expectedPrefix)
			}
		}
	}
}
