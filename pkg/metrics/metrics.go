// Package metrics exposes Prometheus counters for the proxy's request
// pipeline: how many requests were transformed by a plugin versus passed
// through unmodified, and how many failed outright.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const labelPlugin = "plugin"

var (
	// RequestsTotal counts requests the pipeline forwarded, labeled by the
	// plugin whose transform ran (or "none" for pass-through). Requests that
	// end in a pipeline error are not counted here.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acp_proxy_requests_total",
			Help: "Total requests handled by the credential proxy, labeled by matched plugin.",
		},
		[]string{labelPlugin},
	)

	// PassthroughTotal counts requests forwarded unmodified because no
	// plugin matched the host or the matched plugin has no credentials
	// stored at all.
	PassthroughTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acp_proxy_passthrough_total",
			Help: "Requests forwarded without credential injection, labeled by reason.",
		},
		[]string{"reason"},
	)

	// PipelineErrorsTotal counts requests that failed in the pipeline
	// (credential load, sandbox setup, plugin transform or serialization)
	// rather than falling back to pass-through.
	PipelineErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "acp_proxy_pipeline_errors_total",
			Help: "Requests that failed during plugin transform.",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, PassthroughTotal, PipelineErrorsTotal)
}

// ObservePluginMatch records a request handled by the named plugin.
func ObservePluginMatch(plugin string) {
	RequestsTotal.WithLabelValues(plugin).Inc()
}

// ObservePassthrough records a pass-through request and why it fell back.
func ObservePassthrough(reason string) {
	RequestsTotal.WithLabelValues("none").Inc()
	PassthroughTotal.WithLabelValues(reason).Inc()
}

// ObservePipelineError records a request that failed during transform.
func ObservePipelineError() {
	PipelineErrorsTotal.Inc()
}
