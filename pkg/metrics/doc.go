/*
Package metrics defines RenderQ's Prometheus instrumentation: package-level
Gauge, GaugeVec, Counter, CounterVec and Histogram/HistogramVec variables,
all registered in init(), plus a Handler for the /metrics endpoint and a
Timer helper for latency measurements:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DispatchDuration)

Metric names follow the renderq_<noun>_<unit> convention (e.g.
renderq_jobs_total, renderq_dispatch_duration_seconds), scoped to the
things RenderQ actually tracks: jobs, tasks, workers, and dispatch
latency.
*/
package metrics
