package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Job metrics
	JobsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "renderq_jobs_total",
			Help: "Total number of jobs by status",
		},
		[]string{"status"},
	)

	JobsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderq_jobs_submitted_total",
			Help: "Total number of jobs submitted by plugin",
		},
		[]string{"plugin"},
	)

	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "renderq_job_duration_seconds",
			Help:    "Time from a job becoming active to reaching a terminal state",
			Buckets: []float64{1, 10, 30, 60, 300, 900, 1800, 3600, 7200, 14400},
		},
		[]string{"plugin", "status"},
	)

	// Task metrics
	TasksTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "renderq_tasks_total",
			Help: "Total number of tasks by status",
		},
		[]string{"status"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "renderq_task_duration_seconds",
			Help:    "Time from task assignment to a terminal state",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "renderq_dispatch_duration_seconds",
			Help:    "Time taken to find and assign a task to a requesting worker",
			Buckets: prometheus.DefBuckets,
		},
	)

	DispatchEmptyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "renderq_dispatch_empty_total",
			Help: "Total number of worker pull requests that found no eligible task",
		},
	)

	// Worker metrics
	WorkersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "renderq_workers_total",
			Help: "Total number of workers by status",
		},
		[]string{"status"},
	)

	WorkerTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "renderq_worker_timeouts_total",
			Help: "Total number of workers marked offline due to missed heartbeats",
		},
	)

	// Scheduler loop metrics
	SchedulerCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "renderq_scheduler_cycle_duration_seconds",
			Help:    "Time taken for one scheduler reconciliation cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	SchedulerCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "renderq_scheduler_cycles_total",
			Help: "Total number of scheduler reconciliation cycles completed",
		},
	)

	FollowUpJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderq_followup_jobs_total",
			Help: "Total number of follow-up jobs created on job completion",
		},
		[]string{"plugin"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderq_api_requests_total",
			Help: "Total number of API requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "renderq_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Event stream metrics
	EventStreamClientsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "renderq_eventstream_clients",
			Help: "Number of connected event stream clients",
		},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderq_events_published_total",
			Help: "Total number of events published on the event bus by type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(JobsTotal)
	prometheus.MustRegister(JobsSubmittedTotal)
	prometheus.MustRegister(JobDuration)
	prometheus.MustRegister(TasksTotal)
	prometheus.MustRegister(TaskDuration)
	prometheus.MustRegister(DispatchDuration)
	prometheus.MustRegister(DispatchEmptyTotal)
	prometheus.MustRegister(WorkersTotal)
	prometheus.MustRegister(WorkerTimeoutsTotal)
	prometheus.MustRegister(SchedulerCycleDuration)
	prometheus.MustRegister(SchedulerCyclesTotal)
	prometheus.MustRegister(FollowUpJobsTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(EventStreamClientsTotal)
	prometheus.MustRegister(EventsPublishedTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
