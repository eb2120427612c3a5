// Package scheduler implements RenderQ's periodic control loop: heartbeat
// timeout detection, job progress aggregation, and follow-up job creation.
// Task assignment itself does not happen here — it happens inline inside
// the dispatcher's pull-task path (storage.Store.NextTaskForWorker) — so
// this loop and worker pulls never race over the same Task.
package scheduler

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChenxingM/RenderQ/pkg/events"
	"github.com/ChenxingM/RenderQ/pkg/log"
	"github.com/ChenxingM/RenderQ/pkg/metrics"
	"github.com/ChenxingM/RenderQ/pkg/plugins"
	"github.com/ChenxingM/RenderQ/pkg/storage"
	"github.com/ChenxingM/RenderQ/pkg/types"
)

// Config controls the loop's cadence and failure-detection thresholds.
type Config struct {
	Interval      time.Duration
	WorkerTimeout time.Duration
}

// DefaultConfig returns the default cadence: a roughly 1s tick and a
// 60s worker heartbeat timeout.
func DefaultConfig() Config {
	return Config{
		Interval:      time.Second,
		WorkerTimeout: 60 * time.Second,
	}
}

// Scheduler runs the periodic reconciliation loop.
type Scheduler struct {
	store    storage.Store
	bus      *events.Bus
	registry *plugins.Registry
	logger   zerolog.Logger
	cfg      Config

	mu     sync.Mutex
	stopCh chan struct{}
}

// New constructs a Scheduler. It does nothing until Start is called.
func New(store storage.Store, bus *events.Bus, registry *plugins.Registry, cfg Config) *Scheduler {
	return &Scheduler{
		store:    store,
		bus:      bus,
		registry: registry,
		logger:   log.WithComponent("scheduler"),
		cfg:      cfg,
	}
}

// Start launches the loop's goroutine.
func (s *Scheduler) Start() {
	s.stopCh = make(chan struct{})
	go s.run()
}

// Stop signals the loop to exit.
func (s *Scheduler) Stop() {
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reconcile()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) reconcile() {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.SchedulerCycleDuration)
		metrics.SchedulerCyclesTotal.Inc()
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sweepWorkerTimeouts(); err != nil {
		s.logger.Error().Err(err).Msg("worker timeout sweep failed")
	}

	if err := s.reconcileJobs(); err != nil {
		s.logger.Error().Err(err).Msg("job aggregation failed")
	}
}

// sweepWorkerTimeouts marks any worker not already offline whose last
// heartbeat exceeds the configured timeout as offline; a task it held in
// running is reset to pending for re-dispatch.
func (s *Scheduler) sweepWorkerTimeouts() error {
	workers, err := s.store.ListWorkers()
	if err != nil {
		return err
	}

	now := time.Now()
	for _, worker := range workers {
		if worker.Status == types.WorkerOffline {
			continue
		}
		if now.Sub(worker.LastHeartbeat) <= s.cfg.WorkerTimeout {
			continue
		}

		s.logger.Warn().Str("worker_id", worker.ID).Time("last_heartbeat", worker.LastHeartbeat).
			Msg("worker heartbeat timed out, marking offline")

		if worker.CurrentTask != "" {
			task, err := s.store.GetTask(worker.CurrentTask)
			if err == nil && task.Status == types.TaskRunning {
				task.Status = types.TaskPending
				task.AssignedWorker = ""
				if err := s.store.UpdateTask(task); err != nil {
					s.logger.Error().Err(err).Str("task_id", task.ID).Msg("failed to reset timed-out task")
				}
			}
		}

		worker.Status = types.WorkerOffline
		worker.CurrentTask = ""
		if err := s.store.UpdateWorker(worker); err != nil {
			return err
		}
		metrics.WorkerTimeoutsTotal.Inc()
		s.bus.Publish(events.WorkerOffline, worker)
	}

	return s.refreshWorkerGauge()
}

func (s *Scheduler) refreshWorkerGauge() error {
	workers, err := s.store.ListWorkers()
	if err != nil {
		return err
	}
	counts := map[types.WorkerStatus]int{}
	for _, w := range workers {
		counts[w.Status]++
	}
	for _, status := range []types.WorkerStatus{types.WorkerIdle, types.WorkerBusy, types.WorkerOffline, types.WorkerDisabled} {
		metrics.WorkersTotal.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
	return nil
}

// reconcileJobs recomputes progress/counts for every
// active job, transition to completed/failed once all of its tasks are
// terminal, and trigger follow-up job creation on completion.
func (s *Scheduler) reconcileJobs() error {
	jobs, err := s.store.ListJobsByStatus(types.JobActive)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := s.reconcileJob(job); err != nil {
			s.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to reconcile job")
		}
	}

	return s.refreshJobGauge()
}

func (s *Scheduler) refreshJobGauge() error {
	jobs, err := s.store.ListJobs()
	if err != nil {
		return err
	}
	counts := map[types.JobStatus]int{}
	for _, j := range jobs {
		counts[j.Status]++
	}
	statuses := []types.JobStatus{
		types.JobPending, types.JobQueued, types.JobActive,
		types.JobCompleted, types.JobFailed, types.JobSuspended, types.JobCancelled,
	}
	for _, status := range statuses {
		metrics.JobsTotal.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
	return nil
}

func (s *Scheduler) reconcileJob(job *types.Job) error {
	tasks, err := s.store.ListTasksByJob(job.ID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	var completed, failed int
	var progressSum float64
	allTerminal := true

	for _, task := range tasks {
		switch task.Status {
		case types.TaskCompleted:
			completed++
			progressSum += 100
		case types.TaskFailed:
			failed++
			progressSum += task.Progress
		default:
			allTerminal = false
			progressSum += task.Progress
		}
	}

	job.TaskDone = completed
	job.TaskFailed = failed
	job.Progress = progressSum / float64(len(tasks))

	if !allTerminal {
		return s.store.UpdateJob(job)
	}

	now := time.Now()
	job.FinishedAt = &now

	if failed == 0 {
		job.Status = types.JobCompleted
		job.Progress = 100
		if err := s.store.UpdateJob(job); err != nil {
			return err
		}
		s.bus.Publish(events.JobCompleted, job)
		s.createFollowUps(job)
		return nil
	}

	job.Status = types.JobFailed
	job.Error = "one or more tasks failed"
	if err := s.store.UpdateJob(job); err != nil {
		return err
	}
	s.bus.Publish(events.JobFailed, job)
	return nil
}

// createFollowUps asks the completed job's plugin for
// follow-up job descriptors and submit each as a new Job depending on this
// one.
func (s *Scheduler) createFollowUps(job *types.Job) {
	plugin, err := s.registry.Get(job.Plugin)
	if err != nil {
		return
	}

	for _, descriptor := range plugin.GetEncodingJobs(job) {
		priority := descriptor.Priority
		if priority == 0 {
			priority = job.Priority
		}
		pool := descriptor.Pool
		if pool == "" {
			pool = job.Pool
		}

		req := SubmitRequest{
			Name:        descriptor.Name,
			Plugin:      descriptor.Plugin,
			Priority:    &priority,
			Pool:        pool,
			PluginData:  descriptor.PluginData,
			Metadata:    descriptor.Metadata,
			DependentOn: []string{job.ID},
		}

		if _, err := Submit(s.store, s.registry, s.bus, req); err != nil {
			s.logger.Error().Err(err).Str("job_id", job.ID).Str("plugin", descriptor.Plugin).
				Msg("failed to submit follow-up job")
			continue
		}
		metrics.FollowUpJobsTotal.WithLabelValues(descriptor.Plugin).Inc()
	}
}
