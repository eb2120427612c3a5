package scheduler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ChenxingM/RenderQ/pkg/events"
	"github.com/ChenxingM/RenderQ/pkg/log"
	"github.com/ChenxingM/RenderQ/pkg/metrics"
	"github.com/ChenxingM/RenderQ/pkg/plugins"
	"github.com/ChenxingM/RenderQ/pkg/storage"
	"github.com/ChenxingM/RenderQ/pkg/types"
)

// ErrUnknownPlugin is returned when a submission names a plugin the
// registry has no entry for.
var ErrUnknownPlugin = fmt.Errorf("scheduler: unknown plugin")

// ErrValidationFailed is returned when the plugin rejects a submission's
// parameters.
var ErrValidationFailed = fmt.Errorf("scheduler: validation failed")

// ErrPartitionFailed is returned when a plugin's CreateTasks call errors.
var ErrPartitionFailed = fmt.Errorf("scheduler: partition failed")

// SubmitRequest is the input to Submit: a new Job to validate, partition
// and persist. It is used both for direct API submissions and for
// follow-up jobs the scheduler creates on job completion.
//
// Priority is a pointer so an explicit 0 can be told apart from "not
// provided": the zero value of int is a valid priority, not a sentinel
// for "use the default."
type SubmitRequest struct {
	Name        string
	Plugin      string
	Priority    *int
	Pool        string
	PluginData  map[string]any
	Metadata    map[string]any
	DependentOn []string
	SubmittedBy string
}

// ValidatePriority rejects any priority outside the documented [0,100]
// range; 0 and 100 are both valid.
func ValidatePriority(p int) error {
	if p < 0 || p > 100 {
		return fmt.Errorf("%w: priority %d out of range [0,100]", ErrValidationFailed, p)
	}
	return nil
}

// Submit looks up the plugin, validates, persists the Job, partitions it
// into Tasks, persists those, and marks the Job queued. This is the sole
// path by which a Job is created — both the API's submission handler and
// the scheduler's follow-up-job creation funnel through it.
func Submit(store storage.Store, registry *plugins.Registry, bus *events.Bus, req SubmitRequest) (*types.Job, error) {
	plugin, err := registry.Get(req.Plugin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, req.Plugin)
	}

	if req.PluginData == nil {
		req.PluginData = map[string]any{}
	}
	if ok, reason := plugin.Validate(req.PluginData); !ok {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, reason)
	}

	priority := 50
	if req.Priority != nil {
		if err := ValidatePriority(*req.Priority); err != nil {
			return nil, err
		}
		priority = *req.Priority
	}
	pool := req.Pool
	if pool == "" {
		pool = "default"
	}

	job := &types.Job{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Plugin:      req.Plugin,
		Priority:    priority,
		Pool:        pool,
		PluginData:  req.PluginData,
		Status:      types.JobPending,
		Metadata:    req.Metadata,
		DependentOn: req.DependentOn,
		SubmittedBy: req.SubmittedBy,
		SubmittedAt: time.Now(),
	}

	if err := store.CreateJob(job); err != nil {
		return nil, fmt.Errorf("scheduler: persist job: %w", err)
	}

	tasks, err := plugin.CreateTasks(job)
	if err != nil {
		_ = store.DeleteJob(job.ID)
		return nil, fmt.Errorf("%w: %v", ErrPartitionFailed, err)
	}

	for i, task := range tasks {
		task.ID = uuid.NewString()
		task.JobID = job.ID
		task.Index = i
		task.Status = types.TaskPending
		if err := store.CreateTask(task); err != nil {
			return nil, fmt.Errorf("scheduler: persist task: %w", err)
		}
	}

	job.TaskTotal = len(tasks)
	job.Status = types.JobQueued
	if err := store.UpdateJob(job); err != nil {
		return nil, fmt.Errorf("scheduler: finalize job: %w", err)
	}

	metrics.JobsSubmittedTotal.WithLabelValues(req.Plugin).Inc()
	bus.Publish(events.JobSubmitted, job)
	log.WithJobID(job.ID).Info().Str("plugin", job.Plugin).Int("tasks", len(tasks)).Msg("job submitted")

	return job, nil
}
