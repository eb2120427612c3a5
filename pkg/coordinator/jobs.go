package coordinator

import (
	"fmt"
	"time"

	"github.com/ChenxingM/RenderQ/pkg/events"
	"github.com/ChenxingM/RenderQ/pkg/scheduler"
	"github.com/ChenxingM/RenderQ/pkg/types"
)

// SubmitJob validates and partitions a new Job via the shared scheduler.Submit path.
func (c *Coordinator) SubmitJob(req scheduler.SubmitRequest) (*types.Job, error) {
	job, err := scheduler.Submit(c.Store, c.Registry, c.Bus, req)
	if err != nil {
		return nil, wrapSchedulerErr(err)
	}
	return job, nil
}

// GetJob returns a single Job by id.
func (c *Coordinator) GetJob(id string) (*types.Job, error) {
	job, err := c.Store.GetJob(id)
	return job, wrapNotFound(err)
}

// ListJobs lists Jobs, optionally filtered by status, with limit/offset
// pagination applied after the store scan.
func (c *Coordinator) ListJobs(status types.JobStatus, limit, offset int) ([]*types.Job, error) {
	var jobs []*types.Job
	var err error
	if status != "" {
		jobs, err = c.Store.ListJobsByStatus(status)
	} else {
		jobs, err = c.Store.ListJobs()
	}
	if err != nil {
		return nil, err
	}
	return paginateJobs(jobs, limit, offset), nil
}

func paginateJobs(jobs []*types.Job, limit, offset int) []*types.Job {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(jobs) {
		return []*types.Job{}
	}
	jobs = jobs[offset:]
	if limit > 0 && limit < len(jobs) {
		jobs = jobs[:limit]
	}
	return jobs
}

// ListTasksForJob returns a Job's Tasks in index order.
func (c *Coordinator) ListTasksForJob(jobID string) ([]*types.Task, error) {
	if _, err := c.GetJob(jobID); err != nil {
		return nil, err
	}
	return c.Store.ListTasksByJob(jobID)
}

// SuspendJob transitions a queued or active Job to suspended.
func (c *Coordinator) SuspendJob(id string) (*types.Job, error) {
	job, err := c.GetJob(id)
	if err != nil {
		return nil, err
	}
	if job.Status != types.JobQueued && job.Status != types.JobActive {
		return nil, fmt.Errorf("%w: cannot suspend a job in status %s", ErrIllegalTransition, job.Status)
	}
	job.Status = types.JobSuspended
	if err := c.Store.UpdateJob(job); err != nil {
		return nil, err
	}
	c.Bus.Publish(events.JobSuspended, job)
	return job, nil
}

// ResumeJob transitions a suspended Job back to queued. The next
// successful dispatch promotes the job to active; no "any pending tasks"
// check is performed here (see DESIGN.md).
func (c *Coordinator) ResumeJob(id string) (*types.Job, error) {
	job, err := c.GetJob(id)
	if err != nil {
		return nil, err
	}
	if job.Status != types.JobSuspended {
		return nil, fmt.Errorf("%w: cannot resume a job in status %s", ErrIllegalTransition, job.Status)
	}
	job.Status = types.JobQueued
	if err := c.Store.UpdateJob(job); err != nil {
		return nil, err
	}
	c.Bus.Publish(events.JobResumed, job)
	return job, nil
}

// CancelJob transitions any non-terminal Job to cancelled. Cancellation
// is passive: it does not attempt to signal a Worker currently executing one
// of the job's Tasks, only stops future dispatch and finalizes the row.
func (c *Coordinator) CancelJob(id string) (*types.Job, error) {
	job, err := c.GetJob(id)
	if err != nil {
		return nil, err
	}
	if isTerminalJob(job.Status) {
		return nil, fmt.Errorf("%w: job %s is already terminal (%s)", ErrIllegalTransition, id, job.Status)
	}
	job.Status = types.JobCancelled
	now := time.Now()
	job.FinishedAt = &now
	if err := c.Store.UpdateJob(job); err != nil {
		return nil, err
	}
	c.Bus.Publish(events.JobCancelled, job)
	return job, nil
}

// RetryJob transitions a failed Job back to queued, resetting its failed
// Tasks to pending.
func (c *Coordinator) RetryJob(id string) (*types.Job, error) {
	job, err := c.GetJob(id)
	if err != nil {
		return nil, err
	}
	if job.Status != types.JobFailed {
		return nil, fmt.Errorf("%w: cannot retry a job in status %s", ErrIllegalTransition, job.Status)
	}

	tasks, err := c.Store.ListTasksByJob(id)
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		if task.Status != types.TaskFailed {
			continue
		}
		task.Status = types.TaskPending
		task.AssignedWorker = ""
		task.Progress = 0
		task.ExitCode = nil
		task.Error = ""
		if err := c.Store.UpdateTask(task); err != nil {
			return nil, err
		}
	}

	job.Status = types.JobQueued
	job.Progress = 0
	job.TaskDone = 0
	job.TaskFailed = 0
	job.Error = ""
	job.FinishedAt = nil
	if err := c.Store.UpdateJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// UpdatePriority changes a Job's priority in place. Accepted on any
// non-terminal job; the dispatcher picks up the new value on its next scan.
func (c *Coordinator) UpdatePriority(id string, priority int) (*types.Job, error) {
	job, err := c.GetJob(id)
	if err != nil {
		return nil, err
	}
	if isTerminalJob(job.Status) {
		return nil, fmt.Errorf("%w: cannot change priority of a terminal job", ErrIllegalTransition)
	}
	if err := scheduler.ValidatePriority(priority); err != nil {
		return nil, wrapSchedulerErr(err)
	}
	job.Priority = priority
	if err := c.Store.UpdateJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// DeleteJob removes a Job and cascades its Tasks. Only terminal jobs may be
// deleted.
func (c *Coordinator) DeleteJob(id string) error {
	job, err := c.GetJob(id)
	if err != nil {
		return err
	}
	if !isTerminalJob(job.Status) {
		return fmt.Errorf("%w: cannot delete a job in status %s", ErrIllegalTransition, job.Status)
	}

	tasks, err := c.Store.ListTasksByJob(id)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if err := c.Store.DeleteTask(task.ID); err != nil {
			return err
		}
	}
	return c.Store.DeleteJob(id)
}

func isTerminalJob(status types.JobStatus) bool {
	switch status {
	case types.JobCompleted, types.JobFailed, types.JobCancelled:
		return true
	default:
		return false
	}
}
