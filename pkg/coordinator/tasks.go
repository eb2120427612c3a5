package coordinator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ChenxingM/RenderQ/pkg/events"
	"github.com/ChenxingM/RenderQ/pkg/types"
)

// GetTask returns a single Task by id.
func (c *Coordinator) GetTask(id string) (*types.Task, error) {
	task, err := c.Store.GetTask(id)
	return task, wrapNotFound(err)
}

// TaskStart transitions a Task from assigned to running, reported by the
// Worker that holds the Task.
func (c *Coordinator) TaskStart(id string) (*types.Task, error) {
	task, err := c.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task.Status != types.TaskAssigned {
		return nil, fmt.Errorf("%w: cannot start a task in status %s", ErrIllegalTransition, task.Status)
	}
	task.Status = types.TaskRunning
	now := time.Now()
	task.StartedAt = &now
	if err := c.Store.UpdateTask(task); err != nil {
		return nil, err
	}
	c.Bus.Publish(events.TaskStarted, task)
	return task, nil
}

// TaskProgress updates a running Task's progress and recomputes its Job's
// aggregate inline, so a client polling the Job doesn't wait for the next
// scheduler tick to see movement.
func (c *Coordinator) TaskProgress(id string, progress float64) (*types.Task, error) {
	task, err := c.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task.Status != types.TaskRunning {
		return nil, fmt.Errorf("%w: cannot report progress on a task in status %s", ErrIllegalTransition, task.Status)
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	task.Progress = progress
	if err := c.Store.UpdateTask(task); err != nil {
		return nil, err
	}
	c.Bus.Publish(events.TaskProgress, task)

	if job, err := c.Store.GetJob(task.JobID); err == nil {
		c.refreshJobProgress(job)
	}
	return task, nil
}

// TaskComplete implements `running → completed`, releasing the Worker and
// recomputing the Job's aggregate inline.
func (c *Coordinator) TaskComplete(id string, exitCode int) (*types.Task, error) {
	task, err := c.finishTask(id, types.TaskCompleted, exitCode, "")
	if err != nil {
		return nil, err
	}
	c.Bus.Publish(events.TaskCompleted, task)
	return task, nil
}

// TaskFail implements `running → failed`.
func (c *Coordinator) TaskFail(id string, exitCode int, errMsg string) (*types.Task, error) {
	task, err := c.finishTask(id, types.TaskFailed, exitCode, errMsg)
	if err != nil {
		return nil, err
	}
	c.Bus.Publish(events.TaskFailed, task)
	return task, nil
}

func (c *Coordinator) finishTask(id string, status types.TaskStatus, exitCode int, errMsg string) (*types.Task, error) {
	task, err := c.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task.Status != types.TaskRunning {
		return nil, fmt.Errorf("%w: cannot finish a task in status %s", ErrIllegalTransition, task.Status)
	}

	task.Status = status
	task.ExitCode = &exitCode
	task.Error = errMsg
	if status == types.TaskCompleted {
		task.Progress = 100
	}
	now := time.Now()
	task.FinishedAt = &now
	if err := c.Store.UpdateTask(task); err != nil {
		return nil, err
	}

	if task.AssignedWorker != "" {
		if worker, err := c.Store.GetWorker(task.AssignedWorker); err == nil && worker.CurrentTask == task.ID {
			worker.Status = types.WorkerIdle
			worker.CurrentTask = ""
			_ = c.Store.UpdateWorker(worker)
		}
	}

	if job, err := c.Store.GetJob(task.JobID); err == nil {
		c.refreshJobProgress(job)
	}

	return task, nil
}

// TaskRetry implements `failed → pending`.
func (c *Coordinator) TaskRetry(id string) (*types.Task, error) {
	task, err := c.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task.Status != types.TaskFailed {
		return nil, fmt.Errorf("%w: cannot retry a task in status %s", ErrIllegalTransition, task.Status)
	}
	task.Status = types.TaskPending
	task.AssignedWorker = ""
	task.Progress = 0
	task.ExitCode = nil
	task.Error = ""
	task.StartedAt = nil
	task.FinishedAt = nil
	if err := c.Store.UpdateTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

// TaskCancel finalizes a non-terminal Task and releases its Worker, if any.
func (c *Coordinator) TaskCancel(id string) (*types.Task, error) {
	task, err := c.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task.Status == types.TaskCompleted || task.Status == types.TaskFailed {
		return nil, fmt.Errorf("%w: cannot cancel a terminal task", ErrIllegalTransition)
	}

	worker := task.AssignedWorker
	task.Status = types.TaskFailed
	task.Error = "cancelled"
	task.AssignedWorker = ""
	now := time.Now()
	task.FinishedAt = &now
	if err := c.Store.UpdateTask(task); err != nil {
		return nil, err
	}

	if worker != "" {
		if w, err := c.Store.GetWorker(worker); err == nil && w.CurrentTask == task.ID {
			w.Status = types.WorkerIdle
			w.CurrentTask = ""
			_ = c.Store.UpdateWorker(w)
		}
	}

	if job, err := c.Store.GetJob(task.JobID); err == nil {
		c.refreshJobProgress(job)
	}

	return task, nil
}

// TaskSuspend resets an assigned or running Task back to pending, releasing
// its Worker, without marking it failed.
func (c *Coordinator) TaskSuspend(id string) (*types.Task, error) {
	task, err := c.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task.Status != types.TaskAssigned && task.Status != types.TaskRunning {
		return nil, fmt.Errorf("%w: cannot suspend a task in status %s", ErrIllegalTransition, task.Status)
	}

	worker := task.AssignedWorker
	task.Status = types.TaskPending
	task.AssignedWorker = ""
	if err := c.Store.UpdateTask(task); err != nil {
		return nil, err
	}

	if worker != "" {
		if w, err := c.Store.GetWorker(worker); err == nil && w.CurrentTask == task.ID {
			w.Status = types.WorkerIdle
			w.CurrentTask = ""
			_ = c.Store.UpdateWorker(w)
		}
	}

	return task, nil
}

// refreshJobProgress recomputes a Job's aggregate counts/progress inline,
// mirroring the scheduler's own reconciliation pass but triggered
// immediately by a worker's task report rather than waiting for the next
// tick.
func (c *Coordinator) refreshJobProgress(job *types.Job) {
	tasks, err := c.Store.ListTasksByJob(job.ID)
	if err != nil || len(tasks) == 0 {
		return
	}

	var completed, failed int
	var progressSum float64
	for _, t := range tasks {
		switch t.Status {
		case types.TaskCompleted:
			completed++
			progressSum += 100
		case types.TaskFailed:
			failed++
			progressSum += t.Progress
		default:
			progressSum += t.Progress
		}
	}

	job.TaskDone = completed
	job.TaskFailed = failed
	job.Progress = progressSum / float64(len(tasks))
	_ = c.Store.UpdateJob(job)
}

// logPath returns the filesystem path for a task's log artifact.
func (c *Coordinator) logPath(taskID string) string {
	return filepath.Join(c.logDir, taskID+".log")
}

// AppendLog appends bytes to a Task's log artifact. Logs a warning, but
// does not reject the call, if the caller-asserted worker id doesn't match
// the Task's assigned worker — the coordinator has no authentication layer
// to enforce that with.
func (c *Coordinator) AppendLog(taskID, callerWorkerID string, chunk []byte) error {
	task, err := c.GetTask(taskID)
	if err != nil {
		return err
	}
	c.warnIfWorkerMismatch(task, callerWorkerID)

	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("coordinator: create log dir: %w", err)
	}
	f, err := os.OpenFile(c.logPath(taskID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("coordinator: open log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(chunk); err != nil {
		return fmt.Errorf("coordinator: write log: %w", err)
	}

	if task.LogPath == "" {
		task.LogPath = c.logPath(taskID)
		_ = c.Store.UpdateTask(task)
	}
	return nil
}

// ReplaceLog overwrites a Task's log artifact with chunk.
func (c *Coordinator) ReplaceLog(taskID, callerWorkerID string, chunk []byte) error {
	task, err := c.GetTask(taskID)
	if err != nil {
		return err
	}
	c.warnIfWorkerMismatch(task, callerWorkerID)

	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("coordinator: create log dir: %w", err)
	}
	if err := os.WriteFile(c.logPath(taskID), chunk, 0o644); err != nil {
		return fmt.Errorf("coordinator: write log: %w", err)
	}

	task.LogPath = c.logPath(taskID)
	return c.Store.UpdateTask(task)
}

// GetLog returns a Task's log artifact contents.
func (c *Coordinator) GetLog(taskID string) ([]byte, error) {
	if _, err := c.GetTask(taskID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(c.logPath(taskID))
	if os.IsNotExist(err) {
		return []byte{}, nil
	}
	return data, err
}

func (c *Coordinator) warnIfWorkerMismatch(task *types.Task, callerWorkerID string) {
	if callerWorkerID != "" && task.AssignedWorker != "" && callerWorkerID != task.AssignedWorker {
		c.logger.Warn().Str("task_id", task.ID).Str("caller_worker", callerWorkerID).
			Str("assigned_worker", task.AssignedWorker).Msg("log upload from worker not assigned to this task")
	}
}
