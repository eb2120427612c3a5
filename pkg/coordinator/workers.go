package coordinator

import (
	"fmt"
	"time"

	"github.com/ChenxingM/RenderQ/pkg/events"
	"github.com/ChenxingM/RenderQ/pkg/metrics"
	"github.com/ChenxingM/RenderQ/pkg/types"
)

// RegisterWorker is an idempotent upsert with a fresh heartbeat. A new or
// non-busy Worker lands in idle; a Worker already busy stays busy and keeps
// its current task. Worker identity (a deterministic function
// of stable host identifiers) is the caller's responsibility — the worker
// agent, not the coordinator, derives it; the coordinator only upserts
// whatever id it's given.
func (c *Coordinator) RegisterWorker(req types.RegisterRequest) (*types.Worker, error) {
	worker := &types.Worker{
		ID:            req.ID,
		Name:          req.Name,
		Hostname:      req.Hostname,
		IPAddress:     req.IPAddress,
		Status:        types.WorkerIdle,
		Pools:         req.Pools,
		Capabilities:  req.Capabilities,
		CPUCores:      req.CPUCores,
		MemoryTotal:   req.MemoryTotal,
		LastHeartbeat: time.Now(),
		Version:       req.Version,
	}

	existing, err := c.Store.GetWorker(req.ID)
	if err == nil {
		worker.CurrentTask = existing.CurrentTask
		if existing.Status == types.WorkerBusy {
			worker.Status = types.WorkerBusy
		}
	}

	if err := c.Store.CreateWorker(worker); err != nil {
		return nil, err
	}
	c.Bus.Publish(events.WorkerConnect, worker)
	return worker, nil
}

// Heartbeat records a worker's liveness report. The store's view of
// current_task is authoritative; a disagreement with what the worker
// reports is logged, not corrected from the worker's claim.
func (c *Coordinator) Heartbeat(id string, hb types.Heartbeat) error {
	worker, err := c.Store.GetWorker(id)
	if err != nil {
		return wrapNotFound(err)
	}

	if hb.CurrentTask != "" && hb.CurrentTask != worker.CurrentTask {
		c.logger.Warn().Str("worker_id", id).Str("worker_claims", hb.CurrentTask).
			Str("store_has", worker.CurrentTask).Msg("worker heartbeat disagrees with store's current task")
	}

	worker.LastHeartbeat = time.Now()
	worker.CPUUsage = hb.CPUUsage
	worker.MemoryUsed = hb.MemoryUsed
	if worker.Status != types.WorkerDisabled && hb.Status != "" {
		worker.Status = hb.Status
	}
	c.Bus.Publish(events.WorkerBeat, worker)
	return c.Store.UpdateWorker(worker)
}

// PullTask is the dispatcher entry point: a Worker must be idle to pull,
// and at most one Task is returned.
func (c *Coordinator) PullTask(workerID string) (*types.Task, error) {
	worker, err := c.Store.GetWorker(workerID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if worker.Status != types.WorkerIdle {
		return nil, fmt.Errorf("%w: worker %s is %s", ErrWorkerNotIdle, workerID, worker.Status)
	}

	timer := metrics.NewTimer()
	task, err := c.Store.NextTaskForWorker(worker)
	timer.ObserveDuration(metrics.DispatchDuration)
	if err != nil {
		return nil, err
	}
	if task == nil {
		metrics.DispatchEmptyTotal.Inc()
		return nil, nil
	}

	c.Bus.Publish(events.TaskAssigned, task)
	return task, nil
}

// ListWorkers returns every registered Worker.
func (c *Coordinator) ListWorkers() ([]*types.Worker, error) {
	return c.Store.ListWorkers()
}

// GetWorker returns a single Worker by id.
func (c *Coordinator) GetWorker(id string) (*types.Worker, error) {
	worker, err := c.Store.GetWorker(id)
	return worker, wrapNotFound(err)
}

// EnableWorker clears a disabled Worker back to idle.
func (c *Coordinator) EnableWorker(id string) (*types.Worker, error) {
	worker, err := c.GetWorker(id)
	if err != nil {
		return nil, err
	}
	worker.Status = types.WorkerIdle
	if err := c.Store.UpdateWorker(worker); err != nil {
		return nil, err
	}
	return worker, nil
}

// DisableWorker marks a Worker disabled, releasing any task it holds back
// to pending so it can be redispatched.
func (c *Coordinator) DisableWorker(id string) (*types.Worker, error) {
	worker, err := c.GetWorker(id)
	if err != nil {
		return nil, err
	}
	if worker.CurrentTask != "" {
		if task, err := c.Store.GetTask(worker.CurrentTask); err == nil {
			task.Status = types.TaskPending
			task.AssignedWorker = ""
			_ = c.Store.UpdateTask(task)
		}
	}
	worker.Status = types.WorkerDisabled
	worker.CurrentTask = ""
	if err := c.Store.UpdateWorker(worker); err != nil {
		return nil, err
	}
	return worker, nil
}

// DeleteWorker removes a Worker. Only offline or disabled workers may be
// deleted, mirroring the rule that a Job must be terminal to delete.
func (c *Coordinator) DeleteWorker(id string) error {
	worker, err := c.GetWorker(id)
	if err != nil {
		return err
	}
	if worker.Status != types.WorkerOffline && worker.Status != types.WorkerDisabled {
		return fmt.Errorf("%w: worker %s is %s", ErrWorkerInUse, id, worker.Status)
	}
	return c.Store.DeleteWorker(id)
}
