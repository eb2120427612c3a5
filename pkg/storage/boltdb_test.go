package storage

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChenxingM/RenderQ/pkg/types"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateGetJobRoundTrip(t *testing.T) {
	store := newTestStore(t)

	job := &types.Job{ID: "job-1", Name: "render", Plugin: "ffmpeg", Status: types.JobQueued, SubmittedAt: time.Now()}
	require.NoError(t, store.CreateJob(job))

	got, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.Name, got.Name)
}

func TestGetJobMissingReturnsWrappedErrNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetJob("does-not-exist")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "GetJob on a missing id must wrap ErrNotFound")
}

// TestNextTaskForWorkerAtMostOnceUnderConcurrency races many goroutines
// against a store holding exactly one eligible pending Task, each acting as
// a different idle worker pulling work at the same instant. Every mutation
// NextTaskForWorker makes runs inside one db.Update closure, so only one
// caller may ever observe the task as a candidate and claim it.
func TestNextTaskForWorkerAtMostOnceUnderConcurrency(t *testing.T) {
	store := newTestStore(t)

	job := &types.Job{ID: "job-1", Name: "render", Plugin: "ffmpeg", Pool: "default", Status: types.JobQueued, SubmittedAt: time.Now()}
	require.NoError(t, store.CreateJob(job))
	require.NoError(t, store.CreateTask(&types.Task{ID: "task-1", JobID: job.ID, Index: 0, Status: types.TaskPending}))

	const workerCount = 32
	workers := make([]*types.Worker, workerCount)
	for i := range workers {
		workers[i] = &types.Worker{
			ID:     fmt.Sprintf("worker-%d", i),
			Pools:  []string{"default"},
			Status: types.WorkerIdle,
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var won []*types.Task

	for _, w := range workers {
		wg.Add(1)
		go func(worker *types.Worker) {
			defer wg.Done()
			task, err := store.NextTaskForWorker(worker)
			if err != nil {
				t.Errorf("NextTaskForWorker: %v", err)
				return
			}
			if task != nil {
				mu.Lock()
				won = append(won, task)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	require.Len(t, won, 1, "exactly one concurrent caller must win the single pending task")
	assert.Equal(t, "task-1", won[0].ID)

	reloaded, err := store.GetTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, types.TaskAssigned, reloaded.Status)
	assert.NotEmpty(t, reloaded.AssignedWorker)

	job, err = store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobActive, job.Status, "claiming the task should have promoted the job to active")
}

func TestNextTaskForWorkerRespectsPoolAndCapability(t *testing.T) {
	store := newTestStore(t)

	job := &types.Job{ID: "job-1", Plugin: "ffmpeg", Pool: "gpu", Status: types.JobQueued, SubmittedAt: time.Now()}
	require.NoError(t, store.CreateJob(job))
	require.NoError(t, store.CreateTask(&types.Task{ID: "task-1", JobID: job.ID, Index: 0, Status: types.TaskPending}))

	wrongPool := &types.Worker{ID: "w-pool", Pools: []string{"cpu"}, Status: types.WorkerIdle}
	task, err := store.NextTaskForWorker(wrongPool)
	require.NoError(t, err)
	assert.Nil(t, task, "a worker outside the job's pool must not be offered its task")

	wrongCapability := &types.Worker{ID: "w-cap", Pools: []string{"gpu"}, Capabilities: []string{"aftereffects"}, Status: types.WorkerIdle}
	task, err = store.NextTaskForWorker(wrongCapability)
	require.NoError(t, err)
	assert.Nil(t, task, "a worker that declares capabilities not including the job's plugin must not be offered its task")

	eligible := &types.Worker{ID: "w-ok", Pools: []string{"gpu"}, Status: types.WorkerIdle}
	task, err = store.NextTaskForWorker(eligible)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "task-1", task.ID)
}

func TestNextTaskForWorkerPrefersHigherPriority(t *testing.T) {
	store := newTestStore(t)

	low := &types.Job{ID: "job-low", Plugin: "ffmpeg", Pool: "default", Priority: 10, Status: types.JobQueued, SubmittedAt: time.Now()}
	high := &types.Job{ID: "job-high", Plugin: "ffmpeg", Pool: "default", Priority: 90, Status: types.JobQueued, SubmittedAt: time.Now()}
	require.NoError(t, store.CreateJob(low))
	require.NoError(t, store.CreateJob(high))
	require.NoError(t, store.CreateTask(&types.Task{ID: "task-low", JobID: low.ID, Index: 0, Status: types.TaskPending}))
	require.NoError(t, store.CreateTask(&types.Task{ID: "task-high", JobID: high.ID, Index: 0, Status: types.TaskPending}))

	worker := &types.Worker{ID: "w-1", Pools: []string{"default"}, Status: types.WorkerIdle}
	task, err := store.NextTaskForWorker(worker)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "task-high", task.ID, "the higher-priority job's task must dispatch first")
}

func TestNextTaskForWorkerWaitsOnUnmetDependency(t *testing.T) {
	store := newTestStore(t)

	upstream := &types.Job{ID: "job-upstream", Plugin: "ffmpeg", Pool: "default", Status: types.JobQueued, SubmittedAt: time.Now()}
	downstream := &types.Job{ID: "job-downstream", Plugin: "ffmpeg", Pool: "default", Status: types.JobQueued, DependentOn: []string{upstream.ID}, SubmittedAt: time.Now()}
	require.NoError(t, store.CreateJob(upstream))
	require.NoError(t, store.CreateJob(downstream))
	require.NoError(t, store.CreateTask(&types.Task{ID: "task-downstream", JobID: downstream.ID, Index: 0, Status: types.TaskPending}))

	worker := &types.Worker{ID: "w-1", Pools: []string{"default"}, Status: types.WorkerIdle}
	task, err := store.NextTaskForWorker(worker)
	require.NoError(t, err)
	assert.Nil(t, task, "downstream's task must not dispatch before its dependency completes")

	upstream.Status = types.JobCompleted
	require.NoError(t, store.UpdateJob(upstream))

	task, err = store.NextTaskForWorker(worker)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "task-downstream", task.ID)
}
