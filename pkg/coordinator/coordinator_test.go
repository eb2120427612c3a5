package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChenxingM/RenderQ/pkg/events"
	"github.com/ChenxingM/RenderQ/pkg/plugins"
	"github.com/ChenxingM/RenderQ/pkg/plugins/ffmpeg"
	"github.com/ChenxingM/RenderQ/pkg/scheduler"
	"github.com/ChenxingM/RenderQ/pkg/storage"
	"github.com/ChenxingM/RenderQ/pkg/types"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)

	bus := events.NewBus()
	bus.Start()

	registry := plugins.NewRegistry()
	registry.Register(ffmpeg.New())

	sched := scheduler.New(store, bus, registry, scheduler.DefaultConfig())

	c := New(store, bus, registry, sched, t.TempDir())
	t.Cleanup(func() {
		bus.Stop()
	})
	return c
}

func submitFFmpegJob(t *testing.T, c *Coordinator) *types.Job {
	t.Helper()
	job, err := c.SubmitJob(scheduler.SubmitRequest{
		Name:   "encode",
		Plugin: "ffmpeg",
		Pool:   "default",
		PluginData: map[string]any{
			"input_pattern": "/in/%05d.png",
			"output_file":   "/out/final.mp4",
		},
	})
	require.NoError(t, err)
	return job
}

func TestSubmitJobQueuesWithOneTask(t *testing.T) {
	c := newTestCoordinator(t)
	job := submitFFmpegJob(t, c)

	assert.Equal(t, types.JobQueued, job.Status)
	assert.Equal(t, 1, job.TaskTotal)

	tasks, err := c.ListTasksForJob(job.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSubmitJobUnknownPlugin(t *testing.T) {
	c := newTestCoordinator(t)
	_, err := c.SubmitJob(scheduler.SubmitRequest{Name: "x", Plugin: "nope"})
	assert.ErrorIs(t, err, ErrUnknownPlugin)
}

func TestJobLifecycleSuspendResumeCancel(t *testing.T) {
	c := newTestCoordinator(t)
	job := submitFFmpegJob(t, c)

	job, err := c.SuspendJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobSuspended, job.Status)

	job, err = c.ResumeJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobQueued, job.Status)

	job, err = c.CancelJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobCancelled, job.Status)
	assert.NotNil(t, job.FinishedAt)

	_, err = c.CancelJob(job.ID)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestUpdatePriorityRejectsOutOfRangeValue(t *testing.T) {
	c := newTestCoordinator(t)
	job := submitFFmpegJob(t, c)

	_, err := c.UpdatePriority(job.ID, 101)
	assert.ErrorIs(t, err, ErrValidationFailed)

	updated, err := c.UpdatePriority(job.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Priority)
}

func TestDeleteJobRequiresTerminal(t *testing.T) {
	c := newTestCoordinator(t)
	job := submitFFmpegJob(t, c)

	err := c.DeleteJob(job.ID)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = c.CancelJob(job.ID)
	require.NoError(t, err)

	require.NoError(t, c.DeleteJob(job.ID))
	_, err = c.GetJob(job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkerRegisterIsIdempotent(t *testing.T) {
	c := newTestCoordinator(t)
	req := types.RegisterRequest{ID: "w1", Name: "render-box", Pools: []string{"default"}}

	w1, err := c.RegisterWorker(req)
	require.NoError(t, err)
	assert.Equal(t, types.WorkerIdle, w1.Status)

	w2, err := c.RegisterWorker(req)
	require.NoError(t, err)
	assert.Equal(t, w1.ID, w2.ID)
	assert.Equal(t, types.WorkerIdle, w2.Status)
}

func TestPullTaskRequiresIdleWorker(t *testing.T) {
	c := newTestCoordinator(t)
	_, err := c.RegisterWorker(types.RegisterRequest{ID: "w1", Pools: []string{"default"}})
	require.NoError(t, err)

	job := submitFFmpegJob(t, c)
	_ = job

	task, err := c.PullTask("w1")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, types.TaskAssigned, task.Status)

	_, err = c.PullTask("w1")
	assert.ErrorIs(t, err, ErrWorkerNotIdle)
}

func TestTaskLifecycleCompletesJob(t *testing.T) {
	c := newTestCoordinator(t)
	_, err := c.RegisterWorker(types.RegisterRequest{ID: "w1", Pools: []string{"default"}})
	require.NoError(t, err)

	job := submitFFmpegJob(t, c)
	task, err := c.PullTask("w1")
	require.NoError(t, err)
	require.NotNil(t, task)

	reloadedJob, err := c.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobActive, reloadedJob.Status)

	_, err = c.TaskStart(task.ID)
	require.NoError(t, err)

	_, err = c.TaskProgress(task.ID, 50)
	require.NoError(t, err)

	reloadedJob, err = c.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, reloadedJob.Progress)

	_, err = c.TaskComplete(task.ID, 0)
	require.NoError(t, err)

	reloadedJob, err = c.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloadedJob.TaskDone)

	worker, err := c.GetWorker("w1")
	require.NoError(t, err)
	assert.Equal(t, types.WorkerIdle, worker.Status)
	assert.Empty(t, worker.CurrentTask)
}

func TestTaskRetryAfterFailure(t *testing.T) {
	c := newTestCoordinator(t)
	_, err := c.RegisterWorker(types.RegisterRequest{ID: "w1", Pools: []string{"default"}})
	require.NoError(t, err)

	submitFFmpegJob(t, c)
	task, err := c.PullTask("w1")
	require.NoError(t, err)

	_, err = c.TaskStart(task.ID)
	require.NoError(t, err)
	_, err = c.TaskFail(task.ID, 1, "boom")
	require.NoError(t, err)

	failed, err := c.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskFailed, failed.Status)

	retried, err := c.TaskRetry(task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskPending, retried.Status)
	assert.Empty(t, retried.AssignedWorker)
}

func TestAppendAndGetLog(t *testing.T) {
	c := newTestCoordinator(t)
	_, err := c.RegisterWorker(types.RegisterRequest{ID: "w1", Pools: []string{"default"}})
	require.NoError(t, err)

	submitFFmpegJob(t, c)
	task, err := c.PullTask("w1")
	require.NoError(t, err)

	require.NoError(t, c.AppendLog(task.ID, "w1", []byte("line one\n")))
	require.NoError(t, c.AppendLog(task.ID, "w1", []byte("line two\n")))

	data, err := c.GetLog(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))

	require.NoError(t, c.ReplaceLog(task.ID, "w1", []byte("replaced\n")))
	data, err = c.GetLog(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "replaced\n", string(data))
}

func TestDisableWorkerReleasesTask(t *testing.T) {
	c := newTestCoordinator(t)
	_, err := c.RegisterWorker(types.RegisterRequest{ID: "w1", Pools: []string{"default"}})
	require.NoError(t, err)

	submitFFmpegJob(t, c)
	task, err := c.PullTask("w1")
	require.NoError(t, err)

	_, err = c.DisableWorker("w1")
	require.NoError(t, err)

	reloadedTask, err := c.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskPending, reloadedTask.Status)
	assert.Empty(t, reloadedTask.AssignedWorker)

	err = c.DeleteWorker("w1")
	require.NoError(t, err)
}

func TestStatsReflectsCounts(t *testing.T) {
	c := newTestCoordinator(t)
	submitFFmpegJob(t, c)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Jobs[types.JobQueued])
}

func TestListPlugins(t *testing.T) {
	c := newTestCoordinator(t)
	list := c.ListPlugins()
	assert.Len(t, list, 1)
	assert.Equal(t, "ffmpeg", list[0].Name())

	_, err := c.GetPlugin("does-not-exist")
	assert.ErrorIs(t, err, ErrUnknownPlugin)
}

func TestCoordinatorStartStop(t *testing.T) {
	c := newTestCoordinator(t)
	c.Start()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.Stop())
}
