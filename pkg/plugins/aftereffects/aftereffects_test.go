package aftereffects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChenxingM/RenderQ/pkg/types"
)

func TestValidateChecksRequiredFieldsAndFrameRange(t *testing.T) {
	p := New()

	ok, reason := p.Validate(map[string]any{})
	assert.False(t, ok)
	assert.Contains(t, reason, "project_path")

	ok, reason = p.Validate(map[string]any{
		"project_path": "/proj.aep",
		"comp_name":    "Main",
		"output_path":  "/out/%05d.png",
		"frame_start":  100,
		"frame_end":    1,
	})
	assert.False(t, ok)
	assert.Contains(t, reason, "frame_start")

	ok, _ = p.Validate(map[string]any{
		"project_path": "/proj.aep",
		"comp_name":    "Main",
		"output_path":  "/out/%05d.png",
		"frame_start":  1,
		"frame_end":    100,
	})
	assert.True(t, ok)
}

func TestCreateTasksChunksFrameRangeByDefaultSize(t *testing.T) {
	p := New()

	job := &types.Job{ID: "job-1", PluginData: map[string]any{
		"frame_start": 1,
		"frame_end":   120,
	}}

	tasks, err := p.CreateTasks(job)
	require.NoError(t, err)
	require.Len(t, tasks, 3, "120 frames at the default chunk size of 50 should produce 3 chunks")

	assert.Equal(t, 1, *tasks[0].FrameStart)
	assert.Equal(t, 50, *tasks[0].FrameEnd)
	assert.Equal(t, 51, *tasks[1].FrameStart)
	assert.Equal(t, 100, *tasks[1].FrameEnd)
	assert.Equal(t, 101, *tasks[2].FrameStart)
	assert.Equal(t, 120, *tasks[2].FrameEnd)

	for i, task := range tasks {
		assert.Equal(t, i, task.Index)
		assert.Equal(t, job.ID, task.JobID)
		assert.Equal(t, types.TaskPending, task.Status)
	}
}

func TestCreateTasksHonorsExplicitChunkSize(t *testing.T) {
	p := New()

	job := &types.Job{ID: "job-1", PluginData: map[string]any{
		"frame_start": 1,
		"frame_end":   10,
		"chunk_size":  4,
	}}

	tasks, err := p.CreateTasks(job)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, 1, *tasks[0].FrameStart)
	assert.Equal(t, 4, *tasks[0].FrameEnd)
	assert.Equal(t, 9, *tasks[2].FrameStart)
	assert.Equal(t, 10, *tasks[2].FrameEnd)
}

func TestParseProgressComputesFractionWithinTaskRange(t *testing.T) {
	p := New()
	start, end := 101, 200
	task := &types.Task{FrameStart: &start, FrameEnd: &end}

	progress, ok := p.ParseProgress("PROGRESS:  0:00:10 (150)", task)
	require.True(t, ok)
	assert.InDelta(t, 50.0, progress, 0.01)

	progress, ok = p.ParseProgress("PROGRESS: Total Time Elapsed : 0:01:00", task)
	require.True(t, ok)
	assert.Equal(t, 100.0, progress)

	_, ok = p.ParseProgress("something unrelated", task)
	assert.False(t, ok)
}

func TestGetEncodingJobsEmitsOneFollowUpPerRequestedFormat(t *testing.T) {
	p := New()

	job := &types.Job{
		ID:     "job-1",
		Name:   "shot010",
		Pool:   "gpu",
		Priority: 60,
		PluginData: map[string]any{
			"output_path":    "/out/shot010.png",
			"output_formats": "prores4444,mp4",
		},
	}

	followUps := p.GetEncodingJobs(job)
	require.Len(t, followUps, 2, "both requested formats should produce a follow-up job")

	byExt := map[string]bool{}
	for _, f := range followUps {
		assert.Equal(t, "ffmpeg", f.Plugin)
		assert.Equal(t, job.Priority, f.Priority)
		assert.Equal(t, job.Pool, f.Pool)
		output, _ := f.PluginData["output_file"].(string)
		byExt[output] = true
	}
	assert.True(t, byExt["/out/shot010.mov"], "prores4444 should encode to a .mov")
	assert.True(t, byExt["/out/shot010.mp4"], "mp4 should encode to a .mp4")
}

func TestGetEncodingJobsSkipsPngNoOp(t *testing.T) {
	p := New()

	job := &types.Job{ID: "job-1", Name: "shot010", PluginData: map[string]any{
		"output_path":    "/out/shot010.png",
		"output_formats": "png",
	}}

	assert.Nil(t, p.GetEncodingJobs(job))
}

func TestGetEncodingJobsHandlesMissingOutputFormats(t *testing.T) {
	p := New()

	job := &types.Job{ID: "job-1", Name: "shot010", PluginData: map[string]any{
		"output_path": "/out/shot010.png",
	}}

	assert.Nil(t, p.GetEncodingJobs(job))
}
