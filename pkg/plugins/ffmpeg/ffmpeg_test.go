package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChenxingM/RenderQ/pkg/types"
)

func TestValidateRequiresInputAndOutput(t *testing.T) {
	p := New()

	ok, reason := p.Validate(map[string]any{})
	assert.False(t, ok)
	assert.Contains(t, reason, "input_pattern")

	ok, reason = p.Validate(map[string]any{"input_pattern": "/in/%05d.png"})
	assert.False(t, ok)
	assert.Contains(t, reason, "output_file")

	ok, _ = p.Validate(map[string]any{"input_pattern": "/in/%05d.png", "output_file": "/out/final.mp4"})
	assert.True(t, ok)
}

func TestValidateRequiresProfileForProresKs(t *testing.T) {
	p := New()

	ok, reason := p.Validate(map[string]any{
		"input_pattern": "/in/%05d.png",
		"output_file":   "/out/final.mov",
		"codec":         "prores_ks",
	})
	assert.False(t, ok)
	assert.Contains(t, reason, "profile")

	ok, _ = p.Validate(map[string]any{
		"input_pattern": "/in/%05d.png",
		"output_file":   "/out/final.mov",
		"codec":         "prores_ks",
		"profile":       "4444",
	})
	assert.True(t, ok)
}

// CreateTasks always partitions to a single Task: encoding one output file
// is not divisible across workers the way a frame range is.
func TestCreateTasksAlwaysProducesSingleTask(t *testing.T) {
	p := New()

	job := &types.Job{ID: "job-1", PluginData: map[string]any{
		"input_pattern": "/in/%05d.png",
		"output_file":   "/out/final.mp4",
	}}

	tasks, err := p.CreateTasks(job)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, job.ID, tasks[0].JobID)
	assert.Equal(t, 0, tasks[0].Index)
	assert.Equal(t, types.TaskPending, tasks[0].Status)
}

func TestBuildCommandIncludesCodecAndExtras(t *testing.T) {
	p := New()
	job := &types.Job{PluginData: map[string]any{
		"input_pattern": "/in/%05d.png",
		"output_file":   "/out/final.mp4",
		"codec":         "libx264",
		"crf":           20,
		"preset":        "slow",
		"start_number":  1,
		"extra_args":    "-movflags +faststart",
	}}
	task := &types.Task{}

	args, err := p.BuildCommand(task, job)
	require.NoError(t, err)

	assert.Contains(t, args, "-c:v")
	assert.Contains(t, args, "libx264")
	assert.Contains(t, args, "-crf")
	assert.Contains(t, args, "20")
	assert.Contains(t, args, "-preset")
	assert.Contains(t, args, "slow")
	assert.Contains(t, args, "-movflags")
	assert.Contains(t, args, "+faststart")
	assert.Equal(t, "/out/final.mp4", args[len(args)-1])
}

func TestBuildCommandRequiresExecutable(t *testing.T) {
	p := &Plugin{}
	job := &types.Job{PluginData: map[string]any{
		"input_pattern": "/in/%05d.png",
		"output_file":   "/out/final.mp4",
	}}

	_, err := p.BuildCommand(&types.Task{}, job)
	assert.Error(t, err)
}

func TestParseProgressReportsCompleteOnFinalSummaryLine(t *testing.T) {
	p := New()
	task := &types.Task{}

	_, ok := p.ParseProgress("frame=  120 fps=30 q=28.0 size=    512kB time=00:00:04.00 bitrate= 1048.6kbits/s", task)
	assert.False(t, ok, "ffmpeg has no reliable total-frame count to derive a fraction from")

	progress, ok := p.ParseProgress("video:512kB audio:64kB subtitle:0kB other streams:0kB global headers:0kB muxing overhead: 0.1%", task)
	require.True(t, ok)
	assert.Equal(t, 100.0, progress)
}
