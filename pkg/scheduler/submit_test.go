package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitRequest(name string, priority *int) SubmitRequest {
	return SubmitRequest{
		Name:   name,
		Plugin: "ffmpeg",
		PluginData: map[string]any{
			"input_pattern": "/in/%05d.png",
			"output_file":   "/out/final.mp4",
		},
		Priority: priority,
	}
}

func TestSubmitDefaultsPriorityWhenNotProvided(t *testing.T) {
	store, bus, registry := newTestEnv(t)

	job, err := Submit(store, registry, bus, submitRequest("encode", nil))
	require.NoError(t, err)
	assert.Equal(t, 50, job.Priority)
}

func TestSubmitAcceptsExplicitZeroPriority(t *testing.T) {
	store, bus, registry := newTestEnv(t)

	zero := 0
	job, err := Submit(store, registry, bus, submitRequest("encode", &zero))
	require.NoError(t, err)
	assert.Equal(t, 0, job.Priority, "an explicit 0 must not be conflated with 'not provided'")
}

func TestSubmitAcceptsMaxPriority(t *testing.T) {
	store, bus, registry := newTestEnv(t)

	hundred := 100
	job, err := Submit(store, registry, bus, submitRequest("encode", &hundred))
	require.NoError(t, err)
	assert.Equal(t, 100, job.Priority)
}

func TestSubmitRejectsPriorityAboveRange(t *testing.T) {
	store, bus, registry := newTestEnv(t)

	tooHigh := 101
	_, err := Submit(store, registry, bus, submitRequest("encode", &tooHigh))
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestSubmitRejectsNegativePriority(t *testing.T) {
	store, bus, registry := newTestEnv(t)

	negative := -1
	_, err := Submit(store, registry, bus, submitRequest("encode", &negative))
	assert.ErrorIs(t, err, ErrValidationFailed)
}
