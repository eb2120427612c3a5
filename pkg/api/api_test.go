package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChenxingM/RenderQ/pkg/coordinator"
	"github.com/ChenxingM/RenderQ/pkg/events"
	"github.com/ChenxingM/RenderQ/pkg/plugins"
	"github.com/ChenxingM/RenderQ/pkg/plugins/ffmpeg"
	"github.com/ChenxingM/RenderQ/pkg/scheduler"
	"github.com/ChenxingM/RenderQ/pkg/storage"
	"github.com/ChenxingM/RenderQ/pkg/types"
)

type testEnv struct {
	router *gin.Engine
	coord  *coordinator.Coordinator
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	bus := events.NewBus()
	bus.Start()
	registry := plugins.NewRegistry()
	registry.Register(ffmpeg.New())
	sched := scheduler.New(store, bus, registry, scheduler.DefaultConfig())

	coord := coordinator.New(store, bus, registry, sched, t.TempDir())

	router := gin.New()
	registerRoutes(router, coord)

	t.Cleanup(func() { _ = coord.Stop() })

	return &testEnv{router: router, coord: coord}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitJobEndpoint(t *testing.T) {
	env := newTestServer(t)

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/jobs", map[string]any{
		"name":   "encode",
		"plugin": "ffmpeg",
		"pool":   "default",
		"plugin_data": map[string]any{
			"input_pattern": "/in/%05d.png",
			"output_file":   "/out/final.mp4",
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var job types.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, types.JobQueued, job.Status)
}

func TestSubmitJobUnknownPluginReturns400(t *testing.T) {
	env := newTestServer(t)

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/jobs", map[string]any{
		"name":   "x",
		"plugin": "does-not-exist",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitJobWithZeroPriorityIsAccepted(t *testing.T) {
	env := newTestServer(t)

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/jobs", map[string]any{
		"name":     "encode",
		"plugin":   "ffmpeg",
		"priority": 0,
		"plugin_data": map[string]any{
			"input_pattern": "/in/%05d.png",
			"output_file":   "/out/final.mp4",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var job types.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, 0, job.Priority, "an explicit priority of 0 must not be rewritten to the default")
}

func TestSubmitJobOutOfRangePriorityReturns400(t *testing.T) {
	env := newTestServer(t)

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/jobs", map[string]any{
		"name":     "encode",
		"plugin":   "ffmpeg",
		"priority": 101,
		"plugin_data": map[string]any{
			"input_pattern": "/in/%05d.png",
			"output_file":   "/out/final.mp4",
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetJobNotFoundReturns404(t *testing.T) {
	env := newTestServer(t)

	w := doJSON(t, env.router, http.MethodGet, "/api/v1/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorkerRegisterAndPullEndpoints(t *testing.T) {
	env := newTestServer(t)

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/workers/register", types.RegisterRequest{
		ID: "w1", Name: "box", Pools: []string{"default"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	submit := doJSON(t, env.router, http.MethodPost, "/api/v1/jobs", map[string]any{
		"name":   "encode",
		"plugin": "ffmpeg",
		"pool":   "default",
		"plugin_data": map[string]any{
			"input_pattern": "/in/%05d.png",
			"output_file":   "/out/final.mp4",
		},
	})
	require.Equal(t, http.StatusCreated, submit.Code)

	pull := doJSON(t, env.router, http.MethodPost, "/api/v1/workers/w1/pull", nil)
	assert.Equal(t, http.StatusOK, pull.Code)

	var task types.Task
	require.NoError(t, json.Unmarshal(pull.Body.Bytes(), &task))
	assert.Equal(t, types.TaskAssigned, task.Status)

	emptyPull := doJSON(t, env.router, http.MethodPost, "/api/v1/workers/w1/pull", nil)
	assert.Equal(t, http.StatusBadRequest, emptyPull.Code, "worker is busy, not idle, on the second pull")
}

func TestListPluginsEndpoint(t *testing.T) {
	env := newTestServer(t)

	w := doJSON(t, env.router, http.MethodGet, "/api/v1/plugins", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var infos []pluginInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "ffmpeg", infos[0].Name)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestServer(t)

	w := doJSON(t, env.router, http.MethodGet, "/api/v1/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
