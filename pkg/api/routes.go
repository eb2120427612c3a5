package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ChenxingM/RenderQ/pkg/coordinator"
	"github.com/ChenxingM/RenderQ/pkg/metrics"
)

// registerRoutes wires every endpoint the coordinator exposes.
func registerRoutes(router *gin.Engine, coord *coordinator.Coordinator) {
	h := &handlers{coord: coord}

	v1 := router.Group("/api/v1")

	jobs := v1.Group("/jobs")
	jobs.POST("", h.submitJob)
	jobs.GET("", h.listJobs)
	jobs.GET("/:id", h.getJob)
	jobs.GET("/:id/tasks", h.getJobTasks)
	jobs.POST("/:id/suspend", h.suspendJob)
	jobs.POST("/:id/resume", h.resumeJob)
	jobs.POST("/:id/cancel", h.cancelJob)
	jobs.POST("/:id/retry", h.retryJob)
	jobs.PATCH("/:id/priority", h.updateJobPriority)
	jobs.DELETE("/:id", h.deleteJob)

	tasks := v1.Group("/tasks")
	tasks.POST("/:id/start", h.taskStart)
	tasks.POST("/:id/progress", h.taskProgress)
	tasks.POST("/:id/complete", h.taskComplete)
	tasks.POST("/:id/fail", h.taskFail)
	tasks.POST("/:id/retry", h.taskRetry)
	tasks.POST("/:id/cancel", h.taskCancel)
	tasks.POST("/:id/suspend", h.taskSuspend)
	tasks.POST("/:id/log", h.appendTaskLog)
	tasks.GET("/:id/log", h.getTaskLog)

	workers := v1.Group("/workers")
	workers.POST("/register", h.registerWorker)
	workers.POST("/:id/heartbeat", h.workerHeartbeat)
	workers.POST("/:id/pull", h.pullTask)
	workers.GET("", h.listWorkers)
	workers.GET("/:id", h.getWorker)
	workers.POST("/:id/enable", h.enableWorker)
	workers.POST("/:id/disable", h.disableWorker)
	workers.DELETE("/:id", h.deleteWorker)

	v1.GET("/plugins", h.listPlugins)
	v1.GET("/plugins/:name", h.getPlugin)
	v1.GET("/stats", h.stats)
	v1.GET("/events", h.events)

	router.GET("/health", h.health)
	router.GET("/ready", h.ready)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// handlers bundles every route handler with the coordinator they call
// through to, so each handler method needs no closure state of its own.
type handlers struct {
	coord *coordinator.Coordinator
}
