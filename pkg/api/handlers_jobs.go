package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ChenxingM/RenderQ/pkg/scheduler"
	"github.com/ChenxingM/RenderQ/pkg/types"
)

type submitJobRequest struct {
	Name        string         `json:"name" binding:"required"`
	Plugin      string         `json:"plugin" binding:"required"`
	Priority    *int           `json:"priority"`
	Pool        string         `json:"pool"`
	PluginData  map[string]any `json:"plugin_data"`
	DependentOn []string       `json:"dependent_on"`
	Metadata    map[string]any `json:"metadata"`
	SubmittedBy string         `json:"submitted_by"`
}

func (h *handlers) submitJob(c *gin.Context) {
	var req submitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.coord.SubmitJob(scheduler.SubmitRequest{
		Name:        req.Name,
		Plugin:      req.Plugin,
		Priority:    req.Priority,
		Pool:        req.Pool,
		PluginData:  req.PluginData,
		DependentOn: req.DependentOn,
		Metadata:    req.Metadata,
		SubmittedBy: req.SubmittedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *handlers) listJobs(c *gin.Context) {
	status := types.JobStatus(c.Query("status"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	jobs, err := h.coord.ListJobs(status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *handlers) getJob(c *gin.Context) {
	job, err := h.coord.GetJob(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *handlers) getJobTasks(c *gin.Context) {
	tasks, err := h.coord.ListTasksForJob(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *handlers) suspendJob(c *gin.Context) {
	job, err := h.coord.SuspendJob(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *handlers) resumeJob(c *gin.Context) {
	job, err := h.coord.ResumeJob(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *handlers) cancelJob(c *gin.Context) {
	job, err := h.coord.CancelJob(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *handlers) retryJob(c *gin.Context) {
	job, err := h.coord.RetryJob(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *handlers) updateJobPriority(c *gin.Context) {
	var body struct {
		Priority int `json:"priority"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, err := h.coord.UpdatePriority(c.Param("id"), body.Priority)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *handlers) deleteJob(c *gin.Context) {
	if err := h.coord.DeleteJob(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
